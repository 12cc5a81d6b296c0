package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pepsafe/pepsafe-backend-go/internal/analysis/window"
	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/logging"
	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/privacy"
	"github.com/pepsafe/pepsafe-backend-go/internal/proximity"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/syncutil"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

// DefaultHistoryLookback bounds the recency query for window features.
const DefaultHistoryLookback = 10 * time.Minute

// SubjectStore loads subjects for ingestion.
type SubjectStore interface {
	GetOrCreate(ctx context.Context, id string) (*models.Subject, error)
}

// PingStore persists raw pings and their enrichment.
type PingStore interface {
	InsertRaw(ctx context.Context, p *models.RawPing) error
	RecentSamples(ctx context.Context, subjectID string, before time.Time, lookback time.Duration) ([]window.Sample, error)
	SaveEnrichment(ctx context.Context, e *models.EnrichedPing, proximities []models.Proximity) error
}

// ChokePointLister lists choke points for proximity calculation.
type ChokePointLister interface {
	List(ctx context.Context, category string) ([]models.ChokePoint, error)
}

// WeatherSource returns current conditions or nil.
type WeatherSource interface {
	Get(ctx context.Context, lat, lon float64) *weather.Data
}

// BusynessSource returns a crowding estimate or nil.
type BusynessSource interface {
	Get(ctx context.Context, lat, lon float64, ts time.Time) *busyness.Data
}

// IngestConfig tunes the window engine. Zero values use the defaults.
type IngestConfig struct {
	ShortWindow time.Duration
	LongWindow  time.Duration
	Lookback    time.Duration
	Now         func() time.Time
}

// IngestService runs the ping pipeline: privacy gate, raw storage, then
// enrichment for pings outside the home zone.
type IngestService struct {
	subjects    SubjectStore
	pings       PingStore
	chokePoints ChokePointLister
	weather     WeatherSource
	busyness    BusynessSource
	gateway     *privacy.Gateway
	cfg         IngestConfig
	locks       syncutil.KeyedMutex
	logger      *slog.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	subjects SubjectStore,
	pings PingStore,
	chokePoints ChokePointLister,
	weatherSrc WeatherSource,
	busynessSrc BusynessSource,
	gateway *privacy.Gateway,
	cfg IngestConfig,
	logger *slog.Logger,
) *IngestService {
	if cfg.ShortWindow <= 0 {
		cfg.ShortWindow = window.DefaultShortWindow
	}
	if cfg.LongWindow <= 0 {
		cfg.LongWindow = window.DefaultLongWindow
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultHistoryLookback
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestService{
		subjects:    subjects,
		pings:       pings,
		chokePoints: chokePoints,
		weather:     weatherSrc,
		busyness:    busynessSrc,
		gateway:     gateway,
		cfg:         cfg,
		logger:      logger.With("component", "ingest"),
	}
}

// ProcessPing validates, classifies and stores req. It fails only when the
// raw ping cannot be stored; enrichment problems degrade to nil fields.
func (s *IngestService) ProcessPing(ctx context.Context, req *models.PingRequest) (*models.PingResponse, error) {
	if err := req.Validate(); err != nil {
		metrics.PingsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	subjectID := req.Subject()
	ts := req.TimestampOr(s.cfg.Now())
	logger := logging.FromContext(ctx, s.logger).With("subject_id", subjectID)

	unlock := s.locks.Lock(subjectID)
	defer unlock()

	subject, err := s.subjects.GetOrCreate(ctx, subjectID)
	if err != nil {
		metrics.PingsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}

	started := time.Now()
	classification := s.gateway.Classify(privacy.Fix{
		Lat:      *req.Lat,
		Lon:      *req.Lon,
		Speed:    req.Speed,
		Bearing:  req.Bearing,
		Accuracy: req.Accuracy,
	}, homeOf(subject))

	raw := repository.NewRawPing(subjectID, ts, classification)
	if err := s.pings.InsertRaw(ctx, &raw); err != nil {
		metrics.PingsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to store ping: %w", err)
	}

	outside, ok := classification.(privacy.Outside)
	if !ok {
		logger.Info("ping filtered", "ping_id", raw.ID)
		metrics.PingsTotal.WithLabelValues(string(models.PingFiltered)).Inc()
		return &models.PingResponse{Status: models.PingFiltered, PingID: &raw.ID}, nil
	}

	s.enrich(ctx, logger, raw, outside.Fix)
	metrics.EnrichmentDuration.Observe(time.Since(started).Seconds())

	logger.Info("ping accepted", "ping_id", raw.ID)
	metrics.PingsTotal.WithLabelValues(string(models.PingAccepted)).Inc()
	return &models.PingResponse{Status: models.PingAccepted, PingID: &raw.ID}, nil
}

// enrich gathers every enrichment concurrently and stores the result. Each
// branch degrades on its own; no branch returns an error to the group.
func (s *IngestService) enrich(ctx context.Context, logger *slog.Logger, raw models.RawPing, fix privacy.Fix) {
	var (
		wx       *weather.Data
		busy     *busyness.Data
		prox     []models.Proximity
		features window.DualWindowFeatures
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.weather != nil {
			wx = s.weather.Get(gctx, fix.Lat, fix.Lon)
		}
		return nil
	})

	g.Go(func() error {
		if s.busyness != nil {
			busy = s.busyness.Get(gctx, fix.Lat, fix.Lon, raw.Timestamp)
		}
		return nil
	})

	g.Go(func() error {
		points, err := s.chokePoints.List(gctx, "")
		if err != nil {
			logger.Warn("choke point lookup failed", "error", err)
			metrics.EnrichmentFailuresTotal.WithLabelValues("proximity").Inc()
			return nil
		}
		prox = proximity.Calculate(raw.ID, fix.Lat, fix.Lon, points)
		return nil
	})

	g.Go(func() error {
		history, err := s.pings.RecentSamples(gctx, raw.SubjectID, raw.Timestamp, s.cfg.Lookback)
		if err != nil {
			logger.Warn("recent ping lookup failed", "error", err)
			metrics.EnrichmentFailuresTotal.WithLabelValues("history").Inc()
			history = nil
		}
		current := window.Sample{Timestamp: raw.Timestamp, Speed: fix.Speed, Bearing: fix.Bearing}
		features = window.ComputeDualWindow(current, history, s.cfg.ShortWindow, s.cfg.LongWindow)
		return nil
	})

	// every branch returns nil, so Wait only joins them
	_ = g.Wait()

	enriched := models.NewEnrichedPing(raw.ID, features, wx, busy)
	if err := s.pings.SaveEnrichment(ctx, enriched, prox); err != nil {
		logger.Error("failed to store enrichment", "ping_id", raw.ID, "error", err)
		metrics.EnrichmentFailuresTotal.WithLabelValues("store").Inc()
	}
}

func homeOf(s *models.Subject) *privacy.HomeLocation {
	if !s.HasHomeZone() {
		return nil
	}
	return &privacy.HomeLocation{Lat: *s.HomeLat, Lon: *s.HomeLon}
}
