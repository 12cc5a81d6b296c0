// Package weather provides cached current-conditions lookups.
package weather

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/cache"
	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

const (
	DefaultCacheTTL = 10 * time.Minute
	DefaultTimeout  = 10 * time.Second

	cacheKeyPrefix = "weather:v2:"
	metricsLabel   = "weather"
)

// Data is a current-conditions snapshot.
type Data struct {
	TempC       float64   `json:"temp_c"`
	FeelsLikeC  float64   `json:"feels_like_c"`
	HumidityPct float64   `json:"humidity_pct"`
	Rain1hMM    float64   `json:"rain_1h_mm"`
	WindSpeedMS float64   `json:"wind_speed_ms"`
	WindGustMS  *float64  `json:"wind_gust_ms"`
	VisibilityM float64   `json:"visibility_m"`
	Condition   string    `json:"condition"`
	ConditionID int       `json:"condition_id"`
	IsDaylight  bool      `json:"is_daylight"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Provider fetches uncached weather for a point.
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64) (*Data, error)
}

// Stats are the service's lifetime counters.
type Stats struct {
	CacheHits   int64   `json:"cache_hits"`
	CacheMisses int64   `json:"cache_misses"`
	APIErrors   int64   `json:"api_errors"`
	HitRatePct  float64 `json:"hit_rate_pct"`
}

// Service answers weather lookups from the cache, falling back to the provider.
type Service struct {
	provider Provider
	store    cache.Store
	ttl      time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	apiErrors atomic.Int64

	warnOnce sync.Once
}

// NewService creates a weather service. Zero ttl or timeout use the defaults.
func NewService(provider Provider, store cache.Store, ttl, timeout time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		store:    store,
		ttl:      ttl,
		timeout:  timeout,
		logger:   logger.With("component", "weather"),
	}
}

// CacheKey buckets a point to ~1 km.
func CacheKey(lat, lon float64) string {
	return cacheKeyPrefix + spatial.BucketKey(lat, lon, spatial.BucketPrecisionKm)
}

// Get returns weather for a point, or nil when it is unavailable. Failures are
// logged and counted, never returned.
func (s *Service) Get(ctx context.Context, lat, lon float64) *Data {
	key := CacheKey(lat, lon)

	var cached Data
	found, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("weather cache read failed", "error", err)
	}
	if found {
		s.hits.Add(1)
		metrics.CacheLookupsTotal.WithLabelValues(metricsLabel, "hit").Inc()
		return &cached
	}
	s.misses.Add(1)
	metrics.CacheLookupsTotal.WithLabelValues(metricsLabel, "miss").Inc()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.provider.Fetch(callCtx, lat, lon)
	if err != nil {
		s.recordFailure(err)
		return nil
	}

	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("weather cache write failed", "error", err)
	}
	return data
}

func (s *Service) recordFailure(err error) {
	if errors.Is(err, ErrNotConfigured) {
		s.warnOnce.Do(func() {
			s.logger.Warn("weather API key not configured, weather enrichment disabled")
		})
		return
	}

	reason := "request"
	var statusErr *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.As(err, &statusErr):
		reason = "status"
	}

	s.apiErrors.Add(1)
	metrics.WeatherAPIErrorsTotal.WithLabelValues(reason).Inc()
	s.logger.Warn("weather fetch failed", "reason", reason, "error", err)
}

// Stats returns a snapshot of the lifetime counters.
func (s *Service) Stats() Stats {
	st := Stats{
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
		APIErrors:   s.apiErrors.Load(),
	}
	if total := st.CacheHits + st.CacheMisses; total > 0 {
		st.HitRatePct = stats.Round(float64(st.CacheHits)/float64(total)*100, 1)
	}
	return st
}

// Stop logs the final counters.
func (s *Service) Stop() {
	st := s.Stats()
	s.logger.Info("weather service stopped",
		"cache_hits", st.CacheHits,
		"cache_misses", st.CacheMisses,
		"api_errors", st.APIErrors,
	)
}
