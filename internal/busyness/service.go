package busyness

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pepsafe/pepsafe-backend-go/internal/cache"
	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/spatial"
	"github.com/pepsafe/pepsafe-backend-go/internal/stats"
)

const (
	DefaultCacheTTL = 5 * time.Minute

	metricsLabel = "busyness"
)

// CacheKey buckets a point to ~100 m and the instant to a 5-minute slot of its UTC day.
func CacheKey(lat, lon float64, ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("busyness:v1:%s:%s:%d:%d",
		spatial.BucketKey(lat, lon, spatial.BucketPrecisionBlock),
		ts.Format("20060102"),
		ts.Hour(),
		ts.Minute()/5*5,
	)
}

// Service wraps Model with a read-through cache.
type Service struct {
	model  Model
	store  cache.Store
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewService creates a cached busyness service. A zero ttl uses DefaultCacheTTL.
func NewService(model Model, store cache.Store, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		model:  model,
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "busyness"),
	}
}

// Get returns the estimate for a point at ts. Cache failures only cost a recompute.
func (s *Service) Get(ctx context.Context, lat, lon float64, ts time.Time) *Data {
	key := CacheKey(lat, lon, ts)

	var cached Data
	found, err := s.store.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("busyness cache read failed", "error", err)
	}
	if found {
		s.hits.Add(1)
		metrics.CacheLookupsTotal.WithLabelValues(metricsLabel, "hit").Inc()
		return &cached
	}
	s.misses.Add(1)
	metrics.CacheLookupsTotal.WithLabelValues(metricsLabel, "miss").Inc()

	data := s.model.Generate(lat, lon, ts)
	if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("busyness cache write failed", "error", err)
	}
	return &data
}

// Stats are the service's lifetime cache counters.
type Stats struct {
	CacheHits   int64   `json:"cache_hits"`
	CacheMisses int64   `json:"cache_misses"`
	HitRatePct  float64 `json:"hit_rate_pct"`
}

// Stats returns a snapshot of the lifetime counters.
func (s *Service) Stats() Stats {
	st := Stats{
		CacheHits:   s.hits.Load(),
		CacheMisses: s.misses.Load(),
	}
	if total := st.CacheHits + st.CacheMisses; total > 0 {
		st.HitRatePct = stats.Round(float64(st.CacheHits)/float64(total)*100, 1)
	}
	return st
}
