package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/busyness"
	"github.com/pepsafe/pepsafe-backend-go/internal/health"
	"github.com/pepsafe/pepsafe-backend-go/internal/weather"
)

// CacheCheckName is the health check name reported as cache_available.
const CacheCheckName = "cache"

// CacheStats reports the enrichment caches' counters on the readiness endpoint.
// Nil fields are left out of the response.
type CacheStats struct {
	Weather  func() weather.Stats
	Busyness func() busyness.Stats
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	registry *health.Registry
	stats    CacheStats
	version  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *health.Registry, stats CacheStats, version string) *HealthHandler {
	return &HealthHandler{registry: registry, stats: stats, version: version}
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ready, checks := h.registry.CheckAll(c.Request.Context())

	body := gin.H{
		"status":          "ready",
		"cache_available": health.Healthy(checks, CacheCheckName),
		"version":         h.version,
		"checks":          checks,
	}
	if h.stats.Weather != nil {
		body["weather"] = h.stats.Weather()
	}
	if h.stats.Busyness != nil {
		body["busyness"] = h.stats.Busyness()
	}

	code := http.StatusOK
	if !ready {
		body["status"] = "not_ready"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}
