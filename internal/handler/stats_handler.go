package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/pkg/response"
)

// StatsHandler handles HTTP requests for walk statistics
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetWalkStatistics handles GET /api/v1/users/:id/stats
func (h *StatsHandler) GetWalkStatistics(c *gin.Context) {
	startTime, endTime, ok := parseTimeRange(c)
	if !ok {
		return
	}

	stats, err := h.statsService.GetWalkStatistics(c.Request.Context(), c.Param("id"), startTime, endTime)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, stats)
}

// GetHourlyActivity handles GET /api/v1/users/:id/stats/hourly
func (h *StatsHandler) GetHourlyActivity(c *gin.Context) {
	startTime, endTime, ok := parseTimeRange(c)
	if !ok {
		return
	}

	hours, err := h.statsService.GetHourlyActivity(c.Request.Context(), c.Param("id"), startTime, endTime)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, hours)
}

func (h *StatsHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, "Invalid time range", err)
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "User not found")
	default:
		response.InternalError(c, "Failed to load statistics", err)
	}
}

// parseTimeRange reads startTime and endTime (unix seconds, default 0).
// It writes a 400 and returns false on a malformed value.
func parseTimeRange(c *gin.Context) (int64, int64, bool) {
	startTime, err := strconv.ParseInt(c.DefaultQuery("startTime", "0"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid startTime parameter", err)
		return 0, 0, false
	}

	endTime, err := strconv.ParseInt(c.DefaultQuery("endTime", "0"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid endTime parameter", err)
		return 0, 0, false
	}

	return startTime, endTime, true
}
