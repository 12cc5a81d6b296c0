package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/pkg/response"
)

// PingProcessor runs the ingestion pipeline.
type PingProcessor interface {
	ProcessPing(ctx context.Context, req *models.PingRequest) (*models.PingResponse, error)
}

// PingHandler handles HTTP requests for ping ingestion
type PingHandler struct {
	ingest           PingProcessor
	defaultSubjectID string
}

// NewPingHandler creates a new ping handler. OwnTracks pings are attributed
// to defaultSubjectID.
func NewPingHandler(ingest PingProcessor, defaultSubjectID string) *PingHandler {
	return &PingHandler{ingest: ingest, defaultSubjectID: defaultSubjectID}
}

// Ingest handles POST /api/v1/ping
func (h *PingHandler) Ingest(c *gin.Context) {
	var req models.PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid ping", err)
		return
	}

	h.process(c, &req)
}

// OwnTracks handles POST /api/v1/ping/owntracks. Messages other than
// locations are acknowledged and dropped.
func (h *PingHandler) OwnTracks(c *gin.Context) {
	var msg models.OwnTracksLocation
	if err := c.ShouldBindJSON(&msg); err != nil {
		response.BadRequest(c, "Invalid OwnTracks payload", err)
		return
	}

	if !msg.IsLocation() {
		c.JSON(http.StatusOK, []any{})
		return
	}

	req := msg.ToPingRequest(h.defaultSubjectID)
	h.process(c, &req)
}

func (h *PingHandler) process(c *gin.Context, req *models.PingRequest) {
	resp, err := h.ingest.ProcessPing(c.Request.Context(), req)
	if errors.Is(err, models.ErrInvalidPing) {
		response.BadRequest(c, "Invalid ping", err)
		return
	}
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable", err)
		return
	}

	response.Success(c, resp)
}
