package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/pkg/response"
)

// ChokePointHandler handles HTTP requests for choke points
type ChokePointHandler struct {
	service *service.ChokePointService
}

// NewChokePointHandler creates a new choke point handler
func NewChokePointHandler(service *service.ChokePointService) *ChokePointHandler {
	return &ChokePointHandler{service: service}
}

// List handles GET /api/v1/choke-points
func (h *ChokePointHandler) List(c *gin.Context) {
	points, err := h.service.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.InternalError(c, "Failed to list choke points", err)
		return
	}
	response.Success(c, points)
}

// Get handles GET /api/v1/choke-points/:id
func (h *ChokePointHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid choke point ID", err)
		return
	}

	cp, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(c, "Choke point not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to get choke point", err)
		return
	}

	response.Success(c, cp)
}

// Create handles POST /api/v1/choke-points
func (h *ChokePointHandler) Create(c *gin.Context) {
	var req models.ChokePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid choke point", err)
		return
	}

	cp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.InternalError(c, "Failed to create choke point", err)
		return
	}

	response.Created(c, cp)
}

// Delete handles DELETE /api/v1/choke-points/:id
func (h *ChokePointHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid choke point ID", err)
		return
	}

	err = h.service.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(c, "Choke point not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to delete choke point", err)
		return
	}

	response.NoContent(c)
}
