package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/models"
	"github.com/pepsafe/pepsafe-backend-go/internal/repository"
	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/pkg/response"
)

// SubjectHandler handles HTTP requests for subjects and their home zones.
// Responses never include home coordinates.
type SubjectHandler struct {
	service *service.SubjectService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(service *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{service: service}
}

// Create handles POST /api/v1/users
func (h *SubjectHandler) Create(c *gin.Context) {
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid subject", err)
		return
	}

	subject, err := h.service.Create(c.Request.Context(), req)
	if errors.Is(err, service.ErrInvalidHomeZone) {
		response.BadRequest(c, "Invalid subject", err)
		return
	}
	if errors.Is(err, repository.ErrConflict) {
		response.Error(c, http.StatusConflict, "Subject already exists", nil)
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to create subject", err)
		return
	}

	response.Created(c, subject.Response())
}

// Get handles GET /api/v1/users/:id
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, subject, err)
}

// SetHomeZone handles PUT /api/v1/users/:id/home-zone
func (h *SubjectHandler) SetHomeZone(c *gin.Context) {
	var req models.HomeZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid home zone", err)
		return
	}

	subject, err := h.service.SetHomeZone(c.Request.Context(), c.Param("id"), req)
	h.respond(c, subject, err)
}

// ClearHomeZone handles DELETE /api/v1/users/:id/home-zone
func (h *SubjectHandler) ClearHomeZone(c *gin.Context) {
	subject, err := h.service.ClearHomeZone(c.Request.Context(), c.Param("id"))
	h.respond(c, subject, err)
}

func (h *SubjectHandler) respond(c *gin.Context, subject *models.Subject, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		response.NotFound(c, "User not found")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to update subject", err)
		return
	}
	response.Success(c, subject.Response())
}
