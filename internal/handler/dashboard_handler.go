package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/service"
	"github.com/pepsafe/pepsafe-backend-go/pkg/response"
)

// DashboardHandler serves the family dashboard and risk status
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Dashboard handles GET /dashboard/api/:id
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	resp, err := h.service.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, "Failed to load dashboard", err)
		return
	}
	response.Success(c, resp)
}

// Risk handles GET /api/v1/users/:id/risk
func (h *DashboardHandler) Risk(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, "Failed to load risk status", err)
		return
	}
	response.Success(c, status)
}
