package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetSummary returns the task totals of a project
// GET /api/dashboard/summary/:id
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.dashboardService.Summary(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// GET /api/dashboard/team-workload/:id
func (h *DashboardHandler) GetTeamWorkload(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.dashboardService.TeamWorkload(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// GET /api/dashboard/resource-usage/:id
func (h *DashboardHandler) GetResourceUsage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.dashboardService.ResourceUsage(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}
