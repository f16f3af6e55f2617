package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

// SystemLogHandler serves the admin audit trail.
type SystemLogHandler struct {
	logs *services.SystemLogService
}

func NewSystemLogHandler(logs *services.SystemLogService) *SystemLogHandler {
	return &SystemLogHandler{logs: logs}
}

// List handles GET /api/system-logs. Filters: level, module, action, method,
// username, failed, start_date, end_date, search; paged by page/page_size.
func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	page, err := h.logs.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// Get handles GET /api/system-logs/:id.
func (h *SystemLogHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := h.logs.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, entry)
}

// Modules handles GET /api/system-logs/modules, feeding the module filter.
func (h *SystemLogHandler) Modules(c *gin.Context) {
	modules, err := h.logs.GetModules()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"modules": modules})
}
