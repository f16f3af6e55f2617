package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/middleware"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/response"
)

// pathID parses a positive numeric path parameter. On failure it writes the
// 400 response and returns false.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body. Malformed JSON is a 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid request body")
		return false
	}
	return true
}

// selfOrAdmin allows managers to read only their own manager-scoped views.
func selfOrAdmin(c *gin.Context, managerID uint) bool {
	if middleware.GetRole(c) == models.RoleAdmin || middleware.GetUserID(c) == managerID {
		return true
	}
	response.Forbidden(c, "insufficient permissions")
	return false
}
