package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.GetUsers()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// GET /users/managers
func (h *UserHandler) Managers(c *gin.Context) {
	rows, err := h.userService.GetManagers()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /users/members
func (h *UserHandler) Members(c *gin.Context) {
	rows, err := h.userService.GetMembers()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// Assignable lists active users for the task assignee picker.
// GET /api/users
func (h *UserHandler) Assignable(c *gin.Context) {
	rows, err := h.userService.GetActiveUsers()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// PUT /users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.UpdateUser(id, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "User updated successfully")
}

// PUT /users/:id/resign
func (h *UserHandler) Resign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ResignDate string `json:"resign_date"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.userService.Resign(id, req.ResignDate); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "User resigned successfully")
}
