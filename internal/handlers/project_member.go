package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

// ProjectMemberHandler serves the project roster.
type ProjectMemberHandler struct {
	projectService *services.ProjectService
}

func NewProjectMemberHandler(projectService *services.ProjectService) *ProjectMemberHandler {
	return &ProjectMemberHandler{projectService: projectService}
}

// AddMemberRequest accepts the user id under either spelling.
type AddMemberRequest struct {
	UserID    uint `json:"userId"`
	UserIDAlt uint `json:"user_id"`
}

func (r AddMemberRequest) id() uint {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.UserIDAlt
}

// List returns all members of a project.
// GET /projects/:id/members
func (h *ProjectMemberHandler) List(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.projectService.ListProjectMembers(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// Add puts a user on a project's roster.
// POST /projects/:id/members
func (h *ProjectMemberHandler) Add(c *gin.Context) {
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	member, err := h.projectService.AssignMemberToProject(projectID, req.id())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Member added to project", "id": member.ID})
}
