package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	rows, err := h.projectService.ListProjects()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.projectService.GetProject(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// Create assigns a new project to a manager.
// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projectService.CreateOrAssignProject(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Project created successfully", "projectId": p.ID})
}

// PUT /projects/complete-project/:id
func (h *ProjectHandler) CompleteSetup(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.CompleteProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projectService.CompleteProjectSetup(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Project setup completed", "project": p})
}

// PUT /projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.projectService.UpdateProjectStatus(id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Project status updated", "project": p})
}

// DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.projectService.DeleteProject(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Project deleted")
}

// GET /projects/manager/:id
func (h *ProjectHandler) ManagerProjects(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !selfOrAdmin(c, id) {
		return
	}
	rows, err := h.projectService.GetManagerProjects(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /projects/manager/:id/unfilled-projects
func (h *ProjectHandler) UnfilledProjects(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !selfOrAdmin(c, id) {
		return
	}
	rows, err := h.projectService.GetUnfilledProjects(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /projects/manager/:id/team-members
func (h *ProjectHandler) TeamMembers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !selfOrAdmin(c, id) {
		return
	}
	count, err := h.projectService.TeamMemberCount(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, count)
}
