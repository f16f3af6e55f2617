package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List returns tasks, optionally filtered by ?projectId=.
// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var projectID uint64
	if v := c.Query("projectId"); v != "" {
		var err error
		if projectID, err = strconv.ParseUint(v, 10, 32); err != nil {
			response.BadRequest(c, "invalid projectId")
			return
		}
	}
	rows, err := h.taskService.ListTasks(uint(projectID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /api/projects/:id/tasks
func (h *TaskHandler) ListByProject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.taskService.ListProjectTasks(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.taskService.GetTask(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.taskService.CreateTask(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"message": "Task created", "task_id": task.ID})
}

// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.taskService.UpdateTask(id, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Task updated")
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.taskService.DeleteTask(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Task deleted")
}
