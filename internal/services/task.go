package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

// TaskService is the single write path for tasks. The completed-project guard
// itself lives in the database; this service only translates its rejection.
type TaskService struct {
	db *gorm.DB
}

func NewTaskService(db *gorm.DB) *TaskService {
	return &TaskService{db: db}
}

// ResourceList accepts either a JSON array of labels or one comma separated
// string.
type ResourceList []string

func (r *ResourceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = models.SplitResources(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("resources must be a string or an array of strings")
	}
	*r = list
	return nil
}

// TaskRequest is the full task body for create and update. The assignee may
// be given by id or by display name; the id wins when both are present.
type TaskRequest struct {
	ProjectID      uint         `json:"projectId"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	AssigneeID     *uint        `json:"assigneeId"`
	AssignedTo     string       `json:"assignedTo"`
	Priority       string       `json:"priority"`
	Status         string       `json:"status"`
	DueDate        string       `json:"dueDate"`
	EstimatedHours *float64     `json:"estimatedHours"`
	Resources      ResourceList `json:"resources"`
}

// TaskAssignee is the nested assignee object of TaskView.
type TaskAssignee struct {
	ID   *uint  `json:"id"`
	Name string `json:"name"`
}

// TaskView is a task in the shape the task board renders.
type TaskView struct {
	ID             uint         `json:"_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	AssignedTo     TaskAssignee `json:"assignedTo"`
	Priority       string       `json:"priority"`
	Status         string       `json:"status"`
	DueDate        *time.Time   `json:"dueDate"`
	EstimatedHours float64      `json:"estimatedHours"`
	Resources      []string     `json:"resources"`
	ProjectID      uint         `json:"projectId"`
	CreatedAt      time.Time    `json:"createdAt"`
}

type taskRow struct {
	ID             uint `gorm:"column:task_id"`
	ProjectID      uint
	Name           string `gorm:"column:task_name"`
	Description    string
	AssignedTo     *uint
	AssigneeName   *string
	Priority       models.Priority
	Status         models.TaskStatus
	DueDate        *time.Time
	EstimatedHours float64
	Resources      string
	CreatedAt      time.Time
}

const unassigned = "Unassigned"

func (r *taskRow) view() TaskView {
	name := unassigned
	if r.AssigneeName != nil && *r.AssigneeName != "" {
		name = *r.AssigneeName
	}
	return TaskView{
		ID:             r.ID,
		Title:          r.Name,
		Description:    r.Description,
		AssignedTo:     TaskAssignee{ID: r.AssignedTo, Name: name},
		Priority:       string(r.Priority),
		Status:         r.Status.Wire(),
		DueDate:        r.DueDate,
		EstimatedHours: r.EstimatedHours,
		Resources:      models.SplitResources(r.Resources),
		ProjectID:      r.ProjectID,
		CreatedAt:      r.CreatedAt,
	}
}

// validatedTask is a request that passed boundary checks.
type validatedTask struct {
	name       string
	assigneeID uint
	priority   models.Priority
	status     models.TaskStatus
	due        *time.Time
	hours      float64
	resources  string
}

func (s *TaskService) validate(req *TaskRequest) (*validatedTask, error) {
	name := strings.TrimSpace(req.Title)
	hasAssignee := (req.AssigneeID != nil && *req.AssigneeID != 0) || strings.TrimSpace(req.AssignedTo) != ""
	if req.ProjectID == 0 || name == "" || !hasAssignee || strings.TrimSpace(req.DueDate) == "" {
		return nil, response.NewBadRequest("projectId, title, assignee and dueDate are required")
	}

	due, err := parseDate(req.DueDate)
	if err != nil {
		return nil, response.NewBadRequest("Invalid due date")
	}
	status, err := models.ParseTaskStatus(req.Status)
	if err != nil {
		return nil, response.NewBadRequest("Invalid task status")
	}
	var hours float64
	if req.EstimatedHours != nil {
		if *req.EstimatedHours < 0 {
			return nil, response.NewBadRequest("Estimated hours must not be negative")
		}
		hours = *req.EstimatedHours
	}

	assigneeID, err := s.resolveAssignee(req)
	if err != nil {
		return nil, err
	}

	return &validatedTask{
		name:       name,
		assigneeID: assigneeID,
		priority:   models.ParsePriority(req.Priority),
		status:     status,
		due:        due,
		hours:      hours,
		resources:  models.JoinResources(req.Resources),
	}, nil
}

func (s *TaskService) resolveAssignee(req *TaskRequest) (uint, error) {
	var user models.User
	var err error
	if req.AssigneeID != nil && *req.AssigneeID != 0 {
		err = s.db.Select("id").First(&user, *req.AssigneeID).Error
	} else {
		err = s.db.Select("id").Where("name = ?", strings.TrimSpace(req.AssignedTo)).Order("id ASC").First(&user).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, response.NewBadRequest("Assignee not found")
		}
		return 0, fmt.Errorf("resolve assignee: %w", err)
	}
	return user.ID, nil
}

// translateWrite maps guard and constraint failures onto the error taxonomy.
func translateWrite(err error, what string) error {
	if msg, ok := models.AsProjectLocked(err); ok {
		return response.NewProjectLocked(msg)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// CreateTask inserts a Pending task and then activates the assignee. A
// completed project makes the insert fail with a ProjectLocked error.
func (s *TaskService) CreateTask(req *TaskRequest) (*models.Task, error) {
	v, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.projectExists(req.ProjectID); err != nil {
		return nil, err
	}

	assignee := v.assigneeID
	task := models.Task{
		ProjectID:      req.ProjectID,
		Name:           v.name,
		Description:    strings.TrimSpace(req.Description),
		AssignedTo:     &assignee,
		Priority:       v.priority,
		Status:         v.status,
		DueDate:        v.due,
		EstimatedHours: v.hours,
		Resources:      v.resources,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, translateWrite(err, "create task")
	}

	activateUser(s.db, assignee, "assignee", "task_id", task.ID)
	return &task, nil
}

// UpdateTask replaces every field of the task. The guard checks the project
// the task currently belongs to.
func (s *TaskService) UpdateTask(id uint, req *TaskRequest) (*models.Task, error) {
	current, err := s.getTask(id)
	if err != nil {
		return nil, err
	}
	if req.ProjectID == 0 {
		req.ProjectID = current.ProjectID
	}
	v, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	if req.ProjectID != current.ProjectID {
		if err := s.projectExists(req.ProjectID); err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(current).Updates(map[string]interface{}{
		"project_id":      req.ProjectID,
		"task_name":       v.name,
		"description":     strings.TrimSpace(req.Description),
		"assigned_to":     v.assigneeID,
		"priority":        v.priority,
		"status":          v.status,
		"due_date":        v.due,
		"estimated_hours": v.hours,
		"resources":       v.resources,
	}).Error; err != nil {
		return nil, translateWrite(err, "update task")
	}
	return s.getTask(id)
}

// DeleteTask removes a task. It is only refused for completed projects when
// the delete guard is installed.
func (s *TaskService) DeleteTask(id uint) error {
	if _, err := s.getTask(id); err != nil {
		return err
	}
	if err := s.db.Delete(&models.Task{}, id).Error; err != nil {
		return translateWrite(err, "delete task")
	}
	return nil
}

func (s *TaskService) taskQuery() *gorm.DB {
	return s.db.Table("tasks").
		Select(`tasks.task_id, tasks.project_id, tasks.task_name, tasks.description,
			tasks.assigned_to, users.name AS assignee_name, tasks.priority, tasks.status,
			tasks.due_date, tasks.estimated_hours, tasks.resources, tasks.created_at`).
		Joins("LEFT JOIN users ON users.id = tasks.assigned_to")
}

// ListProjectTasks returns the board view of a project's tasks, newest first.
func (s *TaskService) ListProjectTasks(projectID uint) ([]TaskView, error) {
	return s.listTasks(s.taskQuery().Where("tasks.project_id = ?", projectID))
}

// ListTasks returns every task, optionally limited to one project.
func (s *TaskService) ListTasks(projectID uint) ([]TaskView, error) {
	q := s.taskQuery()
	if projectID != 0 {
		q = q.Where("tasks.project_id = ?", projectID)
	}
	return s.listTasks(q)
}

func (s *TaskService) listTasks(q *gorm.DB) ([]TaskView, error) {
	var rows []taskRow
	if err := q.Order("tasks.created_at DESC").Order("tasks.task_id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]TaskView, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].view())
	}
	return out, nil
}

// GetTask returns one task in board form.
func (s *TaskService) GetTask(id uint) (*TaskView, error) {
	var rows []taskRow
	if err := s.taskQuery().Where("tasks.task_id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, response.NewNotFound("Task not found")
	}
	v := rows[0].view()
	return &v, nil
}

func (s *TaskService) projectExists(id uint) error {
	var project models.Project
	if err := s.db.Select("project_id").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("Project not found")
		}
		return fmt.Errorf("find project %d: %w", id, err)
	}
	return nil
}

func (s *TaskService) getTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Task not found")
		}
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return &task, nil
}
