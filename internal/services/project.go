package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/logger"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectView is a project row joined with its manager's name.
type ProjectView struct {
	ID          uint                 `json:"project_id"`
	Name        string               `json:"project_name"`
	Description string               `json:"description"`
	Budget      float64              `json:"budget"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	ManagerID   *uint                `json:"manager_id"`
	ManagerName *string              `json:"manager_name"`
	Status      models.ProjectStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
}

const projectViewColumns = `projects.project_id AS id, projects.project_name AS name,
	projects.description, projects.budget, projects.start_date, projects.end_date,
	projects.manager_id, users.name AS manager_name, projects.status, projects.created_at`

func (s *ProjectService) viewQuery() *gorm.DB {
	return s.db.Table("projects").
		Select(projectViewColumns).
		Joins("LEFT JOIN users ON users.id = projects.manager_id")
}

type CreateProjectRequest struct {
	ProjectName string   `json:"project_name"`
	ManagerID   *uint    `json:"manager_id"`
	Description string   `json:"description"`
	Budget      *float64 `json:"budget"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

type projectDetails struct {
	budget float64
	start  *time.Time
	end    *time.Time
}

func validateDetails(budget *float64, start, end string) (*projectDetails, error) {
	d := &projectDetails{}
	if budget != nil {
		if *budget < 0 {
			return nil, response.NewBadRequest("Budget must not be negative")
		}
		d.budget = *budget
	}

	var err error
	if d.start, err = parseDate(start); err != nil {
		return nil, response.NewBadRequest("Invalid start date")
	}
	if d.end, err = parseDate(end); err != nil {
		return nil, response.NewBadRequest("Invalid end date")
	}
	if d.start != nil && d.end != nil && d.end.Before(*d.start) {
		return nil, response.NewBadRequest("End date cannot be before start date")
	}
	return d, nil
}

// CreateOrAssignProject inserts a Planning project owned by managerID and then
// activates the manager. Activation is best effort and never fails the call.
func (s *ProjectService) CreateOrAssignProject(req *CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return nil, response.NewBadRequest("Project name is required")
	}
	if req.ManagerID == nil || *req.ManagerID == 0 {
		return nil, response.NewBadRequest("Manager is required")
	}
	details, err := validateDetails(req.Budget, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var manager models.User
	if err := s.db.Select("id").First(&manager, *req.ManagerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Manager not found")
		}
		return nil, fmt.Errorf("find manager: %w", err)
	}

	project := models.Project{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Budget:      details.budget,
		StartDate:   details.start,
		EndDate:     details.end,
		ManagerID:   req.ManagerID,
		Status:      models.ProjectPlanning,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	activateUser(s.db, *req.ManagerID, "manager", "project_id", project.ID)
	return &project, nil
}

// activateUser sets a user's status to Active even if it already is. It runs
// outside the caller's write and only logs failures.
func activateUser(db *gorm.DB, userID uint, role, refKey string, refID uint) {
	if err := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("status", models.UserActive).Error; err != nil {
		logger.Warn().Err(err).
			Uint("user_id", userID).
			Uint(refKey, refID).
			Msgf("failed to activate %s", role)
	}
}

type CompleteProjectRequest struct {
	Description string   `json:"description"`
	Budget      *float64 `json:"budget"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
}

// CompleteProjectSetup fills in the project details and moves it to Active.
func (s *ProjectService) CompleteProjectSetup(id uint, req *CompleteProjectRequest) (*models.Project, error) {
	details, err := validateDetails(req.Budget, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	project, err := s.getProject(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(project).Updates(map[string]interface{}{
		"description": strings.TrimSpace(req.Description),
		"budget":      details.budget,
		"start_date":  details.start,
		"end_date":    details.end,
		"status":      models.ProjectActive,
	}).Error; err != nil {
		return nil, fmt.Errorf("complete project %d: %w", id, err)
	}
	return s.getProject(id)
}

// UpdateProjectStatus moves a project to any status of the closed set.
func (s *ProjectService) UpdateProjectStatus(id uint, status string) (*models.Project, error) {
	st, err := models.ParseProjectStatus(status)
	if err != nil {
		return nil, response.NewBadRequest("Invalid project status")
	}

	project, err := s.getProject(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(project).Update("status", st).Error; err != nil {
		return nil, fmt.Errorf("update project %d status: %w", id, err)
	}
	project.Status = st
	return project, nil
}

// DeleteProject removes the project with its tasks and roster.
func (s *ProjectService) DeleteProject(id uint) error {
	if _, err := s.getProject(id); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if msg, ok := models.AsProjectLocked(err); ok {
		return response.NewProjectLocked(msg)
	}
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return nil
}

// ListProjects is the admin view: every project, most recent start first.
func (s *ProjectService) ListProjects() ([]ProjectView, error) {
	rows := make([]ProjectView, 0)
	if err := s.viewQuery().
		Order("projects.start_date DESC").
		Order("projects.project_id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

// GetProject returns one project with its manager's name.
func (s *ProjectService) GetProject(id uint) (*ProjectView, error) {
	var rows []ProjectView
	if err := s.viewQuery().Where("projects.project_id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, response.NewNotFound("Project not found")
	}
	return &rows[0], nil
}

// GetManagerProjects is deadline driven: soonest end date first, undated last.
func (s *ProjectService) GetManagerProjects(managerID uint) ([]ProjectView, error) {
	rows := make([]ProjectView, 0)
	if err := s.viewQuery().
		Where("projects.manager_id = ?", managerID).
		Order("CASE WHEN projects.end_date IS NULL THEN 1 ELSE 0 END").
		Order("projects.end_date ASC").
		Order("projects.project_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list manager projects: %w", err)
	}
	return rows, nil
}

// GetUnfilledProjects is the manager's onboarding queue: projects assigned to
// them that are still in Planning.
func (s *ProjectService) GetUnfilledProjects(managerID uint) ([]ProjectView, error) {
	rows := make([]ProjectView, 0)
	if err := s.viewQuery().
		Where("projects.manager_id = ? AND LOWER(projects.status) = ?", managerID, strings.ToLower(string(models.ProjectPlanning))).
		Order("projects.project_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list unfilled projects: %w", err)
	}
	return rows, nil
}

// TeamCount holds both notions of team size for a manager.
type TeamCount struct {
	// TeamCount is the number of distinct task assignees across the
	// manager's projects.
	TeamCount int64 `json:"team_count"`
	// RosterCount is the number of distinct users on the project rosters.
	RosterCount int64 `json:"roster_count"`
}

func (s *ProjectService) TeamMemberCount(managerID uint) (*TeamCount, error) {
	var out TeamCount

	if err := s.db.Table("tasks").
		Joins("JOIN projects ON projects.project_id = tasks.project_id").
		Where("projects.manager_id = ? AND tasks.assigned_to IS NOT NULL", managerID).
		Distinct("tasks.assigned_to").
		Count(&out.TeamCount).Error; err != nil {
		return nil, fmt.Errorf("count task assignees: %w", err)
	}

	if err := s.db.Table("project_members").
		Joins("JOIN projects ON projects.project_id = project_members.project_id").
		Where("projects.manager_id = ?", managerID).
		Distinct("project_members.user_id").
		Count(&out.RosterCount).Error; err != nil {
		return nil, fmt.Errorf("count roster: %w", err)
	}

	return &out, nil
}

func (s *ProjectService) getProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Project not found")
		}
		return nil, fmt.Errorf("find project %d: %w", id, err)
	}
	return &project, nil
}
