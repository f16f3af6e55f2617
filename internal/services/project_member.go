package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

// RosterEntry is a project member joined with the user's public fields.
type RosterEntry struct {
	ID             uint               `json:"id"`
	ProjectID      uint               `json:"project_id"`
	UserID         uint               `json:"user_id"`
	Name           string             `json:"name"`
	Username       string             `json:"username"`
	Email          string             `json:"email"`
	Role           models.Role        `json:"role"`
	Specialization string             `json:"specialization"`
	Status         *models.UserStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// AssignMemberToProject adds userID to the project's roster. A pair can only
// be assigned once. The user is activated afterwards, best effort.
func (s *ProjectService) AssignMemberToProject(projectID, userID uint) (*models.ProjectMember, error) {
	if projectID == 0 || userID == 0 {
		return nil, response.NewBadRequest("Project and user are required")
	}
	if _, err := s.getProject(projectID); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: userID}
	if err := s.db.Create(&member).Error; err != nil {
		if models.IsDuplicateKey(err) {
			return nil, response.NewConflict("User is already a member of this project")
		}
		return nil, fmt.Errorf("add project member: %w", err)
	}

	activateUser(s.db, userID, "member", "project_id", projectID)
	return &member, nil
}

// ListProjectMembers returns the roster ordered by member name.
func (s *ProjectService) ListProjectMembers(projectID uint) ([]RosterEntry, error) {
	if _, err := s.getProject(projectID); err != nil {
		return nil, err
	}

	rows := make([]RosterEntry, 0)
	if err := s.db.Table("project_members").
		Select(`project_members.id, project_members.project_id, project_members.user_id,
			users.name, users.username, users.email, users.role, users.specialization,
			users.status, project_members.created_at`).
		Joins("JOIN users ON users.id = project_members.user_id").
		Where("project_members.project_id = ?", projectID).
		Order("users.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return rows, nil
}
