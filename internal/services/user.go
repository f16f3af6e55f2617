package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ManagerView is the row shown in the manager picker.
type ManagerView struct {
	ID       uint               `json:"id"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
	Status   *models.UserStatus `json:"status"`
}

// MemberView adds the specialization shown when staffing a project.
type MemberView struct {
	ID             uint               `json:"id"`
	Username       string             `json:"username"`
	Name           string             `json:"name"`
	Specialization string             `json:"specialization"`
	Status         *models.UserStatus `json:"status"`
}

// AssignableUser is an active user that tasks can be given to.
type AssignableUser struct {
	ID     uint               `json:"id"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Role   models.Role        `json:"role"`
	Status *models.UserStatus `json:"status"`
}

// GetUsers lists every account, newest first.
func (s *UserService) GetUsers() ([]models.User, error) {
	users := make([]models.User, 0)
	if err := s.db.Order("join_date DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetManagers() ([]ManagerView, error) {
	rows := make([]ManagerView, 0)
	if err := s.db.Model(&models.User{}).
		Select("id, username, name, status").
		Where("role = ?", models.RoleManager).
		Order("name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	return rows, nil
}

func (s *UserService) GetMembers() ([]MemberView, error) {
	rows := make([]MemberView, 0)
	if err := s.db.Model(&models.User{}).
		Select("id, username, name, specialization, status").
		Where("role = ?", models.RoleMember).
		Order("name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return rows, nil
}

// GetActiveUsers lists the users a task can be assigned to.
func (s *UserService) GetActiveUsers() ([]AssignableUser, error) {
	rows := make([]AssignableUser, 0)
	if err := s.db.Model(&models.User{}).
		Select("id, name, email, role, status").
		Where("status = ?", models.UserActive).
		Order("name ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return rows, nil
}

type UpdateUserRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Username       string  `json:"username"`
	Role           string  `json:"role"`
	Status         string  `json:"status"`
	Specialization *string `json:"specialization"`
}

// UpdateUser replaces the editable profile fields. Role and status are
// coerced to their safe defaults when unrecognised.
func (s *UserService) UpdateUser(id uint, req *UpdateUserRequest) error {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if name == "" || email == "" || username == "" {
		return response.NewBadRequest("Required fields missing")
	}
	if !ValidEmail(email) {
		return response.NewBadRequest("Only Gmail addresses are allowed")
	}

	if err := s.mustExist(id); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"name":     name,
		"email":    email,
		"username": username,
		"role":     models.ParseRole(req.Role),
		"status":   models.ParseUserStatus(req.Status),
	}
	if req.Specialization != nil {
		updates["specialization"] = strings.TrimSpace(*req.Specialization)
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if models.IsDuplicateKey(err) {
			return response.NewConflict("Username or email already exists")
		}
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

// Resign retires a user: the resign date is set and the status cleared.
func (s *UserService) Resign(id uint, resignDate string) error {
	if id == 0 || strings.TrimSpace(resignDate) == "" {
		return response.NewBadRequest("User ID and resign date are required")
	}
	date, err := parseDate(resignDate)
	if err != nil {
		return response.NewBadRequest("Invalid resign date")
	}

	if err := s.mustExist(id); err != nil {
		return err
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"resign_date": date,
		"status":      nil,
	}).Error; err != nil {
		return fmt.Errorf("resign user %d: %w", id, err)
	}
	return nil
}

// mustExist is used instead of RowsAffected, which MySQL reports as zero when
// an update leaves the row unchanged.
func (s *UserService) mustExist(id uint) error {
	var user models.User
	if err := s.db.Select("id").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("User not found")
		}
		return fmt.Errorf("find user %d: %w", id, err)
	}
	return nil
}
