package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// ParseRole maps free-form input onto a Role. Anything unrecognised becomes
// RoleMember.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	default:
		return RoleMember
	}
}

// UserStatus is nullable in storage: a resigned user has no status at all.
type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

// ParseUserStatus defaults to UserActive for unknown input.
func ParseUserStatus(s string) UserStatus {
	if strings.EqualFold(strings.TrimSpace(s), string(UserInactive)) {
		return UserInactive
	}
	return UserActive
}

// InitialStatus is the status a freshly registered account starts with.
func InitialStatus(r Role) UserStatus {
	if r == RoleAdmin {
		return UserActive
	}
	return UserInactive
}

// ProjectStatus values. Everything between Planning and Completed is part of
// the "active family" and carries no extra rules.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectActive     ProjectStatus = "Active"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectOnTrack    ProjectStatus = "On Track"
	ProjectAtRisk     ProjectStatus = "At Risk"
	ProjectDelayed    ProjectStatus = "Delayed"
	ProjectCompleted  ProjectStatus = "Completed"
)

var projectStatuses = []ProjectStatus{
	ProjectPlanning, ProjectActive, ProjectInProgress, ProjectOnTrack,
	ProjectAtRisk, ProjectDelayed, ProjectCompleted,
}

// ParseProjectStatus is strict: project status drives the completion guard,
// so an unknown value is an error rather than a silent default.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	s = strings.TrimSpace(s)
	for _, st := range projectStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid project status %q", s)
}

// TaskStatus values. Pending is presented as "Todo" on the wire.
type TaskStatus string

const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

// taskStatusTodo is the frontend alias for TaskPending.
const taskStatusTodo = "Todo"

// ParseTaskStatus accepts the stored names and the "Todo" alias. Empty input
// means TaskPending.
func ParseTaskStatus(s string) (TaskStatus, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "", strings.EqualFold(s, taskStatusTodo), strings.EqualFold(s, string(TaskPending)):
		return TaskPending, nil
	case strings.EqualFold(s, string(TaskInProgress)):
		return TaskInProgress, nil
	case strings.EqualFold(s, string(TaskCompleted)):
		return TaskCompleted, nil
	}
	return "", fmt.Errorf("invalid task status %q", s)
}

// Wire returns the status as the frontend expects it.
func (s TaskStatus) Wire() string {
	if s == TaskPending || s == "" {
		return taskStatusTodo
	}
	return string(s)
}

// Priority of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority defaults to PriorityMedium.
func ParsePriority(s string) Priority {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(PriorityHigh)):
		return PriorityHigh
	case strings.EqualFold(s, string(PriorityLow)):
		return PriorityLow
	default:
		return PriorityMedium
	}
}
