package models

import (
	"strings"
	"time"
)

// Task belongs to one project. Inserts and updates against a completed
// project are rejected by the database (see guard.go).
type Task struct {
	ID             uint       `gorm:"column:task_id;primaryKey" json:"task_id"`
	ProjectID      uint       `gorm:"index;not null" json:"project_id"`
	Name           string     `gorm:"column:task_name;size:255;not null" json:"task_name"`
	Description    string     `gorm:"type:text" json:"description"`
	AssignedTo     *uint      `gorm:"column:assigned_to;index" json:"assigned_to"`
	Assignee       *User      `gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL" json:"-"`
	Priority       Priority   `gorm:"size:10;not null;default:Medium" json:"priority"`
	Status         TaskStatus `gorm:"size:20;not null;default:Pending" json:"status"`
	DueDate        *time.Time `gorm:"type:date" json:"due_date"`
	EstimatedHours float64    `gorm:"type:decimal(6,2);default:0" json:"estimated_hours"`
	Resources      string     `gorm:"type:text" json:"resources"` // comma-joined labels
	CreatedAt      time.Time  `json:"created_at"`
}

func (Task) TableName() string { return "tasks" }

// SplitResources turns the stored comma-joined string into trimmed,
// non-empty labels.
func SplitResources(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinResources is the inverse of SplitResources.
func JoinResources(labels []string) string {
	kept := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, ",")
}
