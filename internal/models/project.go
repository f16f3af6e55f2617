package models

import (
	"time"
)

// Project is owned by at most one manager. Status Completed freezes its tasks.
type Project struct {
	ID          uint          `gorm:"column:project_id;primaryKey" json:"project_id"`
	Name        string        `gorm:"column:project_name;size:200;not null" json:"project_name"`
	Description string        `gorm:"type:text" json:"description"`
	Budget      float64       `gorm:"type:decimal(12,2);default:0" json:"budget"`
	StartDate   *time.Time    `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time    `gorm:"type:date" json:"end_date"`
	ManagerID   *uint         `gorm:"index" json:"manager_id"`
	Manager     *User         `gorm:"foreignKey:ManagerID;constraint:OnDelete:SET NULL" json:"-"`
	Status      ProjectStatus `gorm:"size:30;not null;default:Planning" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Declared here so the foreign keys land on the child tables.
	Tasks   []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string { return "projects" }
