package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/projectpulse/backend/internal/models"
	"gorm.io/gorm"
)

// DashboardService derives project reports from tasks on every call. It never
// writes.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type Summary struct {
	TotalTasks     int64   `json:"totalTasks"`
	CompletedTasks int64   `json:"completedTasks"`
	TeamMembers    int64   `json:"teamMembers"`
	TotalEstHours  float64 `json:"totalEstHours"`
}

type Workload struct {
	Name           string  `json:"name"`
	ActiveTasks    int64   `json:"activeTasks"`
	AllocatedHours float64 `json:"allocatedHours"`
	Avatar         string  `json:"avatar"`
}

type ResourceUsage struct {
	Name      string `json:"name"`
	TaskCount int    `json:"taskCount"`
}

func (s *DashboardService) Summary(projectID uint) (*Summary, error) {
	var row struct {
		TotalTasks     int64
		CompletedTasks *int64
		TeamMembers    int64
		TotalEstHours  float64
	}
	err := s.db.Model(&models.Task{}).
		Select(`COUNT(*) AS total_tasks,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed_tasks,
			COUNT(DISTINCT assigned_to) AS team_members,
			COALESCE(SUM(estimated_hours), 0) AS total_est_hours`, models.TaskCompleted).
		Where("project_id = ?", projectID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("summary for project %d: %w", projectID, err)
	}

	out := &Summary{
		TotalTasks:    row.TotalTasks,
		TeamMembers:   row.TeamMembers,
		TotalEstHours: row.TotalEstHours,
	}
	if row.CompletedTasks != nil {
		out.CompletedTasks = *row.CompletedTasks
	}
	return out, nil
}

// TeamWorkload counts open tasks and sums all allocated hours per assignee.
func (s *DashboardService) TeamWorkload(projectID uint) ([]Workload, error) {
	var rows []struct {
		Name           string
		ActiveTasks    int64
		AllocatedHours float64
	}
	err := s.db.Table("tasks").
		Select(`users.name AS name,
			SUM(CASE WHEN tasks.status <> ? THEN 1 ELSE 0 END) AS active_tasks,
			COALESCE(SUM(tasks.estimated_hours), 0) AS allocated_hours`, models.TaskCompleted).
		Joins("JOIN users ON users.id = tasks.assigned_to").
		Where("tasks.project_id = ?", projectID).
		Group("users.id, users.name").
		Order("users.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("workload for project %d: %w", projectID, err)
	}

	out := make([]Workload, 0, len(rows))
	for _, r := range rows {
		out = append(out, Workload{
			Name:           r.Name,
			ActiveTasks:    r.ActiveTasks,
			AllocatedHours: r.AllocatedHours,
			Avatar:         Initials(r.Name),
		})
	}
	return out, nil
}

// ResourceUsage counts how many tasks mention each resource label.
func (s *DashboardService) ResourceUsage(projectID uint) ([]ResourceUsage, error) {
	var lists []string
	err := s.db.Model(&models.Task{}).
		Where("project_id = ? AND resources IS NOT NULL AND resources <> ''", projectID).
		Pluck("resources", &lists).Error
	if err != nil {
		return nil, fmt.Errorf("resources for project %d: %w", projectID, err)
	}
	return countResources(lists), nil
}

func countResources(lists []string) []ResourceUsage {
	counts := make(map[string]int)
	for _, list := range lists {
		for _, label := range models.SplitResources(list) {
			counts[label]++
		}
	}

	out := make([]ResourceUsage, 0, len(counts))
	for name, n := range counts {
		out = append(out, ResourceUsage{Name: name, TaskCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskCount != out[j].TaskCount {
			return out[i].TaskCount > out[j].TaskCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Initials builds the avatar text: the first letter of every word, upper case.
func Initials(name string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		sb.WriteRune(unicode.ToUpper(r[0]))
	}
	return sb.String()
}
