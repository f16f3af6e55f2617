package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/logger"
	"github.com/projectpulse/backend/pkg/response"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// Entry is the input for one audit record. Body is marshalled to JSON.
type Entry struct {
	Level     models.LogLevel
	Module    string
	Action    string
	Method    string
	Path      string
	Status    int
	Message   string
	UserID    *uint
	Username  string
	IP        string
	UserAgent string
	RequestID string
	Body      interface{}
}

// Record writes an audit entry. Failures are logged and swallowed so auditing
// never breaks the request being audited.
func (s *SystemLogService) Record(e Entry) {
	var body string
	if e.Body != nil {
		if b, err := json.Marshal(e.Body); err == nil {
			body = string(b)
		}
	}
	if e.Level == "" {
		e.Level = models.LevelForStatus(e.Status)
	}
	if len(e.UserAgent) > 500 {
		e.UserAgent = e.UserAgent[:500]
	}

	entry := &models.SystemLog{
		Level:     e.Level,
		Module:    e.Module,
		Action:    e.Action,
		Method:    e.Method,
		Path:      e.Path,
		Status:    e.Status,
		Message:   e.Message,
		UserID:    e.UserID,
		Username:  e.Username,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		RequestID: e.RequestID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", e.Module).Str("action", e.Action).Msg("[SystemLog] failed to write audit entry")
	}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	Method    string `form:"method"`
	Username  string `form:"username"`
	Failed    bool   `form:"failed"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	logs := make([]models.SystemLog, 0)
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.Method != "" {
		query = query.Where("method = ?", strings.ToUpper(req.Method))
	}
	if req.Username != "" {
		query = query.Where("username = ?", req.Username)
	}
	if req.Failed {
		query = query.Where("status >= ?", 400)
	}
	if start, err := parseDate(req.StartDate); err == nil && start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end, err := parseDate(req.EndDate); err == nil && end != nil {
		query = query.Where("created_at < ?", end.AddDate(0, 0, 1))
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count system logs: %w", err)
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list system logs: %w", err)
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// Get returns one audit entry.
func (s *SystemLogService) Get(id uint) (*models.SystemLog, error) {
	var entry models.SystemLog
	if err := s.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Log entry not found")
		}
		return nil, fmt.Errorf("get system log: %w", err)
	}
	return &entry, nil
}

func (s *SystemLogService) GetModules() ([]string, error) {
	modules := make([]string, 0)
	if err := s.db.Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AuditCleanupScheduler prunes old audit entries on a cron schedule.
type AuditCleanupScheduler struct {
	service       *SystemLogService
	db            *gorm.DB
	retentionDays int
	spec          string

	mu   sync.Mutex
	cron *cron.Cron
	now  func() time.Time
}

func NewAuditCleanupScheduler(db *gorm.DB, retentionDays int, spec string) *AuditCleanupScheduler {
	if spec == "" {
		spec = "@daily"
	}
	return &AuditCleanupScheduler{
		service:       NewSystemLogService(db),
		db:            db,
		retentionDays: retentionDays,
		spec:          spec,
		now:           time.Now,
	}
}

// Start runs one cleanup immediately and then follows the cron spec.
func (a *AuditCleanupScheduler) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(a.spec, func() { a.RunOnce() }); err != nil {
		return fmt.Errorf("invalid audit cleanup schedule %q: %w", a.spec, err)
	}
	c.Start()
	a.cron = c

	go a.RunOnce()
	logger.Infof("[SystemLog] Cleanup scheduled (%s, retention %d days)", a.spec, a.retentionDays)
	return nil
}

// Stop waits for a running cleanup to finish.
func (a *AuditCleanupScheduler) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron == nil {
		return
	}
	<-a.cron.Stop().Done()
	a.cron = nil
}

// RunOnce performs one cleanup unless another replica already did it today.
// It returns the number of deleted entries.
func (a *AuditCleanupScheduler) RunOnce() int64 {
	if a.retentionDays <= 0 {
		logger.Debug().Msg("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return 0
	}

	now := a.now()
	claimed, err := models.ClaimJobRun(a.db, "audit_cleanup", now.Format("2006-01-02"), 23*time.Hour, now)
	if err != nil {
		logger.Warn().Err(err).Msg("[SystemLog] Failed to claim cleanup run")
		return 0
	}
	if !claimed {
		return 0
	}

	deleted, err := a.service.CleanupOldLogs(a.retentionDays, now)
	if err != nil {
		logger.Error().Err(err).Msg("[SystemLog] Failed to cleanup old logs")
		return 0
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, a.retentionDays)
	}
	return deleted
}
