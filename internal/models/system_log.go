package models

import "time"

// LogLevel grades an audit entry by the response status.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LevelForStatus maps 5xx to error, 4xx to warning and the rest to info.
func LevelForStatus(status int) LogLevel {
	switch {
	case status >= 500:
		return LogError
	case status >= 400:
		return LogWarning
	default:
		return LogInfo
	}
}

// SystemLog is one audited write request. Body holds the request JSON with
// credentials masked, so rows are safe to show to admins.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     LogLevel  `gorm:"size:20;index" json:"level"`
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Method    string    `gorm:"size:10" json:"method"`
	Path      string    `gorm:"size:255" json:"path"`
	Status    int       `gorm:"index" json:"status"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:100;index" json:"username"`
	IP        string    `gorm:"size:50" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	RequestID string    `gorm:"size:64;index" json:"request_id"`
	Body      string    `gorm:"type:text" json:"body,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
