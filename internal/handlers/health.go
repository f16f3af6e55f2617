package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the process dependencies.
type HealthHandler struct {
	db   *gorm.DB
	mail services.MailQueue
	kv   *cache.Client
}

func NewHealthHandler(db *gorm.DB, mail services.MailQueue, kv *cache.Client) *HealthHandler {
	return &HealthHandler{db: db, mail: mail, kv: kv}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error"
		overall = "unhealthy"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error"
		overall = "unhealthy"
	}
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.mail != nil && h.mail.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Redis is optional; an outage degrades but does not fail the check.
	cacheStatus := "ok"
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.kv.Ping(ctx); err != nil {
		cacheStatus = "unreachable"
		if overall == "healthy" {
			overall = "degraded"
		}
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "projectpulse",
		"components": gin.H{
			"database":   dbStatus,
			"cache":      cacheStatus,
			"queue_mode": queueMode,
		},
	})
}
