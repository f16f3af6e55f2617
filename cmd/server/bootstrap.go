package main

import (
	"github.com/projectpulse/backend/internal/cache"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/handlers"
	"github.com/projectpulse/backend/internal/middleware"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/internal/utils"
	"github.com/projectpulse/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg *config.Config
	db  *gorm.DB
	kv  *cache.Client

	mailQueue  services.MailQueue
	mailWorker *services.MailWorker
	cleanup    *services.AuditCleanupScheduler
	limiter    *middleware.RateLimiter

	authService      *services.AuthService
	systemLogService *services.SystemLogService

	authHandler          *handlers.AuthHandler
	userHandler          *handlers.UserHandler
	projectHandler       *handlers.ProjectHandler
	projectMemberHandler *handlers.ProjectMemberHandler
	taskHandler          *handlers.TaskHandler
	dashboardHandler     *handlers.DashboardHandler
	systemLogHandler     *handlers.SystemLogHandler
	healthHandler        *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, cache, mail, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.Open(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Tables first, then the completed-project triggers on tasks
	if err := models.Migrate(db, models.GuardOptions{GuardDelete: cfg.Tasks.GuardDelete}); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// OTP resend cooldown lives in Redis when enabled, in memory otherwise
	var kv *cache.Client
	if cfg.Redis.Enabled {
		kv = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	} else {
		kv = cache.NewMemory()
	}

	// Mail goes through asynq when Redis is enabled, otherwise in process
	mailer := services.NewMailer(&cfg.Mail)
	mailQueue := services.NewMailQueue(cfg, mailer)

	var mailWorker *services.MailWorker
	if mailQueue.IsAsync() {
		mailWorker = services.NewMailWorker(&cfg.Redis, mailer)
		if err := mailWorker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start mail worker")
			mailWorker = nil
		}
	}

	svc := newAppServices(cfg, db, mailQueue, kv)
	svc.mailWorker = mailWorker

	// Create default admin user
	if err := svc.authService.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// Start audit log cleanup scheduler
	svc.cleanup = services.NewAuditCleanupScheduler(db, cfg.Audit.RetentionDays, cfg.Audit.CleanupCron)
	if err := svc.cleanup.Start(); err != nil {
		logger.Fatalf("Failed to start audit cleanup: %v", err)
	}

	return svc
}

// newAppServices wires services and handlers on top of already opened
// infrastructure. It starts nothing.
func newAppServices(cfg *config.Config, db *gorm.DB, mailQueue services.MailQueue, kv *cache.Client) *appServices {
	authService := services.NewAuthService(db, cfg, mailQueue, kv)
	projectService := services.NewProjectService(db)
	systemLogService := services.NewSystemLogService(db)

	return &appServices{
		cfg:       cfg,
		db:        db,
		kv:        kv,
		mailQueue: mailQueue,

		authService:      authService,
		systemLogService: systemLogService,

		authHandler:          handlers.NewAuthHandler(authService),
		userHandler:          handlers.NewUserHandler(services.NewUserService(db)),
		projectHandler:       handlers.NewProjectHandler(projectService),
		projectMemberHandler: handlers.NewProjectMemberHandler(projectService),
		taskHandler:          handlers.NewTaskHandler(services.NewTaskService(db)),
		dashboardHandler:     handlers.NewDashboardHandler(services.NewDashboardService(db)),
		systemLogHandler:     handlers.NewSystemLogHandler(systemLogService),
		healthHandler:        handlers.NewHealthHandler(db, mailQueue, kv),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	logger.Info().Msg("All schedulers stopped")

	if s.limiter != nil {
		s.limiter.Close()
	}

	if s.mailWorker != nil {
		s.mailWorker.Stop()
	}
	if s.mailQueue != nil {
		if err := s.mailQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close mail queue")
		}
	}
	if err := s.kv.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close cache")
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
