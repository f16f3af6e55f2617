package main

import (
	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/config"
	"github.com/projectpulse/backend/internal/middleware"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins...))
	r.Use(middleware.AuditLog(svc.systemLogService))

	// Credential endpoints are public, so they get a per-IP budget
	svc.limiter = middleware.NewRateLimiter(svc.cfg.Auth.AttemptsPerSecond, svc.cfg.Auth.AttemptBurst)

	authRequired := middleware.AuthRequired()
	adminOnly := middleware.AdminRequired()
	staff := middleware.RoleRequired(models.RoleAdmin, models.RoleManager)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// Auth routes (public, rate limited)
	public := r.Group("", svc.limiter.Middleware())
	{
		public.POST("/login", svc.authHandler.Login)
		public.POST("/verify-otp", svc.authHandler.VerifyOtp)
		public.POST("/resend-otp", svc.authHandler.ResendOtp)
		public.POST("/forgot-password", svc.authHandler.ForgotPassword)
		public.POST("/reset-password", svc.authHandler.ResetPassword)
		public.POST("/auth/refresh", svc.authHandler.Refresh)
	}

	// In admin mode only an admin adds accounts; in otp mode anyone may sign up
	if svc.cfg.Auth.RegistrationMode == config.RegistrationOTP {
		public.POST("/register", svc.authHandler.Register)
	} else {
		r.POST("/register", authRequired, adminOnly, svc.authHandler.Register)
	}

	// Any signed-in user
	protected := r.Group("", authRequired)
	{
		protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
		protected.POST("/auth/logout", svc.authHandler.Logout)
		protected.PUT("/auth/password", svc.authHandler.ChangePassword)

		protected.GET("/projects/:id", svc.projectHandler.Get)
	}

	// Admins and managers
	managers := r.Group("", authRequired, staff)
	{
		// User listings used to staff projects
		managers.GET("/users/managers", svc.userHandler.Managers)
		managers.GET("/users/members", svc.userHandler.Members)
		managers.GET("/auth/users/managers", svc.userHandler.Managers)
		managers.GET("/auth/users/members", svc.userHandler.Members)

		// Manager-scoped project views
		managers.GET("/projects/manager/:id", svc.projectHandler.ManagerProjects)
		managers.GET("/projects/manager/:id/unfilled-projects", svc.projectHandler.UnfilledProjects)
		managers.GET("/projects/manager/:id/team-members", svc.projectHandler.TeamMembers)
		managers.PUT("/projects/complete-project/:id", svc.projectHandler.CompleteSetup)

		// Team roster
		managers.GET("/projects/:id/members", svc.projectMemberHandler.List)
		managers.POST("/projects/:id/members", svc.projectMemberHandler.Add)
	}

	// Admin only routes
	admin := r.Group("", authRequired, adminOnly)
	{
		// Users
		admin.GET("/users", svc.userHandler.List)
		admin.PUT("/users/:id", svc.userHandler.Update)
		admin.PUT("/users/:id/resign", svc.userHandler.Resign)

		// Projects (write operations)
		admin.GET("/projects", svc.projectHandler.List)
		admin.POST("/projects", svc.projectHandler.Create)
		admin.PUT("/projects/:id/status", svc.projectHandler.UpdateStatus)
		admin.DELETE("/projects/:id", svc.projectHandler.Delete)
	}

	// API routes
	api := r.Group("/api", authRequired)
	{
		staffAPI := api.Group("", staff)
		{
			staffAPI.GET("/users", svc.userHandler.Assignable)
			staffAPI.GET("/projects", svc.projectHandler.List)

			// Tasks
			staffAPI.GET("/tasks", svc.taskHandler.List)
			staffAPI.GET("/tasks/:id", svc.taskHandler.Get)
			staffAPI.POST("/tasks", svc.taskHandler.Create)
			staffAPI.PUT("/tasks/:id", svc.taskHandler.Update)
			staffAPI.DELETE("/tasks/:id", svc.taskHandler.Delete)
			staffAPI.GET("/projects/:id/tasks", svc.taskHandler.ListByProject)

			// Dashboard
			staffAPI.GET("/dashboard/summary/:id", svc.dashboardHandler.GetSummary)
			staffAPI.GET("/dashboard/team-workload/:id", svc.dashboardHandler.GetTeamWorkload)
			staffAPI.GET("/dashboard/resource-usage/:id", svc.dashboardHandler.GetResourceUsage)
		}

		// System Logs
		adminAPI := api.Group("", adminOnly)
		{
			adminAPI.GET("/system-logs", svc.systemLogHandler.List)
			adminAPI.GET("/system-logs/modules", svc.systemLogHandler.Modules)
			adminAPI.GET("/system-logs/:id", svc.systemLogHandler.Get)
		}
	}
}
