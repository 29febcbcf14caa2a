package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admin area permission names. Super admins pass every check.
const (
	PermManageLeads    = "manage_leads"
	PermManageUsers    = "manage_users"
	PermManageSettings = "manage_settings"
	PermViewActivity   = "view_activity"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public routes: the lead capture form, the website chat assistant,
	// and login
	s.echo.POST("/api/leads", s.handleCreateLead)
	s.echo.POST("/api/chat", s.handleChat)
	s.echo.POST("/api/auth/login", s.handleLogin)

	// Live event stream (token carried in header or query param, since
	// EventSource cannot set headers)
	s.echo.GET("/api/events", s.handleEvents, s.requireAuth)

	// Authenticated API
	api := s.echo.Group("/api", s.requireAuth)
	api.GET("/auth/me", s.handleMe)

	api.GET("/leads", s.handleListLeads, s.requirePermission(PermManageLeads))
	api.GET("/leads/export", s.handleExportLeads, s.requirePermission(PermManageLeads))
	api.PATCH("/leads/:id/status", s.handleUpdateLeadStatus, s.requirePermission(PermManageLeads))
	api.DELETE("/leads/:id", s.handleDeleteLead, s.requirePermission(PermManageLeads))
	api.GET("/leads/:id/remarks", s.handleListRemarks, s.requirePermission(PermManageLeads))
	api.POST("/leads/:id/remarks", s.handleAddRemark, s.requirePermission(PermManageLeads))
	api.DELETE("/leads/remarks/:id", s.handleDeleteRemark, s.requirePermission(PermManageLeads))

	api.GET("/users", s.handleListUsers, s.requirePermission(PermManageUsers))
	api.POST("/users", s.handleCreateUser, s.requirePermission(PermManageUsers))
	api.PUT("/users/:id", s.handleUpdateUser, s.requirePermission(PermManageUsers))
	api.DELETE("/users/:id", s.handleDeleteUser, s.requirePermission(PermManageUsers))
	api.POST("/users/:id/password", s.handleResetPassword, s.requirePermission(PermManageUsers))

	api.GET("/settings/email", s.handleGetEmailSettings, s.requirePermission(PermManageSettings))
	api.PUT("/settings/email", s.handleUpdateEmailSettings, s.requirePermission(PermManageSettings))
	api.POST("/settings/email/test", s.handleSendTestEmail, s.requirePermission(PermManageSettings))
	api.GET("/emails/stats", s.handleEmailStats, s.requirePermission(PermManageSettings))
	api.GET("/emails/logs", s.handleEmailLogs, s.requirePermission(PermManageSettings))

	api.GET("/activity", s.handleActivity, s.requirePermission(PermViewActivity))
}
