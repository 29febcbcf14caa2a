package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/broadcast"
	"github.com/enrollhq/leadpulse/internal/config"
	"github.com/enrollhq/leadpulse/internal/domain"
	apperrors "github.com/enrollhq/leadpulse/internal/errors"
)

// tokenVerifier checks bearer tokens and recovers the caller's identity.
type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// leadRateLimiter throttles public form submissions per client.
type leadRateLimiter interface {
	Allow(ctx context.Context, clientIP string) (bool, error)
}

// leadDeduper suppresses duplicate form submissions.
type leadDeduper interface {
	FirstSeen(ctx context.Context, email, phone string) (bool, error)
}

// healthChecker is the minimal probe used by the readiness endpoint.
type healthChecker interface {
	Ping(ctx context.Context) error
}

// chatAssistant answers public website questions. Nil when no chat API key
// is configured.
type chatAssistant interface {
	Ask(ctx context.Context, question string) (string, error)
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	app         domain.AppService
	hub         *broadcast.Hub
	tokens      tokenVerifier
	rateLimiter leadRateLimiter
	deduper     leadDeduper
	assistant   chatAssistant
	pgHealth    healthChecker
	redisHealth healthChecker
	startTime   time.Time
}

func NewServer(
	cfg *config.Config,
	app domain.AppService,
	hub *broadcast.Hub,
	tokens tokenVerifier,
	rateLimiter leadRateLimiter,
	deduper leadDeduper,
	assistant chatAssistant,
	pgHealth healthChecker,
	redisHealth healthChecker,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		app:         app,
		hub:         hub,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		deduper:     deduper,
		assistant:   assistant,
		pgHealth:    pgHealth,
		redisHealth: redisHealth,
		startTime:   time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
