package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/enrollhq/leadpulse/internal/app"
	"github.com/enrollhq/leadpulse/internal/assistant"
	"github.com/enrollhq/leadpulse/internal/auth"
	"github.com/enrollhq/leadpulse/internal/broadcast"
	"github.com/enrollhq/leadpulse/internal/config"
	"github.com/enrollhq/leadpulse/internal/database"
	"github.com/enrollhq/leadpulse/internal/logging"
	"github.com/enrollhq/leadpulse/internal/mailer"
	"github.com/enrollhq/leadpulse/internal/redis"
	"github.com/enrollhq/leadpulse/internal/server"
	"github.com/enrollhq/leadpulse/internal/version"
)

// redisHealth adapts the redis client to the readiness probe shape.
type redisHealth struct {
	rdb *goredis.Client
}

func (r redisHealth) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupNotifier(cfg *config.Config, configRepo *database.EmailConfigRepo, logRepo *database.EmailLogRepo) *mailer.Notifier {
	var sender mailer.Sender
	if cfg.MailAPIKey != "" {
		sender = mailer.NewClient(cfg.MailAPIKey, cfg.MailAPISecret, cfg.MailSender)
		slog.Info("Email notifications enabled", "sender", cfg.MailSender)
	} else {
		slog.Info("Email notifications disabled, no MAIL_API_KEY set")
	}
	return mailer.NewNotifier(sender, configRepo, logRepo)
}

// setupAssistant returns nil when no chat API key is configured, which
// disables the public chat endpoint.
func setupAssistant(cfg *config.Config) *assistant.Client {
	if cfg.ChatAPIKey == "" {
		slog.Info("Chat assistant disabled, no CHAT_API_KEY set")
		return nil
	}
	slog.Info("Chat assistant enabled", "model", cfg.ChatModel)
	return assistant.NewClient(cfg.ChatAPIKey, cfg.ChatModel, cfg.ChatSiteURL, cfg.ChatSiteName)
}

func runGracefulShutdown(srv *server.Server, appSvc *app.Service, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Order matters: the hub drops live streams first so no broadcast
		// races a closing connection, then the app drains its notify workers.
		hub.Stop()
		appSvc.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	build := version.Get()
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", build.Version, "commit", build.Commit)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	leadRepo := database.NewLeadRepo(pool)
	remarkRepo := database.NewRemarkRepo(pool)
	adminRepo := database.NewAdminRepo(pool)
	activityRepo := database.NewActivityRepo(pool)
	emailConfigRepo := database.NewEmailConfigRepo(pool)
	emailLogRepo := database.NewEmailLogRepo(pool)

	hub := broadcast.NewHub(clock, cfg.HeartbeatInterval)
	tokens := auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL, clock)
	notifier := setupNotifier(cfg, emailConfigRepo, emailLogRepo)

	appSvc := app.NewService(leadRepo, remarkRepo, adminRepo, activityRepo, emailConfigRepo, emailLogRepo, hub, tokens, notifier)

	// Keep the interface nil when the assistant is disabled, so the chat
	// handler sees a plain nil rather than a typed-nil client.
	var chat interface {
		Ask(ctx context.Context, question string) (string, error)
	}
	if assistantClient := setupAssistant(cfg); assistantClient != nil {
		chat = assistantClient
	}

	srv := server.NewServer(
		cfg,
		appSvc,
		hub,
		tokens,
		redis.NewRateLimiter(redisClient, cfg.LeadRateLimit, cfg.LeadRateWindow),
		redis.NewDeduper(redisClient, cfg.LeadDedupTTL),
		chat,
		pool,
		redisHealth{rdb: redisClient},
	)

	done := runGracefulShutdown(srv, appSvc, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
