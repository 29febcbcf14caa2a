package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string
	Port        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	RedisURL    string

	// TokenSecret signs admin bearer tokens. Rotating it invalidates all
	// outstanding sessions.
	TokenSecret string
	TokenTTL    time.Duration

	// Mail delivery (Mailjet-compatible HTTP API). Optional: with an empty
	// API key the mailer is disabled and only the delivery log is written.
	MailAPIKey    string
	MailAPISecret string
	MailSender    string

	// Website chat assistant (OpenRouter). Optional: with an empty API key
	// the chat endpoint is disabled.
	ChatAPIKey   string
	ChatModel    string
	ChatSiteURL  string
	ChatSiteName string

	// Public lead form abuse controls.
	LeadRateLimit  int           // submissions per window per client IP
	LeadRateWindow time.Duration // rate limit window
	LeadDedupTTL   time.Duration // identical-inquiry suppression window

	HeartbeatInterval time.Duration
}

func Load() (*Config, error) {
	// Values already present in the environment win over .env entries.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		TokenSecret:   getEnv("TOKEN_SECRET", ""),
		MailAPIKey:    getEnv("MAIL_API_KEY", ""),
		MailAPISecret: getEnv("MAIL_API_SECRET", ""),
		MailSender:    getEnv("MAIL_SENDER", ""),
		ChatAPIKey:    getEnv("CHAT_API_KEY", ""),
		ChatModel:     getEnv("CHAT_MODEL", ""),
		ChatSiteURL:   getEnv("CHAT_SITE_URL", ""),
		ChatSiteName:  getEnv("CHAT_SITE_NAME", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	if len(cfg.TokenSecret) < 32 {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters, got %d", len(cfg.TokenSecret))
	}

	if cfg.MailAPIKey != "" && cfg.MailSender == "" {
		return nil, fmt.Errorf("MAIL_SENDER is required when MAIL_API_KEY is set")
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.LeadRateWindow, err = getDuration("LEAD_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.LeadDedupTTL, err = getDuration("LEAD_DEDUP_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HeartbeatInterval, err = getDuration("HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LeadRateLimit, err = getInt("LEAD_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.LeadRateLimit < 1 {
		return nil, fmt.Errorf("LEAD_RATE_LIMIT must be positive, got %d", cfg.LeadRateLimit)
	}
	if cfg.HeartbeatInterval < time.Second {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be at least 1s, got %s", cfg.HeartbeatInterval)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
