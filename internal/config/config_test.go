package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/leadpulse")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("TOKEN_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.LeadRateLimit)
	assert.Equal(t, time.Minute, cfg.LeadRateWindow)
	assert.Equal(t, 5*time.Minute, cfg.LeadDedupTTL)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"database url", "DATABASE_URL"},
		{"redis url", "REDIS_URL"},
		{"token secret", "TOKEN_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.ErrorContains(t, err, tt.unset)
		})
	}
}

func TestLoad_RejectsShortTokenSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_SECRET", "too-short")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_SECRET")
}

func TestLoad_MailSenderRequiredWithAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIL_API_KEY", "key")

	_, err := Load()
	assert.ErrorContains(t, err, "MAIL_SENDER")
}

func TestLoad_ParsesOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("LEAD_RATE_LIMIT", "10")
	t.Setenv("HEARTBEAT_INTERVAL", "15s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.LeadRateLimit)
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Run("malformed duration", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("HEARTBEAT_INTERVAL", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "HEARTBEAT_INTERVAL")
	})

	t.Run("sub-second heartbeat", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("HEARTBEAT_INTERVAL", "100ms")

		_, err := Load()
		assert.ErrorContains(t, err, "HEARTBEAT_INTERVAL")
	})

	t.Run("non-positive rate limit", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("LEAD_RATE_LIMIT", "0")

		_, err := Load()
		assert.ErrorContains(t, err, "LEAD_RATE_LIMIT")
	})
}

func TestLoad_ReadsDotEnvFile(t *testing.T) {
	setRequiredEnv(t)
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("PORT=9090\nCHAT_API_KEY=sk-from-file\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sk-from-file", cfg.ChatAPIKey)
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "7070")
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("PORT=9090\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
}
