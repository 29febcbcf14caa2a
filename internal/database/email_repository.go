package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// EmailConfigRepo implements domain.EmailConfigRepository. The settings live
// in a single row with a fixed primary key.
type EmailConfigRepo struct {
	pool *pgxpool.Pool
}

func NewEmailConfigRepo(pool *pgxpool.Pool) *EmailConfigRepo {
	return &EmailConfigRepo{pool: pool}
}

func (r *EmailConfigRepo) Get(ctx context.Context) (*domain.EmailConfig, error) {
	var cfg domain.EmailConfig
	err := r.pool.QueryRow(ctx, `
		SELECT receiver_email, is_enabled, updated_at
		FROM email_config WHERE id = 1
	`).Scan(&cfg.ReceiverEmail, &cfg.IsEnabled, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Settings were never saved. Return defaults without creating a row.
		return &domain.EmailConfig{IsEnabled: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email config: %w", err)
	}
	return &cfg, nil
}

func (r *EmailConfigRepo) Upsert(ctx context.Context, receiverEmail string, isEnabled bool) (*domain.EmailConfig, error) {
	var cfg domain.EmailConfig
	err := r.pool.QueryRow(ctx, `
		INSERT INTO email_config (id, receiver_email, is_enabled, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			receiver_email = EXCLUDED.receiver_email,
			is_enabled = EXCLUDED.is_enabled,
			updated_at = NOW()
		RETURNING receiver_email, is_enabled, updated_at
	`, receiverEmail, isEnabled).Scan(&cfg.ReceiverEmail, &cfg.IsEnabled, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert email config: %w", err)
	}
	return &cfg, nil
}

// EmailLogRepo implements domain.EmailLogRepository backed by PostgreSQL.
type EmailLogRepo struct {
	pool *pgxpool.Pool
}

func NewEmailLogRepo(pool *pgxpool.Pool) *EmailLogRepo {
	return &EmailLogRepo{pool: pool}
}

func (r *EmailLogRepo) Record(ctx context.Context, log *domain.EmailLog) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO email_logs (recipient, subject, status, error)
		VALUES ($1, $2, $3, $4)
		RETURNING id, sent_at
	`, log.Recipient, log.Subject, log.Status, log.Error).Scan(&log.ID, &log.SentAt)
	if err != nil {
		return fmt.Errorf("failed to record email log: %w", err)
	}
	return nil
}

func (r *EmailLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.EmailLog, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient, subject, status, error, sent_at
		FROM email_logs ORDER BY sent_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.EmailLog, 0, limit)
	for rows.Next() {
		var log domain.EmailLog
		if err := rows.Scan(&log.ID, &log.Recipient, &log.Subject, &log.Status, &log.Error, &log.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (r *EmailLogRepo) Stats(ctx context.Context) (*domain.EmailStats, error) {
	var stats domain.EmailStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'SUCCESS'),
		       COUNT(*) FILTER (WHERE status = 'FAILED')
		FROM email_logs
	`).Scan(&stats.Total, &stats.Success, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute email stats: %w", err)
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Success) / float64(stats.Total) * 100
	}
	return &stats, nil
}
