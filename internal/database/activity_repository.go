package database

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// ActivityRepo implements domain.ActivityRepository backed by PostgreSQL.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Record(ctx context.Context, adminID int64, action, details string) (*domain.ActivityLog, error) {
	var log domain.ActivityLog
	err := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO activity_logs (admin_id, action, details)
			VALUES ($1, $2, $3)
			RETURNING id, admin_id, action, details, created_at
		)
		SELECT i.id, i.admin_id, i.action, i.details, i.created_at, a.name, a.email, a.role
		FROM inserted i JOIN admins a ON a.id = i.admin_id
	`, adminID, action, details).Scan(
		&log.ID, &log.AdminID, &log.Action, &log.Details, &log.CreatedAt,
		&log.AdminName, &log.AdminEmail, &log.AdminRole,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return &log, nil
}

func (r *ActivityRepo) ListPage(ctx context.Context, page, limit int) (*domain.ActivityPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.admin_id, l.action, l.details, l.created_at, a.name, a.email, a.role
		FROM activity_logs l JOIN admins a ON a.id = l.admin_id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0, limit)
	for rows.Next() {
		var log domain.ActivityLog
		if err := rows.Scan(
			&log.ID, &log.AdminID, &log.Action, &log.Details, &log.CreatedAt,
			&log.AdminName, &log.AdminEmail, &log.AdminRole,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count activity logs: %w", err)
	}

	return &domain.ActivityPage{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}
