package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// RemarkRepo implements domain.LeadRemarkRepository backed by PostgreSQL.
type RemarkRepo struct {
	pool *pgxpool.Pool
}

func NewRemarkRepo(pool *pgxpool.Pool) *RemarkRepo {
	return &RemarkRepo{pool: pool}
}

func (r *RemarkRepo) Create(ctx context.Context, leadID, adminID int64, remark string) (*domain.LeadRemark, error) {
	var out domain.LeadRemark
	err := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO lead_remarks (lead_id, admin_id, remark)
			VALUES ($1, $2, $3)
			RETURNING id, lead_id, admin_id, remark, created_at
		)
		SELECT i.id, i.lead_id, i.admin_id, i.remark, i.created_at, a.name
		FROM inserted i JOIN admins a ON a.id = i.admin_id
	`, leadID, adminID, remark).Scan(
		&out.ID, &out.LeadID, &out.AdminID, &out.Remark, &out.CreatedAt, &out.AdminName,
	)
	if isForeignKeyViolation(err) {
		return nil, domain.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create remark: %w", err)
	}
	return &out, nil
}

func (r *RemarkRepo) ListByLead(ctx context.Context, leadID int64) ([]domain.LeadRemark, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.lead_id, r.admin_id, r.remark, r.created_at, a.name
		FROM lead_remarks r JOIN admins a ON a.id = r.admin_id
		WHERE r.lead_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list remarks: %w", err)
	}
	defer rows.Close()

	remarks := make([]domain.LeadRemark, 0)
	for rows.Next() {
		var remark domain.LeadRemark
		if err := rows.Scan(
			&remark.ID, &remark.LeadID, &remark.AdminID, &remark.Remark, &remark.CreatedAt, &remark.AdminName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		remarks = append(remarks, remark)
	}
	return remarks, rows.Err()
}

func (r *RemarkRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_remarks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete remark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRemarkNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
