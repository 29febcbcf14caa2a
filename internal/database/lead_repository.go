package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// leadColumns must match the Scan order in scanLead.
const leadColumns = `id, name, student_name, email, phone, source, inquiry_type, message, grade, city, status, created_at`

// LeadRepo implements domain.LeadRepository backed by PostgreSQL.
type LeadRepo struct {
	pool *pgxpool.Pool
}

func NewLeadRepo(pool *pgxpool.Pool) *LeadRepo {
	return &LeadRepo{pool: pool}
}

func scanLead(row pgx.Row) (*domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.StudentName, &lead.Email, &lead.Phone,
		&lead.Source, &lead.InquiryType, &lead.Message, &lead.Grade, &lead.City,
		&lead.Status, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepo) Create(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	source := lead.Source
	if source == "" {
		source = "unknown"
	}

	created, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, student_name, email, phone, source, inquiry_type, message, grade, city, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'NEW')
		RETURNING `+leadColumns+`
	`, lead.Name, lead.StudentName, lead.Email, lead.Phone, source,
		lead.InquiryType, lead.Message, lead.Grade, lead.City))
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return created, nil
}

func (r *LeadRepo) List(ctx context.Context) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id int64, status domain.LeadStatus) (*domain.Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2 WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}
	return lead, nil
}

func (r *LeadRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLeadNotFound
	}
	return nil
}
