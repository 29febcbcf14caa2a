package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enrollhq/leadpulse/internal/domain"
)

// adminColumns must match the Scan order in scanAdmin.
const adminColumns = `id, email, password_hash, name, role, permissions, is_frozen, created_at`

// AdminRepo implements domain.AdminRepository backed by PostgreSQL.
type AdminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var admin domain.Admin
	err := row.Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Name,
		&admin.Role, &admin.Permissions, &admin.IsFrozen, &admin.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if admin.Permissions == nil {
		admin.Permissions = []string{}
	}
	return &admin, nil
}

func (r *AdminRepo) GetByID(ctx context.Context, id int64) (*domain.Admin, error) {
	admin, err := scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by ID: %w", err)
	}
	return admin, nil
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	admin, err := scanAdmin(r.pool.QueryRow(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by email: %w", err)
	}
	return admin, nil
}

func (r *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+adminColumns+` FROM admins ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	admins := make([]domain.Admin, 0)
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, *admin)
	}
	return admins, rows.Err()
}

func (r *AdminRepo) Create(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	created, err := scanAdmin(r.pool.QueryRow(ctx, `
		INSERT INTO admins (email, password_hash, name, role, permissions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+adminColumns+`
	`, admin.Email, admin.PasswordHash, admin.Name, admin.Role, admin.Permissions))
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return created, nil
}

func (r *AdminRepo) Update(ctx context.Context, id int64, name string, role domain.Role, permissions []string, isFrozen bool) (*domain.Admin, error) {
	if permissions == nil {
		permissions = []string{}
	}
	admin, err := scanAdmin(r.pool.QueryRow(ctx, `
		UPDATE admins SET name = $2, role = $3, permissions = $4, is_frozen = $5
		WHERE id = $1
		RETURNING `+adminColumns+`
	`, id, name, role, permissions, isFrozen))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update admin: %w", err)
	}
	return admin, nil
}

func (r *AdminRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdminNotFound
	}
	return nil
}

// Delete removes an admin together with their activity log entries and lead
// remarks, inside one transaction so the FK constraints cannot fail halfway.
func (r *AdminRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM activity_logs WHERE admin_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete activity logs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM lead_remarks WHERE admin_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete lead remarks: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdminNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
