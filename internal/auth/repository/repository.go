// Package repository provides PostgreSQL persistence for user accounts.
package repository

import (
	"context"
	"errors"

	"sales_portal_backend/internal/auth/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, team_id, is_approved, is_active, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.TeamID, &user.IsApproved, &user.IsActive, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         domain.Role
}

// Create inserts a new, unapproved account.
func (r *Repository) Create(ctx context.Context, params CreateUserParams) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, role, is_approved, is_active)
		VALUES (lower($1), $2, $3, $4, $5, false, true)
		RETURNING `+userColumns+`
	`, params.Email, params.PasswordHash, params.FirstName, params.LastName, params.Role))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.User{}, ErrDuplicateEmail
	}
	return user, err
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *Repository) ListPending(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_approved = false AND is_active = true ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *Repository) ListByTeam(ctx context.Context, teamID int64) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE team_id = $1 ORDER BY created_at ASC`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *Repository) SetApproved(ctx context.Context, id int64, approved bool) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET is_approved = $1 WHERE id = $2 RETURNING `+userColumns, approved, id))
}

func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET is_active = $1 WHERE id = $2 RETURNING `+userColumns, active, id))
}

func (r *Repository) SetRole(ctx context.Context, id int64, role domain.Role) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET role = $1 WHERE id = $2 RETURNING `+userColumns, role, id))
}

func (r *Repository) SetTeam(ctx context.Context, id int64, teamID *int64) (domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET team_id = $1 WHERE id = $2 RETURNING `+userColumns, teamID, id))
}
