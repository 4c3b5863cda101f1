// Package repository provides persistence for teams and the audit log.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("team name already exists")
)

type Team struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

type Teams struct {
	pool *pgxpool.Pool
}

func NewTeams(pool *pgxpool.Pool) *Teams {
	return &Teams{pool: pool}
}

func (t *Teams) Create(ctx context.Context, name string) (Team, error) {
	var team Team
	err := t.pool.QueryRow(ctx, `
		INSERT INTO teams (name) VALUES ($1)
		RETURNING id, name, created_at
	`, name).Scan(&team.ID, &team.Name, &team.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Team{}, ErrDuplicateName
	}
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (t *Teams) GetByID(ctx context.Context, id int64) (Team, error) {
	var team Team
	err := t.pool.QueryRow(ctx, `SELECT id, name, created_at FROM teams WHERE id = $1`, id).
		Scan(&team.ID, &team.Name, &team.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (t *Teams) List(ctx context.Context) ([]Team, error) {
	rows, err := t.pool.Query(ctx, `SELECT id, name, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]Team, 0)
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// Delete removes a team; member users keep a NULL team via the FK.
func (t *Teams) Delete(ctx context.Context, id int64) error {
	tag, err := t.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
