// Package repository stores per-role KPI visibility overrides.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Overrides returns the stored visibility overrides for a role, keyed by KPI
// name. Keys absent from the map fall back to the embedded defaults.
func (r *Repository) Overrides(ctx context.Context, role string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kpi_key, visible FROM kpi_visibility WHERE role = $1
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]bool)
	for rows.Next() {
		var key string
		var visible bool
		if err := rows.Scan(&key, &visible); err != nil {
			return nil, err
		}
		overrides[key] = visible
	}
	return overrides, rows.Err()
}

// SetOverride upserts one visibility override.
func (r *Repository) SetOverride(ctx context.Context, role, key string, visible bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO kpi_visibility (role, kpi_key, visible)
		VALUES ($1, $2, $3)
		ON CONFLICT (role, kpi_key) DO UPDATE SET visible = EXCLUDED.visible
	`, role, key, visible)
	return err
}

// DeleteOverride removes an override so the default applies again.
func (r *Repository) DeleteOverride(ctx context.Context, role, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM kpi_visibility WHERE role = $1 AND kpi_key = $2`, role, key)
	return err
}
