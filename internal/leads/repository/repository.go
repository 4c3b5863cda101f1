// Package repository provides PostgreSQL persistence for leads and their
// status history ledger.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"sales_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateLeadParams struct {
	OwnerUserID int64
	TeamID      *int64
	FullName    string
	Phone       *string
	Email       *string
	Tags        []string
	Note        *string
}

// Create inserts a new lead at new_cold together with its bootstrap ledger
// entry (from=new_cold, to=new_cold, reason "created") in one transaction.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	defer tx.Rollback(ctx)

	tags, err := json.Marshal(tagsOrEmpty(params.Tags))
	if err != nil {
		return domain.Lead{}, err
	}

	var lead domain.Lead
	err = tx.QueryRow(ctx, `
		INSERT INTO leads (owner_user_id, team_id, full_name, phone, email, tags, note, current_status, status_updated_at, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, owner_user_id, team_id, full_name, phone, email, tags, note,
			current_status, status_updated_at, last_activity_at, created_at
	`, params.OwnerUserID, params.TeamID, params.FullName, params.Phone, params.Email, tags, params.Note, domain.StatusNewCold).
		Scan(&lead.ID, &lead.OwnerUserID, &lead.TeamID, &lead.FullName, &lead.Phone, &lead.Email,
			&lead.Tags, &lead.Note, &lead.CurrentStatus, &lead.StatusUpdatedAt, &lead.LastActivityAt, &lead.CreatedAt)
	if err != nil {
		return domain.Lead{}, err
	}

	reason := domain.ReasonCreated
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, changed_by_user_id, from_status, to_status, changed_at, reason, meta)
		VALUES ($1, $2, $3, $3, $4, $5, '{}'::jsonb)
	`, lead.ID, params.OwnerUserID, domain.StatusNewCold, lead.CreatedAt, reason)
	if err != nil {
		return domain.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

const leadColumns = `id, owner_user_id, team_id, full_name, phone, email, tags, note,
	current_status, status_updated_at, last_activity_at, created_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(&lead.ID, &lead.OwnerUserID, &lead.TeamID, &lead.FullName, &lead.Phone, &lead.Email,
		&lead.Tags, &lead.Note, &lead.CurrentStatus, &lead.StatusUpdatedAt, &lead.LastActivityAt, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

// ListParams filters the lead list. OwnerUserID takes precedence over TeamID,
// mirroring the scope resolution in the KPI read path.
type ListParams struct {
	OwnerUserID *int64
	TeamID      *int64
	Status      *domain.Status
	Limit       int
	Offset      int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []any{}
	idx := 1

	if params.OwnerUserID != nil {
		query += ` AND owner_user_id = $` + strconv.Itoa(idx)
		args = append(args, *params.OwnerUserID)
		idx++
	} else if params.TeamID != nil {
		query += ` AND team_id = $` + strconv.Itoa(idx)
		args = append(args, *params.TeamID)
		idx++
	}
	if params.Status != nil {
		query += ` AND current_status = $` + strconv.Itoa(idx)
		args = append(args, *params.Status)
		idx++
	}

	query += ` ORDER BY last_activity_at DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type UpdateDetailsParams struct {
	FullName *string
	Phone    *string
	Email    *string
	Tags     []string
	Note     *string
}

// UpdateDetails edits descriptive fields only. It never touches the status
// columns, which belong to the transition path.
func (r *Repository) UpdateDetails(ctx context.Context, id int64, params UpdateDetailsParams) (domain.Lead, error) {
	query := `UPDATE leads SET id = id`
	args := []any{}
	idx := 1

	if params.FullName != nil {
		query += `, full_name = $` + strconv.Itoa(idx)
		args = append(args, *params.FullName)
		idx++
	}
	if params.Phone != nil {
		query += `, phone = $` + strconv.Itoa(idx)
		args = append(args, *params.Phone)
		idx++
	}
	if params.Email != nil {
		query += `, email = $` + strconv.Itoa(idx)
		args = append(args, *params.Email)
		idx++
	}
	if params.Tags != nil {
		tags, err := json.Marshal(params.Tags)
		if err != nil {
			return domain.Lead{}, err
		}
		query += `, tags = $` + strconv.Itoa(idx)
		args = append(args, tags)
		idx++
	}
	if params.Note != nil {
		query += `, note = $` + strconv.Itoa(idx)
		args = append(args, *params.Note)
		idx++
	}

	query += ` WHERE id = $` + strconv.Itoa(idx) + ` RETURNING ` + leadColumns
	args = append(args, id)

	return scanLead(r.pool.QueryRow(ctx, query, args...))
}

// Delete removes a lead; history rows cascade at the schema level.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
