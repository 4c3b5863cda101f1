package repository

import (
	"context"
	"errors"
	"time"

	"sales_portal_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

type TransitionParams struct {
	LeadID          int64
	ToStatus        domain.Status
	ChangedByUserID *int64
	Reason          *string
	Meta            map[string]any
	ChangedAt       time.Time
}

// ApplyStatusTransition performs the read-validate-append-update cycle in a
// single transaction. The lead row is locked with FOR UPDATE so two
// concurrent transitions on the same lead serialize instead of racing on
// the cached status column. On an illegal edge the transaction rolls back
// and a domain.InvalidTransitionError is returned.
func (r *Repository) ApplyStatusTransition(ctx context.Context, params TransitionParams) (domain.StatusHistoryEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StatusHistoryEntry{}, err
	}
	defer tx.Rollback(ctx)

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT current_status FROM leads WHERE id = $1 FOR UPDATE`, params.LeadID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StatusHistoryEntry{}, ErrNotFound
	}
	if err != nil {
		return domain.StatusHistoryEntry{}, err
	}

	if !domain.IsTransitionAllowed(current, params.ToStatus) {
		return domain.StatusHistoryEntry{}, &domain.InvalidTransitionError{From: current, To: params.ToStatus}
	}

	meta := params.Meta
	if meta == nil {
		meta = map[string]any{}
	}

	entry := domain.StatusHistoryEntry{
		LeadID:          params.LeadID,
		ChangedByUserID: params.ChangedByUserID,
		FromStatus:      current,
		ToStatus:        params.ToStatus,
		ChangedAt:       params.ChangedAt,
		Reason:          params.Reason,
		Meta:            meta,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_status_history (lead_id, changed_by_user_id, from_status, to_status, changed_at, reason, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, params.LeadID, params.ChangedByUserID, current, params.ToStatus, params.ChangedAt, params.Reason, meta).Scan(&entry.ID)
	if err != nil {
		return domain.StatusHistoryEntry{}, err
	}

	if params.ToStatus != current {
		_, err = tx.Exec(ctx, `
			UPDATE leads SET current_status = $1, status_updated_at = $2, last_activity_at = $2 WHERE id = $3
		`, params.ToStatus, params.ChangedAt, params.LeadID)
	} else {
		_, err = tx.Exec(ctx, `UPDATE leads SET last_activity_at = $1 WHERE id = $2`, params.ChangedAt, params.LeadID)
	}
	if err != nil {
		return domain.StatusHistoryEntry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StatusHistoryEntry{}, err
	}
	return entry, nil
}

// ListHistory returns a lead's ledger, oldest first, insertion order
// breaking timestamp ties.
func (r *Repository) ListHistory(ctx context.Context, leadID int64) ([]domain.StatusHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, changed_by_user_id, from_status, to_status, changed_at, reason, meta
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]domain.StatusHistoryEntry, error) {
	entries := make([]domain.StatusHistoryEntry, 0)
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.ChangedByUserID, &entry.FromStatus,
			&entry.ToStatus, &entry.ChangedAt, &entry.Reason, &entry.Meta); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type CalendarParams struct {
	OwnerUserID *int64
	TeamID      *int64
	From        time.Time
	To          time.Time
}

// Calendar surfaces scheduling-type history entries whose meta carries a
// scheduled_for timestamp inside the requested range.
func (r *Repository) Calendar(ctx context.Context, params CalendarParams) ([]domain.CalendarEntry, error) {
	query := `
		SELECT h.lead_id, l.full_name, l.owner_user_id, h.to_status,
			(h.meta->>'scheduled_for')::timestamptz, h.meta->>'location', h.reason
		FROM lead_status_history h
		JOIN leads l ON l.id = h.lead_id
		WHERE h.to_status = ANY($1)
		AND h.meta ? 'scheduled_for'
		AND (h.meta->>'scheduled_for')::timestamptz BETWEEN $2 AND $3`
	args := []any{schedulingStatusStrings(), params.From, params.To}

	if params.OwnerUserID != nil {
		query += ` AND l.owner_user_id = $4`
		args = append(args, *params.OwnerUserID)
	} else if params.TeamID != nil {
		query += ` AND l.team_id = $4`
		args = append(args, *params.TeamID)
	}
	query += ` ORDER BY (h.meta->>'scheduled_for')::timestamptz ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.CalendarEntry, 0)
	for rows.Next() {
		var entry domain.CalendarEntry
		if err := rows.Scan(&entry.LeadID, &entry.LeadName, &entry.OwnerUserID, &entry.Status,
			&entry.ScheduledFor, &entry.Location, &entry.Reason); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func schedulingStatusStrings() []string {
	out := make([]string, 0, len(domain.SchedulingStatuses))
	for _, s := range domain.SchedulingStatuses {
		out = append(out, string(s))
	}
	return out
}
