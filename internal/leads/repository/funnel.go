package repository

import (
	"context"
	"strconv"

	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/internal/leads/funnel"
)

// The funnel engine's read path. All queries are plain reads over the
// ledger; they never lock lead rows.

func (r *Repository) CreatedLeads(ctx context.Context, scope funnel.Scope, window funnel.Window) ([]funnel.CreatedLead, error) {
	query := `SELECT id, created_at FROM leads WHERE created_at >= $1`
	args := []any{window.Start}
	idx := 2

	if window.End != nil {
		query += ` AND created_at <= $2`
		args = append(args, *window.End)
		idx++
	}
	if scope.UserID != nil {
		query += ` AND owner_user_id = $` + strconv.Itoa(idx)
		args = append(args, *scope.UserID)
	} else if scope.TeamID != nil {
		query += ` AND team_id = $` + strconv.Itoa(idx)
		args = append(args, *scope.TeamID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]funnel.CreatedLead, 0)
	for rows.Next() {
		var lead funnel.CreatedLead
		if err := rows.Scan(&lead.ID, &lead.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *Repository) StatusCounts(ctx context.Context, leadIDs []int64, window funnel.Window) (map[domain.Status]int, error) {
	query := `
		SELECT to_status, COUNT(DISTINCT lead_id)
		FROM lead_status_history
		WHERE lead_id = ANY($1) AND changed_at >= $2`
	args := []any{leadIDs, window.Start}
	if window.End != nil {
		query += ` AND changed_at <= $3`
		args = append(args, *window.End)
	}
	query += ` GROUP BY to_status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status domain.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *Repository) ReasonCounts(ctx context.Context, leadIDs []int64, window funnel.Window) (map[string]int, error) {
	query := `
		SELECT reason, COUNT(DISTINCT lead_id)
		FROM lead_status_history
		WHERE lead_id = ANY($1) AND changed_at >= $2 AND reason IS NOT NULL`
	args := []any{leadIDs, window.Start}
	if window.End != nil {
		query += ` AND changed_at <= $3`
		args = append(args, *window.End)
	}
	query += ` GROUP BY reason`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		counts[reason] = n
	}
	return counts, rows.Err()
}

func (r *Repository) History(ctx context.Context, leadIDs []int64, window funnel.Window) ([]funnel.HistoryRow, error) {
	query := `
		SELECT lead_id, to_status, changed_at
		FROM lead_status_history
		WHERE lead_id = ANY($1) AND changed_at >= $2`
	args := []any{leadIDs, window.Start}
	if window.End != nil {
		query += ` AND changed_at <= $3`
		args = append(args, *window.End)
	}
	query += ` ORDER BY lead_id ASC, changed_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]funnel.HistoryRow, 0)
	for rows.Next() {
		var row funnel.HistoryRow
		if err := rows.Scan(&row.LeadID, &row.ToStatus, &row.ChangedAt); err != nil {
			return nil, err
		}
		entries = append(entries, row)
	}
	return entries, rows.Err()
}

var _ funnel.Store = (*Repository)(nil)
