// Package repository provides PostgreSQL persistence for activity events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales_portal_backend/internal/activity/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("event not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateCallParams struct {
	UserID     int64
	LeadID     *int64
	OccurredAt time.Time
	ContactRef *string
	Outcome    domain.CallOutcome
	Notes      *string
}

func (r *Repository) CreateCall(ctx context.Context, params CreateCallParams) (domain.CallEvent, error) {
	var event domain.CallEvent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_events (user_id, lead_id, occurred_at, contact_ref, outcome, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, lead_id, occurred_at, contact_ref, outcome, notes
	`, params.UserID, params.LeadID, params.OccurredAt, params.ContactRef, params.Outcome, params.Notes).
		Scan(&event.ID, &event.UserID, &event.LeadID, &event.OccurredAt, &event.ContactRef, &event.Outcome, &event.Notes)
	return event, err
}

type CreateAppointmentParams struct {
	UserID     int64
	LeadID     *int64
	Type       domain.AppointmentType
	OccurredAt time.Time
	Result     domain.AppointmentResult
	Notes      *string
	Location   *string
}

func (r *Repository) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (domain.AppointmentEvent, error) {
	var event domain.AppointmentEvent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointment_events (user_id, lead_id, type, occurred_at, result, notes, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, lead_id, type, occurred_at, result, notes, location
	`, params.UserID, params.LeadID, params.Type, params.OccurredAt, params.Result, params.Notes, params.Location).
		Scan(&event.ID, &event.UserID, &event.LeadID, &event.Type, &event.OccurredAt, &event.Result, &event.Notes, &event.Location)
	return event, err
}

type CreateClosingParams struct {
	UserID          int64
	LeadID          *int64
	OccurredAt      time.Time
	Units           float64
	ProductCategory *string
	Notes           *string
}

func (r *Repository) CreateClosing(ctx context.Context, params CreateClosingParams) (domain.ClosingEvent, error) {
	var event domain.ClosingEvent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO closing_events (user_id, lead_id, occurred_at, units, product_category, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, lead_id, occurred_at, units, product_category, notes
	`, params.UserID, params.LeadID, params.OccurredAt, params.Units, params.ProductCategory, params.Notes).
		Scan(&event.ID, &event.UserID, &event.LeadID, &event.OccurredAt, &event.Units, &event.ProductCategory, &event.Notes)
	return event, err
}

// Recent returns the caller's latest events across all three kinds, newest
// first, capped at limit.
func (r *Repository) Recent(ctx context.Context, userID int64, limit int) ([]domain.RecentEvent, error) {
	rows, err := r.pool.Query(ctx, `
		(SELECT id, 'call' AS kind, occurred_at,
			'Anruf • ' || initcap(replace(outcome, '_', ' ')) AS title, contact_ref AS meta, notes
		FROM call_events WHERE user_id = $1 ORDER BY occurred_at DESC LIMIT $2)
		UNION ALL
		(SELECT id, 'appointment', occurred_at,
			'Termin • ' || type, concat_ws(' • ', 'Status: ' || result, location), notes
		FROM appointment_events WHERE user_id = $1 ORDER BY occurred_at DESC LIMIT $2)
		UNION ALL
		(SELECT id, 'closing', occurred_at, 'Abschluss', units::text || ' Units', notes
		FROM closing_events WHERE user_id = $1 ORDER BY occurred_at DESC LIMIT $2)
		ORDER BY occurred_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.RecentEvent, 0)
	for rows.Next() {
		var event domain.RecentEvent
		if err := rows.Scan(&event.ID, &event.Kind, &event.OccurredAt, &event.Title, &event.Meta, &event.Notes); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

var eventTables = map[string]string{
	"call":        "call_events",
	"appointment": "appointment_events",
	"closing":     "closing_events",
}

// Delete removes an event row of the given kind.
func (r *Repository) Delete(ctx context.Context, kind string, id int64) error {
	table, ok := eventTables[kind]
	if !ok {
		return fmt.Errorf("unknown event kind: %s", kind)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivityCounts aggregates one user's event counts for the KPI calculator.
type ActivityCounts struct {
	CallsMade             int
	CallsAnswered         int
	FirstAppointmentsSet  int
	SecondAppointmentsSet int
	Closings              int
	UnitsTotal            float64
}

func (r *Repository) CountsForUser(ctx context.Context, userID int64, since time.Time) (ActivityCounts, error) {
	var counts ActivityCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM call_events WHERE user_id = $1 AND occurred_at >= $2),
			(SELECT COUNT(*) FROM call_events WHERE user_id = $1 AND occurred_at >= $2 AND outcome = 'answered'),
			(SELECT COUNT(*) FROM appointment_events WHERE user_id = $1 AND occurred_at >= $2 AND type = 'first' AND result = 'set'),
			(SELECT COUNT(*) FROM appointment_events WHERE user_id = $1 AND occurred_at >= $2 AND type = 'second' AND result = 'set'),
			(SELECT COUNT(*) FROM closing_events WHERE user_id = $1 AND occurred_at >= $2),
			(SELECT COALESCE(SUM(units), 0) FROM closing_events WHERE user_id = $1 AND occurred_at >= $2)
	`, userID, since).Scan(&counts.CallsMade, &counts.CallsAnswered, &counts.FirstAppointmentsSet,
		&counts.SecondAppointmentsSet, &counts.Closings, &counts.UnitsTotal)
	return counts, err
}
