// Package funnel derives conversion, drop-off and stage-duration metrics by
// replaying the lead status history ledger over a scope and time window.
package funnel

import (
	"context"
	"time"

	"sales_portal_backend/internal/leads/domain"

	"golang.org/x/sync/errgroup"
)

// Scope selects whose leads are analyzed. UserID takes precedence over
// TeamID; with neither set the scope is all leads.
type Scope struct {
	UserID *int64
	TeamID *int64
}

// Window is the analysis time window. A nil End leaves it open-ended.
type Window struct {
	Start time.Time
	End   *time.Time
}

// CreatedLead is a lead created inside the window, with its creation time
// for the time-to-stage metrics.
type CreatedLead struct {
	ID        int64
	CreatedAt time.Time
}

// HistoryRow is a ledger row as the engine consumes it, ordered by lead
// then changed_at (insertion order breaking ties).
type HistoryRow struct {
	LeadID    int64
	ToStatus  domain.Status
	ChangedAt time.Time
}

// Store is the read-only ledger access the engine needs. Implementations
// never block writers; the engine tolerates a moving snapshot across the
// individual queries.
type Store interface {
	CreatedLeads(ctx context.Context, scope Scope, window Window) ([]CreatedLead, error)
	StatusCounts(ctx context.Context, leadIDs []int64, window Window) (map[domain.Status]int, error)
	ReasonCounts(ctx context.Context, leadIDs []int64, window Window) (map[string]int, error)
	History(ctx context.Context, leadIDs []int64, window Window) ([]HistoryRow, error)
}

// Result is the funnel KPI payload. Maps stay empty (never nil fields) for
// an empty scope or window; rates are 0 on a zero denominator.
type Result struct {
	LeadsCreated int                `json:"leadsCreated"`
	StatusCounts map[string]int     `json:"statusCounts"`
	Conversions  map[string]float64 `json:"conversions"`
	DropOffs     map[string]float64 `json:"dropOffs"`
	TimeMetrics  map[string]float64 `json:"timeMetrics"`
}

func emptyResult() Result {
	return Result{
		StatusCounts: map[string]int{},
		Conversions:  map[string]float64{},
		DropOffs:     map[string]float64{},
		TimeMetrics:  map[string]float64{},
	}
}

type Engine struct {
	store Store
	cache *Cache
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables short-TTL result caching. The funnel is an analytics
// view, so serving a slightly stale result is acceptable.
func WithCache(cache *Cache) Option {
	return func(e *Engine) { e.cache = cache }
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate computes the funnel KPIs for the given scope and window.
// An empty scope or window yields a zero result, never an error.
func (e *Engine) Calculate(ctx context.Context, scope Scope, window Window) (Result, error) {
	if e.cache != nil {
		if result, ok := e.cache.Get(ctx, scope, window); ok {
			return result, nil
		}
	}

	created, err := e.store.CreatedLeads(ctx, scope, window)
	if err != nil {
		return Result{}, err
	}
	if len(created) == 0 {
		return emptyResult(), nil
	}

	leadIDs := make([]int64, 0, len(created))
	for _, lead := range created {
		leadIDs = append(leadIDs, lead.ID)
	}

	var (
		statusCounts map[domain.Status]int
		reasonCounts map[string]int
		history      []HistoryRow
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		statusCounts, err = e.store.StatusCounts(groupCtx, leadIDs, window)
		return err
	})
	group.Go(func() error {
		var err error
		reasonCounts, err = e.store.ReasonCounts(groupCtx, leadIDs, window)
		return err
	})
	group.Go(func() error {
		var err error
		history, err = e.store.History(groupCtx, leadIDs, window)
		return err
	})
	if err := group.Wait(); err != nil {
		return Result{}, err
	}

	result := Result{
		LeadsCreated: len(created),
		StatusCounts: statusCountKeys(statusCounts),
		Conversions:  conversions(len(created), statusCounts),
		DropOffs:     dropOffs(statusCounts, reasonCounts),
		TimeMetrics:  timeMetrics(created, history),
	}

	if e.cache != nil {
		e.cache.Set(ctx, scope, window, result)
	}
	return result, nil
}

func statusCountKeys(counts map[domain.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

func safeRate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func conversions(leadsCreated int, counts map[domain.Status]int) map[string]float64 {
	return map[string]float64{
		"contactRate":        safeRate(counts[domain.StatusContactEstablished], leadsCreated),
		"firstApptRate":      safeRate(counts[domain.StatusFirstApptScheduled], counts[domain.StatusContactEstablished]),
		"firstApptShowRate":  safeRate(counts[domain.StatusFirstApptCompleted], counts[domain.StatusFirstApptScheduled]),
		"secondApptRate":     safeRate(counts[domain.StatusSecondApptScheduled], counts[domain.StatusFirstApptCompleted]),
		"secondApptShowRate": safeRate(counts[domain.StatusSecondApptCompleted], counts[domain.StatusSecondApptScheduled]),
		"closingRate":        safeRate(counts[domain.StatusClosedWon], counts[domain.StatusSecondApptCompleted]),
	}
}

func dropOffs(counts map[domain.Status]int, reasons map[string]int) map[string]float64 {
	return map[string]float64{
		"callDeclineRate":       safeRate(reasons[domain.ReasonWrongNumber]+reasons[domain.ReasonCallDeclined], counts[domain.StatusNewCold]),
		"firstApptDeclineRate":  safeRate(reasons[domain.ReasonFirstApptDeclined], counts[domain.StatusFirstApptScheduled]),
		"secondApptDeclineRate": safeRate(reasons[domain.ReasonSecondApptDeclined], counts[domain.StatusSecondApptScheduled]),
		"noShowRateFirst":       safeRate(reasons[domain.ReasonNoShowFirst], counts[domain.StatusFirstApptScheduled]),
		"noShowRateSecond":      safeRate(reasons[domain.ReasonNoShowSecond], counts[domain.StatusSecondApptScheduled]),
		"rescheduleRateFirst":   safeRate(reasons[domain.ReasonRescheduledFirst], counts[domain.StatusFirstApptScheduled]),
		"rescheduleRateSecond":  safeRate(reasons[domain.ReasonRescheduledSecond], counts[domain.StatusSecondApptScheduled]),
	}
}

// hoursBetween returns the elapsed hours between two timestamps, or false
// when the interval is negative. Negative intervals happen when a
// future-dated scheduling entry precedes an earlier real entry; those
// pairs are excluded from the averages instead of dragging them negative.
func hoursBetween(start, end time.Time) (float64, bool) {
	if end.Before(start) {
		return 0, false
	}
	return end.Sub(start).Hours(), true
}

func timeMetrics(created []CreatedLead, history []HistoryRow) map[string]float64 {
	createdAt := make(map[int64]time.Time, len(created))
	for _, lead := range created {
		createdAt[lead.ID] = lead.CreatedAt
	}

	historyByLead := make(map[int64][]HistoryRow)
	for _, row := range history {
		historyByLead[row.LeadID] = append(historyByLead[row.LeadID], row)
	}

	var toFirstContact, toFirstAppt, toSecondAppt, toClosing []float64
	inStatus := make(map[domain.Status][]float64)

	for _, lead := range created {
		rows := historyByLead[lead.ID]
		if len(rows) == 0 {
			continue
		}

		// First time each status was reached, insertion order breaking ties.
		firstReached := make(map[domain.Status]time.Time)
		for _, row := range rows {
			if _, seen := firstReached[row.ToStatus]; !seen {
				firstReached[row.ToStatus] = row.ChangedAt
			}
		}

		if at, ok := firstReached[domain.StatusContactEstablished]; ok {
			if hours, ok := hoursBetween(createdAt[lead.ID], at); ok {
				toFirstContact = append(toFirstContact, hours)
			}
		}
		if at, ok := firstReached[domain.StatusFirstApptScheduled]; ok {
			if hours, ok := hoursBetween(createdAt[lead.ID], at); ok {
				toFirstAppt = append(toFirstAppt, hours)
			}
		}
		if completed, ok := firstReached[domain.StatusFirstApptCompleted]; ok {
			if scheduled, ok := firstReached[domain.StatusSecondApptScheduled]; ok {
				if hours, ok := hoursBetween(completed, scheduled); ok {
					toSecondAppt = append(toSecondAppt, hours)
				}
			}
		}
		if completed, ok := firstReached[domain.StatusSecondApptCompleted]; ok {
			if won, ok := firstReached[domain.StatusClosedWon]; ok {
				if hours, ok := hoursBetween(completed, won); ok {
					toClosing = append(toClosing, hours)
				}
			}
		}

		for i := 0; i < len(rows)-1; i++ {
			if hours, ok := hoursBetween(rows[i].ChangedAt, rows[i+1].ChangedAt); ok {
				inStatus[rows[i].ToStatus] = append(inStatus[rows[i].ToStatus], hours)
			}
		}
	}

	metrics := map[string]float64{
		"avgTimeToFirstContactHours": average(toFirstContact),
		"avgTimeToFirstApptHours":    average(toFirstAppt),
		"avgTimeToSecondApptHours":   average(toSecondAppt),
		"avgTimeToClosingHours":      average(toClosing),
	}
	for status, values := range inStatus {
		metrics["avg_time_in_status_"+string(status)+"Hours"] = average(values)
	}
	return metrics
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
