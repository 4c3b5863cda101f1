package funnel

import (
	"context"
	"math"
	"testing"
	"time"

	"sales_portal_backend/internal/leads/domain"
)

type fakeStore struct {
	created      []CreatedLead
	statusCounts map[domain.Status]int
	reasonCounts map[string]int
	history      []HistoryRow
}

func (f *fakeStore) CreatedLeads(_ context.Context, _ Scope, _ Window) ([]CreatedLead, error) {
	return f.created, nil
}

func (f *fakeStore) StatusCounts(_ context.Context, _ []int64, _ Window) (map[domain.Status]int, error) {
	return f.statusCounts, nil
}

func (f *fakeStore) ReasonCounts(_ context.Context, _ []int64, _ Window) (map[string]int, error) {
	return f.reasonCounts, nil
}

func (f *fakeStore) History(_ context.Context, _ []int64, _ Window) ([]HistoryRow, error) {
	return f.history, nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateEmptyScope(t *testing.T) {
	engine := NewEngine(&fakeStore{})
	result, err := engine.Calculate(context.Background(), Scope{}, Window{Start: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LeadsCreated != 0 {
		t.Fatalf("leadsCreated = %d, want 0", result.LeadsCreated)
	}
	if result.StatusCounts == nil || len(result.StatusCounts) != 0 {
		t.Fatalf("statusCounts = %v, want empty map", result.StatusCounts)
	}
	if result.Conversions == nil || len(result.Conversions) != 0 {
		t.Fatalf("conversions = %v, want empty map", result.Conversions)
	}
}

func TestCalculateConversions(t *testing.T) {
	base := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		created: []CreatedLead{{ID: 1, CreatedAt: base}, {ID: 2, CreatedAt: base}, {ID: 3, CreatedAt: base}, {ID: 4, CreatedAt: base}},
		statusCounts: map[domain.Status]int{
			domain.StatusNewCold:            4,
			domain.StatusContactEstablished: 2,
			domain.StatusFirstApptScheduled: 1,
		},
		reasonCounts: map[string]int{
			domain.ReasonWrongNumber:  1,
			domain.ReasonCallDeclined: 1,
		},
	}
	engine := NewEngine(store)

	result, err := engine.Calculate(context.Background(), Scope{}, Window{Start: base})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.LeadsCreated != 4 {
		t.Fatalf("leadsCreated = %d, want 4", result.LeadsCreated)
	}
	if got := result.Conversions["contactRate"]; !almostEqual(got, 0.5) {
		t.Fatalf("contactRate = %v, want 0.5", got)
	}
	if got := result.Conversions["firstApptRate"]; !almostEqual(got, 0.5) {
		t.Fatalf("firstApptRate = %v, want 0.5", got)
	}
	// Nothing reached the later stages: zero denominators yield 0, never NaN.
	if got := result.Conversions["closingRate"]; got != 0 {
		t.Fatalf("closingRate = %v, want 0", got)
	}
	if got := result.DropOffs["callDeclineRate"]; !almostEqual(got, 0.5) {
		t.Fatalf("callDeclineRate = %v, want 0.5", got)
	}
}

func TestCalculateFullFunnel(t *testing.T) {
	created := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	hour := time.Hour
	store := &fakeStore{
		created: []CreatedLead{{ID: 7, CreatedAt: created}},
		statusCounts: map[domain.Status]int{
			domain.StatusNewCold:             1,
			domain.StatusContactEstablished:  1,
			domain.StatusFirstApptScheduled:  1,
			domain.StatusFirstApptCompleted:  1,
			domain.StatusSecondApptScheduled: 1,
			domain.StatusSecondApptCompleted: 1,
			domain.StatusClosedWon:           1,
		},
		reasonCounts: map[string]int{},
		history: []HistoryRow{
			{LeadID: 7, ToStatus: domain.StatusNewCold, ChangedAt: created},
			{LeadID: 7, ToStatus: domain.StatusContactEstablished, ChangedAt: created.Add(2 * hour)},
			{LeadID: 7, ToStatus: domain.StatusFirstApptScheduled, ChangedAt: created.Add(4 * hour)},
			{LeadID: 7, ToStatus: domain.StatusFirstApptCompleted, ChangedAt: created.Add(6 * hour)},
			{LeadID: 7, ToStatus: domain.StatusSecondApptScheduled, ChangedAt: created.Add(7 * hour)},
			{LeadID: 7, ToStatus: domain.StatusSecondApptCompleted, ChangedAt: created.Add(9 * hour)},
			{LeadID: 7, ToStatus: domain.StatusClosedWon, ChangedAt: created.Add(10 * hour)},
		},
	}
	engine := NewEngine(store)

	result, err := engine.Calculate(context.Background(), Scope{}, Window{Start: created})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.StatusCounts["closed_won"]; got != 1 {
		t.Fatalf("statusCounts[closed_won] = %d, want 1", got)
	}
	if got := result.Conversions["closingRate"]; !almostEqual(got, 1.0) {
		t.Fatalf("closingRate = %v, want 1.0", got)
	}
	if got := result.TimeMetrics["avgTimeToFirstContactHours"]; !almostEqual(got, 2) {
		t.Fatalf("avgTimeToFirstContactHours = %v, want 2", got)
	}
	if got := result.TimeMetrics["avgTimeToSecondApptHours"]; !almostEqual(got, 1) {
		t.Fatalf("avgTimeToSecondApptHours = %v, want 1", got)
	}
	if got := result.TimeMetrics["avgTimeToClosingHours"]; !almostEqual(got, 1) {
		t.Fatalf("avgTimeToClosingHours = %v, want 1", got)
	}
	if got := result.TimeMetrics["avg_time_in_status_contact_establishedHours"]; !almostEqual(got, 2) {
		t.Fatalf("avg_time_in_status_contact_establishedHours = %v, want 2", got)
	}
}

func TestNegativeDurationsExcluded(t *testing.T) {
	created := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	store := &fakeStore{
		created: []CreatedLead{{ID: 1, CreatedAt: created}},
		statusCounts: map[domain.Status]int{
			domain.StatusNewCold:       1,
			domain.StatusCallScheduled: 1,
		},
		reasonCounts: map[string]int{},
		history: []HistoryRow{
			{LeadID: 1, ToStatus: domain.StatusNewCold, ChangedAt: created},
			// Future-dated scheduling entry followed by an earlier real entry.
			{LeadID: 1, ToStatus: domain.StatusCallScheduled, ChangedAt: created.Add(48 * time.Hour)},
			{LeadID: 1, ToStatus: domain.StatusContactEstablished, ChangedAt: created.Add(1 * time.Hour)},
		},
	}
	engine := NewEngine(store)

	result, err := engine.Calculate(context.Background(), Scope{}, Window{Start: created})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The negative pair (call_scheduled -> contact_established) must be
	// dropped, not averaged in as a negative duration.
	if _, ok := result.TimeMetrics["avg_time_in_status_call_scheduledHours"]; ok {
		t.Fatal("expected negative interval to be excluded from averages")
	}
	if got := result.TimeMetrics["avg_time_in_status_new_coldHours"]; !almostEqual(got, 48) {
		t.Fatalf("avg_time_in_status_new_coldHours = %v, want 48", got)
	}
}
