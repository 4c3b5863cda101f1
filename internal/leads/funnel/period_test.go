package funnel

import (
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	// A Thursday.
	now := time.Date(2026, 8, 20, 15, 30, 45, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{PeriodToday, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := PeriodStart(tt.period, now)
		if err != nil {
			t.Fatalf("PeriodStart(%s): %v", tt.period, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("PeriodStart(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestPeriodStartOnSunday(t *testing.T) {
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	got, err := PeriodStart(PeriodWeek, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("week start = %v, want Monday %v", got, want)
	}
}

func TestPeriodStartUnknown(t *testing.T) {
	if _, err := PeriodStart("quarter", time.Now()); err == nil {
		t.Fatal("expected error for unknown period")
	}
}
