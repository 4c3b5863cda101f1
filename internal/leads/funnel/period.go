package funnel

import (
	"fmt"
	"time"
)

// Period presets supported by the KPI endpoints.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// PeriodStart resolves a period preset to its start moment: midnight today,
// midnight on the current week's Monday, or midnight on the 1st of the
// current month.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case PeriodToday:
		return midnight, nil
	case PeriodWeek:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -daysSinceMonday), nil
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("unknown period: %s", period)
	}
}
