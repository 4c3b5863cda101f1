package domain

import "time"

// Lead is a sales prospect tracked through the funnel. The current_status
// column is a cache: the status history ledger is the source of truth.
type Lead struct {
	ID              int64
	OwnerUserID     int64
	TeamID          *int64
	FullName        string
	Phone           *string
	Email           *string
	Tags            []string
	Note            *string
	CurrentStatus   Status
	StatusUpdatedAt time.Time
	LastActivityAt  time.Time
	CreatedAt       time.Time
}

// StatusHistoryEntry is one row in the append-only transition ledger.
// ChangedAt may lie in the future when the entry records a scheduled
// milestone rather than a processed one.
type StatusHistoryEntry struct {
	ID              int64
	LeadID          int64
	ChangedByUserID *int64
	FromStatus      Status
	ToStatus        Status
	ChangedAt       time.Time
	Reason          *string
	Meta            map[string]any
}

// CalendarEntry is a scheduling-type history entry surfaced for the
// calendar view (the scheduled moment comes from meta.scheduled_for).
type CalendarEntry struct {
	LeadID       int64
	LeadName     string
	OwnerUserID  int64
	Status       Status
	ScheduledFor time.Time
	Location     *string
	Reason       *string
}

// Transition reason codes written by the activity recording paths and
// consumed by the funnel drop-off calculations.
const (
	ReasonCreated             = "created"
	ReasonCallAnswered        = "call_answered"
	ReasonCallbackScheduled   = "callback_scheduled"
	ReasonCallDeclined        = "call_declined"
	ReasonWrongNumber         = "wrong_number"
	ReasonFirstApptDeclined   = "first_appt_declined"
	ReasonSecondApptDeclined  = "second_appt_declined"
	ReasonNoShowFirst         = "no_show_first"
	ReasonNoShowSecond        = "no_show_second"
	ReasonRescheduledFirst    = "rescheduled_first"
	ReasonRescheduledSecond   = "rescheduled_second"
	ReasonFirstApptScheduled  = "first_appt_scheduled"
	ReasonFirstApptCompleted  = "first_appt_completed"
	ReasonSecondApptScheduled = "second_appt_scheduled"
	ReasonSecondApptCompleted = "second_appt_completed"
	ReasonClosingDocumented   = "closing_documented"
)

// SchedulingStatuses are the statuses whose history entries can carry a
// meta.scheduled_for payload and therefore appear on the calendar.
var SchedulingStatuses = []Status{
	StatusCallScheduled,
	StatusFirstApptScheduled,
	StatusSecondApptScheduled,
}
