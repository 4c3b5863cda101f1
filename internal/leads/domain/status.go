// Package domain contains the lead funnel model: statuses, the transition
// rule table and the history ledger types.
package domain

import "fmt"

// Status is a lead's position in the sales funnel.
type Status string

const (
	StatusNewCold             Status = "new_cold"
	StatusCallScheduled       Status = "call_scheduled"
	StatusContactEstablished  Status = "contact_established"
	StatusFirstApptPending    Status = "first_appt_pending"
	StatusFirstApptScheduled  Status = "first_appt_scheduled"
	StatusFirstApptCompleted  Status = "first_appt_completed"
	StatusSecondApptScheduled Status = "second_appt_scheduled"
	StatusSecondApptCompleted Status = "second_appt_completed"
	StatusClosedWon           Status = "closed_won"
	StatusClosedLost          Status = "closed_lost"
)

// AllStatuses lists every funnel status in pipeline order.
var AllStatuses = []Status{
	StatusNewCold,
	StatusCallScheduled,
	StatusContactEstablished,
	StatusFirstApptPending,
	StatusFirstApptScheduled,
	StatusFirstApptCompleted,
	StatusSecondApptScheduled,
	StatusSecondApptCompleted,
	StatusClosedWon,
	StatusClosedLost,
}

// allowedTransitions is the static adjacency table of the funnel.
// Closed statuses are terminal: nothing leads out of them, so a closed
// lead cannot be reopened through a status transition.
var allowedTransitions = map[Status][]Status{
	StatusNewCold:             {StatusCallScheduled, StatusContactEstablished, StatusClosedLost},
	StatusCallScheduled:       {StatusCallScheduled, StatusContactEstablished, StatusClosedLost},
	StatusContactEstablished:  {StatusFirstApptPending, StatusFirstApptScheduled, StatusCallScheduled, StatusClosedLost},
	StatusFirstApptPending:    {StatusFirstApptScheduled, StatusCallScheduled, StatusClosedLost},
	StatusFirstApptScheduled:  {StatusFirstApptScheduled, StatusFirstApptCompleted, StatusClosedLost},
	StatusFirstApptCompleted:  {StatusSecondApptScheduled, StatusCallScheduled, StatusClosedLost},
	StatusSecondApptScheduled: {StatusSecondApptScheduled, StatusSecondApptCompleted, StatusClosedLost},
	StatusSecondApptCompleted: {StatusClosedWon, StatusClosedLost},
	StatusClosedWon:           {StatusClosedWon},
	StatusClosedLost:          {StatusClosedLost},
}

// IsValid reports whether s is a known funnel status.
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether s is a closed (terminal) status.
func (s Status) IsTerminal() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// IsTransitionAllowed reports whether a lead may move from current to target.
// A status may always re-enter itself (used to re-schedule without changing
// macro-state). Unknown statuses are never reachable.
func IsTransitionAllowed(current, target Status) bool {
	if !current.IsValid() || !target.IsValid() {
		return false
	}
	if current == target {
		return true
	}
	for _, next := range allowedTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// InvalidTransitionError reports an attempt to move a lead along an edge
// the rule table does not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition from %s to %s is not allowed", e.From, e.To)
}
