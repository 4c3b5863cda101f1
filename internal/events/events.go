// Package events defines the domain events exchanged between modules over
// the in-process bus.
package events

import (
	"time"

	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/platform/events"
)

// LeadCreated is published when a new lead enters the funnel.
type LeadCreated struct {
	events.BaseEvent
	LeadID      int64
	OwnerUserID int64
	TeamID      *int64
}

func (LeadCreated) EventName() string { return "lead.created" }

// LeadStatusChanged is published after every applied status transition,
// including self-transitions.
type LeadStatusChanged struct {
	events.BaseEvent
	LeadID          int64
	ChangedByUserID *int64
	FromStatus      domain.Status
	ToStatus        domain.Status
	Reason          *string
	ChangedAt       time.Time
}

func (LeadStatusChanged) EventName() string { return "lead.status_changed" }

// CallbackScheduled is published when a transition carries a future
// scheduled_for moment; the scheduler module turns it into a reminder task.
type CallbackScheduled struct {
	events.BaseEvent
	LeadID       int64
	OwnerUserID  int64
	Status       domain.Status
	ScheduledFor time.Time
}

func (CallbackScheduled) EventName() string { return "lead.callback_scheduled" }

// CallbackReminderDue is published by the worker when a scheduled callback
// or appointment moment arrives and the lead still sits in the scheduled
// status.
type CallbackReminderDue struct {
	events.BaseEvent
	LeadID       int64
	LeadName     string
	Status       domain.Status
	ScheduledFor time.Time
	OwnerEmail   string
	OwnerName    string
}

func (CallbackReminderDue) EventName() string { return "lead.callback_reminder_due" }

// UserApproved is published when an admin approves a pending account.
type UserApproved struct {
	events.BaseEvent
	UserID    int64
	Email     string
	FirstName string
}

func (UserApproved) EventName() string { return "user.approved" }
