// Package domain contains the activity event model: calls, appointments and
// closings recorded by sales reps.
package domain

import "time"

// CallOutcome classifies how a call ended.
type CallOutcome string

const (
	CallAnswered    CallOutcome = "answered"
	CallNoAnswer    CallOutcome = "no_answer"
	CallBusy        CallOutcome = "busy"
	CallVoicemail   CallOutcome = "voicemail"
	CallDeclined    CallOutcome = "declined"
	CallWrongNumber CallOutcome = "wrong_number"
)

func (o CallOutcome) IsValid() bool {
	switch o {
	case CallAnswered, CallNoAnswer, CallBusy, CallVoicemail, CallDeclined, CallWrongNumber:
		return true
	}
	return false
}

// AppointmentType distinguishes the first and second customer appointment.
type AppointmentType string

const (
	AppointmentFirst  AppointmentType = "first"
	AppointmentSecond AppointmentType = "second"
)

func (t AppointmentType) IsValid() bool {
	return t == AppointmentFirst || t == AppointmentSecond
}

// AppointmentResult classifies what happened to an appointment.
type AppointmentResult string

const (
	AppointmentSet       AppointmentResult = "set"
	AppointmentCompleted AppointmentResult = "completed"
	AppointmentNoShow    AppointmentResult = "no_show"
	AppointmentCancelled AppointmentResult = "cancelled"
)

func (r AppointmentResult) IsValid() bool {
	switch r {
	case AppointmentSet, AppointmentCompleted, AppointmentNoShow, AppointmentCancelled:
		return true
	}
	return false
}

type CallEvent struct {
	ID         int64
	UserID     int64
	LeadID     *int64
	OccurredAt time.Time
	ContactRef *string
	Outcome    CallOutcome
	Notes      *string
}

type AppointmentEvent struct {
	ID         int64
	UserID     int64
	LeadID     *int64
	Type       AppointmentType
	OccurredAt time.Time
	Result     AppointmentResult
	Notes      *string
	Location   *string
}

type ClosingEvent struct {
	ID              int64
	UserID          int64
	LeadID          *int64
	OccurredAt      time.Time
	Units           float64
	ProductCategory *string
	Notes           *string
}

// RecentEvent is a mixed feed item across the three event kinds.
type RecentEvent struct {
	ID         int64
	Kind       string
	OccurredAt time.Time
	Title      string
	Meta       *string
	Notes      *string
}
