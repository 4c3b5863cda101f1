// Package transport defines the request/response DTOs for the activity API.
package transport

import (
	"time"

	"sales_portal_backend/internal/activity/domain"
)

type CallEventRequest struct {
	ContactRef *string    `json:"contactRef,omitempty" validate:"omitempty,max=255"`
	Outcome    string     `json:"outcome" validate:"required"`
	Notes      *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Datetime   *time.Time `json:"datetime,omitempty"`
	LeadID     *int64     `json:"leadId,omitempty"`
	NextCallAt *time.Time `json:"nextCallAt,omitempty"`
}

type AppointmentEventRequest struct {
	Type     string     `json:"type" validate:"required"`
	Result   string     `json:"result" validate:"required"`
	Notes    *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Location *string    `json:"location,omitempty" validate:"omitempty,max=255"`
	Datetime *time.Time `json:"datetime,omitempty"`
	LeadID   *int64     `json:"leadId,omitempty"`
}

type ClosingEventRequest struct {
	Units           float64    `json:"units" validate:"gte=0"`
	ProductCategory *string    `json:"productCategory,omitempty" validate:"omitempty,max=100"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Datetime        *time.Time `json:"datetime,omitempty"`
	LeadID          *int64     `json:"leadId,omitempty"`
}

type CallEventResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	Datetime   time.Time `json:"datetime"`
	ContactRef *string   `json:"contactRef,omitempty"`
	Outcome    string    `json:"outcome"`
	Notes      *string   `json:"notes,omitempty"`
	LeadID     *int64    `json:"leadId,omitempty"`
}

func ToCallResponse(event domain.CallEvent) CallEventResponse {
	return CallEventResponse{
		ID:         event.ID,
		UserID:     event.UserID,
		Datetime:   event.OccurredAt,
		ContactRef: event.ContactRef,
		Outcome:    string(event.Outcome),
		Notes:      event.Notes,
		LeadID:     event.LeadID,
	}
}

type AppointmentEventResponse struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	Type     string    `json:"type"`
	Datetime time.Time `json:"datetime"`
	Result   string    `json:"result"`
	Notes    *string   `json:"notes,omitempty"`
	Location *string   `json:"location,omitempty"`
	LeadID   *int64    `json:"leadId,omitempty"`
}

func ToAppointmentResponse(event domain.AppointmentEvent) AppointmentEventResponse {
	return AppointmentEventResponse{
		ID:       event.ID,
		UserID:   event.UserID,
		Type:     string(event.Type),
		Datetime: event.OccurredAt,
		Result:   string(event.Result),
		Notes:    event.Notes,
		Location: event.Location,
		LeadID:   event.LeadID,
	}
}

type ClosingEventResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Datetime        time.Time `json:"datetime"`
	Units           float64   `json:"units"`
	ProductCategory *string   `json:"productCategory,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	LeadID          *int64    `json:"leadId,omitempty"`
}

func ToClosingResponse(event domain.ClosingEvent) ClosingEventResponse {
	return ClosingEventResponse{
		ID:              event.ID,
		UserID:          event.UserID,
		Datetime:        event.OccurredAt,
		Units:           event.Units,
		ProductCategory: event.ProductCategory,
		Notes:           event.Notes,
		LeadID:          event.LeadID,
	}
}

type RecentEventResponse struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	Datetime time.Time `json:"datetime"`
	Title    string    `json:"title"`
	Meta     *string   `json:"meta,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

func ToRecentResponses(events []domain.RecentEvent) []RecentEventResponse {
	out := make([]RecentEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, RecentEventResponse{
			ID:       event.ID,
			Type:     event.Kind,
			Datetime: event.OccurredAt,
			Title:    event.Title,
			Meta:     event.Meta,
			Notes:    event.Notes,
		})
	}
	return out
}
