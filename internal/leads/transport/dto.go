// Package transport defines the request/response DTOs for the leads API.
package transport

import (
	"time"

	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/internal/leads/funnel"
)

type CreateLeadRequest struct {
	FullName string   `json:"fullName" validate:"required,min=2,max=200"`
	Phone    *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
	Note     *string  `json:"note,omitempty" validate:"omitempty,max=4000"`
}

type UpdateLeadRequest struct {
	FullName *string  `json:"fullName,omitempty" validate:"omitempty,min=2,max=200"`
	Phone    *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
	Note     *string  `json:"note,omitempty" validate:"omitempty,max=4000"`
}

type TransitionRequest struct {
	ToStatus  string         `json:"toStatus" validate:"required"`
	Reason    *string        `json:"reason,omitempty" validate:"omitempty,max=100"`
	Meta      map[string]any `json:"meta,omitempty"`
	ChangedAt *time.Time     `json:"changedAt,omitempty"`
}

type LeadResponse struct {
	ID              int64     `json:"id"`
	OwnerUserID     int64     `json:"ownerUserId"`
	TeamID          *int64    `json:"teamId,omitempty"`
	FullName        string    `json:"fullName"`
	Phone           *string   `json:"phone,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Tags            []string  `json:"tags"`
	Note            *string   `json:"note,omitempty"`
	CurrentStatus   string    `json:"currentStatus"`
	StatusUpdatedAt time.Time `json:"statusUpdatedAt"`
	LastActivityAt  time.Time `json:"lastActivityAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func ToLeadResponse(lead domain.Lead) LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:              lead.ID,
		OwnerUserID:     lead.OwnerUserID,
		TeamID:          lead.TeamID,
		FullName:        lead.FullName,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Tags:            tags,
		Note:            lead.Note,
		CurrentStatus:   string(lead.CurrentStatus),
		StatusUpdatedAt: lead.StatusUpdatedAt,
		LastActivityAt:  lead.LastActivityAt,
		CreatedAt:       lead.CreatedAt,
	}
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

type HistoryEntryResponse struct {
	ID              int64          `json:"id"`
	LeadID          int64          `json:"leadId"`
	ChangedByUserID *int64         `json:"changedByUserId,omitempty"`
	FromStatus      string         `json:"fromStatus"`
	ToStatus        string         `json:"toStatus"`
	ChangedAt       time.Time      `json:"changedAt"`
	Reason          *string        `json:"reason,omitempty"`
	Meta            map[string]any `json:"meta"`
}

func ToHistoryResponse(entry domain.StatusHistoryEntry) HistoryEntryResponse {
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	return HistoryEntryResponse{
		ID:              entry.ID,
		LeadID:          entry.LeadID,
		ChangedByUserID: entry.ChangedByUserID,
		FromStatus:      string(entry.FromStatus),
		ToStatus:        string(entry.ToStatus),
		ChangedAt:       entry.ChangedAt,
		Reason:          entry.Reason,
		Meta:            meta,
	}
}

func ToHistoryResponses(entries []domain.StatusHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ToHistoryResponse(entry))
	}
	return out
}

type CalendarEntryResponse struct {
	LeadID       int64     `json:"leadId"`
	LeadName     string    `json:"leadName"`
	OwnerUserID  int64     `json:"ownerUserId"`
	Status       string    `json:"status"`
	ScheduledFor time.Time `json:"scheduledFor"`
	Location     *string   `json:"location,omitempty"`
	Reason       *string   `json:"reason,omitempty"`
}

func ToCalendarResponses(entries []domain.CalendarEntry) []CalendarEntryResponse {
	out := make([]CalendarEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, CalendarEntryResponse{
			LeadID:       entry.LeadID,
			LeadName:     entry.LeadName,
			OwnerUserID:  entry.OwnerUserID,
			Status:       string(entry.Status),
			ScheduledFor: entry.ScheduledFor,
			Location:     entry.Location,
			Reason:       entry.Reason,
		})
	}
	return out
}

// FunnelResponse is the funnel KPI payload as served over HTTP.
type FunnelResponse = funnel.Result
