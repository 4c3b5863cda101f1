// Package service records activity events and drives the corresponding lead
// status transitions.
package service

import (
	"context"
	"time"

	"sales_portal_backend/internal/activity/domain"
	"sales_portal_backend/internal/activity/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsservice "sales_portal_backend/internal/leads/service"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"
)

// Leads is the slice of the lead service the recorder needs.
type Leads interface {
	Get(ctx context.Context, id int64) (leadsdomain.Lead, error)
	ApplyStatusTransition(ctx context.Context, input leadsservice.TransitionInput) (leadsdomain.StatusHistoryEntry, error)
}

// Auditor records admin-relevant mutations in the audit log.
type Auditor interface {
	Record(ctx context.Context, action string, actorUserID int64, objectType string, objectID int64, diff map[string]any)
}

// Store is the persistence surface the recorder depends on, implemented by
// the activity repository.
type Store interface {
	CreateCall(ctx context.Context, params repository.CreateCallParams) (domain.CallEvent, error)
	CreateAppointment(ctx context.Context, params repository.CreateAppointmentParams) (domain.AppointmentEvent, error)
	CreateClosing(ctx context.Context, params repository.CreateClosingParams) (domain.ClosingEvent, error)
	Recent(ctx context.Context, userID int64, limit int) ([]domain.RecentEvent, error)
	Delete(ctx context.Context, kind string, id int64) error
}

type Service struct {
	repo  Store
	leads Leads
	audit Auditor
	log   *logger.Logger
	now   func() time.Time
}

func New(repo Store, leads Leads, audit Auditor, log *logger.Logger) *Service {
	return &Service{repo: repo, leads: leads, audit: audit, log: log, now: time.Now}
}

type RecordCallInput struct {
	UserID     int64
	LeadID     *int64
	OccurredAt *time.Time
	ContactRef *string
	Outcome    domain.CallOutcome
	Notes      *string
	NextCallAt *time.Time
}

// RecordCall persists a call event and, when it references a lead, applies
// the matching funnel transition: answered establishes contact, an
// unreachable outcome with a callback moment re-schedules the call (the
// ledger entry is dated at the callback moment itself), and declined or
// wrong-number closes the lead as lost.
func (s *Service) RecordCall(ctx context.Context, input RecordCallInput) (domain.CallEvent, error) {
	if input.NextCallAt != nil && input.NextCallAt.Before(s.now()) {
		return domain.CallEvent{}, apperr.Validation("callback time must not lie in the past")
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	// Transition first: a rejected transition must not leave an event row
	// behind for the KPI counters to pick up.
	if input.LeadID != nil {
		if err := s.applyCallTransition(ctx, input); err != nil {
			return domain.CallEvent{}, err
		}
	}

	event, err := s.repo.CreateCall(ctx, repository.CreateCallParams{
		UserID:     input.UserID,
		LeadID:     input.LeadID,
		OccurredAt: occurredAt,
		ContactRef: input.ContactRef,
		Outcome:    input.Outcome,
		Notes:      input.Notes,
	})
	if err != nil {
		return domain.CallEvent{}, err
	}

	s.audit.Record(ctx, "create", input.UserID, "CallEvent", event.ID, nil)
	return event, nil
}

func (s *Service) applyCallTransition(ctx context.Context, input RecordCallInput) error {
	switch input.Outcome {
	case domain.CallAnswered:
		reason := leadsdomain.ReasonCallAnswered
		_, err := s.leads.ApplyStatusTransition(ctx, leadsservice.TransitionInput{
			LeadID:   *input.LeadID,
			ToStatus: leadsdomain.StatusContactEstablished,
			ActorID:  &input.UserID,
			Reason:   &reason,
		})
		return err
	case domain.CallNoAnswer, domain.CallBusy, domain.CallVoicemail:
		if input.NextCallAt == nil {
			return nil
		}
		reason := leadsdomain.ReasonCallbackScheduled
		_, err := s.leads.ApplyStatusTransition(ctx, leadsservice.TransitionInput{
			LeadID:    *input.LeadID,
			ToStatus:  leadsdomain.StatusCallScheduled,
			ActorID:   &input.UserID,
			Reason:    &reason,
			Meta:      map[string]any{"scheduled_for": input.NextCallAt.Format(time.RFC3339)},
			ChangedAt: input.NextCallAt,
		})
		return err
	case domain.CallDeclined, domain.CallWrongNumber:
		reason := leadsdomain.ReasonCallDeclined
		if input.Outcome == domain.CallWrongNumber {
			reason = leadsdomain.ReasonWrongNumber
		}
		_, err := s.leads.ApplyStatusTransition(ctx, leadsservice.TransitionInput{
			LeadID:   *input.LeadID,
			ToStatus: leadsdomain.StatusClosedLost,
			ActorID:  &input.UserID,
			Reason:   &reason,
		})
		return err
	}
	return nil
}

type RecordAppointmentInput struct {
	UserID     int64
	LeadID     *int64
	Type       domain.AppointmentType
	Result     domain.AppointmentResult
	OccurredAt *time.Time
	Notes      *string
	Location   *string
}

// appointmentTransitions maps (type, result) to the funnel transition it
// drives. "set" entries additionally stamp the ledger with the appointment
// moment and meta.
var appointmentTransitions = map[domain.AppointmentType]map[domain.AppointmentResult]struct {
	status leadsdomain.Status
	reason string
}{
	domain.AppointmentFirst: {
		domain.AppointmentSet:       {leadsdomain.StatusFirstApptScheduled, leadsdomain.ReasonFirstApptScheduled},
		domain.AppointmentCompleted: {leadsdomain.StatusFirstApptCompleted, leadsdomain.ReasonFirstApptCompleted},
		domain.AppointmentNoShow:    {leadsdomain.StatusFirstApptScheduled, leadsdomain.ReasonNoShowFirst},
		domain.AppointmentCancelled: {leadsdomain.StatusClosedLost, leadsdomain.ReasonFirstApptDeclined},
	},
	domain.AppointmentSecond: {
		domain.AppointmentSet:       {leadsdomain.StatusSecondApptScheduled, leadsdomain.ReasonSecondApptScheduled},
		domain.AppointmentCompleted: {leadsdomain.StatusSecondApptCompleted, leadsdomain.ReasonSecondApptCompleted},
		domain.AppointmentNoShow:    {leadsdomain.StatusSecondApptScheduled, leadsdomain.ReasonNoShowSecond},
		domain.AppointmentCancelled: {leadsdomain.StatusClosedLost, leadsdomain.ReasonSecondApptDeclined},
	},
}

// RecordAppointment persists an appointment event and applies the mapped
// funnel transition. Setting an appointment requires an explicit datetime
// in the future; the resulting ledger entry is dated at that moment.
func (s *Service) RecordAppointment(ctx context.Context, input RecordAppointmentInput) (domain.AppointmentEvent, error) {
	if input.Result == domain.AppointmentSet {
		if input.OccurredAt == nil {
			return domain.AppointmentEvent{}, apperr.Validation("a datetime is required when setting an appointment")
		}
		if input.OccurredAt.Before(s.now()) {
			return domain.AppointmentEvent{}, apperr.Validation("appointment datetime must not lie in the past")
		}
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}
	location := input.Location
	if location == nil {
		phone := "Telefonisch"
		location = &phone
	}

	// Transition first, so a rejected transition leaves no event row.
	if input.LeadID != nil {
		transition, ok := appointmentTransitions[input.Type][input.Result]
		if !ok {
			return domain.AppointmentEvent{}, apperr.Validation("unknown appointment type or result")
		}
		reason := transition.reason

		transitionInput := leadsservice.TransitionInput{
			LeadID:   *input.LeadID,
			ToStatus: transition.status,
			ActorID:  &input.UserID,
			Reason:   &reason,
		}
		if input.Result == domain.AppointmentSet {
			transitionInput.Meta = map[string]any{
				"scheduled_for": occurredAt.Format(time.RFC3339),
				"location":      *location,
			}
			transitionInput.ChangedAt = &occurredAt
		}

		if _, err := s.leads.ApplyStatusTransition(ctx, transitionInput); err != nil {
			return domain.AppointmentEvent{}, err
		}
	}

	event, err := s.repo.CreateAppointment(ctx, repository.CreateAppointmentParams{
		UserID:     input.UserID,
		LeadID:     input.LeadID,
		Type:       input.Type,
		OccurredAt: occurredAt,
		Result:     input.Result,
		Notes:      input.Notes,
		Location:   location,
	})
	if err != nil {
		return domain.AppointmentEvent{}, err
	}

	s.audit.Record(ctx, "create", input.UserID, "AppointmentEvent", event.ID, nil)
	return event, nil
}

type RecordClosingInput struct {
	UserID          int64
	LeadID          *int64
	OccurredAt      *time.Time
	Units           float64
	ProductCategory *string
	Notes           *string
}

// RecordClosing persists a closing event; a referenced lead is closed as won.
func (s *Service) RecordClosing(ctx context.Context, input RecordClosingInput) (domain.ClosingEvent, error) {
	if input.Units < 0 {
		return domain.ClosingEvent{}, apperr.Validation("units must be >= 0")
	}
	if input.OccurredAt != nil && input.OccurredAt.Before(s.now()) {
		return domain.ClosingEvent{}, apperr.Validation("closing datetime must not lie in the past")
	}

	occurredAt := s.now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}

	// Transition first, so a rejected transition leaves no event row.
	if input.LeadID != nil {
		reason := leadsdomain.ReasonClosingDocumented
		if _, err := s.leads.ApplyStatusTransition(ctx, leadsservice.TransitionInput{
			LeadID:   *input.LeadID,
			ToStatus: leadsdomain.StatusClosedWon,
			ActorID:  &input.UserID,
			Reason:   &reason,
		}); err != nil {
			return domain.ClosingEvent{}, err
		}
	}

	event, err := s.repo.CreateClosing(ctx, repository.CreateClosingParams{
		UserID:          input.UserID,
		LeadID:          input.LeadID,
		OccurredAt:      occurredAt,
		Units:           input.Units,
		ProductCategory: input.ProductCategory,
		Notes:           input.Notes,
	})
	if err != nil {
		return domain.ClosingEvent{}, err
	}

	s.audit.Record(ctx, "create", input.UserID, "ClosingEvent", event.ID, nil)
	return event, nil
}

// Recent returns the caller's mixed event feed, newest first. The limit is
// clamped to 1..50.
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]domain.RecentEvent, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}
	return s.repo.Recent(ctx, userID, limit)
}

// Delete removes an event (admin path) and records it in the audit log.
func (s *Service) Delete(ctx context.Context, actorUserID int64, kind string, id int64) error {
	err := s.repo.Delete(ctx, kind, id)
	if err == repository.ErrNotFound {
		return apperr.NotFound("event not found")
	}
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "delete", actorUserID, kind, id, nil)
	return nil
}

// AccessibleLead enforces the same scoping as the lead read paths: reps
// only record against their own leads, team leads against team leads.
func (s *Service) AccessibleLead(ctx context.Context, leadID int64, userID int64, role string, teamID *int64) (leadsdomain.Lead, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return leadsdomain.Lead{}, err
	}

	switch authdomain.Role(role) {
	case authdomain.RoleAdmin:
		return lead, nil
	case authdomain.RoleTeamleiter:
		if lead.OwnerUserID == userID {
			return lead, nil
		}
		if teamID != nil && lead.TeamID != nil && *teamID == *lead.TeamID {
			return lead, nil
		}
	default:
		if lead.OwnerUserID == userID {
			return lead, nil
		}
	}
	return leadsdomain.Lead{}, apperr.Forbidden("no access to this lead")
}
