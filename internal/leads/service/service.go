// Package service implements lead management: CRUD, the status transition
// executor and the calendar read path.
package service

import (
	"context"
	"errors"
	"time"

	appevents "sales_portal_backend/internal/events"
	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/internal/leads/repository"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/phone"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (domain.Lead, error)
	GetByID(ctx context.Context, id int64) (domain.Lead, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Lead, error)
	UpdateDetails(ctx context.Context, id int64, params repository.UpdateDetailsParams) (domain.Lead, error)
	Delete(ctx context.Context, id int64) error
	ApplyStatusTransition(ctx context.Context, params repository.TransitionParams) (domain.StatusHistoryEntry, error)
	ListHistory(ctx context.Context, leadID int64) ([]domain.StatusHistoryEntry, error)
	Calendar(ctx context.Context, params repository.CalendarParams) ([]domain.CalendarEntry, error)
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

type CreateLeadInput struct {
	OwnerUserID int64
	TeamID      *int64
	FullName    string
	Phone       *string
	Email       *string
	Tags        []string
	Note        *string
}

// Create bootstraps a lead at new_cold with its initial ledger entry.
func (s *Service) Create(ctx context.Context, input CreateLeadInput) (domain.Lead, error) {
	if input.Phone != nil && *input.Phone != "" {
		normalized, err := phone.NormalizeE164(*input.Phone)
		if err != nil {
			return domain.Lead{}, apperr.Validation("invalid phone number").WithOp("leads.Create")
		}
		input.Phone = &normalized
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		OwnerUserID: input.OwnerUserID,
		TeamID:      input.TeamID,
		FullName:    input.FullName,
		Phone:       input.Phone,
		Email:       input.Email,
		Tags:        input.Tags,
		Note:        input.Note,
	})
	if err != nil {
		return domain.Lead{}, err
	}

	s.bus.Publish(ctx, appevents.LeadCreated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		OwnerUserID: lead.OwnerUserID,
		TeamID:      lead.TeamID,
	})
	return lead, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]domain.Lead, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.store.List(ctx, params)
}

// UpdateDetails edits descriptive fields; the state machine is untouched.
func (s *Service) UpdateDetails(ctx context.Context, id int64, params repository.UpdateDetailsParams) (domain.Lead, error) {
	if params.Phone != nil && *params.Phone != "" {
		normalized, err := phone.NormalizeE164(*params.Phone)
		if err != nil {
			return domain.Lead{}, apperr.Validation("invalid phone number").WithOp("leads.UpdateDetails")
		}
		params.Phone = &normalized
	}

	lead, err := s.store.UpdateDetails(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

type TransitionInput struct {
	LeadID    int64
	ToStatus  domain.Status
	ActorID   *int64
	Reason    *string
	Meta      map[string]any
	ChangedAt *time.Time
}

// ApplyStatusTransition validates and records a funnel transition. The
// effective time is ChangedAt when supplied (it may lie in the future for
// scheduled milestones), otherwise the current time. Storage errors
// propagate unmodified; nothing is retried.
func (s *Service) ApplyStatusTransition(ctx context.Context, input TransitionInput) (domain.StatusHistoryEntry, error) {
	effective := s.now()
	if input.ChangedAt != nil {
		effective = *input.ChangedAt
	}

	entry, err := s.store.ApplyStatusTransition(ctx, repository.TransitionParams{
		LeadID:          input.LeadID,
		ToStatus:        input.ToStatus,
		ChangedByUserID: input.ActorID,
		Reason:          input.Reason,
		Meta:            input.Meta,
		ChangedAt:       effective,
	})
	if err != nil {
		var invalid *domain.InvalidTransitionError
		if errors.As(err, &invalid) {
			return domain.StatusHistoryEntry{}, apperr.Validation("invalid status transition").
				WithOp("leads.ApplyStatusTransition").
				WithDetails(map[string]string{
					"from": string(invalid.From),
					"to":   string(invalid.To),
				})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StatusHistoryEntry{}, apperr.NotFound("lead not found")
		}
		return domain.StatusHistoryEntry{}, err
	}

	reason := ""
	if entry.Reason != nil {
		reason = *entry.Reason
	}
	s.log.StatusTransition(entry.LeadID, string(entry.FromStatus), string(entry.ToStatus), reason)

	s.bus.Publish(ctx, appevents.LeadStatusChanged{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          entry.LeadID,
		ChangedByUserID: entry.ChangedByUserID,
		FromStatus:      entry.FromStatus,
		ToStatus:        entry.ToStatus,
		Reason:          entry.Reason,
		ChangedAt:       entry.ChangedAt,
	})
	s.publishCallbackScheduled(ctx, entry)

	return entry, nil
}

// publishCallbackScheduled emits a scheduling event when the entry carries
// a parseable future meta.scheduled_for.
func (s *Service) publishCallbackScheduled(ctx context.Context, entry domain.StatusHistoryEntry) {
	raw, ok := entry.Meta["scheduled_for"].(string)
	if !ok {
		return
	}
	scheduledFor, err := time.Parse(time.RFC3339, raw)
	if err != nil || !scheduledFor.After(s.now()) {
		return
	}

	lead, err := s.store.GetByID(ctx, entry.LeadID)
	if err != nil {
		return
	}

	s.bus.Publish(ctx, appevents.CallbackScheduled{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       entry.LeadID,
		OwnerUserID:  lead.OwnerUserID,
		Status:       entry.ToStatus,
		ScheduledFor: scheduledFor,
	})
}

func (s *Service) History(ctx context.Context, leadID int64) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, leadID)
}

func (s *Service) Calendar(ctx context.Context, params repository.CalendarParams) ([]domain.CalendarEntry, error) {
	return s.store.Calendar(ctx, params)
}
