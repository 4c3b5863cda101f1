package service

import (
	"context"
	"testing"
	"time"

	"sales_portal_backend/internal/activity/domain"
	"sales_portal_backend/internal/activity/repository"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsservice "sales_portal_backend/internal/leads/service"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"
)

type memStore struct {
	nextID       int64
	calls        []domain.CallEvent
	appointments []domain.AppointmentEvent
	closings     []domain.ClosingEvent
}

func (s *memStore) CreateCall(_ context.Context, params repository.CreateCallParams) (domain.CallEvent, error) {
	s.nextID++
	event := domain.CallEvent{
		ID:         s.nextID,
		UserID:     params.UserID,
		LeadID:     params.LeadID,
		OccurredAt: params.OccurredAt,
		ContactRef: params.ContactRef,
		Outcome:    params.Outcome,
		Notes:      params.Notes,
	}
	s.calls = append(s.calls, event)
	return event, nil
}

func (s *memStore) CreateAppointment(_ context.Context, params repository.CreateAppointmentParams) (domain.AppointmentEvent, error) {
	s.nextID++
	event := domain.AppointmentEvent{
		ID:         s.nextID,
		UserID:     params.UserID,
		LeadID:     params.LeadID,
		Type:       params.Type,
		OccurredAt: params.OccurredAt,
		Result:     params.Result,
		Notes:      params.Notes,
		Location:   params.Location,
	}
	s.appointments = append(s.appointments, event)
	return event, nil
}

func (s *memStore) CreateClosing(_ context.Context, params repository.CreateClosingParams) (domain.ClosingEvent, error) {
	s.nextID++
	event := domain.ClosingEvent{
		ID:         s.nextID,
		UserID:     params.UserID,
		LeadID:     params.LeadID,
		OccurredAt: params.OccurredAt,
		Units:      params.Units,
	}
	s.closings = append(s.closings, event)
	return event, nil
}

func (s *memStore) Recent(_ context.Context, _ int64, limit int) ([]domain.RecentEvent, error) {
	out := make([]domain.RecentEvent, 0, limit)
	for i := 0; i < limit && i < len(s.calls); i++ {
		out = append(out, domain.RecentEvent{ID: s.calls[i].ID, Kind: "call"})
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, kind string, id int64) error {
	if kind != "call" {
		return repository.ErrNotFound
	}
	for i, event := range s.calls {
		if event.ID == id {
			s.calls = append(s.calls[:i], s.calls[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeLeads struct {
	leads         map[int64]leadsdomain.Lead
	transitions   []leadsservice.TransitionInput
	transitionErr error
}

func (f *fakeLeads) Get(_ context.Context, id int64) (leadsdomain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return leadsdomain.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeads) ApplyStatusTransition(_ context.Context, input leadsservice.TransitionInput) (leadsdomain.StatusHistoryEntry, error) {
	if f.transitionErr != nil {
		return leadsdomain.StatusHistoryEntry{}, f.transitionErr
	}
	f.transitions = append(f.transitions, input)
	return leadsdomain.StatusHistoryEntry{LeadID: input.LeadID, ToStatus: input.ToStatus}, nil
}

type recordingAuditor struct {
	actions []string
}

func (a *recordingAuditor) Record(_ context.Context, action string, _ int64, objectType string, _ int64, _ map[string]any) {
	a.actions = append(a.actions, action+":"+objectType)
}

func newTestService() (*Service, *memStore, *fakeLeads, *recordingAuditor) {
	store := &memStore{}
	leads := &fakeLeads{leads: map[int64]leadsdomain.Lead{
		1: {ID: 1, OwnerUserID: 10, CurrentStatus: leadsdomain.StatusNewCold},
	}}
	audit := &recordingAuditor{}
	svc := New(store, leads, audit, logger.New("test"))
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) }
	return svc, store, leads, audit
}

func leadRef(id int64) *int64 { return &id }

func TestAnsweredCallEstablishesContact(t *testing.T) {
	svc, store, leads, audit := newTestService()

	_, err := svc.RecordCall(context.Background(), RecordCallInput{
		UserID:  10,
		LeadID:  leadRef(1),
		Outcome: domain.CallAnswered,
	})
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	if len(store.calls) != 1 {
		t.Fatalf("expected 1 call event, got %d", len(store.calls))
	}
	if len(leads.transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(leads.transitions))
	}
	tr := leads.transitions[0]
	if tr.ToStatus != leadsdomain.StatusContactEstablished {
		t.Fatalf("expected contact_established, got %s", tr.ToStatus)
	}
	if tr.Reason == nil || *tr.Reason != leadsdomain.ReasonCallAnswered {
		t.Fatalf("unexpected reason %v", tr.Reason)
	}
	if len(audit.actions) != 1 || audit.actions[0] != "create:CallEvent" {
		t.Fatalf("unexpected audit trail %v", audit.actions)
	}
}

func TestUnansweredCallSchedulesCallback(t *testing.T) {
	svc, _, leads, _ := newTestService()

	next := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	_, err := svc.RecordCall(context.Background(), RecordCallInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Outcome:    domain.CallNoAnswer,
		NextCallAt: &next,
	})
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	tr := leads.transitions[0]
	if tr.ToStatus != leadsdomain.StatusCallScheduled {
		t.Fatalf("expected call_scheduled, got %s", tr.ToStatus)
	}
	if tr.ChangedAt == nil || !tr.ChangedAt.Equal(next) {
		t.Fatalf("ledger entry should be dated at the callback moment, got %v", tr.ChangedAt)
	}
	if tr.Meta["scheduled_for"] != next.Format(time.RFC3339) {
		t.Fatalf("missing scheduled_for in meta: %v", tr.Meta)
	}
}

func TestUnansweredCallWithoutCallbackLeavesStatus(t *testing.T) {
	svc, _, leads, _ := newTestService()

	_, err := svc.RecordCall(context.Background(), RecordCallInput{
		UserID:  10,
		LeadID:  leadRef(1),
		Outcome: domain.CallVoicemail,
	})
	if err != nil {
		t.Fatalf("RecordCall: %v", err)
	}
	if len(leads.transitions) != 0 {
		t.Fatalf("expected no transition, got %d", len(leads.transitions))
	}
}

func TestPastCallbackRejected(t *testing.T) {
	svc, store, _, _ := newTestService()

	past := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.RecordCall(context.Background(), RecordCallInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Outcome:    domain.CallBusy,
		NextCallAt: &past,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("event must not be persisted on validation failure")
	}
}

func TestDeclinedCallClosesLost(t *testing.T) {
	svc, _, leads, _ := newTestService()

	for _, tc := range []struct {
		outcome domain.CallOutcome
		reason  string
	}{
		{domain.CallDeclined, leadsdomain.ReasonCallDeclined},
		{domain.CallWrongNumber, leadsdomain.ReasonWrongNumber},
	} {
		leads.transitions = nil
		_, err := svc.RecordCall(context.Background(), RecordCallInput{
			UserID:  10,
			LeadID:  leadRef(1),
			Outcome: tc.outcome,
		})
		if err != nil {
			t.Fatalf("RecordCall(%s): %v", tc.outcome, err)
		}
		tr := leads.transitions[0]
		if tr.ToStatus != leadsdomain.StatusClosedLost {
			t.Fatalf("%s: expected closed_lost, got %s", tc.outcome, tr.ToStatus)
		}
		if *tr.Reason != tc.reason {
			t.Fatalf("%s: expected reason %s, got %s", tc.outcome, tc.reason, *tr.Reason)
		}
	}
}

func TestRejectedTransitionLeavesNoEventRow(t *testing.T) {
	svc, store, leads, audit := newTestService()
	leads.transitionErr = apperr.Validation("invalid status transition")
	future := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

	_, err := svc.RecordCall(context.Background(), RecordCallInput{
		UserID:  10,
		LeadID:  leadRef(1),
		Outcome: domain.CallAnswered,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.RecordAppointment(context.Background(), RecordAppointmentInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Type:       domain.AppointmentFirst,
		Result:     domain.AppointmentSet,
		OccurredAt: &future,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.RecordClosing(context.Background(), RecordClosingInput{
		UserID: 10,
		LeadID: leadRef(1),
		Units:  1,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if len(store.calls)+len(store.appointments)+len(store.closings) != 0 {
		t.Fatalf("rejected transitions must not leave event rows: calls=%d appointments=%d closings=%d",
			len(store.calls), len(store.appointments), len(store.closings))
	}
	if len(audit.actions) != 0 {
		t.Fatalf("rejected recordings must not be audited: %v", audit.actions)
	}
}

func TestAppointmentSetRequiresFutureDatetime(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.RecordAppointment(context.Background(), RecordAppointmentInput{
		UserID: 10,
		LeadID: leadRef(1),
		Type:   domain.AppointmentFirst,
		Result: domain.AppointmentSet,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without datetime, got %v", err)
	}

	past := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = svc.RecordAppointment(context.Background(), RecordAppointmentInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Type:       domain.AppointmentFirst,
		Result:     domain.AppointmentSet,
		OccurredAt: &past,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for past datetime, got %v", err)
	}
}

func TestAppointmentSetStampsScheduleMeta(t *testing.T) {
	svc, _, leads, _ := newTestService()

	at := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	_, err := svc.RecordAppointment(context.Background(), RecordAppointmentInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Type:       domain.AppointmentSecond,
		Result:     domain.AppointmentSet,
		OccurredAt: &at,
	})
	if err != nil {
		t.Fatalf("RecordAppointment: %v", err)
	}
	tr := leads.transitions[0]
	if tr.ToStatus != leadsdomain.StatusSecondApptScheduled {
		t.Fatalf("expected second_appt_scheduled, got %s", tr.ToStatus)
	}
	if tr.ChangedAt == nil || !tr.ChangedAt.Equal(at) {
		t.Fatalf("ledger entry should carry the appointment moment, got %v", tr.ChangedAt)
	}
	if tr.Meta["scheduled_for"] != at.Format(time.RFC3339) {
		t.Fatalf("missing scheduled_for: %v", tr.Meta)
	}
	if tr.Meta["location"] != "Telefonisch" {
		t.Fatalf("expected default location, got %v", tr.Meta["location"])
	}
}

func TestAppointmentOutcomeTransitions(t *testing.T) {
	svc, _, leads, _ := newTestService()

	cases := []struct {
		apptType domain.AppointmentType
		result   domain.AppointmentResult
		status   leadsdomain.Status
		reason   string
	}{
		{domain.AppointmentFirst, domain.AppointmentCompleted, leadsdomain.StatusFirstApptCompleted, leadsdomain.ReasonFirstApptCompleted},
		{domain.AppointmentFirst, domain.AppointmentNoShow, leadsdomain.StatusFirstApptScheduled, leadsdomain.ReasonNoShowFirst},
		{domain.AppointmentFirst, domain.AppointmentCancelled, leadsdomain.StatusClosedLost, leadsdomain.ReasonFirstApptDeclined},
		{domain.AppointmentSecond, domain.AppointmentCompleted, leadsdomain.StatusSecondApptCompleted, leadsdomain.ReasonSecondApptCompleted},
		{domain.AppointmentSecond, domain.AppointmentNoShow, leadsdomain.StatusSecondApptScheduled, leadsdomain.ReasonNoShowSecond},
		{domain.AppointmentSecond, domain.AppointmentCancelled, leadsdomain.StatusClosedLost, leadsdomain.ReasonSecondApptDeclined},
	}
	for _, tc := range cases {
		leads.transitions = nil
		_, err := svc.RecordAppointment(context.Background(), RecordAppointmentInput{
			UserID: 10,
			LeadID: leadRef(1),
			Type:   tc.apptType,
			Result: tc.result,
		})
		if err != nil {
			t.Fatalf("RecordAppointment(%s/%s): %v", tc.apptType, tc.result, err)
		}
		tr := leads.transitions[0]
		if tr.ToStatus != tc.status {
			t.Fatalf("%s/%s: expected %s, got %s", tc.apptType, tc.result, tc.status, tr.ToStatus)
		}
		if *tr.Reason != tc.reason {
			t.Fatalf("%s/%s: expected reason %s, got %s", tc.apptType, tc.result, tc.reason, *tr.Reason)
		}
		if tr.ChangedAt != nil {
			t.Fatalf("%s/%s: only set appointments stamp the ledger time", tc.apptType, tc.result)
		}
	}
}

func TestClosingClosesWon(t *testing.T) {
	svc, store, leads, _ := newTestService()

	_, err := svc.RecordClosing(context.Background(), RecordClosingInput{
		UserID: 10,
		LeadID: leadRef(1),
		Units:  2.5,
	})
	if err != nil {
		t.Fatalf("RecordClosing: %v", err)
	}
	if store.closings[0].Units != 2.5 {
		t.Fatalf("units not persisted: %v", store.closings[0].Units)
	}
	tr := leads.transitions[0]
	if tr.ToStatus != leadsdomain.StatusClosedWon {
		t.Fatalf("expected closed_won, got %s", tr.ToStatus)
	}
	if *tr.Reason != leadsdomain.ReasonClosingDocumented {
		t.Fatalf("unexpected reason %s", *tr.Reason)
	}
}

func TestClosingRejectsPastDatetime(t *testing.T) {
	svc, _, _, _ := newTestService()

	past := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err := svc.RecordClosing(context.Background(), RecordClosingInput{
		UserID:     10,
		LeadID:     leadRef(1),
		Units:      1,
		OccurredAt: &past,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecentClampsLimit(t *testing.T) {
	svc, store, _, _ := newTestService()
	for i := 0; i < 60; i++ {
		if _, err := svc.RecordCall(context.Background(), RecordCallInput{UserID: 10, Outcome: domain.CallAnswered}); err != nil {
			t.Fatalf("RecordCall: %v", err)
		}
	}
	if len(store.calls) != 60 {
		t.Fatalf("expected 60 events, got %d", len(store.calls))
	}

	events, err := svc.Recent(context.Background(), 10, 500)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 50 {
		t.Fatalf("limit should clamp to 50, got %d", len(events))
	}

	events, err = svc.Recent(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("limit should clamp up to 1, got %d", len(events))
	}
}

func TestDeleteUnknownEvent(t *testing.T) {
	svc, _, _, audit := newTestService()

	err := svc.Delete(context.Background(), 99, "call", 12345)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(audit.actions) != 0 {
		t.Fatalf("failed delete must not be audited")
	}
}

func TestAccessibleLeadScoping(t *testing.T) {
	svc, _, leads, _ := newTestService()
	team := int64(7)
	other := int64(8)
	leads.leads[2] = leadsdomain.Lead{ID: 2, OwnerUserID: 20, TeamID: &team}

	if _, err := svc.AccessibleLead(context.Background(), 1, 10, "starter", nil); err != nil {
		t.Fatalf("owner must access own lead: %v", err)
	}
	if _, err := svc.AccessibleLead(context.Background(), 2, 10, "starter", &team); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("starter must not access foreign lead, got %v", err)
	}
	if _, err := svc.AccessibleLead(context.Background(), 2, 10, "teamleiter", &team); err != nil {
		t.Fatalf("teamleiter must access team lead: %v", err)
	}
	if _, err := svc.AccessibleLead(context.Background(), 2, 10, "teamleiter", &other); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("teamleiter must not cross teams, got %v", err)
	}
	if _, err := svc.AccessibleLead(context.Background(), 2, 10, "admin", nil); err != nil {
		t.Fatalf("admin must access any lead: %v", err)
	}
}
