package service

import (
	"context"
	"testing"
	"time"

	activityrepo "sales_portal_backend/internal/activity/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"
)

type fakeActivity struct {
	counts map[int64]activityrepo.ActivityCounts
}

func (f *fakeActivity) CountsForUser(_ context.Context, userID int64, _ time.Time) (activityrepo.ActivityCounts, error) {
	return f.counts[userID], nil
}

type fakeUsers struct {
	users map[int64]authdomain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (authdomain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeUsers) ListByTeam(_ context.Context, teamID int64) ([]authdomain.User, error) {
	var out []authdomain.User
	for _, user := range f.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			out = append(out, user)
		}
	}
	return out, nil
}

type memVisibility struct {
	overrides map[string]map[string]bool
}

func (m *memVisibility) Overrides(_ context.Context, role string) (map[string]bool, error) {
	return m.overrides[role], nil
}

func (m *memVisibility) SetOverride(_ context.Context, role, key string, visible bool) error {
	if m.overrides == nil {
		m.overrides = make(map[string]map[string]bool)
	}
	if m.overrides[role] == nil {
		m.overrides[role] = make(map[string]bool)
	}
	m.overrides[role][key] = visible
	return nil
}

func newTestService(t *testing.T, activity *fakeActivity, users *fakeUsers) (*Service, *memVisibility) {
	t.Helper()
	visibility := &memVisibility{}
	svc, err := New(activity, users, visibility, logger.New("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, visibility
}

func TestUserKPIRates(t *testing.T) {
	activity := &fakeActivity{counts: map[int64]activityrepo.ActivityCounts{
		1: {CallsMade: 40, CallsAnswered: 10, FirstAppointmentsSet: 5, SecondAppointmentsSet: 2, Closings: 2, UnitsTotal: 7},
	}}
	svc, _ := newTestService(t, activity, &fakeUsers{})

	kpis, err := svc.UserKPIs(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("UserKPIs: %v", err)
	}
	if kpis.PickupRate != 0.25 {
		t.Fatalf("pickupRate: want 0.25, got %v", kpis.PickupRate)
	}
	if kpis.FirstApptRate != 0.5 {
		t.Fatalf("firstApptRate: want 0.5, got %v", kpis.FirstApptRate)
	}
	if kpis.SecondApptRate != 0.4 {
		t.Fatalf("secondApptRate: want 0.4, got %v", kpis.SecondApptRate)
	}
	if kpis.AvgUnitsPerClosing != 3.5 {
		t.Fatalf("avgUnitsPerClosing: want 3.5, got %v", kpis.AvgUnitsPerClosing)
	}
}

func TestUserKPIZeroDenominators(t *testing.T) {
	svc, _ := newTestService(t, &fakeActivity{counts: map[int64]activityrepo.ActivityCounts{}}, &fakeUsers{})

	kpis, err := svc.UserKPIs(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("UserKPIs: %v", err)
	}
	if kpis.PickupRate != 0 || kpis.FirstApptRate != 0 || kpis.SecondApptRate != 0 || kpis.AvgUnitsPerClosing != 0 {
		t.Fatalf("rates must be 0 with no activity: %+v", kpis)
	}
}

func TestTeamKPITotalsRecomputeRates(t *testing.T) {
	team := int64(7)
	users := &fakeUsers{users: map[int64]authdomain.User{
		1: {ID: 1, FirstName: "Anna", LastName: "Aalst", TeamID: &team},
		2: {ID: 2, FirstName: "Ben", LastName: "Bakker", TeamID: &team},
		3: {ID: 3, FirstName: "Cees", LastName: "Claas"},
	}}
	activity := &fakeActivity{counts: map[int64]activityrepo.ActivityCounts{
		1: {CallsMade: 10, CallsAnswered: 5, Closings: 1, UnitsTotal: 2},
		2: {CallsMade: 30, CallsAnswered: 5, Closings: 1, UnitsTotal: 4},
	}}
	svc, _ := newTestService(t, activity, users)

	kpis, err := svc.TeamKPIs(context.Background(), team, time.Time{})
	if err != nil {
		t.Fatalf("TeamKPIs: %v", err)
	}
	if len(kpis.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(kpis.Members))
	}
	if kpis.Totals.CallsMade != 40 || kpis.Totals.CallsAnswered != 10 {
		t.Fatalf("totals not summed: %+v", kpis.Totals)
	}
	// 10/40, not the mean of 0.5 and 0.1667.
	if kpis.Totals.PickupRate != 0.25 {
		t.Fatalf("total pickupRate: want 0.25, got %v", kpis.Totals.PickupRate)
	}
	if kpis.Totals.UnitsTotal != 6 || kpis.Totals.AvgUnitsPerClosing != 3 {
		t.Fatalf("unit totals wrong: %+v", kpis.Totals)
	}
}

func TestVisibilityDefaultsAndOverrides(t *testing.T) {
	svc, _ := newTestService(t, &fakeActivity{}, &fakeUsers{})

	visible, err := svc.Visibility(context.Background(), "starter")
	if err != nil {
		t.Fatalf("Visibility: %v", err)
	}
	if !visible["callsMade"] {
		t.Fatalf("callsMade should default to visible for starter")
	}
	if visible["avgUnitsPerClosing"] {
		t.Fatalf("avgUnitsPerClosing should default to hidden for starter")
	}

	if err := svc.SetVisibility(context.Background(), "starter", "avgUnitsPerClosing", true); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}
	visible, err = svc.Visibility(context.Background(), "starter")
	if err != nil {
		t.Fatalf("Visibility: %v", err)
	}
	if !visible["avgUnitsPerClosing"] {
		t.Fatalf("override should win over the default")
	}
}

func TestSetVisibilityRejectsUnknownInput(t *testing.T) {
	svc, _ := newTestService(t, &fakeActivity{}, &fakeUsers{})

	if err := svc.SetVisibility(context.Background(), "intern", "callsMade", true); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("unknown role must be rejected, got %v", err)
	}
	if err := svc.SetVisibility(context.Background(), "starter", "nope", true); apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("unknown kpi key must be rejected, got %v", err)
	}
}
