// Package service computes per-rep and per-team performance KPIs and resolves
// KPI visibility per role.
package service

import (
	"context"
	_ "embed"
	"time"

	activityrepo "sales_portal_backend/internal/activity/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/internal/kpis/domain"
	"sales_portal_backend/internal/leads/funnel"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"

	"gopkg.in/yaml.v3"
)

//go:embed kpi_defaults.yaml
var defaultsYAML []byte

// Activity is the slice of the activity repository the calculator reads.
type Activity interface {
	CountsForUser(ctx context.Context, userID int64, since time.Time) (activityrepo.ActivityCounts, error)
}

// Users resolves team membership and display names.
type Users interface {
	GetByID(ctx context.Context, id int64) (authdomain.User, error)
	ListByTeam(ctx context.Context, teamID int64) ([]authdomain.User, error)
}

// VisibilityStore holds the per-role overrides on top of the embedded
// defaults.
type VisibilityStore interface {
	Overrides(ctx context.Context, role string) (map[string]bool, error)
	SetOverride(ctx context.Context, role, key string, visible bool) error
}

type Service struct {
	activity   Activity
	users      Users
	visibility VisibilityStore
	defaults   map[string]map[string]bool
	log        *logger.Logger
	now        func() time.Time
}

func New(activity Activity, users Users, visibility VisibilityStore, log *logger.Logger) (*Service, error) {
	defaults := make(map[string]map[string]bool)
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, err
	}
	return &Service{
		activity:   activity,
		users:      users,
		visibility: visibility,
		defaults:   defaults,
		log:        log,
		now:        time.Now,
	}, nil
}

// PeriodStart resolves a period preset against the current clock.
func (s *Service) PeriodStart(period string) (time.Time, error) {
	start, err := funnel.PeriodStart(period, s.now())
	if err != nil {
		return time.Time{}, apperr.Validation(err.Error())
	}
	return start, nil
}

// UserKPIs computes one rep's scorecard since the period start.
func (s *Service) UserKPIs(ctx context.Context, userID int64, since time.Time) (domain.UserKPIs, error) {
	counts, err := s.activity.CountsForUser(ctx, userID, since)
	if err != nil {
		return domain.UserKPIs{}, err
	}
	return kpisFromCounts(counts), nil
}

// TeamKPIs computes every member's scorecard plus the team totals. Rates in
// the totals come from the summed counts so small members do not skew them.
func (s *Service) TeamKPIs(ctx context.Context, teamID int64, since time.Time) (domain.TeamKPIs, error) {
	members, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return domain.TeamKPIs{}, err
	}

	result := domain.TeamKPIs{TeamID: teamID, Members: make([]domain.MemberKPIs, 0, len(members))}
	var total activityrepo.ActivityCounts
	for _, member := range members {
		counts, err := s.activity.CountsForUser(ctx, member.ID, since)
		if err != nil {
			return domain.TeamKPIs{}, err
		}
		result.Members = append(result.Members, domain.MemberKPIs{
			UserID: member.ID,
			Name:   member.FullName(),
			KPIs:   kpisFromCounts(counts),
		})
		total.CallsMade += counts.CallsMade
		total.CallsAnswered += counts.CallsAnswered
		total.FirstAppointmentsSet += counts.FirstAppointmentsSet
		total.SecondAppointmentsSet += counts.SecondAppointmentsSet
		total.Closings += counts.Closings
		total.UnitsTotal += counts.UnitsTotal
	}
	result.Totals = kpisFromCounts(total)
	return result, nil
}

// TeamMember resolves a user for the handler's team scoping checks.
func (s *Service) TeamMember(ctx context.Context, userID int64) (authdomain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Visibility merges the embedded defaults for a role with its DB overrides.
func (s *Service) Visibility(ctx context.Context, role string) (map[string]bool, error) {
	merged := make(map[string]bool)
	for key, visible := range s.defaults[role] {
		merged[key] = visible
	}
	overrides, err := s.visibility.Overrides(ctx, role)
	if err != nil {
		return nil, err
	}
	for key, visible := range overrides {
		merged[key] = visible
	}
	return merged, nil
}

// SetVisibility stores an override for a known role and KPI key.
func (s *Service) SetVisibility(ctx context.Context, role, key string, visible bool) error {
	if !authdomain.Role(role).IsValid() {
		return apperr.Validation("unknown role: " + role)
	}
	if _, ok := s.defaults[role][key]; !ok {
		return apperr.Validation("unknown kpi key: " + key)
	}
	return s.visibility.SetOverride(ctx, role, key, visible)
}

func kpisFromCounts(counts activityrepo.ActivityCounts) domain.UserKPIs {
	return domain.UserKPIs{
		CallsMade:             counts.CallsMade,
		CallsAnswered:         counts.CallsAnswered,
		PickupRate:            safeRate(counts.CallsAnswered, counts.CallsMade),
		FirstAppointmentsSet:  counts.FirstAppointmentsSet,
		FirstApptRate:         safeRate(counts.FirstAppointmentsSet, counts.CallsAnswered),
		SecondAppointmentsSet: counts.SecondAppointmentsSet,
		SecondApptRate:        safeRate(counts.SecondAppointmentsSet, counts.FirstAppointmentsSet),
		Closings:              counts.Closings,
		UnitsTotal:            counts.UnitsTotal,
		AvgUnitsPerClosing:    safeUnits(counts.UnitsTotal, counts.Closings),
	}
}

func safeRate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

func safeUnits(units float64, closings int) float64 {
	if closings == 0 {
		return 0
	}
	return units / float64(closings)
}
