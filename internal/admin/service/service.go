// Package service implements the admin operations: user approval and
// lifecycle, team management, and the audit trail read path.
package service

import (
	"context"

	"sales_portal_backend/internal/admin/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	authrepo "sales_portal_backend/internal/auth/repository"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"
)

// Users is the slice of the auth repository the admin operations mutate.
type Users interface {
	GetByID(ctx context.Context, id int64) (authdomain.User, error)
	List(ctx context.Context) ([]authdomain.User, error)
	ListPending(ctx context.Context) ([]authdomain.User, error)
	SetActive(ctx context.Context, id int64, active bool) (authdomain.User, error)
	SetRole(ctx context.Context, id int64, role authdomain.Role) (authdomain.User, error)
	SetTeam(ctx context.Context, id int64, teamID *int64) (authdomain.User, error)
}

// Approver is the auth service's approval path, which also publishes the
// user.approved event for the notification mail.
type Approver interface {
	Approve(ctx context.Context, userID int64) (authdomain.User, error)
}

// TeamStore is implemented by the teams repository.
type TeamStore interface {
	Create(ctx context.Context, name string) (repository.Team, error)
	GetByID(ctx context.Context, id int64) (repository.Team, error)
	List(ctx context.Context) ([]repository.Team, error)
	Delete(ctx context.Context, id int64) error
}

// AuditTrail is implemented by the audit log repository.
type AuditTrail interface {
	Record(ctx context.Context, action string, actorUserID int64, objectType string, objectID int64, diff map[string]any)
	List(ctx context.Context, params repository.AuditListParams) ([]repository.AuditEntry, error)
}

type Service struct {
	users    Users
	approver Approver
	teams    TeamStore
	audit    AuditTrail
	log      *logger.Logger
}

func New(users Users, approver Approver, teams TeamStore, audit AuditTrail, log *logger.Logger) *Service {
	return &Service{users: users, approver: approver, teams: teams, audit: audit, log: log}
}

func (s *Service) ListUsers(ctx context.Context) ([]authdomain.User, error) {
	return s.users.List(ctx)
}

func (s *Service) ListPendingUsers(ctx context.Context) ([]authdomain.User, error) {
	return s.users.ListPending(ctx)
}

func (s *Service) ApproveUser(ctx context.Context, actorID, userID int64) (authdomain.User, error) {
	user, err := s.approver.Approve(ctx, userID)
	if err != nil {
		return authdomain.User{}, err
	}
	s.audit.Record(ctx, "approve", actorID, "User", userID, nil)
	return user, nil
}

func (s *Service) SetUserActive(ctx context.Context, actorID, userID int64, active bool) (authdomain.User, error) {
	user, err := s.users.SetActive(ctx, userID, active)
	if err == authrepo.ErrNotFound {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return authdomain.User{}, err
	}
	action := "deactivate"
	if active {
		action = "activate"
	}
	s.audit.Record(ctx, action, actorID, "User", userID, nil)
	return user, nil
}

func (s *Service) SetUserRole(ctx context.Context, actorID, userID int64, role string) (authdomain.User, error) {
	parsed := authdomain.Role(role)
	if !parsed.IsValid() {
		return authdomain.User{}, apperr.Validation("unknown role: " + role)
	}
	before, err := s.users.GetByID(ctx, userID)
	if err == authrepo.ErrNotFound {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return authdomain.User{}, err
	}

	user, err := s.users.SetRole(ctx, userID, parsed)
	if err != nil {
		return authdomain.User{}, err
	}
	s.audit.Record(ctx, "set_role", actorID, "User", userID, map[string]any{
		"from": string(before.Role),
		"to":   role,
	})
	return user, nil
}

// AssignTeam moves a user into a team, or out of every team when teamID is
// nil.
func (s *Service) AssignTeam(ctx context.Context, actorID, userID int64, teamID *int64) (authdomain.User, error) {
	if teamID != nil {
		if _, err := s.teams.GetByID(ctx, *teamID); err == repository.ErrNotFound {
			return authdomain.User{}, apperr.NotFound("team not found")
		} else if err != nil {
			return authdomain.User{}, err
		}
	}

	user, err := s.users.SetTeam(ctx, userID, teamID)
	if err == authrepo.ErrNotFound {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return authdomain.User{}, err
	}

	diff := map[string]any{"teamId": nil}
	if teamID != nil {
		diff["teamId"] = *teamID
	}
	s.audit.Record(ctx, "assign_team", actorID, "User", userID, diff)
	return user, nil
}

func (s *Service) CreateTeam(ctx context.Context, actorID int64, name string) (repository.Team, error) {
	team, err := s.teams.Create(ctx, name)
	if err == repository.ErrDuplicateName {
		return repository.Team{}, apperr.Conflict("a team with this name already exists")
	}
	if err != nil {
		return repository.Team{}, err
	}
	s.audit.Record(ctx, "create", actorID, "Team", team.ID, map[string]any{"name": name})
	return team, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]repository.Team, error) {
	return s.teams.List(ctx)
}

func (s *Service) DeleteTeam(ctx context.Context, actorID, teamID int64) error {
	err := s.teams.Delete(ctx, teamID)
	if err == repository.ErrNotFound {
		return apperr.NotFound("team not found")
	}
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "delete", actorID, "Team", teamID, nil)
	return nil
}

func (s *Service) AuditLog(ctx context.Context, params repository.AuditListParams) ([]repository.AuditEntry, error) {
	if params.Limit < 1 {
		params.Limit = 50
	}
	if params.Limit > 200 {
		params.Limit = 200
	}
	return s.audit.List(ctx, params)
}
