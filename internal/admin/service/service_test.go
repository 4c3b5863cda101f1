package service

import (
	"context"
	"testing"
	"time"

	"sales_portal_backend/internal/admin/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	authrepo "sales_portal_backend/internal/auth/repository"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/logger"
)

type memUsers struct {
	users map[int64]*authdomain.User
}

func (m *memUsers) GetByID(_ context.Context, id int64) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, authrepo.ErrNotFound
	}
	return *user, nil
}

func (m *memUsers) List(_ context.Context) ([]authdomain.User, error) {
	out := make([]authdomain.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, nil
}

func (m *memUsers) ListPending(_ context.Context) ([]authdomain.User, error) {
	var out []authdomain.User
	for _, user := range m.users {
		if !user.IsApproved {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (m *memUsers) SetActive(_ context.Context, id int64, active bool) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, authrepo.ErrNotFound
	}
	user.IsActive = active
	return *user, nil
}

func (m *memUsers) SetRole(_ context.Context, id int64, role authdomain.Role) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, authrepo.ErrNotFound
	}
	user.Role = role
	return *user, nil
}

func (m *memUsers) SetTeam(_ context.Context, id int64, teamID *int64) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, authrepo.ErrNotFound
	}
	user.TeamID = teamID
	return *user, nil
}

type fakeApprover struct {
	users *memUsers
}

func (f *fakeApprover) Approve(_ context.Context, userID int64) (authdomain.User, error) {
	user, ok := f.users.users[userID]
	if !ok {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	user.IsApproved = true
	return *user, nil
}

type memTeams struct {
	nextID int64
	teams  map[int64]repository.Team
}

func (m *memTeams) Create(_ context.Context, name string) (repository.Team, error) {
	for _, team := range m.teams {
		if team.Name == name {
			return repository.Team{}, repository.ErrDuplicateName
		}
	}
	m.nextID++
	team := repository.Team{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.teams[team.ID] = team
	return team, nil
}

func (m *memTeams) GetByID(_ context.Context, id int64) (repository.Team, error) {
	team, ok := m.teams[id]
	if !ok {
		return repository.Team{}, repository.ErrNotFound
	}
	return team, nil
}

func (m *memTeams) List(_ context.Context) ([]repository.Team, error) {
	out := make([]repository.Team, 0, len(m.teams))
	for _, team := range m.teams {
		out = append(out, team)
	}
	return out, nil
}

func (m *memTeams) Delete(_ context.Context, id int64) error {
	if _, ok := m.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.teams, id)
	return nil
}

type memAudit struct {
	entries []repository.AuditEntry
}

func (m *memAudit) Record(_ context.Context, action string, actorUserID int64, objectType string, objectID int64, diff map[string]any) {
	m.entries = append(m.entries, repository.AuditEntry{
		Action:      action,
		ActorUserID: actorUserID,
		ObjectType:  objectType,
		ObjectID:    objectID,
		Diff:        diff,
	})
}

func (m *memAudit) List(_ context.Context, params repository.AuditListParams) ([]repository.AuditEntry, error) {
	if params.Limit < len(m.entries) {
		return m.entries[:params.Limit], nil
	}
	return m.entries, nil
}

func newTestService() (*Service, *memUsers, *memTeams, *memAudit) {
	users := &memUsers{users: map[int64]*authdomain.User{
		1: {ID: 1, Email: "admin@example.com", Role: authdomain.RoleAdmin, IsApproved: true, IsActive: true},
		2: {ID: 2, Email: "rep@example.com", Role: authdomain.RoleStarter, IsActive: true},
	}}
	teams := &memTeams{teams: make(map[int64]repository.Team)}
	audit := &memAudit{}
	svc := New(users, &fakeApprover{users: users}, teams, audit, logger.New("test"))
	return svc, users, teams, audit
}

func TestApproveUserAudited(t *testing.T) {
	svc, users, _, audit := newTestService()

	user, err := svc.ApproveUser(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ApproveUser: %v", err)
	}
	if !user.IsApproved || !users.users[2].IsApproved {
		t.Fatalf("user not approved")
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != "approve" {
		t.Fatalf("unexpected audit trail %+v", audit.entries)
	}
}

func TestSetUserRoleRecordsDiff(t *testing.T) {
	svc, _, _, audit := newTestService()

	user, err := svc.SetUserRole(context.Background(), 1, 2, "teamleiter")
	if err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if user.Role != authdomain.RoleTeamleiter {
		t.Fatalf("role not updated: %s", user.Role)
	}
	diff := audit.entries[0].Diff
	if diff["from"] != "starter" || diff["to"] != "teamleiter" {
		t.Fatalf("unexpected diff %v", diff)
	}
}

func TestSetUserRoleRejectsUnknown(t *testing.T) {
	svc, _, _, audit := newTestService()

	_, err := svc.SetUserRole(context.Background(), 1, 2, "superuser")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("rejected change must not be audited")
	}
}

func TestAssignTeamRequiresExistingTeam(t *testing.T) {
	svc, users, _, _ := newTestService()

	missing := int64(99)
	_, err := svc.AssignTeam(context.Background(), 1, 2, &missing)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	team, err := svc.CreateTeam(context.Background(), 1, "Hamburg")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	user, err := svc.AssignTeam(context.Background(), 1, 2, &team.ID)
	if err != nil {
		t.Fatalf("AssignTeam: %v", err)
	}
	if user.TeamID == nil || *user.TeamID != team.ID {
		t.Fatalf("team not assigned")
	}

	user, err = svc.AssignTeam(context.Background(), 1, 2, nil)
	if err != nil {
		t.Fatalf("AssignTeam(nil): %v", err)
	}
	if user.TeamID != nil {
		t.Fatalf("user should be removed from the team")
	}
	if users.users[2].TeamID != nil {
		t.Fatalf("store not updated")
	}
}

func TestCreateTeamDuplicateName(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.CreateTeam(context.Background(), 1, "Hamburg"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	_, err := svc.CreateTeam(context.Background(), 1, "Hamburg")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeactivateUser(t *testing.T) {
	svc, users, _, audit := newTestService()

	user, err := svc.SetUserActive(context.Background(), 1, 2, false)
	if err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if user.IsActive || users.users[2].IsActive {
		t.Fatalf("user still active")
	}
	if audit.entries[0].Action != "deactivate" {
		t.Fatalf("unexpected audit action %s", audit.entries[0].Action)
	}
}

func TestAuditLogClampsLimit(t *testing.T) {
	svc, _, _, audit := newTestService()
	for i := 0; i < 300; i++ {
		audit.Record(context.Background(), "create", 1, "Lead", int64(i), nil)
	}

	entries, err := svc.AuditLog(context.Background(), repository.AuditListParams{Limit: 1000})
	if err != nil {
		t.Fatalf("AuditLog: %v", err)
	}
	if len(entries) != 200 {
		t.Fatalf("limit should clamp to 200, got %d", len(entries))
	}
}
