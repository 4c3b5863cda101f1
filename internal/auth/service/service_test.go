package service

import (
	"context"
	"testing"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/internal/auth/repository"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
)

type memStore struct {
	nextID int64
	users  map[int64]*authdomain.User
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, users: make(map[int64]*authdomain.User)}
}

func (m *memStore) Create(_ context.Context, params repository.CreateUserParams) (authdomain.User, error) {
	for _, user := range m.users {
		if user.Email == params.Email {
			return authdomain.User{}, repository.ErrDuplicateEmail
		}
	}
	user := authdomain.User{
		ID:           m.nextID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         params.Role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[user.ID] = &user
	return user, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (authdomain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return *user, nil
		}
	}
	return authdomain.User{}, repository.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id int64) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, repository.ErrNotFound
	}
	return *user, nil
}

func (m *memStore) SetApproved(_ context.Context, id int64, approved bool) (authdomain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return authdomain.User{}, repository.ErrNotFound
	}
	user.IsApproved = approved
	return *user, nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "access-secret" }
func (testConfig) GetJWTRefreshSecret() string       { return "refresh-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 720 * time.Hour }

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event)           {}
func (nopBus) PublishSync(context.Context, events.Event) error { return nil }
func (nopBus) Subscribe(string, events.Handler)                {}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return New(store, testConfig{}, nopBus{}, logger.New("test")), store
}

func TestRegisterStartsUnapproved(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Register(context.Background(), RegisterInput{
		Email: "rep@example.com", Password: "secret-password", FirstName: "Dana", LastName: "Roth",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.IsApproved {
		t.Fatal("new accounts must start unapproved")
	}
	if user.Role != authdomain.RoleStarter {
		t.Fatalf("role = %s, want starter", user.Role)
	}
	if user.PasswordHash == "secret-password" {
		t.Fatal("password stored in plain text")
	}
}

func TestLoginRejectedUntilApproved(t *testing.T) {
	svc, store := newTestService()
	user, _ := svc.Register(context.Background(), RegisterInput{
		Email: "rep@example.com", Password: "secret-password", FirstName: "Dana", LastName: "Roth",
	})

	_, _, err := svc.Login(context.Background(), "rep@example.com", "secret-password")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("login before approval: err = %v, want forbidden", err)
	}

	if _, err := svc.Approve(context.Background(), user.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	loggedIn, tokens, err := svc.Login(context.Background(), "rep@example.com", "secret-password")
	if err != nil {
		t.Fatalf("login after approval: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("user ID = %d, want %d", loggedIn.ID, user.ID)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	_ = store
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	user, _ := svc.Register(context.Background(), RegisterInput{
		Email: "rep@example.com", Password: "secret-password", FirstName: "Dana", LastName: "Roth",
	})
	_, _ = svc.Approve(context.Background(), user.ID)

	_, _, err := svc.Login(context.Background(), "rep@example.com", "wrong")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestAccessTokenClaims(t *testing.T) {
	svc, _ := newTestService()
	user, _ := svc.Register(context.Background(), RegisterInput{
		Email: "rep@example.com", Password: "secret-password", FirstName: "Dana", LastName: "Roth",
	})
	_, _ = svc.Approve(context.Background(), user.ID)
	_, tokens, err := svc.Login(context.Background(), "rep@example.com", "secret-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	parsed, err := jwt.Parse(tokens.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("access-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse access token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != "1" {
		t.Fatalf("sub = %v, want \"1\"", claims["sub"])
	}
	if claims["role"] != "starter" {
		t.Fatalf("role = %v, want starter", claims["role"])
	}
	if claims["type"] != "access" {
		t.Fatalf("type = %v, want access", claims["type"])
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	user, _ := svc.Register(context.Background(), RegisterInput{
		Email: "rep@example.com", Password: "secret-password", FirstName: "Dana", LastName: "Roth",
	})
	_, _ = svc.Approve(context.Background(), user.ID)
	_, tokens, _ := svc.Login(context.Background(), "rep@example.com", "secret-password")

	fresh, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.AccessToken == "" {
		t.Fatal("expected a new access token")
	}

	// An access token must not be accepted as a refresh token.
	if _, err := svc.Refresh(context.Background(), tokens.AccessToken); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}
