// Package service implements registration, login and token issuance.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/internal/auth/repository"
	appevents "sales_portal_backend/internal/events"
	"sales_portal_backend/platform/apperr"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Store is the user persistence the service depends on.
type Store interface {
	Create(ctx context.Context, params repository.CreateUserParams) (authdomain.User, error)
	GetByEmail(ctx context.Context, email string) (authdomain.User, error)
	GetByID(ctx context.Context, id int64) (authdomain.User, error)
	SetApproved(ctx context.Context, id int64, approved bool) (authdomain.User, error)
}

type Service struct {
	store Store
	cfg   config.AuthServiceConfig
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

func New(store Store, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, bus: bus, log: log, now: time.Now}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new starter account. Accounts begin unapproved and
// cannot log in until an admin approves them.
func (s *Service) Register(ctx context.Context, input RegisterInput) (authdomain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return authdomain.User{}, err
	}

	user, err := s.store.Create(ctx, repository.CreateUserParams{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         authdomain.RoleStarter,
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return authdomain.User{}, apperr.Conflict("email already registered")
	}
	if err != nil {
		return authdomain.User{}, err
	}

	s.log.AuthEvent("register", user.Email, true, "")
	return user, nil
}

// TokenPair is an access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Login verifies credentials and issues a token pair. Unapproved and
// deactivated accounts are rejected even with a correct password.
func (s *Service) Login(ctx context.Context, email, password string) (authdomain.User, TokenPair, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("login", email, false, "unknown email")
		return authdomain.User{}, TokenPair{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return authdomain.User{}, TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return authdomain.User{}, TokenPair{}, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		s.log.AuthEvent("login", email, false, "account deactivated")
		return authdomain.User{}, TokenPair{}, apperr.Forbidden("account deactivated")
	}
	if !user.IsApproved {
		s.log.AuthEvent("login", email, false, "account pending approval")
		return authdomain.User{}, TokenPair{}, apperr.Forbidden("account pending approval")
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return authdomain.User{}, TokenPair{}, err
	}

	s.log.AuthEvent("login", email, true, "")
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parseToken(refreshToken, s.cfg.GetJWTRefreshSecret(), "refresh")
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !user.IsActive || !user.IsApproved {
		return TokenPair{}, apperr.Forbidden("account unavailable")
	}

	return s.issueTokens(user)
}

// Me returns the account behind an authenticated user ID.
func (s *Service) Me(ctx context.Context, userID int64) (authdomain.User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	return user, err
}

// Approve marks an account approved and announces it on the bus so the
// notification path can send the welcome email.
func (s *Service) Approve(ctx context.Context, userID int64) (authdomain.User, error) {
	user, err := s.store.SetApproved(ctx, userID, true)
	if errors.Is(err, repository.ErrNotFound) {
		return authdomain.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return authdomain.User{}, err
	}

	s.bus.Publish(ctx, appevents.UserApproved{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
	})
	return user, nil
}

func (s *Service) issueTokens(user authdomain.User) (TokenPair, error) {
	now := s.now()

	access, err := s.signToken(user, "access", s.cfg.GetJWTAccessSecret(), now, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signToken(user, "refresh", s.cfg.GetJWTRefreshSecret(), now, s.cfg.GetRefreshTokenTTL())
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.GetAccessTokenTTL().Seconds()),
	}, nil
}

func (s *Service) signToken(user authdomain.User, tokenType, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if user.TeamID != nil {
		claims["team_id"] = *user.TeamID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) parseToken(rawToken, secret, wantType string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token")
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return nil, errors.New("invalid token type")
	}
	return claims, nil
}
