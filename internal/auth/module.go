// Package auth provides the authentication bounded context module.
package auth

import (
	"sales_portal_backend/internal/auth/handler"
	"sales_portal_backend/internal/auth/repository"
	"sales_portal_backend/internal/auth/service"
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, eventBus, log)
	return &Module{
		handler:    handler.New(svc, val),
		service:    svc,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the user repository for the admin module.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts public auth routes (rate limited) and /auth/me.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/auth")
	public.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/auth"))
}

var _ apphttp.Module = (*Module)(nil)
