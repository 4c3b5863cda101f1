// Package activity provides the activity recording bounded context module.
package activity

import (
	"sales_portal_backend/internal/activity/handler"
	"sales_portal_backend/internal/activity/repository"
	"sales_portal_backend/internal/activity/service"
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the activity bounded context implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule wires the activity repository and service. The leads dependency
// drives funnel transitions; the auditor records mutations.
func NewModule(pool *pgxpool.Pool, leads service.Leads, audit service.Auditor, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, audit, log)
	return &Module{
		handler:    handler.New(svc, val),
		service:    svc,
		repository: repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "activity"
}

// Repository returns the event repository for the kpis module.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// RegisterRoutes mounts the event routes; all of them require auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/events"))
}

var _ apphttp.Module = (*Module)(nil)
