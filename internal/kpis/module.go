// Package kpis provides the performance KPI bounded context module.
package kpis

import (
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/internal/kpis/handler"
	"sales_portal_backend/internal/kpis/repository"
	"sales_portal_backend/internal/kpis/service"
	"sales_portal_backend/internal/leads/funnel"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the KPI bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the KPI calculator against the activity counts, the user
// directory and the shared funnel engine.
func NewModule(pool *pgxpool.Pool, activity service.Activity, users service.Users, engine *funnel.Engine, val *validator.Validator, log *logger.Logger) (*Module, error) {
	svc, err := service.New(activity, users, repository.New(pool), log)
	if err != nil {
		return nil, err
	}
	return &Module{
		handler: handler.New(svc, engine, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "kpis"
}

// Service returns the KPI calculator for the exports module.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the KPI routes; visibility writes go to the admin
// group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/kpis"), ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
