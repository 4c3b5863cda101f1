// Package admin provides the administration bounded context module.
package admin

import (
	"sales_portal_backend/internal/admin/handler"
	"sales_portal_backend/internal/admin/repository"
	"sales_portal_backend/internal/admin/service"
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the admin bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	audit   *repository.AuditLog
}

// NewModule wires the team and audit repositories against the auth module's
// user store and approval path.
func NewModule(pool *pgxpool.Pool, users service.Users, approver service.Approver, val *validator.Validator, log *logger.Logger) *Module {
	audit := repository.NewAuditLog(pool, log)
	svc := service.New(users, approver, repository.NewTeams(pool), audit, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		audit:   audit,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// AuditLog returns the audit writer shared with the other modules.
func (m *Module) AuditLog() *repository.AuditLog {
	return m.audit
}

// RegisterRoutes mounts the admin routes on the admin-only group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
