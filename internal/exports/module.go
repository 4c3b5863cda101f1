// Package exports provides the admin export bounded context module.
package exports

import (
	"sales_portal_backend/internal/exports/handler"
	"sales_portal_backend/internal/exports/service"
	apphttp "sales_portal_backend/internal/http"
)

// Module is the export bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the exporters against the lead list, the user directory
// and the KPI calculator.
func NewModule(leads service.Leads, users service.Users, kpis service.KPIs) *Module {
	return &Module{handler: handler.New(service.New(leads, users, kpis))}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts the export downloads on the admin-only group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin.Group("/export"))
}

var _ apphttp.Module = (*Module)(nil)
