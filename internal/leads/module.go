// Package leads provides the lead funnel bounded context module.
package leads

import (
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/internal/leads/funnel"
	"sales_portal_backend/internal/leads/handler"
	"sales_portal_backend/internal/leads/repository"
	"sales_portal_backend/internal/leads/service"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	engine     *funnel.Engine
	repository *repository.Repository
}

// NewModule wires the leads repository, service and funnel engine. The
// Redis-backed KPI cache is enabled only when a Redis URL is configured.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.KPICacheConfig, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	opts := []funnel.Option{}
	if cfg.GetRedisURL() != "" {
		redisOpts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return nil, err
		}
		opts = append(opts, funnel.WithCache(funnel.NewCache(redis.NewClient(redisOpts), cfg.GetKPICacheTTL())))
	}
	engine := funnel.NewEngine(repo, opts...)

	h := handler.New(svc, engine, val)

	return &Module{handler: h, service: svc, engine: engine, repository: repo}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for other modules (activity recording).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lead repository for the export and worker paths,
// which need unclamped access.
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// FunnelEngine returns the funnel KPI engine for the kpis module.
func (m *Module) FunnelEngine() *funnel.Engine {
	return m.engine
}

// RegisterRoutes mounts the leads routes; all of them require auth.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

var _ apphttp.Module = (*Module)(nil)
