package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales_portal_backend/internal/activity"
	"sales_portal_backend/internal/admin"
	"sales_portal_backend/internal/auth"
	"sales_portal_backend/internal/email"
	appevents "sales_portal_backend/internal/events"
	"sales_portal_backend/internal/exports"
	apphttp "sales_portal_backend/internal/http"
	"sales_portal_backend/internal/http/router"
	"sales_portal_backend/internal/kpis"
	"sales_portal_backend/internal/leads"
	"sales_portal_backend/internal/scheduler"
	"sales_portal_backend/migrations"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/db"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
	"sales_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	email.RegisterListeners(eventBus, cfg, log)

	val := validator.New()

	authModule := auth.NewModule(pool, cfg, eventBus, log, val)
	adminModule := admin.NewModule(pool, authModule.Repository(), authModule.Service(), val, log)

	leadsModule, err := leads.NewModule(pool, eventBus, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	activityModule := activity.NewModule(pool, leadsModule.Service(), adminModule.AuditLog(), val, log)

	kpisModule, err := kpis.NewModule(pool, activityModule.Repository(), authModule.Repository(), leadsModule.FunnelEngine(), val, log)
	if err != nil {
		log.Error("failed to initialize kpis module", "error", err)
		panic("failed to initialize kpis module: " + err.Error())
	}

	exportsModule := exports.NewModule(leadsModule.Repository(), authModule.Repository(), kpisModule.Service())

	registerReminderScheduling(eventBus, reminderScheduler, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
			activityModule,
			kpisModule,
			adminModule,
			exportsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// registerReminderScheduling turns callback-scheduled events into delayed
// asynq tasks. With no scheduler configured the events are simply dropped.
func registerReminderScheduling(bus events.Bus, reminders scheduler.ReminderScheduler, log *logger.Logger) {
	if reminders == nil {
		return
	}

	bus.Subscribe(appevents.CallbackScheduled{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		scheduled, ok := event.(appevents.CallbackScheduled)
		if !ok {
			return fmt.Errorf("unexpected event type %T", event)
		}
		err := reminders.ScheduleCallbackReminder(ctx, scheduler.CallbackReminderPayload{
			LeadID:       scheduled.LeadID,
			OwnerUserID:  scheduled.OwnerUserID,
			Status:       string(scheduled.Status),
			ScheduledFor: scheduled.ScheduledFor,
		}, scheduled.ScheduledFor)
		if err != nil {
			log.Error("failed to schedule callback reminder", "error", err, "lead_id", scheduled.LeadID)
		}
		return err
	}))
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; callback reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
