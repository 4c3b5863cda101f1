package scheduler

import (
	"context"
	"fmt"

	authrepo "sales_portal_backend/internal/auth/repository"
	appevents "sales_portal_backend/internal/events"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsrepo "sales_portal_backend/internal/leads/repository"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	leads  *leadsrepo.Repository
	users  *authrepo.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		leads:  leadsrepo.New(pool),
		users:  authrepo.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskCallbackReminder, w.handleCallbackReminder)

	return w, nil
}

// handleCallbackReminder fires when a scheduled callback moment arrives. The
// reminder is dropped when the lead moved on in the meantime.
func (w *Worker) handleCallbackReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCallbackReminderPayload(task)
	if err != nil {
		return err
	}

	lead, err := w.leads.GetByID(ctx, payload.LeadID)
	if err == leadsrepo.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if string(lead.CurrentStatus) != payload.Status {
		return nil
	}

	owner, err := w.users.GetByID(ctx, lead.OwnerUserID)
	if err == authrepo.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if !owner.IsActive || owner.Email == "" {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, appevents.CallbackReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		LeadName:     lead.FullName,
		Status:       leadsdomain.Status(payload.Status),
		ScheduledFor: payload.ScheduledFor,
		OwnerEmail:   owner.Email,
		OwnerName:    owner.FullName(),
	})
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
