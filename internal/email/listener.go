package email

import (
	"context"
	"fmt"

	appevents "sales_portal_backend/internal/events"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
)

// Listener subscribes the mail sender to the domain events that trigger a
// notification.
type Listener struct {
	sender Sender
	log    *logger.Logger
}

// RegisterListeners wires the mail notifications onto the bus. With email
// disabled in config nothing is subscribed.
func RegisterListeners(bus events.Bus, cfg config.EmailConfig, log *logger.Logger) {
	if !cfg.GetEmailEnabled() {
		log.Info("email notifications disabled")
		return
	}

	l := &Listener{sender: NewSMTPSender(cfg), log: log}
	bus.Subscribe(appevents.UserApproved{}.EventName(), events.HandlerFunc(l.onUserApproved))
	bus.Subscribe(appevents.CallbackReminderDue{}.EventName(), events.HandlerFunc(l.onCallbackReminderDue))
}

func (l *Listener) onUserApproved(ctx context.Context, event events.Event) error {
	approved, ok := event.(appevents.UserApproved)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if err := l.sender.SendAccountApprovedEmail(ctx, approved.Email, approved.FirstName); err != nil {
		l.log.Error("account approved mail failed", "error", err, "email", approved.Email)
		return err
	}
	return nil
}

func (l *Listener) onCallbackReminderDue(ctx context.Context, event events.Event) error {
	due, ok := event.(appevents.CallbackReminderDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if err := l.sender.SendCallbackReminderEmail(ctx, due.OwnerEmail, due.OwnerName, due.LeadName, due.ScheduledFor); err != nil {
		l.log.Error("callback reminder mail failed", "error", err, "lead_id", due.LeadID)
		return err
	}
	return nil
}
