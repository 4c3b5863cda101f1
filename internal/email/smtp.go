// Package email sends transactional portal mail over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"sales_portal_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender is the outbound mail surface the event listeners use.
type Sender interface {
	SendAccountApprovedEmail(ctx context.Context, toEmail, firstName string) error
	SendCallbackReminderEmail(ctx context.Context, toEmail, ownerName, leadName string, scheduledFor time.Time) error
}

// SMTPSender delivers rendered HTML templates over a direct SMTP connection
// via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendAccountApprovedEmail(ctx context.Context, toEmail, firstName string) error {
	content, err := renderEmailTemplate("account_approved.html", accountApprovedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Zugang freigeschaltet",
			Heading: "Zugang freigeschaltet",
		},
		FirstName: firstName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAccountApproved, content)
}

func (s *SMTPSender) SendCallbackReminderEmail(ctx context.Context, toEmail, ownerName, leadName string, scheduledFor time.Time) error {
	content, err := renderEmailTemplate("callback_reminder.html", callbackReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Rückruf-Erinnerung",
			Heading: "Rückruf-Erinnerung",
		},
		OwnerName:    ownerName,
		LeadName:     leadName,
		ScheduledFor: scheduledFor.Format("02.01.2006 15:04"),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectCallbackReminderFmt, leadName), content)
}

var _ Sender = (*SMTPSender)(nil)
