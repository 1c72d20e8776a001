// Package notify delivers expense notifications to group members over
// their preferred channel.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gastos/internal/core"
	"gastos/internal/ledger"
	"gastos/internal/metrics"
)

// EmailSender delivers a plain text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ChatSender delivers WhatsApp messages. Outside the 24 hour session
// window only template messages are accepted by the platform, so both
// forms exist.
type ChatSender interface {
	SendText(ctx context.Context, phone, body string) error
	SendTemplate(ctx context.Context, phone, template string, params []string) error
}

// sessionWindow is how long after a member's last inbound message a
// free-form WhatsApp reply is still allowed.
const sessionWindow = 24 * time.Hour

const expenseTemplate = "nuevo_gasto"

// Dispatcher fans an expense event out to every member except the
// payer. Delivery is best effort per member: one failing channel does
// not stop the others.
type Dispatcher struct {
	directory ledger.MemberDirectory
	email     EmailSender
	chat      ChatSender
	now       func() time.Time
}

func NewDispatcher(directory ledger.MemberDirectory, email EmailSender, chat ChatSender) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		email:     email,
		chat:      chat,
		now:       time.Now,
	}
}

// NotifyExpenseCreated tells everyone but the payer about a new expense.
func (d *Dispatcher) NotifyExpenseCreated(ctx context.Context, e *core.Expense) error {
	members, err := d.directory.List(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	payerName := fmt.Sprintf("miembro %d", e.PayerID)
	for _, m := range members {
		if m.ID == e.PayerID {
			payerName = m.Name
			break
		}
	}
	body := fmt.Sprintf("%s cargó un gasto: %s $%s (%s)",
		payerName, e.Description, e.Amount.StringFixed(2), e.Category)

	for _, m := range members {
		if m.ID == e.PayerID {
			continue
		}
		d.notifyMember(ctx, m, payerName, body)
	}
	return nil
}

func (d *Dispatcher) notifyMember(ctx context.Context, m *core.Member, payerName, body string) {
	switch m.NotificationPreference {
	case core.NotifyEmail:
		if d.email == nil {
			return
		}
		if err := d.email.Send(ctx, m.Email, "Nuevo gasto", body); err != nil {
			metrics.Notifications.WithLabelValues("email", "error").Inc()
			slog.ErrorContext(ctx, "Failed to send email notification",
				"member_id", m.ID, "error", err)
			return
		}
		metrics.Notifications.WithLabelValues("email", "ok").Inc()

	case core.NotifyWhatsapp:
		if d.chat == nil {
			return
		}
		var err error
		if d.withinSessionWindow(m) {
			err = d.chat.SendText(ctx, m.Telephone, body)
		} else {
			err = d.chat.SendTemplate(ctx, m.Telephone, expenseTemplate, []string{payerName, body})
		}
		if err != nil {
			metrics.Notifications.WithLabelValues("whatsapp", "error").Inc()
			slog.ErrorContext(ctx, "Failed to send chat notification",
				"member_id", m.ID, "error", err)
			return
		}
		metrics.Notifications.WithLabelValues("whatsapp", "ok").Inc()
	}
}

func (d *Dispatcher) withinSessionWindow(m *core.Member) bool {
	if m.LastChatAt.IsZero() {
		return false
	}
	return d.now().Sub(m.LastChatAt) < sessionWindow
}
