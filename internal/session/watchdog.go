package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

// ReminderSender is the outbound path the watchdog uses; satisfied by
// service.Sender.
type ReminderSender interface {
	Send(ctx context.Context, phoneNumberID, to string, content model.Content) model.DeliveryResult
}

// Watchdog polls the session state and sends one reminder per inactivity
// window, shortly before the provider's session window would close. It is
// not event-driven: detection latency is bounded by the polling interval.
type Watchdog struct {
	state  *State
	sender ReminderSender

	phoneNumberID string
	forwardNumber string
	window        time.Duration
	lead          time.Duration

	now func() time.Time
}

func NewWatchdog(state *State, sender ReminderSender, phoneNumberID, forwardNumber string, window, lead time.Duration) *Watchdog {
	return &Watchdog{
		state:         state,
		sender:        sender,
		phoneNumberID: phoneNumberID,
		forwardNumber: forwardNumber,
		window:        window,
		lead:          lead,
		now:           time.Now,
	}
}

func (w *Watchdog) Tick(ctx context.Context) {
	lastActivity, reminded := w.state.Snapshot()
	if reminded {
		return
	}

	idle := w.now().Sub(lastActivity)
	if idle < w.window-w.lead {
		return
	}

	// Transition first: even a failed or skipped send must not repeat
	// every cycle until the next activity reset.
	w.state.MarkReminded(w.now())

	if w.phoneNumberID == "" {
		slog.Warn("session window closing but no messaging endpoint configured, skipping reminder",
			"idle", idle.String(),
		)
		return
	}

	res := w.sender.Send(ctx, w.phoneNumberID, w.forwardNumber, model.TextContent(w.reminderText()))
	slog.Info("session reminder sent",
		"idle", idle.String(),
		"success", res.Success,
	)
}

// ForceReminder sends a reminder immediately, bypassing the threshold. Used
// by the manual trigger endpoint.
func (w *Watchdog) ForceReminder(ctx context.Context) model.DeliveryResult {
	if w.phoneNumberID == "" {
		slog.Warn("force reminder requested but no messaging endpoint configured")
		return model.DeliveryResult{}
	}
	return w.sender.Send(ctx, w.phoneNumberID, w.forwardNumber, model.TextContent(w.reminderText()))
}

func (w *Watchdog) reminderText() string {
	return fmt.Sprintf(
		"⏰ A janela de atendimento expira em menos de %s. Envie uma mensagem para manter a sessão ativa.",
		formatLead(w.lead),
	)
}

func formatLead(d time.Duration) string {
	if h := int(d.Hours()); h >= 1 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dmin", int(d.Minutes()))
}
