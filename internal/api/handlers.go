package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/contacts"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/service"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/session"
)

// Relay is the outbound surface the dispatcher uses; satisfied by
// service.Sender.
type Relay interface {
	Send(ctx context.Context, phoneNumberID, to string, content model.Content) model.DeliveryResult
	ForwardMedia(ctx context.Context, phoneNumberID, to string, kind model.Kind, mediaID, caption string) model.DeliveryResult
}

// ReminderTrigger is the manual-reminder hook; satisfied by
// session.Watchdog.
type ReminderTrigger interface {
	ForceReminder(ctx context.Context) model.DeliveryResult
}

// Message kinds the relay ignores entirely: no reply, no forward, no
// activity update.
var ignoredKinds = map[string]bool{
	"status":   true,
	"reaction": true,
	"sticker":  true,
	"location": true,
	"unknown":  true,
	"video":    true,
}

type Handler struct {
	verifyToken     string
	forwardNumber   string
	newNumber       string
	defaultEndpoint string

	relay    Relay
	book     *contacts.Book
	state    *session.State
	reminder ReminderTrigger
}

func NewHandler(verifyToken, forwardNumber, newNumber, defaultEndpoint string, relay Relay, book *contacts.Book, state *session.State, reminder ReminderTrigger) *Handler {
	return &Handler{
		verifyToken:     verifyToken,
		forwardNumber:   forwardNumber,
		newNumber:       newNumber,
		defaultEndpoint: defaultEndpoint,
		relay:           relay,
		book:            book,
		state:           state,
		reminder:        reminder,
	}
}

// Verify answers the provider's subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Webhook handles one inbound notification. The provider must never see a
// retryable error: the response is 200 regardless of what happens inside.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	defer ack(w)

	var payload model.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("webhook payload undecodable", "error", err)
		return
	}

	msg, endpointID := payload.FirstMessage()
	if msg == nil {
		return
	}
	if endpointID == "" {
		endpointID = h.defaultEndpoint
	}

	if msg.Type == "" || ignoredKinds[msg.Type] {
		slog.Info("ignoring message kind", "kind", msg.Type, "from", msg.From)
		return
	}

	sender := contacts.Digits(msg.From)
	forward := contacts.Digits(h.forwardNumber)

	if suffixMatch(sender, forward) {
		h.state.Touch()
	}
	if sender == forward {
		// The operator messaging the relayed number must not trigger a
		// reply back to themselves.
		return
	}

	name := h.book.Lookup(sender)

	logName := name
	if logName == "" && msg.Profile != nil {
		logName = msg.Profile.Name
	}
	h.book.LogObserved(logName, sender)

	ctx := r.Context()

	h.relay.Send(ctx, endpointID, msg.From, model.TextContent(service.AutoReplyText(h.newNumber)))

	summary := service.ForwardSummary(name, sender, msg.BodyText(), time.Now())
	h.relay.Send(ctx, endpointID, h.forwardNumber, model.TextContent(summary))

	if kind, ref := msg.MediaAttachment(); ref != nil {
		h.relay.ForwardMedia(ctx, endpointID, h.forwardNumber, kind, ref.ID, ref.Caption)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"contacts":      h.book.Len(),
		"last_activity": h.state.LastActivity().Format(time.RFC3339),
	})
}

// ForceReminder sends an immediate test reminder, guarded by the shared
// verification token.
func (h *Handler) ForceReminder(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != h.verifyToken {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	res := h.reminder.ForceReminder(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"sent":   res.Success,
		"status": res.StatusCode,
	})
}

// suffixMatch compares the last 8 digits, the same rule used for contact
// fallback matching.
func suffixMatch(a, b string) bool {
	if len(a) < 8 || len(b) < 8 {
		return a == b
	}
	return a[len(a)-8:] == b[len(b)-8:]
}

func ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
