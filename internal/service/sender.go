package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/cache"
	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

// GraphAPI is the provider surface the sender needs; satisfied by
// client.GraphClient.
type GraphAPI interface {
	Send(ctx context.Context, phoneNumberID, to string, content model.Content) (model.DeliveryResult, error)
	MediaURL(ctx context.Context, mediaID string) (url, mimeType string, err error)
	Download(ctx context.Context, url string) (data []byte, mimeType string, err error)
	Upload(ctx context.Context, phoneNumberID string, data []byte, mimeType string) (mediaID string, err error)
}

// Enqueuer receives failed attempts; satisfied by retry.Store.
type Enqueuer interface {
	Enqueue(item model.RetryItem) error
}

// Sender wraps one outbound call: it logs every outcome, hands failures to
// the retry queue, and never raises past its boundary. All retrying is
// deferred to the background worker.
type Sender struct {
	api   GraphAPI
	queue Enqueuer
	audit cache.ForwardCache

	now func() time.Time
}

func NewSender(api GraphAPI, queue Enqueuer) *Sender {
	return &Sender{
		api:   api,
		queue: queue,
		now:   time.Now,
	}
}

// WithAudit records successful deliveries to the given cache.
func (s *Sender) WithAudit(audit cache.ForwardCache) *Sender {
	s.audit = audit
	return s
}

// Send performs one delivery attempt. On transport failure or provider
// rejection the message is enqueued for retry with attempts=1.
func (s *Sender) Send(ctx context.Context, phoneNumberID, to string, content model.Content) model.DeliveryResult {
	res := s.attempt(ctx, phoneNumberID, to, content)
	if !res.Success {
		s.enqueue(phoneNumberID, to, content)
	}
	return res
}

// Resend retries a queued item without re-enqueueing; the retry worker owns
// the item's bookkeeping.
func (s *Sender) Resend(ctx context.Context, item model.RetryItem) bool {
	res := s.attempt(ctx, item.PhoneNumberID, item.Destination, item.Content)
	return res.Success
}

// ForwardMedia forwards media by reference. If the provider rejects the
// foreign media id, the content is downloaded and re-uploaded under the
// relay's own credentials before a second attempt.
func (s *Sender) ForwardMedia(ctx context.Context, phoneNumberID, to string, kind model.Kind, mediaID, caption string) model.DeliveryResult {
	content := model.MediaContent(kind, mediaID, caption)

	res := s.attempt(ctx, phoneNumberID, to, content)
	if res.Success {
		return res
	}

	slog.Info("media forward by id failed, falling back to re-upload",
		"destination", to,
		"kind", kind,
		"media_id", mediaID,
	)

	url, mimeType, err := s.api.MediaURL(ctx, mediaID)
	if err != nil {
		slog.Warn("media url lookup failed", "media_id", mediaID, "error", err)
		s.enqueue(phoneNumberID, to, content)
		return res
	}

	data, dlMime, err := s.api.Download(ctx, url)
	if err != nil {
		slog.Warn("media download failed", "media_id", mediaID, "error", err)
		s.enqueue(phoneNumberID, to, content)
		return res
	}
	if dlMime != "" {
		mimeType = dlMime
	}

	newID, err := s.api.Upload(ctx, phoneNumberID, data, mimeType)
	if err != nil {
		slog.Warn("media re-upload failed", "media_id", mediaID, "error", err)
		s.enqueue(phoneNumberID, to, content)
		return res
	}

	reuploaded := model.MediaContent(kind, newID, caption)
	res = s.attempt(ctx, phoneNumberID, to, reuploaded)
	if !res.Success {
		s.enqueue(phoneNumberID, to, reuploaded)
	}
	return res
}

func (s *Sender) attempt(ctx context.Context, phoneNumberID, to string, content model.Content) model.DeliveryResult {
	res, err := s.api.Send(ctx, phoneNumberID, to, content)
	if err != nil {
		slog.Warn("send transport failure",
			"destination", to,
			"kind", content.Kind,
			"error", err,
		)
		return model.DeliveryResult{Body: err.Error()}
	}

	if !res.Success {
		slog.Warn("send rejected",
			"destination", to,
			"kind", content.Kind,
			"status", res.StatusCode,
			"body", truncate(res.Body, 200),
		)
		return res
	}

	slog.Info("send delivered",
		"destination", to,
		"kind", content.Kind,
		"status", res.StatusCode,
		"message_id", res.MessageID,
	)

	if s.audit != nil && res.MessageID != "" {
		if err := s.audit.StoreForwarded(ctx, res.MessageID, to, content.Kind, s.now()); err != nil {
			slog.Warn("forward audit write failed", "message_id", res.MessageID, "error", err)
		}
	}
	return res
}

func (s *Sender) enqueue(phoneNumberID, to string, content model.Content) {
	item := model.RetryItem{
		ID:            newID(),
		Destination:   to,
		PhoneNumberID: phoneNumberID,
		Content:       content,
		Attempts:      1,
		LastAttemptAt: s.now(),
	}
	if err := s.queue.Enqueue(item); err != nil {
		slog.Error("retry enqueue failed", "id", item.ID, "destination", to, "error", err)
		return
	}
	slog.Info("queued for retry", "id", item.ID, "destination", to, "kind", content.Kind)
}

func newID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
