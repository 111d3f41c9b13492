package cache

import (
	"context"
	"time"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

type ForwardCache interface {
	StoreForwarded(ctx context.Context, messageID, destination string, kind model.Kind, sentAt time.Time) error
}
