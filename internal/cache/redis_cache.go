package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/asdfsd44/whatsapp-auto-reply/internal/model"
)

// RedisCache keeps a short audit trail of delivered messages, keyed by the
// provider-assigned message id.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type forwardedValue struct {
	Destination string     `json:"destination"`
	Kind        model.Kind `json:"kind"`
	SentAt      time.Time  `json:"sentAt"`
}

func (c *RedisCache) StoreForwarded(ctx context.Context, messageID, destination string, kind model.Kind, sentAt time.Time) error {
	val := forwardedValue{
		Destination: destination,
		Kind:        kind,
		SentAt:      sentAt.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, "fwd:"+messageID, b, c.ttl).Err()
}
