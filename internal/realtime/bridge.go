package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nourishhq/dietitian-platform/internal/events"
)

// RedisBridge publishes delivered outbox entries onto the updates channel so
// every hub instance sees them.
type RedisBridge struct {
	rdb *redis.Client
}

func NewRedisBridge(rdb *redis.Client) *RedisBridge {
	if rdb == nil {
		panic("realtime: redis client required")
	}
	return &RedisBridge{rdb: rdb}
}

func (b *RedisBridge) Handle(ctx context.Context, entry events.OutboxEntry) error {
	if err := b.rdb.Publish(ctx, updatesChannel, string(entry.Payload)).Err(); err != nil {
		return fmt.Errorf("realtime: publish update: %w", err)
	}
	return nil
}

var _ events.DeliveryHandler = (*RedisBridge)(nil)
