package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindow is a fixed-window counter backed by Redis, used to throttle
// the auth endpoints. The first increment of a key starts its window; the
// key expires when the window ends.
type FixedWindow struct {
	client *redis.Client
}

// NewFixedWindow creates a FixedWindow wrapping the given Redis client.
func NewFixedWindow(client *redis.Client) *FixedWindow {
	return &FixedWindow{client: client}
}

// Incr increments key and returns the new count within the current window.
func (w *FixedWindow) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rate window: %w", err)
	}
	return incr.Val(), nil
}
