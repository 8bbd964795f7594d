package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher is the part of *redis.Client the notifier uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes each notification on a per-user pub/sub channel.
type RedisNotifier struct {
	client        Publisher
	channelPrefix string
}

// NewRedisNotifier publishes on "<channelPrefix><user id>".
func NewRedisNotifier(client Publisher, channelPrefix string) *RedisNotifier {
	return &RedisNotifier{client: client, channelPrefix: channelPrefix}
}

// Make sure we conform to the interface
var _ Notifier = (*RedisNotifier)(nil)

// Notify publishes n as JSON.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channelPrefix+n.UserID, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
