package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDeliveryTTL = 24 * time.Hour

// DeliveryDedup remembers which email notifications were already handed to
// the mail transport, so a retried or resumed job is not sent twice.
// Key format: email:delivered:<notification_id>
type DeliveryDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeliveryDedup wraps client. A non-positive ttl selects defaultDeliveryTTL.
func NewDeliveryDedup(client *redis.Client, ttl time.Duration) *DeliveryDedup {
	if ttl <= 0 {
		ttl = defaultDeliveryTTL
	}
	return &DeliveryDedup{client: client, ttl: ttl}
}

// IsDelivered reports whether the notification was already sent.
func (d *DeliveryDedup) IsDelivered(ctx context.Context, notificationID uint) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(notificationID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// MarkDelivered records the delivery (expires after the configured TTL).
func (d *DeliveryDedup) MarkDelivered(ctx context.Context, notificationID uint) error {
	return d.client.Set(ctx, d.key(notificationID), "1", d.ttl).Err()
}

func (d *DeliveryDedup) key(notificationID uint) string {
	return fmt.Sprintf("email:delivered:%d", notificationID)
}
