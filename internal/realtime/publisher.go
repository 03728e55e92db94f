package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

func NotificationChannel(userID string) string {
	return "notifications:" + userID
}

// NotificationPublisher fans committed notifications out on the per-user
// Redis channel. Clients still poll; the channel is for any subscriber.
type NotificationPublisher struct {
	rdb *redis.Client
}

func NewNotificationPublisher(rdb *redis.Client) *NotificationPublisher {
	return &NotificationPublisher{rdb: rdb}
}

func (p *NotificationPublisher) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(map[string]interface{}{
		"id":         n.ID.String(),
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"link":       n.Link,
		"created_at": n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return p.rdb.Publish(ctx, NotificationChannel(n.UserID.String()), payload).Err()
}
