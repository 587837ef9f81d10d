// Package notifications publishes follow and like events to per-user Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"warbler/internal/middleware"
	"warbler/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const userChannelPattern = "notifications:user:*"

// Event types carried in Event.Type.
const (
	EventFollowed = "followed"
	EventLiked    = "liked"
)

// Event is the JSON payload published to a user's channel.
type Event struct {
	Type          string    `json:"type"`
	ActorID       uint      `json:"actor_id"`
	ActorUsername string    `json:"actor_username,omitempty"`
	MessageID     uint      `json:"message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher is what services depend on.
type Publisher interface {
	PublishEvent(ctx context.Context, userID uint, event Event) error
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client yields a Notifier whose methods are no-ops.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel returns the channel that carries userID's notifications.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishEvent marshals event and publishes it to userID's channel.
func (n *Notifier) PublishEvent(ctx context.Context, userID uint, event Event) (err error) {
	if n == nil || n.rdb == nil {
		return nil
	}
	ctx, span := observability.StartSpan(ctx, "notifications.publish",
		attribute.String("event.type", event.Type),
		attribute.Int64("user.id", int64(userID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.PublishUser(ctx, userID, string(payload)); err != nil {
		return err
	}
	middleware.RecordEvent("notification_" + event.Type)
	return nil
}

// StartPatternSubscriber subscribes to `notifications:user:*` and calls onMessage
// for each incoming message until ctx is cancelled. The subscription is
// confirmed before it returns, so messages published afterwards are delivered.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								"panic", r,
								"stack", string(debug.Stack()),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
