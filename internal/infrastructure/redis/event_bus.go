package redis

import (
	"context"
	"encoding/json"

	"taskman/internal/domain"

	"github.com/redis/go-redis/v9"
)

const statusChannel = "taskman:events:status"

// EventBus broadcasts status-change events over Redis Pub/Sub. Publishing is
// fire-and-forget from the engine's point of view: a transition that already
// committed is never rolled back because the broadcast failed.
type EventBus struct {
	client  *redis.Client
	channel string
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{
		client:  client,
		channel: statusChannel,
	}
}

func (b *EventBus) PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// SubscribeStatusChanges opens a continuous stream of committed transitions.
// The returned channel closes when ctx is cancelled.
func (b *EventBus) SubscribeStatusChanges(ctx context.Context) (<-chan domain.StatusChangedEvent, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)

	msgChan := make(chan domain.StatusChangedEvent)
	go func() {
		defer close(msgChan)
		defer pubsub.Close()
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			var event domain.StatusChangedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case msgChan <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}
