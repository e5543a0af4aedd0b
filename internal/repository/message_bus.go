package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrBusDisabled is returned by Subscribe when no Redis client is configured.
var ErrBusDisabled = errors.New("message bus disabled")

// MessageBus fans out posted complaint messages over Redis pub/sub.
// A bus without a client silently drops publications.
type MessageBus struct {
	client *redis.Client
}

// NewMessageBus creates a MessageBus. client may be nil.
func NewMessageBus(client *redis.Client) *MessageBus {
	return &MessageBus{client: client}
}

// MessageChannel names the pub/sub channel of one complaint thread.
func MessageChannel(complaintID int64) string {
	return fmt.Sprintf("complaints:%d:messages", complaintID)
}

// Enabled reports whether publications reach Redis.
func (b *MessageBus) Enabled() bool {
	return b != nil && b.client != nil
}

// Publish sends payload to the thread channel.
func (b *MessageBus) Publish(ctx context.Context, complaintID int64, payload []byte) error {
	if !b.Enabled() {
		return nil
	}
	if err := b.client.Publish(ctx, MessageChannel(complaintID), payload).Err(); err != nil {
		return fmt.Errorf("publish complaint message: %w", err)
	}
	return nil
}

// Subscribe streams payloads published to the thread channel until ctx is done.
// The returned channel is closed when the subscription ends.
func (b *MessageBus) Subscribe(ctx context.Context, complaintID int64) (<-chan []byte, error) {
	if !b.Enabled() {
		return nil, ErrBusDisabled
	}

	pubsub := b.client.Subscribe(ctx, MessageChannel(complaintID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe complaint messages: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
