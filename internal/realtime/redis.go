package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"storefront-be/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pubSubClient interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *redis.PubSub
}

// RedisBroker shares order changes between server instances over redis pub/sub.
type RedisBroker struct {
	client pubSubClient
}

func NewRedisBroker(client pubSubClient) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, change OrderChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal order change: %w", err)
	}
	return b.client.Publish(ctx, Channel(change.StoreID), payload)
}

func (b *RedisBroker) Subscribe(ctx context.Context, storeID uuid.UUID) (<-chan OrderChange, func(), error) {
	sub := b.client.Subscribe(ctx, Channel(storeID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", Channel(storeID), err)
	}

	out := make(chan OrderChange, subscriberBuffer)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		log := logger.FromCtx(ctx).With(
			zap.String("layer", "realtime"),
			zap.String("method", "Subscribe"),
		)

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change OrderChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Warn("dropping malformed order change", zap.Error(err))
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	return out, cancel, nil
}

// NopPublisher discards changes.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderChange) error { return nil }
