package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/warung-pos/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const subscriberBuffer = 16

type redisPubSub interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
	ChannelName(name string) string
}

// RedisBroker fans events out over a redis pub/sub channel so every API
// instance can stream them.
type RedisBroker struct {
	client  redisPubSub
	channel string
	logg    *logger.Logger
}

// NewRedisBroker publishes on warung:<channel>.
func NewRedisBroker(client redisPubSub, channel string, logg *logger.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: client.ChannelName(channel), logg: logg}
}

// Channel returns the namespaced redis channel.
func (b *RedisBroker) Channel() string { return b.channel }

func (b *RedisBroker) Publish(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ps, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					if b.logg != nil {
						b.logg.Warn(b.logg.WithField(ctx, "error", err.Error()), "dropping malformed event")
					}
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}
