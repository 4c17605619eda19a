package bus

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisBus sends commands over redis pub/sub, channel <exchange>.
type RedisBus struct {
	rds *redis.Client
}

func NewRedisBus(rds *redis.Client) *RedisBus {
	return &RedisBus{rds: rds}
}

func (b *RedisBus) Publish(ctx context.Context, exchange string, cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return b.rds.Publish(ctx, strings.ToLower(exchange), data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, exchange string, h Handler) error {
	channel := strings.ToLower(exchange)
	ps := b.rds.Subscribe(ctx, channel)
	// wait for the confirmation so that nothing published after Subscribe returns is lost
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return err
	}

	ch := ps.Channel()
	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				cmd := Command{}
				if err := json.Unmarshal([]byte(m.Payload), &cmd); err != nil {
					logger.Warningf("drop malformed message on %s: %s", channel, err)
					continue
				}
				h(ctx, cmd)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	return nil
}
