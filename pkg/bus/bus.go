// Package bus addresses exchange workers by name. Delivery is at-most-once and
// fire-and-forget: a command that reaches no subscriber is dropped, and callers observe
// completion by polling the datastore.
package bus

import (
	"context"
	"fmt"
	"strings"

	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/xetcd"
	"trademan/pkg/xlog"

	"github.com/go-redis/redis/v8"
)

var logger = xlog.GetLogger()

// Handler processes one command. Commands of one subscription are handled in order.
type Handler func(ctx context.Context, cmd Command)

type Bus interface {
	Publish(ctx context.Context, exchange string, cmd Command) error
	// Subscribe delivers the commands of exchange to h until ctx is done.
	Subscribe(ctx context.Context, exchange string, h Handler) error
	Close() error
}

// Publish builds a command from action and payload and sends it to exchange.
func Publish(ctx context.Context, b Bus, exchange, action string, payload interface{}) (err error) {
	defer func() {
		if err != nil {
			logger.Errorf("publish %s to %s failed, err:%s", action, exchange, err)
		}
	}()

	cmd, err := NewCommand(action, payload)
	if err != nil {
		return
	}
	logger.Debugf("publish %s to %s: %s", action, exchange, cmd.Payload)
	return b.Publish(ctx, exchange, cmd)
}

// Open connects the transport selected by cfg.Bus.Transport.
func Open(ctx context.Context, cfg *config.Config, rds *redis.Client) (Bus, error) {
	switch cfg.Bus.Transport {
	case "nats", "":
		return NewNatsBus(xetcd.NatsURL(ctx, cfg), cfg.Nats.SubjectPrefix)
	case "redis":
		return NewRedisBus(rds), nil
	}
	return nil, fmt.Errorf("unknown bus transport %q", cfg.Bus.Transport)
}

// RunningWorkers filters names down to the workers whose status is running.
func RunningWorkers(ctx context.Context, k *kv.KV, names []string) ([]string, error) {
	var running []string
	for _, name := range names {
		status, err := k.GetStatus(ctx, name)
		if err != nil {
			return nil, err
		}
		if status == kv.StatusRunning {
			running = append(running, strings.ToLower(name))
		}
	}
	return running, nil
}
