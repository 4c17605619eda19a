package bus

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
)

// NatsBus sends commands over core nats, subject <prefix>.<exchange>.
type NatsBus struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsBus(url, prefix string) (b *NatsBus, err error) {
	nc, err := nats.Connect(url,
		nats.Name("trademan"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return
	}
	logger.Infof("nats connected %s", url)
	return &NatsBus{nc: nc, prefix: prefix}, nil
}

func (b *NatsBus) Subject(exchange string) string {
	if b.prefix == "" {
		return strings.ToLower(exchange)
	}
	return b.prefix + "." + strings.ToLower(exchange)
}

func (b *NatsBus) Publish(ctx context.Context, exchange string, cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	err = b.nc.Publish(b.Subject(exchange), data)
	if err != nil {
		return err
	}
	return b.nc.FlushWithContext(ctx)
}

func (b *NatsBus) Subscribe(ctx context.Context, exchange string, h Handler) error {
	subject := b.Subject(exchange)
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		cmd := Command{}
		if err := json.Unmarshal(m.Data, &cmd); err != nil {
			logger.Warningf("drop malformed message on %s: %s", subject, err)
			return
		}
		h(ctx, cmd)
	})
	if err != nil {
		return err
	}
	if err = b.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return err
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return nil
}

func (b *NatsBus) Close() error {
	b.nc.Close()
	return nil
}
