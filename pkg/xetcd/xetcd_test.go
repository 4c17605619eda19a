package xetcd

import (
	"context"
	"testing"

	"trademan/pkg/config"

	"github.com/stretchr/testify/assert"
)

func TestNatsURLWithoutEtcd(t *testing.T) {
	cfg := config.Default()
	cfg.Nats.Url = "nats://10.0.0.1:4222"
	assert.Equal(t, "nats://10.0.0.1:4222", NatsURL(context.Background(), cfg))
}

func TestKeyNatsService(t *testing.T) {
	assert.Equal(t, "nats_trademan", KeyNatsService("TradeMan"))
}
