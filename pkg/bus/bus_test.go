package bus_test

import (
	"context"
	"testing"
	"time"

	"trademan/pkg/bus"
	"trademan/pkg/kv"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	cmd, err := bus.NewCommand(bus.ActionCancelOrders, bus.CancelOrders{Side: "bid", Market: "BTC_USD"})
	require.Nil(t, err)
	assert.JSONEq(t, `{"side":"bid","market":"BTC_USD"}`, string(cmd.Payload))

	p := bus.CancelOrders{}
	require.Nil(t, cmd.Decode(&p))
	assert.Equal(t, "bid", p.Side)

	empty, err := bus.NewCommand(bus.ActionSyncBalances, nil)
	require.Nil(t, err)
	assert.Equal(t, "{}", string(empty.Payload))
	require.Nil(t, bus.Command{Action: bus.ActionSyncTicker}.Decode(&bus.SyncTicker{}))

	bad := bus.Command{Action: bus.ActionCreateOrder, Payload: []byte(`{"oid":"x"}`)}
	assert.NotNil(t, bad.Decode(&bus.CreateOrder{}))
}

func receive(t *testing.T, b bus.Bus) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan bus.Command, 4)
	require.Nil(t, b.Subscribe(ctx, "helper", func(ctx context.Context, cmd bus.Command) {
		got <- cmd
	}))

	require.Nil(t, bus.Publish(ctx, b, "Helper", bus.ActionCreateOrder, bus.CreateOrder{OID: 7}))
	// nobody listens on kraken, the command is dropped
	require.Nil(t, bus.Publish(ctx, b, "kraken", bus.ActionSyncBalances, nil))

	select {
	case cmd := <-got:
		assert.Equal(t, bus.ActionCreateOrder, cmd.Action)
		p := bus.CreateOrder{}
		require.Nil(t, cmd.Decode(&p))
		assert.Equal(t, int64(7), p.OID)
	case <-time.After(3 * time.Second):
		t.Fatal("command not delivered")
	}
}

func TestRedisBus(t *testing.T) {
	mr := miniredis.RunT(t)
	receive(t, bus.NewRedisBus(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
}

func TestNatsBus(t *testing.T) {
	b, err := bus.NewNatsBus(nats.DefaultURL, "trademan-test")
	if err != nil {
		t.Skipf("no nats server at %s: %s", nats.DefaultURL, err)
	}
	defer b.Close()
	assert.Equal(t, "trademan-test.helper", b.Subject("Helper"))
	receive(t, b)
}

func TestRunningWorkers(t *testing.T) {
	mr := miniredis.RunT(t)
	k := kv.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	require.Nil(t, k.SetStatus(ctx, "helper", kv.StatusRunning))
	require.Nil(t, k.SetStatus(ctx, "kraken", kv.StatusLoading))

	running, err := bus.RunningWorkers(ctx, k, []string{"Helper", "kraken", "poloniex"})
	require.Nil(t, err)
	assert.Equal(t, []string{"helper"}, running)
}
