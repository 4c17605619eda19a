package helper_test

import (
	"context"
	"strings"
	"testing"

	"trademan/pkg/config"
	"trademan/pkg/exchange/helper"
	"trademan/pkg/kv"
	"trademan/pkg/model"
	"trademan/pkg/model/dbtest"
	"trademan/pkg/plugin"
	"trademan/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSyncs(t *testing.T) {
	mr := miniredis.RunT(t)
	k := kv.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	db := dbtest.Open(t)
	h := helper.New(plugin.NewBase(helper.Name, config.Exchange{LivePairs: []string{"BTC_USD"}}, db, k))
	ctx := context.Background()

	require.Nil(t, h.SyncTicker(ctx, "btc_usd"))
	tk, err := k.GetTicker(ctx, "helper", "BTC_USD")
	require.Nil(t, err)
	require.NotNil(t, tk)
	assert.Equal(t, "helper", tk.Exchange)
	assert.True(t, tk.Index().Equal(decimal.NewFromInt(100)))

	h.Tickers["DASH_BTC"] = model.Ticker{Bid: decimal.RequireFromString("0.009"), Ask: decimal.RequireFromString("0.011")}
	require.Nil(t, h.SyncTicker(ctx, "DASH_BTC"))
	tk, err = k.GetTicker(ctx, "helper", "DASH_BTC")
	require.Nil(t, err)
	assert.True(t, tk.Index().Equal(decimal.RequireFromString("0.01")))

	require.Nil(t, h.SyncTrades(ctx, "", false))
	require.Nil(t, h.SyncTrades(ctx, "", true))
	trades, err := store.GetTrades(db, store.TradeFilter{Exchange: "helper"})
	require.Nil(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, model.TradeSideBuy, trades[0].Side)
	assert.True(t, strings.HasPrefix(trades[0].TradeID, "helper|tid"))

	require.Nil(t, h.SyncCredits(ctx, false))
	require.Nil(t, h.SyncDebits(ctx, false))
	credits, err := store.GetCredits(db, store.WalletFilter{Reference: "helper"})
	require.Nil(t, err)
	assert.Len(t, credits, 1)

	require.Nil(t, h.SyncBook(ctx, "BTC_USD"))
	require.Nil(t, h.SyncBalances(ctx))
	_, available, err := store.GetBalances(db, "helper")
	require.Nil(t, err)
	assert.Equal(t, "900.00000000 USD", available.Get("USD").String())
}
