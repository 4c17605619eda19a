package market_test

import (
	"context"
	"testing"
	"time"

	"trademan/pkg/amount"
	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/market"
	"trademan/pkg/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newAggregator(t *testing.T) *market.Aggregator {
	mr := miniredis.RunT(t)
	k := kv.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return market.New(k, config.Default())
}

func setTicker(t *testing.T, a *market.Aggregator, exchange, m, bid, ask, last, vol string) {
	require.Nil(t, a.KV.SetTicker(context.Background(), &model.Ticker{
		Bid:      dec(bid),
		Ask:      dec(ask),
		High:     dec(ask),
		Low:      dec(bid),
		Last:     dec(last),
		Volume:   dec(vol),
		Market:   m,
		Exchange: exchange,
		Time:     time.Now().UTC(),
	}))
}

func TestPreferredExchange(t *testing.T) {
	a := newAggregator(t)
	ctx := context.Background()

	ex, err := a.PreferredExchange(ctx, "BTC_USD")
	require.Nil(t, err)
	assert.Equal(t, "", ex)

	// a running worker advertising the market
	require.Nil(t, a.KV.SetStatus(ctx, "helper", kv.StatusRunning))
	ex, err = a.PreferredExchange(ctx, "btc_usd")
	require.Nil(t, err)
	assert.Equal(t, "helper", ex)

	ex, err = a.PreferredExchange(ctx, "ETH_USD")
	require.Nil(t, err)
	assert.Equal(t, "", ex)

	a.Cfg.PreferredExchanges["BTC_USD"] = "bitfinex"
	ex, err = a.PreferredExchange(ctx, "BTC_USD")
	require.Nil(t, err)
	assert.Equal(t, "bitfinex", ex)

	require.Nil(t, a.KV.SetPreferredExchange(ctx, "BTC_USD", "Poloniex"))
	ex, err = a.PreferredExchange(ctx, "BTC_USD")
	require.Nil(t, err)
	assert.Equal(t, "poloniex", ex)
}

func TestGetTicker(t *testing.T) {
	a := newAggregator(t)
	ctx := context.Background()
	require.Nil(t, a.KV.SetStatus(ctx, "helper", kv.StatusRunning))
	setTicker(t, a, "helper", "BTC_USD", "99", "101", "100", "1000")
	setTicker(t, a, "helper", "DASH_BTC", "0.01", "0.02", "0.015", "50")

	tk, err := a.GetTicker(ctx, "helper", "BTC_USD")
	require.Nil(t, err)
	assert.True(t, dec("100").Equal(tk.Index()))

	tk, err = a.GetTicker(ctx, "", "dash_usd")
	require.Nil(t, err)
	assert.Equal(t, "DASH_USD", tk.Market)
	assert.Equal(t, "helper", tk.Exchange)
	assert.True(t, dec("0.99").Equal(tk.Bid), tk.Bid.String())
	assert.True(t, dec("2.02").Equal(tk.Ask), tk.Ask.String())
	assert.True(t, dec("1.5").Equal(tk.Last), tk.Last.String())
	assert.True(t, dec("50").Equal(tk.Volume))

	_, err = a.GetTicker(ctx, "", "ETH_USD")
	assert.ErrorIs(t, err, market.ErrNoPrice)
	_, err = a.GetTicker(ctx, "", "DASH_EUR")
	assert.ErrorIs(t, err, market.ErrNoPrice)
	_, err = a.GetTicker(ctx, "bitfinex", "BTC_USD")
	assert.ErrorIs(t, err, market.ErrNoPrice)
}

func TestUSDValue(t *testing.T) {
	a := newAggregator(t)
	ctx := context.Background()
	require.Nil(t, a.KV.SetStatus(ctx, "helper", kv.StatusRunning))
	setTicker(t, a, "helper", "BTC_USD", "99", "101", "100", "1000")

	v, err := a.USDValue(ctx, amount.MustParse("5 USD"))
	require.Nil(t, err)
	assert.Equal(t, "5.00000000 USD", v.String())

	v, err = a.USDValue(ctx, amount.MustParse("0.5 BTC"))
	require.Nil(t, err)
	assert.Equal(t, "50.00000000 USD", v.String())

	// zero is a price, a missing ticker is not
	v, err = a.USDValue(ctx, amount.MustParse("0 BTC"))
	require.Nil(t, err)
	assert.True(t, v.IsZero())
	_, err = a.USDValue(ctx, amount.MustParse("1 ETH"))
	assert.ErrorIs(t, err, market.ErrNoPrice)
}

func TestUSDVolume(t *testing.T) {
	a := newAggregator(t)
	ctx := context.Background()
	require.Nil(t, a.KV.SetStatus(ctx, "helper", kv.StatusRunning))
	setTicker(t, a, "helper", "BTC_USD", "99", "101", "100", "1000")
	setTicker(t, a, "helper", "DASH_BTC", "0.01", "0.01", "0.01", "10")

	btc, err := a.KV.GetTicker(ctx, "helper", "BTC_USD")
	require.Nil(t, err)
	vol, err := a.USDVolume(ctx, btc)
	require.Nil(t, err)
	assert.True(t, dec("100000").Equal(vol), vol.String())

	dash, err := a.KV.GetTicker(ctx, "helper", "DASH_BTC")
	require.Nil(t, err)
	vol, err = a.USDVolume(ctx, dash)
	require.Nil(t, err)
	assert.True(t, dec("10").Equal(vol), vol.String())

	cc := kv.DefaultCommodityConfig()
	cc.Weight = dec("0.5")
	require.Nil(t, a.KV.SetCommodityConfig(ctx, "BTC", cc))
	vol, err = a.USDVolume(ctx, btc)
	require.Nil(t, err)
	assert.True(t, dec("50000").Equal(vol), vol.String())

	usdBase := &model.Ticker{Market: "USD_EUR", Volume: dec("7"), Last: dec("0.9")}
	vol, err = a.USDVolume(ctx, usdBase)
	require.Nil(t, err)
	assert.True(t, dec("7").Equal(vol), vol.String())
}

func TestVolumeShares(t *testing.T) {
	a := newAggregator(t)
	ctx := context.Background()
	require.Nil(t, a.KV.SetStatus(ctx, "helper", kv.StatusRunning))
	setTicker(t, a, "helper", "BTC_USD", "99", "101", "100", "30")
	setTicker(t, a, "helper", "DASH_BTC", "0.01", "0.01", "0.01", "1000")

	shares, err := a.VolumeShares(ctx, "helper", "BTC")
	require.Nil(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "BTC_USD", shares[0].Market)
	assert.True(t, dec("0.75").Equal(shares[0].Share), shares[0].Share.String())
	assert.Equal(t, "DASH_BTC", shares[1].Market)
	assert.True(t, dec("0.25").Equal(shares[1].Share), shares[1].Share.String())

	shares, err = a.VolumeShares(ctx, "helper", "dash")
	require.Nil(t, err)
	require.Len(t, shares, 1)
	assert.True(t, dec("1").Equal(shares[0].Share))

	shares, err = a.VolumeShares(ctx, "helper", "ETH")
	require.Nil(t, err)
	assert.Empty(t, shares)

	// advertised markets override the configured live pairs; with BTC_USD no longer
	// advertised nothing prices DASH in USD
	require.Nil(t, a.KV.SetActiveMarkets(ctx, "helper", []string{"DASH_BTC"}))
	shares, err = a.VolumeShares(ctx, "helper", "BTC")
	require.Nil(t, err)
	assert.Empty(t, shares)

	require.Nil(t, a.KV.SetPreferredExchange(ctx, "BTC_USD", "helper"))
	shares, err = a.VolumeShares(ctx, "helper", "BTC")
	require.Nil(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "DASH_BTC", shares[0].Market)
	assert.True(t, dec("1").Equal(shares[0].Share))
}
