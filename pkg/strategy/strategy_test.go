package strategy_test

import (
	"context"
	"testing"
	"time"

	"trademan/pkg/amount"
	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/manager"
	"trademan/pkg/market"
	"trademan/pkg/model"
	"trademan/pkg/strategy"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakePlacer struct {
	requests  []manager.OrderRequest
	syncs     []string
	available *amount.Balance
}

func (p *fakePlacer) CreateOrder(ctx context.Context, r manager.OrderRequest) (*model.Order, error) {
	p.requests = append(p.requests, r)
	return &model.Order{
		ID:       int64(len(p.requests)),
		Exchange: r.Exchange,
		State:    model.OrderStatePending,
		Market:   r.Market,
		Side:     r.Side,
		Price:    r.Price,
		Amount:   r.Amount,
	}, nil
}

func (p *fakePlacer) SyncBalances(ctx context.Context, exchange string) error {
	p.syncs = append(p.syncs, exchange)
	return nil
}

func (p *fakePlacer) GetBalances(ctx context.Context, exchange string) (total, available *amount.Balance, err error) {
	return p.available, p.available, nil
}

func newStrategy(t *testing.T) (*strategy.Strategy, *fakePlacer) {
	mr := miniredis.RunT(t)
	k := kv.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	agg := market.New(k, config.Default())
	ctx := context.Background()

	require.Nil(t, k.SetStatus(ctx, "helper", kv.StatusRunning))
	for _, tk := range []model.Ticker{
		{Bid: dec("99"), Ask: dec("101"), Last: dec("100"), Volume: dec("30"), Market: "BTC_USD"},
		{Bid: dec("0.01"), Ask: dec("0.01"), Last: dec("0.01"), Volume: dec("1000"), Market: "DASH_BTC"},
	} {
		tk := tk
		tk.Exchange = "helper"
		tk.Time = time.Now().UTC()
		require.Nil(t, k.SetTicker(ctx, &tk))
	}

	p := &fakePlacer{available: amount.NewBalance()}
	return strategy.New(agg, p), p
}

func ticker(t *testing.T, s *strategy.Strategy, m string) *model.Ticker {
	tk, err := s.Market.GetTicker(context.Background(), "helper", m)
	require.Nil(t, err)
	return tk
}

func prices(reqs []manager.OrderRequest) []string {
	var out []string
	for _, r := range reqs {
		out = append(out, r.Price.String())
	}
	return out
}

func TestRungPrice(t *testing.T) {
	index := dec("100")
	assert.Equal(t, "101", strategy.RungPrice(model.SideAsk, index, 1).String())
	assert.Equal(t, "87", strategy.RungPrice(model.SideBid, index, 13).String())
	assert.Equal(t, "0.0105", strategy.RungPrice(model.SideAsk, dec("0.01"), 5).String())
}

func TestFibFanLadder(t *testing.T) {
	s, p := newStrategy(t)
	ctx := context.Background()

	orders, err := s.FibFan(ctx, model.SideAsk, amount.MustParse("0.5 BTC"), ticker(t, s, "BTC_USD"))
	require.Nil(t, err)
	require.Len(t, orders, 6)
	assert.Equal(t, []string{"101", "102", "103", "105", "108", "113"}, prices(p.requests))
	for _, r := range p.requests {
		assert.Equal(t, "0.08333333", r.Amount.String())
		assert.Equal(t, "BTC_USD", r.Market)
		assert.Equal(t, "helper", r.Exchange)
	}
	assert.Equal(t, []string{"helper"}, p.syncs)

	// bids spend the quote commodity, sized in the base at the index
	p.requests = nil
	orders, err = s.FibFan(ctx, model.SideBid, amount.MustParse("100 USD"), ticker(t, s, "BTC_USD"))
	require.Nil(t, err)
	require.Len(t, orders, 6)
	assert.Equal(t, []string{"99", "98", "97", "95", "92", "87"}, prices(p.requests))
	assert.Equal(t, "0.16666667", p.requests[0].Amount.String())
}

func TestFibFanSingleRung(t *testing.T) {
	s, p := newStrategy(t)
	ctx := context.Background()

	orders, err := s.FibFan(ctx, model.SideBid, amount.MustParse("5.5 USD"), ticker(t, s, "BTC_USD"))
	require.Nil(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "95", p.requests[0].Price.String())
	assert.Equal(t, "0.055", p.requests[0].Amount.String())

	// with a 20 USD rung floor, 100 USD cannot be split either
	p.requests = nil
	s.MinOrder = dec("20")
	orders, err = s.FibFan(ctx, model.SideAsk, amount.MustParse("1 BTC"), ticker(t, s, "BTC_USD"))
	require.Nil(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "105", p.requests[0].Price.String())
	assert.Equal(t, "1", p.requests[0].Amount.String())
}

func TestFibFanDust(t *testing.T) {
	s, p := newStrategy(t)
	ctx := context.Background()

	orders, err := s.FibFan(ctx, model.SideBid, amount.MustParse("1 USD"), ticker(t, s, "BTC_USD"))
	require.Nil(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, p.requests)
	assert.Empty(t, p.syncs)

	_, err = s.FibFan(ctx, model.SideAsk, amount.MustParse("1 ETH"), ticker(t, s, "BTC_USD"))
	assert.ErrorIs(t, err, market.ErrNoPrice)
	_, err = s.FibFan(ctx, "buy", amount.MustParse("10 USD"), ticker(t, s, "BTC_USD"))
	assert.ErrorIs(t, err, manager.ErrInvalidOrder)
}

func TestMarketMake(t *testing.T) {
	s, p := newStrategy(t)
	ctx := context.Background()
	p.available.Add(amount.MustParse("0.5 BTC"))
	p.available.Add(amount.MustParse("300 USD"))
	p.available.Add(amount.MustParse("0.001 DASH"))
	p.available.Add(amount.MustParse("3 ETH"))

	orders, err := s.MarketMake(ctx, "helper")
	require.Nil(t, err)
	require.Len(t, orders, 18)

	count := map[string]int{}
	for _, r := range p.requests {
		count[r.Market+" "+r.Side]++
	}
	assert.Equal(t, map[string]int{
		"BTC_USD ask":  6, // 0.375 BTC, the BTC_USD share of BTC volume
		"DASH_BTC bid": 6, // 0.125 BTC
		"BTC_USD bid":  6, // 300 USD
	}, count)

	for _, r := range p.requests {
		if r.Market == "BTC_USD" && r.Side == model.SideAsk {
			assert.Equal(t, "0.0625", r.Amount.String())
		}
	}
}

func TestRunAll(t *testing.T) {
	s, p := newStrategy(t)
	ctx := context.Background()
	p.available.Add(amount.MustParse("300 USD"))

	require.Nil(t, s.RunAll(ctx))
	assert.Len(t, p.requests, 6)

	p.requests = nil
	require.Nil(t, s.Market.KV.SetStatus(ctx, "helper", kv.StatusStopped))
	require.Nil(t, s.RunAll(ctx))
	assert.Empty(t, p.requests)
}
