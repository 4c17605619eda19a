// Package helper is a fake exchange for local runs and tests. Orders use the default
// persistence of plugin.Base; tickers, balances, trades, credits and debits are made up.
package helper

import (
	"context"
	"strings"
	"time"

	"trademan/pkg/model"
	"trademan/pkg/plugin"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const Name = "helper"

func init() {
	plugin.Register(Name, func(base *plugin.Base) plugin.Exchange {
		return New(base)
	})
}

type FakeBalance struct {
	Total     decimal.Decimal
	Available decimal.Decimal
}

type Helper struct {
	*plugin.Base

	// Tickers overrides the fixed ticker per market.
	Tickers  map[string]model.Ticker
	Balances map[string]FakeBalance
}

func New(base *plugin.Base) *Helper {
	return &Helper{
		Base:    base,
		Tickers: map[string]model.Ticker{},
		Balances: map[string]FakeBalance{
			"BTC": {Total: decimal.NewFromInt(1), Available: decimal.NewFromInt(1)},
			"USD": {Total: decimal.NewFromInt(1000), Available: decimal.NewFromInt(900)},
		},
	}
}

// MakeBaseID returns a random native id such as tid4f1c2b9a0e.
func MakeBaseID() string {
	return "tid" + strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
}

func (h *Helper) SyncBook(ctx context.Context, market string) error {
	return nil
}

func (h *Helper) SyncTicker(ctx context.Context, market string) error {
	market = strings.ToUpper(market)
	t, ok := h.Tickers[market]
	if !ok {
		t = model.Ticker{
			Bid:    decimal.NewFromInt(99),
			Ask:    decimal.NewFromInt(101),
			High:   decimal.NewFromInt(110),
			Low:    decimal.NewFromInt(90),
			Volume: decimal.NewFromInt(1000),
			Last:   decimal.NewFromInt(100),
		}
	}
	t.Market = market
	t.Time = time.Now().UTC()
	return h.SetTicker(ctx, &t)
}

func (h *Helper) SyncBalances(ctx context.Context) error {
	for currency, bal := range h.Balances {
		available := bal.Available
		err := h.UpdateBalance(ctx, currency, bal.Total, &available, h.Name())
		if err != nil {
			return err
		}
	}
	return nil
}

// SyncTrades records one fake fill per call.
func (h *Helper) SyncTrades(ctx context.Context, market string, rescan bool) error {
	if market == "" {
		market = "BTC_USD"
	}
	key := model.CURSOR_K_TRADES + "_" + strings.ToUpper(market)
	if rescan {
		h.Logger.Infof("rescan %s from the start", key)
		if err := h.SetCursor(ctx, key, 0); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	_, err := h.AddTrade(ctx, plugin.TradeParams{
		Market:   market,
		NativeID: MakeBaseID(),
		Side:     model.TradeSideBuy,
		Price:    decimal.NewFromInt(100),
		Amount:   decimal.RequireFromString("0.01"),
		Fee:      decimal.Zero,
		FeeSide:  model.FeeSideQuote,
		Time:     now,
	})
	if err != nil {
		return err
	}
	return h.SetCursor(ctx, key, now.Unix())
}

func (h *Helper) SyncCredits(ctx context.Context, rescan bool) error {
	_, err := h.AddCredit(ctx, plugin.WalletParams{
		RefID:    MakeBaseID(),
		Amount:   decimal.NewFromInt(1),
		Currency: "BTC",
		Network:  "Bitcoin",
		Status:   model.WalletStatusUnconfirmed,
		Address:  MakeBaseID(),
	})
	return err
}

func (h *Helper) SyncDebits(ctx context.Context, rescan bool) error {
	_, err := h.AddDebit(ctx, plugin.WalletParams{
		RefID:    MakeBaseID(),
		Amount:   decimal.NewFromInt(1),
		Fee:      decimal.Zero,
		Currency: "BTC",
		Network:  "Bitcoin",
		Status:   model.WalletStatusUnconfirmed,
		Address:  MakeBaseID(),
	})
	return err
}
