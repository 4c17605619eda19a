package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trademan/pkg/amount"
	"trademan/pkg/bus"
	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/model"
	"trademan/pkg/xlog"

	"github.com/shopspring/decimal"
)

const (
	USD = "USD"
	BTC = "BTC"
)

// ErrNoPrice is returned when no ticker can price a market. A zero price is a valid
// outcome and is never used to signal this.
var ErrNoPrice = errors.New("no price")

var logger = xlog.GetLogger()

// Aggregator prices markets from the tickers the workers cache.
type Aggregator struct {
	KV  *kv.KV
	Cfg *config.Config
}

func New(k *kv.KV, cfg *config.Config) *Aggregator {
	return &Aggregator{KV: k, Cfg: cfg}
}

// ActiveMarkets returns the markets exchange advertises, falling back to its live pairs.
func (a *Aggregator) ActiveMarkets(ctx context.Context, exchange string) ([]string, error) {
	exchange = strings.ToLower(exchange)
	return a.KV.ActiveMarkets(ctx, exchange, a.Cfg.Exchanges[exchange].LivePairs)
}

// PreferredExchange resolves which exchange prices market: the KV key first, then the
// config map, then the first running worker advertising the market. It returns "" when
// nothing matches.
func (a *Aggregator) PreferredExchange(ctx context.Context, market string) (string, error) {
	market = strings.ToUpper(market)

	name, err := a.KV.PreferredExchange(ctx, market)
	if err != nil || name != "" {
		return name, err
	}
	if name, ok := a.Cfg.PreferredExchanges[market]; ok {
		return name, nil
	}

	running, err := bus.RunningWorkers(ctx, a.KV, a.Cfg.ExchangeNames())
	if err != nil {
		return "", err
	}
	for _, ex := range running {
		markets, err := a.ActiveMarkets(ctx, ex)
		if err != nil {
			return "", err
		}
		for _, m := range markets {
			if strings.ToUpper(m) == market {
				return ex, nil
			}
		}
	}
	return "", nil
}

// GetTicker returns the cached ticker of market on exchange, or on the preferred exchange
// when exchange is empty. A missing X_USD ticker is synthesized from X_BTC and BTC_USD.
func (a *Aggregator) GetTicker(ctx context.Context, exchange, market string) (t *model.Ticker, err error) {
	market = strings.ToUpper(market)

	ex := strings.ToLower(exchange)
	if ex == "" {
		ex, err = a.PreferredExchange(ctx, market)
		if err != nil {
			return nil, err
		}
	}
	if ex != "" {
		t, err = a.KV.GetTicker(ctx, ex, market)
		if err != nil || t != nil {
			return t, err
		}
	}

	base, quote := model.SplitMarket(market)
	if quote != USD || base == BTC || base == USD {
		return nil, fmt.Errorf("%w: %s %s", ErrNoPrice, ex, market)
	}

	hop, err := a.GetTicker(ctx, "", base+"_"+BTC)
	if err != nil {
		return nil, err
	}
	btc, err := a.GetTicker(ctx, "", BTC+"_"+USD)
	if err != nil {
		return nil, err
	}
	return Cross(hop, btc), nil
}

// Cross multiplies a BASE_BTC ticker by a BTC_USD ticker into a BASE_USD ticker.
func Cross(hop, btc *model.Ticker) *model.Ticker {
	base, _ := model.SplitMarket(hop.Market)
	tm := hop.Time
	if btc.Time.Before(tm) {
		tm = btc.Time
	}
	return &model.Ticker{
		Bid:      hop.Bid.Mul(btc.Bid),
		Ask:      hop.Ask.Mul(btc.Ask),
		High:     hop.High.Mul(btc.High),
		Low:      hop.Low.Mul(btc.Low),
		Last:     hop.Last.Mul(btc.Last),
		Volume:   hop.Volume,
		Market:   base + "_" + USD,
		Exchange: hop.Exchange,
		Time:     tm,
	}
}

// USDIndex is the USD price of one unit of commodity.
func (a *Aggregator) USDIndex(ctx context.Context, commodity string) (decimal.Decimal, error) {
	commodity = strings.ToUpper(commodity)
	if commodity == USD {
		return decimal.NewFromInt(1), nil
	}
	t, err := a.GetTicker(ctx, "", commodity+"_"+USD)
	if err != nil {
		return decimal.Zero, err
	}
	return t.Index(), nil
}

// USDValue converts amt to USD at the current index.
func (a *Aggregator) USDValue(ctx context.Context, amt amount.Amount) (amount.Amount, error) {
	idx, err := a.USDIndex(ctx, amt.Commodity)
	if err != nil {
		return amount.Zero(USD), err
	}
	return amt.Convert(amount.New(idx, USD)), nil
}

// USDVolume is the ticker's volume in USD, scaled by the weights of both commodities.
func (a *Aggregator) USDVolume(ctx context.Context, t *model.Ticker) (vol decimal.Decimal, err error) {
	base, quote := model.SplitMarket(t.Market)

	switch {
	case quote == USD:
		vol = t.Volume.Mul(t.Index())
	case base == USD:
		vol = t.Volume
	default:
		idx, err := a.USDIndex(ctx, base)
		if err != nil {
			return decimal.Zero, err
		}
		vol = t.Volume.Mul(idx)
	}

	for _, c := range []string{base, quote} {
		cc, err := a.KV.CommodityConfig(ctx, c)
		if err != nil {
			return decimal.Zero, err
		}
		vol = vol.Mul(cc.Weight)
	}
	return vol, nil
}

// VolShare is one market's part of an exchange's USD volume in some commodity.
type VolShare struct {
	Market    string
	Ticker    *model.Ticker
	USDVolume decimal.Decimal
	Share     decimal.Decimal
}

// VolumeShares splits the USD volume of exchange's active markets that trade commodity.
// Markets with no cached ticker or no USD price are left out.
func (a *Aggregator) VolumeShares(ctx context.Context, exchange, commodity string) (shares []VolShare, err error) {
	exchange = strings.ToLower(exchange)
	commodity = strings.ToUpper(commodity)

	markets, err := a.ActiveMarkets(ctx, exchange)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, m := range markets {
		m = strings.ToUpper(m)
		base, quote := model.SplitMarket(m)
		if base != commodity && quote != commodity {
			continue
		}
		t, err := a.KV.GetTicker(ctx, exchange, m)
		if err != nil {
			return nil, err
		}
		if t == nil {
			logger.Debugf("no ticker for %s %s", exchange, m)
			continue
		}
		vol, err := a.USDVolume(ctx, t)
		if errors.Is(err, ErrNoPrice) {
			logger.Debugf("no usd volume for %s %s: %v", exchange, m, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		total = total.Add(vol)
		shares = append(shares, VolShare{Market: m, Ticker: t, USDVolume: vol})
	}

	if !total.IsPositive() {
		return nil, nil
	}
	for i := range shares {
		shares[i].Share = shares[i].USDVolume.Div(total)
	}
	return shares, nil
}

