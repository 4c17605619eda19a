// Package strategy places the market making ladders. Holdings of a commodity are split
// across the exchange's markets by USD volume, and every leg is fanned out over a
// fibonacci ladder around the market's index price.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"trademan/pkg/amount"
	"trademan/pkg/bus"
	"trademan/pkg/manager"
	"trademan/pkg/market"
	"trademan/pkg/model"
	"trademan/pkg/xlog"

	"github.com/shopspring/decimal"
)

// FibSeq holds the rung offsets, in percent of the index price.
var FibSeq = []int64{1, 2, 3, 5, 8, 13}

// medianRung is the rung used when the amount is too small to split.
const medianRung = 3

var logger = xlog.GetLogger()

// Placer creates orders and refreshes balances, manager.Client is the usual one.
type Placer interface {
	CreateOrder(ctx context.Context, r manager.OrderRequest) (*model.Order, error)
	SyncBalances(ctx context.Context, exchange string) error
	GetBalances(ctx context.Context, exchange string) (total, available *amount.Balance, err error)
}

type Strategy struct {
	Market *market.Aggregator
	Placer Placer

	MinMM    decimal.Decimal // USD, smaller holdings are left alone
	MinOrder decimal.Decimal // USD, smallest order and smallest rung
}

func New(agg *market.Aggregator, p Placer) *Strategy {
	return &Strategy{
		Market:   agg,
		Placer:   p,
		MinMM:    agg.Cfg.Strategy.MinMMDecimal(),
		MinOrder: agg.Cfg.Strategy.MinOrderDecimal(),
	}
}

// RungPrice is index moved away from the book by fib percent: up for asks, down for bids.
func RungPrice(side string, index decimal.Decimal, fib int64) decimal.Decimal {
	offset := decimal.New(fib, -2)
	if side == model.SideBid {
		return index.Mul(decimal.NewFromInt(1).Sub(offset)).Round(amount.Places)
	}
	return index.Mul(decimal.NewFromInt(1).Add(offset)).Round(amount.Places)
}

// FibFan places amt on t's market as a ladder. Asks spend the base commodity, bids the
// quote commodity. An amount worth no more than MinOrder is skipped; one whose rungs would
// each be worth no more than MinOrder becomes a single order on the median rung.
func (s *Strategy) FibFan(ctx context.Context, side string, amt amount.Amount, t *model.Ticker) (orders []*model.Order, err error) {
	defer func() {
		if err != nil {
			logger.Errorf("fib fan %s %s on %s %s failed, err:%s", side, amt, t.Exchange, t.Market, err)
		}
	}()

	if side != model.SideBid && side != model.SideAsk {
		return nil, fmt.Errorf("%w: side %q", manager.ErrInvalidOrder, side)
	}
	usd, err := s.Market.USDValue(ctx, amt)
	if err != nil {
		return nil, err
	}
	if usd.Value.LessThanOrEqual(s.MinOrder) {
		logger.Infof("skip dust %s (%s) on %s %s", amt, usd, t.Exchange, t.Market)
		return nil, nil
	}

	index := t.Index()
	if !index.IsPositive() {
		return nil, fmt.Errorf("%w: %s %s index %s", market.ErrNoPrice, t.Exchange, t.Market, index)
	}

	rungs := FibSeq
	total := amt.Value
	n := decimal.NewFromInt(int64(len(FibSeq)))
	if usd.Value.Div(n).LessThanOrEqual(s.MinOrder) {
		rungs = FibSeq[medianRung : medianRung+1]
	} else {
		total = total.Div(n)
	}

	for _, fib := range rungs {
		price := RungPrice(side, index, fib)
		size := total
		if side == model.SideBid {
			size = size.Div(index)
		}
		o, err := s.Placer.CreateOrder(ctx, manager.OrderRequest{
			Exchange: t.Exchange,
			Market:   t.Market,
			Side:     side,
			Price:    price,
			Amount:   size.Round(amount.Places),
		})
		if err != nil {
			return orders, err
		}
		orders = append(orders, o)
	}

	err = s.Placer.SyncBalances(ctx, t.Exchange)
	return
}

// MarketMake fans out every holding of exchange worth more than MinMM over the markets
// trading it: a sell leg where it is the base, a buy leg where it is the quote.
func (s *Strategy) MarketMake(ctx context.Context, exchange string) (orders []*model.Order, err error) {
	_, available, err := s.Placer.GetBalances(ctx, exchange)
	if err != nil {
		return nil, err
	}

	for _, held := range available.Amounts() {
		usd, err := s.Market.USDValue(ctx, held)
		if errors.Is(err, market.ErrNoPrice) {
			logger.Warningf("%s %s has no usd price, skip it", exchange, held.Commodity)
			continue
		}
		if err != nil {
			return orders, err
		}
		if usd.Value.LessThanOrEqual(s.MinMM) {
			logger.Debugf("%s %s worth %s, not market made", exchange, held, usd)
			continue
		}

		shares, err := s.Market.VolumeShares(ctx, exchange, held.Commodity)
		if err != nil {
			return orders, err
		}
		for _, share := range shares {
			base, quote := model.SplitMarket(share.Market)
			leg := held.MulDec(share.Share)

			var placed []*model.Order
			switch held.Commodity {
			case base:
				placed, err = s.FibFan(ctx, model.SideAsk, leg, share.Ticker)
			case quote:
				placed, err = s.FibFan(ctx, model.SideBid, leg, share.Ticker)
			}
			orders = append(orders, placed...)
			if err != nil {
				return orders, err
			}
		}
	}
	return orders, nil
}

// RunAll market makes every running worker, in turn.
func (s *Strategy) RunAll(ctx context.Context) error {
	running, err := bus.RunningWorkers(ctx, s.Market.KV, s.Market.Cfg.ExchangeNames())
	if err != nil {
		return err
	}
	for _, ex := range running {
		orders, err := s.MarketMake(ctx, ex)
		if err != nil {
			return fmt.Errorf("market make %s: %w", ex, err)
		}
		logger.Infof("%s: placed %d orders", ex, len(orders))
	}
	return nil
}
