package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trademan/pkg/amount"
	"trademan/pkg/bus"
	"trademan/pkg/kv"
	"trademan/pkg/ledger"
	"trademan/pkg/market"
	"trademan/pkg/model"
	"trademan/pkg/store"
	"trademan/pkg/xlog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidOrder = errors.New("invalid order")

var logger = xlog.GetLogger()

// Client is the caller side of the workers: it reads the shared store and the KV side
// channel and publishes commands. Commands are fire and forget, use Poll to wait on
// their effect.
type Client struct {
	DB     *gorm.DB
	KV     *kv.KV
	Bus    bus.Bus
	Market *market.Aggregator
}

func New(db *gorm.DB, k *kv.KV, b bus.Bus, agg *market.Aggregator) *Client {
	return &Client{DB: db, KV: k, Bus: b, Market: agg}
}

func (c *Client) GetTicker(ctx context.Context, exchange, market string) (*model.Ticker, error) {
	return c.Market.GetTicker(ctx, exchange, market)
}

func (c *Client) GetOrders(ctx context.Context, f store.OrderFilter) ([]model.Order, error) {
	return store.GetOrders(c.DB.WithContext(ctx), f)
}

// GetOrder returns nil when no order matches.
func (c *Client) GetOrder(ctx context.Context, f store.OrderFilter) (*model.Order, error) {
	return store.GetOrder(c.DB.WithContext(ctx), f)
}

func (c *Client) GetTrades(ctx context.Context, f store.TradeFilter) ([]model.Trade, error) {
	return store.GetTrades(c.DB.WithContext(ctx), f)
}

func (c *Client) GetCredits(ctx context.Context, f store.WalletFilter) ([]model.Credit, error) {
	return store.GetCredits(c.DB.WithContext(ctx), f)
}

func (c *Client) GetDebits(ctx context.Context, f store.WalletFilter) ([]model.Debit, error) {
	return store.GetDebits(c.DB.WithContext(ctx), f)
}

func (c *Client) GetBalances(ctx context.Context, exchange string) (total, available *amount.Balance, err error) {
	return store.GetBalances(c.DB.WithContext(ctx), exchange)
}

func (c *Client) GetStatus(ctx context.Context, exchange string) (kv.Status, error) {
	return c.KV.GetStatus(ctx, exchange)
}

// MakeLedger renders the journal of exchange, or of every exchange when it is empty.
func (c *Client) MakeLedger(ctx context.Context, exchange string) (string, error) {
	return ledger.Make(c.DB.WithContext(ctx), exchange)
}

type OrderRequest struct {
	Exchange string
	Market   string
	Side     string
	Price    decimal.Decimal
	Amount   decimal.Decimal // base commodity
	Expire   time.Time       // zero for none
}

func (r OrderRequest) validate() error {
	if r.Exchange == "" || r.Market == "" {
		return fmt.Errorf("%w: exchange and market are required", ErrInvalidOrder)
	}
	if r.Side != model.SideBid && r.Side != model.SideAsk {
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, r.Side)
	}
	if !r.Price.IsPositive() || !r.Amount.IsPositive() {
		return fmt.Errorf("%w: price %s amount %s", ErrInvalidOrder, r.Price, r.Amount)
	}
	return nil
}

// InsertOrder stores a pending order without telling the worker.
func (c *Client) InsertOrder(ctx context.Context, r OrderRequest) (order *model.Order, err error) {
	if err = r.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	order = &model.Order{
		NativeID:   uuid.NewString(),
		Exchange:   strings.ToLower(r.Exchange),
		State:      model.OrderStatePending,
		Market:     strings.ToUpper(r.Market),
		Side:       r.Side,
		Price:      r.Price,
		Amount:     r.Amount,
		ExecAmount: decimal.Zero,
		CreateTime: now,
		ChangeTime: now,
	}
	err = store.Transaction(ctx, c.DB, func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder stores a pending order and asks its worker to submit it.
func (c *Client) CreateOrder(ctx context.Context, r OrderRequest) (*model.Order, error) {
	order, err := c.InsertOrder(ctx, r)
	if err != nil {
		return nil, err
	}
	if err = c.SubmitOrder(ctx, order.Exchange, order.ID, r.Expire); err != nil {
		return order, err
	}
	logger.Debugf("order %d %s %s %s@%s submitted to %s", order.ID, order.Side, order.Market,
		order.Amount, order.Price, order.Exchange)
	return order, nil
}

// SubmitOrder publishes create_order for the pending order oid.
func (c *Client) SubmitOrder(ctx context.Context, exchange string, oid int64, expire time.Time) error {
	p := bus.CreateOrder{OID: oid}
	if !expire.IsZero() {
		p.Expire = expire.Unix()
	}
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionCreateOrder, p)
}

// CancelOrders asks exchange to close the orders matching p. A bare order id is read as
// an id of exchange.
func (c *Client) CancelOrders(ctx context.Context, exchange string, p bus.CancelOrders) error {
	if p.OrderID != "" && !strings.Contains(p.OrderID, "|") {
		p.OrderID = strings.ToLower(exchange) + "|" + p.OrderID
	}
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionCancelOrders, p)
}

func (c *Client) SyncOrders(ctx context.Context, exchange string, p bus.SyncOrders) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncOrders, p)
}

// SyncTicker refreshes market, or every active market when it is empty.
func (c *Client) SyncTicker(ctx context.Context, exchange, market string) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncTicker, bus.SyncTicker{Market: market})
}

func (c *Client) SyncBalances(ctx context.Context, exchange string) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncBalances, bus.SyncBalances{})
}

func (c *Client) SyncTrades(ctx context.Context, exchange, market string, rescan bool) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncTrades, bus.SyncTrades{Market: market, Rescan: rescan})
}

func (c *Client) SyncCredits(ctx context.Context, exchange string, rescan bool) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncCredits, bus.SyncWallet{Rescan: rescan})
}

func (c *Client) SyncDebits(ctx context.Context, exchange string, rescan bool) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncDebits, bus.SyncWallet{Rescan: rescan})
}

func (c *Client) SyncBook(ctx context.Context, exchange, market string) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionSyncBook, bus.SyncBook{Market: market})
}

func (c *Client) CancelStaleOrders(ctx context.Context, exchange string) error {
	return bus.Publish(ctx, c.Bus, exchange, bus.ActionCancelStaleOrders, nil)
}

// WaitStatus polls until exchange reports status.
func (c *Client) WaitStatus(ctx context.Context, exchange string, status kv.Status, pc PollConfig) error {
	return Poll(ctx, pc, func(ctx context.Context) (bool, error) {
		s, err := c.KV.GetStatus(ctx, exchange)
		return s == status, err
	})
}

// WaitOrderState polls until the order oid reaches state.
func (c *Client) WaitOrderState(ctx context.Context, oid int64, state model.OrderState, pc PollConfig) (order *model.Order, err error) {
	err = Poll(ctx, pc, func(ctx context.Context) (bool, error) {
		o, err := c.GetOrder(ctx, store.OrderFilter{ID: oid})
		if err != nil || o == nil {
			return false, err
		}
		order = o
		return o.State == state, nil
	})
	return
}
