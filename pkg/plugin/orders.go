package plugin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trademan/pkg/model"
	"trademan/pkg/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateOrder confirms the pending order oid without calling out. Exchanges that submit
// to a venue override it, submit first, then call ConfirmOrder with the venue's id.
func (b *Base) CreateOrder(ctx context.Context, oid int64) (*model.Order, error) {
	return b.ConfirmOrder(ctx, oid, "")
}

// ConfirmOrder moves the pending order oid to open, replacing its native id when nativeID
// is set. It returns nil when the order does not exist.
func (b *Base) ConfirmOrder(ctx context.Context, oid int64, nativeID string) (order *model.Order, err error) {
	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		o, err := store.GetOrder(tx, store.OrderFilter{ID: oid, Exchange: b.name})
		if err != nil || o == nil {
			return err
		}
		order = o
		if o.State != model.OrderStatePending {
			b.Logger.Warningf("create_order %d ignored, order is %s", oid, o.State)
			return nil
		}

		updates := map[string]interface{}{
			"state":       model.OrderStateOpen,
			"change_time": time.Now().UTC(),
		}
		if nativeID != "" {
			updates["native_id"] = nativeID
		}
		if err = tx.Model(o).Updates(updates).Error; err != nil {
			return err
		}
		b.Logger.Debugf("created order %d: %s", o.ID, o.OrderID())
		return nil
	})
	if err != nil {
		order = nil
	}
	if order == nil && err == nil {
		b.Logger.Warningf("create_order %d: order not found", oid)
	}
	return
}

// CancelOrders closes every non closed order matching f. With f.Side set, every touched
// order must be on that side. Nothing matching is not an error.
func (b *Base) CancelOrders(ctx context.Context, f CancelFilter) error {
	return store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		orders, err := store.GetOrders(tx, store.OrderFilter{
			ID:       f.OID,
			OrderID:  f.OrderID,
			Exchange: b.name,
			Side:     f.Side,
			Market:   f.Market,
			Price:    f.Price,
			NotState: model.OrderStateClosed,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for i := range orders {
			o := &orders[i]
			if f.Side != "" && o.Side != f.Side {
				return fmt.Errorf("%w: cancel %s orders touched %s order %d", ErrInvariant, f.Side, o.Side, o.ID)
			}
			err = tx.Model(o).Updates(map[string]interface{}{
				"state":       model.OrderStateClosed,
				"change_time": now,
			}).Error
			if err != nil {
				return err
			}
			b.Logger.Debugf("order closed %d: %s", o.ID, o.OrderID())
		}
		return nil
	})
}

// SyncOrders is the full refresh for exchanges that only report the still open set: every
// open order is closed and every pending order becomes open.
func (b *Base) SyncOrders(ctx context.Context, market string) error {
	return store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		scope := func(state model.OrderState) *gorm.DB {
			q := tx.Model(&model.Order{}).Where("exchange = ? AND state = ?", b.name, state)
			if market != "" {
				q = q.Where("market = ?", strings.ToUpper(market))
			}
			return q
		}

		res := scope(model.OrderStateOpen).Updates(map[string]interface{}{
			"state":       model.OrderStateClosed,
			"change_time": now,
		})
		if res.Error != nil {
			return res.Error
		}
		closed := res.RowsAffected

		res = scope(model.OrderStatePending).Updates(map[string]interface{}{
			"state":       model.OrderStateOpen,
			"change_time": now,
		})
		if res.Error != nil {
			return res.Error
		}
		b.Logger.Debugf("sync orders market:%q closed:%d opened:%d", market, closed, res.RowsAffected)
		return nil
	})
}

// OrderParams describes an order reported by an exchange.
type OrderParams struct {
	Price      decimal.Decimal
	Amount     decimal.Decimal
	Market     string
	Side       string
	NativeID   string // generated when empty
	CreateTime time.Time
	ChangeTime time.Time
	ExecAmount decimal.Decimal
	State      model.OrderState // pending when empty
}

// AddOrder inserts or updates the order (exchange, NativeID). An update never changes the
// market or side, and is skipped when state and executed amount are unchanged. States only
// move forward: a closed order is never reopened and an open one never goes back to pending.
func (b *Base) AddOrder(ctx context.Context, p OrderParams) (order *model.Order, err error) {
	if p.State == "" {
		p.State = model.OrderStatePending
	}
	if p.NativeID == "" {
		p.NativeID = uuid.New().String()
	}
	now := time.Now().UTC()
	if p.CreateTime.IsZero() {
		p.CreateTime = now
	}
	if p.ChangeTime.IsZero() {
		p.ChangeTime = now
	}
	p.Market = strings.ToUpper(p.Market)

	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		o := model.Order{}
		res := tx.Where("exchange = ? AND native_id = ?", b.name, p.NativeID).Limit(1).Find(&o)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			o = model.Order{
				NativeID:   p.NativeID,
				Exchange:   b.name,
				State:      p.State,
				Market:     p.Market,
				Side:       p.Side,
				Price:      p.Price,
				Amount:     p.Amount,
				ExecAmount: p.ExecAmount,
				CreateTime: p.CreateTime.UTC(),
				ChangeTime: p.ChangeTime.UTC(),
			}
			if err := tx.Create(&o).Error; err != nil {
				return err
			}
			order = &o
			return nil
		}

		if o.Market != p.Market || o.Side != p.Side {
			return fmt.Errorf("%w: order %s was %s %s, now reported %s %s",
				ErrInvariant, o.OrderID(), o.Market, o.Side, p.Market, p.Side)
		}
		order = &o
		if o.State == p.State && o.ExecAmount.Equal(p.ExecAmount) {
			return nil
		}
		if o.State == model.OrderStateClosed || p.State.Rank() < o.State.Rank() {
			b.Logger.Warningf("order %s is %s, ignore reported state %s", o.OrderID(), o.State, p.State)
			return nil
		}

		o.State = p.State
		o.ExecAmount = p.ExecAmount
		o.ChangeTime = p.ChangeTime.UTC()
		return tx.Model(&o).Updates(map[string]interface{}{
			"state":       o.State,
			"exec_amount": o.ExecAmount,
			"change_time": o.ChangeTime,
		}).Error
	})
	if err != nil {
		order = nil
	}
	return
}

// CancelStaleOrders cancels, in every active market with a cached ticker, the bids priced
// above and the asks priced below the index price.
func CancelStaleOrders(ctx context.Context, ex Exchange) error {
	b := ex.Core()
	markets, err := b.ActiveMarkets(ctx)
	if err != nil {
		return err
	}

	for _, market := range markets {
		t, err := b.KV.GetTicker(ctx, b.Name(), market)
		if err != nil {
			return err
		}
		if t == nil {
			b.Logger.Debugf("no ticker for %s, skip stale orders", market)
			continue
		}
		index := t.Index()
		if !index.IsPositive() {
			continue
		}
		for _, side := range []string{model.SideBid, model.SideAsk} {
			err = ex.CancelOrders(ctx, CancelFilter{Market: market, Side: side, Price: &index})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
