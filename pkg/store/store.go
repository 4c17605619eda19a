// Package store holds the typed queries over the models. Every function takes the handle it
// runs on, so callers pass the transaction explicitly.
package store

import (
	"context"
	"errors"
	"strings"

	"trademan/pkg/amount"
	"trademan/pkg/model"
	"trademan/pkg/xlog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var logger = xlog.GetLogger()

// Transaction runs fn in one transaction. A failed fn or commit is logged and rolled back,
// and the error is returned to the caller, who has to re-issue the operation.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	defer func() {
		if err != nil {
			logger.Errorf("transaction rolled back, err:%s", err)
		}
	}()
	return db.WithContext(ctx).Transaction(fn)
}

// OrderFilter selects orders; zero fields are ignored.
type OrderFilter struct {
	ID       int64
	OrderID  string // bare native id or "<prefix>|<native id>"
	Exchange string
	Market   string
	Side     string
	State    model.OrderState
	NotState model.OrderState

	// Price matches exactly, or with Side set selects bids above and asks below it.
	Price *decimal.Decimal
}

func (f OrderFilter) apply(tx *gorm.DB) *gorm.DB {
	exchange := strings.ToLower(f.Exchange)
	if f.ID != 0 {
		tx = tx.Where("id = ?", f.ID)
	}
	if f.OrderID != "" {
		prefix, native := model.SplitOrderID(exchange, f.OrderID)
		tx = tx.Where("native_id = ?", native)
		if prefix == model.TmpPrefix {
			tx = tx.Where("state = ?", model.OrderStatePending)
		} else {
			tx = tx.Where("exchange = ? AND state <> ?", prefix, model.OrderStatePending)
		}
	}
	if exchange != "" {
		tx = tx.Where("exchange = ?", exchange)
	}
	if f.Market != "" {
		tx = tx.Where("market = ?", strings.ToUpper(f.Market))
	}
	if f.Side != "" {
		tx = tx.Where("side = ?", f.Side)
	}
	if f.State != "" {
		tx = tx.Where("state = ?", f.State)
	}
	if f.NotState != "" {
		tx = tx.Where("state <> ?", f.NotState)
	}
	if f.Price != nil {
		switch f.Side {
		case model.SideBid:
			tx = tx.Where("price > ?", *f.Price)
		case model.SideAsk:
			tx = tx.Where("price < ?", *f.Price)
		default:
			tx = tx.Where("price = ?", *f.Price)
		}
	}
	return tx
}

func GetOrders(tx *gorm.DB, f OrderFilter) (orders []model.Order, err error) {
	err = f.apply(tx.Model(&model.Order{})).Order("id").Find(&orders).Error
	return
}

// GetOrder returns the first matching order, nil when there is none.
func GetOrder(tx *gorm.DB, f OrderFilter) (*model.Order, error) {
	o := model.Order{}
	err := f.apply(tx.Model(&model.Order{})).Order("id").First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type TradeFilter struct {
	ID       int64
	TradeID  string // bare native id or "<exchange>|<native id>"
	Exchange string
	Market   string
}

func GetTrades(tx *gorm.DB, f TradeFilter) (trades []model.Trade, err error) {
	q := tx.Model(&model.Trade{})
	exchange := strings.ToLower(f.Exchange)
	if f.ID != 0 {
		q = q.Where("id = ?", f.ID)
	}
	if f.TradeID != "" {
		q = q.Where("trade_id = ?", model.TradeID(exchange, f.TradeID))
	}
	if exchange != "" {
		q = q.Where("exchange = ?", exchange)
	}
	if f.Market != "" {
		q = q.Where("market = ?", strings.ToUpper(f.Market))
	}
	err = q.Order("id").Find(&trades).Error
	return
}

// WalletFilter selects credits or debits.
type WalletFilter struct {
	RefID     string
	Reference string // exchange name
	Address   string
	Currency  string
}

func (f WalletFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.RefID != "" {
		tx = tx.Where("ref_id = ?", f.RefID)
	}
	if f.Reference != "" {
		tx = tx.Where("reference = ?", strings.ToLower(f.Reference))
	}
	if f.Address != "" {
		tx = tx.Where("address = ?", f.Address)
	}
	if f.Currency != "" {
		tx = tx.Where("currency = ?", strings.ToUpper(f.Currency))
	}
	return tx
}

func GetCredits(tx *gorm.DB, f WalletFilter) (credits []model.Credit, err error) {
	err = f.apply(tx.Model(&model.Credit{})).Order("id").Find(&credits).Error
	return
}

func GetDebits(tx *gorm.DB, f WalletFilter) (debits []model.Debit, err error) {
	err = f.apply(tx.Model(&model.Debit{})).Order("id").Find(&debits).Error
	return
}

// GetBalances sums the balance rows of an exchange's manager user, or of every user when
// exchange is empty.
func GetBalances(tx *gorm.DB, exchange string) (total, available *amount.Balance, err error) {
	var rows []model.Balance
	q := tx.Model(&model.Balance{})
	if exchange != "" {
		q = q.Joins("JOIN users ON users.id = balances.user_id").
			Where("users.username = ?", model.ManagerUsername(exchange))
	}
	err = q.Find(&rows).Error
	if err != nil {
		return
	}

	total, available = amount.NewBalance(), amount.NewBalance()
	for _, r := range rows {
		total.Add(amount.New(r.Total, r.Currency))
		available.Add(amount.New(r.Available, r.Currency))
	}
	return
}

// GetUser returns the user named username, nil when absent.
func GetUser(tx *gorm.DB, username string) (*model.User, error) {
	u := model.User{}
	err := tx.Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
