package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trademan/pkg/model"
	"trademan/pkg/model/dbtest"
	"trademan/pkg/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrders(t *testing.T, db *gorm.DB) {
	now := time.Now().UTC()
	orders := []model.Order{
		{NativeID: "p1", Exchange: "helper", State: model.OrderStatePending, Market: "BTC_USD", Side: model.SideBid, Price: decimal.NewFromInt(90)},
		{NativeID: "o1", Exchange: "helper", State: model.OrderStateOpen, Market: "BTC_USD", Side: model.SideBid, Price: decimal.NewFromInt(110)},
		{NativeID: "o2", Exchange: "helper", State: model.OrderStateOpen, Market: "BTC_USD", Side: model.SideAsk, Price: decimal.NewFromInt(95)},
		{NativeID: "o3", Exchange: "kraken", State: model.OrderStateOpen, Market: "DASH_BTC", Side: model.SideAsk, Price: decimal.NewFromInt(1)},
	}
	for i := range orders {
		orders[i].CreateTime, orders[i].ChangeTime = now, now
		require.Nil(t, db.Create(&orders[i]).Error)
	}
}

func TestGetOrders(t *testing.T) {
	db := dbtest.Open(t)
	seedOrders(t, db)

	orders, err := store.GetOrders(db, store.OrderFilter{Exchange: "Helper"})
	require.Nil(t, err)
	assert.Len(t, orders, 3)

	o, err := store.GetOrder(db, store.OrderFilter{Exchange: "helper", OrderID: "o1"})
	require.Nil(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "helper|o1", o.OrderID())

	o, err = store.GetOrder(db, store.OrderFilter{OrderID: "tmp|p1"})
	require.Nil(t, err)
	require.NotNil(t, o)
	assert.Equal(t, model.OrderStatePending, o.State)

	// pending orders are not found under the exchange prefix
	o, err = store.GetOrder(db, store.OrderFilter{OrderID: "helper|p1"})
	require.Nil(t, err)
	assert.Nil(t, o)

	o, err = store.GetOrder(db, store.OrderFilter{ID: 999})
	require.Nil(t, err)
	assert.Nil(t, o)

	p := decimal.NewFromInt(100)
	orders, err = store.GetOrders(db, store.OrderFilter{Exchange: "helper", Side: model.SideBid, Price: &p})
	require.Nil(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].NativeID)

	orders, err = store.GetOrders(db, store.OrderFilter{Exchange: "helper", Side: model.SideAsk, Price: &p})
	require.Nil(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o2", orders[0].NativeID)

	orders, err = store.GetOrders(db, store.OrderFilter{Market: "dash_btc", NotState: model.OrderStateClosed})
	require.Nil(t, err)
	assert.Len(t, orders, 1)
}

func TestGetTradesAndWallet(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now().UTC()
	require.Nil(t, db.Create(&model.Trade{TradeID: "helper|t1", Exchange: "helper", Market: "BTC_USD", Side: "buy", FeeSide: "quote", Time: now}).Error)
	require.Nil(t, db.Create(&model.Credit{RefID: "c1", Reference: "helper", Currency: "BTC", Address: "a1", Time: now}).Error)
	require.Nil(t, db.Create(&model.Debit{RefID: "d1", Reference: "helper", Currency: "BTC", Time: now}).Error)

	trades, err := store.GetTrades(db, store.TradeFilter{Exchange: "helper", TradeID: "t1"})
	require.Nil(t, err)
	assert.Len(t, trades, 1)

	trades, err = store.GetTrades(db, store.TradeFilter{Market: "DASH_BTC"})
	require.Nil(t, err)
	assert.Len(t, trades, 0)

	credits, err := store.GetCredits(db, store.WalletFilter{Reference: "helper", Address: "a1", Currency: "btc"})
	require.Nil(t, err)
	assert.Len(t, credits, 1)

	debits, err := store.GetDebits(db, store.WalletFilter{RefID: "nope"})
	require.Nil(t, err)
	assert.Len(t, debits, 0)
}

func TestGetBalances(t *testing.T) {
	db := dbtest.Open(t)
	u := model.User{Username: model.ManagerUsername("helper")}
	require.Nil(t, db.Create(&u).Error)
	other := model.User{Username: model.ManagerUsername("kraken")}
	require.Nil(t, db.Create(&other).Error)

	now := time.Now().UTC()
	require.Nil(t, db.Create(&model.Balance{UserID: u.ID, Currency: "BTC", Total: decimal.NewFromInt(2), Available: decimal.NewFromInt(1), Time: now}).Error)
	require.Nil(t, db.Create(&model.Balance{UserID: other.ID, Currency: "BTC", Total: decimal.NewFromInt(5), Available: decimal.NewFromInt(5), Time: now}).Error)

	total, available, err := store.GetBalances(db, "helper")
	require.Nil(t, err)
	assert.Equal(t, "2.00000000 BTC", total.String())
	assert.Equal(t, "1.00000000 BTC", available.String())

	total, _, err = store.GetBalances(db, "")
	require.Nil(t, err)
	assert.Equal(t, "7.00000000 BTC", total.String())

	user, err := store.GetUser(db, "NobodyManager")
	require.Nil(t, err)
	assert.Nil(t, user)
}

func TestTransactionRollback(t *testing.T) {
	db := dbtest.Open(t)
	boom := errors.New("boom")
	err := store.Transaction(context.Background(), db, func(tx *gorm.DB) error {
		require.Nil(t, tx.Create(&model.User{Username: "tmpuser"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.GetUser(db, "tmpuser")
	require.Nil(t, err)
	assert.Nil(t, user)
}
