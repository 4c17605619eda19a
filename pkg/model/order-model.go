package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderState string

const (
	OrderStatePending OrderState = "pending" // inserted by a caller, not yet confirmed by the worker
	OrderStateOpen    OrderState = "open"    // resting on the exchange
	OrderStateClosed  OrderState = "closed"  // cancelled or no longer reported by the exchange
)

// Rank orders the states along the only allowed direction, pending < open < closed.
func (s OrderState) Rank() int {
	switch s {
	case OrderStatePending:
		return 0
	case OrderStateOpen:
		return 1
	case OrderStateClosed:
		return 2
	}
	return -1
}

// TmpPrefix is the wire prefix of an order id while the order is pending.
const TmpPrefix = "tmp"

// Order model
//
// The wire id ("tmp|<native>" or "<exchange>|<native>") is derived from State and NativeID, see OrderID.
type Order struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	NativeID string     `json:"nativeID" gorm:"omitempty; not null; type:varchar(128); uniqueIndex:idx_o_exchange_native;"`
	Exchange string     `json:"exchange" gorm:"omitempty; not null; type:varchar(32); uniqueIndex:idx_o_exchange_native; index:idx_o_exchange_state;"`
	State    OrderState `json:"state" gorm:"omitempty; not null; type:varchar(8); index:idx_o_exchange_state;"`
	Market   string     `json:"market" gorm:"omitempty; not null; type:varchar(16); index;"`
	Side     string     `json:"side" gorm:"omitempty; not null; type:varchar(4);"` // bid, ask

	Price      decimal.Decimal `json:"price" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Amount     decimal.Decimal `json:"amount" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`     // base commodity
	ExecAmount decimal.Decimal `json:"execAmount" gorm:"omitempty; not null; default:0; type:decimal(36,18);"` // filled so far

	CreateTime time.Time `json:"createTime" gorm:"omitempty; not null;"`
	ChangeTime time.Time `json:"changeTime" gorm:"omitempty; not null;"`

	Model
}

// OrderID is the combined id exposed on the bus and to callers.
func (o *Order) OrderID() string {
	if o.State == OrderStatePending {
		return TmpPrefix + "|" + o.NativeID
	}
	return o.Exchange + "|" + o.NativeID
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		OrderID string `json:"orderID"`
	}{plain(o), o.OrderID()})
}

// SplitOrderID splits a wire id into its prefix and native id. A bare id is prefixed
// with exchange.
func SplitOrderID(exchange, id string) (prefix, native string) {
	i := strings.Index(id, "|")
	if i < 0 {
		return strings.ToLower(exchange), id
	}
	return id[:i], id[i+1:]
}
