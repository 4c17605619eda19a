package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is cached in redis, never stored in the database.
type Ticker struct {
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Volume decimal.Decimal `json:"volume"` // base commodity
	Last   decimal.Decimal `json:"last"`

	Market   string    `json:"market"`
	Exchange string    `json:"exchange"`
	Time     time.Time `json:"time"`
}

var two = decimal.NewFromInt(2)

// Index is the mid price, or the last price when one side of the book is empty.
func (t *Ticker) Index() decimal.Decimal {
	if t.Bid.IsPositive() && t.Ask.IsPositive() {
		return t.Bid.Add(t.Ask).Div(two)
	}
	return t.Last
}
