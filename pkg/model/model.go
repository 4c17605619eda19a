// Package model defines the database models, keeping the database and redis connection instances.
package model

import (
	"strings"
	"time"
)

type Model struct {
	CreatedAt time.Time `json:"createdAt" gorm:"omitempty; not null;"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"omitempty; not null;"`
}

// Sides of an order book entry
const (
	SideBid = "bid"
	SideAsk = "ask"
)

// Sides of a fill
const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"

	FeeSideBase  = "base"
	FeeSideQuote = "quote"
)

// SplitMarket returns the base and quote commodities of a BASE_QUOTE market.
func SplitMarket(market string) (base, quote string) {
	market = strings.ToUpper(market)
	i := strings.Index(market, "_")
	if i < 0 {
		return market, ""
	}
	return market[:i], market[i+1:]
}

// AllModels is the list migrated by Migrate.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Order{},
		&Trade{},
		&Credit{},
		&Debit{},
		&Balance{},
		&Nonce{},
		&Cursor{},
	}
}
