package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trade model, immutable once inserted
type Trade struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	TradeID  string `json:"tradeID" gorm:"omitempty; not null; type:varchar(160); uniqueIndex;"` // <exchange>|<native id>
	Exchange string `json:"exchange" gorm:"omitempty; not null; type:varchar(32); index;"`
	Market   string `json:"market" gorm:"omitempty; not null; type:varchar(16); index;"`
	Side     string `json:"side" gorm:"omitempty; not null; type:varchar(4);"` // buy, sell

	Amount  decimal.Decimal `json:"amount" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Price   decimal.Decimal `json:"price" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Fee     decimal.Decimal `json:"fee" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	FeeSide string          `json:"feeSide" gorm:"omitempty; not null; type:varchar(5);"` // base, quote

	Time time.Time `json:"time" gorm:"omitempty; not null; index;"`

	Model
}

func TradeID(exchange, native string) string {
	if strings.Contains(native, "|") {
		return native
	}
	return strings.ToLower(exchange) + "|" + native
}
