package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance model, one row per (manager user, currency)
type Balance struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	UserID   int64  `json:"userID" gorm:"omitempty; not null; default:0; uniqueIndex:idx_b_user_currency;"`
	Currency string `json:"currency" gorm:"omitempty; not null; type:varchar(8); uniqueIndex:idx_b_user_currency;"`

	Total     decimal.Decimal `json:"total" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Available decimal.Decimal `json:"available" gorm:"omitempty; not null; default:0; type:decimal(36,18);"` // never above Total
	Reference string          `json:"reference" gorm:"omitempty; not null; type:varchar(32); default:'';"`
	Time      time.Time       `json:"time" gorm:"omitempty; not null;"`

	Model
}
