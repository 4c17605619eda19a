package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credit model, value moving into an exchange account (a deposit)
type Credit struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	RefID     string          `json:"refID" gorm:"omitempty; not null; type:varchar(128); uniqueIndex:idx_c_reference_ref;"`
	Reference string          `json:"reference" gorm:"omitempty; not null; type:varchar(32); uniqueIndex:idx_c_reference_ref;"` // exchange or account name
	Amount    decimal.Decimal `json:"amount" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Currency  string          `json:"currency" gorm:"omitempty; not null; type:varchar(8); index;"`
	Network   string          `json:"network" gorm:"omitempty; not null; type:varchar(32); default:'';"`
	Status    string          `json:"status" gorm:"omitempty; not null; type:varchar(16); default:'';"`
	Address   string          `json:"address" gorm:"omitempty; not null; type:varchar(128); default:''; index;"`
	UserID    int64           `json:"userID" gorm:"omitempty; not null; default:0; index;"`
	Time      time.Time       `json:"time" gorm:"omitempty; not null; index;"`

	Model
}

// Debit model, value leaving an exchange account (a withdrawal)
type Debit struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	RefID     string          `json:"refID" gorm:"omitempty; not null; type:varchar(128); uniqueIndex:idx_d_reference_ref;"`
	Reference string          `json:"reference" gorm:"omitempty; not null; type:varchar(32); uniqueIndex:idx_d_reference_ref;"`
	Amount    decimal.Decimal `json:"amount" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Fee       decimal.Decimal `json:"fee" gorm:"omitempty; not null; default:0; type:decimal(36,18);"`
	Currency  string          `json:"currency" gorm:"omitempty; not null; type:varchar(8); index;"`
	Network   string          `json:"network" gorm:"omitempty; not null; type:varchar(32); default:'';"`
	Status    string          `json:"status" gorm:"omitempty; not null; type:varchar(16); default:'';"`
	Address   string          `json:"address" gorm:"omitempty; not null; type:varchar(128); default:''; index;"`
	UserID    int64           `json:"userID" gorm:"omitempty; not null; default:0; index;"`
	Time      time.Time       `json:"time" gorm:"omitempty; not null; index;"`

	Model
}

// Status values of credits and debits
const (
	WalletStatusUnconfirmed = "unconfirmed"
	WalletStatusComplete    = "complete"
)
