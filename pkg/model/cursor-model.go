package model

// Nonce model
//
// Each insert yields the next nonce of an exchange api key, see plugin.Base.NextNonce.
type Nonce struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	Exchange string `json:"exchange" gorm:"omitempty; not null; type:varchar(32); index:idx_n_exchange_key;"`
	Key      string `json:"key" gorm:"omitempty; not null; type:varchar(80); index:idx_n_exchange_key;"`
}

// Cursor model
//
// Remembers how far a worker has synced a stream, so sync_trades, sync_credits and sync_debits
// resume where they stopped unless rescan is requested.
type Cursor struct {
	ID int64 `json:"id" gorm:"omitempty; primaryKey;"`

	App string `json:"app" gorm:"omitempty; not null; default:''; type:varchar(64); uniqueIndex:idx_app_key;"` // exchange name
	Key string `json:"key" gorm:"omitempty; not null; default:''; type:varchar(64); uniqueIndex:idx_app_key;"` // e.g. trades_BTC_USD
	Val int64  `json:"val" gorm:"omitempty; not null; default:0;"`

	Model
}

const (
	CURSOR_K_TRADES  = "trades"
	CURSOR_K_CREDITS = "credits"
	CURSOR_K_DEBITS  = "debits"
)
