package bus

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions understood by exchange workers
const (
	ActionCreateOrder  = "create_order"
	ActionCancelOrders = "cancel_orders"
	ActionSyncOrders   = "sync_orders"
	ActionSyncTicker   = "sync_ticker"
	ActionSyncBalances = "sync_balances"
	ActionSyncTrades   = "sync_trades"
	ActionSyncCredits  = "sync_credits"
	ActionSyncDebits   = "sync_debits"
	ActionSyncBook     = "sync_book"

	ActionCancelStaleOrders = "cancel_stale_orders"
)

var ErrUnknownAction = errors.New("unknown action")

// Command is the message published to a worker's channel.
type Command struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

func NewCommand(action string, payload interface{}) (cmd Command, err error) {
	if payload == nil {
		payload = struct{}{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	return Command{Action: action, Payload: b}, nil
}

// Decode reads the payload into v, an empty payload leaves v untouched.
func (c Command) Decode(v interface{}) error {
	if len(c.Payload) == 0 || string(c.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(c.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", c.Action, err)
	}
	return nil
}

type CreateOrder struct {
	OID    int64 `json:"oid"`
	Expire int64 `json:"expire,omitempty"` // unix seconds, 0 for none
}

type CancelOrders struct {
	OrderID string `json:"order_id,omitempty"`
	OID     int64  `json:"oid,omitempty"`
	Side    string `json:"side,omitempty"`
	Market  string `json:"market,omitempty"`
	Price   string `json:"price,omitempty"`
}

type SyncOrders struct {
	OID    int64  `json:"oid,omitempty"`
	Market string `json:"market,omitempty"`
}

type SyncTicker struct {
	Market string `json:"market,omitempty"`
}

type SyncBalances struct{}

type SyncTrades struct {
	Market string `json:"market,omitempty"`
	Rescan bool   `json:"rescan,omitempty"`
}

type SyncWallet struct {
	Rescan bool `json:"rescan,omitempty"`
}

type SyncBook struct {
	Market string `json:"market,omitempty"`
}
