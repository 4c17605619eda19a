// Package plugin is the contract every exchange worker implements, with the default
// behaviour shared by all of them in Base.
//
// Exchanges are registered explicitly with Register, usually from an init function of their
// package, and built with New.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"trademan/pkg/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotImplemented is returned by the actions an exchange did not override.
	ErrNotImplemented = errors.New("not implemented")
	// ErrInvariant flags a caller or integration bug, such as an upsert changing an order's side.
	ErrInvariant = errors.New("invariant violation")

	ErrUnknownExchange = errors.New("unknown exchange")
)

// CancelFilter selects the non closed orders to cancel; zero fields are ignored.
type CancelFilter struct {
	OID     int64
	OrderID string
	Side    string
	Market  string
	// Price matches exactly, or with Side set selects bids above and asks below it.
	Price *decimal.Decimal
}

// Exchange is the contract every exchange plugin implements on top of its Base.
type Exchange interface {
	Core() *Base
	Name() string

	CreateOrder(ctx context.Context, oid int64) (*model.Order, error)
	CancelOrders(ctx context.Context, f CancelFilter) error
	SyncOrders(ctx context.Context, market string) error
	SyncBalances(ctx context.Context) error
	SyncTicker(ctx context.Context, market string) error
	SyncTrades(ctx context.Context, market string, rescan bool) error
	SyncCredits(ctx context.Context, rescan bool) error
	SyncDebits(ctx context.Context, rescan bool) error
	SyncBook(ctx context.Context, market string) error

	FormatMarket(market string) string
	UnformatMarket(market string) string
	FormatCommodity(commodity string) string
	UnformatCommodity(commodity string) string
}

// BaseCommodity is the left side of a formatted market.
func BaseCommodity(ex Exchange, market string) string {
	base, _ := model.SplitMarket(ex.FormatMarket(market))
	return ex.FormatCommodity(base)
}

// QuoteCommodity is the right side of a formatted market.
func QuoteCommodity(ex Exchange, market string) string {
	_, quote := model.SplitMarket(ex.FormatMarket(market))
	return ex.FormatCommodity(quote)
}

// Factory builds a plugin around its shared Base.
type Factory func(base *Base) Exchange

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name = strings.ToLower(name)
	if _, dup := registry[name]; dup {
		panic("plugin: Register called twice for " + name)
	}
	registry[name] = f
}

// New builds the registered exchange named by base.
func New(base *Base) (Exchange, error) {
	registryMu.RLock()
	f, ok := registry[base.Name()]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, base.Name())
	}
	return f(base), nil
}

// Names lists the registered exchanges.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
