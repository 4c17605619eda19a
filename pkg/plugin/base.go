package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/model"
	"trademan/pkg/store"
	"trademan/pkg/xlog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var logger = xlog.GetLogger()

// Base holds what every exchange needs and implements the default actions. Exchanges embed
// it and override what their venue requires.
type Base struct {
	DB     *gorm.DB
	KV     *kv.KV
	Cfg    config.Exchange
	Logger *xlog.Logger

	name string

	mu   sync.Mutex
	user *model.User
}

func NewBase(name string, cfg config.Exchange, db *gorm.DB, k *kv.KV) *Base {
	name = strings.ToLower(name)
	return &Base{
		DB:     db,
		KV:     k,
		Cfg:    cfg,
		Logger: logger.With("exchange", name),
		name:   name,
	}
}

// Core gives access to the shared state of an exchange that embeds Base.
func (b *Base) Core() *Base {
	return b
}

// Name is the lowercase exchange name used in every key, channel and row.
func (b *Base) Name() string {
	return b.name
}

func (b *Base) FormatMarket(market string) string {
	return market
}

func (b *Base) UnformatMarket(market string) string {
	return market
}

func (b *Base) FormatCommodity(commodity string) string {
	return commodity
}

func (b *Base) UnformatCommodity(commodity string) string {
	return commodity
}

func (b *Base) SyncBalances(ctx context.Context) error {
	return fmt.Errorf("%s sync_balances: %w", b.name, ErrNotImplemented)
}

func (b *Base) SyncTicker(ctx context.Context, market string) error {
	return fmt.Errorf("%s sync_ticker: %w", b.name, ErrNotImplemented)
}

func (b *Base) SyncTrades(ctx context.Context, market string, rescan bool) error {
	return fmt.Errorf("%s sync_trades: %w", b.name, ErrNotImplemented)
}

func (b *Base) SyncCredits(ctx context.Context, rescan bool) error {
	return fmt.Errorf("%s sync_credits: %w", b.name, ErrNotImplemented)
}

func (b *Base) SyncDebits(ctx context.Context, rescan bool) error {
	return fmt.Errorf("%s sync_debits: %w", b.name, ErrNotImplemented)
}

func (b *Base) SyncBook(ctx context.Context, market string) error {
	return fmt.Errorf("%s sync_book: %w", b.name, ErrNotImplemented)
}

// ActiveMarkets returns the markets advertised in the side channel, or the configured
// live pairs.
func (b *Base) ActiveMarkets(ctx context.Context) ([]string, error) {
	return b.KV.ActiveMarkets(ctx, b.name, b.Cfg.LivePairs)
}

// ManagerUser returns the user owning this exchange's balances, credits and debits,
// creating it on first use.
func (b *Base) ManagerUser(ctx context.Context) (user *model.User, err error) {
	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		user, err = b.managerUser(tx)
		return err
	})
	return
}

func (b *Base) managerUser(tx *gorm.DB) (*model.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.user != nil {
		return b.user, nil
	}

	username := model.ManagerUsername(b.name)
	user, err := store.GetUser(tx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// not cached yet, the transaction may still roll back
		user = &model.User{Username: username, PubKey: b.Cfg.UserPubKey}
		if err = tx.Create(user).Error; err != nil {
			return nil, err
		}
		b.Logger.Infof("created manager user %s id:%d", username, user.ID)
		return user, nil
	}
	b.user = user
	return user, nil
}

// NextNonce allocates the next nonce of this exchange.
func (b *Base) NextNonce(ctx context.Context) (int64, error) {
	n := model.Nonce{Exchange: b.name, Key: b.Cfg.Key}
	err := b.DB.WithContext(ctx).Create(&n).Error
	return n.ID, err
}

// CreateNonce advances the nonce sequence until it reaches at least nonce.
func (b *Base) CreateNonce(ctx context.Context, nonce int64) (n int64, err error) {
	for n < nonce {
		n, err = b.NextNonce(ctx)
		if err != nil {
			return
		}
	}
	return
}

// Cursor returns how far the stream key has been synced, 0 when never.
func (b *Base) Cursor(ctx context.Context, key string) (int64, error) {
	c := model.Cursor{}
	err := b.DB.WithContext(ctx).Where(&model.Cursor{App: b.name, Key: key}).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return c.Val, err
}

func (b *Base) SetCursor(ctx context.Context, key string, val int64) error {
	c := model.Cursor{App: b.name, Key: key, Val: val}
	return b.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "app"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"val", "updated_at"}),
	}).Create(&c).Error
}

// SetTicker caches t as this exchange's ticker of t.Market.
func (b *Base) SetTicker(ctx context.Context, t *model.Ticker) error {
	t.Exchange = b.name
	return b.KV.SetTicker(ctx, t)
}
