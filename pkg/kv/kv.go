// Package kv is the redis side channel shared by callers and workers: worker status,
// cached tickers, active markets, preferred exchanges and per commodity settings.
// Values here have no transactional coupling to the database and may be stale.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trademan/pkg/model"
	"trademan/pkg/xlog"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

var ErrInvalidStatus = errors.New("invalid status")

var logger = xlog.GetLogger()

type KV struct {
	rds *redis.Client
}

func New(rds *redis.Client) *KV {
	return &KV{rds: rds}
}

func KeyStatus(exchange string) string {
	return strings.ToLower(exchange) + "_status"
}

func KeyTicker(exchange, market string) string {
	return strings.ToLower(exchange) + "_" + strings.ToUpper(market) + "_ticker"
}

func KeyActiveMarkets(exchange string) string {
	return strings.ToLower(exchange) + "_active_markets"
}

func KeyPreferredExchange(market string) string {
	return strings.ToUpper(market) + "_preferred_exchange"
}

func KeyCommodityConfig(commodity string) string {
	return strings.ToUpper(commodity) + "_config"
}

func (k *KV) SetStatus(ctx context.Context, exchange string, status Status) error {
	switch status {
	case StatusLoading, StatusRunning, StatusStopped:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	logger.Infof("setting %s to %s", KeyStatus(exchange), status)
	return k.rds.Set(ctx, KeyStatus(exchange), string(status), 0).Err()
}

// GetStatus reports stopped for a worker that never registered.
func (k *KV) GetStatus(ctx context.Context, exchange string) (Status, error) {
	v, err := k.rds.Get(ctx, KeyStatus(exchange)).Result()
	if err == redis.Nil {
		return StatusStopped, nil
	}
	if err != nil {
		return "", err
	}
	return Status(v), nil
}

// getJSON decodes the value at key into v, reporting false when the key is absent.
func (k *KV) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	b, err := k.rds.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (k *KV) setJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return k.rds.Set(ctx, key, b, 0).Err()
}

// SetTicker overwrites the cached ticker of t.Exchange and t.Market.
func (k *KV) SetTicker(ctx context.Context, t *model.Ticker) error {
	return k.setJSON(ctx, KeyTicker(t.Exchange, t.Market), t)
}

// GetTicker returns the cached ticker, nil when there is none.
func (k *KV) GetTicker(ctx context.Context, exchange, market string) (*model.Ticker, error) {
	t := &model.Ticker{}
	ok, err := k.getJSON(ctx, KeyTicker(exchange, market), t)
	if !ok || err != nil {
		return nil, err
	}
	return t, nil
}

func (k *KV) SetActiveMarkets(ctx context.Context, exchange string, markets []string) error {
	return k.setJSON(ctx, KeyActiveMarkets(exchange), markets)
}

// ActiveMarkets returns the markets a worker advertises, or fallback when it advertises none.
func (k *KV) ActiveMarkets(ctx context.Context, exchange string, fallback []string) ([]string, error) {
	var markets []string
	ok, err := k.getJSON(ctx, KeyActiveMarkets(exchange), &markets)
	if err != nil {
		return nil, err
	}
	if !ok || len(markets) == 0 {
		return fallback, nil
	}
	return markets, nil
}

func (k *KV) SetPreferredExchange(ctx context.Context, market, exchange string) error {
	return k.rds.Set(ctx, KeyPreferredExchange(market), strings.ToLower(exchange), 0).Err()
}

// PreferredExchange returns "" when no exchange is set for market.
func (k *KV) PreferredExchange(ctx context.Context, market string) (string, error) {
	v, err := k.rds.Get(ctx, KeyPreferredExchange(market)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

// CommodityConfig tunes how a commodity is valued and held.
type CommodityConfig struct {
	Weight decimal.Decimal `json:"weight"`
	Floor  decimal.Decimal `json:"floor"`
	Target decimal.Decimal `json:"target"`
	Ceil   decimal.Decimal `json:"ceil"`
}

func DefaultCommodityConfig() CommodityConfig {
	return CommodityConfig{
		Weight: decimal.NewFromInt(1),
		Floor:  decimal.Zero,
		Target: decimal.Zero,
		Ceil:   decimal.Zero,
	}
}

func (k *KV) SetCommodityConfig(ctx context.Context, commodity string, cfg CommodityConfig) error {
	return k.setJSON(ctx, KeyCommodityConfig(commodity), cfg)
}

// CommodityConfig returns the stored settings merged over the defaults.
func (k *KV) CommodityConfig(ctx context.Context, commodity string) (CommodityConfig, error) {
	cfg := DefaultCommodityConfig()
	_, err := k.getJSON(ctx, KeyCommodityConfig(commodity), &cfg)
	if err != nil {
		return DefaultCommodityConfig(), err
	}
	return cfg, nil
}
