package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"trademan/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "config.yml")
	yml := `
is_debug: true
database:
  driver: mysql
  host: 127.0.0.1
  port: 3306
  db: trademan
exchanges:
  Helper:
    key: pub
    live_pairs: ["BTC_USD", "ETH_BTC"]
  kraken:
    live_pairs: ["BTC_USD"]
preferred_exchanges:
  btc_usd: Kraken
strategy:
  min_mm: 10
`
	require.Nil(t, os.WriteFile(fpath, []byte(yml), 0644))

	cfg, err := config.Load(fpath)
	require.Nil(t, err)
	assert.True(t, cfg.IsDebug)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, []string{"helper", "kraken"}, cfg.ExchangeNames())
	assert.Equal(t, []string{"BTC_USD", "ETH_BTC"}, cfg.Exchanges["helper"].LivePairs)
	assert.Equal(t, "kraken", cfg.PreferredExchanges["BTC_USD"])
	assert.Equal(t, "10", cfg.Strategy.MinMMDecimal().String())

	// untouched sections keep their defaults
	assert.Equal(t, "1", cfg.Strategy.MinOrderDecimal().String())
	assert.Equal(t, "nats", cfg.Bus.Transport)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.NotNil(t, err)
}
