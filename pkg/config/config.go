package config

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Config structs

type Config struct {
	IsDebug bool   `yaml:"is_debug"`
	DataDir string `yaml:"data_dir"`

	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Nats     Nats     `yaml:"nats"`
	Etcd     Etcd     `yaml:"etcd"`
	Bus      Bus      `yaml:"bus"`
	Journal  Journal  `yaml:"journal"`

	// Exchanges is keyed by the lowercase exchange name.
	Exchanges map[string]Exchange `yaml:"exchanges"`

	// PreferredExchanges maps a market (BTC_USD) to the exchange whose ticker prices it.
	PreferredExchanges map[string]string `yaml:"preferred_exchanges"`

	Strategy Strategy `yaml:"strategy"`
}

type Database struct {
	Driver       string `yaml:"driver"` // mysql, postgres or sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Pass         string `yaml:"pass"`
	DB           string `yaml:"db"`
	Path         string `yaml:"path"` // sqlite file
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type Redis struct {
	Main RedisServer `yaml:"main"`
}

type RedisServer struct {
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
	Pass    string `yaml:"pass"`
	Timeout int    `yaml:"timeout"`
}

type Nats struct {
	Url           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type Etcd struct {
	Main EtcdServer `yaml:"main"`
}

type EtcdServer struct {
	Enable bool   `yaml:"enable"`
	Url    string `yaml:"url"`
}

type Bus struct {
	Transport string `yaml:"transport"` // nats or redis
}

type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Exchange struct {
	Key        string   `yaml:"key"`
	Secret     string   `yaml:"secret"`
	UserPubKey string   `yaml:"userpubkey"`
	LivePairs  []string `yaml:"live_pairs"`
}

type Strategy struct {
	MinMM    float64 `yaml:"min_mm"`    // USD, balances worth less are not market made
	MinOrder float64 `yaml:"min_order"` // USD, smallest order or ladder rung
}

func (s Strategy) MinMMDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.MinMM)
}

func (s Strategy) MinOrderDecimal() decimal.Decimal {
	return decimal.NewFromFloat(s.MinOrder)
}

// Global variables

const DEVDATA = "/usr/local/trademan/devdata"

var Shared *Config // single instance of the config

var (
	fConfig string // config file path
)

func init() {
	flag.StringVar(&fConfig, "config", "", "specify the config file")
}

// Default returns a config usable without a file: local sqlite, redis and nats.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Database: Database{
			Driver:       "sqlite",
			Path:         "data/trademan.db",
			MaxOpenConns: 8,
		},
		Redis: Redis{Main: RedisServer{Addr: "127.0.0.1:6379"}},
		Nats:  Nats{Url: "nats://127.0.0.1:4222", SubjectPrefix: "trademan"},
		Bus:   Bus{Transport: "nats"},
		Exchanges: map[string]Exchange{
			"helper": {LivePairs: []string{"BTC_USD", "DASH_BTC"}},
		},
		PreferredExchanges: map[string]string{},
		Strategy: Strategy{
			MinMM:    5,
			MinOrder: 1,
		},
	}
}

// Load reads a yaml file over the defaults.
func Load(configFile string) (cfg *Config, err error) {
	file, err := os.Open(configFile)
	if err != nil {
		return
	}
	defer file.Close()

	cfg = Default()
	defaultExchanges := cfg.Exchanges
	cfg.Exchanges = nil
	err = yaml.NewDecoder(file).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", configFile, err)
	}
	if len(cfg.Exchanges) == 0 {
		cfg.Exchanges = defaultExchanges
	}
	cfg.normalize()
	return
}

// Init initializes the Shared config with the given config file path
func Init(configFile string) {
	cfg, err := Load(configFile)
	if err != nil {
		panic(err)
	}
	Shared = cfg
}

// EasyInit initializes the Shared config from -config, config/config.yml or the DEVDATA copy
func EasyInit() {
	fpath := fConfig
	if fpath == "" {
		fpath = "config/config.yml"
	}

	if _, err := os.Stat(fpath); os.IsNotExist(err) {
		fpath = DEVDATA + "/config.yml"
		if _, err := os.Stat(fpath); os.IsNotExist(err) {
			printf("no config file found, using defaults")
			Shared = Default()
			return
		}
		printf(fmt.Sprintf("use config: %s (DEVDATA)", fpath))
	} else {
		printf(fmt.Sprintf("use config: %s", fpath))
	}

	Init(fpath)
}

// normalize lowercases exchange names, the form used in every key and row.
func (c *Config) normalize() {
	exs := make(map[string]Exchange, len(c.Exchanges))
	for name, ex := range c.Exchanges {
		exs[strings.ToLower(name)] = ex
	}
	c.Exchanges = exs

	prefs := make(map[string]string, len(c.PreferredExchanges))
	for market, name := range c.PreferredExchanges {
		prefs[strings.ToUpper(market)] = strings.ToLower(name)
	}
	c.PreferredExchanges = prefs
}

// ExchangeNames returns the configured exchanges in a stable order.
func (c *Config) ExchangeNames() []string {
	names := make([]string, 0, len(c.Exchanges))
	for name := range c.Exchanges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Print the given string to the standard output
func printf(s string) {
	fmt.Printf("%s %s\n", time.Now().Format("2006/01/02 15:04:05"), s)
}
