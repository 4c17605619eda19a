package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"trademan/pkg/bus"
	"trademan/pkg/config"
	"trademan/pkg/filedb"
	"trademan/pkg/info"
	"trademan/pkg/kv"
	"trademan/pkg/manager"
	"trademan/pkg/market"
	"trademan/pkg/model"
	"trademan/pkg/plugin"
	"trademan/pkg/strategy"
	"trademan/pkg/xetcd"
	"trademan/pkg/xlog"

	_ "trademan/pkg/exchange/helper"
)

var logger = xlog.GetLogger()

var (
	fApp      string
	fExchange string
	fMarket   string
	fSide     string
	fPrice    string
	fAmount   string
	fOID      int64
	fOrderID  string
	fRescan   bool
	fExpire   time.Duration
	fWait     bool
	fInterval time.Duration
	fLogDir   string
	fLogFile  string
)

var (
	apps = map[string]bool{"worker": true, "mm": true, "journal": true, "cli": true, "migrate": true}
)

func init() {
	flag.StringVar(&fApp, "app", "", "worker, mm, journal, cli or migrate")
	flag.StringVar(&fExchange, "exchange", "", "exchange name")
	flag.StringVar(&fMarket, "market", "", "market such as BTC_USD")
	flag.StringVar(&fSide, "side", "", "bid or ask")
	flag.StringVar(&fPrice, "price", "", "order price")
	flag.StringVar(&fAmount, "amount", "", "order amount, base commodity")
	flag.Int64Var(&fOID, "oid", 0, "order row id")
	flag.StringVar(&fOrderID, "orderid", "", "order id, bare or <prefix>|<native id>")
	flag.BoolVar(&fRescan, "rescan", false, "sync from the start")
	flag.DurationVar(&fExpire, "expire", 0, "cancel a created order not submitted within this")
	flag.BoolVar(&fWait, "wait", false, "poll until the command took effect")
	flag.DurationVar(&fInterval, "interval", 0, "repeat the mm app at this interval")
	flag.StringVar(&fLogDir, "logdir", "", "")
	flag.StringVar(&fLogFile, "logfile", "", "")
}

func main() {
	var err error
	flag.Parse()

	if !apps[fApp] {
		validApps := make([]string, 0, len(apps))
		for k := range apps {
			validApps = append(validApps, k)
		}
		sort.Strings(validApps)
		fmt.Fprintf(os.Stderr, "invalid app %q, only (%s) available\n", fApp, strings.Join(validApps, ", "))
		os.Exit(2)
	}

	// Initialize the Shared config
	config.EasyInit()

	// Initialize the logger
	if fLogDir == "" {
		fLogDir = filepath.Join(config.Shared.DataDir, "logs")
	}
	if fLogFile == "" {
		fLogFile = fApp + ".log"
		if fExchange != "" {
			fLogFile = fApp + "-" + strings.ToLower(fExchange) + ".log"
		}
	}
	logPath := filepath.Join(fLogDir, fLogFile)
	xlog.Init(fApp, logPath)
	logger.Infof("%s started, %s", fApp, info.String())
	logger.Infof("xlog in %s", logPath)

	// Handle signals
	go handleSignals()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the etcd instance, only used to discover the nats url
	if config.Shared.Etcd.Main.Enable {
		err = xetcd.InitShared(strings.Split(config.Shared.Etcd.Main.Url, ","))
		if err != nil {
			logger.Warningf("xetcd.InitShared failed with err:%s", err)
		}
	}

	// Start the app
	switch fApp {
	case "journal":
		err = startJournal(ctx)
	case "migrate":
		model.DBInit()
		err = model.Migrate(model.GetDB())
	case "worker":
		model.DBInit()
		err = startWorker(ctx)
	case "mm":
		model.DBInit()
		err = startMarketMaker(ctx)
	case "cli":
		model.DBInit()
		err = runCLI(ctx, flag.Args())
	}

	if err != nil {
		logger.Error(err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// handleSignals handles linux signals
//
//	Function 1: Change log level via SIGUSR1 signal
//		docker exec <container_id> sh -c 'export XLOG_LVL=TRACE && kill -SIGUSR1 1'
func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)

	for sig := range sigChan {
		if sig != syscall.SIGUSR1 {
			continue
		}
		// Read log level from environment variable
		level := os.Getenv("XLOG_LVL")
		if level == "" {
			continue
		}
		logger := xlog.GetLogger()
		logger.SetLevel(level)
		logger.Infof("Log level set to %s via signal", level)
	}
}

func openBus(ctx context.Context) (bus.Bus, error) {
	return bus.Open(ctx, config.Shared, model.GetRedis())
}

func newClient(ctx context.Context) (*manager.Client, error) {
	b, err := openBus(ctx)
	if err != nil {
		return nil, err
	}
	k := kv.New(model.GetRedis())
	return manager.New(model.GetDB(), k, b, market.New(k, config.Shared)), nil
}

// startWorker runs the worker of -exchange until SIGINT or SIGTERM
func startWorker(ctx context.Context) (err error) {
	name := strings.ToLower(fExchange)
	if name == "" {
		return errors.New("empty exchange")
	}
	cfg, ok := config.Shared.Exchanges[name]
	if !ok {
		return fmt.Errorf("%w: %s is not configured", plugin.ErrUnknownExchange, name)
	}

	k := kv.New(model.GetRedis())
	ex, err := plugin.New(plugin.NewBase(name, cfg, model.GetDB(), k))
	if err != nil {
		return
	}

	b, err := openBus(ctx)
	if err != nil {
		return
	}
	defer b.Close()

	var journal *filedb.Filedb
	if config.Shared.Journal.Enabled {
		dir := config.Shared.Journal.Dir
		if dir == "" {
			dir = filepath.Join(config.Shared.DataDir, "journal")
		}
		journal, err = filedb.New(filedb.JournalPath(dir, name))
		if err != nil {
			return
		}
		defer journal.Close()
	}

	return plugin.NewWorker(ex, b, k, journal).Run(ctx)
}

// startMarketMaker places the ladders of every running worker, once or every -interval
func startMarketMaker(ctx context.Context) (err error) {
	c, err := newClient(ctx)
	if err != nil {
		return
	}
	defer c.Bus.Close()

	s := strategy.New(c.Market, c)
	run := func() error {
		if fExchange != "" {
			_, err := s.MarketMake(ctx, fExchange)
			return err
		}
		return s.RunAll(ctx)
	}

	if fInterval <= 0 {
		return run()
	}

	ticker := time.NewTicker(fInterval)
	defer ticker.Stop()
	for {
		if err := run(); err != nil {
			logger.Errorf("market make failed, err:%s", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// startJournal prints the command journal of -exchange as it grows
func startJournal(ctx context.Context) error {
	if fExchange == "" {
		return errors.New("empty exchange")
	}
	dir := config.Shared.Journal.Dir
	if dir == "" {
		dir = filepath.Join(config.Shared.DataDir, "journal")
	}
	path := filedb.JournalPath(dir, fExchange)
	logger.Infof("follow %s", path)

	return filedb.Follow(ctx, path, func(e filedb.Entry) {
		fmt.Printf("%s %s %s %s %s\n", e.Time.Format(time.RFC3339), e.Exchange, e.Instance, e.Action, e.Payload)
	})
}
