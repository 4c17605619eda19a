package plugin

import (
	"context"
	"fmt"
	"time"

	"trademan/pkg/bus"
	"trademan/pkg/filedb"
	"trademan/pkg/info"
	"trademan/pkg/kv"
	"trademan/pkg/store"

	"github.com/shopspring/decimal"
)

// Worker runs one exchange: it subscribes to the exchange's channel and dispatches every
// command to the exchange, in order.
type Worker struct {
	Exchange Exchange
	Bus      bus.Bus
	KV       *kv.KV
	Journal  *filedb.Filedb // optional
}

func NewWorker(ex Exchange, b bus.Bus, k *kv.KV, journal *filedb.Filedb) *Worker {
	return &Worker{
		Exchange: ex,
		Bus:      b,
		KV:       k,
		Journal:  journal,
	}
}

// Run marks the worker loading, subscribes, marks it running and serves until ctx is done,
// when it is marked stopped.
func (w *Worker) Run(ctx context.Context) (err error) {
	name := w.Exchange.Name()
	log := w.Exchange.Core().Logger
	defer func() {
		if err != nil {
			log.Errorf("worker %s failed, err:%s", name, err)
		}
	}()

	if err = w.KV.SetStatus(ctx, name, kv.StatusLoading); err != nil {
		return
	}
	if err = w.Bus.Subscribe(ctx, name, w.Handle); err != nil {
		w.setStopped(name)
		return
	}
	if err = w.KV.SetStatus(ctx, name, kv.StatusRunning); err != nil {
		w.setStopped(name)
		return
	}
	log.Infof("worker %s running", name)

	<-ctx.Done()

	err = w.setStopped(name)
	log.Infof("worker %s stopped", name)
	return
}

// setStopped writes the stopped status on a fresh context, ctx may be done already.
func (w *Worker) setStopped(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := w.KV.SetStatus(ctx, name, kv.StatusStopped)
	if err != nil {
		w.Exchange.Core().Logger.Warningf("set %s stopped failed, err:%s", name, err)
	}
	return err
}

// Handle is the bus handler: errors are logged, never returned to the publisher.
func (w *Worker) Handle(ctx context.Context, cmd bus.Command) {
	log := w.Exchange.Core().Logger

	if w.Journal != nil {
		if err := w.Journal.Append(w.Exchange.Name(), info.InstanceID, cmd); err != nil {
			log.Warningf("journal %s failed, err:%s", cmd.Action, err)
		}
	}

	begin := time.Now()
	err := w.Dispatch(ctx, cmd)
	if err != nil {
		log.Errorf("%s failed, payload:%s err:%s", cmd.Action, cmd.Payload, err)
		return
	}
	log.Debugf("%s done in %s", cmd.Action, time.Since(begin))
}

// Dispatch runs one command against the exchange.
func (w *Worker) Dispatch(ctx context.Context, cmd bus.Command) error {
	ex := w.Exchange
	switch cmd.Action {
	case bus.ActionCreateOrder:
		p := bus.CreateOrder{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		if p.Expire > 0 && time.Now().Unix() > p.Expire {
			ex.Core().Logger.Warningf("create_order %d expired at %d, cancel it", p.OID, p.Expire)
			return ex.CancelOrders(ctx, CancelFilter{OID: p.OID})
		}
		_, err := ex.CreateOrder(ctx, p.OID)
		return err

	case bus.ActionCancelOrders:
		p := bus.CancelOrders{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		f := CancelFilter{OID: p.OID, OrderID: p.OrderID, Side: p.Side, Market: p.Market}
		if p.Price != "" {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return fmt.Errorf("cancel_orders price %q: %w", p.Price, err)
			}
			f.Price = &price
		}
		return ex.CancelOrders(ctx, f)

	case bus.ActionSyncOrders:
		p := bus.SyncOrders{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		if p.Market == "" && p.OID != 0 {
			o, err := store.GetOrder(ex.Core().DB.WithContext(ctx), store.OrderFilter{ID: p.OID, Exchange: ex.Name()})
			if err != nil {
				return err
			}
			if o != nil {
				p.Market = o.Market
			}
		}
		return ex.SyncOrders(ctx, p.Market)

	case bus.ActionSyncTicker:
		p := bus.SyncTicker{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		if p.Market != "" {
			return ex.SyncTicker(ctx, p.Market)
		}
		markets, err := ex.Core().ActiveMarkets(ctx)
		if err != nil {
			return err
		}
		for _, market := range markets {
			if err = ex.SyncTicker(ctx, market); err != nil {
				return err
			}
		}
		return nil

	case bus.ActionSyncBalances:
		return ex.SyncBalances(ctx)

	case bus.ActionSyncTrades:
		p := bus.SyncTrades{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		return ex.SyncTrades(ctx, p.Market, p.Rescan)

	case bus.ActionSyncCredits:
		p := bus.SyncWallet{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		return ex.SyncCredits(ctx, p.Rescan)

	case bus.ActionSyncDebits:
		p := bus.SyncWallet{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		return ex.SyncDebits(ctx, p.Rescan)

	case bus.ActionSyncBook:
		p := bus.SyncBook{}
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		return ex.SyncBook(ctx, p.Market)

	case bus.ActionCancelStaleOrders:
		return CancelStaleOrders(ctx, ex)
	}
	return fmt.Errorf("%w: %q", bus.ErrUnknownAction, cmd.Action)
}
