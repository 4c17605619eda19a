package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"trademan/pkg/bus"
	"trademan/pkg/config"
	"trademan/pkg/kv"
	"trademan/pkg/manager"
	"trademan/pkg/model"
	"trademan/pkg/store"

	"github.com/shopspring/decimal"
)

const usage = `usage: trademan -app cli [flags] <command> [get|sync|create|cancel]

commands:
  ticker get|sync     -exchange -market
  order get|sync      -exchange -market -oid -orderid
  order create        -exchange -market -side -price -amount [-expire]
  order cancel        -exchange [-oid -orderid -side -market -price]
  order stale         -exchange
  trade get|sync      -exchange -market [-rescan]
  credit get|sync     -exchange [-rescan]
  debit get|sync      -exchange [-rescan]
  balance get|sync    -exchange
  ledger              [-exchange]
  status              [-exchange]`

var errUsage = errors.New(usage)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runCLI runs one command against the shared store and the workers
func runCLI(ctx context.Context, args []string) (err error) {
	if len(args) == 0 {
		return errUsage
	}
	verb := "get"
	if len(args) > 1 {
		verb = args[1]
	}
	if args[0] != "ledger" && args[0] != "status" && fExchange == "" {
		return errors.New("empty exchange")
	}

	c, err := newClient(ctx)
	if err != nil {
		return
	}
	defer c.Bus.Close()

	switch args[0] + " " + verb {
	case "ticker get":
		t, err := c.GetTicker(ctx, fExchange, fMarket)
		if err != nil {
			return err
		}
		return printJSON(t)
	case "ticker sync":
		return c.SyncTicker(ctx, fExchange, fMarket)

	case "order get":
		orders, err := c.GetOrders(ctx, store.OrderFilter{ID: fOID, OrderID: fOrderID, Exchange: fExchange, Market: fMarket})
		if err != nil {
			return err
		}
		return printJSON(orders)
	case "order sync":
		return c.SyncOrders(ctx, fExchange, bus.SyncOrders{OID: fOID, Market: fMarket})
	case "order create":
		return createOrder(ctx, c)
	case "order cancel":
		return c.CancelOrders(ctx, fExchange, bus.CancelOrders{
			OrderID: fOrderID,
			OID:     fOID,
			Side:    fSide,
			Market:  fMarket,
			Price:   fPrice,
		})
	case "order stale":
		return c.CancelStaleOrders(ctx, fExchange)

	case "trade get":
		trades, err := c.GetTrades(ctx, store.TradeFilter{Exchange: fExchange, Market: fMarket})
		if err != nil {
			return err
		}
		return printJSON(trades)
	case "trade sync":
		return c.SyncTrades(ctx, fExchange, fMarket, fRescan)

	case "credit get":
		credits, err := c.GetCredits(ctx, store.WalletFilter{Reference: fExchange})
		if err != nil {
			return err
		}
		return printJSON(credits)
	case "credit sync":
		return c.SyncCredits(ctx, fExchange, fRescan)
	case "debit get":
		debits, err := c.GetDebits(ctx, store.WalletFilter{Reference: fExchange})
		if err != nil {
			return err
		}
		return printJSON(debits)
	case "debit sync":
		return c.SyncDebits(ctx, fExchange, fRescan)

	case "balance get":
		total, available, err := c.GetBalances(ctx, fExchange)
		if err != nil {
			return err
		}
		fmt.Printf("total:     %s\navailable: %s\n", total, available)
		return nil
	case "balance sync":
		return c.SyncBalances(ctx, fExchange)

	case "ledger get":
		journal, err := c.MakeLedger(ctx, fExchange)
		if err != nil {
			return err
		}
		fmt.Print(journal)
		return nil

	case "status get":
		names := []string{fExchange}
		if fExchange == "" {
			names = config.Shared.ExchangeNames()
		}
		for _, name := range names {
			status, err := c.GetStatus(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", name, status)
		}
		return nil
	}
	return errUsage
}

func createOrder(ctx context.Context, c *manager.Client) error {
	price, err := decimal.NewFromString(fPrice)
	if err != nil {
		return fmt.Errorf("price %q: %w", fPrice, err)
	}
	amount, err := decimal.NewFromString(fAmount)
	if err != nil {
		return fmt.Errorf("amount %q: %w", fAmount, err)
	}
	r := manager.OrderRequest{
		Exchange: fExchange,
		Market:   fMarket,
		Side:     fSide,
		Price:    price,
		Amount:   amount,
	}
	if fExpire > 0 {
		r.Expire = time.Now().Add(fExpire)
	}

	if fWait {
		status, err := c.GetStatus(ctx, fExchange)
		if err != nil {
			return err
		}
		if status != kv.StatusRunning {
			return fmt.Errorf("%s is %s", fExchange, status)
		}
	}

	o, err := c.CreateOrder(ctx, r)
	if err != nil {
		return err
	}
	if fWait {
		o, err = c.WaitOrderState(ctx, o.ID, model.OrderStateOpen, manager.DefaultPollConfig())
		if err != nil {
			return err
		}
	}
	return printJSON(o)
}
