// Package ledger renders trades, credits and debits as a ledger-cli journal.
//
// Entries are ordered by time in seconds, then credits before debits before trades, then
// by row id compared as text. Nothing is merged or netted, so identical rows always render
// identical text.
package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"trademan/pkg/model"
	"trademan/pkg/store"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const timeLayout = "2006/01/02 15:04:05"

// Tags order entries that share a second.
const (
	tagCredit byte = 'c'
	tagDebit  byte = 'd'
	tagTrade  byte = 't'
)

type item struct {
	unix int64
	tag  byte
	id   int64
	text string
}

func less(a, b item) bool {
	if a.unix != b.unix {
		return a.unix < b.unix
	}
	if a.tag != b.tag {
		return a.tag < b.tag
	}
	// ids compare as text, so id 10 sorts before id 9
	return strconv.FormatInt(a.id, 10) < strconv.FormatInt(b.id, 10)
}

// Builder collects journal entries in a btree ordered by time, kind and id.
type Builder struct {
	tree *btree.BTreeG[item]
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{tree: btree.NewG(16, less)}
}

// AddCredit adds the two-posting entry of a wallet deposit.
func (b *Builder) AddCredit(c *model.Credit) {
	b.tree.ReplaceOrInsert(item{c.Time.Unix(), tagCredit, c.ID, Credit(c)})
}

// AddDebit adds the two-posting entry of a wallet withdrawal.
func (b *Builder) AddDebit(d *model.Debit) {
	b.tree.ReplaceOrInsert(item{d.Time.Unix(), tagDebit, d.ID, Debit(d)})
}

// AddTrade adds the price lines and postings of a trade.
func (b *Builder) AddTrade(t *model.Trade) {
	b.tree.ReplaceOrInsert(item{t.Time.Unix(), tagTrade, t.ID, Trade(t)})
}

func (b *Builder) Len() int {
	return b.tree.Len()
}

// String concatenates the entries in journal order.
func (b *Builder) String() string {
	var sb strings.Builder
	b.tree.Ascend(func(it item) bool {
		sb.WriteString(it.text)
		return true
	})
	return sb.String()
}

// Make builds the journal of every trade, credit and debit, or only those of exchange.
func Make(tx *gorm.DB, exchange string) (journal string, err error) {
	trades, err := store.GetTrades(tx, store.TradeFilter{Exchange: exchange})
	if err != nil {
		return
	}
	credits, err := store.GetCredits(tx, store.WalletFilter{Reference: exchange})
	if err != nil {
		return
	}
	debits, err := store.GetDebits(tx, store.WalletFilter{Reference: exchange})
	if err != nil {
		return
	}

	b := New()
	for i := range credits {
		b.AddCredit(&credits[i])
	}
	for i := range debits {
		b.AddDebit(&debits[i])
	}
	for i := range trades {
		b.AddTrade(&trades[i])
	}
	return b.String(), nil
}

func fmtAmount(v decimal.Decimal, commodity string) string {
	return v.StringFixed(8) + " " + commodity
}

func Credit(c *model.Credit) string {
	amt := fmtAmount(c.Amount, c.Currency)
	neg := fmtAmount(c.Amount.Neg(), c.Currency)
	return fmt.Sprintf("%s %s credit %s\n"+
		"    Assets:%s:%s:credit    %s\n"+
		"    Equity:Wallet:%s:debit   %s\n\n",
		c.Time.UTC().Format(timeLayout), c.Reference, c.Currency,
		c.Reference, c.Currency, amt,
		c.Currency, neg,
	)
}

func Debit(d *model.Debit) string {
	amt := fmtAmount(d.Amount, d.Currency)
	neg := fmtAmount(d.Amount.Neg(), d.Currency)
	return fmt.Sprintf("%s %s debit %s\n"+
		"    Assets:%s:%s:debit    %s\n"+
		"    Equity:Wallet:%s:credit   %s\n\n",
		d.Time.UTC().Format(timeLayout), d.Reference, d.Currency,
		d.Reference, d.Currency, neg,
		d.Currency, amt,
	)
}

// Trade renders the price declarations of the market followed by the postings of both legs.
// A non zero fee adds an expense posting paid from the fee side's asset.
func Trade(t *model.Trade) string {
	base, quote := model.SplitMarket(t.Market)
	when := t.Time.UTC().Format(timeLayout)

	inverse := decimal.Zero
	if !t.Price.IsZero() {
		inverse = decimal.NewFromInt(1).Div(t.Price)
	}
	price := fmtAmount(t.Price, quote)
	invPrice := fmtAmount(inverse, base)
	baseAmt := t.Amount
	quoteAmt := t.Amount.Mul(t.Price)

	feeCommodity := quote
	if t.FeeSide == model.FeeSideBase {
		feeCommodity = base
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "P %s %s %s\n", when, base, price)
	fmt.Fprintf(&sb, "P %s %s %s\n", when, quote, invPrice)
	fmt.Fprintf(&sb, "%s %s %s %s\n", when, t.Exchange, t.Market, t.Side)
	fmt.Fprintf(&sb, "    ;<Trade(trade_id='%s', side='%s', amount=%s, price=%s, fee=%s, fee_side='%s', market='%s', exchange='%s', time=%s)>\n",
		t.TradeID, t.Side, fmtAmount(baseAmt, base), price, fmtAmount(t.Fee, feeCommodity),
		t.FeeSide, t.Market, t.Exchange, when,
	)

	account := "FX:" + t.Market + ":" + t.Side
	if t.Side == model.TradeSideBuy {
		fmt.Fprintf(&sb, "    Assets:%s:%s    %s @ %s\n", t.Exchange, quote, fmtAmount(quoteAmt.Neg(), quote), invPrice)
		fmt.Fprintf(&sb, "    %s   %s @ %s\n", account, fmtAmount(quoteAmt, quote), invPrice)
		fmt.Fprintf(&sb, "    Assets:%s:%s    %s @ %s\n", t.Exchange, base, fmtAmount(baseAmt, base), price)
		fmt.Fprintf(&sb, "    %s   %s @ %s\n", account, fmtAmount(baseAmt.Neg(), base), price)
	} else {
		fmt.Fprintf(&sb, "    Assets:%s:%s    %s @ %s\n", t.Exchange, base, fmtAmount(baseAmt.Neg(), base), price)
		fmt.Fprintf(&sb, "    %s   %s @ %s\n", account, fmtAmount(baseAmt, base), price)
		fmt.Fprintf(&sb, "    Assets:%s:%s    %s @ %s\n", t.Exchange, quote, fmtAmount(quoteAmt, quote), invPrice)
		fmt.Fprintf(&sb, "    %s   %s @ %s\n", account, fmtAmount(quoteAmt.Neg(), quote), invPrice)
	}
	if !t.Fee.IsZero() {
		fmt.Fprintf(&sb, "    Assets:%s:%s    %s\n", t.Exchange, feeCommodity, fmtAmount(t.Fee.Neg(), feeCommodity))
		fmt.Fprintf(&sb, "    Expenses:%s:fee:%s   %s\n", t.Exchange, feeCommodity, fmtAmount(t.Fee, feeCommodity))
	}
	sb.WriteString("\n")
	return sb.String()
}
