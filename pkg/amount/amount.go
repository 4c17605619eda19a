// Package amount is an arbitrary precision decimal tagged with its commodity (USD, BTC, ...).
package amount

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimals used when an amount is rendered.
const Places = 8

var (
	ErrCommodityMismatch = errors.New("commodity mismatch")
	ErrInvalid           = errors.New("invalid amount")
)

type Amount struct {
	Value     decimal.Decimal `json:"value"`
	Commodity string          `json:"commodity"`
}

func New(value decimal.Decimal, commodity string) Amount {
	return Amount{Value: value, Commodity: strings.ToUpper(commodity)}
}

func Zero(commodity string) Amount {
	return New(decimal.Zero, commodity)
}

func FromFloat(value float64, commodity string) Amount {
	return New(decimal.NewFromFloat(value), commodity)
}

// Parse reads the "<value> <commodity>" form, e.g. "100 USD".
func Parse(s string) (Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	v, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %s", ErrInvalid, s, err)
	}
	return New(v, fields[1]), nil
}

func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) check(b Amount) error {
	if a.Commodity != b.Commodity {
		return fmt.Errorf("%w: %s vs %s", ErrCommodityMismatch, a.Commodity, b.Commodity)
	}
	return nil
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.check(b); err != nil {
		return Amount{}, err
	}
	return New(a.Value.Add(b.Value), a.Commodity), nil
}

func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.check(b); err != nil {
		return Amount{}, err
	}
	return New(a.Value.Sub(b.Value), a.Commodity), nil
}

// Cmp compares two amounts of the same commodity.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.check(b); err != nil {
		return 0, err
	}
	return a.Value.Cmp(b.Value), nil
}

func (a Amount) Neg() Amount {
	return New(a.Value.Neg(), a.Commodity)
}

func (a Amount) MulDec(d decimal.Decimal) Amount {
	return New(a.Value.Mul(d), a.Commodity)
}

func (a Amount) DivDec(d decimal.Decimal) Amount {
	return New(a.Value.Div(d), a.Commodity)
}

// Convert multiplies a by a price quoted per unit of a's commodity, returning an amount in
// the price's commodity: 0.01 BTC converted at 100 USD is 1 USD.
func (a Amount) Convert(price Amount) Amount {
	return New(a.Value.Mul(price.Value), price.Commodity)
}

// Invert turns a price of base quoted in a's commodity into the price of one unit of a's
// commodity in base: 100 USD (per BTC) inverted with base BTC is 0.01 BTC (per USD).
func (a Amount) Invert(base string) (Amount, error) {
	if a.Value.IsZero() {
		return Amount{}, fmt.Errorf("%w: invert zero %s", ErrInvalid, a.Commodity)
	}
	return New(decimal.NewFromInt(1).Div(a.Value), base), nil
}

func (a Amount) IsZero() bool {
	return a.Value.IsZero()
}

func (a Amount) Sign() int {
	return a.Value.Sign()
}

// Round quantizes to Places decimals.
func (a Amount) Round() Amount {
	return New(a.Value.Round(Places), a.Commodity)
}

func (a Amount) String() string {
	return a.Value.StringFixed(Places) + " " + a.Commodity
}

// Balance sums amounts of several commodities.
type Balance struct {
	amounts map[string]decimal.Decimal
}

func NewBalance(amounts ...Amount) *Balance {
	b := &Balance{amounts: map[string]decimal.Decimal{}}
	for _, a := range amounts {
		b.Add(a)
	}
	return b
}

func (b *Balance) Add(a Amount) *Balance {
	if b.amounts == nil {
		b.amounts = map[string]decimal.Decimal{}
	}
	b.amounts[a.Commodity] = b.amounts[a.Commodity].Add(a.Value)
	return b
}

// Get returns the amount held in commodity, zero when absent.
func (b *Balance) Get(commodity string) Amount {
	commodity = strings.ToUpper(commodity)
	return New(b.amounts[commodity], commodity)
}

// Commodities lists the held commodities in alphabetical order.
func (b *Balance) Commodities() []string {
	cs := make([]string, 0, len(b.amounts))
	for c := range b.amounts {
		cs = append(cs, c)
	}
	sort.Strings(cs)
	return cs
}

func (b *Balance) Amounts() []Amount {
	cs := b.Commodities()
	res := make([]Amount, 0, len(cs))
	for _, c := range cs {
		res = append(res, New(b.amounts[c], c))
	}
	return res
}

func (b *Balance) String() string {
	ss := make([]string, 0, len(b.amounts))
	for _, a := range b.Amounts() {
		ss = append(ss, a.String())
	}
	return strings.Join(ss, ", ")
}
