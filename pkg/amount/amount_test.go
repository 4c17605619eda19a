package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := Parse("100 usd")
	require.Nil(t, err)
	assert.Equal(t, "USD", a.Commodity)
	assert.Equal(t, "100.00000000 USD", a.String())

	_, err = Parse("100")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = Parse("abc BTC")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestArithmetic(t *testing.T) {
	a := MustParse("1.5 BTC")
	b := MustParse("0.5 BTC")

	sum, err := a.Add(b)
	require.Nil(t, err)
	assert.Equal(t, "2.00000000 BTC", sum.String())

	diff, err := b.Sub(a)
	require.Nil(t, err)
	assert.Equal(t, "-1.00000000 BTC", diff.String())

	_, err = a.Add(MustParse("1 USD"))
	assert.ErrorIs(t, err, ErrCommodityMismatch)

	c, err := a.Cmp(b)
	require.Nil(t, err)
	assert.Equal(t, 1, c)
}

func TestConvertAndInvert(t *testing.T) {
	price := MustParse("100 USD")
	usd := MustParse("0.01 BTC").Convert(price)
	assert.Equal(t, "1.00000000 USD", usd.String())

	inv, err := price.Invert("BTC")
	require.Nil(t, err)
	assert.Equal(t, "0.01000000 BTC", inv.String())

	_, err = Zero("USD").Invert("BTC")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestBalance(t *testing.T) {
	b := NewBalance(MustParse("1 BTC"), MustParse("10 USD"))
	b.Add(MustParse("2 BTC"))
	assert.Equal(t, []string{"BTC", "USD"}, b.Commodities())
	assert.True(t, b.Get("btc").Value.Equal(decimal.NewFromInt(3)))
	assert.True(t, b.Get("ETH").IsZero())
	assert.Equal(t, "3.00000000 BTC, 10.00000000 USD", b.String())

	var empty Balance
	empty.Add(MustParse("1 DASH"))
	assert.Equal(t, "1.00000000 DASH", empty.String())
}
