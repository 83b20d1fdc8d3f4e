package book

import (
	"github.com/shopspring/decimal"
)

// Ticker converts between external decimal prices and the integer tick units
// the book trades in. The core never touches decimals: all crossing checks
// run on int64 ticks, which keeps them free of rounding and comparison
// surprises. Decimals exist only at this boundary.
type Ticker struct {
	tickSize decimal.Decimal
}

// NewTicker creates a Ticker with the given tick size (e.g. 0.01 for
// cent-denominated prices). The tick size must be positive.
func NewTicker(tickSize decimal.Decimal) (*Ticker, error) {
	if tickSize.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidParam
	}
	return &Ticker{tickSize: tickSize}, nil
}

// ToTicks converts a decimal price into tick units. Prices that do not fall
// on the tick grid are refused rather than rounded: silently moving a price
// changes economic behavior.
func (t *Ticker) ToTicks(price decimal.Decimal) (int64, error) {
	if !price.Mod(t.tickSize).IsZero() {
		return 0, ErrInvalidParam
	}

	return price.Div(t.tickSize).IntPart(), nil
}

// FromTicks converts tick units back to a decimal price.
func (t *Ticker) FromTicks(ticks int64) decimal.Decimal {
	return decimal.NewFromInt(ticks).Mul(t.tickSize)
}

// LegNotional returns the value exchanged on one leg of a trade: the leg's
// own execution price times the traded quantity, in decimal price units.
func (t *Ticker) LegNotional(leg TradeLeg) decimal.Decimal {
	return t.FromTicks(leg.Price).Mul(decimal.NewFromUint64(leg.Quantity))
}
