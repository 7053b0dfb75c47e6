// Package money provides the fixed-point amount type shared by every engine
// component.
//
// An amount is an integer count of minor units (cents). Percentages are
// applied with exact decimal arithmetic and the product is rounded to the
// nearest minor unit exactly once, half-up. Intermediate values are never
// rounded and never held in floating point.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/francescopitzalis1989/Renthubber/apperr"
)

// Scale is the number of fractional digits represented by one minor unit.
const Scale = 2

var (
	hundred    = decimal.NewFromInt(100)
	maxMinor   = decimal.NewFromInt(math.MaxInt64)
	minMinor   = decimal.NewFromInt(math.MinInt64)
	minPercent = decimal.Zero
)

// Money is an amount in minor units. It encodes to JSON as a plain integer.
type Money int64

// FromMinor returns the amount for n minor units.
func FromMinor(n int64) Money { return Money(n) }

// FromMajor returns the amount for a whole number of major units.
func FromMajor(n int64) Money { return Money(n * 100) }

// Parse reads a decimal string such as "12.50" or "7". More than Scale
// fractional digits of precision is rejected rather than rounded.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, apperr.Wrap(apperr.CodeInvalidAmount, fmt.Sprintf("parse amount %q", s), err)
	}
	if !d.Equal(d.Truncate(Scale)) {
		return 0, apperr.Newf(apperr.CodeInvalidAmount, "amount %q has more than %d decimal places", s, Scale)
	}
	minor := d.Shift(Scale)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, apperr.Newf(apperr.CodeInvalidAmount, "amount %q out of range", s)
	}
	return Money(minor.IntPart()), nil
}

// Minor returns the raw minor-unit count.
func (m Money) Minor() int64 { return int64(m) }

func (m Money) IsZero() bool { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }

// Decimal returns the amount in major units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -Scale)
}

// Percent returns round(m * pct / 100) with half-up rounding. Callers pass a
// non-negative m; for negative amounts the tie rounds away from zero.
func (m Money) Percent(pct decimal.Decimal) Money {
	exact := decimal.NewFromInt(int64(m)).Mul(pct).Shift(-2)
	return Money(exact.Round(0).IntPart())
}

// String renders the amount with exactly Scale decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(Scale)
}

// Format renders the amount for display in the given locale and currency.
// The float conversion is for presentation only.
func (m Money) Format(tag language.Tag, unit currency.Unit) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(m.Decimal().InexactFloat64())))
}

// Sum adds the given amounts.
func Sum(ms ...Money) Money {
	var total Money
	for _, m := range ms {
		total += m
	}
	return total
}

// ValidPercent reports whether p lies in [0,100].
func ValidPercent(p decimal.Decimal) bool {
	return !p.LessThan(minPercent) && !p.GreaterThan(hundred)
}
