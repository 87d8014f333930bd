package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). On the wire it is a plain
// decimal number with two fractional digits, e.g. 12.5 -> 12.50.
type Money struct {
	Cents int64
}

// ParseAmount converts a user-entered decimal string to Money. Both dot and
// comma separators are accepted; a third fractional digit rounds half-up.
// Only strictly positive amounts are valid.
//
//	ParseAmount("12,34")  -> 1234
//	ParseAmount("12.345") -> 1235
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, err := fromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// Cents builds Money from minor units.
func Cents(c int64) Money { return Money{Cents: c} }

func fromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2).Round(0)
	if !shifted.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: shifted.IntPart()}, nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Ratio returns m/o as a float, or 0 when o is zero.
func (m Money) Ratio(o Money) float64 {
	if o.Cents == 0 {
		return 0
	}
	return m.Decimal().Div(o.Decimal()).InexactFloat64()
}

// Euros is for display only; calculations stay in cents.
func (m Money) Euros() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
