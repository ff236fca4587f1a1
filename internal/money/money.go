// Package money provides the fixed-point amount and consignment count value types.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be parsed.
var ErrInvalidAmount = errors.New("invalid money amount")

// Money is an immutable amount rounded to two decimal places. Differences may
// be negative; all other uses are expected to be non-negative.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// FromPence builds a Money from an integral number of pence.
func FromPence(p int64) Money {
	return Money{amount: decimal.New(p, -2)}
}

// FromFloat builds a Money from a float, rounding half-up to two places.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, ErrInvalidAmount
	}
	return Money{amount: decimal.NewFromFloat(f).Round(2)}, nil
}

// FromString parses a decimal string such as "45.50".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{amount: d.Round(2)}, nil
}

// MustFromString is FromString for constants known to parse.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount).Round(2)}
}

func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount).Round(2)}
}

// Mul multiplies by an arbitrary decimal factor, rounding the result.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor).Round(2)}
}

// MulInt multiplies by an integer quantity.
func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n)).Round(2)}
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

// Cmp returns -1, 0 or 1 comparing m against other.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Pence returns the amount as integral pence, rounding half-up.
func (m Money) Pence() int64 {
	return m.amount.Shift(2).Round(0).IntPart()
}

// Float64 returns the closest float representation; display only.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// String renders with exactly two decimal places.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON renders the amount as a fixed two-place decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value stores Money as pence so numeric columns stay integral.
func (m Money) Value() (driver.Value, error) {
	return m.Pence(), nil
}

// Scan accepts integral pence from the database.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = FromPence(v)
		return nil
	case float64:
		*m = FromPence(int64(math.Floor(v + 0.5)))
		return nil
	case nil:
		*m = Zero
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidAmount, src)
	}
}
