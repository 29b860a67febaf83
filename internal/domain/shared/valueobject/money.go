package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable rupiah amount. The store only ever trades in IDR,
// so Money carries no currency code; display formatting (thousand
// separators, the "Rp" prefix) happens at the presentation edge.
type Money struct {
	amount decimal.Decimal
}

// NewMoneyIDR wraps a decimal amount as Money.
func NewMoneyIDR(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyIDRFromString parses a decimal string into Money.
func NewMoneyIDRFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

// ZeroIDR returns the zero amount.
func ZeroIDR() Money {
	return Money{amount: decimal.Zero}
}

// Amount exposes the underlying decimal.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns the sum of the two amounts.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns the difference m - other.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MulInt scales the amount by a whole-number factor, e.g. a line quantity.
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Equals reports exact equality of amounts, 10 and 10.00 included.
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThan reports whether m is strictly below other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// String renders the amount with two decimal places, without a currency mark.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON encodes the amount the same way decimal does, as a quoted
// number string, so Money and plain decimal fields look alike on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.amount.MarshalJSON()
}

// UnmarshalJSON accepts whatever decimal accepts (quoted or bare numbers).
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}

// Value stores the bare amount; columns are plain numerics.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan reads a numeric column back into Money. NULL scans as zero.
func (m *Money) Scan(src any) error {
	if src == nil {
		m.amount = decimal.Zero
		return nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case float64:
		m.amount = decimal.NewFromFloat(v)
		return nil
	case int64:
		m.amount = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.amount = d
	return nil
}
