package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceLine is the pricing view of a single order line: what was selected,
// how many, and the unit price snapshotted at selection time.
type PriceLine struct {
	ProductID *uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Countable reports whether the line participates in totals. Lines without a
// product selection, or with non-positive quantity or unit price, contribute
// zero rather than poisoning the order total.
func (l PriceLine) Countable() bool {
	return l.ProductID != nil && *l.ProductID != uuid.Nil &&
		l.Quantity > 0 && l.UnitPrice.IsPositive()
}

// LineTotal computes quantity × unit price for a countable line, zero otherwise.
func LineTotal(l PriceLine) decimal.Decimal {
	if !l.Countable() {
		return decimal.Zero
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotal computes the sum of all line totals. It is deterministic and
// idempotent: recomputing with unchanged lines yields the same result.
func OrderTotal(lines []PriceLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line))
	}
	return total
}

// ChangeAmount computes max(0, payment − total). A missing payment amount
// yields zero change.
func ChangeAmount(paymentAmount *decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	if paymentAmount == nil {
		return decimal.Zero
	}
	change := paymentAmount.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}
