// Package pricing contains the pure price arithmetic for carts and promo
// discounts. Nothing in here touches storage or the clock; every function is
// referentially transparent over its inputs.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrUnknownDiscountType is returned when a stored promo carries a discount
// type this calculator does not understand.
var ErrUnknownDiscountType = errors.New("unknown discount type")

// Line is a single cart line for subtotal calculation. Price is the unit
// price snapshotted at order time, not a live menu lookup.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

var hundred = decimal.NewFromInt(100)

// Subtotal returns the sum of price * quantity across all lines, rounded to
// 2 decimal places at the final sum so per-line rounding cannot drift.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum.Round(2)
}

// Discount computes the discount amount for the given type and value against
// a subtotal. The result is clamped to [0, subtotal] and rounded to 2dp, so
// applying it can never drive a total negative.
func Discount(subtotal decimal.Decimal, typ DiscountType, value decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch typ {
	case DiscountPercentage:
		amount = subtotal.Mul(value).Div(hundred)
	case DiscountFixed:
		amount = value
	default:
		return decimal.Zero, errors.Wrapf(ErrUnknownDiscountType, "%q", typ)
	}

	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2), nil
}

// Total returns subtotal - discount, floored at zero and rounded to 2dp.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}
