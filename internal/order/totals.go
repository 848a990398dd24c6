package order

import (
	"github.com/shopspring/decimal"
)

type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// LineTotal prices one item: (unit price + modifier prices) x quantity, in cents.
func LineTotal(unitPrice decimal.Decimal, modifiers []OrderItemModifier, qty decimal.Decimal) decimal.Decimal {
	price := unitPrice
	for _, m := range modifiers {
		price = price.Add(m.Price)
	}
	return price.Mul(qty).Round(2)
}

// ComputeTotals keeps total = subtotal - discount + deliveryFee with the
// discount clamped to [0, subtotal + deliveryFee].
func ComputeTotals(lines []decimal.Decimal, deliveryFee, discount decimal.Decimal) Totals {
	subtotal := Sum(lines)
	if deliveryFee.IsNegative() {
		deliveryFee = decimal.Zero
	}

	ceiling := subtotal.Add(deliveryFee)
	switch {
	case discount.IsNegative():
		discount = decimal.Zero
	case discount.GreaterThan(ceiling):
		discount = ceiling
	}

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: deliveryFee,
		Total:       subtotal.Sub(discount).Add(deliveryFee),
	}
}

func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
