package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks whether the coupon may be applied at now to an order of subtotal.
func (c *Coupon) Validate(now time.Time, subtotal decimal.Decimal) error {
	switch {
	case !c.Active:
		return ErrCouponInactive
	case c.StartsAt != nil && now.Before(*c.StartsAt):
		return ErrCouponNotStarted
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return ErrCouponExpired
	case c.MaxUses != nil && c.UsedCount >= *c.MaxUses:
		return ErrCouponExhausted
	case subtotal.LessThan(c.MinOrder):
		return ErrCouponMinOrder
	}
	return nil
}

// Discount returns the amount taken off an order. It never exceeds
// subtotal + deliveryFee, so the order total stays non-negative.
func (c *Coupon) Discount(subtotal, deliveryFee decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal

	switch c.DiscountType {
	case DiscountPercentage:
		pct := decimal.Min(decimal.Max(c.Value, decimal.Zero), hundred)
		d = subtotal.Mul(pct).Div(hundred).Round(2)
	case DiscountFixed:
		d = decimal.Min(decimal.Max(c.Value, decimal.Zero), subtotal)
	case DiscountFreeDelivery:
		d = deliveryFee
	}

	ceiling := subtotal.Add(deliveryFee)
	if d.GreaterThan(ceiling) {
		d = ceiling
	}
	return d
}
