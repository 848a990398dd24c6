package coupon

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeDelivery DiscountType = "free_delivery"
)

type Coupon struct {
	ID           uuid.UUID
	StoreID      uuid.UUID
	Code         string
	DiscountType DiscountType
	// Value is a percentage (0-100] for percentage coupons and a currency
	// amount for fixed ones. Ignored for free delivery.
	Value     decimal.Decimal
	MinOrder  decimal.Decimal
	MaxUses   *int
	UsedCount int
	StartsAt  *time.Time
	ExpiresAt *time.Time
	Active    bool
}
