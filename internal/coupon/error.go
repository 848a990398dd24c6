package coupon

import "errors"

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon is inactive")
	ErrCouponNotStarted = errors.New("coupon is not valid yet")
	ErrCouponExpired    = errors.New("coupon expired")
	ErrCouponExhausted  = errors.New("coupon usage limit reached")
	ErrCouponMinOrder   = errors.New("order below coupon minimum")
)
