package api

import (
	"context"
	"time"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/coupon"
	"storefront-be/internal/finance"
	"storefront-be/internal/metrics"
	"storefront-be/internal/order"
	"storefront-be/internal/realtime"
	"storefront-be/internal/storefront"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type StoreLookup interface {
	GetBySlug(ctx context.Context, slug string) (*storefront.Store, error)
}

type Deps struct {
	Orders    order.Service
	Registers cashregister.Service
	Finance   finance.Service
	Stores    StoreLookup
	Coupons   coupon.Repository
	Changes   realtime.Broker
	Metrics   *metrics.Registry
	DB        Pinger
}

type Handler struct {
	orders    order.Service
	registers cashregister.Service
	finance   finance.Service
	stores    StoreLookup
	coupons   coupon.Repository
	changes   realtime.Broker
	metrics   *metrics.Registry
	db        Pinger
	now       func() time.Time

	// keepAlive is the SSE ping interval.
	keepAlive time.Duration
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		orders:    d.Orders,
		registers: d.Registers,
		finance:   d.Finance,
		stores:    d.Stores,
		coupons:   d.Coupons,
		changes:   d.Changes,
		metrics:   d.Metrics,
		db:        d.DB,
		now:       time.Now,
		keepAlive: 25 * time.Second,
	}
	if h.metrics == nil {
		h.metrics = metrics.Default
	}
	if h.changes == nil {
		h.changes = realtime.NewLocalBroker()
	}
	return h
}
