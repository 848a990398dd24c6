package finance

import (
	"time"

	"storefront-be/internal/cashregister"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) IsValid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// OrderTotals aggregates orders created in a window. Cancelled orders only
// count in CancelledCount.
type OrderTotals struct {
	OrderCount          int64           `json:"orderCount"`
	CancelledCount      int64           `json:"cancelledCount"`
	TotalSales          decimal.Decimal `json:"totalSales"`
	PaidTotal           decimal.Decimal `json:"paidTotal"`
	PendingPaymentTotal decimal.Decimal `json:"pendingPaymentTotal"`
	DeliveryFees        decimal.Decimal `json:"deliveryFees"`
	Discounts           decimal.Decimal `json:"discounts"`
}

type CashTotals struct {
	TotalIn     decimal.Decimal `json:"totalIn"`
	TotalOut    decimal.Decimal `json:"totalOut"`
	Adjustments decimal.Decimal `json:"adjustments"`
}

type RegisterStatus struct {
	Open     bool                  `json:"open"`
	Current  *cashregister.Register `json:"current,omitempty"`
	Expected *decimal.Decimal      `json:"expected,omitempty"`
}

type Summary struct {
	Period        Period                   `json:"period"`
	From          time.Time                `json:"from"`
	To            time.Time                `json:"to"`
	Orders        OrderTotals              `json:"orders"`
	AverageTicket decimal.Decimal          `json:"averageTicket"`
	Cash          CashTotals               `json:"cash"`
	Register      RegisterStatus           `json:"register"`
	History       []*cashregister.Register `json:"history"`
}
