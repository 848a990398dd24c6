package order

import (
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/storefront"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Channel string

const (
	ChannelDelivery Channel = "DELIVERY"
	ChannelTakeaway Channel = "TAKEAWAY"
	ChannelCounter  Channel = "COUNTER"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelDelivery, ChannelTakeaway, ChannelCounter:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "PIX"
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOnline PaymentMethod = "ONLINE"
)

func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentPix, PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusAccepted       OrderStatus = "ACCEPTED"
	StatusInPreparation  OrderStatus = "IN_PREPARATION"
	StatusReady          OrderStatus = "READY"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

type UnitType string

const (
	UnitEach   UnitType = "UNIT"
	UnitWeight UnitType = "KG"
)

const EventCreated = "CREATED"

type Order struct {
	ID              uuid.UUID
	StoreID         uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerPhone   *string
	Code            string
	Channel         Channel
	PaymentMethod   PaymentMethod
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	DeliveryFee     decimal.Decimal
	Total           decimal.Decimal
	Notes           *string
	CouponID        *uuid.UUID
	CouponCode      *string
	IdempotencyKey  string
	DeliveryAddress *address.Address
	ScheduledFor    *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items  []OrderItem
	Events []OrderEvent
}

// OrderItem snapshots the product as it was sold.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	UnitType    UnitType
	Notes       *string
	TotalPrice  decimal.Decimal
	Modifiers   []OrderItemModifier
}

type OrderItemModifier struct {
	OptionID uuid.UUID
	Name     string
	Price    decimal.Decimal
}

type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Type      string
	Actor     string
	CreatedAt time.Time
}

type CartItem struct {
	ProductID         uuid.UUID
	Quantity          decimal.Decimal
	UnitType          UnitType
	ModifierOptionIDs []uuid.UUID
	Notes             string
}

type CustomerForm struct {
	Name  string
	Phone string
	Email string
}

// SubmitInput is everything the storefront checkout sends.
type SubmitInput struct {
	StoreSlug      string
	CheckoutMode   storefront.CheckoutMode
	Customer       CustomerForm
	Channel        Channel
	PaymentMethod  PaymentMethod
	Address        *address.Address
	Items          []CartItem
	CouponCode     string
	IdempotencyKey string
	Notes          string
	ScheduledFor   *time.Time
}

// CreateParams is the payload of the atomic create call.
type CreateParams struct {
	StoreID        uuid.UUID
	IdempotencyKey string
	Channel        Channel
	PaymentMethod  PaymentMethod
	Notes          string
	CouponCode     string
	Customer       CustomerForm
	Address        *address.Address
	Items          []CartItem
	ScheduledFor   *time.Time
	Now            time.Time
}

// Placement is the outcome of a successful create. Replayed is set when the
// idempotency key already had an order.
type Placement struct {
	OrderID  uuid.UUID
	Code     string
	Total    decimal.Decimal
	Replayed bool
}

type SubmitResult struct {
	Success      bool                   `json:"success"`
	OrderID      *uuid.UUID             `json:"orderId,omitempty"`
	OrderCode    string                 `json:"orderCode,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ErrorCode    string                 `json:"errorCode,omitempty"`
	ErrorDetails map[string]interface{} `json:"errorDetails,omitempty"`
	Kind         Kind                   `json:"-"`
}

type ListFilter struct {
	Statuses      []OrderStatus
	PaymentStatus *PaymentStatus
	Channel       *Channel
	From          *time.Time
	To            *time.Time
	Search        string
	Limit         int32
	Page          int32
}

type OrderPage struct {
	Orders []*Order
	Total  int64
	Limit  int32
	Page   int32
}
