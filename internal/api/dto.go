package api

import (
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/order"
	"storefront-be/internal/storefront"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------- REQUESTS ----------

type customerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type cartItemRequest struct {
	ProductID         uuid.UUID       `json:"productId"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitType          string          `json:"unitType"`
	ModifierOptionIDs []uuid.UUID     `json:"modifierOptionIds"`
	Notes             string          `json:"notes"`
}

type submitOrderRequest struct {
	CheckoutMode   string            `json:"checkoutMode"`
	Customer       customerRequest   `json:"customer"`
	Channel        string            `json:"channel"`
	PaymentMethod  string            `json:"paymentMethod"`
	Address        *address.Address  `json:"address"`
	Items          []cartItemRequest `json:"items"`
	CouponCode     string            `json:"couponCode"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Notes          string            `json:"notes"`
	ScheduledFor   *time.Time        `json:"scheduledFor"`
}

func (r submitOrderRequest) toInput(slug string) order.SubmitInput {
	items := make([]order.CartItem, len(r.Items))
	for i, it := range r.Items {
		items[i] = order.CartItem{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			UnitType:          order.UnitType(it.UnitType),
			ModifierOptionIDs: it.ModifierOptionIDs,
			Notes:             it.Notes,
		}
	}

	return order.SubmitInput{
		StoreSlug:      slug,
		CheckoutMode:   storefront.CheckoutMode(r.CheckoutMode),
		Customer:       order.CustomerForm{Name: r.Customer.Name, Phone: r.Customer.Phone, Email: r.Customer.Email},
		Channel:        order.Channel(r.Channel),
		PaymentMethod:  order.PaymentMethod(r.PaymentMethod),
		Address:        r.Address,
		Items:          items,
		CouponCode:     r.CouponCode,
		IdempotencyKey: r.IdempotencyKey,
		Notes:          r.Notes,
		ScheduledFor:   r.ScheduledFor,
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

type openRegisterRequest struct {
	OpeningAmount *decimal.Decimal `json:"openingAmount" binding:"required"`
}

type closeRegisterRequest struct {
	RegisterID    *uuid.UUID       `json:"registerId"`
	CountedAmount *decimal.Decimal `json:"countedAmount" binding:"required"`
	Pin           string           `json:"pin"`
}

type movementRequest struct {
	Type          string           `json:"type" binding:"required"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Description   string           `json:"description"`
	PaymentMethod string           `json:"paymentMethod"`
}

// ---------- RESPONSES ----------

type orderModifierResponse struct {
	OptionID uuid.UUID       `json:"optionId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
}

type orderItemResponse struct {
	ID          uuid.UUID               `json:"id"`
	ProductID   uuid.UUID               `json:"productId"`
	ProductName string                  `json:"productName"`
	UnitPrice   decimal.Decimal         `json:"unitPrice"`
	Quantity    decimal.Decimal         `json:"quantity"`
	UnitType    string                  `json:"unitType"`
	Notes       *string                 `json:"notes,omitempty"`
	TotalPrice  decimal.Decimal         `json:"totalPrice"`
	Modifiers   []orderModifierResponse `json:"modifiers"`
}

type orderEventResponse struct {
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

type orderResponse struct {
	ID                 uuid.UUID            `json:"id"`
	Code               string               `json:"code"`
	CustomerName       string               `json:"customerName,omitempty"`
	CustomerPhone      *string              `json:"customerPhone,omitempty"`
	Channel            string               `json:"channel"`
	PaymentMethod      string               `json:"paymentMethod"`
	Status             string               `json:"status"`
	PaymentStatus      string               `json:"paymentStatus"`
	NextStatus         *string              `json:"nextStatus,omitempty"`
	AllowedTransitions []string             `json:"allowedTransitions"`
	Subtotal           decimal.Decimal      `json:"subtotal"`
	Discount           decimal.Decimal      `json:"discount"`
	DeliveryFee        decimal.Decimal      `json:"deliveryFee"`
	Total              decimal.Decimal      `json:"total"`
	Notes              *string              `json:"notes,omitempty"`
	CouponCode         *string              `json:"couponCode,omitempty"`
	DeliveryAddress    *address.Address     `json:"deliveryAddress,omitempty"`
	ScheduledFor       *time.Time           `json:"scheduledFor,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
	Items              []orderItemResponse  `json:"items,omitempty"`
	Events             []orderEventResponse `json:"events,omitempty"`
}

type orderPageResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int32           `json:"page"`
	Limit  int32           `json:"limit"`
}

func mapOrder(o *order.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID,
		Code:            o.Code,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		Channel:         string(o.Channel),
		PaymentMethod:   string(o.PaymentMethod),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		DeliveryFee:     o.DeliveryFee,
		Total:           o.Total,
		Notes:           o.Notes,
		CouponCode:      o.CouponCode,
		DeliveryAddress: o.DeliveryAddress,
		ScheduledFor:    o.ScheduledFor,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if next, ok := order.NextStatus(o.Status, o.Channel); ok {
		s := string(next)
		out.NextStatus = &s
	}
	out.AllowedTransitions = make([]string, 0, 2)
	for _, st := range order.AllowedTransitions(o.Status, o.Channel) {
		out.AllowedTransitions = append(out.AllowedTransitions, string(st))
	}

	for _, it := range o.Items {
		item := orderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			UnitType:    string(it.UnitType),
			Notes:       it.Notes,
			TotalPrice:  it.TotalPrice,
			Modifiers:   make([]orderModifierResponse, 0, len(it.Modifiers)),
		}
		for _, m := range it.Modifiers {
			item.Modifiers = append(item.Modifiers, orderModifierResponse{OptionID: m.OptionID, Name: m.Name, Price: m.Price})
		}
		out.Items = append(out.Items, item)
	}
	for _, e := range o.Events {
		out.Events = append(out.Events, orderEventResponse{Type: e.Type, Actor: e.Actor, CreatedAt: e.CreatedAt})
	}
	return out
}

func mapOrderPage(p *order.OrderPage) orderPageResponse {
	out := orderPageResponse{
		Orders: make([]orderResponse, 0, len(p.Orders)),
		Total:  p.Total,
		Page:   p.Page,
		Limit:  p.Limit,
	}
	for _, o := range p.Orders {
		out.Orders = append(out.Orders, mapOrder(o))
	}
	return out
}

type couponPreviewResponse struct {
	Valid        bool            `json:"valid"`
	Code         string          `json:"code"`
	DiscountType string          `json:"discountType,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	ErrorCode    string          `json:"errorCode,omitempty"`
}
