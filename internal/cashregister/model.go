package cashregister

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementDeposit    MovementType = "deposit"
	MovementWithdrawal MovementType = "withdrawal" // sangria
	MovementAdjustment MovementType = "adjustment"
)

func (t MovementType) IsValid() bool {
	switch t {
	case MovementSale, MovementDeposit, MovementWithdrawal, MovementAdjustment:
		return true
	}
	return false
}

// Register is one shift of a store's cash drawer. The closing fields stay
// nil while the register is open and never change after close.
type Register struct {
	ID             uuid.UUID        `json:"id"`
	StoreID        uuid.UUID        `json:"storeId"`
	Status         Status           `json:"status"`
	OpeningAmount  decimal.Decimal  `json:"openingAmount"`
	ClosingAmount  *decimal.Decimal `json:"closingAmount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	OpenedBy       string           `json:"openedBy"`
	OpenedAt       time.Time        `json:"openedAt"`
	ClosedBy       *string          `json:"closedBy,omitempty"`
	ClosedAt       *time.Time       `json:"closedAt,omitempty"`
}

func (r *Register) IsOpen() bool {
	return r.Status == StatusOpen
}

// Movement is an append-only ledger entry. Amount is a magnitude except for
// adjustments, which carry their own sign.
type Movement struct {
	ID            uuid.UUID       `json:"id"`
	StoreID       uuid.UUID       `json:"storeId"`
	RegisterID    *uuid.UUID      `json:"registerId,omitempty"`
	OrderID       *uuid.UUID      `json:"orderId,omitempty"`
	Type          MovementType    `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   *string         `json:"description,omitempty"`
	PaymentMethod *string         `json:"paymentMethod,omitempty"`
	Actor         string          `json:"actor"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Summary is the drawer balance derived from a register's movements.
type Summary struct {
	Opening     decimal.Decimal `json:"opening"`
	TotalIn     decimal.Decimal `json:"totalIn"`
	TotalOut    decimal.Decimal `json:"totalOut"`
	Adjustments decimal.Decimal `json:"adjustments"`
	Expected    decimal.Decimal `json:"expected"`
	Movements   int             `json:"movements"`
}

type MovementInput struct {
	StoreID       uuid.UUID
	Type          MovementType
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
}

type CloseInput struct {
	StoreID uuid.UUID
	// RegisterID pins the register the caller saw; nil closes whichever is open.
	RegisterID *uuid.UUID
	Counted    decimal.Decimal
	Pin        string
}

type closeParams struct {
	StoreID    uuid.UUID
	RegisterID *uuid.UUID
	Counted    decimal.Decimal
	Actor      string
	Now        time.Time
}
