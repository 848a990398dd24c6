package order

import (
	"time"

	"storefront-be/internal/realtime"

	"github.com/google/uuid"
)

func successResult(p *Placement) SubmitResult {
	id := p.OrderID
	return SubmitResult{Success: true, OrderID: &id, OrderCode: p.Code}
}

func failureResult(e *Error) SubmitResult {
	code := e.Code
	if code == "" {
		code = string(e.Kind)
	}
	return SubmitResult{
		Success:      false,
		Error:        e.Message,
		ErrorCode:    code,
		ErrorDetails: e.Details,
		Kind:         e.Kind,
	}
}

func unknownResult() SubmitResult {
	return failureResult(&Error{Kind: KindUnknown, Code: string(KindUnknown), Message: unknownMessage})
}

func changeFor(o *Order, t realtime.ChangeType, at time.Time) realtime.OrderChange {
	return realtime.OrderChange{
		Type:          t,
		StoreID:       o.StoreID,
		OrderID:       o.ID,
		Code:          o.Code,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		At:            at,
	}
}

func createdChange(storeID uuid.UUID, p *Placement, at time.Time) realtime.OrderChange {
	return realtime.OrderChange{
		Type:          realtime.ChangeInsert,
		StoreID:       storeID,
		OrderID:       p.OrderID,
		Code:          p.Code,
		Status:        string(StatusPending),
		PaymentStatus: string(PaymentStatusPending),
		At:            at,
	}
}
