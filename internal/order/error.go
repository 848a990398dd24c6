package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrStatusConflict       = errors.New("order status changed concurrently")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// Kind classifies submission failures.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindStoreNotFound Kind = "STORE_NOT_FOUND"
	KindBilling       Kind = "BILLING_BLOCKED"
	KindPersistence   Kind = "PERSISTENCE_ERROR"
	KindUnknown       Kind = "UNKNOWN_ERROR"
)

// Persistence sub-codes reported by the atomic create.
const (
	CodeCouponInvalid      = "COUPON_INVALID"
	CodeCouponExpired      = "COUPON_EXPIRED"
	CodeCouponExhausted    = "COUPON_EXHAUSTED"
	CodeCouponMinOrder     = "COUPON_MIN_ORDER"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	CodeModifierInvalid    = "MODIFIER_INVALID"
	CodeStoreClosed        = "STORE_CLOSED"
)

const unknownMessage = "Erro ao processar pedido. Tente novamente."

// Error is a typed submission failure. Code is the machine-readable reason
// and defaults to the kind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func validationError(message string, details map[string]interface{}) *Error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: message, Details: details}
}

func persistenceError(code, message string, details map[string]interface{}) *Error {
	return &Error{Kind: KindPersistence, Code: code, Message: message, Details: details}
}
