package order

import (
	"strings"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/storefront"

	"github.com/shopspring/decimal"
)

const (
	maxIdempotencyKeyLen = 128
	maxItems             = 100
	maxNotesLen          = 500
)

// ValidateSubmission checks the checkout form on its own, before the store is
// resolved or anything is sent to the database.
func ValidateSubmission(in SubmitInput, now time.Time) *Error {
	if strings.TrimSpace(in.StoreSlug) == "" {
		return validationError("Loja não informada", map[string]interface{}{"field": "storeSlug"})
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > maxIdempotencyKeyLen {
		return validationError("Chave de idempotência inválida", map[string]interface{}{"field": "idempotencyKey"})
	}

	if len(in.Items) == 0 {
		return validationError("Carrinho vazio", map[string]interface{}{"field": "items"})
	}
	if len(in.Items) > maxItems {
		return validationError("Carrinho com itens demais", map[string]interface{}{"field": "items", "max": maxItems})
	}
	for i, item := range in.Items {
		if err := validateItem(i, item); err != nil {
			return err
		}
	}

	if !in.Channel.IsValid() {
		return validationError("Canal inválido", map[string]interface{}{"field": "channel"})
	}
	if !in.PaymentMethod.IsValid() {
		return validationError("Forma de pagamento inválida", map[string]interface{}{"field": "paymentMethod"})
	}

	if err := validateCustomer(in.Customer, in.CheckoutMode); err != nil {
		return err
	}

	if in.Channel == ChannelDelivery {
		if in.Address == nil {
			return validationError("Endereço de entrega obrigatório", map[string]interface{}{
				"field":   "address",
				"missing": address.MissingFields(address.Address{}),
			})
		}
		if missing := address.MissingFields(*in.Address); len(missing) > 0 {
			return validationError("Endereço de entrega incompleto", map[string]interface{}{
				"field":   "address",
				"missing": missing,
			})
		}
	}

	if len(in.Notes) > maxNotesLen {
		return validationError("Observação muito longa", map[string]interface{}{"field": "notes", "max": maxNotesLen})
	}

	if in.ScheduledFor != nil && !in.ScheduledFor.After(now) {
		return validationError("Horário agendado deve ser no futuro", map[string]interface{}{"field": "scheduledFor"})
	}

	return nil
}

// ValidateForStore applies the store's own settings once it is known.
func ValidateForStore(in SubmitInput, settings storefront.Settings, now time.Time) *Error {
	if settings.CheckoutMode == storefront.CheckoutPhoneRequired {
		if err := validateCustomer(in.Customer, storefront.CheckoutPhoneRequired); err != nil {
			return err
		}
	}

	if !settings.AllowsPayment(string(in.PaymentMethod)) {
		return validationError("Forma de pagamento não aceita pela loja", map[string]interface{}{
			"field":         "paymentMethod",
			"paymentMethod": in.PaymentMethod,
		})
	}

	if in.Channel == ChannelDelivery && !settings.Delivery.Enabled {
		return validationError("Loja não faz entregas", map[string]interface{}{"field": "channel"})
	}

	if in.ScheduledFor != nil {
		if !settings.Scheduling.Enabled {
			return validationError("Loja não aceita agendamento", map[string]interface{}{"field": "scheduledFor"})
		}
		limit := now.AddDate(0, 0, settings.Scheduling.MaxDaysAhead)
		if in.ScheduledFor.After(limit) {
			return validationError("Agendamento além do permitido", map[string]interface{}{
				"field":        "scheduledFor",
				"maxDaysAhead": settings.Scheduling.MaxDaysAhead,
			})
		}
		return nil
	}

	if !settings.IsOpenAt(now) {
		return persistenceError(CodeStoreClosed, "Loja fechada no momento", nil)
	}
	return nil
}

func validateItem(i int, item CartItem) *Error {
	details := map[string]interface{}{"field": "items", "index": i}

	if item.Quantity.LessThanOrEqual(decimal.Zero) {
		return validationError("Quantidade inválida", details)
	}

	switch item.UnitType {
	case "", UnitEach:
		if !item.Quantity.Equal(item.Quantity.Truncate(0)) {
			return validationError("Quantidade deve ser inteira", details)
		}
	case UnitWeight:
	default:
		return validationError("Unidade inválida", details)
	}
	return nil
}

func validateCustomer(c CustomerForm, mode storefront.CheckoutMode) *Error {
	if mode == storefront.CheckoutPhoneRequired && strings.TrimSpace(c.Phone) == "" {
		return validationError("Telefone obrigatório", map[string]interface{}{"field": "phone"})
	}
	return nil
}
