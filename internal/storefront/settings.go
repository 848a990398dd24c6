package storefront

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTimezone     = "America/Sao_Paulo"
	DefaultMaxDaysAhead = 7
)

func DefaultSettings() Settings {
	return Settings{
		CheckoutMode:    CheckoutGuest,
		AcceptingOrders: true,
		Timezone:        DefaultTimezone,
		Payments: PaymentSettings{
			Pix:  true,
			Cash: true,
			Card: true,
		},
		Delivery: DeliverySettings{
			Enabled: true,
			Fee:     decimal.Zero,
		},
		Scheduling: SchedulingSettings{
			MaxDaysAhead: DefaultMaxDaysAhead,
		},
	}
}

// ParseSettings overlays the stored JSON on DefaultSettings so absent keys
// keep their defaults.
func ParseSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 || string(raw) == "null" {
		return s, nil
	}

	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	if !s.CheckoutMode.IsValid() {
		s.CheckoutMode = CheckoutGuest
	}
	if s.Scheduling.MaxDaysAhead <= 0 {
		s.Scheduling.MaxDaysAhead = DefaultMaxDaysAhead
	}
	if s.Delivery.Fee.IsNegative() {
		return Settings{}, fmt.Errorf("%w: negative delivery fee", ErrInvalidSettings)
	}
	s.BusinessHours = validHours(s.BusinessHours)

	return s, nil
}

// validHours drops entries with an unreadable clock or weekday. One bad row
// must not void the rest of the settings.
func validHours(in []BusinessHours) []BusinessHours {
	if len(in) == 0 {
		return in
	}
	out := make([]BusinessHours, 0, len(in))
	for _, h := range in {
		if h.Weekday < time.Sunday || h.Weekday > time.Saturday {
			continue
		}
		if _, err := parseClock(h.Open); err != nil {
			continue
		}
		if _, err := parseClock(h.Close); err != nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

// AllowsPayment reports whether the payment method (PIX, CASH, CARD, ONLINE)
// is enabled for the store.
func (s Settings) AllowsPayment(method string) bool {
	switch strings.ToUpper(method) {
	case "PIX":
		return s.Payments.Pix
	case "CASH":
		return s.Payments.Cash
	case "CARD":
		return s.Payments.Card
	case "ONLINE":
		return s.Payments.Online
	}
	return false
}

// DeliveryFeeFor returns the fee charged for a delivery order of subtotal.
func (s Settings) DeliveryFeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if s.Delivery.FreeAbove != nil && subtotal.GreaterThanOrEqual(*s.Delivery.FreeAbove) {
		return decimal.Zero
	}
	return s.Delivery.Fee
}

func (s Settings) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// IsOpenAt reports whether t falls inside the configured business hours.
// A store without business hours is always open.
func (s Settings) IsOpenAt(t time.Time) bool {
	if len(s.BusinessHours) == 0 {
		return true
	}

	local := t.In(s.Location())
	minute := local.Hour()*60 + local.Minute()
	yesterday := (local.Weekday() + 6) % 7

	for _, h := range s.BusinessHours {
		open, err := parseClock(h.Open)
		if err != nil {
			continue
		}
		closeAt, err := parseClock(h.Close)
		if err != nil {
			continue
		}

		if closeAt > open {
			if h.Weekday == local.Weekday() && minute >= open && minute < closeAt {
				return true
			}
			continue
		}

		// overnight window
		if h.Weekday == local.Weekday() && minute >= open {
			return true
		}
		if h.Weekday == yesterday && minute < closeAt {
			return true
		}
	}
	return false
}

// parseClock returns minutes since midnight. "24:00" is accepted as end of day.
func parseClock(v string) (int, error) {
	if v == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}
