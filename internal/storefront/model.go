package storefront

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutMode string

const (
	CheckoutGuest         CheckoutMode = "guest"
	CheckoutPhoneRequired CheckoutMode = "phone_required"
)

func (m CheckoutMode) IsValid() bool {
	return m == CheckoutGuest || m == CheckoutPhoneRequired
}

type Store struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Slug      string
	Name      string
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settings is the typed form of the stores.settings JSONB column.
type Settings struct {
	CheckoutMode    CheckoutMode       `json:"checkoutMode"`
	AcceptingOrders bool               `json:"acceptingOrders"`
	Timezone        string             `json:"timezone"`
	Payments        PaymentSettings    `json:"payments"`
	Delivery        DeliverySettings   `json:"delivery"`
	Scheduling      SchedulingSettings `json:"scheduling"`
	Cash            CashSettings       `json:"cash"`
	BusinessHours   []BusinessHours    `json:"businessHours"`
	Branding        Branding           `json:"branding"`
}

type PaymentSettings struct {
	Pix    bool `json:"pix"`
	Cash   bool `json:"cash"`
	Card   bool `json:"card"`
	Online bool `json:"online"`
}

type DeliverySettings struct {
	Enabled   bool             `json:"enabled"`
	Fee       decimal.Decimal  `json:"fee"`
	FreeAbove *decimal.Decimal `json:"freeAbove,omitempty"`
}

type SchedulingSettings struct {
	Enabled      bool `json:"enabled"`
	MaxDaysAhead int  `json:"maxDaysAhead"`
}

type CashSettings struct {
	// ClosePinHash is a bcrypt hash; empty means closing needs no PIN.
	ClosePinHash string `json:"closePinHash,omitempty"`
}

// BusinessHours opens the store on Weekday (0 = Sunday) between Open and
// Close, both "HH:MM". Close earlier than Open spans midnight.
type BusinessHours struct {
	Weekday time.Weekday `json:"weekday"`
	Open    string       `json:"open"`
	Close   string       `json:"close"`
}

type Branding struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
}
