package realtime

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
)

// OrderChange notifies dashboards that an order of StoreID changed. Clients
// refetch on receipt; ordering across publishers is not guaranteed.
type OrderChange struct {
	Type          ChangeType `json:"type"`
	StoreID       uuid.UUID  `json:"storeId"`
	OrderID       uuid.UUID  `json:"orderId"`
	Code          string     `json:"code,omitempty"`
	Status        string     `json:"status,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	At            time.Time  `json:"at"`
}

func Channel(storeID uuid.UUID) string {
	return "orders:" + storeID.String()
}
