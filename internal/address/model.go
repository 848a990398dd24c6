package address

import "errors"

var ErrIncomplete = errors.New("incomplete delivery address")

// Address is the delivery sub-form of a checkout.
type Address struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	Zip        string `json:"zip"`
	Reference  string `json:"reference,omitempty"`
}
