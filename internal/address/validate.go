package address

import (
	"fmt"
	"strings"

	"storefront-be/internal/utils"
)

// Normalize trims every field, upper-cases the state and keeps only digits in the zip.
func Normalize(a Address) Address {
	return Address{
		Street:     strings.TrimSpace(a.Street),
		Number:     strings.TrimSpace(a.Number),
		Complement: strings.TrimSpace(a.Complement),
		District:   strings.TrimSpace(a.District),
		City:       strings.TrimSpace(a.City),
		State:      strings.ToUpper(strings.TrimSpace(a.State)),
		Zip:        utils.OnlyDigits(a.Zip),
		Reference:  strings.TrimSpace(a.Reference),
	}
}

// MissingFields lists the required fields that are blank after normalisation.
func MissingFields(a Address) []string {
	a = Normalize(a)

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"number", a.Number},
		{"district", a.District},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func Validate(a Address) error {
	if missing := MissingFields(a); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// OneLine renders the address for receipts and logs.
func (a Address) OneLine() string {
	a = Normalize(a)

	line := a.Street + ", " + a.Number
	if a.Complement != "" {
		line += " - " + a.Complement
	}
	return fmt.Sprintf("%s, %s, %s/%s, %s", line, a.District, a.City, a.State, a.Zip)
}
