package cashregister

import "github.com/shopspring/decimal"

// ValidateMovement checks a manual entry before it reaches the ledger.
// Adjustments may be negative but never zero; everything else must be positive.
func ValidateMovement(t MovementType, amount decimal.Decimal) error {
	if !t.IsValid() {
		return ErrInvalidMovementType
	}
	if t == MovementAdjustment {
		if amount.IsZero() {
			return ErrInvalidAmount
		}
		return nil
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Summarize folds movements into a drawer balance. Order does not matter.
func Summarize(opening decimal.Decimal, movements []Movement) Summary {
	s := Summary{
		Opening:     opening,
		TotalIn:     decimal.Zero,
		TotalOut:    decimal.Zero,
		Adjustments: decimal.Zero,
		Movements:   len(movements),
	}

	for _, m := range movements {
		switch m.Type {
		case MovementSale, MovementDeposit:
			s.TotalIn = s.TotalIn.Add(m.Amount)
		case MovementWithdrawal:
			s.TotalOut = s.TotalOut.Add(m.Amount)
		case MovementAdjustment:
			s.Adjustments = s.Adjustments.Add(m.Amount)
		}
	}

	s.Expected = opening.Add(s.TotalIn).Sub(s.TotalOut).Add(s.Adjustments)
	return s
}

func Expected(opening decimal.Decimal, movements []Movement) decimal.Decimal {
	return Summarize(opening, movements).Expected
}

// Reconcile returns counted minus expected. Negative means the drawer is short.
func Reconcile(counted, expected decimal.Decimal) decimal.Decimal {
	return counted.Sub(expected)
}
