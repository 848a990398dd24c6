package order

var forward = map[OrderStatus]OrderStatus{
	StatusPending:        StatusAccepted,
	StatusAccepted:       StatusInPreparation,
	StatusInPreparation:  StatusReady,
	StatusOutForDelivery: StatusDelivered,
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInPreparation, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// NextStatus is the single forward step from s. READY leads to
// OUT_FOR_DELIVERY only for delivery orders; pickup orders go straight to
// DELIVERED.
func NextStatus(s OrderStatus, ch Channel) (OrderStatus, bool) {
	if s == StatusReady {
		if ch == ChannelDelivery {
			return StatusOutForDelivery, true
		}
		return StatusDelivered, true
	}
	next, ok := forward[s]
	return next, ok
}

// CanTransition allows one forward step or cancellation of a non-terminal order.
func CanTransition(from, to OrderStatus, ch Channel) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	next, ok := NextStatus(from, ch)
	return ok && next == to
}

// AllowedTransitions lists the statuses reachable from s, used by dashboards
// to decide which action buttons to show.
func AllowedTransitions(s OrderStatus, ch Channel) []OrderStatus {
	if s.IsTerminal() {
		return nil
	}
	var out []OrderStatus
	if next, ok := NextStatus(s, ch); ok {
		out = append(out, next)
	}
	return append(out, StatusCancelled)
}
