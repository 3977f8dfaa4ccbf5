package models

// OrderStatus is the lifecycle state of an order. The set is closed: new
// states must be added here and to the flow table below.
type OrderStatus string

const (
	StatusPendingPayment     OrderStatus = "PENDING_PAYMENT"
	StatusPaymentArranged    OrderStatus = "PAYMENT_ARRANGED"
	StatusMaterialsReceived  OrderStatus = "MATERIALS_RECEIVED"
	StatusReadyForProduction OrderStatus = "READY_FOR_PRODUCTION"
	StatusInProduction       OrderStatus = "IN_PRODUCTION"
	StatusShipped            OrderStatus = "SHIPPED"
	StatusCompleted          OrderStatus = "COMPLETED"
	StatusCancelled          OrderStatus = "CANCELLED"
)

// statusFlow is the legal lifecycle graph: a strictly linear chain with
// CANCELLED reachable from every non-terminal state. COMPLETED and CANCELLED
// are terminal.
var statusFlow = map[OrderStatus][]OrderStatus{
	StatusPendingPayment:     {StatusPaymentArranged, StatusCancelled},
	StatusPaymentArranged:    {StatusMaterialsReceived, StatusCancelled},
	StatusMaterialsReceived:  {StatusReadyForProduction, StatusCancelled},
	StatusReadyForProduction: {StatusInProduction, StatusCancelled},
	StatusInProduction:       {StatusShipped, StatusCancelled},
	StatusShipped:            {StatusCompleted, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

var statusLabels = map[OrderStatus]string{
	StatusPendingPayment:     "Pending Payment",
	StatusPaymentArranged:    "Payment Arranged",
	StatusMaterialsReceived:  "Materials Received",
	StatusReadyForProduction: "Ready for Production",
	StatusInProduction:       "In Production",
	StatusShipped:            "Shipped",
	StatusCompleted:          "Completed",
	StatusCancelled:          "Cancelled",
}

// NextStatuses returns the statically defined successor set for the given
// status. Unknown statuses yield an empty set.
func NextStatuses(current OrderStatus) []OrderStatus {
	next, ok := statusFlow[current]
	if !ok {
		return []OrderStatus{}
	}
	return next
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(s OrderStatus) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValidTransition reports whether an order may move from current to target.
// Staying in the same status is always allowed, and any non-terminal order
// may be cancelled.
func IsValidTransition(current, target OrderStatus) bool {
	if current == target {
		return true
	}

	if target == StatusCancelled && !IsTerminal(current) {
		return true
	}

	for _, next := range NextStatuses(current) {
		if next == target {
			return true
		}
	}
	return false
}

// IsKnownStatus reports whether s is one of the eight defined states.
func IsKnownStatus(s OrderStatus) bool {
	_, ok := statusFlow[s]
	return ok
}

// InitialStatus returns the status a freshly created order starts in. Card
// payments need manual follow-up, so they begin at PENDING_PAYMENT; check
// and ACH are treated as arranged immediately.
func InitialStatus(method PaymentMethod) OrderStatus {
	if method == PaymentMethodCheck || method == PaymentMethodACH {
		return StatusPaymentArranged
	}
	return StatusPendingPayment
}

// StatusOnPaymentReceived is the named rule for the status advance that
// accompanies recording a payment: orders still waiting on payment move to
// MATERIALS_RECEIVED, anything further along keeps its status. The second
// return value reports whether the status changed.
func StatusOnPaymentReceived(current OrderStatus) (OrderStatus, bool) {
	if current == StatusPendingPayment || current == StatusPaymentArranged {
		return StatusMaterialsReceived, true
	}
	return current, false
}

// StatusLabel returns the human-readable label for a status.
func StatusLabel(s OrderStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
