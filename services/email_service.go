package services

import (
	"go.uber.org/zap"

	"github.com/truetread/truetread-api/models"
)

// Notifier sends customer-facing notifications for order lifecycle events.
// The shipped implementation only logs; wiring a real delivery provider
// behind this interface is a deployment concern, not an application one.
type Notifier interface {
	OrderConfirmation(order *models.Order)
	PaymentInstructions(order *models.Order)
	PaymentConfirmation(order *models.Order)
	StatusUpdate(order *models.Order, newStatus models.OrderStatus, notes string)
}

// LogNotifier writes notification events to the structured log instead of
// delivering email.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a Notifier that logs every event.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// OrderConfirmation is sent immediately after order creation.
func (n *LogNotifier) OrderConfirmation(order *models.Order) {
	n.logger.Info("email: order confirmation",
		zap.String("order_number", order.OrderNumber),
		zap.String("email", order.Email))
}

// PaymentInstructions is keyed by payment method: card orders get manual
// follow-up instructions, check orders the mailing address, ACH orders the
// bank details.
func (n *LogNotifier) PaymentInstructions(order *models.Order) {
	n.logger.Info("email: payment instructions",
		zap.String("order_number", order.OrderNumber),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int64("amount_cents", order.TotalAmountCents))
}

// PaymentConfirmation is sent when an admin marks payment as received.
func (n *LogNotifier) PaymentConfirmation(order *models.Order) {
	n.logger.Info("email: payment confirmation",
		zap.String("order_number", order.OrderNumber))
}

// StatusUpdate is sent when an order's status changes.
func (n *LogNotifier) StatusUpdate(order *models.Order, newStatus models.OrderStatus, notes string) {
	n.logger.Info("email: status update",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(newStatus)),
		zap.String("notes", notes))
}
