package kafka

import "time"

// PaymentStatusChangedEvent announces a ledger transition to downstream
// consumers (notifications, accounting exports)
type PaymentStatusChangedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	PaymentID     string    `json:"payment_id"`
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	Provider      string    `json:"provider"`
	Intent        string    `json:"intent"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeFundsHeld        = "payment.held"
	EventTypeHoldReleased     = "payment.hold_released"
	EventTypePaymentRefunded  = "payment.refunded"
)

// Kafka topics
const (
	TopicPaymentStatus = "payment-status"
)
