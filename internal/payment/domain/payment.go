package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment represents one ledger entry. Records are never deleted; the ledger
// is the audit trail for every provider interaction.
type Payment struct {
	ID                    string     `json:"id" gorm:"primaryKey;size:36"`
	BookingID             string     `json:"booking_id" gorm:"not null;index"`
	UserID                string     `json:"user_id" gorm:"not null;index"`
	Amount                float64    `json:"amount" gorm:"not null"`
	Currency              string     `json:"currency" gorm:"size:3;default:'ZMW'"`
	PaymentType           string     `json:"payment_type" gorm:"not null"`
	Provider              string     `json:"provider" gorm:"not null;index"`
	Intent                string     `json:"intent" gorm:"not null;default:'PAYMENT'"`
	Status                string     `json:"status" gorm:"not null;default:'PENDING';index"`
	PaymentMethodID       string     `json:"payment_method_id,omitempty"`
	ProviderTransactionID string     `json:"provider_transaction_id,omitempty" gorm:"index"`
	ProviderReference     string     `json:"provider_reference,omitempty"`
	FailureReason         string     `json:"failure_reason,omitempty"`
	ProcessedAt           *time.Time `json:"processed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate assigns the ledger id
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Payment statuses
const (
	StatusPending    = "PENDING"    // created, provider not yet confirmed
	StatusProcessing = "PROCESSING" // provider acknowledged, outcome unknown
	StatusHeld       = "HELD"       // funds reserved, not captured
	StatusCompleted  = "COMPLETED"  // charge finalized
	StatusFailed     = "FAILED"     // terminal failure
	StatusReleased   = "RELEASED"   // hold cancelled without charge
	StatusRefunded   = "REFUNDED"   // completed charge reversed
)

// Payment intents
const (
	IntentPayment = "PAYMENT"
	IntentHold    = "HOLD"
)

// Payment providers
const (
	ProviderAirtelMoney  = "AIRTEL_MONEY"
	ProviderMTNMoMo      = "MTN_MOMO"
	ProviderZamtelKwacha = "ZAMTEL_KWACHA"
	ProviderStripe       = "STRIPE"
	ProviderDPO          = "DPO"
)

// Payment types
const (
	TypeBookingPayment  = "BOOKING_PAYMENT"
	TypeSecurityDeposit = "SECURITY_DEPOSIT"
	TypeDamageCharge    = "DAMAGE_CHARGE"
	TypeRefund          = "REFUND"
	TypePartialRefund   = "PARTIAL_REFUND"
)

// transitions holds the legal status edges. Refund from COMPLETED is the only
// edge out of an otherwise terminal state.
var transitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusHeld, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusHeld, StatusCompleted, StatusFailed},
	StatusHeld:       {StatusCompleted, StatusReleased},
	StatusCompleted:  {StatusRefunded},
}

// CanTransition reports whether a status change follows a legal edge
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status admits no further provider-driven change.
// COMPLETED is terminal for reconciliation purposes even though a refund can
// still move it.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusReleased, StatusRefunded:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known payment status
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusHeld, StatusCompleted,
		StatusFailed, StatusReleased, StatusRefunded:
		return true
	}
	return false
}

// StatusUpdate carries the mutable fields of a reconciliation or provider
// result write. Amount and currency are immutable and deliberately absent.
type StatusUpdate struct {
	Status                string
	ProviderTransactionID string
	ProviderReference     string
	FailureReason         string
	ProcessedAt           *time.Time
}

// PaymentRepository defines the contract for ledger access. Only the
// orchestrator and the reconciliation service write through it.
type PaymentRepository interface {
	// Create persists a new PENDING record before any provider call
	Create(ctx context.Context, payment *Payment) error
	// CreateHold persists a new PENDING hold, failing with ErrActiveHoldExists
	// when the booking already has a hold in PENDING or HELD
	CreateHold(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]Payment, error)
	FindAll(ctx context.Context, limit, offset int) ([]Payment, error)
	// UpdateStatus applies a status write unconditionally (orchestrator path,
	// immediately after a provider result)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
	// UpdateStatusIfNonTerminal applies the write only while the record is
	// still non-terminal and reports whether a row changed. Reconciliation
	// runs may overlap; this keeps them idempotent.
	UpdateStatusIfNonTerminal(ctx context.Context, id string, update StatusUpdate) (bool, error)
	// FindForReconciliation returns up to limit non-terminal payments with a
	// provider transaction id, updated since cutoff, oldest-updated first
	FindForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]Payment, error)
	// FindStaleHolds returns HELD, intent=HOLD payments created before cutoff
	FindStaleHolds(ctx context.Context, cutoff time.Time) ([]Payment, error)
	// FindCreatedSince returns payments created at or after cutoff (reporting)
	FindCreatedSince(ctx context.Context, cutoff time.Time) ([]Payment, error)
}
