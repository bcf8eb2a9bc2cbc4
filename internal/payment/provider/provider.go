// Package provider defines the payment rail contract and the sandbox
// adapters for the supported mobile-money and card providers.
package provider

import (
	"context"
	"time"
)

// PaymentRequest carries a direct charge to a provider
type PaymentRequest struct {
	Amount          float64
	Currency        string
	PaymentMethodID string
	CustomerID      string
	Description     string
	Metadata        map[string]string
}

// PaymentResult is the outcome of a charge, capture or release
type PaymentResult struct {
	Success               bool
	PaymentID             string
	ProviderTransactionID string
	ProviderReference     string
	Status                string
	Message               string
	FailureReason         string
}

// HoldRequest reserves funds without capturing them
type HoldRequest struct {
	Amount          float64
	Currency        string
	PaymentMethodID string
	CustomerID      string
	Description     string
	Metadata        map[string]string
}

// HoldResult is the outcome of a hold attempt
type HoldResult struct {
	Success               bool
	HoldID                string
	ProviderTransactionID string
	Status                string
	Message               string
	FailureReason         string
}

// RefundRequest reverses a completed charge, fully when Amount is zero
type RefundRequest struct {
	PaymentID string
	Amount    float64
	Reason    string
}

// RefundResult is the outcome of a refund attempt
type RefundResult struct {
	Success       bool
	RefundID      string
	Amount        float64
	Status        string
	Message       string
	FailureReason string
}

// StatusResult is the provider-side view of a transaction, the authoritative
// input for reconciliation
type StatusResult struct {
	PaymentID     string
	Status        string
	Amount        float64
	Currency      string
	ProcessedAt   *time.Time
	FailureReason string
}

// MobileMoneyRequest initiates a wallet push prompt on a subscriber's phone
type MobileMoneyRequest struct {
	PhoneNumber string
	Amount      float64
	Currency    string
	Description string
	CustomerID  string
}

// MobileMoneyResult is the outcome of a push payment initiation
type MobileMoneyResult struct {
	Success           bool
	TransactionID     string
	ProviderReference string
	Status            string
	Message           string
	FailureReason     string
}

// TokenizeCardRequest exchanges raw card details for an opaque token
type TokenizeCardRequest struct {
	CardNumber     string
	ExpiryMonth    int
	ExpiryYear     int
	CVV            string
	CardholderName string
	CustomerID     string
}

// TokenizeCardResult is the outcome of a tokenization attempt
type TokenizeCardResult struct {
	Success       bool
	Token         string
	Last4         string
	Brand         string
	ExpiryMonth   int
	ExpiryYear    int
	FailureReason string
}

// PaymentProvider is the contract every rail adapter satisfies. Calls block on
// network I/O and honor context cancellation; a non-nil error means the
// interaction itself failed (transport, timeout), while a decline comes back
// as Success=false with a FailureReason.
type PaymentProvider interface {
	Name() string
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	HoldFunds(ctx context.Context, req HoldRequest) (*HoldResult, error)
	// CaptureFunds finalizes a hold. amount 0 captures the full held amount;
	// a partial amount must not exceed it.
	CaptureFunds(ctx context.Context, holdID string, amount float64) (*PaymentResult, error)
	ReleaseFunds(ctx context.Context, holdID string) (*PaymentResult, error)
	RefundPayment(ctx context.Context, req RefundRequest) (*RefundResult, error)
	GetPaymentStatus(ctx context.Context, providerTransactionID string) (*StatusResult, error)
}

// MobileMoneyProvider extends the base contract with wallet push payments
type MobileMoneyProvider interface {
	PaymentProvider
	InitiateMobilePayment(ctx context.Context, req MobileMoneyRequest) (*MobileMoneyResult, error)
	CheckMobilePaymentStatus(ctx context.Context, transactionID string) (*StatusResult, error)
}

// CardProvider extends the base contract with card tokenization
type CardProvider interface {
	PaymentProvider
	TokenizeCard(ctx context.Context, req TokenizeCardRequest) (*TokenizeCardResult, error)
}
