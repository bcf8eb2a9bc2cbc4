package provider

import (
	"context"
	"fmt"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/paymentutil"
)

// mobileSandbox adds the mobile-money capability to a sandbox adapter
type mobileSandbox struct {
	sandboxCore
}

// InitiateMobilePayment pushes a wallet prompt to the subscriber's phone.
// Phone number and amount are validated before anything leaves the process.
func (m *mobileSandbox) InitiateMobilePayment(ctx context.Context, req MobileMoneyRequest) (*MobileMoneyResult, error) {
	if !paymentutil.ValidatePhoneNumber(req.PhoneNumber) {
		return &MobileMoneyResult{
			Success:       false,
			Status:        domain.StatusFailed,
			FailureReason: "invalid phone number format",
		}, nil
	}
	if !paymentutil.ValidateAmount(req.Amount) {
		return &MobileMoneyResult{
			Success:       false,
			Status:        domain.StatusFailed,
			FailureReason: "invalid amount",
		}, nil
	}

	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	transactionID := paymentutil.GenerateTransactionID(m.paymentPrefix)
	phone := paymentutil.NormalizePhoneNumber(req.PhoneNumber)

	if reason, fail := m.faults.FaultFor(OpMobilePayment, phone); fail {
		return &MobileMoneyResult{
			Success:       false,
			TransactionID: transactionID,
			Status:        domain.StatusFailed,
			FailureReason: reason,
		}, nil
	}

	m.record(transactionID, sandboxTxn{
		status:   domain.StatusCompleted,
		amount:   req.Amount,
		currency: req.Currency,
	})

	return &MobileMoneyResult{
		Success:           true,
		TransactionID:     transactionID,
		ProviderReference: fmt.Sprintf("%s-%s", m.refLabel, transactionID),
		Status:            domain.StatusCompleted,
		Message:           "Mobile payment initiated successfully. Customer will receive USSD prompt.",
	}, nil
}

// CheckMobilePaymentStatus looks up a push payment by its transaction id
func (m *mobileSandbox) CheckMobilePaymentStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	return m.GetPaymentStatus(ctx, transactionID)
}
