package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/paymentutil"
)

// sandboxTxn is the provider-side record of a transaction
type sandboxTxn struct {
	status      string
	amount      float64
	currency    string
	processedAt time.Time
	failure     string
}

// sandboxCore implements the base contract against in-process state. It
// stands in for the vendor API in sandbox mode; production adapters replace
// it with genuine integrations while honoring the same contract. State is an
// explicit per-adapter store, not package-level.
type sandboxCore struct {
	name          string
	paymentPrefix string
	holdPrefix    string
	refundPrefix  string
	refLabel      string
	latency       time.Duration
	faults        FaultPolicy

	mu    sync.Mutex
	holds map[string]float64
	txns  map[string]sandboxTxn
}

func newSandboxCore(name, paymentPrefix, holdPrefix, refundPrefix, refLabel string, faults FaultPolicy) sandboxCore {
	if faults == nil {
		faults = NoFaults{}
	}
	return sandboxCore{
		name:          name,
		paymentPrefix: paymentPrefix,
		holdPrefix:    holdPrefix,
		refundPrefix:  refundPrefix,
		refLabel:      refLabel,
		latency:       15 * time.Millisecond,
		faults:        faults,
		holds:         make(map[string]float64),
		txns:          make(map[string]sandboxTxn),
	}
}

func (s *sandboxCore) Name() string {
	return s.name
}

// wait simulates network latency while honoring cancellation
func (s *sandboxCore) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.latency):
		return nil
	}
}

func (s *sandboxCore) record(id string, txn sandboxTxn) {
	s.mu.Lock()
	s.txns[id] = txn
	s.mu.Unlock()
}

func (s *sandboxCore) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	paymentID := paymentutil.GenerateTransactionID(s.paymentPrefix)

	if reason, fail := s.faults.FaultFor(OpProcessPayment, req.PaymentMethodID); fail {
		return &PaymentResult{
			Success:       false,
			PaymentID:     paymentID,
			Status:        domain.StatusFailed,
			FailureReason: reason,
		}, nil
	}

	providerTxnID := paymentutil.GenerateTransactionID(s.paymentPrefix)
	s.record(providerTxnID, sandboxTxn{
		status:      domain.StatusCompleted,
		amount:      req.Amount,
		currency:    req.Currency,
		processedAt: time.Now(),
	})

	return &PaymentResult{
		Success:               true,
		PaymentID:             paymentID,
		ProviderTransactionID: providerTxnID,
		ProviderReference:     fmt.Sprintf("%s-%s", s.refLabel, paymentID),
		Status:                domain.StatusCompleted,
		Message:               fmt.Sprintf("Payment processed successfully via %s", s.name),
	}, nil
}

func (s *sandboxCore) HoldFunds(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	holdID := paymentutil.GenerateTransactionID(s.holdPrefix)

	if reason, fail := s.faults.FaultFor(OpHoldFunds, req.PaymentMethodID); fail {
		return &HoldResult{
			Success:       false,
			HoldID:        holdID,
			Status:        domain.StatusFailed,
			FailureReason: reason,
		}, nil
	}

	s.mu.Lock()
	s.holds[holdID] = req.Amount
	s.txns[holdID] = sandboxTxn{
		status:   domain.StatusHeld,
		amount:   req.Amount,
		currency: req.Currency,
	}
	s.mu.Unlock()

	// The hold id doubles as the provider transaction id so the ledger can
	// key captures, releases and status checks off one reference
	return &HoldResult{
		Success:               true,
		HoldID:                holdID,
		ProviderTransactionID: holdID,
		Status:                domain.StatusHeld,
		Message:               "Funds held successfully",
	}, nil
}

func (s *sandboxCore) CaptureFunds(ctx context.Context, holdID string, amount float64) (*PaymentResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if reason, fail := s.faults.FaultFor(OpCaptureFunds, holdID); fail {
		return &PaymentResult{
			Success:       false,
			PaymentID:     holdID,
			Status:        domain.StatusHeld,
			FailureReason: reason,
		}, nil
	}

	s.mu.Lock()
	held, ok := s.holds[holdID]
	if !ok {
		s.mu.Unlock()
		return &PaymentResult{
			Success:       false,
			PaymentID:     holdID,
			Status:        domain.StatusFailed,
			FailureReason: "unknown hold id",
		}, nil
	}
	if amount == 0 {
		amount = held
	}
	if amount > held {
		s.mu.Unlock()
		return &PaymentResult{
			Success:       false,
			PaymentID:     holdID,
			Status:        domain.StatusHeld,
			FailureReason: fmt.Sprintf("capture amount %.2f exceeds held amount %.2f", amount, held),
		}, nil
	}
	delete(s.holds, holdID)
	txn := s.txns[holdID]
	txn.status = domain.StatusCompleted
	txn.amount = amount
	txn.processedAt = time.Now()
	s.txns[holdID] = txn
	s.mu.Unlock()

	return &PaymentResult{
		Success:               true,
		PaymentID:             holdID,
		ProviderTransactionID: holdID,
		Status:                domain.StatusCompleted,
		Message:               fmt.Sprintf("Captured %.2f successfully", amount),
	}, nil
}

func (s *sandboxCore) ReleaseFunds(ctx context.Context, holdID string) (*PaymentResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if reason, fail := s.faults.FaultFor(OpReleaseFunds, holdID); fail {
		return &PaymentResult{
			Success:       false,
			PaymentID:     holdID,
			Status:        domain.StatusHeld,
			FailureReason: reason,
		}, nil
	}

	s.mu.Lock()
	delete(s.holds, holdID)
	txn := s.txns[holdID]
	txn.status = domain.StatusReleased
	txn.processedAt = time.Now()
	s.txns[holdID] = txn
	s.mu.Unlock()

	return &PaymentResult{
		Success:               true,
		PaymentID:             holdID,
		ProviderTransactionID: holdID,
		Status:                domain.StatusReleased,
		Message:               "Funds released successfully",
	}, nil
}

func (s *sandboxCore) RefundPayment(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	refundID := paymentutil.GenerateTransactionID(s.refundPrefix)

	if reason, fail := s.faults.FaultFor(OpRefundPayment, req.PaymentID); fail {
		return &RefundResult{
			Success:       false,
			RefundID:      refundID,
			Status:        domain.StatusFailed,
			FailureReason: reason,
		}, nil
	}

	amount := req.Amount
	s.mu.Lock()
	if txn, ok := s.txns[req.PaymentID]; ok {
		if amount == 0 {
			amount = txn.amount
		}
		txn.status = domain.StatusRefunded
		txn.processedAt = time.Now()
		s.txns[req.PaymentID] = txn
	}
	s.mu.Unlock()

	return &RefundResult{
		Success:  true,
		RefundID: refundID,
		Amount:   amount,
		Status:   domain.StatusRefunded,
		Message:  "Refund processed successfully",
	}, nil
}

func (s *sandboxCore) GetPaymentStatus(ctx context.Context, providerTransactionID string) (*StatusResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	txn, ok := s.txns[providerTransactionID]
	s.mu.Unlock()

	if ok {
		res := &StatusResult{
			PaymentID:     providerTransactionID,
			Status:        txn.status,
			Amount:        txn.amount,
			Currency:      txn.currency,
			FailureReason: txn.failure,
		}
		if !txn.processedAt.IsZero() {
			t := txn.processedAt
			res.ProcessedAt = &t
		}
		return res, nil
	}

	// Unknown reference: the sandbox derives a status from markers in the id,
	// mirroring what the vendor sandbox endpoints do
	now := time.Now()
	res := &StatusResult{
		PaymentID:   providerTransactionID,
		Status:      domain.StatusCompleted,
		Currency:    "ZMW",
		ProcessedAt: &now,
	}
	switch {
	case strings.Contains(providerTransactionID, "FAILED"):
		res.Status = domain.StatusFailed
		res.FailureReason = "Payment declined by provider"
		res.ProcessedAt = nil
	case strings.Contains(providerTransactionID, "PENDING"):
		res.Status = domain.StatusPending
		res.ProcessedAt = nil
	case strings.Contains(providerTransactionID, "HELD"):
		res.Status = domain.StatusHeld
		res.ProcessedAt = nil
	}
	return res, nil
}
