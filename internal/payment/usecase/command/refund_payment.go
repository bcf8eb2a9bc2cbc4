package command

import (
	"context"
	"fmt"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/metrics"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/kafka"
)

// RefundPaymentCommand reverses a completed charge. Amount of zero refunds
// the full amount.
type RefundPaymentCommand struct {
	PaymentID string
	Amount    float64
	Reason    string
}

type RefundPaymentHandler struct {
	repo            domain.PaymentRepository
	providers       ProviderRegistry
	publisher       EventPublisher
	providerTimeout time.Duration
}

func NewRefundPaymentHandler(repo domain.PaymentRepository, providers ProviderRegistry, publisher EventPublisher, providerTimeout time.Duration) *RefundPaymentHandler {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &RefundPaymentHandler{repo: repo, providers: providers, publisher: publisher, providerTimeout: providerTimeout}
}

func (h *RefundPaymentHandler) Handle(ctx context.Context, cmd RefundPaymentCommand) (*domain.Payment, error) {
	payment, err := h.repo.FindByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.StatusCompleted {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("payment is %s, only COMPLETED payments can be refunded", payment.Status),
		}
	}
	if cmd.Amount < 0 || cmd.Amount > payment.Amount {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("refund amount must be between 0 and the paid %.2f", payment.Amount))
	}

	adapter, err := h.providers.Get(payment.Provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	start := time.Now()
	result, err := adapter.RefundPayment(callCtx, provider.RefundRequest{
		PaymentID: payment.ProviderTransactionID,
		Amount:    cmd.Amount,
		Reason:    cmd.Reason,
	})
	metrics.ProviderCallDuration.WithLabelValues(payment.Provider, provider.OpRefundPayment).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.ProviderError{Provider: payment.Provider, Transient: true, Reason: err.Error()}
	}
	if !result.Success {
		return nil, &domain.ConflictError{Reason: result.FailureReason}
	}

	now := time.Now()
	update := domain.StatusUpdate{
		Status:                domain.StatusRefunded,
		ProviderTransactionID: payment.ProviderTransactionID,
		ProviderReference:     result.RefundID,
		ProcessedAt:           &now,
	}
	if err := h.repo.UpdateStatus(ctx, payment.ID, update); err != nil {
		return nil, fmt.Errorf("failed to persist refund: %w", err)
	}
	payment.Status = domain.StatusRefunded
	payment.ProviderReference = result.RefundID
	payment.ProcessedAt = &now
	metrics.PaymentsProcessed.WithLabelValues(payment.Provider, payment.Intent, payment.Status).Inc()

	if h.publisher != nil {
		_ = h.publisher.PublishStatusChanged(ctx, kafka.PaymentStatusChangedEvent{
			EventType: kafka.EventTypePaymentRefunded,
			PaymentID: payment.ID,
			BookingID: payment.BookingID,
			UserID:    payment.UserID,
			Provider:  payment.Provider,
			Intent:    payment.Intent,
			Status:    payment.Status,
			Amount:    cmd.Amount,
			Currency:  payment.Currency,
		})
	}
	return payment, nil
}
