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

// CaptureHoldCommand converts a held deposit into a charge. Amount of zero
// captures the full held amount; a partial capture must not exceed it.
type CaptureHoldCommand struct {
	PaymentID string
	Amount    float64
}

type CaptureHoldHandler struct {
	repo            domain.PaymentRepository
	providers       ProviderRegistry
	publisher       EventPublisher
	providerTimeout time.Duration
}

func NewCaptureHoldHandler(repo domain.PaymentRepository, providers ProviderRegistry, publisher EventPublisher, providerTimeout time.Duration) *CaptureHoldHandler {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &CaptureHoldHandler{repo: repo, providers: providers, publisher: publisher, providerTimeout: providerTimeout}
}

func (h *CaptureHoldHandler) Handle(ctx context.Context, cmd CaptureHoldCommand) (*domain.Payment, error) {
	payment, err := h.repo.FindByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Intent != domain.IntentHold {
		return nil, &domain.ConflictError{Reason: "payment is not a hold"}
	}
	if payment.Status != domain.StatusHeld {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("hold is %s, only HELD funds can be captured", payment.Status),
		}
	}
	if cmd.Amount < 0 || cmd.Amount > payment.Amount {
		return nil, domain.NewValidationError("amount",
			fmt.Sprintf("capture amount must be between 0 and the held %.2f", payment.Amount))
	}

	adapter, err := h.providers.Get(payment.Provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	start := time.Now()
	result, err := adapter.CaptureFunds(callCtx, payment.ProviderTransactionID, cmd.Amount)
	metrics.ProviderCallDuration.WithLabelValues(payment.Provider, provider.OpCaptureFunds).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.ProviderError{Provider: payment.Provider, Transient: true, Reason: err.Error()}
	}
	if !result.Success {
		return nil, &domain.ConflictError{Reason: result.FailureReason}
	}

	now := time.Now()
	update := domain.StatusUpdate{
		Status:                domain.StatusCompleted,
		ProviderTransactionID: payment.ProviderTransactionID,
		ProcessedAt:           &now,
	}
	if err := h.repo.UpdateStatus(ctx, payment.ID, update); err != nil {
		return nil, fmt.Errorf("failed to persist capture: %w", err)
	}
	payment.Status = domain.StatusCompleted
	payment.ProcessedAt = &now
	metrics.PaymentsProcessed.WithLabelValues(payment.Provider, payment.Intent, payment.Status).Inc()

	if h.publisher != nil {
		_ = h.publisher.PublishStatusChanged(ctx, kafka.PaymentStatusChangedEvent{
			EventType: kafka.EventTypePaymentCompleted,
			PaymentID: payment.ID,
			BookingID: payment.BookingID,
			UserID:    payment.UserID,
			Provider:  payment.Provider,
			Intent:    payment.Intent,
			Status:    payment.Status,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
		})
	}
	return payment, nil
}
