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

// ReleaseHoldCommand returns held funds to the customer untouched
type ReleaseHoldCommand struct {
	PaymentID string
}

type ReleaseHoldHandler struct {
	repo            domain.PaymentRepository
	providers       ProviderRegistry
	publisher       EventPublisher
	providerTimeout time.Duration
}

func NewReleaseHoldHandler(repo domain.PaymentRepository, providers ProviderRegistry, publisher EventPublisher, providerTimeout time.Duration) *ReleaseHoldHandler {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &ReleaseHoldHandler{repo: repo, providers: providers, publisher: publisher, providerTimeout: providerTimeout}
}

func (h *ReleaseHoldHandler) Handle(ctx context.Context, cmd ReleaseHoldCommand) (*domain.Payment, error) {
	payment, err := h.repo.FindByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Intent != domain.IntentHold {
		return nil, &domain.ConflictError{Reason: "payment is not a hold"}
	}
	if payment.Status != domain.StatusHeld {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("hold is %s, only HELD funds can be released", payment.Status),
		}
	}

	adapter, err := h.providers.Get(payment.Provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	start := time.Now()
	result, err := adapter.ReleaseFunds(callCtx, payment.ProviderTransactionID)
	metrics.ProviderCallDuration.WithLabelValues(payment.Provider, provider.OpReleaseFunds).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.ProviderError{Provider: payment.Provider, Transient: true, Reason: err.Error()}
	}
	if !result.Success {
		return nil, &domain.ConflictError{Reason: result.FailureReason}
	}

	now := time.Now()
	update := domain.StatusUpdate{
		Status:                domain.StatusReleased,
		ProviderTransactionID: payment.ProviderTransactionID,
		ProcessedAt:           &now,
	}
	if err := h.repo.UpdateStatus(ctx, payment.ID, update); err != nil {
		return nil, fmt.Errorf("failed to persist release: %w", err)
	}
	payment.Status = domain.StatusReleased
	payment.ProcessedAt = &now
	metrics.PaymentsProcessed.WithLabelValues(payment.Provider, payment.Intent, payment.Status).Inc()

	if h.publisher != nil {
		_ = h.publisher.PublishStatusChanged(ctx, kafka.PaymentStatusChangedEvent{
			EventType: kafka.EventTypeHoldReleased,
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
