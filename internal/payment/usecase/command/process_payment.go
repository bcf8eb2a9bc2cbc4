package command

import (
	"context"
	"fmt"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/metrics"
	"github.com/zemo-rentals/payment-engine/internal/payment/paymentutil"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/kafka"
	"github.com/zemo-rentals/payment-engine/pkg/logger"
)

// ProviderRegistry resolves provider identifiers and answers capability
// questions so the orchestrator can branch between phone and card flows
type ProviderRegistry interface {
	Get(providerID string) (provider.PaymentProvider, error)
	MobileMoneyService(providerID string) (provider.MobileMoneyProvider, error)
	IsMobileMoneyProvider(providerID string) bool
	IsCardPaymentProvider(providerID string) bool
}

// EventPublisher publishes payment lifecycle events, best effort
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event kafka.PaymentStatusChangedEvent) error
}

// ProcessPaymentCommand is the request-facing entry point for both intents.
// Amount arrives from the booking pricing calculator and is charged verbatim.
type ProcessPaymentCommand struct {
	UserID          string
	BookingID       string
	Amount          float64
	Currency        string
	Provider        string
	Intent          string
	PaymentType     string
	PaymentMethodID string
	PhoneNumber     string
	Description     string
	Metadata        map[string]string
}

// ProcessPaymentHandler validates a request, writes the PENDING record, calls
// the rail adapter and persists the outcome. It is the only writer of the
// synchronous leg of the state machine.
type ProcessPaymentHandler struct {
	repo            domain.PaymentRepository
	bookings        domain.BookingService
	providers       ProviderRegistry
	publisher       EventPublisher
	providerTimeout time.Duration
}

// NewProcessPaymentHandler creates the orchestrating handler. publisher may
// be nil when no broker is configured.
func NewProcessPaymentHandler(
	repo domain.PaymentRepository,
	bookings domain.BookingService,
	providers ProviderRegistry,
	publisher EventPublisher,
	providerTimeout time.Duration,
) *ProcessPaymentHandler {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &ProcessPaymentHandler{
		repo:            repo,
		bookings:        bookings,
		providers:       providers,
		publisher:       publisher,
		providerTimeout: providerTimeout,
	}
}

// Handle executes the command. The returned payment reflects the persisted
// record: FAILED for a terminal decline (nil error), PENDING when the outcome
// is ambiguous (transient provider error, resolved later by reconciliation).
func (h *ProcessPaymentHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (*domain.Payment, error) {
	cmd, err := h.validate(cmd)
	if err != nil {
		return nil, err
	}

	booking, err := h.bookings.FindByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.UserID != cmd.UserID {
		return nil, &domain.AuthorizationError{Reason: "requester does not own this booking"}
	}

	if cmd.Intent == domain.IntentHold {
		return h.handleHold(ctx, cmd, booking)
	}
	return h.handlePayment(ctx, cmd, booking)
}

func (h *ProcessPaymentHandler) validate(cmd ProcessPaymentCommand) (ProcessPaymentCommand, error) {
	if !paymentutil.ValidateAmount(cmd.Amount) {
		return cmd, domain.NewValidationError("amount",
			fmt.Sprintf("must be between %.0f and %.0f", paymentutil.MinAmount, paymentutil.MaxAmount))
	}
	if cmd.Currency == "" {
		cmd.Currency = paymentutil.DefaultCurrency
	}
	if !paymentutil.ValidateCurrency(cmd.Currency) {
		return cmd, domain.NewValidationError("currency", "must be a 3-letter code")
	}
	if cmd.BookingID == "" {
		return cmd, domain.NewValidationError("booking_id", "required")
	}
	if cmd.Intent == "" {
		cmd.Intent = domain.IntentPayment
	}
	if cmd.Intent != domain.IntentHold && cmd.Intent != domain.IntentPayment {
		return cmd, domain.NewValidationError("intent", "must be HOLD or PAYMENT")
	}
	if cmd.PaymentType == "" {
		if cmd.Intent == domain.IntentHold {
			cmd.PaymentType = domain.TypeSecurityDeposit
		} else {
			cmd.PaymentType = domain.TypeBookingPayment
		}
	}
	if _, err := h.providers.Get(cmd.Provider); err != nil {
		return cmd, domain.NewValidationError("provider", err.Error())
	}
	if h.providers.IsMobileMoneyProvider(cmd.Provider) {
		if cmd.PhoneNumber != "" && !paymentutil.ValidatePhoneNumber(cmd.PhoneNumber) {
			return cmd, domain.NewValidationError("phone_number", "invalid Zambian phone number format")
		}
		if cmd.PhoneNumber == "" && cmd.PaymentMethodID == "" {
			return cmd, domain.NewValidationError("phone_number", "phone number or payment method required for mobile money")
		}
	} else if cmd.PaymentMethodID == "" {
		return cmd, domain.NewValidationError("payment_method_id", "required for card payments")
	}
	return cmd, nil
}

func (h *ProcessPaymentHandler) handleHold(ctx context.Context, cmd ProcessPaymentCommand, booking *domain.Booking) (*domain.Payment, error) {
	if booking.Status != domain.BookingPending {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("booking is %s, only PENDING bookings accept a deposit hold", booking.Status),
		}
	}

	payment := &domain.Payment{
		BookingID:       cmd.BookingID,
		UserID:          cmd.UserID,
		Amount:          cmd.Amount,
		Currency:        cmd.Currency,
		PaymentType:     cmd.PaymentType,
		Provider:        cmd.Provider,
		Intent:          domain.IntentHold,
		Status:          domain.StatusPending,
		PaymentMethodID: cmd.PaymentMethodID,
	}

	// The PENDING record is durable before anything leaves the process
	if err := h.repo.CreateHold(ctx, payment); err != nil {
		return nil, err
	}

	adapter, err := h.providers.Get(cmd.Provider)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	start := time.Now()
	result, err := adapter.HoldFunds(callCtx, provider.HoldRequest{
		Amount:          cmd.Amount,
		Currency:        cmd.Currency,
		PaymentMethodID: cmd.PaymentMethodID,
		CustomerID:      cmd.UserID,
		Description:     cmd.Description,
		Metadata:        cmd.Metadata,
	})
	metrics.ProviderCallDuration.WithLabelValues(cmd.Provider, provider.OpHoldFunds).
		Observe(time.Since(start).Seconds())

	if err != nil {
		// Ambiguous outcome: the record stays PENDING for reconciliation
		logger.Warn(ctx).
			Err(err).
			Str("payment_id", payment.ID).
			Str("provider", cmd.Provider).
			Msg("Hold call failed, leaving record for reconciliation")
		return payment, &domain.ProviderError{Provider: cmd.Provider, Transient: true, Reason: err.Error()}
	}

	if !result.Success {
		if err := h.transition(ctx, payment, domain.StatusFailed, domain.StatusUpdate{
			Status:        domain.StatusFailed,
			FailureReason: result.FailureReason,
		}); err != nil {
			return nil, err
		}
		// Booking stays untouched on a failed hold
		return payment, nil
	}

	now := time.Now()
	if err := h.transition(ctx, payment, domain.StatusHeld, domain.StatusUpdate{
		Status:                domain.StatusHeld,
		ProviderTransactionID: result.ProviderTransactionID,
		ProcessedAt:           &now,
	}); err != nil {
		return nil, err
	}

	if err := h.bookings.UpdateStatus(ctx, booking.ID, domain.BookingConfirmed); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("booking_id", booking.ID).
			Msg("Failed to confirm booking after successful hold")
	}

	h.publish(ctx, payment, kafka.EventTypeFundsHeld)
	return payment, nil
}

func (h *ProcessPaymentHandler) handlePayment(ctx context.Context, cmd ProcessPaymentCommand, booking *domain.Booking) (*domain.Payment, error) {
	if booking.Status != domain.BookingPending && booking.Status != domain.BookingConfirmed {
		return nil, &domain.ConflictError{
			Reason: fmt.Sprintf("booking is %s and not eligible for payment", booking.Status),
		}
	}

	payment := &domain.Payment{
		BookingID:       cmd.BookingID,
		UserID:          cmd.UserID,
		Amount:          cmd.Amount,
		Currency:        cmd.Currency,
		PaymentType:     cmd.PaymentType,
		Provider:        cmd.Provider,
		Intent:          domain.IntentPayment,
		Status:          domain.StatusPending,
		PaymentMethodID: cmd.PaymentMethodID,
	}

	if err := h.repo.Create(ctx, payment); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	result, err := h.charge(callCtx, cmd)
	if err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("payment_id", payment.ID).
			Str("provider", cmd.Provider).
			Msg("Payment call failed, leaving record for reconciliation")
		return payment, &domain.ProviderError{Provider: cmd.Provider, Transient: true, Reason: err.Error()}
	}

	if !result.Success {
		if err := h.transition(ctx, payment, domain.StatusFailed, domain.StatusUpdate{
			Status:        domain.StatusFailed,
			FailureReason: result.FailureReason,
		}); err != nil {
			return nil, err
		}
		h.publish(ctx, payment, kafka.EventTypePaymentFailed)
		return payment, nil
	}

	now := time.Now()
	if err := h.transition(ctx, payment, domain.StatusCompleted, domain.StatusUpdate{
		Status:                domain.StatusCompleted,
		ProviderTransactionID: result.ProviderTransactionID,
		ProviderReference:     result.ProviderReference,
		ProcessedAt:           &now,
	}); err != nil {
		return nil, err
	}

	if cmd.PaymentType == domain.TypeBookingPayment {
		if err := h.bookings.UpdateStatus(ctx, booking.ID, domain.BookingConfirmed); err != nil {
			logger.Error(ctx).
				Err(err).
				Str("booking_id", booking.ID).
				Msg("Failed to confirm booking after successful payment")
		}
	}

	h.publish(ctx, payment, kafka.EventTypePaymentCompleted)
	return payment, nil
}

// charge routes a PAYMENT intent to the push flow for mobile wallets when a
// phone number was supplied, and to the direct charge otherwise
func (h *ProcessPaymentHandler) charge(ctx context.Context, cmd ProcessPaymentCommand) (*provider.PaymentResult, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderCallDuration.WithLabelValues(cmd.Provider, provider.OpProcessPayment).
			Observe(time.Since(start).Seconds())
	}()

	if cmd.PhoneNumber != "" && h.providers.IsMobileMoneyProvider(cmd.Provider) {
		mm, err := h.providers.MobileMoneyService(cmd.Provider)
		if err != nil {
			return nil, err
		}
		res, err := mm.InitiateMobilePayment(ctx, provider.MobileMoneyRequest{
			PhoneNumber: cmd.PhoneNumber,
			Amount:      cmd.Amount,
			Currency:    cmd.Currency,
			Description: cmd.Description,
			CustomerID:  cmd.UserID,
		})
		if err != nil {
			return nil, err
		}
		return &provider.PaymentResult{
			Success:               res.Success,
			PaymentID:             res.TransactionID,
			ProviderTransactionID: res.TransactionID,
			ProviderReference:     res.ProviderReference,
			Status:                res.Status,
			Message:               res.Message,
			FailureReason:         res.FailureReason,
		}, nil
	}

	adapter, err := h.providers.Get(cmd.Provider)
	if err != nil {
		return nil, err
	}
	return adapter.ProcessPayment(ctx, provider.PaymentRequest{
		Amount:          cmd.Amount,
		Currency:        cmd.Currency,
		PaymentMethodID: cmd.PaymentMethodID,
		CustomerID:      cmd.UserID,
		Description:     cmd.Description,
		Metadata:        cmd.Metadata,
	})
}

// transition persists a status write and keeps the in-memory copy in sync
func (h *ProcessPaymentHandler) transition(ctx context.Context, payment *domain.Payment, status string, update domain.StatusUpdate) error {
	if err := h.repo.UpdateStatus(ctx, payment.ID, update); err != nil {
		return fmt.Errorf("failed to persist %s transition: %w", status, err)
	}
	payment.Status = status
	payment.ProviderTransactionID = update.ProviderTransactionID
	payment.ProviderReference = update.ProviderReference
	payment.FailureReason = update.FailureReason
	payment.ProcessedAt = update.ProcessedAt
	metrics.PaymentsProcessed.WithLabelValues(payment.Provider, payment.Intent, status).Inc()
	return nil
}

func (h *ProcessPaymentHandler) publish(ctx context.Context, payment *domain.Payment, eventType string) {
	if h.publisher == nil {
		return
	}
	event := kafka.PaymentStatusChangedEvent{
		EventType:     eventType,
		PaymentID:     payment.ID,
		BookingID:     payment.BookingID,
		UserID:        payment.UserID,
		Provider:      payment.Provider,
		Intent:        payment.Intent,
		Status:        payment.Status,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		FailureReason: payment.FailureReason,
	}
	if err := h.publisher.PublishStatusChanged(ctx, event); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("payment_id", payment.ID).
			Msg("Failed to publish payment event")
	}
}
