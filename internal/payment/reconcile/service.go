// Package reconcile corrects ledger drift against provider truth. The
// synchronous path can lose an outcome to a timeout or a crash; this service
// re-reads provider status for every non-terminal record and applies guarded
// writes, so running it twice is the same as running it once.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/metrics"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/kafka"
	"github.com/zemo-rentals/payment-engine/pkg/logger"
)

// EventPublisher publishes payment lifecycle events, best effort
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event kafka.PaymentStatusChangedEvent) error
}

// RecordError ties a failure to the record that produced it
type RecordError struct {
	PaymentID string `json:"payment_id"`
	Error     string `json:"error"`
}

// Result summarizes one reconciliation pass
type Result struct {
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Failed    int           `json:"failed"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// ProviderTotals aggregates per-rail activity for the report
type ProviderTotals struct {
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
	SuccessRate float64 `json:"success_rate"`
}

// Report summarizes recent ledger activity by status and provider
type Report struct {
	Since       time.Time                 `json:"since"`
	Total       int                       `json:"total"`
	ByStatus    map[string]int            `json:"by_status"`
	ByProvider  map[string]ProviderTotals `json:"by_provider"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// Service runs the reconciliation passes
type Service struct {
	repo      domain.PaymentRepository
	bookings  domain.BookingService
	providers provider.Resolver
	publisher EventPublisher
	cfg       config.ReconcileConfig
}

func NewService(repo domain.PaymentRepository, bookings domain.BookingService, providers provider.Resolver, publisher EventPublisher, cfg config.ReconcileConfig) *Service {
	return &Service{repo: repo, bookings: bookings, providers: providers, publisher: publisher, cfg: cfg}
}

// ReconcilePayments re-checks every PENDING or PROCESSING record updated
// within the lookback window, oldest first. A failure on one record is
// collected and the batch continues.
func (s *Service) ReconcilePayments(ctx context.Context) (*Result, error) {
	cutoff := time.Now().Add(-time.Duration(s.cfg.LookBackHours) * time.Hour)
	payments, err := s.repo.FindForReconciliation(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		metrics.ReconciliationRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load reconciliation batch: %w", err)
	}

	result := &Result{}
	for i := range payments {
		p := &payments[i]
		result.Processed++

		if err := s.reconcileOne(ctx, p, result); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RecordError{PaymentID: p.ID, Error: err.Error()})
			logger.Warn(ctx).
				Err(err).
				Str("payment_id", p.ID).
				Str("provider", p.Provider).
				Msg("Reconciliation failed for record")
		}

		if i < len(payments)-1 && s.cfg.ThrottleDelay > 0 {
			select {
			case <-ctx.Done():
				metrics.ReconciliationRuns.WithLabelValues("cancelled").Inc()
				return result, ctx.Err()
			case <-time.After(s.cfg.ThrottleDelay):
			}
		}
	}

	outcome := "success"
	if result.Failed > 0 {
		outcome = "partial"
	}
	metrics.ReconciliationRuns.WithLabelValues(outcome).Inc()
	metrics.ReconciliationUpdated.Add(float64(result.Updated))

	logger.Info(ctx).
		Int("processed", result.Processed).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("Reconciliation pass complete")
	return result, nil
}

func (s *Service) reconcileOne(ctx context.Context, p *domain.Payment, result *Result) error {
	adapter, err := s.providers.Get(p.Provider)
	if err != nil {
		return err
	}

	start := time.Now()
	status, err := adapter.GetPaymentStatus(ctx, p.ProviderTransactionID)
	metrics.ProviderCallDuration.WithLabelValues(p.Provider, "get_payment_status").
		Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("status query failed: %w", err)
	}

	desired := status.Status
	if desired == "" || desired == domain.StatusPending || desired == p.Status {
		return nil
	}
	if !domain.CanTransition(p.Status, desired) {
		return nil
	}

	update := domain.StatusUpdate{
		Status:                desired,
		ProviderTransactionID: p.ProviderTransactionID,
	}
	switch desired {
	case domain.StatusFailed:
		update.FailureReason = status.FailureReason
		if update.FailureReason == "" {
			update.FailureReason = "reported failed by provider"
		}
	case domain.StatusCompleted, domain.StatusHeld:
		processedAt := status.ProcessedAt
		if processedAt == nil {
			now := time.Now()
			processedAt = &now
		}
		update.ProcessedAt = processedAt
	}

	// The guarded write is what makes concurrent runs safe: a record that
	// reached a terminal status since the batch was loaded is left alone
	changed, err := s.repo.UpdateStatusIfNonTerminal(ctx, p.ID, update)
	if err != nil {
		return fmt.Errorf("guarded update failed: %w", err)
	}
	if !changed {
		return nil
	}

	result.Updated++
	p.Status = desired
	s.cascadeBooking(ctx, p, desired)
	s.publish(ctx, p, eventTypeFor(desired))

	logger.Info(ctx).
		Str("payment_id", p.ID).
		Str("provider", p.Provider).
		Str("status", desired).
		Msg("Reconciliation corrected ledger record")
	return nil
}

// cascadeBooking keeps the booking consistent with a corrected payment
func (s *Service) cascadeBooking(ctx context.Context, p *domain.Payment, desired string) {
	var target string
	switch {
	case desired == domain.StatusCompleted && p.PaymentType == domain.TypeBookingPayment:
		target = domain.BookingConfirmed
	case desired == domain.StatusHeld:
		target = domain.BookingConfirmed
	case desired == domain.StatusFailed:
		target = domain.BookingCancelled
	default:
		return
	}
	if err := s.bookings.UpdateStatus(ctx, p.BookingID, target); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("booking_id", p.BookingID).
			Str("target", target).
			Msg("Failed to cascade booking status during reconciliation")
	}
}

// ReconcileStaleHolds releases every hold older than the stale-hold window
func (s *Service) ReconcileStaleHolds(ctx context.Context) (*Result, error) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.StaleHoldDays)
	holds, err := s.repo.FindStaleHolds(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load stale holds: %w", err)
	}

	result := &Result{}
	for i := range holds {
		p := &holds[i]
		result.Processed++

		if err := s.releaseStale(ctx, p); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RecordError{PaymentID: p.ID, Error: err.Error()})
			logger.Warn(ctx).
				Err(err).
				Str("payment_id", p.ID).
				Msg("Failed to release stale hold")
			continue
		}
		result.Updated++
	}

	if result.Processed > 0 {
		logger.Info(ctx).
			Int("processed", result.Processed).
			Int("released", result.Updated).
			Msg("Stale hold sweep complete")
	}
	return result, nil
}

func (s *Service) releaseStale(ctx context.Context, p *domain.Payment) error {
	adapter, err := s.providers.Get(p.Provider)
	if err != nil {
		return err
	}

	release, err := adapter.ReleaseFunds(ctx, p.ProviderTransactionID)
	if err != nil {
		return fmt.Errorf("release call failed: %w", err)
	}
	if !release.Success {
		return fmt.Errorf("provider declined release: %s", release.FailureReason)
	}

	now := time.Now()
	changed, err := s.repo.UpdateStatusIfNonTerminal(ctx, p.ID, domain.StatusUpdate{
		Status:                domain.StatusReleased,
		ProviderTransactionID: p.ProviderTransactionID,
		ProcessedAt:           &now,
	})
	if err != nil {
		return err
	}
	if changed {
		metrics.StaleHoldsReleased.Inc()
		p.Status = domain.StatusReleased
		s.publish(ctx, p, kafka.EventTypeHoldReleased)
	}
	return nil
}

// BuildReport aggregates ledger activity created since the lookback cutoff
func (s *Service) BuildReport(ctx context.Context) (*Report, error) {
	since := time.Now().Add(-time.Duration(s.cfg.LookBackHours) * time.Hour)
	payments, err := s.repo.FindCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load report window: %w", err)
	}

	report := &Report{
		Since:       since,
		Total:       len(payments),
		ByStatus:    make(map[string]int),
		ByProvider:  make(map[string]ProviderTotals),
		GeneratedAt: time.Now(),
	}

	completed := make(map[string]int)
	for _, p := range payments {
		report.ByStatus[p.Status]++

		totals := report.ByProvider[p.Provider]
		totals.Count++
		totals.TotalAmount += p.Amount
		report.ByProvider[p.Provider] = totals

		if p.Status == domain.StatusCompleted {
			completed[p.Provider]++
		}
	}
	for id, totals := range report.ByProvider {
		if totals.Count > 0 {
			totals.SuccessRate = float64(completed[id]) / float64(totals.Count)
		}
		report.ByProvider[id] = totals
	}
	return report, nil
}

func eventTypeFor(status string) string {
	switch status {
	case domain.StatusCompleted:
		return kafka.EventTypePaymentCompleted
	case domain.StatusFailed:
		return kafka.EventTypePaymentFailed
	case domain.StatusHeld:
		return kafka.EventTypeFundsHeld
	case domain.StatusReleased:
		return kafka.EventTypeHoldReleased
	case domain.StatusRefunded:
		return kafka.EventTypePaymentRefunded
	default:
		return ""
	}
}

func (s *Service) publish(ctx context.Context, p *domain.Payment, eventType string) {
	if s.publisher == nil || eventType == "" {
		return
	}
	if err := s.publisher.PublishStatusChanged(ctx, kafka.PaymentStatusChangedEvent{
		EventType:     eventType,
		PaymentID:     p.ID,
		BookingID:     p.BookingID,
		UserID:        p.UserID,
		Provider:      p.Provider,
		Intent:        p.Intent,
		Status:        p.Status,
		Amount:        p.Amount,
		Currency:      p.Currency,
		FailureReason: p.FailureReason,
	}); err != nil {
		logger.Error(ctx).
			Err(err).
			Str("payment_id", p.ID).
			Msg("Failed to publish reconciliation event")
	}
}
