package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

var tracer = otel.Tracer("payment-repository")

// GormPaymentRepositoryWithTracing wraps the ledger with tracing spans
type GormPaymentRepositoryWithTracing struct {
	*GormPaymentRepository
}

// NewGormPaymentRepositoryWithTracing creates a traced ledger
func NewGormPaymentRepositoryWithTracing(db *gorm.DB) *GormPaymentRepositoryWithTracing {
	return &GormPaymentRepositoryWithTracing{
		GormPaymentRepository: NewGormPaymentRepository(db),
	}
}

func (r *GormPaymentRepositoryWithTracing) Create(ctx context.Context, payment *domain.Payment) error {
	ctx, span := tracer.Start(ctx, "ledger.Create",
		trace.WithAttributes(
			attribute.String("payment.booking_id", payment.BookingID),
			attribute.String("payment.provider", payment.Provider),
			attribute.String("payment.intent", payment.Intent),
			attribute.Float64("payment.amount", payment.Amount),
		),
	)
	defer span.End()

	if err := r.GormPaymentRepository.Create(ctx, payment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("payment.id", payment.ID))
	return nil
}

func (r *GormPaymentRepositoryWithTracing) CreateHold(ctx context.Context, payment *domain.Payment) error {
	ctx, span := tracer.Start(ctx, "ledger.CreateHold",
		trace.WithAttributes(
			attribute.String("payment.booking_id", payment.BookingID),
			attribute.String("payment.provider", payment.Provider),
			attribute.Float64("payment.amount", payment.Amount),
		),
	)
	defer span.End()

	if err := r.GormPaymentRepository.CreateHold(ctx, payment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("payment.id", payment.ID))
	return nil
}

func (r *GormPaymentRepositoryWithTracing) UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) error {
	ctx, span := tracer.Start(ctx, "ledger.UpdateStatus",
		trace.WithAttributes(
			attribute.String("payment.id", id),
			attribute.String("payment.status", update.Status),
		),
	)
	defer span.End()

	if err := r.GormPaymentRepository.UpdateStatus(ctx, id, update); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *GormPaymentRepositoryWithTracing) UpdateStatusIfNonTerminal(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	ctx, span := tracer.Start(ctx, "ledger.UpdateStatusIfNonTerminal",
		trace.WithAttributes(
			attribute.String("payment.id", id),
			attribute.String("payment.status", update.Status),
		),
	)
	defer span.End()

	updated, err := r.GormPaymentRepository.UpdateStatusIfNonTerminal(ctx, id, update)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("payment.updated", updated))
	return updated, nil
}

func (r *GormPaymentRepositoryWithTracing) FindForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	ctx, span := tracer.Start(ctx, "ledger.FindForReconciliation",
		trace.WithAttributes(
			attribute.Int("reconcile.batch_size", limit),
		),
	)
	defer span.End()

	payments, err := r.GormPaymentRepository.FindForReconciliation(ctx, cutoff, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("reconcile.candidates", len(payments)))
	return payments, nil
}
