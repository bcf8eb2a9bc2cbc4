// Package query holds the read-side handlers. They never mutate the ledger.
package query

import (
	"context"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

type GetPaymentQuery struct {
	PaymentID string
}

type GetPaymentHandler struct {
	repo domain.PaymentRepository
}

func NewGetPaymentHandler(repo domain.PaymentRepository) *GetPaymentHandler {
	return &GetPaymentHandler{repo: repo}
}

func (h *GetPaymentHandler) Handle(ctx context.Context, q GetPaymentQuery) (*domain.Payment, error) {
	return h.repo.FindByID(ctx, q.PaymentID)
}

type GetBookingPaymentsQuery struct {
	BookingID string
}

type GetBookingPaymentsHandler struct {
	repo domain.PaymentRepository
}

func NewGetBookingPaymentsHandler(repo domain.PaymentRepository) *GetBookingPaymentsHandler {
	return &GetBookingPaymentsHandler{repo: repo}
}

func (h *GetBookingPaymentsHandler) Handle(ctx context.Context, q GetBookingPaymentsQuery) ([]domain.Payment, error) {
	return h.repo.FindByBookingID(ctx, q.BookingID)
}
