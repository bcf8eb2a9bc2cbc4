package query

import (
	"context"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListPaymentsQuery struct {
	Limit  int
	Offset int
}

type ListPaymentsHandler struct {
	repo domain.PaymentRepository
}

func NewListPaymentsHandler(repo domain.PaymentRepository) *ListPaymentsHandler {
	return &ListPaymentsHandler{repo: repo}
}

func (h *ListPaymentsHandler) Handle(ctx context.Context, q ListPaymentsQuery) ([]domain.Payment, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return h.repo.FindAll(ctx, limit, offset)
}
