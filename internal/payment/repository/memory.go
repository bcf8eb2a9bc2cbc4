package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

// MemoryPaymentRepository is the in-memory ledger backend, used by tests and
// local runs. It honors the same invariants as the PostgreSQL backend,
// including the one-active-hold guarantee.
type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insert(payment)
	return nil
}

func (r *MemoryPaymentRepository) CreateHold(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == payment.BookingID && p.Intent == domain.IntentHold &&
			(p.Status == domain.StatusPending || p.Status == domain.StatusHeld) {
			return domain.ErrActiveHoldExists
		}
	}
	r.insert(payment)
	return nil
}

// insert assumes the lock is held
func (r *MemoryPaymentRepository) insert(payment *domain.Payment) {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	cp := *payment
	r.payments[payment.ID] = &cp
}

func (r *MemoryPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPaymentRepository) FindByBookingID(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool {
		return p.BookingID == bookingID
	}), nil
}

func (r *MemoryPaymentRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	all := r.filter(func(*domain.Payment) bool { return true })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryPaymentRepository) UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.apply(p, update)
	return nil
}

func (r *MemoryPaymentRepository) UpdateStatusIfNonTerminal(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || domain.IsTerminal(p.Status) {
		return false, nil
	}
	r.apply(p, update)
	return true, nil
}

// apply assumes the lock is held
func (r *MemoryPaymentRepository) apply(p *domain.Payment, update domain.StatusUpdate) {
	p.Status = update.Status
	if update.ProviderTransactionID != "" {
		p.ProviderTransactionID = update.ProviderTransactionID
	}
	if update.ProviderReference != "" {
		p.ProviderReference = update.ProviderReference
	}
	if update.FailureReason != "" {
		p.FailureReason = update.FailureReason
	}
	if update.ProcessedAt != nil {
		p.ProcessedAt = update.ProcessedAt
	}
	p.UpdatedAt = time.Now()
}

func (r *MemoryPaymentRepository) FindForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	matches := r.filter(func(p *domain.Payment) bool {
		return !domain.IsTerminal(p.Status) && p.ProviderTransactionID != "" &&
			!p.UpdatedAt.Before(cutoff)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.Before(matches[j].UpdatedAt)
	})
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MemoryPaymentRepository) FindStaleHolds(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool {
		return p.Status == domain.StatusHeld && p.Intent == domain.IntentHold &&
			!p.CreatedAt.After(cutoff)
	}), nil
}

func (r *MemoryPaymentRepository) FindCreatedSince(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool {
		return !p.CreatedAt.Before(cutoff)
	}), nil
}

func (r *MemoryPaymentRepository) filter(keep func(*domain.Payment) bool) []domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.payments {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// MemoryBookingService is the in-memory booking integration for tests and
// local runs
type MemoryBookingService struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking
}

func NewMemoryBookingService() *MemoryBookingService {
	return &MemoryBookingService{bookings: make(map[string]*domain.Booking)}
}

// Put seeds a booking
func (s *MemoryBookingService) Put(booking *domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *booking
	s.bookings[booking.ID] = &cp
}

func (s *MemoryBookingService) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryBookingService) UpdateStatus(ctx context.Context, id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	now := time.Now()
	switch status {
	case domain.BookingConfirmed:
		b.ConfirmedAt = &now
	case domain.BookingCancelled:
		b.CancelledAt = &now
	}
	b.UpdatedAt = now
	return nil
}
