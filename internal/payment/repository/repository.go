package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

var nonTerminalStatuses = []string{
	domain.StatusPending,
	domain.StatusProcessing,
	domain.StatusHeld,
}

// GormPaymentRepository is the PostgreSQL-backed ledger
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Payment{}, &domain.Booking{})
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// CreateHold inserts a hold record only when the booking has no hold in
// PENDING or HELD. The existence check locks competing rows inside one
// transaction, so two concurrent hold requests cannot both pass.
func (r *GormPaymentRepository) CreateHold(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active []domain.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_id = ? AND intent = ? AND status IN ?",
				payment.BookingID, domain.IntentHold,
				[]string{domain.StatusPending, domain.StatusHeld}).
			Find(&active).Error
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return domain.ErrActiveHoldExists
		}
		return tx.Create(payment).Error
	})
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Limit(limit).Offset(offset).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// UpdateStatus applies a provider result. Amount and currency never appear in
// the update set; ProviderTransactionID is written only when the update
// carries one, immediately after provider acknowledgment.
func (r *GormPaymentRepository) UpdateStatus(ctx context.Context, id string, update domain.StatusUpdate) error {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ?", id).
		Updates(updateColumns(update))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatusIfNonTerminal writes only while the record is still
// non-terminal. Overlapping reconciliation runs converge on the first write;
// later identical writes affect zero rows.
func (r *GormPaymentRepository) UpdateStatusIfNonTerminal(ctx context.Context, id string, update domain.StatusUpdate) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ? AND status IN ?", id, nonTerminalStatuses).
		Updates(updateColumns(update))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func updateColumns(update domain.StatusUpdate) map[string]interface{} {
	columns := map[string]interface{}{"status": update.Status}
	if update.ProviderTransactionID != "" {
		columns["provider_transaction_id"] = update.ProviderTransactionID
	}
	if update.ProviderReference != "" {
		columns["provider_reference"] = update.ProviderReference
	}
	if update.FailureReason != "" {
		columns["failure_reason"] = update.FailureReason
	}
	if update.ProcessedAt != nil {
		columns["processed_at"] = update.ProcessedAt
	}
	return columns
}

func (r *GormPaymentRepository) FindForReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND provider_transaction_id <> '' AND updated_at >= ?",
			nonTerminalStatuses, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindStaleHolds(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND intent = ? AND created_at <= ?",
			domain.StatusHeld, domain.IntentHold, cutoff).
		Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) FindCreatedSince(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", cutoff).
		Find(&payments).Error
	return payments, err
}

// GormBookingService is the database-backed booking integration
type GormBookingService struct {
	db *gorm.DB
}

func NewGormBookingService(db *gorm.DB) *GormBookingService {
	return &GormBookingService{db: db}
}

func (s *GormBookingService) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var booking domain.Booking
	err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *GormBookingService) UpdateStatus(ctx context.Context, id string, status string) error {
	columns := map[string]interface{}{"status": status}
	now := time.Now()
	switch status {
	case domain.BookingConfirmed:
		columns["confirmed_at"] = &now
	case domain.BookingCancelled:
		columns["cancelled_at"] = &now
	}
	res := s.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
