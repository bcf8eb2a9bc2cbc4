package domain

import (
	"context"
	"time"
)

// Booking is the external entity payment outcomes cascade into. The engine
// reads it for eligibility checks and mutates only its status timestamps.
type Booking struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	VehicleID   string     `json:"vehicle_id" gorm:"not null;index"`
	UserID      string     `json:"user_id" gorm:"not null;index"`
	Status      string     `json:"status" gorm:"not null;default:'PENDING'"`
	DailyRate   float64    `json:"daily_rate"`
	TotalAmount float64    `json:"total_amount"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// Booking statuses
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingActive    = "ACTIVE"
	BookingCompleted = "COMPLETED"
	BookingCancelled = "CANCELLED"
)

// BookingService is the integration boundary the orchestrator and the
// reconciliation service use to cascade booking-status changes
type BookingService interface {
	FindByID(ctx context.Context, id string) (*Booking, error)
	// UpdateStatus sets the booking status and stamps ConfirmedAt or
	// CancelledAt as appropriate
	UpdateStatus(ctx context.Context, id string, status string) error
}
