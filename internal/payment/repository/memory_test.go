package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
)

func newHold(bookingID, status string) *domain.Payment {
	return &domain.Payment{
		BookingID:   bookingID,
		UserID:      "usr-1",
		Amount:      500,
		Currency:    "ZMW",
		PaymentType: domain.TypeSecurityDeposit,
		Provider:    domain.ProviderStripe,
		Intent:      domain.IntentHold,
		Status:      status,
	}
}

func TestCreateHoldRejectsSecondActiveHold(t *testing.T) {
	repo := NewMemoryPaymentRepository()
	ctx := context.Background()

	if err := repo.CreateHold(ctx, newHold("bk-1", domain.StatusPending)); err != nil {
		t.Fatalf("first hold: %v", err)
	}
	err := repo.CreateHold(ctx, newHold("bk-1", domain.StatusPending))
	if !errors.Is(err, domain.ErrActiveHoldExists) {
		t.Fatalf("second hold error = %v, want ErrActiveHoldExists", err)
	}

	// A different booking is unaffected
	if err := repo.CreateHold(ctx, newHold("bk-2", domain.StatusPending)); err != nil {
		t.Errorf("hold on another booking: %v", err)
	}
}

func TestCreateHoldAllowedAfterTerminalHold(t *testing.T) {
	repo := NewMemoryPaymentRepository()
	ctx := context.Background()

	first := newHold("bk-1", domain.StatusPending)
	if err := repo.CreateHold(ctx, first); err != nil {
		t.Fatalf("first hold: %v", err)
	}
	if err := repo.UpdateStatus(ctx, first.ID, domain.StatusUpdate{Status: domain.StatusReleased}); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := repo.CreateHold(ctx, newHold("bk-1", domain.StatusPending)); err != nil {
		t.Errorf("hold after release: %v", err)
	}
}

func TestUpdateStatusIfNonTerminalGuardsTerminalRecords(t *testing.T) {
	repo := NewMemoryPaymentRepository()
	ctx := context.Background()

	p := newHold("bk-1", domain.StatusPending)
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, err := repo.UpdateStatusIfNonTerminal(ctx, p.ID, domain.StatusUpdate{Status: domain.StatusCompleted})
	if err != nil || !changed {
		t.Fatalf("guarded update on PENDING = (%v, %v), want changed", changed, err)
	}

	changed, err = repo.UpdateStatusIfNonTerminal(ctx, p.ID, domain.StatusUpdate{Status: domain.StatusFailed})
	if err != nil || changed {
		t.Fatalf("guarded update on COMPLETED = (%v, %v), want no change", changed, err)
	}

	stored, _ := repo.FindByID(ctx, p.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("status = %s, terminal record must not move", stored.Status)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := NewMemoryPaymentRepository()
	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusUpdate{Status: domain.StatusFailed})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestFindForReconciliationFilters(t *testing.T) {
	repo := NewMemoryPaymentRepository()
	ctx := context.Background()

	eligible := newHold("bk-1", domain.StatusPending)
	if err := repo.Create(ctx, eligible); err != nil {
		t.Fatal(err)
	}
	repo.UpdateStatus(ctx, eligible.ID, domain.StatusUpdate{
		Status:                domain.StatusPending,
		ProviderTransactionID: "STRIPEH-1-ABC123",
	})

	// No provider transaction id: the provider was never reached
	if err := repo.Create(ctx, newHold("bk-2", domain.StatusPending)); err != nil {
		t.Fatal(err)
	}

	// Terminal record
	done := newHold("bk-3", domain.StatusPending)
	if err := repo.Create(ctx, done); err != nil {
		t.Fatal(err)
	}
	repo.UpdateStatus(ctx, done.ID, domain.StatusUpdate{
		Status:                domain.StatusCompleted,
		ProviderTransactionID: "STRIPEH-1-DEF456",
	})

	batch, err := repo.FindForReconciliation(ctx, time.Now().Add(-time.Hour), 50)
	if err != nil {
		t.Fatalf("FindForReconciliation: %v", err)
	}
	if len(batch) != 1 || batch[0].ID != eligible.ID {
		t.Errorf("batch = %+v, want only the eligible record", batch)
	}
}
