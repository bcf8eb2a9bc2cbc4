package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/internal/payment/repository"
	"github.com/zemo-rentals/payment-engine/kafka"
)

// scriptedProvider answers status queries from a script and records releases
type scriptedProvider struct {
	mu        sync.Mutex
	statuses  map[string]*provider.StatusResult
	statusErr map[string]error
	released  []string
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{
		statuses:  make(map[string]*provider.StatusResult),
		statusErr: make(map[string]error),
	}
}

func (p *scriptedProvider) Name() string { return "SCRIPTED" }

func (p *scriptedProvider) ProcessPayment(ctx context.Context, req provider.PaymentRequest) (*provider.PaymentResult, error) {
	return nil, errors.New("not scripted")
}

func (p *scriptedProvider) HoldFunds(ctx context.Context, req provider.HoldRequest) (*provider.HoldResult, error) {
	return nil, errors.New("not scripted")
}

func (p *scriptedProvider) CaptureFunds(ctx context.Context, holdID string, amount float64) (*provider.PaymentResult, error) {
	return nil, errors.New("not scripted")
}

func (p *scriptedProvider) ReleaseFunds(ctx context.Context, holdID string) (*provider.PaymentResult, error) {
	p.mu.Lock()
	p.released = append(p.released, holdID)
	p.mu.Unlock()
	return &provider.PaymentResult{Success: true, PaymentID: holdID, Status: domain.StatusReleased}, nil
}

func (p *scriptedProvider) RefundPayment(ctx context.Context, req provider.RefundRequest) (*provider.RefundResult, error) {
	return nil, errors.New("not scripted")
}

func (p *scriptedProvider) GetPaymentStatus(ctx context.Context, providerTransactionID string) (*provider.StatusResult, error) {
	if err, ok := p.statusErr[providerTransactionID]; ok {
		return nil, err
	}
	if res, ok := p.statuses[providerTransactionID]; ok {
		return res, nil
	}
	return &provider.StatusResult{PaymentID: providerTransactionID, Status: domain.StatusPending}, nil
}

type scriptedResolver struct {
	p provider.PaymentProvider
}

func (r scriptedResolver) Get(providerID string) (provider.PaymentProvider, error) {
	return r.p, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.PaymentStatusChangedEvent
}

func (p *recordingPublisher) PublishStatusChanged(ctx context.Context, event kafka.PaymentStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	repo     *repository.MemoryPaymentRepository
	bookings *repository.MemoryBookingService
	provider *scriptedProvider
	events   *recordingPublisher
	service  *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repository.NewMemoryPaymentRepository(),
		bookings: repository.NewMemoryBookingService(),
		provider: newScriptedProvider(),
		events:   &recordingPublisher{},
	}
	f.service = NewService(f.repo, f.bookings, scriptedResolver{f.provider}, f.events, config.ReconcileConfig{
		LookBackHours: 24,
		StaleHoldDays: 7,
		BatchSize:     50,
	})
	return f
}

// seedPending creates a non-terminal ledger record that carries a provider
// transaction id, which makes it eligible for reconciliation
func (f *fixture) seedPending(t *testing.T, txnID, bookingID, paymentType, intent string) *domain.Payment {
	t.Helper()
	ctx := context.Background()
	p := &domain.Payment{
		BookingID:   bookingID,
		UserID:      "usr-1",
		Amount:      250,
		Currency:    "ZMW",
		PaymentType: paymentType,
		Provider:    domain.ProviderAirtelMoney,
		Intent:      intent,
		Status:      domain.StatusPending,
	}
	if err := f.repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.repo.UpdateStatus(ctx, p.ID, domain.StatusUpdate{
		Status:                domain.StatusPending,
		ProviderTransactionID: txnID,
	}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	p.ProviderTransactionID = txnID
	return p
}

func TestReconcileCorrectsCompletedDrift(t *testing.T) {
	f := newFixture(t)
	f.bookings.Put(&domain.Booking{ID: "bk-1", UserID: "usr-1", Status: domain.BookingPending})
	p := f.seedPending(t, "AM-1-ABC123", "bk-1", domain.TypeBookingPayment, domain.IntentPayment)

	now := time.Now()
	f.provider.statuses["AM-1-ABC123"] = &provider.StatusResult{
		PaymentID:   "AM-1-ABC123",
		Status:      domain.StatusCompleted,
		Amount:      250,
		ProcessedAt: &now,
	}

	result, err := f.service.ReconcilePayments(context.Background())
	if err != nil {
		t.Fatalf("ReconcilePayments error: %v", err)
	}
	if result.Processed != 1 || result.Updated != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 1 processed, 1 updated", result)
	}

	stored, _ := f.repo.FindByID(context.Background(), p.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", stored.Status)
	}
	if stored.ProcessedAt == nil {
		t.Error("expected processed timestamp from provider")
	}

	booking, _ := f.bookings.FindByID(context.Background(), "bk-1")
	if booking.Status != domain.BookingConfirmed {
		t.Errorf("booking status = %s, want CONFIRMED cascade", booking.Status)
	}

	if len(f.events.events) != 1 || f.events.events[0].EventType != kafka.EventTypePaymentCompleted {
		t.Errorf("events = %+v, want one %s", f.events.events, kafka.EventTypePaymentCompleted)
	}
}

func TestReconcileSecondRunIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.bookings.Put(&domain.Booking{ID: "bk-1", UserID: "usr-1", Status: domain.BookingPending})
	f.seedPending(t, "AM-1-ABC123", "bk-1", domain.TypeBookingPayment, domain.IntentPayment)
	f.provider.statuses["AM-1-ABC123"] = &provider.StatusResult{
		PaymentID: "AM-1-ABC123",
		Status:    domain.StatusCompleted,
	}

	if _, err := f.service.ReconcilePayments(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	second, err := f.service.ReconcilePayments(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Processed != 0 || second.Updated != 0 {
		t.Errorf("second run = %+v, want nothing to process", second)
	}
}

func TestReconcileFailedPaymentCancelsBooking(t *testing.T) {
	f := newFixture(t)
	f.bookings.Put(&domain.Booking{ID: "bk-1", UserID: "usr-1", Status: domain.BookingPending})
	p := f.seedPending(t, "AM-1-DEAD01", "bk-1", domain.TypeBookingPayment, domain.IntentPayment)

	f.provider.statuses["AM-1-DEAD01"] = &provider.StatusResult{
		PaymentID:     "AM-1-DEAD01",
		Status:        domain.StatusFailed,
		FailureReason: "wallet rejected the charge",
	}

	if _, err := f.service.ReconcilePayments(context.Background()); err != nil {
		t.Fatalf("ReconcilePayments error: %v", err)
	}

	stored, _ := f.repo.FindByID(context.Background(), p.ID)
	if stored.Status != domain.StatusFailed {
		t.Errorf("status = %s, want FAILED", stored.Status)
	}
	if stored.FailureReason != "wallet rejected the charge" {
		t.Errorf("failure reason = %q", stored.FailureReason)
	}

	booking, _ := f.bookings.FindByID(context.Background(), "bk-1")
	if booking.Status != domain.BookingCancelled {
		t.Errorf("booking status = %s, want CANCELLED cascade", booking.Status)
	}
}

func TestReconcileContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.bookings.Put(&domain.Booking{ID: "bk-1", UserID: "usr-1", Status: domain.BookingPending})
	f.bookings.Put(&domain.Booking{ID: "bk-2", UserID: "usr-1", Status: domain.BookingPending})

	broken := f.seedPending(t, "AM-1-BROKEN", "bk-1", domain.TypeBookingPayment, domain.IntentPayment)
	good := f.seedPending(t, "AM-1-GOOD01", "bk-2", domain.TypeBookingPayment, domain.IntentPayment)

	f.provider.statusErr["AM-1-BROKEN"] = errors.New("provider unavailable")
	f.provider.statuses["AM-1-GOOD01"] = &provider.StatusResult{
		PaymentID: "AM-1-GOOD01",
		Status:    domain.StatusCompleted,
	}

	result, err := f.service.ReconcilePayments(context.Background())
	if err != nil {
		t.Fatalf("ReconcilePayments error: %v", err)
	}
	if result.Processed != 2 || result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 processed, 1 updated, 1 failed", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].PaymentID != broken.ID {
		t.Errorf("errors = %+v, want one entry for the broken record", result.Errors)
	}

	stored, _ := f.repo.FindByID(context.Background(), good.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("healthy record status = %s, want COMPLETED", stored.Status)
	}
}

func TestReconcileLeavesStillPendingRecords(t *testing.T) {
	f := newFixture(t)
	f.bookings.Put(&domain.Booking{ID: "bk-1", UserID: "usr-1", Status: domain.BookingPending})
	p := f.seedPending(t, "AM-1-WAIT01", "bk-1", domain.TypeBookingPayment, domain.IntentPayment)

	// Script default answers PENDING
	result, err := f.service.ReconcilePayments(context.Background())
	if err != nil {
		t.Fatalf("ReconcilePayments error: %v", err)
	}
	if result.Updated != 0 {
		t.Errorf("updated = %d, want 0 for a still-pending record", result.Updated)
	}

	stored, _ := f.repo.FindByID(context.Background(), p.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("status = %s, want PENDING", stored.Status)
	}
}

func TestReconcileStaleHolds(t *testing.T) {
	f := newFixture(t)
	// A zero-day window makes every current hold stale
	f.service = NewService(f.repo, f.bookings, scriptedResolver{f.provider}, f.events, config.ReconcileConfig{
		LookBackHours: 24,
		StaleHoldDays: 0,
		BatchSize:     50,
	})

	hold := &domain.Payment{
		BookingID:             "bk-1",
		UserID:                "usr-1",
		Amount:                500,
		Currency:              "ZMW",
		PaymentType:           domain.TypeSecurityDeposit,
		Provider:              domain.ProviderAirtelMoney,
		Intent:                domain.IntentHold,
		Status:                domain.StatusHeld,
		ProviderTransactionID: "AMH-1-HOLD01",
	}
	if err := f.repo.CreateHold(context.Background(), hold); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	result, err := f.service.ReconcileStaleHolds(context.Background())
	if err != nil {
		t.Fatalf("ReconcileStaleHolds error: %v", err)
	}
	if result.Processed != 1 || result.Updated != 1 {
		t.Fatalf("result = %+v, want 1 processed, 1 released", result)
	}

	if len(f.provider.released) != 1 || f.provider.released[0] != "AMH-1-HOLD01" {
		t.Errorf("released = %v, want the hold's transaction id", f.provider.released)
	}

	stored, _ := f.repo.FindByID(context.Background(), hold.ID)
	if stored.Status != domain.StatusReleased {
		t.Errorf("status = %s, want RELEASED", stored.Status)
	}
}

func TestReconcileStaleHoldsSkipsFreshOnes(t *testing.T) {
	f := newFixture(t)

	hold := &domain.Payment{
		BookingID:             "bk-1",
		UserID:                "usr-1",
		Amount:                500,
		Currency:              "ZMW",
		PaymentType:           domain.TypeSecurityDeposit,
		Provider:              domain.ProviderAirtelMoney,
		Intent:                domain.IntentHold,
		Status:                domain.StatusHeld,
		ProviderTransactionID: "AMH-1-HOLD02",
	}
	if err := f.repo.CreateHold(context.Background(), hold); err != nil {
		t.Fatalf("CreateHold: %v", err)
	}

	result, err := f.service.ReconcileStaleHolds(context.Background())
	if err != nil {
		t.Fatalf("ReconcileStaleHolds error: %v", err)
	}
	if result.Processed != 0 {
		t.Errorf("processed = %d, a hold inside the window is not stale", result.Processed)
	}
}

func TestBuildReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed := []struct {
		provider string
		status   string
		amount   float64
	}{
		{domain.ProviderAirtelMoney, domain.StatusCompleted, 100},
		{domain.ProviderAirtelMoney, domain.StatusFailed, 200},
		{domain.ProviderStripe, domain.StatusCompleted, 300},
		{domain.ProviderStripe, domain.StatusHeld, 400},
		{domain.ProviderZamtelKwacha, domain.StatusHeld, 500},
	}
	for i, s := range seed {
		p := &domain.Payment{
			BookingID:   "bk-1",
			UserID:      "usr-1",
			Amount:      s.amount,
			Currency:    "ZMW",
			PaymentType: domain.TypeBookingPayment,
			Provider:    s.provider,
			Intent:      domain.IntentPayment,
			Status:      s.status,
		}
		if err := f.repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	report, err := f.service.BuildReport(ctx)
	if err != nil {
		t.Fatalf("BuildReport error: %v", err)
	}
	if report.Total != 5 {
		t.Errorf("Total = %d, want 5", report.Total)
	}
	if report.ByStatus[domain.StatusCompleted] != 2 {
		t.Errorf("completed count = %d, want 2", report.ByStatus[domain.StatusCompleted])
	}

	airtel := report.ByProvider[domain.ProviderAirtelMoney]
	if airtel.Count != 2 || airtel.TotalAmount != 300 {
		t.Errorf("airtel totals = %+v, want count 2 amount 300", airtel)
	}
	if airtel.SuccessRate != 0.5 {
		t.Errorf("airtel success rate = %v, want 0.5", airtel.SuccessRate)
	}

	stripe := report.ByProvider[domain.ProviderStripe]
	if stripe.SuccessRate != 0.5 {
		t.Errorf("stripe success rate = %v, want 0.5 (only COMPLETED counts)", stripe.SuccessRate)
	}

	// A provider with in-flight holds but nothing completed sits at zero
	zamtel := report.ByProvider[domain.ProviderZamtelKwacha]
	if zamtel.SuccessRate != 0 {
		t.Errorf("zamtel success rate = %v, want 0", zamtel.SuccessRate)
	}
}
