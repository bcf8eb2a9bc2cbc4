package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/zemo-rentals/payment-engine/internal/config"
	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/idempotency"
	"github.com/zemo-rentals/payment-engine/internal/payment/provider"
	"github.com/zemo-rentals/payment-engine/internal/payment/reconcile"
	"github.com/zemo-rentals/payment-engine/internal/payment/repository"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/command"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/query"
)

type testEnv struct {
	repo     *repository.MemoryPaymentRepository
	bookings *repository.MemoryBookingService
	router   *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryPaymentRepository()
	bookings := repository.NewMemoryBookingService()
	factory := provider.NewFactory(provider.NoFaults{})
	timeout := 5 * time.Second

	reconciler := reconcile.NewService(repo, bookings, factory, nil, config.ReconcileConfig{
		LookBackHours: 24,
		StaleHoldDays: 7,
		BatchSize:     50,
	})

	h := NewPaymentHandler(
		command.NewProcessPaymentHandler(repo, bookings, factory, nil, timeout),
		command.NewCaptureHoldHandler(repo, factory, nil, timeout),
		command.NewReleaseHoldHandler(repo, factory, nil, timeout),
		command.NewRefundPaymentHandler(repo, factory, nil, timeout),
		command.NewTokenizeCardHandler(factory, timeout),
		query.NewGetPaymentHandler(repo),
		query.NewGetBookingPaymentsHandler(repo),
		query.NewListPaymentsHandler(repo),
		query.NewListProvidersHandler(factory),
		reconciler,
		idempotency.NewMemoryStore(),
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	h.RegisterHealthCheck(router, nil)

	return &testEnv{repo: repo, bookings: bookings, router: router}
}

func (e *testEnv) seedBooking(id, userID, status string) {
	e.bookings.Put(&domain.Booking{ID: id, UserID: userID, Status: status, DailyRate: 100})
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return rr, resp
}

func TestProcessPaymentEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	rr, resp := e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":      "usr-1",
		"booking_id":   "bk-1",
		"amount":       255.2,
		"provider":     domain.ProviderAirtelMoney,
		"phone_number": "0971234567",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if !resp.Success {
		t.Fatalf("response not successful: %+v", resp)
	}
}

func TestProcessPaymentEndpointRejectsBadBody(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/process", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestProcessPaymentEndpointValidation(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	rr, resp := e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":    "usr-1",
		"booking_id": "bk-1",
		"amount":     0.5,
		"provider":   domain.ProviderAirtelMoney,
	}, nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if resp.Success {
		t.Error("expected failure response")
	}
}

func TestProcessPaymentEndpointAuthorization(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	rr, _ := e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":      "usr-2",
		"booking_id":   "bk-1",
		"amount":       100,
		"provider":     domain.ProviderAirtelMoney,
		"phone_number": "0971234567",
	}, nil)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestProcessPaymentIdempotencyKey(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	body := map[string]interface{}{
		"user_id":      "usr-1",
		"booking_id":   "bk-1",
		"amount":       100,
		"provider":     domain.ProviderAirtelMoney,
		"phone_number": "0971234567",
	}
	headers := map[string]string{"Idempotency-Key": "key-1"}

	rr, _ := e.do(t, http.MethodPost, "/api/payments/process", body, headers)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", rr.Code)
	}

	rr, resp := e.do(t, http.MethodPost, "/api/payments/process", body, headers)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rr.Code)
	}
	if resp.Success {
		t.Error("duplicate must not succeed")
	}

	all, _ := e.repo.FindAll(context.Background(), 100, 0)
	if len(all) != 1 {
		t.Errorf("ledger has %d records, want 1", len(all))
	}
}

func TestGetPaymentEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	_, resp := e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":      "usr-1",
		"booking_id":   "bk-1",
		"amount":       100,
		"provider":     domain.ProviderAirtelMoney,
		"phone_number": "0971234567",
	}, nil)

	data := resp.Data.(map[string]interface{})
	payment := data["payment"].(map[string]interface{})
	id := payment["id"].(string)

	rr, got := e.do(t, http.MethodGet, "/api/payments/"+id, nil, nil)
	if rr.Code != http.StatusOK || !got.Success {
		t.Fatalf("get status = %d, %+v", rr.Code, got)
	}

	rr, _ = e.do(t, http.MethodGet, "/api/payments/missing-id", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing payment status = %d, want 404", rr.Code)
	}
}

func TestHoldCaptureEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	_, resp := e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":           "usr-1",
		"booking_id":        "bk-1",
		"amount":            500,
		"provider":          domain.ProviderStripe,
		"intent":            domain.IntentHold,
		"payment_method_id": "tok_test",
	}, nil)
	data := resp.Data.(map[string]interface{})
	payment := data["payment"].(map[string]interface{})
	id := payment["id"].(string)
	if payment["status"] != domain.StatusHeld {
		t.Fatalf("status = %v, want HELD", payment["status"])
	}

	rr, capResp := e.do(t, http.MethodPost, fmt.Sprintf("/api/payments/%s/capture", id),
		map[string]interface{}{"amount": 300}, nil)
	if rr.Code != http.StatusOK || !capResp.Success {
		t.Fatalf("capture status = %d, %+v", rr.Code, capResp)
	}

	// A captured hold cannot be released
	rr, _ = e.do(t, http.MethodPost, fmt.Sprintf("/api/payments/%s/release", id), nil, nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("release after capture status = %d, want 409", rr.Code)
	}
}

func TestTokenizeEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rr, resp := e.do(t, http.MethodPost, "/api/payments/tokenize", map[string]interface{}{
		"provider":        domain.ProviderStripe,
		"card_number":     "4242424242424242",
		"expiry_month":    12,
		"expiry_year":     2030,
		"cvv":             "123",
		"cardholder_name": "Chanda Mwila",
	}, nil)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("tokenize status = %d, %+v", rr.Code, resp)
	}

	rr, _ = e.do(t, http.MethodPost, "/api/payments/tokenize", map[string]interface{}{
		"provider":        domain.ProviderStripe,
		"card_number":     "4242424242424241",
		"expiry_month":    12,
		"expiry_year":     2030,
		"cvv":             "123",
		"cardholder_name": "Chanda Mwila",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad card status = %d, want 400", rr.Code)
	}
}

func TestListProvidersEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rr, resp := e.do(t, http.MethodGet, "/api/payments/providers", nil, nil)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("providers status = %d, %+v", rr.Code, resp)
	}
	data := resp.Data.(map[string]interface{})
	providers := data["providers"].([]interface{})
	if len(providers) != 5 {
		t.Errorf("provider count = %d, want 5", len(providers))
	}

	limits := data["limits"].(map[string]interface{})
	if limits["min_amount"].(float64) != 1 || limits["max_amount"].(float64) != 1_000_000 {
		t.Errorf("limits = %+v, want min 1 max 1000000", limits)
	}
	if limits["currency"] != "ZMW" {
		t.Errorf("limits currency = %v, want ZMW", limits["currency"])
	}

	// The listing is also served on GET /api/payments/process
	rr, resp = e.do(t, http.MethodGet, "/api/payments/process", nil, nil)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Errorf("alias route status = %d, %+v", rr.Code, resp)
	}
	if _, ok := resp.Data.(map[string]interface{})["limits"]; !ok {
		t.Error("alias route payload missing limits")
	}
}

func TestReconciliationReportEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.seedBooking("bk-1", "usr-1", domain.BookingPending)

	e.do(t, http.MethodPost, "/api/payments/process", map[string]interface{}{
		"user_id":      "usr-1",
		"booking_id":   "bk-1",
		"amount":       100,
		"provider":     domain.ProviderAirtelMoney,
		"phone_number": "0971234567",
	}, nil)

	rr, resp := e.do(t, http.MethodGet, "/api/payments/reconciliation/report", nil, nil)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Fatalf("report status = %d, %+v", rr.Code, resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Errorf("report total = %v, want 1", data["total"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rr, resp := e.do(t, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK || !resp.Success {
		t.Errorf("health status = %d, %+v", rr.Code, resp)
	}
}
