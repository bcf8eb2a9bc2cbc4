package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/zemo-rentals/payment-engine/internal/payment/domain"
	"github.com/zemo-rentals/payment-engine/internal/payment/idempotency"
	"github.com/zemo-rentals/payment-engine/internal/payment/reconcile"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/command"
	"github.com/zemo-rentals/payment-engine/internal/payment/usecase/query"
	"github.com/zemo-rentals/payment-engine/pkg/logger"
)

// PaymentHandler handles HTTP requests for payments using CQRS pattern
type PaymentHandler struct {
	// Command handlers
	processHandler  *command.ProcessPaymentHandler
	captureHandler  *command.CaptureHoldHandler
	releaseHandler  *command.ReleaseHoldHandler
	refundHandler   *command.RefundPaymentHandler
	tokenizeHandler *command.TokenizeCardHandler

	// Query handlers
	getHandler        *query.GetPaymentHandler
	bookingGetHandler *query.GetBookingPaymentsHandler
	listHandler       *query.ListPaymentsHandler
	providersHandler  *query.ListProvidersHandler
	reconcileService  *reconcile.Service
	idempotencyKeys   idempotency.Store
}

// NewPaymentHandler wires the HTTP surface over the use case handlers.
// idempotencyKeys may be nil, which disables duplicate detection.
func NewPaymentHandler(
	processHandler *command.ProcessPaymentHandler,
	captureHandler *command.CaptureHoldHandler,
	releaseHandler *command.ReleaseHoldHandler,
	refundHandler *command.RefundPaymentHandler,
	tokenizeHandler *command.TokenizeCardHandler,
	getHandler *query.GetPaymentHandler,
	bookingGetHandler *query.GetBookingPaymentsHandler,
	listHandler *query.ListPaymentsHandler,
	providersHandler *query.ListProvidersHandler,
	reconcileService *reconcile.Service,
	idempotencyKeys idempotency.Store,
) *PaymentHandler {
	return &PaymentHandler{
		processHandler:  processHandler,
		captureHandler:  captureHandler,
		releaseHandler:  releaseHandler,
		refundHandler:   refundHandler,
		tokenizeHandler: tokenizeHandler,

		getHandler:        getHandler,
		bookingGetHandler: bookingGetHandler,
		listHandler:       listHandler,
		providersHandler:  providersHandler,
		reconcileService:  reconcileService,
		idempotencyKeys:   idempotencyKeys,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProcessPayment handles POST /api/payments/process
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string            `json:"user_id"`
		BookingID       string            `json:"booking_id"`
		Amount          float64           `json:"amount"`
		Currency        string            `json:"currency"`
		Provider        string            `json:"provider"`
		Intent          string            `json:"intent"`
		PaymentType     string            `json:"payment_type"`
		PaymentMethodID string            `json:"payment_method_id"`
		PhoneNumber     string            `json:"phone_number"`
		Description     string            `json:"description"`
		Metadata        map[string]string `json:"metadata"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	ctx := r.Context()

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.idempotencyKeys != nil {
		duplicate, err := h.idempotencyKeys.Begin(ctx, idemKey)
		if err != nil {
			logger.Error(ctx).Err(err).Msg("Idempotency store unavailable")
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Unable to verify request uniqueness. Please try again later.",
			})
			return
		}
		if duplicate {
			respondJSON(w, http.StatusConflict, Response{
				Success: false,
				Error:   "Duplicate request: this idempotency key was already used",
			})
			return
		}
	}

	cmd := command.ProcessPaymentCommand{
		UserID:          req.UserID,
		BookingID:       req.BookingID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Provider:        req.Provider,
		Intent:          req.Intent,
		PaymentType:     req.PaymentType,
		PaymentMethodID: req.PaymentMethodID,
		PhoneNumber:     req.PhoneNumber,
		Description:     req.Description,
		Metadata:        req.Metadata,
	}

	payment, err := h.processHandler.Handle(ctx, cmd)
	if err != nil {
		// A transient provider error leaves a PENDING record behind, so the
		// key stays burned; pure validation failures free it for a retry
		if idemKey != "" && h.idempotencyKeys != nil && payment == nil {
			_ = h.idempotencyKeys.Clear(ctx, idemKey)
		}
		logger.Error(ctx).Err(err).Str("booking_id", req.BookingID).Msg("Failed to process payment")
		respondError(w, err)
		return
	}

	if idemKey != "" && h.idempotencyKeys != nil {
		if err := h.idempotencyKeys.Complete(ctx, idemKey); err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to mark idempotency key completed")
		}
	}

	if payment.Status == domain.StatusFailed {
		respondJSON(w, http.StatusOK, Response{
			Success: false,
			Message: "Payment was declined by the provider",
			Data:    map[string]interface{}{"payment": payment},
			Error:   payment.FailureReason,
		})
		return
	}

	message := "Payment completed successfully"
	if payment.Intent == domain.IntentHold {
		message = "Funds held successfully"
	}
	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    map[string]interface{}{"payment": payment},
	})
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	payment, err := h.getHandler.Handle(r.Context(), query.GetPaymentQuery{PaymentID: vars["id"]})
	if err != nil {
		respondJSON(w, http.StatusNotFound, Response{
			Success: false,
			Error:   "Payment not found",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    payment,
	})
}

// GetBookingPayments handles GET /api/bookings/{id}/payments
func (h *PaymentHandler) GetBookingPayments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	payments, err := h.bookingGetHandler.Handle(r.Context(), query.GetBookingPaymentsQuery{BookingID: vars["id"]})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to get booking payments")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to get booking payments",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// ListPayments handles GET /api/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.listHandler.Handle(r.Context(), query.ListPaymentsQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list payments")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list payments",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]interface{}{
			"payments": payments,
			"total":    len(payments),
		},
	})
}

// CaptureHold handles POST /api/payments/{id}/capture
func (h *PaymentHandler) CaptureHold(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Amount float64 `json:"amount"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, Response{
				Success: false,
				Error:   "Invalid request body",
			})
			return
		}
	}

	payment, err := h.captureHandler.Handle(r.Context(), command.CaptureHoldCommand{
		PaymentID: vars["id"],
		Amount:    req.Amount,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("payment_id", vars["id"]).Msg("Failed to capture hold")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Funds captured successfully",
		Data:    map[string]interface{}{"payment": payment},
	})
}

// ReleaseHold handles POST /api/payments/{id}/release
func (h *PaymentHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	payment, err := h.releaseHandler.Handle(r.Context(), command.ReleaseHoldCommand{
		PaymentID: vars["id"],
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("payment_id", vars["id"]).Msg("Failed to release hold")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Hold released successfully",
		Data:    map[string]interface{}{"payment": payment},
	})
}

// RefundPayment handles POST /api/payments/refund
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentID string  `json:"payment_id"`
		Amount    float64 `json:"amount"`
		Reason    string  `json:"reason"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	payment, err := h.refundHandler.Handle(r.Context(), command.RefundPaymentCommand{
		PaymentID: req.PaymentID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Str("payment_id", req.PaymentID).Msg("Failed to refund payment")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Refund processed successfully",
		Data:    map[string]interface{}{"payment": payment},
	})
}

// TokenizeCard handles POST /api/payments/tokenize
func (h *PaymentHandler) TokenizeCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider       string `json:"provider"`
		CardNumber     string `json:"card_number"`
		ExpiryMonth    int    `json:"expiry_month"`
		ExpiryYear     int    `json:"expiry_year"`
		CVV            string `json:"cvv"`
		CardholderName string `json:"cardholder_name"`
		CustomerID     string `json:"customer_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := h.tokenizeHandler.Handle(r.Context(), command.TokenizeCardCommand{
		Provider:       req.Provider,
		CardNumber:     req.CardNumber,
		ExpiryMonth:    req.ExpiryMonth,
		ExpiryYear:     req.ExpiryYear,
		CVV:            req.CVV,
		CardholderName: req.CardholderName,
		CustomerID:     req.CustomerID,
	})
	if err != nil {
		// Card details are never logged
		logger.Warn(r.Context()).Str("provider", req.Provider).Msg("Card tokenization rejected")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Card tokenized successfully",
		Data:    result,
	})
}

// ListProviders handles GET /api/payments/providers
func (h *PaymentHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.providersHandler.Handle(r.Context()),
	})
}

// ReconciliationReport handles GET /api/payments/reconciliation/report
func (h *PaymentHandler) ReconciliationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileService.BuildReport(r.Context())
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to build reconciliation report")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to build reconciliation report",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    report,
	})
}

// RunReconciliation handles POST /api/payments/reconciliation/run
func (h *PaymentHandler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileService.ReconcilePayments(r.Context())
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Reconciliation run failed")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Reconciliation run failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Reconciliation completed",
		Data:    result,
	})
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/payments/process", h.ProcessPayment).Methods("POST")
	router.HandleFunc("/api/payments/process", h.ListProviders).Methods("GET")
	router.HandleFunc("/api/payments/tokenize", h.TokenizeCard).Methods("POST")
	router.HandleFunc("/api/payments/refund", h.RefundPayment).Methods("POST")
	router.HandleFunc("/api/payments/providers", h.ListProviders).Methods("GET")
	router.HandleFunc("/api/payments/reconciliation/report", h.ReconciliationReport).Methods("GET")
	router.HandleFunc("/api/payments/reconciliation/run", h.RunReconciliation).Methods("POST")
	router.HandleFunc("/api/payments/{id}/capture", h.CaptureHold).Methods("POST")
	router.HandleFunc("/api/payments/{id}/release", h.ReleaseHold).Methods("POST")
	router.HandleFunc("/api/payments/{id}", h.GetPayment).Methods("GET")
	router.HandleFunc("/api/payments", h.ListPayments).Methods("GET")
	router.HandleFunc("/api/bookings/{id}/payments", h.GetBookingPayments).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *PaymentHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, Response{
					Success: false,
					Error:   "Database unavailable",
				})
				return
			}
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Payment service is healthy",
		})
	}).Methods("GET")
}

// respondError maps use case errors onto HTTP status codes
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsAuthorization(err):
		status = http.StatusForbidden
	case domain.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case domain.IsTransientProviderError(err):
		status = http.StatusBadGateway
	}
	respondJSON(w, status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
