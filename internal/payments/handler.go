package payments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for payment intents.
type Handler struct {
	svc           *StripeIntentService
	metrics       *metrics.PlatformMetrics
	logger        *logging.Logger
	defaultAmount float64
}

// NewHandler creates a new payments handler.
func NewHandler(svc *StripeIntentService, m *metrics.PlatformMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, metrics: m, logger: logger}
}

// WithDefaultAmount sets the standard session price, charged when the client
// omits the amount.
func (h *Handler) WithDefaultAmount(major float64) *Handler {
	h.defaultAmount = major
	return h
}

// CreateIntentRequest is the client payload for a deposit.
type CreateIntentRequest struct {
	Amount             float64            `json:"amount"`
	AppointmentDetails appointmentDetails `json:"appointmentDetails"`
}

type appointmentDetails struct {
	ID          string `json:"id"`
	TherapistID string `json:"physiotherapistId"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

type intentError struct {
	Error       string `json:"error"`
	Code        string `json:"code,omitempty"`
	Type        string `json:"type,omitempty"`
	StripeError bool   `json:"stripeError,omitempty"`
}

// CreateIntent handles POST /payments/intent requests.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, intentError{Error: "Invalid request body"})
		return
	}

	if req.Amount == 0 {
		req.Amount = h.defaultAmount
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, intentError{Error: "Invalid amount"})
		return
	}

	resp, err := h.svc.CreateIntent(r.Context(), IntentParams{
		AmountMajor:   req.Amount,
		AppointmentID: req.AppointmentDetails.ID,
		TherapistID:   req.AppointmentDetails.TherapistID,
		Date:          req.AppointmentDetails.Date,
		Time:          req.AppointmentDetails.Time,
	})
	if err != nil {
		h.metrics.ObservePaymentIntent("error")

		var stripeErr *StripeError
		switch {
		case errors.Is(err, ErrInvalidAmount):
			writeJSON(w, http.StatusBadRequest, intentError{Error: "Invalid amount"})
		case errors.As(err, &stripeErr):
			writeJSON(w, http.StatusBadGateway, intentError{
				Error:       stripeErr.Message,
				Code:        stripeErr.Code,
				Type:        stripeErr.Type,
				StripeError: true,
			})
		default:
			h.logger.Error("payment intent creation failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, intentError{Error: "Error creating payment intent"})
		}
		return
	}

	h.metrics.ObservePaymentIntent(resp.Status)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
