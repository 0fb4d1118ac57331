package payments

import (
	"net/http"

	"github.com/physiohome/booking-platform/pkg/logging"
)

// Outcome is the terminal result of a payment confirmation.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// RedirectOutcome maps the provider's redirect status to the terminal
// outcome. Confirmation itself is the provider client library's business;
// only "succeeded" counts, everything else is a failure.
func RedirectOutcome(redirectStatus string) Outcome {
	if redirectStatus == "succeeded" {
		return OutcomeSucceeded
	}
	return OutcomeFailed
}

// RedirectHandler resolves the post-confirmation redirect from the payment
// provider into a terminal outcome for the client.
type RedirectHandler struct {
	logger *logging.Logger
}

// NewRedirectHandler creates the redirect handler.
func NewRedirectHandler(logger *logging.Logger) *RedirectHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedirectHandler{logger: logger}
}

// Handle handles GET /payments/redirect requests.
func (h *RedirectHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("redirect_status")
	outcome := RedirectOutcome(status)
	h.logger.Info("payment redirect resolved",
		"redirect_status", status,
		"outcome", outcome,
		"payment_intent", r.URL.Query().Get("payment_intent"),
	)
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}
