package recommend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/physiohome/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for intake recommendations.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new recommendations handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Recommend handles POST /recommendations requests.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Recommend(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		default:
			// The user sees one retryable message regardless of cause.
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to get recommendation. Please try again."})
		}
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
