package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/physiohome/booking-platform/internal/http/middleware"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new appointments handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// BookingResponse is returned from a successful booking.
type BookingResponse struct {
	Appointment *Appointment `json:"appointment"`
	// SpecialtyMatched is false when the therapist is the roster default
	// rather than a specialty match.
	SpecialtyMatched bool `json:"specialtyMatched"`
}

// CreateBooking handles POST /appointments requests.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// A signed-in user books for their own email.
	if email, ok := httpmiddleware.EmailFromContext(r.Context()); ok {
		req.Email = email
	}

	appt, assignment, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BookingResponse{
		Appointment:      appt,
		SpecialtyMatched: assignment.Matched,
	})
}

// ListResponse is the response for listing appointments.
type ListResponse struct {
	Appointments []Appointment `json:"appointments"`
	Count        int           `json:"count"`
}

// List handles GET /appointments requests scoped to the caller's email.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	email, ok := h.callerEmail(r)
	if !ok {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	appts, err := h.svc.ListForEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if status := r.URL.Query().Get("status"); status != "" {
		appts = FilterByStatus(appts, Status(status))
	}

	writeJSON(w, http.StatusOK, ListResponse{Appointments: appts, Count: len(appts)})
}

// Get handles GET /appointments/{id} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles DELETE /appointments/{id} requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reschedule handles POST /appointments/{id}/reschedule requests.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type advanceRequest struct {
	Next TrackingStatus `json:"next"`
}

// AdvanceTracking handles POST /appointments/{id}/tracking/advance requests.
func (h *Handler) AdvanceTracking(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.AdvanceTracking(r.Context(), chi.URLParam(r, "id"), req.Next)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

type migrateRequest struct {
	Email string `json:"email"`
}

// Migrate handles POST /appointments/migrate requests, attaching anonymous
// bookings to the signed-in user.
func (h *Handler) Migrate(w http.ResponseWriter, r *http.Request) {
	email, ok := httpmiddleware.EmailFromContext(r.Context())
	if !ok {
		var req migrateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			email = NormalizeEmail(req.Email)
		}
	}
	if email == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	appts, err := h.svc.MigrateAnonymous(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to migrate appointments", "error", err, "email", email)
		http.Error(w, "failed to migrate appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Appointments: appts, Count: len(appts)})
}

// UpcomingCount handles GET /appointments/upcoming/count requests.
func (h *Handler) UpcomingCount(w http.ResponseWriter, r *http.Request) {
	email, ok := h.callerEmail(r)
	if !ok {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	count, err := h.svc.UpcomingCount(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to count upcoming sessions", "error", err)
		http.Error(w, "failed to count upcoming sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"upcoming": count})
}

// callerEmail prefers the authenticated identity, falling back to the email
// query parameter for anonymous dashboard access.
func (h *Handler) callerEmail(r *http.Request) (string, bool) {
	if email, ok := httpmiddleware.EmailFromContext(r.Context()); ok {
		return email, true
	}
	if email := NormalizeEmail(r.URL.Query().Get("email")); email != "" {
		return email, true
	}
	return "", false
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("appointment request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
