package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/physiohome/booking-platform/internal/http/middleware"
	"github.com/physiohome/booking-platform/pkg/logging"
)

func newTestRouter(t *testing.T) (*chi.Mux, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	h := NewHandler(f.svc, logging.Default())

	r := chi.NewRouter()
	r.Post("/appointments", h.CreateBooking)
	r.Get("/appointments", h.List)
	r.Post("/appointments/migrate", h.Migrate)
	r.Get("/appointments/upcoming/count", h.UpcomingCount)
	r.Get("/appointments/{id}", h.Get)
	r.Delete("/appointments/{id}", h.Cancel)
	r.Post("/appointments/{id}/reschedule", h.Reschedule)
	r.Post("/appointments/{id}/tracking/advance", h.AdvanceTracking)
	return r, f
}

func doJSON(t *testing.T, r http.Handler, method, target string, body any, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateBooking(t *testing.T) {
	r, _ := newTestRouter(t)

	req := validBooking()
	req.SuggestedSpecialty = "neuro"
	rec := doJSON(t, r, http.MethodPost, "/appointments", req, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.SpecialtyMatched)
	require.Equal(t, "Dr. Swati Singh", resp.Appointment.TherapistName)
	require.NotEmpty(t, resp.Appointment.ID)
}

func TestHandlerCreateBookingUsesSignedInEmail(t *testing.T) {
	r, f := newTestRouter(t)

	req := validBooking()
	req.Email = "spoofed@example.com"
	ctx := httpmiddleware.WithEmail(context.Background(), "Real@Example.com")
	rec := doJSON(t, r, http.MethodPost, "/appointments", req, ctx)
	require.Equal(t, http.StatusCreated, rec.Code)

	appts, err := f.svc.ListForEmail(context.Background(), "real@example.com")
	require.NoError(t, err)
	require.Len(t, appts, 1)
}

func TestHandlerCreateBookingValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	req := validBooking()
	req.Address = ""
	rec := doJSON(t, r, http.MethodPost, "/appointments", req, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListByQueryEmail(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/appointments?email=RAVI@example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
}

func TestHandlerListMissingEmail(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/appointments", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListStatusFilter(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	appt, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)
	_, _, err = f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)
	for _, next := range []TrackingStatus{TrackingEnRoute, TrackingArrived, TrackingInSession, TrackingCompleted} {
		_, err = f.svc.AdvanceTracking(ctx, appt.ID, next)
		require.NoError(t, err)
	}

	rec := doJSON(t, r, http.MethodGet, "/appointments?email=ravi@example.com&status=completed", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, appt.ID, resp.Appointments[0].ID)
}

func TestHandlerGetNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/appointments/ghost", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerCancel(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	appt, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodDelete, "/appointments/"+appt.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/appointments/"+appt.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerReschedule(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	appt, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	req := validBooking()
	req.Date = "2026-03-09"
	rec := doJSON(t, r, http.MethodPost, "/appointments/"+appt.ID+"/reschedule", req, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, "Monday, March 9, 2026", updated.Date)
}

func TestHandlerAdvanceTrackingConflict(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	appt, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/appointments/"+appt.ID+"/tracking/advance",
		advanceRequest{Next: TrackingArrived}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/appointments/"+appt.ID+"/tracking/advance",
		advanceRequest{Next: TrackingEnRoute}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerMigrate(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	authCtx := httpmiddleware.WithEmail(context.Background(), "ravi@example.com")
	rec := doJSON(t, r, http.MethodPost, "/appointments/migrate", nil, authCtx)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
}

func TestHandlerUpcomingCount(t *testing.T) {
	r, f := newTestRouter(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateBooking(ctx, validBooking())
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodGet, "/appointments/upcoming/count?email=ravi@example.com", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp["upcoming"])
}
