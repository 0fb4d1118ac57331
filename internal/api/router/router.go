package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/physiohome/booking-platform/internal/appointments"
	httpmiddleware "github.com/physiohome/booking-platform/internal/http/middleware"
	"github.com/physiohome/booking-platform/internal/payments"
	"github.com/physiohome/booking-platform/internal/recommend"
	"github.com/physiohome/booking-platform/internal/roster"
	"github.com/physiohome/booking-platform/internal/tracking"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	RosterHandler       *roster.Handler
	RecommendHandler    *recommend.Handler
	PaymentsHandler     *payments.Handler
	PaymentsRedirect    *payments.RedirectHandler
	TrackingHandler     *tracking.Handler
	MetricsHandler      http.Handler
	PortalJWTSecret     string
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(httpmiddleware.PortalIdentity(cfg.PortalJWTSecret))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.RosterHandler != nil {
		r.Get("/roster", cfg.RosterHandler.List)
	}

	if cfg.AppointmentsHandler != nil {
		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.CreateBooking)
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Post("/migrate", cfg.AppointmentsHandler.Migrate)
			r.Get("/upcoming/count", cfg.AppointmentsHandler.UpcomingCount)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.Get)
				r.Delete("/", cfg.AppointmentsHandler.Cancel)
				r.Post("/reschedule", cfg.AppointmentsHandler.Reschedule)
				r.Post("/tracking/advance", cfg.AppointmentsHandler.AdvanceTracking)
			})
		})
	}

	if cfg.RecommendHandler != nil {
		r.Post("/recommendations", cfg.RecommendHandler.Recommend)
	}

	if cfg.PaymentsHandler != nil {
		r.Post("/payments/intent", cfg.PaymentsHandler.CreateIntent)
	}
	if cfg.PaymentsRedirect != nil {
		r.Get("/payments/redirect", cfg.PaymentsRedirect.Handle)
	}

	if cfg.TrackingHandler != nil {
		r.Get("/tracking/{id}/ws", cfg.TrackingHandler.Stream)
	}

	return r
}
