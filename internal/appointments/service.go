package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiohome/booking-platform/internal/handoff"
	"github.com/physiohome/booking-platform/internal/notify"
	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/internal/roster"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// ErrValidation wraps field-level validation failures; handlers surface these
// inline without touching the store.
var ErrValidation = errors.New("appointments: validation failed")

// BookingRequest is the intake for a new or rescheduled appointment.
type BookingRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Issue   string `json:"issue"`

	// SuggestedSpecialty carries the AI matcher's recommendation when the
	// client forwards it directly. When empty, any pending matcher selection
	// stored for the email is consumed instead.
	SuggestedSpecialty string `json:"suggestedSpecialty,omitempty"`
}

// Validate checks the required booking fields.
func (r *BookingRequest) Validate() error {
	missing := []string{}
	for field, value := range map[string]string{
		"name":    r.Name,
		"email":   r.Email,
		"phone":   r.Phone,
		"address": r.Address,
		"date":    r.Date,
		"time":    r.Time,
		"issue":   r.Issue,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Service owns the appointment lifecycle: booking with therapist assignment,
// dashboard reads, reschedule, cancel, and manual tracking advancement.
type Service struct {
	store        Store
	resolver     *roster.Resolver
	handoff      *handoff.Store
	mailer       notify.EmailSender
	metrics      *metrics.PlatformMetrics
	logger       *logging.Logger
	dashboardURL string
	now          func() time.Time
	newID        func() string
}

// NewService creates the appointment service.
func NewService(store Store, resolver *roster.Resolver, logger *logging.Logger) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if resolver == nil {
		resolver = roster.NewResolver(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithHandoff wires the ephemeral handoff store.
func (s *Service) WithHandoff(h *handoff.Store) *Service {
	s.handoff = h
	return s
}

// WithMailer wires the confirmation/cancellation email sender.
func (s *Service) WithMailer(m notify.EmailSender) *Service {
	s.mailer = m
	return s
}

// WithMetrics wires platform metrics.
func (s *Service) WithMetrics(m *metrics.PlatformMetrics) *Service {
	s.metrics = m
	return s
}

// WithPublicBaseURL derives the dashboard link included in booking emails.
// An empty base leaves the emails without a link.
func (s *Service) WithPublicBaseURL(base string) *Service {
	if base = strings.TrimSpace(base); base != "" {
		s.dashboardURL = strings.TrimRight(base, "/") + "/dashboard"
	}
	return s
}

func (s *Service) withClock(now func() time.Time, newID func() string) *Service {
	if now != nil {
		s.now = now
	}
	if newID != nil {
		s.newID = newID
	}
	return s
}

// CreateBooking validates the request, assigns a therapist, and persists the
// new appointment. The assignment outcome is returned so callers can tell a
// specialty match from the roster default.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*Appointment, roster.Assignment, error) {
	email := NormalizeEmail(req.Email)

	suggestion := req.SuggestedSpecialty
	var consumed *handoff.MatcherSelection
	if s.handoff != nil && email != "" {
		sel, err := s.handoff.TakeMatcherSelection(ctx, email)
		if err != nil {
			s.logger.Warn("matcher selection unavailable", "error", err, "email", email)
		} else if sel != nil {
			consumed = sel
			if suggestion == "" {
				suggestion = sel.RecommendedType
			}
			if strings.TrimSpace(req.Issue) == "" {
				req.Issue = sel.Condition
			}
		}
	}

	if err := req.Validate(); err != nil {
		// The selection is single-read; put it back so a corrected retry of the
		// form still benefits from it.
		if consumed != nil {
			if rerr := s.handoff.SetMatcherSelection(ctx, email, *consumed); rerr != nil {
				s.logger.Warn("matcher selection not restored", "error", rerr, "email", email)
			}
		}
		return nil, roster.Assignment{}, err
	}

	assignment := s.resolver.Assign(req.Issue, suggestion)
	now := s.now()

	appt := &Appointment{
		ID:                 s.newID(),
		Name:               req.Name,
		Email:              email,
		Phone:              req.Phone,
		Address:            req.Address,
		Date:               formatHumanDate(req.Date),
		Time:               req.Time,
		Issue:              req.Issue,
		TherapistID:        assignment.Therapist.ID,
		TherapistName:      assignment.Therapist.Name,
		TherapistSpecialty: assignment.Therapist.Specialty,
		TherapistRating:    assignment.Therapist.Rating,
		Status:             StatusUpcoming,
		CreatedAt:          now,
		Tracking: Tracking{
			Status:     TrackingAssigned,
			LastUpdate: now,
		},
	}

	if err := s.store.Create(ctx, appt); err != nil {
		return nil, assignment, err
	}

	if s.handoff != nil {
		if err := s.handoff.SetPendingEmail(ctx, email); err != nil {
			s.logger.Warn("pending email marker not stored", "error", err, "email", email)
		}
	}
	s.sendEmail(ctx, notify.ConfirmationEmail(s.emailDetails(appt)))
	s.metrics.ObserveBooking(assignment.Matched)

	s.logger.Info("appointment booked",
		"id", appt.ID,
		"therapist", appt.TherapistName,
		"specialty_matched", assignment.Matched,
	)
	return appt, assignment, nil
}

// Get loads one appointment.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.store.GetByID(ctx, id)
}

// ListForEmail returns the signed-in user's appointments, newest first.
func (s *Service) ListForEmail(ctx context.Context, email string) ([]Appointment, error) {
	return s.store.ListByEmail(ctx, email)
}

// ListAll returns the global view.
func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.store.ListAll(ctx)
}

// UpcomingCount returns the number of upcoming sessions for the email.
func (s *Service) UpcomingCount(ctx context.Context, email string) (int, error) {
	appts, err := s.store.ListByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	return len(FilterByStatus(appts, StatusUpcoming)), nil
}

// Reschedule replaces the appointment with the same id using fresh booking
// data. The therapist is re-assigned from the new issue text and tracking
// restarts at assigned.
func (s *Service) Reschedule(ctx context.Context, id string, req BookingRequest) (*Appointment, error) {
	prior, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	assignment := s.resolver.Assign(req.Issue, req.SuggestedSpecialty)
	now := s.now()

	appt := &Appointment{
		ID:                 id,
		Name:               req.Name,
		Email:              NormalizeEmail(req.Email),
		Phone:              req.Phone,
		Address:            req.Address,
		Date:               formatHumanDate(req.Date),
		Time:               req.Time,
		Issue:              req.Issue,
		TherapistID:        assignment.Therapist.ID,
		TherapistName:      assignment.Therapist.Name,
		TherapistSpecialty: assignment.Therapist.Specialty,
		TherapistRating:    assignment.Therapist.Rating,
		Status:             StatusUpcoming,
		CreatedAt:          now,
		Tracking: Tracking{
			Status:     TrackingAssigned,
			LastUpdate: now,
		},
	}

	if err := s.store.Update(ctx, appt); err != nil {
		return nil, err
	}
	// Keep the replaced appointment available one read long, so a client can
	// show what the booking looked like before.
	if s.handoff != nil {
		if snapshot, err := json.Marshal(prior); err == nil {
			if err := s.handoff.SetReschedule(ctx, appt.Email, snapshot); err != nil {
				s.logger.Warn("reschedule snapshot not stored", "error", err, "id", id)
			}
		}
	}
	s.metrics.ObserveReschedule()
	s.logger.Info("appointment rescheduled", "id", id, "date", appt.Date, "time", appt.Time)
	return appt, nil
}

// Cancel removes the appointment from the store; it disappears from both the
// per-email and global views.
func (s *Service) Cancel(ctx context.Context, id string) error {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.sendEmail(ctx, notify.CancellationEmail(s.emailDetails(appt)))
	s.metrics.ObserveCancellation()
	s.logger.Info("appointment cancelled", "id", id)
	return nil
}

// MigrateAnonymous attaches bookings made before sign-in to the user's view.
// It only runs when the pending-email marker left by an anonymous booking
// matches; the marker is consumed either way it resolves.
func (s *Service) MigrateAnonymous(ctx context.Context, email string) ([]Appointment, error) {
	if s.handoff != nil {
		pending, err := s.handoff.TakePendingEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if !pending {
			return []Appointment{}, nil
		}
	}
	return s.store.MigrateAnonymous(ctx, email)
}

// AdvanceTracking moves the tracking status one step forward. Transition
// policy is the caller's: the simulator stops at arrived, and a human marks
// in_session and completed. Reaching completed also completes the
// appointment itself.
func (s *Service) AdvanceTracking(ctx context.Context, id string, next TrackingStatus) (*Appointment, error) {
	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := appt.Tracking.Status
	if !current.CanAdvanceTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	appt.Tracking.Status = next
	appt.Tracking.LastUpdate = s.now()
	if next == TrackingCompleted {
		appt.Status = StatusCompleted
	}

	if err := s.store.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.metrics.ObserveTrackingTransition(string(current), string(next))
	s.logger.Info("tracking advanced", "id", id, "from", current, "to", next)
	return appt, nil
}

func (s *Service) emailDetails(appt *Appointment) notify.BookingDetails {
	return notify.BookingDetails{
		PatientName:   appt.Name,
		Email:         appt.Email,
		Date:          appt.Date,
		Time:          appt.Time,
		Address:       appt.Address,
		TherapistName: appt.TherapistName,
		Specialty:     appt.TherapistSpecialty,
		DashboardURL:  s.dashboardURL,
	}
}

func (s *Service) sendEmail(ctx context.Context, msg notify.EmailMessage) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("notification email failed", "error", err, "to", msg.To)
	}
}

// formatHumanDate renders an ISO date as the long human form shown on the
// dashboard ("Monday, January 2, 2006"). Unparseable input is kept verbatim;
// the date field is free text by contract.
func formatHumanDate(date string) string {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return parsed.Format("Monday, January 2, 2006")
}
