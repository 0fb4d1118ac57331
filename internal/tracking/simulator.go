// Package tracking advances an appointment's delivery status over time. The
// simulator stands in for a live GPS feed: a production deployment swaps the
// random location source for real ingestion and keeps the state machine and
// persistence contract unchanged.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/physiohome/booking-platform/internal/appointments"
	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// Config tunes the simulated feed.
type Config struct {
	// Interval between ticks.
	Interval time.Duration
	// EnRouteChance is the per-tick probability of assigned -> en_route.
	EnRouteChance float64
	// ArrivalThresholdKm: en_route -> arrived once distance drops below it.
	ArrivalThresholdKm float64
	// BaseLat/BaseLng anchor the simulated therapist position.
	BaseLat float64
	BaseLng float64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.EnRouteChance <= 0 {
		c.EnRouteChance = 0.3
	}
	if c.ArrivalThresholdKm <= 0 {
		c.ArrivalThresholdKm = 0.5
	}
	if c.BaseLat == 0 && c.BaseLng == 0 {
		c.BaseLat, c.BaseLng = 26.8467, 80.9462
	}
	return c
}

// Simulator mutates tracking sub-records one tick at a time. Statuses only
// move forward; arrived and beyond are never advanced here.
type Simulator struct {
	store   appointments.Store
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.PlatformMetrics
	randf   func() float64
	now     func() time.Time
}

// NewSimulator creates a simulator over the appointment store.
func NewSimulator(store appointments.Store, cfg Config, logger *logging.Logger) *Simulator {
	if store == nil {
		panic("tracking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Simulator{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger.Component("tracking"),
		randf:  rand.Float64,
		now:    time.Now,
	}
}

// WithMetrics wires platform metrics.
func (s *Simulator) WithMetrics(m *metrics.PlatformMetrics) *Simulator {
	s.metrics = m
	return s
}

func (s *Simulator) withRand(f func() float64, now func() time.Time) *Simulator {
	if f != nil {
		s.randf = f
	}
	if now != nil {
		s.now = now
	}
	return s
}

// Tick advances one appointment's tracking by a single step and persists the
// updated sub-record. Appointments at arrived or later are left untouched.
func (s *Simulator) Tick(ctx context.Context, appt *appointments.Appointment) (appointments.Tracking, bool, error) {
	tr := appt.Tracking
	if tr.Status.Rank() >= appointments.TrackingArrived.Rank() {
		return tr, false, nil
	}

	previous := tr.Status
	distanceKm := s.nextDistance(tr)
	etaMin := int(math.Round(distanceKm * 2.5))
	distance := strconv.FormatFloat(distanceKm, 'f', 1, 64)

	switch tr.Status {
	case appointments.TrackingAssigned:
		if s.randf() < s.cfg.EnRouteChance {
			tr.Status = appointments.TrackingEnRoute
		}
	case appointments.TrackingEnRoute:
		if distanceKm < s.cfg.ArrivalThresholdKm {
			tr.Status = appointments.TrackingArrived
		}
	}

	tr.CurrentLocation = &appointments.Location{
		Lat: s.cfg.BaseLat + (s.randf()-0.5)*0.05,
		Lng: s.cfg.BaseLng + (s.randf()-0.5)*0.05,
	}
	tr.EstimatedArrival = &etaMin
	tr.Distance = &distance
	tr.LastUpdate = s.now()

	if err := s.store.UpdateTracking(ctx, appt.ID, tr); err != nil {
		if errors.Is(err, appointments.ErrStaleTracking) {
			// Someone advanced the record past this snapshot; the store kept the
			// newer status. Resynchronize and report the stored sub-record.
			fresh, ferr := s.store.GetByID(ctx, appt.ID)
			if ferr != nil {
				return appt.Tracking, false, fmt.Errorf("tracking: reload %s: %w", appt.ID, ferr)
			}
			appt.Tracking = fresh.Tracking
			return fresh.Tracking, true, nil
		}
		return appt.Tracking, false, fmt.Errorf("tracking: persist tick for %s: %w", appt.ID, err)
	}
	appt.Tracking = tr

	if tr.Status != previous {
		s.metrics.ObserveTrackingTransition(string(previous), string(tr.Status))
		s.logger.Info("tracking status changed", "id", appt.ID, "from", previous, "to", tr.Status)
	}
	return tr, true, nil
}

// nextDistance draws the simulated remaining distance. The first reading is
// 2-12 km; while en route it shrinks by 0.5-1.5 km per tick so the arrival
// threshold is eventually crossed.
func (s *Simulator) nextDistance(tr appointments.Tracking) float64 {
	if tr.Status == appointments.TrackingEnRoute && tr.Distance != nil {
		if prev, err := strconv.ParseFloat(*tr.Distance, 64); err == nil {
			next := prev - (0.5 + s.randf())
			if next < 0 {
				next = 0
			}
			return next
		}
	}
	return s.randf()*10 + 2
}

// Run drives the simulator for every upcoming appointment until the context
// is cancelled. This is the loop behind cmd/tracking-worker.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("tracking simulator started", "interval", s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracking simulator stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.tickAll(ctx); err != nil {
				s.logger.Error("tracking sweep failed", "error", err)
			}
		}
	}
}

func (s *Simulator) tickAll(ctx context.Context) error {
	appts, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for i := range appts {
		if appts[i].Status != appointments.StatusUpcoming {
			continue
		}
		if _, _, err := s.Tick(ctx, &appts[i]); err != nil {
			s.logger.Warn("tick failed", "id", appts[i].ID, "error", err)
		}
	}
	return nil
}
