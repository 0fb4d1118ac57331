package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/physiohome/booking-platform/internal/appointments"
)

// Feed exposes tracking updates for one appointment as a cancellable
// subscription. Consumers that go away must call Cancel (or cancel the
// context) so the underlying ticker stops writing to storage.
type Feed struct {
	sim *Simulator
}

// NewFeed creates a feed over the simulator.
func NewFeed(sim *Simulator) *Feed {
	if sim == nil {
		panic("tracking: simulator required")
	}
	return &Feed{sim: sim}
}

// Subscription delivers tracking snapshots until cancelled, the appointment
// leaves the upcoming set, or tracking reaches a state the simulator no
// longer drives. Updates is closed when the stream ends.
type Subscription struct {
	Updates <-chan appointments.Tracking

	cancel context.CancelFunc
	once   sync.Once
}

// Cancel stops the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Subscribe starts a ticker-driven stream of tracking updates for the
// appointment. The first snapshot is delivered immediately.
func (f *Feed) Subscribe(ctx context.Context, appointmentID string) (*Subscription, error) {
	appt, err := f.sim.store.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != appointments.StatusUpcoming {
		return nil, errors.New("tracking: appointment is not upcoming")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	updates := make(chan appointments.Tracking, 1)
	sub := &Subscription{Updates: updates, cancel: cancel}

	go f.pump(streamCtx, appointmentID, appt.Tracking, updates)
	return sub, nil
}

func (f *Feed) pump(ctx context.Context, id string, initial appointments.Tracking, updates chan appointments.Tracking) {
	defer close(updates)

	send := func(tr appointments.Tracking) {
		// Drop the stale snapshot if the consumer is slow; the next tick
		// supersedes it anyway.
		select {
		case updates <- tr:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- tr:
			default:
			}
		}
	}
	send(initial)

	ticker := time.NewTicker(f.sim.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			appt, err := f.sim.store.GetByID(ctx, id)
			if err != nil {
				// Cancelled or removed; the stream ends with it.
				return
			}
			if appt.Status != appointments.StatusUpcoming {
				return
			}

			tr, updated, err := f.sim.Tick(ctx, appt)
			if err != nil {
				f.sim.logger.Warn("feed tick failed", "id", id, "error", err)
				continue
			}
			if !updated {
				// Simulator no longer drives this appointment.
				send(tr)
				return
			}
			send(tr)
		}
	}
}
