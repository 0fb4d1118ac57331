package appointments

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no appointment exists for the id.
	ErrNotFound = errors.New("appointments: not found")
	// ErrInvalidTransition is returned for a backward or skipped tracking step.
	ErrInvalidTransition = errors.New("appointments: invalid tracking transition")
	// ErrStaleTracking is returned when a tracking write was computed from a
	// snapshot older than the stored record; the caller must re-read.
	ErrStaleTracking = errors.New("appointments: stale tracking write")
)

// Store is the single logical appointment table: records keyed by id with a
// secondary index by normalized email and a global newest-first index. The
// per-email and global views are two reads of the same data, so a cancel can
// never leave one view stale.
type Store interface {
	// Create inserts a record at the head of both the per-email and global views.
	Create(ctx context.Context, appt *Appointment) error
	// GetByID loads one record.
	GetByID(ctx context.Context, id string) (*Appointment, error)
	// ListByEmail returns the per-email view, newest first. The email is
	// normalized before lookup. An unknown email yields an empty slice.
	ListByEmail(ctx context.Context, email string) ([]Appointment, error)
	// ListAll returns the global view, newest first.
	ListAll(ctx context.Context) ([]Appointment, error)
	// Update replaces the record with the same id in place.
	Update(ctx context.Context, appt *Appointment) error
	// Remove deletes the record from the table and both views.
	Remove(ctx context.Context, id string) error
	// UpdateTracking replaces only the tracking sub-record of one appointment,
	// leaving sibling records untouched. A write whose status ranks below the
	// stored status is rejected with ErrStaleTracking: tracking only moves
	// forward, even under concurrent writers.
	UpdateTracking(ctx context.Context, id string, tracking Tracking) error
	// MigrateAnonymous backfills the per-email view from global records whose
	// email matches, and returns the resulting per-email view. It is a no-op
	// when the view is already complete.
	MigrateAnonymous(ctx context.Context, email string) ([]Appointment, error)
}
