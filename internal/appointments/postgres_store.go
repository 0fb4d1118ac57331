package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool the store needs. pgxmock satisfies
// it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the durable appointment store. The relational layout is
// the redesigned single table: per-email and global views are both plain
// queries over it, so they cannot diverge.
type PostgresStore struct {
	db pgxQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithQuerier allows injecting mocks for tests.
func NewPostgresStoreWithQuerier(q pgxQuerier) *PostgresStore {
	return &PostgresStore{db: q}
}

const apptColumns = `id, name, email, phone, address, visit_date, visit_time, issue,
	therapist_id, therapist_name, therapist_specialty, therapist_rating,
	status, created_at, tracking`

// Create inserts a record.
func (s *PostgresStore) Create(ctx context.Context, appt *Appointment) error {
	appt.Email = NormalizeEmail(appt.Email)
	tracking, err := json.Marshal(appt.Tracking)
	if err != nil {
		return fmt.Errorf("appointments: encode tracking: %w", err)
	}

	query := `
		INSERT INTO appointments (id, name, email, phone, address, visit_date, visit_time, issue,
			therapist_id, therapist_name, therapist_specialty, therapist_rating,
			status, created_at, tracking)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if _, err := s.db.Exec(ctx, query,
		appt.ID, appt.Name, appt.Email, appt.Phone, appt.Address,
		appt.Date, appt.Time, appt.Issue,
		appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
		string(appt.Status), appt.CreatedAt, tracking,
	); err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID loads one record.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

// ListByEmail returns the records for the normalized email, newest first.
func (s *PostgresStore) ListByEmail(ctx context.Context, email string) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments WHERE email = $1 ORDER BY created_at DESC, id`
	rows, err := s.db.Query(ctx, query, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("appointments: list by email failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListAll returns every record, newest first.
func (s *PostgresStore) ListAll(ctx context.Context) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments ORDER BY created_at DESC, id`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// Update replaces the record with the same id.
func (s *PostgresStore) Update(ctx context.Context, appt *Appointment) error {
	appt.Email = NormalizeEmail(appt.Email)
	tracking, err := json.Marshal(appt.Tracking)
	if err != nil {
		return fmt.Errorf("appointments: encode tracking: %w", err)
	}

	query := `
		UPDATE appointments
		SET name = $2, email = $3, phone = $4, address = $5, visit_date = $6, visit_time = $7,
			issue = $8, therapist_id = $9, therapist_name = $10, therapist_specialty = $11,
			therapist_rating = $12, status = $13, created_at = $14, tracking = $15
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query,
		appt.ID, appt.Name, appt.Email, appt.Phone, appt.Address,
		appt.Date, appt.Time, appt.Issue,
		appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
		string(appt.Status), appt.CreatedAt, tracking,
	)
	if err != nil {
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the record; it disappears from both views at once.
func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTracking replaces only the tracking column of one record. The UPDATE
// carries the status rank comparison so a write computed from a stale snapshot
// loses inside the database, not after a separate read.
func (s *PostgresStore) UpdateTracking(ctx context.Context, id string, tracking Tracking) error {
	data, err := json.Marshal(tracking)
	if err != nil {
		return fmt.Errorf("appointments: encode tracking: %w", err)
	}
	query := `
		UPDATE appointments SET tracking = $2
		WHERE id = $1 AND (CASE tracking->>'status'
			WHEN 'assigned' THEN 0 WHEN 'en_route' THEN 1 WHEN 'arrived' THEN 2
			WHEN 'in_session' THEN 3 WHEN 'completed' THEN 4 ELSE 0 END) <= $3
	`
	tag, err := s.db.Exec(ctx, query, id, data, tracking.Status.Rank())
	if err != nil {
		return fmt.Errorf("appointments: update tracking failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: record moved past %s", ErrStaleTracking, tracking.Status)
	}
	return nil
}

// MigrateAnonymous is a read in the relational layout: the per-email view is
// always derived from the table, so there is nothing to reconcile.
func (s *PostgresStore) MigrateAnonymous(ctx context.Context, email string) ([]Appointment, error) {
	return s.ListByEmail(ctx, email)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt      Appointment
		status    string
		createdAt time.Time
		tracking  []byte
	)
	if err := row.Scan(
		&appt.ID, &appt.Name, &appt.Email, &appt.Phone, &appt.Address,
		&appt.Date, &appt.Time, &appt.Issue,
		&appt.TherapistID, &appt.TherapistName, &appt.TherapistSpecialty, &appt.TherapistRating,
		&status, &createdAt, &tracking,
	); err != nil {
		return nil, err
	}
	appt.Status = Status(status)
	appt.CreatedAt = createdAt
	if err := json.Unmarshal(tracking, &appt.Tracking); err != nil {
		// Corrupted tracking resets to the initial sub-record.
		appt.Tracking = Tracking{Status: TrackingAssigned, LastUpdate: createdAt}
	}
	return &appt, nil
}
