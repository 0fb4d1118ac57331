package appointments

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStoreWithQuerier(mock), mock
}

func appointmentRow(t *testing.T, appt *Appointment) *pgxmock.Rows {
	t.Helper()
	tracking, err := json.Marshal(appt.Tracking)
	require.NoError(t, err)
	return pgxmock.NewRows([]string{
		"id", "name", "email", "phone", "address", "visit_date", "visit_time", "issue",
		"therapist_id", "therapist_name", "therapist_specialty", "therapist_rating",
		"status", "created_at", "tracking",
	}).AddRow(
		appt.ID, appt.Name, appt.Email, appt.Phone, appt.Address, appt.Date, appt.Time, appt.Issue,
		appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
		string(appt.Status), appt.CreatedAt, tracking,
	)
}

func TestPostgresStoreCreate(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "Ravi@Example.com")

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(
			appt.ID, appt.Name, "ravi@example.com", appt.Phone, appt.Address,
			appt.Date, appt.Time, appt.Issue,
			appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
			string(StatusUpcoming), appt.CreatedAt, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Create(context.Background(), appt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetByID(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "ravi@example.com")

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("a1").
		WillReturnRows(appointmentRow(t, appt))

	got, err := store.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, appt.ID, got.ID)
	require.Equal(t, appt.TherapistName, got.TherapistName)
	require.Equal(t, TrackingAssigned, got.Tracking.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreGetMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "phone", "address", "visit_date", "visit_time", "issue",
			"therapist_id", "therapist_name", "therapist_specialty", "therapist_rating",
			"status", "created_at", "tracking",
		}))

	_, err := store.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListByEmailNormalizes(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "ravi@example.com")

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE email").
		WithArgs("ravi@example.com").
		WillReturnRows(appointmentRow(t, appt))

	appts, err := store.ListByEmail(context.Background(), " RAVI@Example.com ")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCorruptTrackingResets(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "ravi@example.com")
	createdAt := appt.CreatedAt

	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "phone", "address", "visit_date", "visit_time", "issue",
		"therapist_id", "therapist_name", "therapist_specialty", "therapist_rating",
		"status", "created_at", "tracking",
	}).AddRow(
		appt.ID, appt.Name, appt.Email, appt.Phone, appt.Address, appt.Date, appt.Time, appt.Issue,
		appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
		string(appt.Status), createdAt, []byte("{not json"),
	)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("a1").
		WillReturnRows(rows)

	got, err := store.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, TrackingAssigned, got.Tracking.Status)
	require.Equal(t, createdAt, got.Tracking.LastUpdate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("ghost", "ravi@example.com")

	mock.ExpectExec("UPDATE appointments").
		WithArgs(
			appt.ID, appt.Name, appt.Email, appt.Phone, appt.Address,
			appt.Date, appt.Time, appt.Issue,
			appt.TherapistID, appt.TherapistName, appt.TherapistSpecialty, appt.TherapistRating,
			string(appt.Status), appt.CreatedAt, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.ErrorIs(t, store.Update(context.Background(), appt), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRemove(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ctx := context.Background()
	require.NoError(t, store.Remove(ctx, "a1"))
	require.ErrorIs(t, store.Remove(ctx, "a1"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateTracking(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	tracking := Tracking{Status: TrackingEnRoute, LastUpdate: time.Now().UTC()}
	data, err := json.Marshal(tracking)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE appointments SET tracking").
		WithArgs("a1", data, tracking.Status.Rank()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateTracking(context.Background(), "a1", tracking))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateTrackingRejectsBackwardWrite(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "ravi@example.com")
	appt.Tracking.Status = TrackingArrived

	stale := Tracking{Status: TrackingAssigned, LastUpdate: time.Now().UTC()}
	data, err := json.Marshal(stale)
	require.NoError(t, err)

	// The conditional UPDATE matches no row; the follow-up read finds the
	// record, so the miss means a stale write rather than a missing record.
	mock.ExpectExec("UPDATE appointments SET tracking").
		WithArgs("a1", data, stale.Status.Rank()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("a1").
		WillReturnRows(appointmentRow(t, appt))

	require.ErrorIs(t, store.UpdateTracking(context.Background(), "a1", stale), ErrStaleTracking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateTrackingMissing(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	tracking := Tracking{Status: TrackingEnRoute, LastUpdate: time.Now().UTC()}
	data, err := json.Marshal(tracking)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE appointments SET tracking").
		WithArgs("ghost", data, tracking.Status.Rank()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "email", "phone", "address", "visit_date", "visit_time", "issue",
			"therapist_id", "therapist_name", "therapist_specialty", "therapist_rating",
			"status", "created_at", "tracking",
		}))

	require.ErrorIs(t, store.UpdateTracking(context.Background(), "ghost", tracking), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreMigrateAnonymousIsRead(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	appt := testAppointment("a1", "ravi@example.com")

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE email").
		WithArgs("ravi@example.com").
		WillReturnRows(appointmentRow(t, appt))

	appts, err := store.MigrateAnonymous(context.Background(), "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
