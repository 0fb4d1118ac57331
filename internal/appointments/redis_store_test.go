package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func testAppointment(id, email string) *Appointment {
	return &Appointment{
		ID:                 id,
		Name:               "Ravi Kumar",
		Email:              email,
		Phone:              "+91 98765 43210",
		Address:            "14 Hazratganj, Lucknow",
		Date:               "Monday, March 2, 2026",
		Time:               "10:00 AM",
		Issue:              "lower back pain",
		TherapistID:        "pt-1",
		TherapistName:      "Dr. Priya Sharma",
		TherapistSpecialty: "Orthopedic",
		TherapistRating:    4.9,
		Status:             StatusUpcoming,
		CreatedAt:          time.Now().UTC().Truncate(time.Second),
		Tracking:           Tracking{Status: TrackingAssigned, LastUpdate: time.Now().UTC().Truncate(time.Second)},
	}
}

func TestRedisStoreCreateAndGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	appt := testAppointment("a1", "Ravi@Example.com")
	require.NoError(t, store.Create(ctx, appt))

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "a1", got.ID)
	require.Equal(t, "ravi@example.com", got.Email, "stored email should be normalized")
	require.Equal(t, TrackingAssigned, got.Tracking.Status)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreListNewestFirst(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a2", "ravi@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a3", "other@example.com")))

	byEmail, err := store.ListByEmail(ctx, "RAVI@example.com ")
	require.NoError(t, err)
	require.Len(t, byEmail, 2)
	require.Equal(t, "a2", byEmail[0].ID, "most recent booking comes first")
	require.Equal(t, "a1", byEmail[1].ID)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "a3", all[0].ID)
}

func TestRedisStoreListEmptyIndex(t *testing.T) {
	store, _ := newTestRedisStore(t)

	appts, err := store.ListByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.NotNil(t, appts)
	require.Empty(t, appts)
}

func TestRedisStoreRemoveDropsBothViews(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a2", "ravi@example.com")))

	require.NoError(t, store.Remove(ctx, "a1"))

	_, err := store.GetByID(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)

	byEmail, err := store.ListByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	require.Equal(t, "a2", byEmail[0].ID)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "a2", all[0].ID)
}

func TestRedisStoreRemoveMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)
	err := store.Remove(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUpdateTracking(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a2", "ravi@example.com")))

	distance := "4.2"
	eta := 11
	tracking := Tracking{
		Status:           TrackingEnRoute,
		CurrentLocation:  &Location{Lat: 26.85, Lng: 80.95},
		EstimatedArrival: &eta,
		Distance:         &distance,
		LastUpdate:       time.Now().UTC(),
	}
	require.NoError(t, store.UpdateTracking(ctx, "a1", tracking))

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, TrackingEnRoute, got.Tracking.Status)
	require.Equal(t, "4.2", *got.Tracking.Distance)

	// The sibling record is untouched.
	other, err := store.GetByID(ctx, "a2")
	require.NoError(t, err)
	require.Equal(t, TrackingAssigned, other.Tracking.Status)
}

func TestRedisStoreUpdateTrackingRejectsBackwardWrite(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, store.UpdateTracking(ctx, "a1", Tracking{Status: TrackingArrived, LastUpdate: time.Now().UTC()}))

	err := store.UpdateTracking(ctx, "a1", Tracking{Status: TrackingAssigned, LastUpdate: time.Now().UTC()})
	require.ErrorIs(t, err, ErrStaleTracking)

	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, TrackingArrived, got.Tracking.Status, "the newer status survives the stale write")

	// A same-rank write is a refresh, not a regression.
	require.NoError(t, store.UpdateTracking(ctx, "a1", Tracking{Status: TrackingArrived, LastUpdate: time.Now().UTC()}))
}

func TestRedisStoreCorruptRecordResetsToAbsent(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, mr.Set("appointment:a1", "{not json"))

	_, err := store.GetByID(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestRedisStoreMigrateAnonymousRebuildsEmailIndex(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a2", "other@example.com")))
	require.NoError(t, store.Create(ctx, testAppointment("a3", "ravi@example.com")))

	// Simulate a pre-sign-in state where the per-email view is missing.
	mr.Del("appointments:email:ravi@example.com")

	migrated, err := store.MigrateAnonymous(ctx, "Ravi@Example.com")
	require.NoError(t, err)
	require.Len(t, migrated, 2)
	require.Equal(t, "a3", migrated[0].ID, "migrated view keeps newest-first order")
	require.Equal(t, "a1", migrated[1].ID)

	byEmail, err := store.ListByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 2)
	require.Equal(t, "a3", byEmail[0].ID)
}

func TestRedisStoreMigrateAnonymousIdempotent(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "ravi@example.com")))

	for range 2 {
		migrated, err := store.MigrateAnonymous(ctx, "ravi@example.com")
		require.NoError(t, err)
		require.Len(t, migrated, 1)
	}

	byEmail, err := store.ListByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	require.Len(t, byEmail, 1, "repeat migration must not duplicate entries")
}

func TestRedisStoreUpdateReindexesOnEmailChange(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testAppointment("a1", "old@example.com")))

	appt, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	appt.Email = "new@example.com"
	require.NoError(t, store.Update(ctx, appt))

	oldView, err := store.ListByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	require.Empty(t, oldView)

	newView, err := store.ListByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.Len(t, newView, 1)
}

func TestRedisStoreUpdateMissing(t *testing.T) {
	store, _ := newTestRedisStore(t)
	err := store.Update(context.Background(), testAppointment("ghost", "x@example.com"))
	require.True(t, errors.Is(err, ErrNotFound))
}
