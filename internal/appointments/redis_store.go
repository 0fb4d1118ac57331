package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	recordKeyPrefix = "appointment:"
	globalIndexKey  = "appointments:index"
	emailIndexKey   = "appointments:email:"
)

// RedisStore keeps appointment records as individual keys with list indexes
// for the global and per-email views. Each record is its own key, so a
// tracking update rewrites one record and can never clobber a sibling's
// concurrent change.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed appointment store.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	if rdb == nil {
		panic("appointments: redis client required")
	}
	return &RedisStore{rdb: rdb}
}

// Create inserts the record and pushes its id onto both indexes atomically.
func (s *RedisStore) Create(ctx context.Context, appt *Appointment) error {
	appt.Email = NormalizeEmail(appt.Email)
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("appointments: encode record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+appt.ID, data, 0)
	pipe.LPush(ctx, emailIndexKey+appt.Email, appt.ID)
	pipe.LPush(ctx, globalIndexKey, appt.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appointments: create %s: %w", appt.ID, err)
	}
	return nil
}

// GetByID loads one record. A corrupt stored record is deleted and reported
// as not found.
func (s *RedisStore) GetByID(ctx context.Context, id string) (*Appointment, error) {
	data, err := s.rdb.Get(ctx, recordKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: load %s: %w", id, err)
	}
	var appt Appointment
	if err := json.Unmarshal(data, &appt); err != nil {
		// Corrupted state resets to absent rather than propagating.
		s.dropRecord(ctx, id, "")
		return nil, ErrNotFound
	}
	return &appt, nil
}

// ListByEmail returns the per-email view, newest first.
func (s *RedisStore) ListByEmail(ctx context.Context, email string) ([]Appointment, error) {
	return s.listIndex(ctx, emailIndexKey+NormalizeEmail(email))
}

// ListAll returns the global view, newest first.
func (s *RedisStore) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.listIndex(ctx, globalIndexKey)
}

// Update replaces the record with the same id.
func (s *RedisStore) Update(ctx context.Context, appt *Appointment) error {
	existing, err := s.GetByID(ctx, appt.ID)
	if err != nil {
		return err
	}
	appt.Email = NormalizeEmail(appt.Email)
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("appointments: encode record: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+appt.ID, data, 0)
	if existing.Email != appt.Email {
		pipe.LRem(ctx, emailIndexKey+existing.Email, 0, appt.ID)
		pipe.LPush(ctx, emailIndexKey+appt.Email, appt.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appointments: update %s: %w", appt.ID, err)
	}
	return nil
}

// Remove deletes the record and its entries from both indexes.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.dropRecord(ctx, id, appt.Email)
	return nil
}

// UpdateTracking replaces only the tracking sub-record of one appointment.
// Writes computed from a snapshot whose status fell behind the stored record
// are rejected; tracking never moves backward.
func (s *RedisStore) UpdateTracking(ctx context.Context, id string, tracking Tracking) error {
	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tracking.Status.Rank() < appt.Tracking.Status.Rank() {
		return fmt.Errorf("%w: %s behind %s", ErrStaleTracking, tracking.Status, appt.Tracking.Status)
	}
	appt.Tracking = tracking
	data, err := json.Marshal(appt)
	if err != nil {
		return fmt.Errorf("appointments: encode record: %w", err)
	}
	if err := s.rdb.Set(ctx, recordKeyPrefix+id, data, 0).Err(); err != nil {
		return fmt.Errorf("appointments: update tracking %s: %w", id, err)
	}
	return nil
}

// MigrateAnonymous rebuilds the per-email view from the global records whose
// email matches, preserving global (newest-first) order.
func (s *RedisStore) MigrateAnonymous(ctx context.Context, email string) ([]Appointment, error) {
	email = NormalizeEmail(email)
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]Appointment, 0)
	ids := make([]any, 0)
	for _, appt := range all {
		if appt.Email == email {
			matched = append(matched, appt)
			ids = append(ids, appt.ID)
		}
	}

	key := emailIndexKey + email
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		// RPush keeps the global order, which is already newest first.
		pipe.RPush(ctx, key, ids...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("appointments: migrate %s: %w", email, err)
	}
	return matched, nil
}

func (s *RedisStore) listIndex(ctx context.Context, key string) ([]Appointment, error) {
	ids, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Appointment{}, nil
		}
		return nil, fmt.Errorf("appointments: read index %s: %w", key, err)
	}

	out := make([]Appointment, 0, len(ids))
	for _, id := range ids {
		data, err := s.rdb.Get(ctx, recordKeyPrefix+id).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Stale index entry; drop it and keep going.
				s.rdb.LRem(ctx, key, 0, id)
				continue
			}
			return nil, fmt.Errorf("appointments: load %s: %w", id, err)
		}
		var appt Appointment
		if err := json.Unmarshal(data, &appt); err != nil {
			s.dropRecord(ctx, id, "")
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

// dropRecord removes a record and its index entries. When the owning email is
// unknown (corrupt record), only the global index can be cleaned.
func (s *RedisStore) dropRecord(ctx context.Context, id, email string) {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, recordKeyPrefix+id)
	pipe.LRem(ctx, globalIndexKey, 0, id)
	if email != "" {
		pipe.LRem(ctx, emailIndexKey+NormalizeEmail(email), 0, id)
	}
	_, _ = pipe.Exec(ctx)
}
