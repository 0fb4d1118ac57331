// Package handoff stores short-lived values passed between steps of the
// booking flow: the AI-matcher selection, a reschedule snapshot, and the
// pending-email marker left by an anonymous booking. Every value is read at
// most once and expires if never claimed.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingEmailPrefix = "handoff:pending_email:"
	matcherPrefix      = "handoff:matcher:"
	reschedulePrefix   = "handoff:reschedule:"
)

// MatcherSelection is the intake captured by the AI matcher before the user
// reaches the booking form.
type MatcherSelection struct {
	Condition       string `json:"condition"`
	PainLevel       int    `json:"painLevel"`
	Expertise       string `json:"expertise"`
	RecommendedType string `json:"recommendedType,omitempty"`
	Rationale       string `json:"rationale,omitempty"`
}

// Store persists handoff values in Redis with a TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a handoff store. A zero ttl defaults to 30 minutes.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if rdb == nil {
		panic("handoff: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// SetPendingEmail marks that an anonymous booking exists for the email, so
// the dashboard can attach it once the user signs in.
func (s *Store) SetPendingEmail(ctx context.Context, email string) error {
	key := pendingEmailPrefix + normalize(email)
	if err := s.rdb.Set(ctx, key, "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("handoff: set pending email: %w", err)
	}
	return nil
}

// TakePendingEmail consumes the pending-email marker. It reports whether the
// marker existed; a second call always reports false.
func (s *Store) TakePendingEmail(ctx context.Context, email string) (bool, error) {
	key := pendingEmailPrefix + normalize(email)
	if err := s.rdb.GetDel(ctx, key).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("handoff: take pending email: %w", err)
	}
	return true, nil
}

// SetMatcherSelection stores the AI-matcher intake for the email.
func (s *Store) SetMatcherSelection(ctx context.Context, email string, sel MatcherSelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("handoff: encode matcher selection: %w", err)
	}
	key := matcherPrefix + normalize(email)
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("handoff: set matcher selection: %w", err)
	}
	return nil
}

// TakeMatcherSelection consumes the stored selection, or returns nil when
// none is pending. Corrupt stored data is discarded, not surfaced.
func (s *Store) TakeMatcherSelection(ctx context.Context, email string) (*MatcherSelection, error) {
	key := matcherPrefix + normalize(email)
	data, err := s.rdb.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("handoff: take matcher selection: %w", err)
	}
	var sel MatcherSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, nil
	}
	return &sel, nil
}

// SetReschedule stores the full appointment snapshot being rescheduled.
func (s *Store) SetReschedule(ctx context.Context, email string, snapshot json.RawMessage) error {
	key := reschedulePrefix + normalize(email)
	if err := s.rdb.Set(ctx, key, []byte(snapshot), s.ttl).Err(); err != nil {
		return fmt.Errorf("handoff: set reschedule snapshot: %w", err)
	}
	return nil
}

// TakeReschedule consumes the reschedule snapshot, or returns nil when none
// is pending.
func (s *Store) TakeReschedule(ctx context.Context, email string) (json.RawMessage, error) {
	key := reschedulePrefix + normalize(email)
	data, err := s.rdb.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("handoff: take reschedule snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
