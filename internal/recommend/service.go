// Package recommend matches a patient's intake against a physiotherapy
// specialty using an external text-generation service. The call is a single
// best-effort attempt: no retries, and any failure surfaces as one
// user-visible message.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/physiohome/booking-platform/internal/handoff"
	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// ErrUnavailable is the user-visible failure for a rejected or empty
// recommendation call.
var ErrUnavailable = errors.New("recommend: failed to get recommendation, please try again")

// ErrValidation wraps intake validation failures caught before any network call.
var ErrValidation = errors.New("recommend: validation failed")

const systemInstruction = `You are an expert physiotherapist matcher. Given a patient's ` +
	`condition, pain level (1-10) and preferred expertise, recommend exactly one ` +
	`physiotherapy specialty from: Orthopedic, Neurological, Sports, Pediatric, ` +
	`Geriatric, Cardiopulmonary. Respond with the specialty and a concise 2-3 sentence rationale.`

// Request is the patient intake.
type Request struct {
	Condition string `json:"condition"`
	PainLevel int    `json:"painLevel"`
	Expertise string `json:"expertise"`

	// Email, when known, lets the selection be handed off to the booking form.
	Email string `json:"email,omitempty"`
}

// Validate checks the intake before any network call is made.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Condition) == "" {
		return fmt.Errorf("%w: condition is required", ErrValidation)
	}
	if r.PainLevel < 1 || r.PainLevel > 10 {
		return fmt.Errorf("%w: pain level must be between 1 and 10", ErrValidation)
	}
	return nil
}

// Recommendation is the two-field structured result.
type Recommendation struct {
	Type      string `json:"type"`
	Rationale string `json:"rationale"`
}

// Client is a recommendation backend (Gemini, OpenAI).
type Client interface {
	Recommend(ctx context.Context, req Request) (*Recommendation, error)
	Provider() string
}

// Service validates intake, delegates to the configured backend, and stores
// the outcome for the booking-form handoff.
type Service struct {
	client  Client
	handoff *handoff.Store
	metrics *metrics.PlatformMetrics
	logger  *logging.Logger
	timeout time.Duration
}

// NewService creates the recommendation service.
func NewService(client Client, logger *logging.Logger, timeout time.Duration) *Service {
	if client == nil {
		panic("recommend: client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{
		client:  client,
		logger:  logger.Component("recommend"),
		timeout: timeout,
	}
}

// WithHandoff wires the booking-form handoff store.
func (s *Service) WithHandoff(h *handoff.Store) *Service {
	s.handoff = h
	return s
}

// WithMetrics wires platform metrics.
func (s *Service) WithMetrics(m *metrics.PlatformMetrics) *Service {
	s.metrics = m
	return s
}

// Recommend runs one best-effort recommendation call.
func (s *Service) Recommend(ctx context.Context, req Request) (*Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rec, err := s.client.Recommend(ctx, req)
	elapsed := time.Since(start).Seconds()

	// A rejected call and an empty result are the same condition to the user.
	if err != nil || rec == nil || strings.TrimSpace(rec.Type) == "" {
		s.metrics.ObserveRecommendation(s.client.Provider(), "error", elapsed)
		s.logger.Warn("recommendation unavailable", "provider", s.client.Provider(), "error", err)
		return nil, ErrUnavailable
	}
	s.metrics.ObserveRecommendation(s.client.Provider(), "ok", elapsed)

	if s.handoff != nil && strings.TrimSpace(req.Email) != "" {
		sel := handoff.MatcherSelection{
			Condition:       req.Condition,
			PainLevel:       req.PainLevel,
			Expertise:       req.Expertise,
			RecommendedType: rec.Type,
			Rationale:       rec.Rationale,
		}
		if err := s.handoff.SetMatcherSelection(ctx, req.Email, sel); err != nil {
			s.logger.Warn("matcher selection not stored", "error", err)
		}
	}

	return rec, nil
}

func userPrompt(req Request) string {
	return fmt.Sprintf("Patient Condition: %q. Pain Level (1-10): %d. Preferred Expertise: %q.",
		req.Condition, req.PainLevel, req.Expertise)
}
