package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/physiohome/booking-platform/pkg/logging"
)

var stripeTracer = otel.Tracer("physiohome.internal.payments.stripe")

// ErrInvalidAmount is returned before any network call for a non-positive amount.
var ErrInvalidAmount = errors.New("payments: amount must be greater than zero")

// IntentParams describes the deposit to collect for an appointment.
type IntentParams struct {
	// AmountMajor is the session price in major currency units.
	AmountMajor float64
	// Metadata ties the intent back to the appointment.
	AppointmentID string
	TherapistID   string
	Date          string
	Time          string
}

// IntentResponse mirrors the subset of the payment intent the client needs.
type IntentResponse struct {
	ClientSecret    string  `json:"clientSecret"`
	PaymentIntentID string  `json:"paymentIntentId"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
}

// StripeError is the provider's structured error payload.
type StripeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

func (e *StripeError) Error() string {
	return fmt.Sprintf("payments: stripe error: %s (%s/%s)", e.Message, e.Type, e.Code)
}

// StripeIntentService creates payment intents for session deposits against
// the Stripe REST API.
type StripeIntentService struct {
	secretKey  string
	currency   string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

// NewStripeIntentService creates a new Stripe payment intent service.
func NewStripeIntentService(secretKey, currency string, logger *logging.Logger) *StripeIntentService {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &StripeIntentService{
		secretKey:  secretKey,
		currency:   strings.ToLower(currency),
		baseURL:    "https://api.stripe.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeIntentService) WithBaseURL(baseURL string) *StripeIntentService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (returns fake intents without calling Stripe).
func (s *StripeIntentService) WithDryRun(enabled bool) *StripeIntentService {
	s.dryRun = enabled
	return s
}

// CreateIntent creates a payment intent. The amount is validated before any
// network call and converted to minor units for the provider.
func (s *StripeIntentService) CreateIntent(ctx context.Context, params IntentParams) (*IntentResponse, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.String("physiohome.appointment_id", params.AppointmentID),
		attribute.Float64("physiohome.amount_major", params.AmountMajor),
	)

	if params.AmountMajor <= 0 {
		return nil, ErrInvalidAmount
	}
	amountMinor := int64(math.Round(params.AmountMajor * 100))

	if s.dryRun {
		fakeID := "pi_dryrun_" + uuid.NewString()[:8]
		s.logger.Info("stripe dry run: skipping payment intent creation",
			"appointment_id", params.AppointmentID, "amount_minor", amountMinor)
		return &IntentResponse{
			ClientSecret:    fakeID + "_secret",
			PaymentIntentID: fakeID,
			Amount:          params.AmountMajor,
			Status:          "requires_payment_method",
		}, nil
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", s.currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[appointmentId]", orUnknown(params.AppointmentID))
	form.Set("metadata[physiotherapistId]", orUnknown(params.TherapistID))
	form.Set("metadata[date]", orUnknown(params.Date))
	form.Set("metadata[time]", orUnknown(params.Time))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payments: read stripe response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error StripeError `json:"error"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
			return nil, fmt.Errorf("payments: stripe returned status %d", resp.StatusCode)
		}
		s.logger.Error("stripe rejected payment intent",
			"status", resp.StatusCode, "code", wrapper.Error.Code, "type", wrapper.Error.Type)
		return nil, &wrapper.Error
	}

	var intent struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("payments: decode stripe response: %w", err)
	}

	s.logger.Info("payment intent created",
		"payment_intent_id", intent.ID,
		"amount_minor", amountMinor,
		"status", intent.Status,
	)
	return &IntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          params.AmountMajor,
		Status:          intent.Status,
	}, nil
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unknown"
	}
	return v
}
