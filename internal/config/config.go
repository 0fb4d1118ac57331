package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	LogFormat     string

	// Persistence. Redis is the primary appointment store; setting
	// DATABASE_URL switches to the Postgres-backed store.
	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Identity. Tokens are issued by the external auth provider; the API
	// only verifies the signature and reads the email claim.
	PortalJWTSecret string

	// Recommendation service
	RecommendProvider string
	GeminiAPIKey      string
	GeminiModelID     string
	OpenAIAPIKey      string
	OpenAIModelID     string
	RecommendTimeout  time.Duration

	// Payments
	StripeSecretKey   string
	PaymentCurrency   string
	SessionPriceMajor int

	// Tracking simulator
	TrackingInterval      time.Duration
	TrackingEnRouteChance float64
	TrackingArrivalKm     float64
	TrackingBaseLat       float64
	TrackingBaseLng       float64

	// Handoff values expire if never claimed
	HandoffTTL time.Duration

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "auto"))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		PortalJWTSecret: getEnv("PORTAL_JWT_SECRET", ""),

		RecommendProvider: strings.ToLower(strings.TrimSpace(getEnv("RECOMMEND_PROVIDER", "gemini"))),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:     getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModelID:     getEnv("OPENAI_MODEL_ID", "gpt-4o-mini"),
		RecommendTimeout:  getEnvAsDuration("RECOMMEND_TIMEOUT", 20*time.Second),

		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		PaymentCurrency:   strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		SessionPriceMajor: getEnvAsInt("SESSION_PRICE_MAJOR_UNITS", 50),

		TrackingInterval:      getEnvAsDuration("TRACKING_INTERVAL", 10*time.Second),
		TrackingEnRouteChance: getEnvAsFloat("TRACKING_EN_ROUTE_CHANCE", 0.3),
		TrackingArrivalKm:     getEnvAsFloat("TRACKING_ARRIVAL_KM", 0.5),
		TrackingBaseLat:       getEnvAsFloat("TRACKING_BASE_LAT", 26.8467),
		TrackingBaseLng:       getEnvAsFloat("TRACKING_BASE_LNG", 80.9462),

		HandoffTTL: getEnvAsDuration("HANDOFF_TTL", 30*time.Minute),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "PhysioHome"),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// UsePostgres reports whether the durable Postgres store should be wired.
func (c *Config) UsePostgres() bool {
	if c.StoreBackend == "postgres" {
		return true
	}
	return c.StoreBackend == "auto" && c.DatabaseURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
