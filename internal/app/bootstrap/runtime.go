// Package bootstrap wires shared runtime dependencies for the binaries:
// the Redis client, the appointment store, the recommendation backend and
// the email sender. Binaries stay small; all construction policy lives here.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/physiohome/booking-platform/internal/appointments"
	appconfig "github.com/physiohome/booking-platform/internal/config"
	"github.com/physiohome/booking-platform/internal/notify"
	"github.com/physiohome/booking-platform/internal/recommend"
	"github.com/physiohome/booking-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildStore selects the appointment store backend. DATABASE_URL (or
// STORE_BACKEND=postgres) wires Postgres; otherwise the Redis store is used.
func BuildStore(ctx context.Context, cfg *appconfig.Config, rdb *redis.Client, logger *logging.Logger) (appointments.Store, error) {
	if cfg.UsePostgres() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("appointment store: postgres")
		return appointments.NewPostgresStore(pool), nil
	}
	if rdb == nil {
		return nil, fmt.Errorf("bootstrap: no store backend available, set REDIS_ADDR or DATABASE_URL")
	}
	logger.Info("appointment store: redis", "addr", cfg.RedisAddr)
	return appointments.NewRedisStore(rdb), nil
}

// BuildRecommendClient constructs the configured recommendation backend, or
// nil when no provider credentials are present.
func BuildRecommendClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) recommend.Client {
	switch cfg.RecommendProvider {
	case "openai":
		client, err := recommend.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModelID)
		if err != nil {
			logger.Warn("openai recommendation backend disabled", "error", err)
			return nil
		}
		return client
	default:
		client, err := recommend.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini recommendation backend disabled", "error", err)
			return nil
		}
		return client
	}
}

// BuildMailer returns the SendGrid sender, or the logging stub when no API
// key is configured.
func BuildMailer(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		logger.Info("email disabled, using stub sender")
		return notify.NewStubEmailSender(logger)
	}
	return sender
}
