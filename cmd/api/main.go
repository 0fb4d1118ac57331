package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/physiohome/booking-platform/internal/api/router"
	"github.com/physiohome/booking-platform/internal/app/bootstrap"
	"github.com/physiohome/booking-platform/internal/appointments"
	appconfig "github.com/physiohome/booking-platform/internal/config"
	"github.com/physiohome/booking-platform/internal/handoff"
	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/internal/payments"
	"github.com/physiohome/booking-platform/internal/recommend"
	"github.com/physiohome/booking-platform/internal/roster"
	"github.com/physiohome/booking-platform/internal/tracking"
	"github.com/physiohome/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting booking-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	platformMetrics := metrics.NewPlatformMetrics(nil)

	// Persistence
	rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	store, err := bootstrap.BuildStore(ctx, cfg, rdb, logger)
	if err != nil {
		logger.Error("failed to build appointment store", "error", err)
		os.Exit(1)
	}
	var handoffStore *handoff.Store
	if rdb != nil {
		handoffStore = handoff.NewStore(rdb, cfg.HandoffTTL)
	} else {
		logger.Warn("redis unavailable, booking handoff disabled")
	}

	// Appointment lifecycle
	resolver := roster.NewResolver(nil)
	apptSvc := appointments.NewService(store, resolver, logger).
		WithMailer(bootstrap.BuildMailer(cfg, logger)).
		WithMetrics(platformMetrics).
		WithPublicBaseURL(cfg.PublicBaseURL)
	if handoffStore != nil {
		apptSvc = apptSvc.WithHandoff(handoffStore)
	}

	// Live tracking feed
	sim := tracking.NewSimulator(store, tracking.Config{
		Interval:           cfg.TrackingInterval,
		EnRouteChance:      cfg.TrackingEnRouteChance,
		ArrivalThresholdKm: cfg.TrackingArrivalKm,
		BaseLat:            cfg.TrackingBaseLat,
		BaseLng:            cfg.TrackingBaseLng,
	}, logger).WithMetrics(platformMetrics)
	feed := tracking.NewFeed(sim)

	// Intake recommendations
	var recommendHandler *recommend.Handler
	if client := bootstrap.BuildRecommendClient(ctx, cfg, logger); client != nil {
		recSvc := recommend.NewService(client, logger, cfg.RecommendTimeout).
			WithMetrics(platformMetrics)
		if handoffStore != nil {
			recSvc = recSvc.WithHandoff(handoffStore)
		}
		recommendHandler = recommend.NewHandler(recSvc, logger)
	} else {
		logger.Warn("recommendation endpoint disabled, no backend configured")
	}

	// Payments
	var paymentsHandler *payments.Handler
	if cfg.StripeSecretKey != "" {
		paySvc := payments.NewStripeIntentService(cfg.StripeSecretKey, cfg.PaymentCurrency, logger)
		paymentsHandler = payments.NewHandler(paySvc, platformMetrics, logger).
			WithDefaultAmount(float64(cfg.SessionPriceMajor))
	} else {
		logger.Warn("payments endpoint disabled, STRIPE_SECRET_KEY not set")
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		RosterHandler:       roster.NewHandler(resolver),
		RecommendHandler:    recommendHandler,
		PaymentsHandler:     paymentsHandler,
		PaymentsRedirect:    payments.NewRedirectHandler(logger),
		TrackingHandler:     tracking.NewHandler(feed, logger, nil),
		MetricsHandler:      promhttp.Handler(),
		PortalJWTSecret:     cfg.PortalJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
