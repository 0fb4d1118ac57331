// The tracking worker sweeps every upcoming appointment on an interval and
// advances its simulated therapist position. Run it alongside cmd/api when
// dashboards should move without an open websocket.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/physiohome/booking-platform/internal/app/bootstrap"
	appconfig "github.com/physiohome/booking-platform/internal/config"
	"github.com/physiohome/booking-platform/internal/observability/metrics"
	"github.com/physiohome/booking-platform/internal/tracking"
	"github.com/physiohome/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting tracking worker", "interval", cfg.TrackingInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	store, err := bootstrap.BuildStore(ctx, cfg, rdb, logger)
	if err != nil {
		logger.Error("failed to build appointment store", "error", err)
		os.Exit(1)
	}

	sim := tracking.NewSimulator(store, tracking.Config{
		Interval:           cfg.TrackingInterval,
		EnRouteChance:      cfg.TrackingEnRouteChance,
		ArrivalThresholdKm: cfg.TrackingArrivalKm,
		BaseLat:            cfg.TrackingBaseLat,
		BaseLng:            cfg.TrackingBaseLng,
	}, logger).WithMetrics(metrics.NewPlatformMetrics(nil))

	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tracking worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("tracking worker stopped")
}
