package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.TrackingInterval != 10*time.Second {
		t.Errorf("expected default tracking interval 10s, got %s", cfg.TrackingInterval)
	}
	if cfg.TrackingEnRouteChance != 0.3 {
		t.Errorf("expected default en-route chance 0.3, got %f", cfg.TrackingEnRouteChance)
	}
	if cfg.TrackingArrivalKm != 0.5 {
		t.Errorf("expected default arrival threshold 0.5, got %f", cfg.TrackingArrivalKm)
	}
	if cfg.PaymentCurrency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.PaymentCurrency)
	}
	if cfg.RecommendProvider != "gemini" {
		t.Errorf("expected default recommend provider gemini, got %s", cfg.RecommendProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRACKING_EN_ROUTE_CHANCE", "0.75")
	t.Setenv("TRACKING_INTERVAL", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://physiohome.example, https://staging.physiohome.example")
	t.Setenv("STORE_BACKEND", "Postgres")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.TrackingEnRouteChance != 0.75 {
		t.Errorf("expected en-route chance 0.75, got %f", cfg.TrackingEnRouteChance)
	}
	if cfg.TrackingInterval != 2*time.Second {
		t.Errorf("expected tracking interval 2s, got %s", cfg.TrackingInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://physiohome.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.UsePostgres() {
		t.Error("expected UsePostgres with STORE_BACKEND=postgres")
	}
}

func TestUsePostgresAuto(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/physiohome")
	cfg := Load()
	if !cfg.UsePostgres() {
		t.Error("expected UsePostgres when DATABASE_URL is set in auto mode")
	}

	t.Setenv("STORE_BACKEND", "redis")
	cfg = Load()
	if cfg.UsePostgres() {
		t.Error("expected redis backend to win over DATABASE_URL")
	}
}
