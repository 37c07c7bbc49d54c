package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "arbbot-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App.LogLevel: %s", cfg.App.LogLevel)
	}
	if cfg.Maker.Venue != "dydx" || cfg.Maker.Pair != "BRETT-USD" {
		t.Fatalf("unexpected maker venue config: %+v", cfg.Maker)
	}
	if cfg.Maker.StatusStreamURL != "wss://example.test/orders" {
		t.Fatalf("unexpected status stream url: %s", cfg.Maker.StatusStreamURL)
	}
	if cfg.Hedge.Venue != "hyperliquid" {
		t.Fatalf("unexpected hedge venue: %s", cfg.Hedge.Venue)
	}
	if cfg.Strategy.Mode != "mid_price_offset" {
		t.Fatalf("unexpected strategy mode: %s", cfg.Strategy.Mode)
	}
	if cfg.Strategy.MidOffset != 0.0002 {
		t.Fatalf("unexpected mid offset: %f", cfg.Strategy.MidOffset)
	}
	if cfg.Strategy.OrderSize != 2.5 {
		t.Fatalf("unexpected order size: %f", cfg.Strategy.OrderSize)
	}
	if cfg.Engine.PriceUpdateThreshold != 0.002 {
		t.Fatalf("unexpected price update threshold: %f", cfg.Engine.PriceUpdateThreshold)
	}
	if cfg.Engine.MaxInFlightHedges != 2 {
		t.Fatalf("unexpected max in-flight hedges: %d", cfg.Engine.MaxInFlightHedges)
	}
	if cfg.Engine.HedgeMaxAttempts != 4 {
		t.Fatalf("unexpected hedge max attempts: %d", cfg.Engine.HedgeMaxAttempts)
	}
	if cfg.Engine.LoopInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected loop interval: %v", cfg.Engine.LoopInterval())
	}
	if cfg.Engine.ErrorRetry() != time.Second {
		t.Fatalf("unexpected error retry: %v", cfg.Engine.ErrorRetry())
	}
	if cfg.Engine.ShutdownTimeout() != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.Engine.ShutdownTimeout())
	}
	if cfg.Risk.MaxPositionSize != 5.0 || cfg.Risk.MaxDailyTrades != 10 {
		t.Fatalf("unexpected risk limits: %+v", cfg.Risk)
	}
	if cfg.Risk.StopLossPct != 0.03 || cfg.Risk.EquityBase != 1000 {
		t.Fatalf("unexpected stop loss config: %+v", cfg.Risk)
	}
}

func TestEngineDurationDefaults(t *testing.T) {
	var e Engine
	if e.LoopInterval() != time.Second {
		t.Fatalf("unexpected default loop interval: %v", e.LoopInterval())
	}
	if e.ErrorRetry() != 5*time.Second {
		t.Fatalf("unexpected default error retry: %v", e.ErrorRetry())
	}
	if e.ShutdownTimeout() != 30*time.Second {
		t.Fatalf("unexpected default shutdown timeout: %v", e.ShutdownTimeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if *reloaded != *cfg {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", *reloaded, *cfg)
	}
}

func TestSaveNilConfig(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "config.yaml"), nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
