// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Maker describes the low-fee venue where resting limit orders are quoted.
// Credentials are referenced by environment variable name, never stored in
// the file.
type Maker struct {
	Venue           string `yaml:"venue"`
	Pair            string `yaml:"pair"`
	StatusStreamURL string `yaml:"status_stream_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	APISecretEnv    string `yaml:"api_secret_env"`
}

// Hedge describes the venue used to offset filled maker exposure.
type Hedge struct {
	Venue        string `yaml:"venue"`
	APIKeyEnv    string `yaml:"api_key_env"`
	APISecretEnv string `yaml:"api_secret_env"`
}

// Strategy specifies the active pricing mode and its knobs.
type Strategy struct {
	Mode      string  `yaml:"mode"`
	MidOffset float64 `yaml:"mid_offset"`
	OrderSize float64 `yaml:"order_size"`
}

// Engine groups the orchestration timings and hedging bounds.
type Engine struct {
	LoopIntervalMs       int     `yaml:"loop_interval_ms"`
	ErrorRetryMs         int     `yaml:"error_retry_ms"`
	PriceUpdateThreshold float64 `yaml:"price_update_threshold"`
	MaxInFlightHedges    int     `yaml:"max_in_flight_hedges"`
	HedgeMaxAttempts     int     `yaml:"hedge_max_attempts"`
	HedgeBackoffBaseMs   int     `yaml:"hedge_backoff_base_ms"`
	HedgeBackoffMaxMs    int     `yaml:"hedge_backoff_max_ms"`
	ShutdownTimeoutMs    int     `yaml:"shutdown_timeout_ms"`
	JournalPath          string  `yaml:"journal_path"`
	FillsPath            string  `yaml:"fills_path"`
}

// LoopInterval returns the quoting cadence with a sane default.
func (e Engine) LoopInterval() time.Duration {
	if e.LoopIntervalMs <= 0 {
		return time.Second
	}
	return time.Duration(e.LoopIntervalMs) * time.Millisecond
}

// ErrorRetry returns the post-error pause; errors never tight-loop against a
// rate-limited API.
func (e Engine) ErrorRetry() time.Duration {
	if e.ErrorRetryMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.ErrorRetryMs) * time.Millisecond
}

// ShutdownTimeout bounds the drain on stop.
func (e Engine) ShutdownTimeout() time.Duration {
	if e.ShutdownTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.ShutdownTimeoutMs) * time.Millisecond
}

// Risk encodes the guard rails enforced by the risk controller.
type Risk struct {
	MaxPositionSize float64 `yaml:"max_position_size"`
	MaxDailyTrades  int     `yaml:"max_daily_trades"`
	StopLossPct     float64 `yaml:"stop_loss_pct"`
	EquityBase      float64 `yaml:"equity_base"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Maker    Maker    `yaml:"maker"`
	Hedge    Hedge    `yaml:"hedge"`
	Strategy Strategy `yaml:"strategy"`
	Engine   Engine   `yaml:"engine"`
	Risk     Risk     `yaml:"risk"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
