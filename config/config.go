package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/pairs/backtest"
	"github.com/rustyeddy/pairs/kalman"
)

// Config is the on-disk form of a backtest setup.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Costs    CostsConfig    `json:"costs" yaml:"costs"`
	Gate     GateConfig     `json:"gate" yaml:"gate"`
	Filters  FiltersConfig  `json:"filters" yaml:"filters"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// StrategyConfig holds the z-score bands and sizing.
type StrategyConfig struct {
	EntryZ         float64 `json:"entry_z" yaml:"entry_z"`
	ExitZ          float64 `json:"exit_z" yaml:"exit_z"`
	StopZ          float64 `json:"stop_z" yaml:"stop_z"`
	RollingWindow  int     `json:"rolling_window" yaml:"rolling_window"`
	InvestFraction float64 `json:"invest_fraction" yaml:"invest_fraction"`
	CloseAtEnd     bool    `json:"close_at_end" yaml:"close_at_end"`
}

// CostsConfig holds commission and borrow rates.
type CostsConfig struct {
	CommissionRate   float64 `json:"commission_rate" yaml:"commission_rate"`
	AnnualBorrowRate float64 `json:"annual_borrow_rate" yaml:"annual_borrow_rate"`
	TradingDays      int     `json:"trading_days" yaml:"trading_days"`
}

// GateConfig controls the stationarity check and where it runs.
type GateConfig struct {
	UseStationarity bool    `json:"use_stationarity" yaml:"use_stationarity"`
	ADFAlpha        float64 `json:"adf_alpha" yaml:"adf_alpha"`
	Epsilon         float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`

	Oracle        string  `json:"oracle" yaml:"oracle"` // "local" or "http"
	OracleURL     string  `json:"oracle_url,omitempty" yaml:"oracle_url,omitempty"`
	ADFLags       int     `json:"adf_lags" yaml:"adf_lags"` // -1 selects by AIC
	Timeout       string  `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RatePerSecond float64 `json:"rate_per_second,omitempty" yaml:"rate_per_second,omitempty"`
	Burst         int     `json:"burst,omitempty" yaml:"burst,omitempty"`

	CacheAddr string `json:"cache_addr,omitempty" yaml:"cache_addr,omitempty"` // redis host:port
	CacheTTL  string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// TimeoutDuration parses Timeout; empty means 0.
func (g GateConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(g.Timeout)
}

// CacheTTLDuration parses CacheTTL; empty means 0 (no expiry).
func (g GateConfig) CacheTTLDuration() (time.Duration, error) {
	return parseDuration(g.CacheTTL)
}

// FiltersConfig tunes the hedge-ratio and smoothing filters.
type FiltersConfig struct {
	Hedge  kalman.Params `json:"hedge" yaml:"hedge"`
	Smooth kalman.Params `json:"smooth" yaml:"smooth"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "", "csv", "sqlite" or "postgres"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN        string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file. Missing
// fields keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Backtest converts c to the engine's config.
func (c *Config) Backtest() backtest.Config {
	return backtest.Config{
		InitialCash:      c.Account.InitialCash,
		CommissionRate:   c.Costs.CommissionRate,
		InvestFraction:   c.Strategy.InvestFraction,
		AnnualBorrowRate: c.Costs.AnnualBorrowRate,
		TradingDays:      c.Costs.TradingDays,
		EntryZ:           c.Strategy.EntryZ,
		ExitZ:            c.Strategy.ExitZ,
		StopZ:            c.Strategy.StopZ,
		RollingWindow:    c.Strategy.RollingWindow,
		CloseAtEnd:       c.Strategy.CloseAtEnd,
		UseStationarity:  c.Gate.UseStationarity,
		ADFAlpha:         c.Gate.ADFAlpha,
		Epsilon:          c.Gate.Epsilon,
		Hedge:            c.Filters.Hedge,
		Smooth:           c.Filters.Smooth,
	}
}

// Validate checks the engine parameters and the gate and journal wiring.
func (c *Config) Validate() error {
	if err := c.Backtest().Validate(); err != nil {
		return err
	}

	switch c.Gate.Oracle {
	case "", "local":
	case "http":
		if c.Gate.OracleURL == "" {
			return fmt.Errorf("gate.oracle_url required for http oracle")
		}
	default:
		return fmt.Errorf("gate.oracle must be 'local' or 'http'")
	}
	if c.Gate.ADFLags < -1 {
		return fmt.Errorf("gate.adf_lags must be -1 (AIC) or a lag order")
	}
	if c.Gate.RatePerSecond < 0 || c.Gate.Burst < 0 {
		return fmt.Errorf("gate rate limits must not be negative")
	}
	if _, err := c.Gate.TimeoutDuration(); err != nil {
		return fmt.Errorf("gate.timeout: %w", err)
	}
	if _, err := c.Gate.CacheTTLDuration(); err != nil {
		return fmt.Errorf("gate.cache_ttl: %w", err)
	}

	switch c.Journal.Type {
	case "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'postgres'")
	}
	return nil
}

// Default returns the reference parameters with the local AIC-lag ADF gate
// switched on and no journal. backtest.DefaultConfig, which has no oracle to
// call, leaves the gate off.
func Default() *Config {
	bc := backtest.DefaultConfig()
	return &Config{
		Account: AccountConfig{InitialCash: bc.InitialCash},
		Strategy: StrategyConfig{
			EntryZ:         bc.EntryZ,
			ExitZ:          bc.ExitZ,
			StopZ:          bc.StopZ,
			RollingWindow:  bc.RollingWindow,
			InvestFraction: bc.InvestFraction,
		},
		Costs: CostsConfig{
			CommissionRate:   bc.CommissionRate,
			AnnualBorrowRate: bc.AnnualBorrowRate,
			TradingDays:      bc.TradingDays,
		},
		Gate: GateConfig{
			UseStationarity: true,
			ADFAlpha:        bc.ADFAlpha,
			Oracle:          "local",
			ADFLags:         -1,
			Timeout:         "10s",
			CacheTTL:        "24h",
		},
		Filters: FiltersConfig{Hedge: bc.Hedge, Smooth: bc.Smooth},
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
