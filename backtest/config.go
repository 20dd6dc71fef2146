package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/pairs/kalman"
)

// ErrInvalidConfig wraps every configuration rejection.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the immutable parameter set of a run.
type Config struct {
	InitialCash      float64 `json:"initial_cash"`
	CommissionRate   float64 `json:"commission_rate"`
	InvestFraction   float64 `json:"invest_fraction"`
	AnnualBorrowRate float64 `json:"annual_borrow_rate"`
	TradingDays      int     `json:"trading_days"`

	EntryZ        float64 `json:"entry_z"`
	ExitZ         float64 `json:"exit_z"`
	StopZ         float64 `json:"stop_z"`
	RollingWindow int     `json:"rolling_window"`
	CloseAtEnd    bool    `json:"close_at_end"`

	UseStationarity bool    `json:"use_stationarity"`
	ADFAlpha        float64 `json:"adf_alpha"`
	Epsilon         float64 `json:"epsilon,omitempty"` // z-score std floor; 0 means gate.DefaultEpsilon

	Hedge  kalman.Params `json:"hedge"`
	Smooth kalman.Params `json:"smooth"`
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		InitialCash:      1_000_000,
		CommissionRate:   0.00125,
		InvestFraction:   0.80,
		AnnualBorrowRate: 0.0025,
		TradingDays:      252,
		EntryZ:           1.0,
		ExitZ:            0.5,
		StopZ:            3.5,
		RollingWindow:    20,
		ADFAlpha:         0.05,
		Hedge:            kalman.DefaultParams(),
		Smooth:           kalman.DefaultParams(),
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if !(c.InitialCash > 0) || math.IsInf(c.InitialCash, 0) {
		return bad("initial_cash must be positive, got %v", c.InitialCash)
	}
	if !(c.InvestFraction > 0 && c.InvestFraction <= 1) {
		return bad("invest_fraction must be in (0,1], got %v", c.InvestFraction)
	}
	if !(c.CommissionRate >= 0) {
		return bad("commission_rate must not be negative, got %v", c.CommissionRate)
	}
	if !(c.AnnualBorrowRate >= 0) {
		return bad("annual_borrow_rate must not be negative, got %v", c.AnnualBorrowRate)
	}
	if c.TradingDays <= 0 {
		return bad("trading_days must be positive, got %d", c.TradingDays)
	}
	if c.RollingWindow <= 0 {
		return bad("rolling_window must be positive, got %d", c.RollingWindow)
	}
	if !(c.ExitZ >= 0) {
		return bad("exit_z must not be negative, got %v", c.ExitZ)
	}
	if !(c.ExitZ < c.EntryZ) {
		return bad("exit_z (%v) must be below entry_z (%v)", c.ExitZ, c.EntryZ)
	}
	if !(c.StopZ > c.ExitZ) {
		return bad("stop_z (%v) must be above exit_z (%v)", c.StopZ, c.ExitZ)
	}
	if c.UseStationarity && !(c.ADFAlpha > 0 && c.ADFAlpha < 1) {
		return bad("adf_alpha must be in (0,1), got %v", c.ADFAlpha)
	}
	if c.Epsilon < 0 {
		return bad("epsilon must not be negative, got %v", c.Epsilon)
	}
	if negativeParams(c.Hedge) {
		return bad("hedge filter parameters must not be negative")
	}
	if negativeParams(c.Smooth) {
		return bad("smooth filter parameters must not be negative")
	}
	return nil
}

func negativeParams(p kalman.Params) bool {
	return p.ObservationNoise < 0 || p.ProcessNoise < 0 || p.InitialCovariance < 0
}
