// Package gate normalizes the smoothed spread into a rolling z-score and
// decides whether new entries are allowed.
package gate

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// DefaultEpsilon floors the rolling standard deviation.
const DefaultEpsilon = 1e-6

// StationarityTest returns the p-value of a unit-root test on series. Low
// values are evidence the series is stationary.
type StationarityTest interface {
	PValue(ctx context.Context, series []float64) (float64, error)
}

// Config configures a Gate.
type Config struct {
	Window          int
	UseStationarity bool
	ADFAlpha        float64
	Epsilon         float64 // 0 means DefaultEpsilon
}

// Decision is the gate's verdict for one step.
type Decision struct {
	Ready          bool // false until Window values are available
	Z              float64
	Mean           float64
	Std            float64 // after flooring
	PValue         float64 // NaN when no test ran
	Available      bool    // false when the stationarity test failed
	EntriesAllowed bool
}

// Gate is stateless apart from its configuration and oracle.
type Gate struct {
	cfg    Config
	oracle StationarityTest
	log    zerolog.Logger
}

var ErrNoOracle = errors.New("gate: stationarity check enabled without an oracle")

// New returns a gate. oracle may be nil when UseStationarity is false.
func New(cfg Config, oracle StationarityTest, log zerolog.Logger) (*Gate, error) {
	if cfg.Window <= 0 {
		return nil, errors.New("gate: window must be positive")
	}
	if cfg.UseStationarity && oracle == nil {
		return nil, ErrNoOracle
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	return &Gate{cfg: cfg, oracle: oracle, log: log}, nil
}

// Evaluate scores the newest value of history against the last Window
// values. Exits are never gated; only EntriesAllowed depends on the
// stationarity test.
func (g *Gate) Evaluate(ctx context.Context, history []float64) Decision {
	d := Decision{PValue: math.NaN()}
	if len(history) < g.cfg.Window {
		return d
	}

	win := history[len(history)-g.cfg.Window:]
	d.Ready = true
	d.Mean, d.Std = ZScoreStats(win, g.cfg.Epsilon)
	d.Z = (win[len(win)-1] - d.Mean) / d.Std
	d.Available = true

	if !g.cfg.UseStationarity {
		d.EntriesAllowed = true
		return d
	}

	p, err := g.oracle.PValue(ctx, win)
	if err == nil && (math.IsNaN(p) || math.IsInf(p, 0)) {
		err = errors.New("non-finite p-value")
	}
	if err != nil {
		g.log.Warn().Err(err).Msg("stationarity test unavailable, entries blocked")
		d.Available = false
		return d
	}

	d.PValue = p
	d.EntriesAllowed = p <= g.cfg.ADFAlpha
	return d
}

// ZScoreStats returns the mean and population standard deviation of win,
// the latter floored at eps.
func ZScoreStats(win []float64, eps float64) (mean, std float64) {
	mean, variance := stat.PopMeanVariance(win, nil)
	std = math.Sqrt(variance)
	if !(std > eps) {
		std = eps
	}
	return mean, std
}
