// Package spread turns a pair of prices into a dynamic hedge ratio and a
// smoothed spread using two chained Kalman filters.
package spread

import (
	"fmt"

	"github.com/rustyeddy/pairs/kalman"
)

// Estimate is the output of one step.
type Estimate struct {
	Intercept float64 // hedge regression intercept
	Beta      float64 // hedge ratio estimated this step
	Spread    float64 // py - Beta*px
	Smoothed  float64 // spread after the smoothing filter
}

// Estimator runs the hedge-ratio regression y = a + b·x followed by a
// local-level smoother on the resulting spread. Both filters persist for the
// life of the estimator.
type Estimator struct {
	hedge  *kalman.Filter
	smooth *kalman.Filter
	hist   *Window
}

// New builds an estimator keeping the last window smoothed values.
func New(window int, hedge, smooth kalman.Params) (*Estimator, error) {
	if window <= 0 {
		return nil, fmt.Errorf("spread: window must be positive, got %d", window)
	}

	hf, err := kalman.New(2, hedge.Options()...)
	if err != nil {
		return nil, fmt.Errorf("spread: hedge filter: %w", err)
	}
	sf, err := kalman.New(1, smooth.Options()...)
	if err != nil {
		return nil, fmt.Errorf("spread: smoothing filter: %w", err)
	}

	return &Estimator{
		hedge:  hf,
		smooth: sf,
		hist:   NewWindow(window),
	}, nil
}

// Update consumes one pair of prices. The hedge ratio used to build the
// spread is always the one estimated from this same observation.
func (e *Estimator) Update(py, px float64) (Estimate, error) {
	if err := e.hedge.Step([]float64{1, px}, py); err != nil {
		return Estimate{}, fmt.Errorf("spread: hedge update: %w", err)
	}
	beta := e.hedge.Coef(1)

	spr := py - beta*px

	if err := e.smooth.Step([]float64{1}, spr); err != nil {
		return Estimate{}, fmt.Errorf("spread: smoothing update: %w", err)
	}
	smoothed := e.smooth.Coef(0)

	e.hist.Push(smoothed)

	return Estimate{Intercept: e.hedge.Coef(0), Beta: beta, Spread: spr, Smoothed: smoothed}, nil
}

// History returns the retained smoothed spreads, oldest first.
func (e *Estimator) History() []float64 { return e.hist.Values() }

// Ready reports whether a full window has been observed.
func (e *Estimator) Ready() bool { return e.hist.Full() }
