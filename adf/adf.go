// Package adf implements the augmented Dickey-Fuller unit-root test with a
// constant term and MacKinnon approximate p-values.
//
// The regression is
//
//	Δy_t = α + γ·y_{t-1} + Σ_{i=1..k} δ_i·Δy_{t-i} + e_t
//
// and the statistic is the t-ratio of γ. With AutoLag the number of lagged
// differences k is chosen by AIC over a common sample, then the regression
// is refit on the longest sample for that k.
package adf

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AutoLag selects the lag order by AIC.
const AutoLag = -1

var (
	ErrConstant = errors.New("adf: series is constant")
	ErrTooShort = errors.New("adf: series too short for the regression")
)

// Test runs the ADF test. The zero value uses k = 0 lagged differences;
// use Test{Lags: AutoLag} for AIC selection.
type Test struct {
	Lags   int // fixed number of lagged differences, or AutoLag
	MaxLag int // upper bound for AutoLag; 0 means 12·(n/100)^¼
}

// Result of one test.
type Result struct {
	Statistic float64
	PValue    float64
	UsedLag   int
	NObs      int
}

// PValue implements gate.StationarityTest.
func (t Test) PValue(_ context.Context, series []float64) (float64, error) {
	r, err := t.Run(series)
	if err != nil {
		return math.NaN(), err
	}
	return r.PValue, nil
}

// Run computes the statistic and p-value for series.
func (t Test) Run(series []float64) (Result, error) {
	n := len(series)
	if n < 4 {
		return Result{}, ErrTooShort
	}
	if isConstant(series) {
		return Result{}, ErrConstant
	}

	// one deterministic term (the constant)
	upper := n/2 - 2
	lag := t.Lags
	if lag == AutoLag {
		maxLag := t.MaxLag
		if maxLag <= 0 {
			maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
		}
		if maxLag > upper {
			maxLag = upper
		}
		if maxLag < 0 {
			return Result{}, ErrTooShort
		}
		best, err := selectLag(series, maxLag)
		if err != nil {
			return Result{}, err
		}
		lag = best
	} else if lag < 0 || lag > upper {
		return Result{}, fmt.Errorf("%w: lag %d exceeds %d", ErrTooShort, lag, upper)
	}

	y, x := design(series, lag, lag)
	fit, err := ols(y, x)
	if err != nil {
		return Result{}, err
	}

	stat := fit.beta[1] / fit.se[1]
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return Result{}, fmt.Errorf("adf: degenerate regression (t=%v)", stat)
	}

	return Result{
		Statistic: stat,
		PValue:    MacKinnonP(stat),
		UsedLag:   lag,
		NObs:      len(y),
	}, nil
}

// selectLag fits k = 0..maxLag on the sample left after dropping maxLag+1
// observations and returns the k with the lowest AIC (smallest k on ties).
func selectLag(series []float64, maxLag int) (int, error) {
	best, bestAIC := -1, math.Inf(1)
	for k := 0; k <= maxLag; k++ {
		y, x := design(series, k, maxLag)
		fit, err := ols(y, x)
		if err != nil {
			continue
		}
		if fit.aic < bestAIC {
			best, bestAIC = k, fit.aic
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no lag order could be fitted", ErrTooShort)
	}
	return best, nil
}

// design builds the ADF regression with k lagged differences on the sample
// that would be available with skip lags. Columns: const, y_{t-1}, Δy_{t-1..t-k}.
func design(series []float64, k, skip int) ([]float64, *mat.Dense) {
	d := make([]float64, len(series)-1)
	for i := range d {
		d[i] = series[i+1] - series[i]
	}

	nobs := len(d) - skip
	cols := 2 + k
	y := make([]float64, nobs)
	x := mat.NewDense(nobs, cols, nil)
	for r := 0; r < nobs; r++ {
		t := skip + r // index into d
		y[r] = d[t]
		x.Set(r, 0, 1)
		x.Set(r, 1, series[t])
		for j := 1; j <= k; j++ {
			x.Set(r, 1+j, d[t-j])
		}
	}
	return y, x
}

func isConstant(series []float64) bool {
	for _, v := range series[1:] {
		if v != series[0] {
			return false
		}
	}
	return true
}
