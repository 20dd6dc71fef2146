// Package kalman implements a linear Kalman filter for a scalar observation
// y = x·w + v, used as an online regression (time-varying coefficients) and
// as a local-level smoother.
package kalman

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinObservationNoise is the floor applied to R so the innovation variance
// stays strictly positive.
const MinObservationNoise = 1e-9

// Defaults used when no option overrides them.
const (
	DefaultObservationNoise  = 1.0
	DefaultProcessNoise      = 1e-3
	DefaultInitialCovariance = 1e-2
)

var (
	ErrDimension            = errors.New("kalman: dimension mismatch")
	ErrSingularInnovation   = errors.New("kalman: innovation variance is not positive")
	errNonPositiveDimension = errors.New("kalman: state dimension must be positive")
)

// Filter owns one estimator state. It is not safe for concurrent use; each
// run owns its own filters.
type Filter struct {
	n int
	r float64
	f *mat.Dense
	q *mat.Dense

	w *mat.VecDense
	p *mat.Dense

	// initial state, kept for Reset
	w0 *mat.VecDense
	p0 *mat.Dense

	err error
}

// Option configures a Filter at construction.
type Option func(*Filter)

// WithObservationNoise sets R. Values below MinObservationNoise are floored.
func WithObservationNoise(r float64) Option {
	return func(k *Filter) { k.r = r }
}

// WithProcessNoise sets Q = q·I.
func WithProcessNoise(q float64) Option {
	return func(k *Filter) { k.q = scaledIdentity(k.n, q) }
}

// WithProcessCovariance sets a full Q.
func WithProcessCovariance(q mat.Matrix) Option {
	return func(k *Filter) {
		if !square(q, k.n) {
			k.err = fmt.Errorf("%w: Q must be %dx%d", ErrDimension, k.n, k.n)
			return
		}
		k.q = mat.DenseCopyOf(q)
	}
}

// WithTransition sets F. The default is the identity (random-walk states).
func WithTransition(f mat.Matrix) Option {
	return func(k *Filter) {
		if !square(f, k.n) {
			k.err = fmt.Errorf("%w: F must be %dx%d", ErrDimension, k.n, k.n)
			return
		}
		k.f = mat.DenseCopyOf(f)
	}
}

// WithInitialCovariance sets P0 = p·I.
func WithInitialCovariance(p float64) Option {
	return func(k *Filter) { k.p0 = scaledIdentity(k.n, p) }
}

// WithInitialState sets w0.
func WithInitialState(w ...float64) Option {
	return func(k *Filter) {
		if len(w) != k.n {
			k.err = fmt.Errorf("%w: w0 has length %d, want %d", ErrDimension, len(w), k.n)
			return
		}
		k.w0 = mat.NewVecDense(k.n, append([]float64(nil), w...))
	}
}

// New returns a filter with an n-dimensional state.
func New(n int, opts ...Option) (*Filter, error) {
	if n <= 0 {
		return nil, errNonPositiveDimension
	}

	k := &Filter{
		n:  n,
		r:  DefaultObservationNoise,
		f:  scaledIdentity(n, 1),
		q:  scaledIdentity(n, DefaultProcessNoise),
		w0: mat.NewVecDense(n, nil),
		p0: scaledIdentity(n, DefaultInitialCovariance),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.err != nil {
		return nil, k.err
	}
	if math.IsNaN(k.r) || k.r < MinObservationNoise {
		k.r = MinObservationNoise
	}

	k.Reset()
	return k, nil
}

// Reset restores the initial state and covariance.
func (k *Filter) Reset() {
	k.w = mat.VecDenseCopyOf(k.w0)
	k.p = mat.DenseCopyOf(k.p0)
}

// ObservationNoise returns R after flooring.
func (k *Filter) ObservationNoise() float64 { return k.r }

// Coef returns component i of the current state.
func (k *Filter) Coef(i int) float64 { return k.w.AtVec(i) }

// State returns copies of the current state vector and covariance.
func (k *Filter) State() ([]float64, *mat.Dense) {
	w := make([]float64, k.n)
	for i := range w {
		w[i] = k.w.AtVec(i)
	}
	return w, mat.DenseCopyOf(k.p)
}

// Predict computes w_pred = F·w and P_pred = F·P·Fᵗ + Q without mutating
// the filter.
func (k *Filter) Predict() (*mat.VecDense, *mat.Dense) {
	wPred := mat.NewVecDense(k.n, nil)
	wPred.MulVec(k.f, k.w)

	pPred := mat.NewDense(k.n, k.n, nil)
	pPred.Product(k.f, k.p, k.f.T())
	pPred.Add(pPred, k.q)

	return wPred, pPred
}

// Update folds the observation y with regressor row x into the predicted
// state and stores the result as the filter's new state. An all-zero x has
// zero gain, so the result equals the prediction.
func (k *Filter) Update(x []float64, y float64, wPred *mat.VecDense, pPred *mat.Dense) (*mat.VecDense, *mat.Dense, error) {
	if len(x) != k.n {
		return nil, nil, fmt.Errorf("%w: regressor has length %d, want %d", ErrDimension, len(x), k.n)
	}
	if wPred == nil || wPred.Len() != k.n || pPred == nil || !square(pPred, k.n) {
		return nil, nil, fmt.Errorf("%w: prediction does not match state dimension %d", ErrDimension, k.n)
	}

	h := mat.NewVecDense(k.n, append([]float64(nil), x...))

	s := mat.Inner(h, pPred, h) + k.r
	if !(s > 0) || math.IsInf(s, 0) {
		return nil, nil, fmt.Errorf("%w: S=%v", ErrSingularInnovation, s)
	}

	gain := mat.NewVecDense(k.n, nil)
	gain.MulVec(pPred, h)
	gain.ScaleVec(1/s, gain)

	innovation := y - mat.Dot(h, wPred)

	wNew := mat.NewVecDense(k.n, nil)
	wNew.AddScaledVec(wPred, innovation, gain)

	kh := mat.NewDense(k.n, k.n, nil)
	kh.Outer(1, gain, h)
	ikh := mat.NewDense(k.n, k.n, nil)
	ikh.Sub(scaledIdentity(k.n, 1), kh)

	pNew := mat.NewDense(k.n, k.n, nil)
	pNew.Mul(ikh, pPred)
	symmetrize(pNew)

	k.w = wNew
	k.p = pNew

	return mat.VecDenseCopyOf(wNew), mat.DenseCopyOf(pNew), nil
}

// Step runs Predict followed by Update.
func (k *Filter) Step(x []float64, y float64) error {
	wPred, pPred := k.Predict()
	_, _, err := k.Update(x, y, wPred, pPred)
	return err
}

func scaledIdentity(n int, v float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, v)
	}
	return m
}

func square(m mat.Matrix, n int) bool {
	r, c := m.Dims()
	return r == n && c == n
}

// symmetrize averages the off-diagonal pairs and clamps negative variances
// introduced by rounding.
func symmetrize(p *mat.Dense) {
	n, _ := p.Dims()
	for i := 0; i < n; i++ {
		if p.At(i, i) < 0 {
			p.Set(i, i, 0)
		}
		for j := i + 1; j < n; j++ {
			v := 0.5 * (p.At(i, j) + p.At(j, i))
			p.Set(i, j, v)
			p.Set(j, i, v)
		}
	}
}
