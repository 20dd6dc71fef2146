package adf

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacKinnonCriticalValues(t *testing.T) {
	t.Parallel()

	// large-sample critical values for the constant-only case
	assert.InDelta(t, 0.01, MacKinnonP(-3.43), 0.002)
	assert.InDelta(t, 0.05, MacKinnonP(-2.86), 0.003)
	assert.InDelta(t, 0.10, MacKinnonP(-2.57), 0.005)

	assert.Equal(t, 1.0, MacKinnonP(3))
	assert.Equal(t, 0.0, MacKinnonP(-20))
}

func TestPolyval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0+2*3+3*9, polyval([]float64{1, 2, 3}, 3))
}

func TestRejectsDegenerateInput(t *testing.T) {
	t.Parallel()

	_, err := Test{}.Run([]float64{1, 1, 1, 1, 1, 1})
	require.ErrorIs(t, err, ErrConstant)

	_, err = Test{}.Run([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrTooShort)

	_, err = Test{Lags: 10}.Run([]float64{1, 3, 2, 5, 4, 6, 5, 8})
	require.ErrorIs(t, err, ErrTooShort)

	p, err := Test{}.PValue(context.Background(), []float64{4, 4, 4, 4, 4})
	require.Error(t, err)
	assert.True(t, math.IsNaN(p))
}

func TestWhiteNoiseIsStationary(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	series := make([]float64, 250)
	for i := range series {
		series[i] = rng.NormFloat64()
	}

	for _, tc := range []Test{{}, {Lags: 2}, {Lags: AutoLag}} {
		r, err := tc.Run(series)
		require.NoError(t, err)
		assert.Less(t, r.PValue, 0.01, "lags=%d stat=%v", tc.Lags, r.Statistic)
		assert.Less(t, r.Statistic, -3.43)
	}
}

func TestExplosiveSeriesIsNotStationary(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	series := make([]float64, 120)
	series[0] = 1
	for i := 1; i < len(series); i++ {
		series[i] = 1.03*series[i-1] + 0.01*rng.NormFloat64()
	}

	r, err := Test{}.Run(series)
	require.NoError(t, err)
	assert.Greater(t, r.Statistic, 0.0)
	assert.Greater(t, r.PValue, 0.9)
}

func TestAutoLagBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(5))
	series := make([]float64, 20)
	for i := range series {
		series[i] = rng.NormFloat64()
	}

	r, err := Test{Lags: AutoLag}.Run(series)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.UsedLag, 0)
	assert.LessOrEqual(t, r.UsedLag, len(series)/2-2)
	assert.Equal(t, len(series)-1-r.UsedLag, r.NObs)
	assert.GreaterOrEqual(t, r.PValue, 0.0)
	assert.LessOrEqual(t, r.PValue, 1.0)
}

// Reference values come from an exact rational OLS fit of the same
// constant-only regression adfuller(maxlag=k, autolag=None) runs.
func TestFixedLagStatistic(t *testing.T) {
	t.Parallel()

	series := []float64{
		9.35, 11.41, 9.99, 10.43, 10.09, 8.08, 9.56, 9.33, 8.48, 9.51,
		9.34, 9.89, 11.3, 11.82, 12.01, 8.95, 10.89, 10.91, 9.69, 10.7,
		11.82, 10.0, 7.97, 8.64, 9.6, 9.34, 10.26, 8.66, 7.98, 9.07,
		9.97, 7.88, 7.81, 11.05, 10.16, 10.9, 10.25, 10.3, 9.83, 8.11,
	}

	tests := []struct {
		lags int
		nobs int
		stat float64
		pval float64
	}{
		{0, 39, -4.193935491752809, 0.0006746492926688608},
		{1, 38, -3.702546355713543, 0.00407747959630822},
		{2, 37, -2.514220043177789, 0.11205266002486203},
	}
	for _, tc := range tests {
		r, err := Test{Lags: tc.lags}.Run(series)
		require.NoError(t, err)
		assert.Equal(t, tc.lags, r.UsedLag)
		assert.Equal(t, tc.nobs, r.NObs)
		assert.InDelta(t, tc.stat, r.Statistic, 1e-9, "lags=%d", tc.lags)
		assert.InDelta(t, tc.pval, r.PValue, 1e-9, "lags=%d", tc.lags)
	}
}
