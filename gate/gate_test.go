package gate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	p     float64
	err   error
	calls int
	last  []float64
}

func (f *fakeOracle) PValue(_ context.Context, series []float64) (float64, error) {
	f.calls++
	f.last = append([]float64(nil), series...)
	return f.p, f.err
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Window: 0}, nil, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{Window: 5, UseStationarity: true}, nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrNoOracle)
}

func TestEvaluateInsufficientData(t *testing.T) {
	t.Parallel()

	g, err := New(Config{Window: 4}, nil, zerolog.Nop())
	require.NoError(t, err)

	d := g.Evaluate(context.Background(), []float64{1, 2, 3})
	assert.False(t, d.Ready)
	assert.False(t, d.EntriesAllowed)
}

func TestEvaluateZScore(t *testing.T) {
	t.Parallel()

	g, err := New(Config{Window: 4}, nil, zerolog.Nop())
	require.NoError(t, err)

	// only the last 4 values count
	d := g.Evaluate(context.Background(), []float64{100, 1, 2, 3, 6})
	require.True(t, d.Ready)

	mean := 3.0
	std := math.Sqrt((4 + 1 + 0 + 9) / 4.0)
	assert.InDelta(t, mean, d.Mean, 1e-12)
	assert.InDelta(t, std, d.Std, 1e-12)
	assert.InDelta(t, (6-mean)/std, d.Z, 1e-12)
	assert.True(t, d.EntriesAllowed)
	assert.True(t, math.IsNaN(d.PValue))
}

func TestEvaluateConstantWindowIsFloored(t *testing.T) {
	t.Parallel()

	g, err := New(Config{Window: 3}, nil, zerolog.Nop())
	require.NoError(t, err)

	d := g.Evaluate(context.Background(), []float64{2, 2, 2})
	assert.Equal(t, DefaultEpsilon, d.Std)
	assert.Equal(t, 0.0, d.Z)
	assert.False(t, math.IsNaN(d.Z))
}

func TestEvaluateStationarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		p       float64
		err     error
		allowed bool
		avail   bool
	}{
		{"stationary", 0.01, nil, true, true},
		{"at alpha", 0.05, nil, true, true},
		{"unit root", 0.40, nil, false, true},
		{"oracle error", 0, errors.New("boom"), false, false},
		{"nan p-value", math.NaN(), nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOracle{p: tt.p, err: tt.err}
			g, err := New(Config{Window: 3, UseStationarity: true, ADFAlpha: 0.05}, o, zerolog.Nop())
			require.NoError(t, err)

			d := g.Evaluate(context.Background(), []float64{9, 1, 2, 4})
			assert.True(t, d.Ready)
			assert.Equal(t, tt.allowed, d.EntriesAllowed)
			assert.Equal(t, tt.avail, d.Available)
			assert.Equal(t, 1, o.calls)
			assert.Equal(t, []float64{1, 2, 4}, o.last)
			// z is computed regardless of the test outcome
			assert.NotZero(t, d.Z)
		})
	}
}
