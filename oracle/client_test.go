package oracle

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{}, zerolog.Nop())
	require.Error(t, err)
}

func TestClientPValue(t *testing.T) {
	t.Parallel()

	var got adfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/adf", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"p_value": 0.031, "statistic": -3.2}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL + "/", Lags: 1}, zerolog.Nop())
	require.NoError(t, err)

	p, err := c.PValue(context.Background(), []float64{1, 2, 1.5})
	require.NoError(t, err)
	assert.Equal(t, 0.031, p)

	assert.Equal(t, []float64{1, 2, 1.5}, got.Series)
	assert.Equal(t, "c", got.Regression)
	require.NotNil(t, got.MaxLag)
	assert.Equal(t, 1, *got.MaxLag)
	assert.Empty(t, got.AutoLag)
}

func TestClientAutoLag(t *testing.T) {
	t.Parallel()

	var got adfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"p_value": 0.5}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Lags: -1}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.PValue(context.Background(), []float64{1, 2})
	require.NoError(t, err)
	assert.Nil(t, got.MaxLag)
	assert.Equal(t, "AIC", got.AutoLag)
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"missing p_value", http.StatusOK, `{"statistic": 1}`},
		{"bad json", http.StatusOK, `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(ClientConfig{BaseURL: srv.URL}, zerolog.Nop())
			require.NoError(t, err)

			p, err := c.PValue(context.Background(), []float64{1, 2, 3})
			require.Error(t, err)
			assert.True(t, math.IsNaN(p))
		})
	}
}

func TestClientBreakerOpens(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL}, zerolog.Nop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.PValue(context.Background(), []float64{1, 2, 3})
		require.Error(t, err)
	}

	_, err = c.PValue(context.Background(), []float64{1, 2, 3})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientCancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"p_value": 0.01}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, RatePerSecond: 1, Burst: 1}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.PValue(ctx, []float64{1, 2, 3})
	require.Error(t, err)
}
