// Package oracle provides stationarity tests that live outside the process:
// an HTTP client for a remote ADF service and a redis cache that can wrap
// any gate.StationarityTest.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ClientConfig configures a remote ADF client.
type ClientConfig struct {
	BaseURL       string        // e.g. http://stats:8080
	Timeout       time.Duration // per request; 0 means 10s
	RatePerSecond float64       // 0 means unlimited
	Burst         int
	Lags          int // fixed lag order, or negative for AIC selection
}

// Client calls POST {BaseURL}/adf. It is safe for concurrent use.
type Client struct {
	url  string
	lags int
	http *http.Client
	cb   *gobreaker.CircuitBreaker
	lim  *rate.Limiter
	log  zerolog.Logger
}

type adfRequest struct {
	Series     []float64 `json:"series"`
	Regression string    `json:"regression"`
	MaxLag     *int      `json:"maxlag,omitempty"`
	AutoLag    string    `json:"autolag,omitempty"`
}

type adfResponse struct {
	PValue    *float64 `json:"p_value"`
	Statistic float64  `json:"statistic"`
}

// NewClient returns a client guarded by a circuit breaker and rate limiter.
func NewClient(cfg ClientConfig, log zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("oracle: base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		url:  strings.TrimRight(cfg.BaseURL, "/") + "/adf",
		lags: cfg.Lags,
		http: &http.Client{Timeout: cfg.Timeout},
		lim:  rate.NewLimiter(limit, burst),
		log:  log,
	}

	st := gobreaker.Settings{
		Name:     "adf-oracle",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	c.cb = gobreaker.NewCircuitBreaker(st)

	return c, nil
}

// PValue implements gate.StationarityTest.
func (c *Client) PValue(ctx context.Context, series []float64) (float64, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return math.NaN(), fmt.Errorf("oracle: rate limit: %w", err)
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, series)
	})
	if err != nil {
		return math.NaN(), err
	}
	return out.(float64), nil
}

func (c *Client) do(ctx context.Context, series []float64) (float64, error) {
	req := adfRequest{Series: series, Regression: "c"}
	if c.lags < 0 {
		req.AutoLag = "AIC"
	} else {
		lags := c.lags
		req.MaxLag = &lags
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("oracle: encode request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("oracle: build request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return 0, fmt.Errorf("oracle: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("oracle: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out adfResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("oracle: decode response: %w", err)
	}
	if out.PValue == nil {
		return 0, errors.New("oracle: response has no p_value")
	}

	c.log.Debug().Float64("p_value", *out.PValue).Float64("statistic", out.Statistic).Int("n", len(series)).Msg("adf oracle")
	return *out.PValue, nil
}
