package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.RollingWindow = 0 }},
		{"negative window", func(c *Config) { c.RollingWindow = -5 }},
		{"exit equals entry", func(c *Config) { c.ExitZ = c.EntryZ }},
		{"exit above entry", func(c *Config) { c.ExitZ = 2 }},
		{"negative exit", func(c *Config) { c.ExitZ = -0.1 }},
		{"stop equals exit", func(c *Config) { c.StopZ = c.ExitZ }},
		{"negative commission", func(c *Config) { c.CommissionRate = -0.001 }},
		{"negative borrow", func(c *Config) { c.AnnualBorrowRate = -0.01 }},
		{"nan borrow", func(c *Config) { c.AnnualBorrowRate = math.NaN() }},
		{"zero invest", func(c *Config) { c.InvestFraction = 0 }},
		{"invest above one", func(c *Config) { c.InvestFraction = 1.2 }},
		{"zero cash", func(c *Config) { c.InitialCash = 0 }},
		{"infinite cash", func(c *Config) { c.InitialCash = math.Inf(1) }},
		{"zero trading days", func(c *Config) { c.TradingDays = 0 }},
		{"alpha zero in stricter mode", func(c *Config) { c.UseStationarity = true; c.ADFAlpha = 0 }},
		{"alpha one in stricter mode", func(c *Config) { c.UseStationarity = true; c.ADFAlpha = 1 }},
		{"negative epsilon", func(c *Config) { c.Epsilon = -1 }},
		{"negative hedge noise", func(c *Config) { c.Hedge.ObservationNoise = -1 }},
		{"negative smooth covariance", func(c *Config) { c.Smooth.InitialCovariance = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigValidateAcceptsEdges(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.InvestFraction = 1
	cfg.CommissionRate = 0
	cfg.AnnualBorrowRate = 0
	cfg.ExitZ = 0
	cfg.ADFAlpha = 0 // ignored unless stricter mode is on
	assert.NoError(t, cfg.Validate())
}
