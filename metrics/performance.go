// Package metrics scores an equity curve and its closed trades, and exports
// run progress as prometheus metrics.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/pairs/sim"
)

// PeriodsPerYear annualizes daily statistics.
const PeriodsPerYear = 252

// Performance summarizes an equity curve.
type Performance struct {
	Sharpe       float64
	Sortino      float64
	MaxDrawdown  float64 // fraction of the running peak, positive
	Calmar       float64
	DailyWinRate float64 // share of periods with a positive return
}

// Evaluate computes every Performance field for equity.
func Evaluate(equity []float64) Performance {
	return Performance{
		Sharpe:       Sharpe(equity),
		Sortino:      Sortino(equity),
		MaxDrawdown:  MaxDrawdown(equity),
		Calmar:       Calmar(equity),
		DailyWinRate: DailyWinRate(equity),
	}
}

// Returns are simple period returns. Periods starting from a non-positive
// value are dropped.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		out = append(out, equity[i]/equity[i-1]-1)
	}
	return out
}

// Sharpe is mean/stddev of returns scaled by sqrt(PeriodsPerYear), with a
// zero risk-free rate. Zero when undefined.
func Sharpe(equity []float64) float64 {
	r := Returns(equity)
	if len(r) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(r, nil)
	if !(std > 0) {
		return 0
	}
	return mean / std * math.Sqrt(PeriodsPerYear)
}

// Sortino is Sharpe with the stddev of negative returns only.
func Sortino(equity []float64) float64 {
	r := Returns(equity)
	if len(r) < 2 {
		return 0
	}
	var down []float64
	for _, v := range r {
		if v < 0 {
			down = append(down, v)
		}
	}
	if len(down) < 2 {
		return 0
	}
	dstd := stat.StdDev(down, nil)
	if !(dstd > 0) {
		return 0
	}
	return stat.Mean(r, nil) / dstd * math.Sqrt(PeriodsPerYear)
}

// MaxDrawdown is the largest peak-to-trough fall as a fraction of the peak.
func MaxDrawdown(equity []float64) float64 {
	var peak, mdd float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > mdd {
				mdd = dd
			}
		}
	}
	return mdd
}

// Calmar is the compounded mean period return over a year divided by
// MaxDrawdown. Zero without a drawdown.
func Calmar(equity []float64) float64 {
	r := Returns(equity)
	mdd := MaxDrawdown(equity)
	if len(r) == 0 || mdd <= 0 {
		return 0
	}
	annual := math.Pow(1+stat.Mean(r, nil), PeriodsPerYear) - 1
	return annual / mdd
}

// DailyWinRate is the share of positive period returns.
func DailyWinRate(equity []float64) float64 {
	r := Returns(equity)
	if len(r) == 0 {
		return 0
	}
	var wins int
	for _, v := range r {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(r))
}

// TradeStats summarizes closed legs.
type TradeStats struct {
	Count        int
	Wins         int
	Losses       int
	AvgWin       float64
	AvgLoss      float64 // negative
	Profit       float64
	ProfitFactor float64 // gross profit / gross loss; 0 when nothing lost
}

// Trades computes TradeStats from realized profits.
func Trades(closed []sim.Position) TradeStats {
	ts := TradeStats{Count: len(closed)}
	var wins, losses []float64
	for _, p := range closed {
		switch {
		case p.RealizedProfit > 0:
			wins = append(wins, p.RealizedProfit)
		case p.RealizedProfit < 0:
			losses = append(losses, p.RealizedProfit)
		}
	}
	ts.Wins, ts.Losses = len(wins), len(losses)

	gross := floats.Sum(wins)
	loss := floats.Sum(losses)
	ts.Profit = gross + loss
	if len(wins) > 0 {
		ts.AvgWin = gross / float64(len(wins))
	}
	if len(losses) > 0 {
		ts.AvgLoss = loss / float64(len(losses))
		ts.ProfitFactor = gross / -loss
	}
	return ts
}
