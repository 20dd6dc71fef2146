package backtest

import (
	"time"

	"github.com/rustyeddy/pairs/sim"
)

// Transition is what the state machine did on a step.
type Transition string

const (
	Warmup Transition = "WARMUP" // window not yet full, no trading logic ran
	Hold   Transition = "HOLD"
	Entry  Transition = "ENTRY"
	Exit   Transition = "EXIT"
	Stop   Transition = "STOP"
	End    Transition = "END" // forced close on the last bar
)

// Signal is the per-step output of the estimator and gate.
type Signal struct {
	Time            time.Time
	Intercept       float64
	Beta            float64
	Spread          float64
	Smoothed        float64
	Z               float64 // NaN during warm-up
	PValue          float64 // NaN when no stationarity test ran
	Ready           bool
	Available       bool // false when the stationarity test failed
	CointegrationOK bool // entries allowed
	Transition      Transition
}

// EquityPoint is the marked-to-market value after one bar.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// Result summarizes a run. Equity and Signals hold one entry per bar.
type Result struct {
	RunID string

	Equity      []EquityPoint
	Signals     []Signal
	FinalCash   float64
	FinalEquity float64
	WinRate     float64

	Entries         int
	Exits           int // includes END closes
	Stops           int
	Holds           int
	SkippedEntries  int // subset of Holds
	GateUnavailable int

	ClosedTrades int // closed legs
	Closed       []sim.Position

	TotalBorrowCost     float64
	TotalCommissionCost float64
}

// EquityValues returns the equity curve without timestamps.
func (r Result) EquityValues() []float64 {
	out := make([]float64, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Value
	}
	return out
}

// Span returns the first and last bar times, or zero times for an empty run.
func (r Result) Span() (start, end time.Time) {
	if len(r.Equity) == 0 {
		return
	}
	return r.Equity[0].Time, r.Equity[len(r.Equity)-1].Time
}

// WinRate is the share of closed legs with positive realized profit, or 0
// when nothing closed.
func WinRate(closed []sim.Position) float64 {
	if len(closed) == 0 {
		return 0
	}
	var wins int
	for _, p := range closed {
		if p.RealizedProfit > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closed))
}
