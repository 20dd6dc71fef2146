// Package backtest drives the spread estimator, gate and ledger over a
// materialized price series, one bar at a time.
package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/pairs/gate"
	"github.com/rustyeddy/pairs/journal"
	"github.com/rustyeddy/pairs/pkg/id"
	"github.com/rustyeddy/pairs/sim"
	"github.com/rustyeddy/pairs/spread"
)

// Engine holds a validated config and its collaborators. Every Run starts
// from fresh filter and ledger state, so an Engine can be reused and
// separate Engines can run concurrently.
type Engine struct {
	cfg       Config
	log       zerolog.Logger
	oracle    gate.StationarityTest
	journal   journal.Journal
	runID     string
	observers []Observer
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithOracle sets the stationarity test used when UseStationarity is on.
func WithOracle(o gate.StationarityTest) Option {
	return func(e *Engine) { e.oracle = o }
}

// WithJournal writes every closed leg and equity point to j under runID.
// An empty runID gets a fresh ULID.
func WithJournal(j journal.Journal, runID string) Option {
	return func(e *Engine) {
		e.journal = j
		e.runID = runID
	}
}

// WithRunID tags results and journal rows.
func WithRunID(runID string) Option {
	return func(e *Engine) { e.runID = runID }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// NewEngine validates cfg and applies opts.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.UseStationarity && e.oracle == nil {
		return nil, fmt.Errorf("%w: use_stationarity requires an oracle", ErrInvalidConfig)
	}
	if e.runID == "" {
		e.runID = id.New()
	}
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) RunID() string  { return e.runID }

// Run processes bars in order. Each bar: update the spread estimator; while
// the window fills, only mark to market; otherwise evaluate the gate,
// accrue borrow, apply at most one of STOP, EXIT, ENTRY, then mark to
// market. ctx only reaches the stationarity test; a cancelled context
// blocks entries but does not stop the run.
func (e *Engine) Run(ctx context.Context, bars []Bar) (Result, error) {
	if err := ValidateBars(bars); err != nil {
		return Result{}, err
	}

	est, err := spread.New(e.cfg.RollingWindow, e.cfg.Hedge, e.cfg.Smooth)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	g, err := gate.New(gate.Config{
		Window:          e.cfg.RollingWindow,
		UseStationarity: e.cfg.UseStationarity,
		ADFAlpha:        e.cfg.ADFAlpha,
		Epsilon:         e.cfg.Epsilon,
	}, e.oracle, e.log)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	ledger := sim.NewLedger(e.cfg.InitialCash, sim.Costs{
		CommissionRate:   e.cfg.CommissionRate,
		AnnualBorrowRate: e.cfg.AnnualBorrowRate,
		TradingDays:      e.cfg.TradingDays,
	})

	res := Result{
		RunID:   e.runID,
		Equity:  make([]EquityPoint, 0, len(bars)),
		Signals: make([]Signal, 0, len(bars)),
	}

	for i, b := range bars {
		q := sim.Quote{sim.Y: b.Y, sim.X: b.X}

		s, err := est.Update(b.Y, b.X)
		if err != nil {
			return res, fmt.Errorf("backtest: bar %d: %w", i, err)
		}
		sig := Signal{
			Time:       b.Time,
			Intercept:  s.Intercept,
			Beta:       s.Beta,
			Spread:     s.Spread,
			Smoothed:   s.Smoothed,
			Z:          math.NaN(),
			PValue:     math.NaN(),
			Transition: Warmup,
		}

		var (
			closed  []sim.Position
			skipped bool
		)
		if est.Ready() {
			d := g.Evaluate(ctx, est.History())
			sig.Ready = true
			sig.Z = d.Z
			sig.PValue = d.PValue
			sig.Available = d.Available
			sig.CointegrationOK = d.EntriesAllowed
			if !d.Available {
				res.GateUnavailable++
			}

			ledger.AccrueBorrow(q)
			sig.Transition, closed, skipped = e.transition(ledger, d, b, q, s.Beta, i == len(bars)-1)
			res.count(sig.Transition, skipped)
		}

		equity := ledger.MarkToMarket(q)
		res.Equity = append(res.Equity, EquityPoint{Time: b.Time, Value: equity})
		res.Signals = append(res.Signals, sig)

		if err := e.record(b, ledger, equity, closed); err != nil {
			return res, err
		}
		e.notify(StepSnapshot{
			RunID:   e.runID,
			Index:   i,
			Bar:     b,
			Signal:  sig,
			Cash:    ledger.Cash(),
			Equity:  equity,
			Open:    openLegs(ledger),
			Closed:  closed,
			Skipped: skipped,
		})
	}

	res.FinalCash = ledger.Cash()
	if n := len(res.Equity); n > 0 {
		res.FinalEquity = res.Equity[n-1].Value
	} else {
		res.FinalEquity = ledger.Cash()
	}
	res.Closed = ledger.Closed()
	res.ClosedTrades = len(res.Closed)
	res.WinRate = WinRate(res.Closed)
	res.TotalBorrowCost = ledger.TotalBorrowCost()
	res.TotalCommissionCost = ledger.TotalCommissionCost()

	e.log.Info().
		Str("run_id", e.runID).
		Int("bars", len(bars)).
		Int("entries", res.Entries).
		Int("exits", res.Exits).
		Int("stops", res.Stops).
		Int("gate_unavailable", res.GateUnavailable).
		Float64("final_cash", res.FinalCash).
		Float64("final_equity", res.FinalEquity).
		Msg("backtest complete")

	return res, nil
}

// transition applies at most one state change for a trading step.
func (e *Engine) transition(l *sim.Ledger, d gate.Decision, b Bar, q sim.Quote, beta float64, last bool) (Transition, []sim.Position, bool) {
	absZ := math.Abs(d.Z)

	if last && e.cfg.CloseAtEnd {
		if !l.IsOpen() {
			return Hold, nil, false
		}
		closed := l.ClosePair(q, b.Time, sim.ReasonEnd)
		e.log.Debug().Time("time", b.Time).Msg("closing pair at end of data")
		return End, closed, false
	}

	switch {
	case l.IsOpen() && absZ > e.cfg.StopZ:
		e.log.Debug().Time("time", b.Time).Float64("z", d.Z).Msg("stop")
		return Stop, l.ClosePair(q, b.Time, sim.ReasonStop), false

	case l.IsOpen() && absZ < e.cfg.ExitZ:
		e.log.Debug().Time("time", b.Time).Float64("z", d.Z).Msg("exit")
		return Exit, l.ClosePair(q, b.Time, sim.ReasonExit), false

	case !l.IsOpen() && d.EntriesAllowed && absZ > e.cfg.EntryZ:
		// spread rich: short Y, long X
		long := sim.Y
		if d.Z > 0 {
			long = sim.X
		}
		n := sim.PairShares(l.Cash()*e.cfg.InvestFraction, b.Y, b.X, beta)
		if !l.OpenPair(long, n, q, b.Time) {
			e.log.Debug().Time("time", b.Time).Float64("shares", n).Float64("cash", l.Cash()).Msg("entry skipped")
			return Hold, nil, true
		}
		e.log.Debug().Time("time", b.Time).Float64("z", d.Z).Str("long", long.String()).Float64("shares", n).Msg("entry")
		return Entry, nil, false
	}
	return Hold, nil, false
}

func (r *Result) count(t Transition, skipped bool) {
	switch t {
	case Entry:
		r.Entries++
	case Exit, End:
		r.Exits++
	case Stop:
		r.Stops++
	case Hold:
		r.Holds++
		if skipped {
			r.SkippedEntries++
		}
	}
}

func (e *Engine) record(b Bar, l *sim.Ledger, equity float64, closed []sim.Position) error {
	if e.journal == nil {
		return nil
	}
	for _, p := range closed {
		if err := e.journal.RecordTrade(TradeRecord(e.runID, p)); err != nil {
			return fmt.Errorf("backtest: journal trade: %w", err)
		}
	}
	legs := 0
	if l.IsOpen() {
		legs = 2
	}
	err := e.journal.RecordEquity(journal.EquitySnapshot{
		RunID:    e.runID,
		Time:     b.Time,
		Cash:     l.Cash(),
		Equity:   equity,
		OpenLegs: legs,
	})
	if err != nil {
		return fmt.Errorf("backtest: journal equity: %w", err)
	}
	return nil
}

func (e *Engine) notify(s StepSnapshot) {
	for _, o := range e.observers {
		o.OnStep(s)
	}
}

func openLegs(l *sim.Ledger) []sim.Position {
	var out []sim.Position
	for _, t := range []sim.Ticker{sim.Y, sim.X} {
		if p, ok := l.Leg(t); ok {
			out = append(out, p)
		}
	}
	return out
}

// TradeRecord converts a closed leg to its journal row.
func TradeRecord(runID string, p sim.Position) journal.TradeRecord {
	return journal.TradeRecord{
		RunID:           runID,
		TradeID:         p.ID,
		Ticker:          p.Ticker.String(),
		Side:            p.Side.String(),
		Shares:          p.Shares,
		EntryPrice:      p.EntryPrice,
		ExitPrice:       p.ExitPrice,
		OpenTime:        p.EntryTime,
		CloseTime:       p.ExitTime,
		EntryCommission: p.EntryCommission,
		ExitCommission:  p.ExitCommission,
		RealizedPL:      p.RealizedProfit,
		Reason:          string(p.Reason),
	}
}
