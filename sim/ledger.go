package sim

import (
	"time"

	"github.com/rustyeddy/pairs/pkg/id"
)

// Costs are the frictions applied by a Ledger.
type Costs struct {
	CommissionRate   float64 // fraction of notional per fill
	AnnualBorrowRate float64 // charged on short notional
	TradingDays      int     // borrow days per year
}

// State of the pair book.
type State int

const (
	Flat State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "OPEN"
	}
	return "FLAT"
}

// Ledger tracks cash and at most one open pair. It is not safe for
// concurrent use; each backtest run owns one.
type Ledger struct {
	costs Costs

	cash       float64
	open       [2]*Position
	closed     []Position
	borrow     float64
	commission float64
}

// NewLedger starts a book with cash and no positions.
func NewLedger(cash float64, costs Costs) *Ledger {
	return &Ledger{costs: costs, cash: cash}
}

func (l *Ledger) Cash() float64                { return l.cash }
func (l *Ledger) TotalBorrowCost() float64     { return l.borrow }
func (l *Ledger) TotalCommissionCost() float64 { return l.commission }

// State reports whether a pair is on.
func (l *Ledger) State() State {
	if l.open[Y] != nil || l.open[X] != nil {
		return Open
	}
	return Flat
}

// IsOpen is shorthand for State() == Open.
func (l *Ledger) IsOpen() bool { return l.State() == Open }

// Leg returns a copy of the open leg on t.
func (l *Ledger) Leg(t Ticker) (Position, bool) {
	if p := l.open[t]; p != nil {
		return *p, true
	}
	return Position{}, false
}

// Closed returns closed legs in close order.
func (l *Ledger) Closed() []Position {
	out := make([]Position, len(l.closed))
	copy(out, l.closed)
	return out
}

// OpenPair goes long n shares of long and short n shares of the other leg.
// Cash pays the long notional plus both entry commissions; the short
// proceeds are not credited. It returns false and leaves the book untouched
// when a pair is already on, n is not positive, or cash cannot cover the
// debit.
func (l *Ledger) OpenPair(long Ticker, n float64, q Quote, at time.Time) bool {
	if l.IsOpen() || n <= 0 {
		return false
	}
	short := long.Other()

	comLong := Commission(n, q.Price(long), l.costs.CommissionRate)
	comShort := Commission(n, q.Price(short), l.costs.CommissionRate)
	debit := n*q.Price(long) + comLong + comShort
	if l.cash < debit {
		return false
	}

	l.cash -= debit
	l.commission += comLong + comShort

	l.open[long] = &Position{
		ID: id.NewAt(at), Ticker: long, Side: Long, Shares: n,
		EntryPrice: q.Price(long), EntryTime: at, EntryCommission: comLong, Open: true,
	}
	l.open[short] = &Position{
		ID: id.NewAt(at), Ticker: short, Side: Short, Shares: n,
		EntryPrice: q.Price(short), EntryTime: at, EntryCommission: comShort, Open: true,
	}
	return true
}

// ClosePair closes both legs at q, long leg first, and returns them.
// It is a no-op on a flat book.
func (l *Ledger) ClosePair(q Quote, at time.Time, reason Reason) []Position {
	if !l.IsOpen() {
		return nil
	}

	order := []Ticker{Y, X}
	if p := l.open[X]; p != nil && p.Side == Long {
		order = []Ticker{X, Y}
	}

	var out []Position
	for _, t := range order {
		p := l.open[t]
		if p == nil {
			continue
		}
		l.open[t] = nil

		exit := q.Price(t)
		com := Commission(p.Shares, exit, l.costs.CommissionRate)
		profit := RealizedPL(p.Side, p.Shares, p.EntryPrice, exit, com)

		if p.Side == Long {
			l.cash += exit*p.Shares - com
		} else {
			l.cash += profit
		}
		l.commission += com

		p.ExitPrice = exit
		p.ExitTime = at
		p.ExitCommission = com
		p.RealizedProfit = profit
		p.Reason = reason
		p.Open = false

		l.closed = append(l.closed, *p)
		out = append(out, *p)
	}
	return out
}

// AccrueBorrow charges one day of borrow on every short leg at q and
// returns the amount charged. Borrow is tracked apart from realized profit.
func (l *Ledger) AccrueBorrow(q Quote) float64 {
	var fee float64
	for t, p := range l.open {
		if p == nil || p.Side != Short {
			continue
		}
		fee += DailyBorrow(p.Shares, q.Price(Ticker(t)), l.costs.AnnualBorrowRate, l.costs.TradingDays)
	}
	l.cash -= fee
	l.borrow += fee
	return fee
}

// MarkToMarket is cash plus the value of the open legs at q.
func (l *Ledger) MarkToMarket(q Quote) float64 {
	v := l.cash
	for t, p := range l.open {
		if p != nil {
			v += p.Value(q.Price(Ticker(t)))
		}
	}
	return v
}
