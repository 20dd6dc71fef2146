// Package journal persists backtest output: one row per closed leg, one
// equity point per bar, and one summary row per run.
package journal

import (
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("journal: not found")

// TradeRecord is one closed leg of a pair.
type TradeRecord struct {
	RunID           string    `db:"run_id"`
	TradeID         string    `db:"trade_id"`
	Ticker          string    `db:"ticker"`
	Side            string    `db:"side"`
	Shares          float64   `db:"shares"`
	EntryPrice      float64   `db:"entry_price"`
	ExitPrice       float64   `db:"exit_price"`
	OpenTime        time.Time `db:"open_time"`
	CloseTime       time.Time `db:"close_time"`
	EntryCommission float64   `db:"entry_commission"`
	ExitCommission  float64   `db:"exit_commission"`
	RealizedPL      float64   `db:"realized_pl"`
	Reason          string    `db:"reason"`
}

// EquitySnapshot is the marked-to-market account after one bar.
type EquitySnapshot struct {
	RunID    string    `db:"run_id"`
	Time     time.Time `db:"time"`
	Cash     float64   `db:"cash"`
	Equity   float64   `db:"equity"`
	OpenLegs int       `db:"open_legs"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
