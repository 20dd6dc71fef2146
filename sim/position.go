// Package sim keeps the books for a two-leg pairs position: cash, the open
// legs, closed history and the running commission and borrow totals.
package sim

import (
	"fmt"
	"time"
)

// Ticker indexes the two instruments of a pair.
type Ticker uint8

const (
	Y Ticker = iota // dependent leg
	X               // hedge leg
)

func (t Ticker) String() string {
	switch t {
	case Y:
		return "Y"
	case X:
		return "X"
	}
	return fmt.Sprintf("Ticker(%d)", uint8(t))
}

// Other returns the opposite leg.
func (t Ticker) Other() Ticker { return 1 - t }

// Side is +1 for long, -1 for short.
type Side int

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	if s == Long {
		return "LONG"
	}
	return "SHORT"
}

// Reason records why a position was closed.
type Reason string

const (
	ReasonExit Reason = "EXIT"
	ReasonStop Reason = "STOP"
	ReasonEnd  Reason = "END"
)

// Quote holds one bar's prices indexed by Ticker.
type Quote [2]float64

// Price returns the price of t.
func (q Quote) Price(t Ticker) float64 { return q[t] }

// Position is one leg. Exit fields are zero while the leg is open.
type Position struct {
	ID              string
	Ticker          Ticker
	Side            Side
	Shares          float64
	EntryPrice      float64
	EntryTime       time.Time
	EntryCommission float64

	ExitPrice      float64
	ExitTime       time.Time
	ExitCommission float64
	RealizedProfit float64 // net of exit commission, excludes borrow
	Reason         Reason
	Open           bool
}

// Value is the leg's contribution to marked-to-market equity at price.
// A long leg holds its shares; a short leg holds the price gain since entry.
func (p Position) Value(price float64) float64 {
	if p.Side == Long {
		return p.Shares * price
	}
	return (p.EntryPrice - price) * p.Shares
}
