package backtest

import "github.com/rustyeddy/pairs/sim"

// StepSnapshot is what observers see after each bar.
type StepSnapshot struct {
	RunID  string
	Index  int
	Bar    Bar
	Signal Signal
	Cash   float64
	Equity float64

	Open    []sim.Position // legs still open after the step
	Closed  []sim.Position // legs closed during the step
	Skipped bool           // an entry signal could not be sized or afforded
}

// Observer is notified synchronously after every step. Observers shared
// across RunPartitions must be safe for concurrent use.
type Observer interface {
	OnStep(StepSnapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(StepSnapshot)

func (f ObserverFunc) OnStep(s StepSnapshot) { f(s) }
