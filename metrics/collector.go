package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rustyeddy/pairs/backtest"
)

// Collector is a backtest.Observer that records run progress in its own
// prometheus registry. Series are labelled by run ID so partitions run
// side by side stay apart.
type Collector struct {
	reg *prometheus.Registry

	steps       *prometheus.CounterVec
	closedLegs  *prometheus.CounterVec
	unavailable *prometheus.CounterVec
	equity      *prometheus.GaugeVec
	cash        *prometheus.GaugeVec
	zscore      *prometheus.GaugeVec
	beta        *prometheus.GaugeVec
	legPL       *prometheus.HistogramVec
}

// NewCollector registers the pairs_* metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairs_steps_total",
			Help: "Bars processed, by state machine transition",
		}, []string{"run", "transition"}),
		closedLegs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairs_closed_legs_total",
			Help: "Closed position legs, by close reason",
		}, []string{"run", "reason"}),
		unavailable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairs_gate_unavailable_total",
			Help: "Trading steps where the stationarity test failed",
		}, []string{"run"}),
		equity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairs_equity",
			Help: "Marked-to-market equity after the latest bar",
		}, []string{"run"}),
		cash: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairs_cash",
			Help: "Cash after the latest bar",
		}, []string{"run"}),
		zscore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairs_zscore",
			Help: "Rolling z-score of the smoothed spread",
		}, []string{"run"}),
		beta: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pairs_hedge_ratio",
			Help: "Latest hedge ratio estimate",
		}, []string{"run"}),
		legPL: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pairs_leg_realized_pl",
			Help:    "Realized profit per closed leg",
			Buckets: []float64{-10000, -1000, -100, -10, 0, 10, 100, 1000, 10000},
		}, []string{"run"}),
	}

	c.reg.MustRegister(c.steps, c.closedLegs, c.unavailable, c.equity, c.cash, c.zscore, c.beta, c.legPL)
	return c
}

// OnStep implements backtest.Observer.
func (c *Collector) OnStep(s backtest.StepSnapshot) {
	run := s.RunID

	c.steps.WithLabelValues(run, string(s.Signal.Transition)).Inc()
	c.equity.WithLabelValues(run).Set(s.Equity)
	c.cash.WithLabelValues(run).Set(s.Cash)
	c.beta.WithLabelValues(run).Set(s.Signal.Beta)

	if !s.Signal.Ready {
		return
	}
	if !math.IsNaN(s.Signal.Z) {
		c.zscore.WithLabelValues(run).Set(s.Signal.Z)
	}
	if !s.Signal.Available {
		c.unavailable.WithLabelValues(run).Inc()
	}
	for _, p := range s.Closed {
		c.closedLegs.WithLabelValues(run, string(p.Reason)).Inc()
		c.legPL.WithLabelValues(run).Observe(p.RealizedProfit)
	}
}

// WriteToTextfile dumps the registry in the text exposition format.
func (c *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}
