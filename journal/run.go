package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// Run is the summary row for one backtest run.
type Run struct {
	RunID     string    `db:"run_id"`
	Created   time.Time `db:"created"`
	Dataset   string    `db:"dataset"`
	Partition string    `db:"partition"` // full, train, test or validation
	PairY     string    `db:"pair_y"`
	PairX     string    `db:"pair_x"`
	Start     time.Time `db:"start_time"`
	End       time.Time `db:"end_time"`
	Config    string    `db:"config"` // JSON

	StartCash    float64 `db:"start_cash"`
	EndCash      float64 `db:"end_cash"`
	EndEquity    float64 `db:"end_equity"`
	NetPL        float64 `db:"net_pl"`
	ReturnPct    float64 `db:"return_pct"`
	MaxDDPct     float64 `db:"max_dd_pct"`
	Sharpe       float64 `db:"sharpe"`
	Sortino      float64 `db:"sortino"`
	Calmar       float64 `db:"calmar"`
	DailyWinRate float64 `db:"daily_win_rate"` // fraction of periods with a gain
	WinRate      float64 `db:"win_rate"`       // fraction of closed legs
	ProfitFactor float64 `db:"profit_factor"`
	AvgWin       float64 `db:"avg_win"`
	AvgLoss      float64 `db:"avg_loss"` // negative

	Trades  int `db:"trades"`
	Wins    int `db:"wins"`
	Losses  int `db:"losses"`
	Entries int `db:"entries"`
	Exits   int `db:"exits"`
	Stops   int `db:"stops"`
	Holds   int `db:"holds"`

	BorrowCost     float64 `db:"borrow_cost"`
	CommissionCost float64 `db:"commission_cost"`
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTmpl = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// Org renders the run as an Org-mode entry.
func (r Run) Org() (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTmpl.Execute(buf, r); err != nil {
		return "", fmt.Errorf("journal: render run %s: %w", r.RunID, err)
	}
	return buf.String(), nil
}

// RenderRunOrg renders r followed by its trades.
func RenderRunOrg(r Run, trades []TradeRecord) (string, error) {
	s, err := r.Org()
	if err != nil {
		return "", err
	}
	if len(trades) > 0 {
		s += "\n** Trades\n" + FormatTradesOrg(trades) + "\n"
	}
	return s, nil
}

// WriteOrg writes RenderRunOrg output to path.
func (r Run) WriteOrg(path string, trades []TradeRecord) error {
	s, err := RenderRunOrg(r, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `
* BACKTEST: Kalman pairs {{.PairY}}/{{.PairX}}{{if .Partition}} [{{.Partition}}]{{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    kalman_pairs
:PAIR:        {{.PairY}}/{{.PairX}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PARTITION:   {{if .Partition}}{{.Partition}}{{else}}full{{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_CASH:  {{printf "%.2f" .StartCash}}
:END_CASH:    {{printf "%.2f" .EndCash}}
:END_EQUITY:  {{printf "%.2f" .EndEquity}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:SORTINO:     {{printf "%.2f" .Sortino}}
:CALMAR:      {{printf "%.2f" .Calmar}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
#+begin_src json
{{.Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Sharpe:           *{{printf "%.2f" .Sharpe}}*
- Sortino:          *{{printf "%.2f" .Sortino}}*
- Calmar:           *{{printf "%.2f" .Calmar}}*
- Daily Win Rate:   *{{printf "%.2f" (mul100 .DailyWinRate)}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Costs
| Cost       | Amount |
|------------+--------|
| Commission | {{printf "%.2f" .CommissionCost}} |
| Borrow     | {{printf "%.2f" .BorrowCost}} |

** Step Counts
| Transition | Steps |
|------------+-------|
| Entry      | {{.Entries}} |
| Exit       | {{.Exits}} |
| Stop       | {{.Stops}} |
| Hold       | {{.Holds}} |

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

- Avg Win:  {{printf "%.2f" .AvgWin}}
- Avg Loss: {{printf "%.2f" .AvgLoss}}
`
