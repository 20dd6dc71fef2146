package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	bt "github.com/rustyeddy/pairs/backtest"
	"github.com/rustyeddy/pairs/journal"
	"github.com/rustyeddy/pairs/metrics"
)

// RunMeta describes where a result came from.
type RunMeta struct {
	Dataset   string
	Partition string
	PairY     string
	PairX     string
}

// Summarize turns an engine result into a journal run row.
func Summarize(res bt.Result, cfg bt.Config, meta RunMeta) journal.Run {
	perf := metrics.Evaluate(res.EquityValues())
	ts := metrics.Trades(res.Closed)
	start, end := res.Span()

	raw, _ := json.Marshal(cfg)

	r := journal.Run{
		RunID:     res.RunID,
		Created:   time.Now().UTC(),
		Dataset:   meta.Dataset,
		Partition: meta.Partition,
		PairY:     meta.PairY,
		PairX:     meta.PairX,
		Start:     start,
		End:       end,
		Config:    string(raw),

		StartCash:    cfg.InitialCash,
		EndCash:      res.FinalCash,
		EndEquity:    res.FinalEquity,
		NetPL:        res.FinalEquity - cfg.InitialCash,
		MaxDDPct:     perf.MaxDrawdown * 100,
		Sharpe:       perf.Sharpe,
		Sortino:      perf.Sortino,
		Calmar:       perf.Calmar,
		DailyWinRate: perf.DailyWinRate,
		WinRate:      res.WinRate,
		ProfitFactor: ts.ProfitFactor,
		AvgWin:       ts.AvgWin,
		AvgLoss:      ts.AvgLoss,

		Trades:  ts.Count,
		Wins:    ts.Wins,
		Losses:  ts.Losses,
		Entries: res.Entries,
		Exits:   res.Exits,
		Stops:   res.Stops,
		Holds:   res.Holds,

		BorrowCost:     res.TotalBorrowCost,
		CommissionCost: res.TotalCommissionCost,
	}
	if cfg.InitialCash > 0 {
		r.ReturnPct = r.NetPL / cfg.InitialCash * 100
	}
	return r
}

func PrintRun(w io.Writer, r journal.Run) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Pair:          %s / %s\n", r.PairY, r.PairX)
	fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	fmt.Fprintf(w, "Partition:     %s\n", r.Partition)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	if r.Start.IsZero() {
		fmt.Fprintln(w, "(no bars)")
	} else {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transitions")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Entries:       %d\n", r.Entries)
	fmt.Fprintf(w, "Exits:         %d\n", r.Exits)
	fmt.Fprintf(w, "Stops:         %d\n", r.Stops)
	fmt.Fprintf(w, "Holds:         %d\n", r.Holds)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Closed Legs:   %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(w, "Avg Win:       %.2f\n", r.AvgWin)
	fmt.Fprintf(w, "Avg Loss:      %.2f\n", r.AvgLoss)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %.2f\n", r.StartCash)
	fmt.Fprintf(w, "End Cash:      %.2f\n", r.EndCash)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe)
	fmt.Fprintf(w, "Sortino:       %.2f\n", r.Sortino)
	fmt.Fprintf(w, "Calmar:        %.2f\n", r.Calmar)
	fmt.Fprintf(w, "Daily Win:     %.2f%%\n", r.DailyWinRate*100)

	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	if r.MaxDDPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)
	}
	fmt.Fprintf(w, "Borrow Cost:   %.2f\n", r.BorrowCost)
	fmt.Fprintf(w, "Commissions:   %.2f\n", r.CommissionCost)

	fmt.Fprintln(w)
}
