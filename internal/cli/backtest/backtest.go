package backtest

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	bt "github.com/rustyeddy/pairs/backtest"
	"github.com/rustyeddy/pairs/config"
	rootcfg "github.com/rustyeddy/pairs/internal/cli/config"
	"github.com/rustyeddy/pairs/journal"
	"github.com/rustyeddy/pairs/metrics"
)

type options struct {
	dataPath   string
	split      bool
	train      float64
	test       float64
	orgPath    string
	metricsOut string
	runID      string

	// overrides
	entryZ   float64
	exitZ    float64
	stopZ    float64
	window   int
	cash     float64
	noGate   bool
	closeEnd bool
}

// New returns the backtest command.
func New(rc *rootcfg.RootConfig) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a Kalman pairs backtest over a two-leg price CSV",
		Example: `  pairs backtest --data pepsi_coke.csv
  pairs backtest --data pepsi_coke.csv --config pairs.yaml --split --org runs.org`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.dataPath == "" {
				return fmt.Errorf("--data is required")
			}

			cfg := config.Default()
			if rc.ConfigPath != "" {
				var err error
				if cfg, err = config.LoadFromFile(rc.ConfigPath); err != nil {
					return err
				}
			}
			o.apply(cmd, cfg)
			if cmd.Flags().Changed("db") {
				cfg.Journal.Type = "sqlite"
				cfg.Journal.DBPath = rc.DBPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, rc, cfg, o)
		},
	}

	cmd.Flags().StringVar(&o.dataPath, "data", "", "CSV with time,<Y>,<X> closes (required)")
	cmd.Flags().BoolVar(&o.split, "split", false, "Run train/test/validation partitions concurrently")
	cmd.Flags().Float64Var(&o.train, "train", 0.6, "Train fraction with --split")
	cmd.Flags().Float64Var(&o.test, "test", 0.2, "Test fraction with --split")
	cmd.Flags().StringVar(&o.orgPath, "org", "", "Write an Org-mode report to this file")
	cmd.Flags().StringVar(&o.metricsOut, "metrics-out", "", "Write prometheus metrics in text format to this file")
	cmd.Flags().StringVar(&o.runID, "run-id", "", "Run ID (default: new ULID)")

	cmd.Flags().Float64Var(&o.entryZ, "entry-z", 0, "Override strategy.entry_z")
	cmd.Flags().Float64Var(&o.exitZ, "exit-z", 0, "Override strategy.exit_z")
	cmd.Flags().Float64Var(&o.stopZ, "stop-z", 0, "Override strategy.stop_z")
	cmd.Flags().IntVar(&o.window, "window", 0, "Override strategy.rolling_window")
	cmd.Flags().Float64Var(&o.cash, "initial-cash", 0, "Override account.initial_cash")
	cmd.Flags().BoolVar(&o.noGate, "no-gate", false, "Disable the stationarity gate")
	cmd.Flags().BoolVar(&o.closeEnd, "close-at-end", false, "Override strategy.close_at_end")

	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("entry-z") {
		cfg.Strategy.EntryZ = o.entryZ
	}
	if f.Changed("exit-z") {
		cfg.Strategy.ExitZ = o.exitZ
	}
	if f.Changed("stop-z") {
		cfg.Strategy.StopZ = o.stopZ
	}
	if f.Changed("window") {
		cfg.Strategy.RollingWindow = o.window
	}
	if f.Changed("initial-cash") {
		cfg.Account.InitialCash = o.cash
	}
	if f.Changed("close-at-end") {
		cfg.Strategy.CloseAtEnd = o.closeEnd
	}
	if o.noGate {
		cfg.Gate.UseStationarity = false
	}
}

func run(ctx context.Context, rc *rootcfg.RootConfig, cfg *config.Config, o *options) error {
	log := rc.Logger()
	out := rc.Stdout()

	series, err := bt.LoadPairCSV(o.dataPath)
	if err != nil {
		return err
	}
	log.Info().
		Str("data", o.dataPath).
		Str("y", series.Y).
		Str("x", series.X).
		Int("bars", len(series.Bars)).
		Msg("loaded pair")

	st, err := newOracle(cfg.Gate, log)
	if err != nil {
		return err
	}

	j, store, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	opts := []bt.Option{bt.WithLogger(log)}
	if st != nil {
		opts = append(opts, bt.WithOracle(st))
	}
	if j != nil {
		opts = append(opts, bt.WithJournal(j, o.runID))
	} else if o.runID != "" {
		opts = append(opts, bt.WithRunID(o.runID))
	}

	var col *metrics.Collector
	if o.metricsOut != "" {
		col = metrics.NewCollector()
		opts = append(opts, bt.WithObserver(col))
	}

	btCfg := cfg.Backtest()
	var results []bt.PartitionResult
	if o.split {
		parts, err := bt.Split(series.Bars, o.train, o.test)
		if err != nil {
			return err
		}
		if results, err = bt.RunPartitions(ctx, btCfg, parts, opts...); err != nil {
			return err
		}
	} else {
		e, err := bt.NewEngine(btCfg, opts...)
		if err != nil {
			return err
		}
		res, err := e.Run(ctx, series.Bars)
		if err != nil {
			return err
		}
		results = []bt.PartitionResult{{Name: "full", Result: res}}
	}

	meta := RunMeta{
		Dataset: filepath.Base(o.dataPath),
		PairY:   series.Y,
		PairX:   series.X,
	}

	var org []byte
	for i, pr := range results {
		meta.Partition = pr.Name
		r := Summarize(pr.Result, btCfg, meta)

		if store != nil {
			if err := store.RecordRun(ctx, r); err != nil {
				return err
			}
		}
		PrintRun(out, r)

		if o.orgPath != "" {
			trades := make([]journal.TradeRecord, 0, len(pr.Result.Closed))
			for _, p := range pr.Result.Closed {
				trades = append(trades, bt.TradeRecord(r.RunID, p))
			}
			s, err := journal.RenderRunOrg(r, trades)
			if err != nil {
				return err
			}
			if i > 0 {
				org = append(org, '\n')
			}
			org = append(org, s...)
		}
	}

	if o.orgPath != "" {
		if err := os.WriteFile(o.orgPath, org, 0o644); err != nil {
			return err
		}
		log.Info().Str("path", o.orgPath).Msg("wrote org report")
	}
	if col != nil {
		if err := col.WriteToTextfile(o.metricsOut); err != nil {
			return err
		}
		log.Info().Str("path", o.metricsOut).Msg("wrote metrics")
	}
	return nil
}
