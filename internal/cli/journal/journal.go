package journal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/pairs/config"
	rootcfg "github.com/rustyeddy/pairs/internal/cli/config"
	"github.com/rustyeddy/pairs/journal"
)

// New returns the journal command and its subcommands.
func New(rc *rootcfg.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the backtest journal",
		Long: `Query and display journal records from the SQL journal.

Examples:
  pairs journal runs
  pairs journal run <run-id>
  pairs journal trade <trade-id>
  pairs journal day 2024-01-15`,
	}

	var limit int
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := rc.Stdout()
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %-10s %s/%s  net=%.2f  ret=%.2f%%  legs=%d\n",
					r.RunID, r.Partition, r.PairY, r.PairX, r.NetPL, r.ReturnPct, r.Trades)
			}
			return nil
		},
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	runCmd := &cobra.Command{
		Use:   "run <run-id>",
		Short: "Export a run and its trades as Org",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			org, err := j.ExportRunOrg(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(rc.Stdout(), org)
			return nil
		},
	}

	tradeCmd := &cobra.Command{
		Use:   "trade <trade-id>",
		Short: "Get details of a specific trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			rec, err := j.GetTrade(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get trade: %w", err)
			}
			fmt.Fprintln(rc.Stdout(), journal.FormatTradeOrg(rec))
			return nil
		},
	}

	dayCmd := &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List trades closed on a specific day (UTC)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := dayBounds(time.UTC, args[0])
			if err != nil {
				return fmt.Errorf("date: %w", err)
			}

			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.ListTradesClosedBetween(cmd.Context(), start, end)
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}
			fmt.Fprintln(rc.Stdout(), journal.FormatTradesOrg(recs))
			return nil
		},
	}

	cmd.AddCommand(runsCmd, runCmd, tradeCmd, dayCmd)
	return cmd
}

// open uses the config's postgres DSN when one is set, otherwise the
// sqlite file named by --db.
func open(rc *rootcfg.RootConfig) (*journal.SQL, error) {
	if rc.ConfigPath != "" {
		cfg, err := config.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, err
		}
		if cfg.Journal.Type == "postgres" {
			return journal.NewPostgres(cfg.Journal.DSN)
		}
	}
	j, err := journal.NewSQLite(rc.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour), nil
}
