package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned when a trade or run ID is already stored.
var ErrDuplicate = errors.New("journal: duplicate id")

// SQL is a Journal backed by sqlite3 or postgres. Queries are written with
// ? placeholders and rebound for the driver.
type SQL struct {
	db *sqlx.DB
}

// NewSQLite opens (creating if needed) a sqlite journal at path.
func NewSQLite(path string) (*SQL, error) {
	return Open("sqlite3", path)
}

// NewPostgres connects to a postgres journal.
func NewPostgres(dsn string) (*SQL, error) {
	return Open("postgres", dsn)
}

// Open connects with driver ("sqlite3" or "postgres") and applies the schema.
func Open(driver, dsn string) (*SQL, error) {
	var schema string
	switch driver {
	case "sqlite3":
		schema = sqliteSchema
	case "postgres":
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("journal: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// one writer; avoids SQLITE_BUSY from the pool
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &SQL{db: db}, nil
}

func (j *SQL) RecordTrade(t TradeRecord) error {
	_, err := j.db.NamedExec(`
		INSERT INTO trades
		(trade_id, run_id, ticker, side, shares, entry_price, exit_price, open_time, close_time,
		 entry_commission, exit_commission, realized_pl, reason)
		VALUES (:trade_id, :run_id, :ticker, :side, :shares, :entry_price, :exit_price, :open_time, :close_time,
		 :entry_commission, :exit_commission, :realized_pl, :reason)`, t)
	if err != nil {
		return j.wrap("record trade", err)
	}
	return nil
}

func (j *SQL) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.NamedExec(`
		INSERT INTO equity (run_id, time, cash, equity, open_legs)
		VALUES (:run_id, :time, :cash, :equity, :open_legs)`, e)
	if err != nil {
		return j.wrap("record equity", err)
	}
	return nil
}

// RecordRun stores a run summary.
func (j *SQL) RecordRun(ctx context.Context, r Run) error {
	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, dataset, partition, pair_y, pair_x, start_time, end_time, config,
		 start_cash, end_cash, end_equity, net_pl, return_pct, max_dd_pct,
		 sharpe, sortino, calmar, daily_win_rate, win_rate, profit_factor, avg_win, avg_loss,
		 trades, wins, losses, entries, exits, stops, holds, borrow_cost, commission_cost)
		VALUES
		(:run_id, :created, :dataset, :partition, :pair_y, :pair_x, :start_time, :end_time, :config,
		 :start_cash, :end_cash, :end_equity, :net_pl, :return_pct, :max_dd_pct,
		 :sharpe, :sortino, :calmar, :daily_win_rate, :win_rate, :profit_factor, :avg_win, :avg_loss,
		 :trades, :wins, :losses, :entries, :exits, :stops, :holds, :borrow_cost, :commission_cost)`, r)
	if err != nil {
		return j.wrap("record run", err)
	}
	return nil
}

// GetRun returns one run summary.
func (j *SQL) GetRun(ctx context.Context, runID string) (Run, error) {
	var r Run
	err := j.db.GetContext(ctx, &r, j.db.Rebind(`SELECT * FROM runs WHERE run_id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("journal: get run: %w", err)
	}
	return r, nil
}

// GetTrade returns a single closed leg by ID.
func (j *SQL) GetTrade(ctx context.Context, tradeID string) (TradeRecord, error) {
	var rec TradeRecord
	err := j.db.GetContext(ctx, &rec, j.db.Rebind(`
		SELECT run_id, trade_id, ticker, side, shares, entry_price, exit_price, open_time, close_time,
		       entry_commission, exit_commission, realized_pl, reason
		FROM trades
		WHERE trade_id = ?`), tradeID)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	}
	if err != nil {
		return TradeRecord{}, fmt.Errorf("journal: get trade: %w", err)
	}
	return rec, nil
}

// ListTradesByRun returns a run's closed legs in close order.
func (j *SQL) ListTradesByRun(ctx context.Context, runID string) ([]TradeRecord, error) {
	var out []TradeRecord
	err := j.db.SelectContext(ctx, &out, j.db.Rebind(`
		SELECT run_id, trade_id, ticker, side, shares, entry_price, exit_price, open_time, close_time,
		       entry_commission, exit_commission, realized_pl, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY close_time ASC, trade_id ASC`), runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list trades: %w", err)
	}
	return out, nil
}

// ListTradesClosedBetween returns legs closed in [start, end).
func (j *SQL) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	var out []TradeRecord
	err := j.db.SelectContext(ctx, &out, j.db.Rebind(`
		SELECT run_id, trade_id, ticker, side, shares, entry_price, exit_price, open_time, close_time,
		       entry_commission, exit_commission, realized_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, trade_id ASC`), start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("journal: list trades: %w", err)
	}
	return out, nil
}

// ListRuns returns the most recent runs, newest first.
func (j *SQL) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Run
	err := j.db.SelectContext(ctx, &out, j.db.Rebind(`
		SELECT * FROM runs
		ORDER BY created DESC, run_id ASC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list runs: %w", err)
	}
	return out, nil
}

// ListEquityByRun returns a run's equity curve in time order.
func (j *SQL) ListEquityByRun(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	var out []EquitySnapshot
	err := j.db.SelectContext(ctx, &out, j.db.Rebind(`
		SELECT run_id, time, cash, equity, open_legs
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`), runID)
	if err != nil {
		return nil, fmt.Errorf("journal: list equity: %w", err)
	}
	return out, nil
}

// ExportRunOrg loads a run and its trades and renders them as Org.
func (j *SQL) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRun(ctx, runID)
	if err != nil {
		return "", err
	}
	return RenderRunOrg(r, trades)
}

func (j *SQL) Close() error {
	return j.db.Close()
}

func (j *SQL) wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("journal: %s: %w: %v", op, ErrDuplicate, err)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("journal: %s: %w: %v", op, ErrDuplicate, err)
	}
	return fmt.Errorf("journal: %s: %w", op, err)
}
