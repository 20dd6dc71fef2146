package journal

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	shares REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	entry_commission REAL NOT NULL,
	exit_commission REAL NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL,
	open_legs INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	partition TEXT NOT NULL,
	pair_y TEXT NOT NULL,
	pair_x TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	config TEXT NOT NULL,
	start_cash REAL NOT NULL,
	end_cash REAL NOT NULL,
	end_equity REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	sortino REAL NOT NULL DEFAULT 0,
	calmar REAL NOT NULL DEFAULT 0,
	daily_win_rate REAL NOT NULL DEFAULT 0,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	avg_win REAL NOT NULL DEFAULT 0,
	avg_loss REAL NOT NULL DEFAULT 0,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	entries INTEGER NOT NULL,
	exits INTEGER NOT NULL,
	stops INTEGER NOT NULL,
	holds INTEGER NOT NULL,
	borrow_cost REAL NOT NULL,
	commission_cost REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	shares DOUBLE PRECISION NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	exit_price DOUBLE PRECISION NOT NULL,
	open_time TIMESTAMPTZ NOT NULL,
	close_time TIMESTAMPTZ NOT NULL,
	entry_commission DOUBLE PRECISION NOT NULL,
	exit_commission DOUBLE PRECISION NOT NULL,
	realized_pl DOUBLE PRECISION NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time TIMESTAMPTZ NOT NULL,
	cash DOUBLE PRECISION NOT NULL,
	equity DOUBLE PRECISION NOT NULL,
	open_legs INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created TIMESTAMPTZ NOT NULL,
	dataset TEXT NOT NULL,
	partition TEXT NOT NULL,
	pair_y TEXT NOT NULL,
	pair_x TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	config TEXT NOT NULL,
	start_cash DOUBLE PRECISION NOT NULL,
	end_cash DOUBLE PRECISION NOT NULL,
	end_equity DOUBLE PRECISION NOT NULL,
	net_pl DOUBLE PRECISION NOT NULL,
	return_pct DOUBLE PRECISION NOT NULL,
	max_dd_pct DOUBLE PRECISION NOT NULL,
	sharpe DOUBLE PRECISION NOT NULL,
	sortino DOUBLE PRECISION NOT NULL DEFAULT 0,
	calmar DOUBLE PRECISION NOT NULL DEFAULT 0,
	daily_win_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	win_rate DOUBLE PRECISION NOT NULL,
	profit_factor DOUBLE PRECISION NOT NULL,
	avg_win DOUBLE PRECISION NOT NULL DEFAULT 0,
	avg_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	entries INTEGER NOT NULL,
	exits INTEGER NOT NULL,
	stops INTEGER NOT NULL,
	holds INTEGER NOT NULL,
	borrow_cost DOUBLE PRECISION NOT NULL,
	commission_cost DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`
