package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	instrument TEXT NOT NULL,
	state TEXT NOT NULL,
	seed INTEGER NOT NULL,
	bars INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	initial_balance REAL NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe REAL NOT NULL,
	orders INTEGER NOT NULL,
	rejected INTEGER NOT NULL,
	commission REAL NOT NULL,
	slippage REAL NOT NULL,
	swap REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
	run_id TEXT NOT NULL,
	fill_id INTEGER NOT NULL,
	order_id INTEGER NOT NULL,
	side TEXT NOT NULL,
	volume REAL NOT NULL,
	price REAL NOT NULL,
	slippage REAL NOT NULL,
	commission REAL NOT NULL,
	time DATETIME NOT NULL,
	partial INTEGER NOT NULL,
	closes INTEGER NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, fill_id)
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id INTEGER NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	volume REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	drawdown REAL NOT NULL,
	PRIMARY KEY (run_id, time)
);

CREATE TABLE IF NOT EXISTS validations (
	run_id TEXT NOT NULL,
	method TEXT NOT NULL,
	statistic REAL NOT NULL,
	p_value REAL,
	lower REAL,
	upper REAL,
	passed INTEGER NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY (run_id, method)
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
`
