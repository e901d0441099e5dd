package journal

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// SQLite is a Journal backed by a sqlite3 database file. It is not safe for
// concurrent writers.
type SQLite struct {
	db *sql.DB
	tx *sql.Tx
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) exec() execer {
	if j.tx != nil {
		return j.tx
	}
	return j.db
}

// Batch runs fn inside one transaction; every Record call made by fn joins
// it. An error from fn rolls the whole batch back.
func (j *SQLite) Batch(fn func() error) error {
	if j.tx != nil {
		return fn()
	}
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	j.tx = tx
	defer func() { j.tx = nil }()

	if err := fn(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit: %w", err)
	}
	return nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	created := r.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := j.exec().Exec(`
		INSERT OR REPLACE INTO runs
		(run_id, created, strategy, instrument, state, seed, bars, start_time, end_time,
		 initial_balance, balance, equity, trades, wins, losses, profit_factor,
		 max_drawdown, sharpe, orders, rejected, commission, slippage, swap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, created, r.Strategy, r.Instrument, r.State, int64(r.Seed), r.Bars, r.Start, r.End,
		r.InitialBalance, r.Balance, r.Equity, r.Trades, r.Wins, r.Losses, finite(r.ProfitFactor),
		r.MaxDrawdown, r.Sharpe, r.Orders, r.Rejected, r.Commission, r.Slippage, r.Swap,
	)
	if err != nil {
		return fmt.Errorf("journal: record run %s: %w", r.RunID, err)
	}
	return nil
}

func (j *SQLite) RecordFill(f FillRecord) error {
	_, err := j.exec().Exec(`
		INSERT INTO fills
		(run_id, fill_id, order_id, side, volume, price, slippage, commission, time, partial, closes, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.FillID, f.OrderID, f.Side, f.Volume, f.Price,
		f.Slippage, f.Commission, f.Time, f.Partial, f.Closes, f.Reason,
	)
	if err != nil {
		return fmt.Errorf("journal: record fill %d: %w", f.FillID, err)
	}
	return nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.exec().Exec(`
		INSERT INTO trades
		(run_id, trade_id, instrument, side, volume, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Instrument, t.Side, t.Volume, t.EntryPrice,
		t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.Reason,
	)
	if err != nil {
		return fmt.Errorf("journal: record trade %d: %w", t.TradeID, err)
	}
	return nil
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.exec().Exec(`
		INSERT INTO equity
		(run_id, time, balance, equity, drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Balance, e.Equity, e.Drawdown,
	)
	if err != nil {
		return fmt.Errorf("journal: record equity: %w", err)
	}
	return nil
}

func (j *SQLite) RecordValidation(v ValidationRecord) error {
	_, err := j.exec().Exec(`
		INSERT OR REPLACE INTO validations
		(run_id, method, statistic, p_value, lower, upper, passed, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.RunID, v.Method, finite(v.Statistic), nullable(v.PValue), nullable(v.Lower),
		nullable(v.Upper), v.Passed, v.Status,
	)
	if err != nil {
		return fmt.Errorf("journal: record validation %s: %w", v.Method, err)
	}
	return nil
}

// DeleteRun removes a run and every row keyed by it. Unknown ids are not an
// error.
func (j *SQLite) DeleteRun(runID string) error {
	for _, table := range []string{"fills", "trades", "equity", "validations", "runs"} {
		if _, err := j.exec().Exec(`DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("journal: delete run %s from %s: %w", runID, table, err)
		}
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// finite maps NaN and ±Inf to 0 for NOT NULL columns.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func nullable(x float64) sql.NullFloat64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func fromNullable(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
