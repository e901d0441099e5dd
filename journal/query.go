package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type scanner interface {
	Scan(dest ...any) error
}

const runColumns = `run_id, created, strategy, instrument, state, seed, bars, start_time, end_time,
	initial_balance, balance, equity, trades, wins, losses, profit_factor,
	max_drawdown, sharpe, orders, rejected, commission, slippage, swap`

func scanRun(s scanner) (RunRecord, error) {
	var (
		r    RunRecord
		seed int64
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Instrument, &r.State, &seed, &r.Bars, &r.Start, &r.End,
		&r.InitialBalance, &r.Balance, &r.Equity, &r.Trades, &r.Wins, &r.Losses, &r.ProfitFactor,
		&r.MaxDrawdown, &r.Sharpe, &r.Orders, &r.Rejected, &r.Commission, &r.Slippage, &r.Swap,
	)
	r.Seed = uint64(seed)
	return r, err
}

// GetRun returns the summary row of one run.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return RunRecord{}, err
	}
	return r, nil
}

// ListRuns returns every run, oldest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created ASC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const tradeColumns = `run_id, trade_id, instrument, side, volume, entry_price, exit_price, open_time, close_time, realized_pl, reason`

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.RunID,
		&rec.TradeID,
		&rec.Instrument,
		&rec.Side,
		&rec.Volume,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	return rec, err
}

func (j *SQLite) queryTrades(query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade of a run.
func (j *SQLite) GetTrade(runID string, tradeID int) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE run_id = ? AND trade_id = ?`, runID, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %s/%d: %w", runID, tradeID, ErrNotFound)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns a run's trades in close order.
func (j *SQLite) ListTrades(runID string) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades WHERE run_id = ? ORDER BY close_time ASC, trade_id ASC`, runID)
}

// ListTradesClosedBetween returns trades of any run whose close_time is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC, run_id ASC, trade_id ASC`, start, end)
}

// ListFills returns a run's fills in execution order.
func (j *SQLite) ListFills(runID string) ([]FillRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, fill_id, order_id, side, volume, price, slippage, commission, time, partial, closes, reason
		FROM fills
		WHERE run_id = ?
		ORDER BY fill_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var f FillRecord
		if err := rows.Scan(
			&f.RunID, &f.FillID, &f.OrderID, &f.Side, &f.Volume, &f.Price,
			&f.Slippage, &f.Commission, &f.Time, &f.Partial, &f.Closes, &f.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve, optionally limited to
// [start, end). Zero times leave that side open.
func (j *SQLite) ListEquity(runID string, start, end time.Time) ([]EquitySnapshot, error) {
	query := `SELECT run_id, time, balance, equity, drawdown FROM equity WHERE run_id = ?`
	args := []any{runID}
	if !start.IsZero() {
		query += ` AND time >= ?`
		args = append(args, start)
	}
	if !end.IsZero() {
		query += ` AND time < ?`
		args = append(args, end)
	}
	query += ` ORDER BY time ASC`

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(&e.RunID, &e.Time, &e.Balance, &e.Equity, &e.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListValidations returns the checks recorded for a run, by method name.
func (j *SQLite) ListValidations(runID string) ([]ValidationRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, method, statistic, p_value, lower, upper, passed, status
		FROM validations
		WHERE run_id = ?
		ORDER BY method ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValidationRecord
	for rows.Next() {
		var (
			v                    ValidationRecord
			pValue, lower, upper sql.NullFloat64
		)
		if err := rows.Scan(&v.RunID, &v.Method, &v.Statistic, &pValue, &lower, &upper, &v.Passed, &v.Status); err != nil {
			return nil, err
		}
		v.PValue, v.Lower, v.Upper = fromNullable(pValue), fromNullable(lower), fromNullable(upper)
		out = append(out, v)
	}
	return out, rows.Err()
}
