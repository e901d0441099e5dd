// Package journal persists finished backtest runs: the run summary, the fill
// log, closed trades, the equity curve and any validation results. Every row
// is keyed by the run id so several runs can share one database.
package journal

import (
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("journal: not found")

// RunRecord is the one-row summary of a run.
type RunRecord struct {
	RunID          string    `csv:"run_id"`
	Created        time.Time `csv:"created"`
	Strategy       string    `csv:"strategy"`
	Instrument     string    `csv:"instrument"`
	State          string    `csv:"state"`
	Seed           uint64    `csv:"seed"`
	Bars           int       `csv:"bars"`
	Start          time.Time `csv:"start"`
	End            time.Time `csv:"end"`
	InitialBalance float64   `csv:"initial_balance"`
	Balance        float64   `csv:"balance"`
	Equity         float64   `csv:"equity"`
	Trades         int       `csv:"trades"`
	Wins           int       `csv:"wins"`
	Losses         int       `csv:"losses"`
	ProfitFactor   float64   `csv:"profit_factor"`
	MaxDrawdown    float64   `csv:"max_drawdown"`
	Sharpe         float64   `csv:"sharpe"`
	Orders         int       `csv:"orders"`
	Rejected       int       `csv:"rejected"`
	Commission     float64   `csv:"commission"`
	Slippage       float64   `csv:"slippage"`
	Swap           float64   `csv:"swap"`
}

// FillRecord is one execution.
type FillRecord struct {
	RunID      string    `csv:"run_id"`
	FillID     int       `csv:"fill_id"`
	OrderID    int       `csv:"order_id"`
	Side       string    `csv:"side"`
	Volume     float64   `csv:"volume"`
	Price      float64   `csv:"price"`
	Slippage   float64   `csv:"slippage"`
	Commission float64   `csv:"commission"`
	Time       time.Time `csv:"time"`
	Partial    bool      `csv:"partial"`
	Closes     int       `csv:"closes"`
	Reason     string    `csv:"reason"`
}

// TradeRecord is one closed position.
type TradeRecord struct {
	RunID      string    `csv:"run_id"`
	TradeID    int       `csv:"trade_id"`
	Instrument string    `csv:"instrument"`
	Side       string    `csv:"side"`
	Volume     float64   `csv:"volume"`
	EntryPrice float64   `csv:"entry_price"`
	ExitPrice  float64   `csv:"exit_price"`
	OpenTime   time.Time `csv:"open_time"`
	CloseTime  time.Time `csv:"close_time"`
	RealizedPL float64   `csv:"realized_pl"`
	Reason     string    `csv:"reason"`
}

// EquitySnapshot is one bar of the equity curve.
type EquitySnapshot struct {
	RunID    string    `csv:"run_id"`
	Time     time.Time `csv:"time"`
	Balance  float64   `csv:"balance"`
	Equity   float64   `csv:"equity"`
	Drawdown float64   `csv:"drawdown"`
}

// ValidationRecord is one statistical check run against a run's output.
// PValue, Lower and Upper may be NaN when the method does not define them.
type ValidationRecord struct {
	RunID     string  `csv:"run_id"`
	Method    string  `csv:"method"`
	Statistic float64 `csv:"statistic"`
	PValue    float64 `csv:"p_value"`
	Lower     float64 `csv:"lower"`
	Upper     float64 `csv:"upper"`
	Passed    bool    `csv:"passed"`
	Status    string  `csv:"status"`
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordFill(FillRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	RecordValidation(ValidationRecord) error
	Close() error
}

// Purger is implemented by journals that can drop every row of a run.
// WriteRun purges first, so writing a run again replaces it.
type Purger interface {
	DeleteRun(runID string) error
}

// Batcher is implemented by journals that can group many writes into one
// transaction. WriteRun uses it when available.
type Batcher interface {
	Batch(fn func() error) error
}
