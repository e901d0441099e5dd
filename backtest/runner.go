// Package backtest drives the book, execution engine and ledger over a bar
// series and produces the fill log, trade log and equity curve of one run.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsarmando/Ryze-Agents-sub002/book"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/id"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/logging"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
	"github.com/vsarmando/Ryze-Agents-sub002/ledger"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// ErrNotIdle is returned by Run on a runner that has already run.
var ErrNotIdle = errors.New("backtest: runner is not idle")

// State of a runner.
type State int

const (
	Idle State = iota
	Running
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EndOfData is the close reason used by CloseOnEnd.
const EndOfData = "end_of_data"

type Config struct {
	Book      book.Config
	Execution sim.Config
	Ledger    ledger.Config
	Session   market.Session // nil = FX week

	VolatilityWindow int
	Seed             uint64
	// Rand overrides Seed when set.
	Rand rng.Rand
	// RunID names the run in journals; empty issues a fresh id.
	RunID string

	// CloseOnEnd closes every open position at the last bar's mark.
	CloseOnEnd bool
	// ResetOnGapBars resets the strategy after a gap of at least this many
	// missing bars. 0 disables.
	ResetOnGapBars int
	// InvariantTolerance is the relative tolerance of the per-bar equity
	// identity check.
	InvariantTolerance float64
}

func DefaultConfig() Config {
	return Config{
		Book:               book.DefaultConfig(),
		Execution:          sim.DefaultConfig(),
		Ledger:             ledger.DefaultConfig(),
		Session:            market.FXSession{},
		VolatilityWindow:   market.DefaultVolatilityWindow,
		InvariantTolerance: 1e-6,
	}
}

// Runner owns every component of one run. It runs once.
type Runner struct {
	cfg      Config
	series   *market.Series
	strategy Strategy
	log      logrus.FieldLogger

	state  State
	market *market.State
	book   *book.Book
	engine *sim.Engine
	ledger *ledger.Ledger

	orderPos map[int]int // opening order id -> position id
	trades   []Trade
	equity   []EquityPoint
	peak     float64
	prevPeak float64 // peak before the last recorded point
	quote    market.Quote

	result *Result
}

// NewRunner wires a fresh book, engine and ledger for series.
func NewRunner(cfg Config, series *market.Series, strategy Strategy, log logrus.FieldLogger) (*Runner, error) {
	if series == nil {
		return nil, fmt.Errorf("backtest: Series is required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("backtest: Strategy is required")
	}
	log = logging.OrDiscard(log).WithFields(logrus.Fields{
		"strategy":   strategy.Name(),
		"instrument": series.Instrument,
	})

	if cfg.Session == nil {
		cfg.Session = market.FXSession{}
	}
	if cfg.InvariantTolerance <= 0 {
		cfg.InvariantTolerance = 1e-6
	}
	r := cfg.Rand
	if r == nil {
		r = rng.New(cfg.Seed)
	}

	led, err := ledger.New(cfg.Ledger, log)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	ms := market.NewState(cfg.VolatilityWindow)
	b := book.New(cfg.Book, ms)

	return &Runner{
		cfg:      cfg,
		series:   series,
		strategy: strategy,
		log:      log,
		market:   ms,
		book:     b,
		engine:   sim.New(cfg.Execution, b, cfg.Session, r, log),
		ledger:   led,
		orderPos: make(map[int]int),
		peak:     cfg.Ledger.InitialBalance,
	}, nil
}

func (r *Runner) State() State { return r.state }
func (r *Runner) Book() *book.Book { return r.book }
func (r *Runner) Engine() *sim.Engine { return r.engine }
func (r *Runner) Ledger() *ledger.Ledger { return r.ledger }
func (r *Runner) MarketState() *market.State { return r.market }

// Run processes every bar in order. A malformed bar or a cancelled context
// aborts the run; the returned Result then covers every bar fully processed
// before the abort.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.state != Idle {
		return nil, ErrNotIdle
	}
	r.state = Running
	r.log.WithField("bars", r.series.Len()).Info("backtest started")

	err := r.loop(ctx)
	if err == nil && r.cfg.CloseOnEnd {
		err = r.closeAll()
	}

	if err != nil {
		r.state = Aborted
		r.log.WithError(err).WithField("bars", len(r.equity)).Error("backtest aborted")
	} else {
		r.state = Completed
	}
	r.result = r.buildResult()

	r.log.WithFields(logrus.Fields{
		"state":  r.state,
		"bars":   r.result.Bars,
		"trades": r.result.Trades,
		"equity": r.result.Equity,
	}).Info("backtest finished")
	return r.result, err
}

// Result is the last run's result, nil before Run.
func (r *Runner) Result() *Result { return r.result }

func (r *Runner) loop(ctx context.Context) error {
	r.strategy.Reset()

	var prev *market.Bar
	for i, b := range r.series.Bars {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("backtest: bar %d: %w", i, err)
		}
		if err := market.CheckBar(prev, b, i); err != nil {
			return fmt.Errorf("backtest: %w", err)
		}

		gap := r.gapBars(prev, b)
		if r.cfg.ResetOnGapBars > 0 && gap >= r.cfg.ResetOnGapBars {
			r.strategy.Reset()
		}

		if err := r.step(i, gap, b); err != nil {
			return err
		}
		prev = &r.series.Bars[i]
	}
	return nil
}

func (r *Runner) gapBars(prev *market.Bar, b market.Bar) int {
	if prev == nil || r.series.Step <= 0 {
		return 0
	}
	return max(0, int(b.Time.Sub(prev.Time)/r.series.Step)-1)
}

// step processes one bar: market state, book, pending orders, exits,
// strategy, then the equity point and the bookkeeping check.
func (r *Runner) step(i, gap int, b market.Bar) error {
	r.market.Push(b)
	if i == 0 {
		r.book.Initialize(b.Close, r.cfg.Book.BaseSpread)
	}
	q := r.book.Update(b.Close, b.Close, b.Volume, b.Time)
	r.quote = q

	for _, exec := range r.engine.Tick(q) {
		o, _ := r.engine.Order(exec.OrderID)
		if err := r.apply(o.Request, exec); err != nil {
			return err
		}
	}

	for _, tr := range r.ledger.MarkBar(q, b.Low, b.High, b.Time) {
		f := r.engine.CloseAt(tr.Position, tr.Side, tr.Volume, tr.Level, tr.Reason, b.Time)
		if err := r.closeFill(tr.Position, f, tr.Reason); err != nil {
			return err
		}
	}

	sctx := &Context{
		Index:     i,
		Time:      b.Time,
		GapBars:   gap,
		Quote:     q,
		Balance:   r.ledger.Balance(),
		Equity:    r.ledger.Equity(q),
		Positions: r.openPositions(),
		State:     r.market,
		Book:      r.book,
	}
	for _, req := range r.strategy.OnBar(sctx, b) {
		if err := r.submit(req, q); err != nil {
			return err
		}
	}

	r.record(b.Time, q)
	if err := r.ledger.CheckInvariant(q, r.cfg.InvariantTolerance); err != nil {
		return fmt.Errorf("backtest: bar %d: %w", i, err)
	}
	return nil
}

func (r *Runner) openPositions() []ledger.Position {
	ids := r.ledger.OpenIDs()
	out := make([]ledger.Position, 0, len(ids))
	for _, pid := range ids {
		p, _ := r.ledger.Position(pid)
		out = append(out, p)
	}
	return out
}

// submit routes a strategy request. Rejections are logged by the engine and
// do not stop the run.
func (r *Runner) submit(req sim.OrderRequest, q market.Quote) error {
	if req.Kind != sim.Market {
		_, _ = r.engine.SubmitPending(req, q.Time)
		return nil
	}

	if req.ClosePosition != 0 {
		p, ok := r.ledger.Position(req.ClosePosition)
		if !ok || p.Closed {
			r.log.WithField("position", req.ClosePosition).Warn("close request for a position that is not open")
			return nil
		}
		// a close always takes the opposite side; no volume means all of it
		req.Side = p.Side.Opposite()
		if req.Volume <= 0 || req.Volume > p.Volume {
			req.Volume = p.Volume
		}
	}

	exec, err := r.engine.SubmitMarket(req, q)
	if err != nil {
		if _, ok := sim.AsRejected(err); ok {
			return nil
		}
		return fmt.Errorf("backtest: submit: %w", err)
	}
	return r.apply(req, exec)
}

// apply books the fills of one execution in the ledger. The first fill of an
// opening order opens a position; a split order's remainder increases it.
func (r *Runner) apply(req sim.OrderRequest, exec sim.Execution) error {
	for _, f := range exec.Fills {
		if f.Closes != 0 {
			reason := req.Tag
			if reason == "" {
				reason = "close"
			}
			if err := r.closeFill(f.Closes, f, reason); err != nil {
				return err
			}
			continue
		}

		if pid, ok := r.orderPos[f.OrderID]; ok {
			if err := r.ledger.Increase(pid, f); err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
			continue
		}
		pid, err := r.ledger.Open(f, req.StopLoss, req.TakeProfit)
		if err != nil {
			return fmt.Errorf("backtest: %w", err)
		}
		r.orderPos[f.OrderID] = pid
	}
	return nil
}

func (r *Runner) closeFill(pid int, f sim.Fill, reason string) error {
	if _, err := r.ledger.Close(pid, f, reason); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	if p, _ := r.ledger.Position(pid); p.Closed {
		r.trades = append(r.trades, tradeOf(p))
	}
	return nil
}

func (r *Runner) record(t time.Time, q market.Quote) {
	eq := r.ledger.Equity(q)
	r.prevPeak = r.peak
	r.peak = math.Max(r.peak, eq)

	var dd float64
	if r.peak > 0 {
		dd = math.Max(0, r.peak-eq) / r.peak
	}
	r.equity = append(r.equity, EquityPoint{
		Time:     t,
		Balance:  r.ledger.Balance(),
		Equity:   eq,
		Drawdown: dd,
	})
}

// closeAll closes what is still open at the last mark and restates the last
// equity point.
func (r *Runner) closeAll() error {
	if len(r.equity) == 0 {
		return nil
	}
	q := r.quote
	for _, pid := range r.ledger.OpenIDs() {
		p, _ := r.ledger.Position(pid)
		price := q.Bid
		if p.Side == sim.Sell {
			price = q.Ask
		}
		f := r.engine.CloseAt(pid, p.Side.Opposite(), p.Volume, price, EndOfData, q.Time)
		if err := r.closeFill(pid, f, EndOfData); err != nil {
			return err
		}
	}
	r.equity = r.equity[:len(r.equity)-1]
	r.peak = r.prevPeak
	r.record(q.Time, q)
	return nil
}

func (r *Runner) buildResult() *Result {
	runID := r.cfg.RunID
	if runID == "" {
		runID = id.New()
	}
	res := &Result{
		RunID:          runID,
		Strategy:       r.strategy.Name(),
		Instrument:     r.series.Instrument,
		State:          r.state,
		Seed:           r.cfg.Seed,
		Bars:           len(r.equity),
		InitialBalance: r.cfg.Ledger.InitialBalance,
		Balance:        r.ledger.Balance(),
		Equity:         r.cfg.Ledger.InitialBalance,
		Swap:           r.ledger.SwapTotal(),
		fills:          r.engine.Fills(),
		orders:         r.engine.Orders(),
		trades:         append([]Trade(nil), r.trades...),
		equity:         append([]EquityPoint(nil), r.equity...),
	}
	if n := len(r.equity); n > 0 {
		res.Start = r.equity[0].Time
		res.End = r.equity[n-1].Time
		res.Equity = r.equity[n-1].Equity
	}

	inst := r.cfg.Ledger.Instrument
	for _, f := range res.fills {
		res.Commission += f.Commission
		rate, err := market.QuoteToAccountRate(inst, r.cfg.Ledger.AccountCurrency, f.Price)
		if err != nil {
			rate = 1
		}
		res.Slippage += f.Slippage * f.Volume * inst.ContractSize * rate
	}
	for _, o := range res.orders {
		if o.Request.Tag == EndOfData || o.Request.Tag == ledger.ReasonStopLoss || o.Request.Tag == ledger.ReasonTakeProfit {
			continue
		}
		res.Orders++
		if o.Status == sim.StatusRejected {
			res.Rejected++
		}
	}

	res.summarize()
	return res
}
