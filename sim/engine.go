// Package sim is the execution engine: it matches market and pending orders
// against the synthetic order book and emits fills.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsarmando/Ryze-Agents-sub002/book"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/logging"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// Config holds the execution options.
type Config struct {
	SlippageMultiplier float64
	CommissionPerLot   float64
	EnablePartialFills bool
	EnableMarketImpact bool
	LiquidityFactor    float64
	ImpactCoefficient  float64
	ImpactThreshold    float64

	// SpreadCap bounds acceptable slippage: anything above 2x is rejected.
	// Zero uses the book's maximum spread.
	SpreadCap float64
}

func DefaultConfig() Config {
	return Config{
		SlippageMultiplier: 0.1,
		CommissionPerLot:   7,
		EnablePartialFills: true,
		EnableMarketImpact: true,
		LiquidityFactor:    1,
		ImpactCoefficient:  0.1,
		ImpactThreshold:    5,
	}
}

func (c Config) model() SlippageModel {
	lf := c.LiquidityFactor
	if lf <= 0 {
		lf = 1
	}
	return SlippageModel{
		Multiplier:         c.SlippageMultiplier,
		ImpactCoefficient:  c.ImpactCoefficient,
		ImpactThreshold:    c.ImpactThreshold,
		LiquidityFactor:    lf,
		EnableMarketImpact: c.EnableMarketImpact,
	}
}

// Engine owns the orders and fills of one run. It is not safe for
// concurrent use; each run has its own engine.
type Engine struct {
	cfg     Config
	model   SlippageModel
	book    *book.Book
	session market.Session
	rand    rng.Rand
	log     logrus.FieldLogger

	orders  []Order
	fills   []Fill
	pending []int
}

// New wires an engine to its book, trading session and random source.
func New(cfg Config, b *book.Book, session market.Session, r rng.Rand, log logrus.FieldLogger) *Engine {
	if session == nil {
		session = market.AlwaysOpen{}
	}
	return &Engine{
		cfg:     cfg,
		model:   cfg.model(),
		book:    b,
		session: session,
		rand:    r,
		log:     logging.OrDiscard(log),
	}
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) newOrder(req OrderRequest, t time.Time) *Order {
	e.orders = append(e.orders, Order{
		ID:      len(e.orders) + 1,
		Request: req,
		Status:  StatusPending,
		Created: t,
		Updated: t,
	})
	return &e.orders[len(e.orders)-1]
}

func (e *Engine) order(id int) *Order {
	if id < 1 || id > len(e.orders) {
		return nil
	}
	return &e.orders[id-1]
}

func (e *Engine) reject(o *Order, reason RejectReason, t time.Time, format string, args ...any) error {
	o.Status = StatusRejected
	o.Reason = reason
	o.Updated = t
	err := &RejectedOrder{OrderID: o.ID, Reason: reason, Detail: fmt.Sprintf(format, args...)}
	e.log.WithFields(logrus.Fields{
		"order":  o.ID,
		"side":   o.Request.Side,
		"volume": o.Request.Volume,
		"reason": reason,
	}).Warn(err.Detail)
	return err
}

func (e *Engine) addFill(o *Order, f Fill) Fill {
	f.ID = len(e.fills) + 1
	f.OrderID = o.ID
	f.Closes = o.Request.ClosePosition
	e.fills = append(e.fills, f)
	o.Fills = append(o.Fills, f.ID)
	return f
}

func (e *Engine) commission(volume float64) float64 {
	return e.cfg.CommissionPerLot * volume
}

func validVolume(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SubmitMarket executes a market order against the current book. A
// rejection is returned as *RejectedOrder and the order is recorded as
// rejected.
func (e *Engine) SubmitMarket(req OrderRequest, q market.Quote) (Execution, error) {
	o := e.newOrder(req, q.Time)

	switch {
	case !validVolume(req.Volume):
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonInvalidVolume, q.Time, "volume %v must be positive", req.Volume)
	case req.Kind != Market || !req.Side.Valid():
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonInvalidRequest, q.Time, "%s %s is not a market order", req.Kind, req.Side)
	case !e.session.IsOpen(q.Time):
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonMarketClosed, q.Time, "market closed at %s", q.Time.Format(time.RFC3339))
	}

	ref := req.Price
	if ref <= 0 {
		ref = q.Mid()
	}
	return e.execute(o, q, ref, "market")
}

// execute fills o at the touch plus slippage. ref is the price slippage is
// measured from.
func (e *Engine) execute(o *Order, q market.Quote, ref float64, reason string) (Execution, error) {
	req := o.Request
	side, best := book.Ask, q.Ask
	if req.Side == Sell {
		side, best = book.Bid, q.Bid
	}

	if e.book.TotalDepth(side) <= 0 {
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonNoLiquidity, q.Time, "no liquidity on the %s side", side)
	}

	spread := q.Spread()
	slip := e.model.Estimate(req.Volume, spread, e.book.VolatilityFactor(), e.book.Liquidity()) * Jitter(e.rand)

	limit := e.cfg.SpreadCap
	if limit <= 0 {
		limit = e.book.MaxSpread()
	}
	top := e.book.DepthAt(side, 0).Volume
	split := req.Volume > top

	worst := slip
	if split {
		worst = 2 * slip
	}
	if worst > 2*limit {
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonExcessiveSlippage, q.Time, "slippage %.6f above cap %.6f", worst, 2*limit)
	}

	sign := req.Side.Sign()
	fillAt := func(volume, slippage float64, partial bool) Fill {
		price := best + sign*slippage
		return e.addFill(o, Fill{
			Side:       req.Side,
			Volume:     volume,
			Price:      price,
			Slippage:   sign * (price - ref),
			Commission: e.commission(volume),
			Time:       q.Time,
			Partial:    partial,
			Reason:     reason,
		})
	}

	if !split {
		f := fillAt(req.Volume, slip, false)
		o.Status = StatusFilled
		o.Updated = q.Time
		return Execution{OrderID: o.ID, Status: o.Status, Fills: []Fill{f}}, nil
	}

	if !e.cfg.EnablePartialFills {
		return Execution{OrderID: o.ID, Status: StatusRejected},
			e.reject(o, ReasonInsufficientDepth, q.Time, "volume %v exceeds top-of-book depth %v", req.Volume, top)
	}

	first := fillAt(top, slip, false)
	rest := fillAt(req.Volume-top, 2*slip, true)
	o.Status = StatusPartiallyFilled
	o.Updated = q.Time

	e.log.WithFields(logrus.Fields{
		"order":  o.ID,
		"top":    top,
		"volume": req.Volume,
	}).Debug("order split across the touch")

	return Execution{OrderID: o.ID, Status: o.Status, Fills: []Fill{first, rest}}, nil
}

// SubmitPending stores a limit or stop order. It does not execute now.
func (e *Engine) SubmitPending(req OrderRequest, t time.Time) (int, error) {
	o := e.newOrder(req, t)

	switch {
	case !validVolume(req.Volume):
		return o.ID, e.reject(o, ReasonInvalidVolume, t, "volume %v must be positive", req.Volume)
	case req.Kind != Limit && req.Kind != Stop:
		return o.ID, e.reject(o, ReasonInvalidRequest, t, "%s is not a pending order kind", req.Kind)
	case !req.Side.Valid():
		return o.ID, e.reject(o, ReasonInvalidRequest, t, "invalid side %s", req.Side)
	case req.Price <= 0:
		return o.ID, e.reject(o, ReasonInvalidRequest, t, "pending order needs a price level")
	case req.ClosePosition != 0:
		return o.ID, e.reject(o, ReasonInvalidRequest, t, "pending orders cannot close positions")
	case !req.Expiration.IsZero() && !t.Before(req.Expiration):
		return o.ID, e.reject(o, ReasonInvalidRequest, t, "already expired at %s", req.Expiration.Format(time.RFC3339))
	}

	e.pending = append(e.pending, o.ID)
	return o.ID, nil
}

// CancelPending cancels a pending order.
func (e *Engine) CancelPending(id int, t time.Time) error {
	o := e.order(id)
	if o == nil {
		return fmt.Errorf("cancel order %d: %w", id, ErrUnknownOrder)
	}
	if o.Status != StatusPending {
		return fmt.Errorf("cancel order %d (%s): %w", id, o.Status, ErrNotPending)
	}
	o.Status = StatusCancelled
	o.Updated = t
	e.dropPending(id)
	return nil
}

func (e *Engine) dropPending(id int) {
	for i, pid := range e.pending {
		if pid == id {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// Tick scans the pending orders at quote q, in submission order. Expired
// orders are cancelled without a fill; limit orders fill at their level and
// stop orders execute as market orders. Only orders that changed state are
// reported.
func (e *Engine) Tick(q market.Quote) []Execution {
	var out []Execution
	open := e.session.IsOpen(q.Time)

	keep := e.pending[:0]
	for _, id := range e.pending {
		o := e.order(id)
		req := o.Request

		if !req.Expiration.IsZero() && !q.Time.Before(req.Expiration) {
			o.Status = StatusExpired
			o.Updated = q.Time
			out = append(out, Execution{OrderID: id, Status: StatusExpired})
			continue
		}
		if !open || !triggered(req, q) {
			keep = append(keep, id)
			continue
		}

		switch req.Kind {
		case Limit:
			side := book.Ask
			if req.Side == Sell {
				side = book.Bid
			}
			if e.book.TotalDepth(side) <= 0 {
				keep = append(keep, id)
				continue
			}
			f := e.addFill(o, Fill{
				Side:       req.Side,
				Volume:     req.Volume,
				Price:      req.Price,
				Commission: e.commission(req.Volume),
				Time:       q.Time,
				Reason:     "limit",
			})
			o.Status = StatusFilled
			o.Updated = q.Time
			out = append(out, Execution{OrderID: id, Status: StatusFilled, Fills: []Fill{f}})

		case Stop:
			exec, err := e.execute(o, q, req.Price, "stop")
			if err != nil {
				out = append(out, Execution{OrderID: id, Status: StatusRejected})
				continue
			}
			out = append(out, exec)
		}
	}
	e.pending = keep
	return out
}

// CloseAt books the fill that closes volume of position pos at exactly
// price, without slippage. It is used for stop-loss and take-profit exits
// at the breached level. side is the side of the closing fill.
func (e *Engine) CloseAt(pos int, side Side, volume, price float64, reason string, t time.Time) Fill {
	o := e.newOrder(OrderRequest{
		Side:          side,
		Kind:          Market,
		Volume:        volume,
		Price:         price,
		ClosePosition: pos,
		Tag:           reason,
	}, t)
	f := e.addFill(o, Fill{
		Side:       side,
		Volume:     volume,
		Price:      price,
		Commission: e.commission(volume),
		Time:       t,
		Reason:     reason,
	})
	o.Status = StatusFilled
	o.Updated = t
	return f
}

// Order returns a copy of one order record.
func (e *Engine) Order(id int) (Order, bool) {
	o := e.order(id)
	if o == nil {
		return Order{}, false
	}
	cp := *o
	cp.Fills = append([]int(nil), o.Fills...)
	return cp, true
}

// Orders returns a copy of the order arena.
func (e *Engine) Orders() []Order {
	out := make([]Order, len(e.orders))
	for i := range e.orders {
		out[i], _ = e.Order(i + 1)
	}
	return out
}

// Fills returns a copy of every fill, in execution order.
func (e *Engine) Fills() []Fill {
	return append([]Fill(nil), e.fills...)
}

// Pending returns the ids of orders still waiting to trigger.
func (e *Engine) Pending() []int {
	return append([]int(nil), e.pending...)
}
