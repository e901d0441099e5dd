package backtest

import (
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/book"
	"github.com/vsarmando/Ryze-Agents-sub002/ledger"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// Strategy is called once per processed bar, after pending orders and
// exits have been handled. Market requests execute at this bar's quote;
// limit and stop requests are queued.
type Strategy interface {
	Name() string
	Reset()
	OnBar(ctx *Context, b market.Bar) []sim.OrderRequest
}

// Context is the read-only view a strategy gets of the run.
type Context struct {
	Index   int
	Time    time.Time
	GapBars int // missing bars since the previous bar, by the series step

	Quote   market.Quote
	Balance float64
	Equity  float64

	// Open positions, in id order.
	Positions []ledger.Position

	State *market.State
	Book  *book.Book // for scripted liquidity and spread events
}

// Position returns the open position with the given id.
func (c *Context) Position(id int) (ledger.Position, bool) {
	for _, p := range c.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return ledger.Position{}, false
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx *Context, b market.Bar) []sim.OrderRequest

func (f StrategyFunc) Name() string { return "func" }
func (f StrategyFunc) Reset() {}
func (f StrategyFunc) OnBar(ctx *Context, b market.Bar) []sim.OrderRequest {
	return f(ctx, b)
}
