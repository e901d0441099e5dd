// Package strategies holds the bar strategies the CLI and tests run through
// the backtest runner.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/risk"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// Params is the union of the knobs the registered strategies read. Each
// strategy ignores what it does not use.
type Params struct {
	Instrument      market.Instrument
	AccountCurrency string

	Side   sim.Side
	Volume float64 // lots; used when RiskPct is 0
	Every  int     // bars between alternating orders

	FastPeriod int
	SlowPeriod int
	ADXPeriod  int
	MinADX     float64 // 0 disables the ADX filter

	RiskPct   float64 // fraction of equity risked per trade
	StopPips  float64
	ATRPeriod int
	ATRMult   float64 // > 0 puts the stop ATRMult ATRs away instead of StopPips
	RR        float64 // take-profit multiple of the stop distance

	Policy *risk.Policy
}

func DefaultParams() Params {
	return Params{
		Instrument:      market.Instruments["EUR_USD"],
		AccountCurrency: "USD",
		Side:            sim.Buy,
		Volume:          1,
		Every:           1,
		FastPeriod:      10,
		SlowPeriod:      30,
		ADXPeriod:       14,
		ATRPeriod:       14,
		StopPips:        20,
		RR:              2,
	}
}

// Factory builds a fresh strategy instance.
type Factory func(Params) (backtest.Strategy, error)

var registry = map[string]Factory{
	"noop":        func(Params) (backtest.Strategy, error) { return Noop{}, nil },
	"open_once":   func(p Params) (backtest.Strategy, error) { return NewOpenOnce(p), nil },
	"alternating": func(p Params) (backtest.Strategy, error) { return NewAlternating(p), nil },
	"ema_cross":   func(p Params) (backtest.Strategy, error) { return NewEMACross(p) },
}

// Register adds or replaces a named strategy.
func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// Names lists the registered strategies, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByName builds a registered strategy. Names are case-insensitive and
// accept '-' for '_'.
func ByName(name string, p Params) (backtest.Strategy, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "none":
		return "noop"
	case "emacross":
		return "ema_cross"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// protect returns stop-loss and take-profit levels for an entry at price.
func protect(side sim.Side, price, stopDist, rr float64) (sl, tp float64) {
	if stopDist <= 0 {
		return 0, 0
	}
	sl = price - side.Sign()*stopDist
	if rr > 0 {
		tp = price + side.Sign()*stopDist*rr
	}
	return sl, tp
}

// entryPrice is the side of the touch a market order of side fills against.
func entryPrice(side sim.Side, q market.Quote) float64 {
	if side == sim.Sell {
		return q.Bid
	}
	return q.Ask
}
