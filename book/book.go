// Package book models a synthetic order book around an observed mid price:
// a dynamic spread and five depth levels per side that react to session,
// volatility and liquidity events.
package book

import (
	"math"
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// Levels per side.
const Depth = 5

const eps = 1e-12

// Side of the book.
type Side int8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

// Level is one synthetic depth level.
type Level struct {
	Price      float64
	Volume     float64
	OrderCount int
}

// Config tunes the model. Volumes are in lots.
type Config struct {
	BaseSpread       float64
	SpreadMultiplier float64
	DepthPerLevel    float64
}

// DefaultConfig is a 1 pip EUR_USD-style book with 10 lots at the touch.
func DefaultConfig() Config {
	return Config{
		BaseSpread:       0.0001,
		SpreadMultiplier: 1,
		DepthPerLevel:    10,
	}
}

type drain struct {
	severity float64
	hold     int // bars left at full severity
	recover  int // length of the linear recovery
	step     int // bars into recovery
}

type widen struct {
	multiplier float64
	left       int
}

// Book is the order book model. It is owned by a single run and is not safe
// for concurrent use.
type Book struct {
	cfg   Config
	state *market.State

	center    float64
	spread    float64
	liquidity float64
	time      time.Time

	bids [Depth]Level
	asks [Depth]Level

	drain *drain
	widen *widen
}

// New returns a book; state may be nil, in which case volatility is ignored.
func New(cfg Config, state *market.State) *Book {
	if cfg.SpreadMultiplier <= 0 {
		cfg.SpreadMultiplier = 1
	}
	if cfg.DepthPerLevel <= 0 {
		cfg.DepthPerLevel = DefaultConfig().DepthPerLevel
	}
	return &Book{cfg: cfg, state: state, liquidity: 1}
}

// Initialize centres the book and resets the spread baseline and any
// pending liquidity or spread events.
func (b *Book) Initialize(center, baseSpread float64) {
	if baseSpread > 0 {
		b.cfg.BaseSpread = baseSpread
	}
	b.center = center
	b.liquidity = 1
	b.drain = nil
	b.widen = nil
	b.spread = b.base()
	b.rebuild()
}

func (b *Book) base() float64 {
	return b.cfg.BaseSpread * b.cfg.SpreadMultiplier
}

// MinSpread and MaxSpread are the clamp bounds.
func (b *Book) MinSpread() float64 { return 0.5 * b.base() }
func (b *Book) MaxSpread() float64 { return 10 * b.base() }

// Update advances the model by one bar. bid/ask give the observed centre;
// the returned quote is the tradable one. volume is accepted for callers that
// pass whole bars but is ignored: depth per level comes from DepthPerLevel and
// the liquidity events only, so a series without volume trades the same.
func (b *Book) Update(bid, ask, _ float64, t time.Time) market.Quote {
	b.advanceEvents()

	b.center = (bid + ask) / 2
	b.time = t

	spread := b.base() * SessionFactor(t) * b.VolatilityFactor() * b.liquiditySpreadFactor()
	if b.widen != nil {
		spread *= b.widen.multiplier
	}
	b.spread = clamp(spread, b.MinSpread(), b.MaxSpread())

	b.rebuild()
	return b.Quote()
}

// advanceEvents moves drain/widen schedules forward one bar.
func (b *Book) advanceEvents() {
	if w := b.widen; w != nil {
		if w.left <= 0 {
			b.widen = nil
		} else {
			w.left--
		}
	}

	d := b.drain
	if d == nil {
		return
	}
	switch {
	case d.hold > 0:
		d.hold--
		b.liquidity = 1 - d.severity
	case d.step < d.recover:
		d.step++
		frac := float64(d.step) / float64(d.recover)
		b.liquidity = (1 - d.severity) + d.severity*frac
	default:
		b.liquidity = 1
		b.drain = nil
	}
}

func (b *Book) liquiditySpreadFactor() float64 {
	if b.liquidity <= eps {
		return math.Inf(1)
	}
	return 1 / b.liquidity
}

// VolatilityFactor is the market state's current/average volatility ratio.
func (b *Book) VolatilityFactor() float64 {
	return b.state.VolatilityFactor()
}

// Liquidity is the current liquidity level, 1 at baseline, 0 when drained.
func (b *Book) Liquidity() float64 { return b.liquidity }

func (b *Book) CurrentSpread() float64 { return b.spread }

// Quote is the touch: centre ± half spread.
func (b *Book) Quote() market.Quote {
	half := b.spread / 2
	return market.Quote{Time: b.time, Bid: b.center - half, Ask: b.center + half}
}

// DepthAt returns one level; out-of-range indices return an empty level.
func (b *Book) DepthAt(side Side, level int) Level {
	if level < 0 || level >= Depth {
		return Level{}
	}
	if side == Ask {
		return b.asks[level]
	}
	return b.bids[level]
}

// Levels returns a copy of one side of the book, best first.
func (b *Book) Levels(side Side) []Level {
	out := make([]Level, Depth)
	for i := range out {
		out[i] = b.DepthAt(side, i)
	}
	return out
}

// TotalDepth sums the volume on one side.
func (b *Book) TotalDepth(side Side) float64 {
	var sum float64
	for i := 0; i < Depth; i++ {
		sum += b.DepthAt(side, i).Volume
	}
	return sum
}

// DrainLiquidity cuts every level's volume by severity (0..1) for
// durationBars bars, after which liquidity recovers linearly to baseline over
// another durationBars bars.
func (b *Book) DrainLiquidity(severity float64, durationBars int) {
	severity = clamp(severity, 0, 1)
	if durationBars < 1 {
		durationBars = 1
	}
	b.drain = &drain{severity: severity, hold: durationBars, recover: durationBars}
	b.liquidity = 1 - severity
	b.rebuild()
}

// WidenSpread multiplies the modelled spread for durationBars bars. The
// clamp still applies.
func (b *Book) WidenSpread(multiplier float64, durationBars int) {
	if multiplier <= 0 || durationBars < 1 {
		return
	}
	b.widen = &widen{multiplier: multiplier, left: durationBars}
}

func (b *Book) rebuild() {
	top := b.cfg.DepthPerLevel * b.liquidity
	half := b.spread / 2
	for i := 0; i < Depth; i++ {
		vol := top * (1 - 0.2*float64(i))
		if vol < eps {
			vol = 0
		}
		n := 0
		if vol > 0 {
			n = int(math.Max(1, math.Ceil(vol)))
		}
		off := half + float64(i)*half
		b.bids[i] = Level{Price: b.center - off, Volume: vol, OrderCount: n}
		b.asks[i] = Level{Price: b.center + off, Volume: vol, OrderCount: n}
	}
}

// SessionFactor scales the spread by UTC trading session.
func SessionFactor(t time.Time) float64 {
	switch h := t.UTC().Hour(); {
	case h < 7:
		return 1.5 // Asia
	case h < 12:
		return 1.0 // London
	case h < 16:
		return 0.8 // London/New York overlap
	case h < 21:
		return 1.0 // New York
	default:
		return 2.0 // rollover
	}
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return hi
	}
	return math.Min(hi, math.Max(lo, x))
}
