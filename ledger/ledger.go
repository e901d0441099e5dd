// Package ledger tracks positions, realized and unrealized P&L, swap and
// stop-loss/take-profit triggers for one run.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/logging"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

var (
	ErrUnknownPosition = errors.New("unknown position")
	ErrPositionClosed  = errors.New("position is closed")
	ErrSideMismatch    = errors.New("fill side does not match position")
	ErrOverClose       = errors.New("close volume exceeds open volume")
)

const volumeEps = 1e-9

// Trigger reasons.
const (
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
)

type Config struct {
	InitialBalance  float64
	AccountCurrency string
	Instrument      market.Instrument

	// Swap is charged at RolloverHour (UTC) every weekday; the rollover on
	// TripleSwapDay counts three nights.
	RolloverHour  int
	TripleSwapDay time.Weekday
	DisableSwap   bool
}

func DefaultConfig() Config {
	return Config{
		InitialBalance:  10_000,
		AccountCurrency: "USD",
		Instrument:      market.Instruments["EUR_USD"],
		RolloverHour:    0,
		TripleSwapDay:   time.Wednesday,
	}
}

// Trigger is a stop-loss or take-profit hit found while marking to market.
// The position should be closed at Level.
type Trigger struct {
	Position int
	Reason   string
	Level    float64
	Side     sim.Side // side of the closing fill
	Volume   float64
}

// Ledger owns the positions of one run. Not safe for concurrent use.
type Ledger struct {
	cfg Config
	log logrus.FieldLogger

	positions []Position
	realized  float64
	swapTotal float64

	lastMark time.Time
	quote    market.Quote
	rate     float64
}

// New validates cfg and returns an empty ledger.
func New(cfg Config, log logrus.FieldLogger) (*Ledger, error) {
	if cfg.Instrument.ContractSize <= 0 {
		return nil, fmt.Errorf("ledger: instrument %q: contract size must be positive", cfg.Instrument.Name)
	}
	if cfg.RolloverHour < 0 || cfg.RolloverHour > 23 {
		return nil, fmt.Errorf("ledger: rollover hour %d out of range", cfg.RolloverHour)
	}
	if _, err := market.QuoteToAccountRate(cfg.Instrument, cfg.AccountCurrency, 1); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	return &Ledger{cfg: cfg, log: logging.OrDiscard(log), rate: 1}, nil
}

func (l *Ledger) Config() Config { return l.cfg }

// rateAt converts quote currency into account currency at mid.
func (l *Ledger) rateAt(mid float64) float64 {
	r, err := market.QuoteToAccountRate(l.cfg.Instrument, l.cfg.AccountCurrency, mid)
	if err != nil || r <= 0 || math.IsInf(r, 0) {
		return l.rate
	}
	return r
}

func (l *Ledger) position(id int) (*Position, error) {
	if id < 1 || id > len(l.positions) {
		return nil, fmt.Errorf("ledger: position %d: %w", id, ErrUnknownPosition)
	}
	return &l.positions[id-1], nil
}

func (l *Ledger) pnl(p *Position, volume, price, rate float64) float64 {
	return p.Side.Sign() * volume * l.cfg.Instrument.ContractSize * (price - p.OpenPrice) * rate
}

// Open starts a new position from f. Stop-loss and take-profit are levels,
// 0 meaning none.
func (l *Ledger) Open(f sim.Fill, stopLoss, takeProfit float64) (int, error) {
	if !f.Side.Valid() || f.Volume <= 0 {
		return 0, fmt.Errorf("ledger: open from fill %d: invalid side or volume", f.ID)
	}
	l.positions = append(l.positions, Position{
		ID:         len(l.positions) + 1,
		Side:       f.Side,
		Volume:     f.Volume,
		OpenPrice:  f.Price,
		OpenTime:   f.Time,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Commission: f.Commission,
		Legs:       []Leg{legOf(f)},
		maxVolume:  f.Volume,
	})
	p := &l.positions[len(l.positions)-1]

	l.log.WithFields(logrus.Fields{
		"position": p.ID,
		"side":     p.Side,
		"volume":   p.Volume,
		"price":    p.OpenPrice,
	}).Debug("position opened")
	return p.ID, nil
}

func legOf(f sim.Fill) Leg {
	return Leg{FillID: f.ID, Volume: f.Side.Sign() * f.Volume, Price: f.Price, Commission: f.Commission, Time: f.Time}
}

// Increase adds a same-side fill to an open position, averaging the open
// price.
func (l *Ledger) Increase(id int, f sim.Fill) error {
	p, err := l.position(id)
	if err != nil {
		return err
	}
	if p.Closed {
		return fmt.Errorf("ledger: increase position %d: %w", id, ErrPositionClosed)
	}
	if f.Side != p.Side {
		return fmt.Errorf("ledger: increase position %d with %s fill: %w", id, f.Side, ErrSideMismatch)
	}
	total := p.Volume + f.Volume
	p.OpenPrice = (p.OpenPrice*p.Volume + f.Price*f.Volume) / total
	p.Volume = total
	p.Commission += f.Commission
	p.Legs = append(p.Legs, legOf(f))
	p.maxVolume = math.Max(p.maxVolume, total)
	return nil
}

// Close reduces position id by the volume of the opposite-side fill f. The
// open commission and accrued swap are realized pro rata; the position is
// closed when no volume remains.
func (l *Ledger) Close(id int, f sim.Fill, reason string) (float64, error) {
	p, err := l.position(id)
	if err != nil {
		return 0, err
	}
	if p.Closed {
		return 0, fmt.Errorf("ledger: close position %d: %w", id, ErrPositionClosed)
	}
	if f.Side != p.Side.Opposite() {
		return 0, fmt.Errorf("ledger: close position %d with %s fill: %w", id, f.Side, ErrSideMismatch)
	}
	if f.Volume > p.Volume+volumeEps {
		return 0, fmt.Errorf("ledger: close %v of position %d holding %v: %w", f.Volume, id, p.Volume, ErrOverClose)
	}

	v := math.Min(f.Volume, p.Volume)
	share := v / p.Volume
	openComm := p.Commission * share
	swap := p.SwapAccrued * share

	pnl := l.pnl(p, v, f.Price, l.rateAt(f.Price)) - openComm - f.Commission + swap

	p.Commission -= openComm
	p.SwapAccrued -= swap
	p.Volume -= v
	p.Realized += pnl
	p.Legs = append(p.Legs, legOf(f))
	p.ClosePrice = (p.ClosePrice*p.closedVolume + f.Price*v) / (p.closedVolume + v)
	p.closedVolume += v
	p.CloseReason = reason
	p.CloseTime = f.Time
	l.realized += pnl

	if p.Volume <= volumeEps {
		p.Volume = 0
		p.Closed = true
		p.Commission = 0
		p.SwapAccrued = 0
	}

	l.log.WithFields(logrus.Fields{
		"position": id,
		"volume":   v,
		"price":    f.Price,
		"pnl":      pnl,
		"reason":   reason,
		"closed":   p.Closed,
	}).Debug("position reduced")
	return pnl, nil
}

// Modify replaces the stop-loss and take-profit levels. 0 clears a level.
func (l *Ledger) Modify(id int, stopLoss, takeProfit float64) error {
	p, err := l.position(id)
	if err != nil {
		return err
	}
	if p.Closed {
		return fmt.Errorf("ledger: modify position %d: %w", id, ErrPositionClosed)
	}
	p.StopLoss, p.TakeProfit = stopLoss, takeProfit
	return nil
}

// MarkToMarket revalues the book at q: it accrues swap for every rollover
// passed since the previous mark and returns the stop-loss/take-profit hits,
// in position order. Stop-loss is checked first and wins when both levels
// are breached. Only the quote itself is tested against the levels; use
// MarkBar when the bar's range is known.
func (l *Ledger) MarkToMarket(q market.Quote, t time.Time) []Trigger {
	mid := q.Mid()
	return l.markRange(q, mid, mid, t)
}

// MarkBar is MarkToMarket for a bar whose mid traded between low and high.
// The levels are tested against the bid/ask band around that range: a long
// stops out when the bid at low reaches its stop and takes profit when the
// bid at high reaches its target, a short the same on the ask. Positions
// opened at t only see q, since their fill came at the close.
func (l *Ledger) MarkBar(q market.Quote, low, high float64, t time.Time) []Trigger {
	return l.markRange(q, low, high, t)
}

func (l *Ledger) markRange(q market.Quote, low, high float64, t time.Time) []Trigger {
	l.quote = q
	l.rate = l.rateAt(q.Mid())

	if !l.cfg.DisableSwap && !l.lastMark.IsZero() {
		l.accrueSwap(l.lastMark, t)
	}
	l.lastMark = t

	var out []Trigger
	for i := range l.positions {
		p := &l.positions[i]
		if p.Closed {
			continue
		}
		mark := p.mark(q.Bid, q.Ask)
		worst, best := mark, mark
		if !p.OpenTime.Equal(t) {
			worst, best = p.extremes(q, low, high)
		}

		var tr *Trigger
		switch {
		case p.hitStopLoss(worst):
			tr = &Trigger{Position: p.ID, Reason: ReasonStopLoss, Level: p.StopLoss}
		case p.hitTakeProfit(best):
			tr = &Trigger{Position: p.ID, Reason: ReasonTakeProfit, Level: p.TakeProfit}
		}
		if tr == nil {
			continue
		}
		tr.Side = p.Side.Opposite()
		tr.Volume = p.Volume
		out = append(out, *tr)

		l.log.WithFields(logrus.Fields{
			"position": p.ID,
			"reason":   tr.Reason,
			"level":    tr.Level,
			"mark":     mark,
		}).Debug("exit triggered")
	}
	return out
}

// Unrealized is the open P&L at q, net of the unrealized open commission and
// including accrued swap.
func (l *Ledger) Unrealized(q market.Quote) float64 {
	rate := l.rateAt(q.Mid())
	var sum float64
	for i := range l.positions {
		p := &l.positions[i]
		if p.Closed {
			continue
		}
		sum += l.pnl(p, p.Volume, p.mark(q.Bid, q.Ask), rate) - p.Commission + p.SwapAccrued
	}
	return sum
}

func (l *Ledger) Realized() float64 { return l.realized }

// Balance is the initial balance plus realized P&L.
func (l *Ledger) Balance() float64 { return l.cfg.InitialBalance + l.realized }

// Equity is balance plus unrealized P&L at q.
func (l *Ledger) Equity(q market.Quote) float64 {
	return l.Balance() + l.Unrealized(q)
}

// SwapTotal is all swap accrued so far, realized or not.
func (l *Ledger) SwapTotal() float64 { return l.swapTotal }

// Position returns a copy of one position.
func (l *Ledger) Position(id int) (Position, bool) {
	p, err := l.position(id)
	if err != nil {
		return Position{}, false
	}
	return p.clone(), true
}

// Positions returns copies of every position, open and closed, by id.
func (l *Ledger) Positions() []Position {
	out := make([]Position, len(l.positions))
	for i := range l.positions {
		out[i] = l.positions[i].clone()
	}
	return out
}

// OpenIDs lists the open positions in id order.
func (l *Ledger) OpenIDs() []int {
	var ids []int
	for i := range l.positions {
		if !l.positions[i].Closed {
			ids = append(ids, l.positions[i].ID)
		}
	}
	return ids
}

// CheckInvariant verifies the ledger's bookkeeping at q: every position's
// open volume is the signed sum of its legs, realized P&L adds up across
// positions, and Equity matches equity rebuilt from the legs alone (average
// cost replay, all leg commissions, all swap accrued), all within tol.
func (l *Ledger) CheckInvariant(q market.Quote, tol float64) error {
	var realized float64
	for i := range l.positions {
		p := &l.positions[i]
		if d := math.Abs(p.NetVolume() - p.Side.Sign()*p.Volume); d > tol {
			return fmt.Errorf("ledger: position %d volume %v differs from its fills by %v", p.ID, p.Volume, d)
		}
		realized += p.Realized
	}
	if math.Abs(realized-l.realized) > tol*math.Max(1, math.Abs(l.realized)) {
		return fmt.Errorf("ledger: realized %v differs from position sum %v", l.realized, realized)
	}
	eq := l.Equity(q)
	want := l.equityFromLegs(q)
	if math.Abs(eq-want) > tol*math.Max(1, math.Abs(want)) {
		return fmt.Errorf("ledger: equity %v differs from %v rebuilt from fills", eq, want)
	}
	return nil
}

func (l *Ledger) equityFromLegs(q market.Quote) float64 {
	cs := l.cfg.Instrument.ContractSize
	rate := l.rateAt(q.Mid())
	eq := l.cfg.InitialBalance + l.swapTotal
	for i := range l.positions {
		p := &l.positions[i]
		sign := p.Side.Sign()
		var vol, avg float64
		for _, leg := range p.Legs {
			eq -= leg.Commission
			v := math.Abs(leg.Volume)
			if leg.Volume*sign > 0 {
				avg = (avg*vol + leg.Price*v) / (vol + v)
				vol += v
				continue
			}
			eq += sign * v * cs * (leg.Price - avg) * l.rateAt(leg.Price)
			vol -= v
		}
		if !p.Closed {
			eq += sign * vol * cs * (p.mark(q.Bid, q.Ask) - avg) * rate
		}
	}
	return eq
}
