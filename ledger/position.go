package ledger

import (
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// Leg is one fill applied to a position. Volume is signed: positive adds to
// a long or reduces a short.
type Leg struct {
	FillID     int
	Volume     float64
	Price      float64
	Commission float64
	Time       time.Time
}

// Position is one open or closed position. Volume is what is still open.
type Position struct {
	ID         int
	Side       sim.Side
	Volume     float64
	OpenPrice  float64 // volume weighted over the opening legs
	OpenTime   time.Time
	StopLoss   float64 // 0 = none
	TakeProfit float64 // 0 = none

	// Commission is the open commission not yet realized.
	Commission  float64
	SwapAccrued float64
	Realized    float64

	Legs []Leg

	Closed      bool
	CloseTime   time.Time
	ClosePrice  float64 // volume weighted over the closing legs
	CloseReason string

	closedVolume float64
	maxVolume    float64
}

// MaxVolume is the largest volume the position held.
func (p Position) MaxVolume() float64 { return p.maxVolume }

// NetVolume is the signed sum of the position's legs.
func (p Position) NetVolume() float64 {
	var v float64
	for _, l := range p.Legs {
		v += l.Volume
	}
	return v
}

func (p Position) clone() Position {
	p.Legs = append([]Leg(nil), p.Legs...)
	return p
}

// mark is the price a position is valued at: bid for a long, ask for a short.
func (p *Position) mark(bid, ask float64) float64 {
	if p.Side == sim.Sell {
		return ask
	}
	return bid
}

// extremes returns the worst and best marks the position saw while the mid
// traded between low and high, with q's spread applied around the range.
func (p *Position) extremes(q market.Quote, low, high float64) (worst, best float64) {
	half := q.Spread() / 2
	mark := p.mark(q.Bid, q.Ask)
	if p.Side == sim.Sell {
		return max(high+half, mark), min(low+half, mark)
	}
	return min(low-half, mark), max(high-half, mark)
}

func (p *Position) hitStopLoss(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Side == sim.Buy {
		return price <= p.StopLoss
	}
	return price >= p.StopLoss
}

func (p *Position) hitTakeProfit(price float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	if p.Side == sim.Buy {
		return price >= p.TakeProfit
	}
	return price <= p.TakeProfit
}
