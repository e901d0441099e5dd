package strategies

import (
	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// Alternating sends one order every Every bars: it closes whatever is open,
// otherwise opens a position on the side opposite to the last one. On a flat
// price it measures pure trading cost.
type Alternating struct {
	Volume float64
	Every  int

	first sim.Side
	next  sim.Side
}

func NewAlternating(p Params) *Alternating {
	every := p.Every
	if every < 1 {
		every = 1
	}
	first := p.Side
	if !first.Valid() {
		first = sim.Buy
	}
	return &Alternating{Volume: p.Volume, Every: every, first: first, next: first}
}

func (s *Alternating) Name() string { return "alternating" }

func (s *Alternating) Reset() { s.next = s.first }

func (s *Alternating) OnBar(ctx *backtest.Context, _ market.Bar) []sim.OrderRequest {
	if ctx.Index%s.Every != 0 {
		return nil
	}
	if len(ctx.Positions) > 0 {
		p := ctx.Positions[0]
		return []sim.OrderRequest{{
			Side:          p.Side.Opposite(),
			Kind:          sim.Market,
			Volume:        p.Volume,
			ClosePosition: p.ID,
			Tag:           "alternate",
		}}
	}
	side := s.next
	s.next = side.Opposite()
	return []sim.OrderRequest{{Side: side, Kind: sim.Market, Volume: s.Volume, Tag: "alternate"}}
}
