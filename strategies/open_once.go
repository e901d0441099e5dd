package strategies

import (
	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// OpenOnce opens one market position on the first bar and holds it, with
// optional stop-loss and take-profit StopPips and StopPips*RR away.
type OpenOnce struct {
	Side     sim.Side
	Volume   float64
	StopDist float64
	RR       float64

	opened bool
}

func NewOpenOnce(p Params) *OpenOnce {
	side := p.Side
	if !side.Valid() {
		side = sim.Buy
	}
	return &OpenOnce{
		Side:     side,
		Volume:   p.Volume,
		StopDist: p.StopPips * p.Instrument.PipSize(),
		RR:       p.RR,
	}
}

func (s *OpenOnce) Name() string { return "open_once" }

func (s *OpenOnce) Reset() { s.opened = false }

func (s *OpenOnce) OnBar(ctx *backtest.Context, _ market.Bar) []sim.OrderRequest {
	if s.opened {
		return nil
	}
	s.opened = true

	sl, tp := protect(s.Side, entryPrice(s.Side, ctx.Quote), s.StopDist, s.RR)
	return []sim.OrderRequest{{
		Side:       s.Side,
		Kind:       sim.Market,
		Volume:     s.Volume,
		StopLoss:   sl,
		TakeProfit: tp,
		Tag:        "open_once",
	}}
}
