package strategies

import (
	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// Scheduled replays a fixed list of order requests keyed by bar index. A
// request with ClosePosition < 0 closes the |n|-th open position (1 = oldest)
// as of that bar, so scripts need not know ledger ids in advance.
type Scheduled struct {
	name   string
	orders map[int][]sim.OrderRequest
}

func NewScheduled(name string, orders map[int][]sim.OrderRequest) *Scheduled {
	if name == "" {
		name = "scheduled"
	}
	copied := make(map[int][]sim.OrderRequest, len(orders))
	for i, reqs := range orders {
		copied[i] = append([]sim.OrderRequest(nil), reqs...)
	}
	return &Scheduled{name: name, orders: copied}
}

func (s *Scheduled) Name() string { return s.name }

func (s *Scheduled) Reset() {}

func (s *Scheduled) OnBar(ctx *backtest.Context, _ market.Bar) []sim.OrderRequest {
	reqs := s.orders[ctx.Index]
	if len(reqs) == 0 {
		return nil
	}
	out := make([]sim.OrderRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.ClosePosition < 0 {
			n := -r.ClosePosition
			if n > len(ctx.Positions) {
				continue
			}
			p := ctx.Positions[n-1]
			r.ClosePosition = p.ID
			r.Side = p.Side.Opposite()
			if r.Volume <= 0 {
				r.Volume = p.Volume
			}
		}
		out = append(out, r)
	}
	return out
}
