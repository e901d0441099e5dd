package strategies

import (
	"fmt"
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/indicators"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/risk"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// EMACross trades a fast/slow EMA crossover.
//   - Enters only on a cross, with a stop StopPips away (or ATRMult times the
//     ATR when ATRMult is set) and a target RR times the stop distance.
//   - Reverses on the opposite cross (close, then open).
//   - Sizes by RiskPct of equity when set, otherwise trades Volume lots.
//   - With MinADX > 0, entries need ADX at or above it; exits are never
//     filtered.
//   - With a Policy, entries that break it are skipped.
type EMACross struct {
	p Params

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA
	adx  *indicators.ADX
	atr  *indicators.ATR

	lastDiff     float64
	haveLastDiff bool

	day      time.Time
	dayStart float64

	// Skipped counts entries refused by the ADX filter or the policy.
	Skipped int
}

func NewEMACross(p Params) (*EMACross, error) {
	if p.FastPeriod <= 0 || p.SlowPeriod <= 0 {
		return nil, fmt.Errorf("ema_cross: periods must be positive, got %d/%d", p.FastPeriod, p.SlowPeriod)
	}
	if p.FastPeriod >= p.SlowPeriod {
		return nil, fmt.Errorf("ema_cross: fast period %d must be below slow period %d", p.FastPeriod, p.SlowPeriod)
	}
	if p.StopPips <= 0 && p.ATRMult <= 0 {
		return nil, fmt.Errorf("ema_cross: stop pips or an ATR multiple is required")
	}
	if p.RiskPct <= 0 && p.Volume <= 0 {
		return nil, fmt.Errorf("ema_cross: either risk percent or volume is required")
	}
	if p.RR <= 0 {
		p.RR = 2
	}
	s := &EMACross{
		p:    p,
		fast: indicators.NewEMA(p.FastPeriod),
		slow: indicators.NewEMA(p.SlowPeriod),
	}
	if p.MinADX > 0 {
		period := p.ADXPeriod
		if period <= 0 {
			period = 14
		}
		s.adx = indicators.NewADX(period)
	}
	if p.ATRMult > 0 {
		period := p.ATRPeriod
		if period <= 0 {
			period = 14
		}
		s.atr = indicators.NewATR(period)
	}
	return s, nil
}

func (s *EMACross) Name() string {
	if s.adx != nil {
		return fmt.Sprintf("ema_cross(%d,%d,adx>=%g)", s.p.FastPeriod, s.p.SlowPeriod, s.p.MinADX)
	}
	return fmt.Sprintf("ema_cross(%d,%d)", s.p.FastPeriod, s.p.SlowPeriod)
}

func (s *EMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	if s.adx != nil {
		s.adx.Reset()
	}
	if s.atr != nil {
		s.atr.Reset()
	}
	s.lastDiff = 0
	s.haveLastDiff = false
}

func (s *EMACross) OnBar(ctx *backtest.Context, b market.Bar) []sim.OrderRequest {
	s.fast.Update(b)
	s.slow.Update(b)
	if s.adx != nil {
		s.adx.Update(b)
	}
	if s.atr != nil {
		s.atr.Update(b)
	}
	if day := ctx.Time.UTC().Truncate(24 * time.Hour); !day.Equal(s.day) {
		s.day = day
		s.dayStart = ctx.Balance
	}

	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}
	diff := s.fast.Value() - s.slow.Value()
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil
	}

	// bull: diff from <=0 to >0; bear: from >=0 to <0
	bullCross := diff > 0 && s.lastDiff <= 0
	bearCross := diff < 0 && s.lastDiff >= 0
	s.lastDiff = diff

	var (
		dir    sim.Side
		signal string
	)
	switch {
	case bullCross:
		dir, signal = sim.Buy, "bull_cross"
	case bearCross:
		dir, signal = sim.Sell, "bear_cross"
	default:
		return nil
	}

	var out []sim.OrderRequest
	for _, p := range ctx.Positions {
		if p.Side == dir {
			// already positioned with the signal
			return nil
		}
		out = append(out, sim.OrderRequest{
			Side:          dir,
			Kind:          sim.Market,
			Volume:        p.Volume,
			ClosePosition: p.ID,
			Tag:           "exit_on_" + signal,
		})
	}

	if entry, ok := s.entry(ctx, dir, signal, len(ctx.Positions)-len(out)); ok {
		out = append(out, entry)
	}
	return out
}

func (s *EMACross) entry(ctx *backtest.Context, dir sim.Side, signal string, stillOpen int) (sim.OrderRequest, bool) {
	if s.adx != nil && (!s.adx.Ready() || s.adx.Value() < s.p.MinADX) {
		s.Skipped++
		return sim.OrderRequest{}, false
	}

	inst := s.p.Instrument
	price := entryPrice(dir, ctx.Quote)
	stopDist := s.p.StopPips * inst.PipSize()
	if s.atr != nil {
		if !s.atr.Ready() {
			s.Skipped++
			return sim.OrderRequest{}, false
		}
		stopDist = s.p.ATRMult * s.atr.Value()
	}
	if stopDist <= 0 {
		s.Skipped++
		return sim.OrderRequest{}, false
	}
	sl, tp := protect(dir, price, stopDist, s.p.RR)

	qta, err := market.QuoteToAccountRate(inst, s.p.AccountCurrency, ctx.Quote.Mid())
	if err != nil {
		s.Skipped++
		return sim.OrderRequest{}, false
	}

	volume := s.p.Volume
	if s.p.RiskPct > 0 {
		volume = risk.Calculate(risk.Inputs{
			Equity:         ctx.Equity,
			RiskPct:        s.p.RiskPct,
			EntryPrice:     price,
			StopPrice:      sl,
			Instrument:     inst,
			QuoteToAccount: qta,
		}).Lots
	}
	if volume <= 0 {
		s.Skipped++
		return sim.OrderRequest{}, false
	}

	if s.p.Policy != nil {
		d := risk.Evaluate(*s.p.Policy,
			risk.TradeIntent{Now: ctx.Time, Lots: volume, Entry: price, Stop: sl, TakeProfit: tp},
			risk.AccountSnapshot{Balance: ctx.Balance, Equity: ctx.Equity, OpenPositions: stillOpen},
			risk.PnLSnapshot{DayRealized: ctx.Balance - s.dayStart},
			inst.ContractSize, qta,
		)
		if !d.Allowed {
			s.Skipped++
			return sim.OrderRequest{}, false
		}
	}

	return sim.OrderRequest{
		Side:       dir,
		Kind:       sim.Market,
		Volume:     volume,
		StopLoss:   sl,
		TakeProfit: tp,
		Tag:        signal,
	}, true
}
