package ledger

import (
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// rollovers lists the swap rollovers in (from, to], with the number of
// nights each one charges. Weekend rollovers are skipped.
func (l *Ledger) rollovers(from, to time.Time) []rollover {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil
	}
	h := l.cfg.RolloverHour
	r := time.Date(from.Year(), from.Month(), from.Day(), h, 0, 0, 0, time.UTC)
	if !r.After(from) {
		r = r.AddDate(0, 0, 1)
	}

	var out []rollover
	for ; !r.After(to); r = r.AddDate(0, 0, 1) {
		switch wd := r.Weekday(); {
		case wd == time.Saturday || wd == time.Sunday:
			continue
		case wd == l.cfg.TripleSwapDay:
			out = append(out, rollover{at: r, nights: 3})
		default:
			out = append(out, rollover{at: r, nights: 1})
		}
	}
	return out
}

type rollover struct {
	at     time.Time
	nights float64
}

func (l *Ledger) swapRate(side sim.Side) float64 {
	if side == sim.Sell {
		return l.cfg.Instrument.SwapShort
	}
	return l.cfg.Instrument.SwapLong
}

// accrueSwap charges every position that was open across a rollover.
func (l *Ledger) accrueSwap(from, to time.Time) {
	for _, r := range l.rollovers(from, to) {
		for i := range l.positions {
			p := &l.positions[i]
			if p.Closed || !p.OpenTime.Before(r.at) {
				continue
			}
			amt := p.Volume * l.swapRate(p.Side) * r.nights
			p.SwapAccrued += amt
			l.swapTotal += amt
		}
	}
}
