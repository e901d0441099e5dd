package indicators

import (
	"fmt"
	"math"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// ATR is Wilder's Average True Range. The first bar only sets the previous
// close; the next period true ranges are averaged, then smoothed.
type ATR struct {
	period int
	n      int
	sum    float64
	value  float64
	prev   float64
	seen   bool
}

func NewATR(period int) *ATR {
	return &ATR{period: max(period, 1)}
}

func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }
func (a *ATR) Warmup() int  { return a.period + 1 }
func (a *ATR) Ready() bool  { return a.n >= a.period }

func (a *ATR) Reset() {
	*a = ATR{period: a.period}
}

func (a *ATR) Update(b market.Bar) {
	if !a.seen {
		a.prev, a.seen = b.Close, true
		return
	}
	tr := trueRange(b, a.prev)
	a.prev = b.Close

	p := float64(a.period)
	switch {
	case a.n >= a.period:
		a.value = (a.value*(p-1) + tr) / p
	default:
		a.n++
		a.sum += tr
		if a.n == a.period {
			a.value = a.sum / p
		}
	}
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.value
}

// trueRange is the bar's range widened to include a gap from prevClose.
func trueRange(b market.Bar, prevClose float64) float64 {
	return math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
}
