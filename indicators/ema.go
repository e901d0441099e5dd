package indicators

import (
	"fmt"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// ExponentialMA is an EMA of closes seeded with the mean of the first period
// closes.
type ExponentialMA struct {
	period int
	k      float64
	n      int
	sum    float64
	value  float64
}

func NewEMA(period int) *ExponentialMA {
	period = max(period, 1)
	return &ExponentialMA{period: period, k: 2 / float64(period+1)}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }
func (e *ExponentialMA) Ready() bool  { return e.n >= e.period }

func (e *ExponentialMA) Reset() {
	e.n, e.sum, e.value = 0, 0, 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	if e.n >= e.period {
		e.value += (b.Close - e.value) * e.k
		return
	}
	e.n++
	e.sum += b.Close
	if e.n == e.period {
		e.value = e.sum / float64(e.period)
	}
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}
