package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV interval. Bars are immutable once produced.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Mid is the typical price of the bar.
func (b Bar) Mid() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Range is high minus low.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Series is an ordered run of bars with strictly increasing timestamps.
// Step is the declared bar interval; gaps (weekends, holidays) are allowed.
type Series struct {
	Instrument string
	Step       time.Duration
	Bars       []Bar
}

// NewSeries wraps bars without copying them.
func NewSeries(instrument string, step time.Duration, bars []Bar) *Series {
	return &Series{Instrument: instrument, Step: step, Bars: bars}
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Slice returns the sub-series [i, j). The bars are shared, not copied.
func (s *Series) Slice(i, j int) *Series {
	return &Series{Instrument: s.Instrument, Step: s.Step, Bars: s.Bars[i:j]}
}

// Closes returns the close prices in order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Start and End return the first and last bar times (zero when empty).
func (s *Series) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Bars[0].Time
}

func (s *Series) End() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Time
}

// Validate checks every bar. It returns the first problem found as a
// *MalformedSeriesError.
func (s *Series) Validate() error {
	for i := range s.Bars {
		var prev *Bar
		if i > 0 {
			prev = &s.Bars[i-1]
		}
		if err := CheckBar(prev, s.Bars[i], i); err != nil {
			return err
		}
	}
	return nil
}

// CheckBar validates b against its predecessor (nil for the first bar).
func CheckBar(prev *Bar, b Bar, idx int) error {
	bad := func(format string, args ...any) error {
		return &MalformedSeriesError{Index: idx, Time: b.Time, Problem: fmt.Sprintf(format, args...)}
	}

	if b.Time.IsZero() {
		return bad("missing timestamp")
	}
	if prev != nil && !b.Time.After(prev.Time) {
		return bad("timestamp %s not after previous %s", b.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339))
	}
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return bad("missing or non-positive OHLC value %v", v)
		}
	}
	if b.Low > b.High {
		return bad("low %v above high %v", b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return bad("open/close outside [low, high]")
	}
	if b.Volume < 0 || math.IsNaN(b.Volume) {
		return bad("negative volume %v", b.Volume)
	}
	return nil
}

// MalformedSeriesError is fatal for a backtest run: the input cannot be
// simulated past Index.
type MalformedSeriesError struct {
	Index   int
	Time    time.Time
	Problem string
}

func (e *MalformedSeriesError) Error() string {
	return fmt.Sprintf("malformed series at bar %d (%s): %s", e.Index, e.Time.Format(time.RFC3339), e.Problem)
}
