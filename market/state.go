package market

import (
	"math"

	"github.com/montanaflynn/stats"
)

const DefaultVolatilityWindow = 20

const eps = 1e-12

// State is the rolling market state fed one bar at a time: last bar, rolling
// volatility of log returns and the long-run average of that volatility.
type State struct {
	window  int
	returns []float64
	last    Bar
	count   int

	vol    float64
	volSum float64
	volN   int
}

// NewState creates a State with the given volatility window (bars).
func NewState(window int) *State {
	if window < 2 {
		window = DefaultVolatilityWindow
	}
	return &State{window: window}
}

// Push feeds the next bar. It never looks ahead.
func (s *State) Push(b Bar) {
	if s.count > 0 && s.last.Close > 0 && b.Close > 0 {
		r := math.Log(b.Close / s.last.Close)
		s.returns = append(s.returns, r)
		if len(s.returns) > s.window {
			s.returns = s.returns[len(s.returns)-s.window:]
		}
	}
	s.last = b
	s.count++

	if len(s.returns) >= 2 {
		sd, err := stats.StandardDeviationSample(s.returns)
		if err == nil && !math.IsNaN(sd) {
			s.vol = sd
			s.volSum += sd
			s.volN++
		}
	}
}

func (s *State) Last() Bar  { return s.last }
func (s *State) Count() int { return s.count }

// Volatility is the sample standard deviation of the last window log returns.
func (s *State) Volatility() float64 { return s.vol }

// AverageVolatility is the mean of every volatility reading so far.
func (s *State) AverageVolatility() float64 {
	if s.volN == 0 {
		return 0
	}
	return s.volSum / float64(s.volN)
}

// VolatilityFactor is current over average volatility, floored at 1. It is 1
// until both readings are meaningful.
func (s *State) VolatilityFactor() float64 {
	if s == nil {
		return 1
	}
	avg := s.AverageVolatility()
	if s.vol < eps || avg < eps {
		return 1
	}
	return math.Max(1, s.vol/avg)
}
