package validate

import (
	"context"
	"math"
	"sort"
)

// Criteria decides whether one shuffled replay passes and how many must.
type Criteria struct {
	RequireProfit bool    // final balance above initial
	MaxDrawdown   float64 // fraction; 0 disables
	MinPassRate   float64
}

// DefaultCriteria: the replay ends in profit with a drawdown under 30%, in
// 95% of replays.
func DefaultCriteria() Criteria {
	return Criteria{RequireProfit: true, MaxDrawdown: 0.30, MinPassRate: 0.95}
}

func (c Criteria) pass(initial float64, r Replay) bool {
	if c.RequireProfit && r.Final <= initial {
		return false
	}
	if c.MaxDrawdown > 0 && r.MaxDrawdown >= c.MaxDrawdown {
		return false
	}
	return true
}

// Replay is one shuffled pass over the trade log.
type Replay struct {
	Final       float64
	MaxDrawdown float64
	Total       float64
}

// MonteCarloResult summarises the shuffled replays.
type MonteCarloResult struct {
	Iterations int
	Initial    float64
	Replays    []Replay // in iteration order

	// ascending
	FinalBalances []float64
	Drawdowns     []float64

	MeanFinal   float64
	MedianFinal float64
	// VaR is the loss from initial at the (1-confidence) quantile of final
	// balances; DrawdownAtRisk is the confidence quantile of max drawdown.
	VaR            float64
	DrawdownAtRisk float64
	Confidence     float64

	PassRate float64
	Passed   bool
	Status   Status
}

func (m MonteCarloResult) Result() Result {
	return Result{
		Method:    "monte_carlo_shuffle",
		Statistic: m.PassRate,
		PValue:    1 - m.PassRate,
		Lower:     quantile(m.FinalBalances, (1-m.Confidence)/2),
		Upper:     quantile(m.FinalBalances, 1-(1-m.Confidence)/2),
		Passed:    m.Passed,
		Status:    m.Status,
	}
}

// MonteCarloShuffle replays the trade P&Ls in iterations random orders
// (Fisher-Yates) from initial. Shuffling keeps the multiset of P&Ls, so
// every replay has the same total; what varies is the path, and with it the
// drawdown.
func (v *Validator) MonteCarloShuffle(pnls []float64, initial float64, iterations int, criteria Criteria) MonteCarloResult {
	if iterations <= 0 {
		iterations = v.cfg.MonteCarloIterations
	}
	if criteria == (Criteria{}) {
		criteria = DefaultCriteria()
	}
	res := MonteCarloResult{Iterations: iterations, Initial: initial, Confidence: v.Confidence()}
	if len(pnls) < 2 {
		res.Status = StatusInsufficientSample
		return res
	}

	res.Replays = make([]Replay, iterations)
	_ = v.parallel(context.Background(), iterations, func(i int) error {
		r := v.stream(streamMonteCarlo, i)
		buf := append([]float64(nil), pnls...)
		for j := len(buf) - 1; j > 0; j-- {
			k := r.IntN(j + 1)
			buf[j], buf[k] = buf[k], buf[j]
		}
		res.Replays[i] = replay(initial, buf)
		return nil
	})

	res.FinalBalances = make([]float64, iterations)
	res.Drawdowns = make([]float64, iterations)
	passed := 0
	for i, rp := range res.Replays {
		res.FinalBalances[i] = rp.Final
		res.Drawdowns[i] = rp.MaxDrawdown
		if criteria.pass(initial, rp) {
			passed++
		}
	}
	sort.Float64s(res.FinalBalances)
	sort.Float64s(res.Drawdowns)

	res.MeanFinal = MeanStat(res.FinalBalances)
	res.MedianFinal = quantile(res.FinalBalances, 0.5)
	res.VaR = initial - quantile(res.FinalBalances, 1-res.Confidence)
	res.DrawdownAtRisk = quantile(res.Drawdowns, res.Confidence)
	res.PassRate = float64(passed) / float64(iterations)
	res.Passed = res.PassRate >= criteria.MinPassRate
	res.Status = StatusOK
	return res
}

func replay(initial float64, pnls []float64) Replay {
	bal, peak := initial, initial
	var dd, total float64
	for _, p := range pnls {
		bal += p
		total += p
		peak = math.Max(peak, bal)
		if peak > 0 {
			dd = math.Max(dd, (peak-bal)/peak)
		}
	}
	return Replay{Final: bal, MaxDrawdown: dd, Total: total}
}
