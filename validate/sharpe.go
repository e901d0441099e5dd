package validate

import "math"

type SharpeResult struct {
	N          int
	Sharpe     float64 // per period
	Annualized float64
	Sortino    float64 // per period, 0 without downside
	Statistic  float64 // t = Sharpe·sqrt(N)
	PValue     float64
	Alpha      float64
	Reject     bool // zero Sharpe rejected at Alpha
	Status     Status
}

func (s SharpeResult) Result() Result {
	return Result{
		Method:    "sharpe",
		Statistic: s.Sharpe,
		PValue:    s.PValue,
		Lower:     s.Annualized,
		Upper:     s.Annualized,
		Passed:    s.Reject && s.Sharpe > 0,
		Status:    s.Status,
	}
}

// SharpeTest computes the Sharpe ratio of per-period returns and tests it
// against zero. periodsPerYear scales the annualised figure (1 if <= 0).
func (v *Validator) SharpeTest(returns []float64, periodsPerYear float64) SharpeResult {
	res := SharpeResult{N: len(returns), PValue: 1, Alpha: v.cfg.SignificanceLevel}
	if len(returns) < 2 {
		res.Status = StatusInsufficientSample
		return res
	}
	if periodsPerYear <= 0 {
		periodsPerYear = 1
	}

	mu, sd := meanSD(returns)
	if sd < eps {
		res.Status = StatusUndefined
		return res
	}
	res.Sharpe = mu / sd
	res.Annualized = res.Sharpe * math.Sqrt(periodsPerYear)
	res.Sortino = sortino(returns, mu)

	res.Statistic = res.Sharpe * math.Sqrt(float64(len(returns)))
	res.PValue = twoTailedP(res.Statistic, float64(len(returns)-1))
	res.Reject = res.PValue < res.Alpha
	res.Status = StatusOK
	return res
}

// sortino divides the mean by the downside deviation against zero.
func sortino(returns []float64, mu float64) float64 {
	var sum float64
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	if sum == 0 {
		return 0
	}
	dd := math.Sqrt(sum / float64(len(returns)))
	if dd < eps {
		return 0
	}
	return mu / dd
}
