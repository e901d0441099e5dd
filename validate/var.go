package validate

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// VaRMethod selects how the loss quantile is estimated.
type VaRMethod string

const (
	Historical VaRMethod = "historical"
	Parametric VaRMethod = "parametric"
	MonteCarlo VaRMethod = "monte_carlo"
)

// VaRResult reports losses as positive numbers in return units.
type VaRResult struct {
	Method     VaRMethod
	Confidence float64
	VaR        float64
	CVaR       float64
	Status     Status
}

func (r VaRResult) Result() Result {
	return Result{
		Method:    "var_" + string(r.Method),
		Statistic: r.VaR,
		Lower:     r.VaR,
		Upper:     r.CVaR,
		Passed:    r.Status == StatusOK,
		Status:    r.Status,
	}
}

// historicalIndex is the position of the VaR return in ascending order:
// ceil((1-c)·n), clamped to the sample.
func historicalIndex(n int, confidence float64) int {
	k := int(math.Ceil((1-confidence)*float64(n) - 1e-9))
	return max(0, min(n-1, k))
}

// ValueAtRisk estimates VaR and CVaR of returns at confidence. CVaR is the
// mean loss at or beyond the VaR return.
func (v *Validator) ValueAtRisk(returns []float64, confidence float64, method VaRMethod) VaRResult {
	if confidence <= 0 || confidence >= 1 {
		confidence = v.Confidence()
	}
	if method == "" {
		method = Historical
	}
	res := VaRResult{Method: method, Confidence: confidence}
	if len(returns) < 2 {
		res.Status = StatusInsufficientSample
		return res
	}

	switch method {
	case Parametric:
		mu, sd := meanSD(returns)
		alpha := 1 - confidence
		z := stats.NormPpf(alpha, 0, 1)
		res.VaR = -(mu + sd*z)
		res.CVaR = -(mu - sd*stats.NormPdf(z, 0, 1)/alpha)

	case MonteCarlo:
		mu, sd := meanSD(returns)
		r := v.stream(streamVaR, 0)
		draws := make([]float64, v.cfg.VaRDraws)
		for i := range draws {
			draws[i] = mu + sd*r.NormFloat64()
		}
		res.VaR, res.CVaR = historicalVaR(draws, confidence)

	default:
		res.Method = Historical
		res.VaR, res.CVaR = historicalVaR(append([]float64(nil), returns...), confidence)
	}

	res.Status = StatusOK
	if !finite(res.VaR) || !finite(res.CVaR) {
		res.VaR, res.CVaR = 0, 0
		res.Status = StatusUndefined
	}
	return res
}

// historicalVaR sorts xs in place.
func historicalVaR(xs []float64, confidence float64) (float64, float64) {
	sort.Float64s(xs)
	k := historicalIndex(len(xs), confidence)
	return -xs[k], -MeanStat(xs[:k+1])
}

func meanSD(xs []float64) (float64, float64) {
	mu, _ := stats.Mean(xs)
	sd, err := stats.StandardDeviationSample(xs)
	if err != nil {
		sd = 0
	}
	return mu, sd
}
