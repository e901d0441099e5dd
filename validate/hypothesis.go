package validate

import (
	"math"

	"github.com/montanaflynn/stats"
)

// TTestKind selects the test.
type TTestKind int

const (
	OneSample TTestKind = iota // a against the mean Mu0
	Welch                      // a against b, unequal variances
)

func (k TTestKind) String() string {
	if k == Welch {
		return "welch"
	}
	return "one_sample"
}

type TTestResult struct {
	Kind      TTestKind
	Statistic float64
	DF        float64
	PValue    float64 // two-tailed
	MeanDiff  float64
	Alpha     float64
	Reject    bool // null of equal means rejected at Alpha
	Status    Status
}

func (r TTestResult) Result() Result {
	return Result{
		Method:    "t_test_" + r.Kind.String(),
		Statistic: r.Statistic,
		PValue:    r.PValue,
		Lower:     r.MeanDiff,
		Upper:     r.MeanDiff,
		Passed:    r.Reject && r.MeanDiff > 0,
		Status:    r.Status,
	}
}

// TTest runs a one-sample test of a against mu0 (b ignored) or a Welch test
// of a against b. Samples under two values are insufficient; zero variance
// leaves the statistic undefined.
func (v *Validator) TTest(a, b []float64, kind TTestKind, mu0 float64) TTestResult {
	res := TTestResult{Kind: kind, Alpha: v.cfg.SignificanceLevel, PValue: 1}

	switch kind {
	case Welch:
		if len(a) < 2 || len(b) < 2 {
			res.Status = StatusInsufficientSample
			return res
		}
		ma, va := meanVar(a)
		mb, vb := meanVar(b)
		sa, sb := va/float64(len(a)), vb/float64(len(b))
		se := math.Sqrt(sa + sb)
		res.MeanDiff = ma - mb
		if se < eps {
			res.Status = StatusUndefined
			return res
		}
		res.Statistic = res.MeanDiff / se
		res.DF = (sa + sb) * (sa + sb) / (sa*sa/float64(len(a)-1) + sb*sb/float64(len(b)-1))

	default:
		if len(a) < 2 {
			res.Status = StatusInsufficientSample
			return res
		}
		m, va := meanVar(a)
		se := math.Sqrt(va / float64(len(a)))
		res.MeanDiff = m - mu0
		if se < eps {
			res.Status = StatusUndefined
			return res
		}
		res.Statistic = res.MeanDiff / se
		res.DF = float64(len(a) - 1)
	}

	res.PValue = twoTailedP(res.Statistic, res.DF)
	res.Reject = res.PValue < res.Alpha
	res.Status = StatusOK
	return res
}

func meanVar(xs []float64) (float64, float64) {
	m, _ := stats.Mean(xs)
	vs, _ := stats.SampleVariance(xs)
	return m, vs
}
