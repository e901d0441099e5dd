package validate

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Period is one in-sample/out-of-sample window. Bounds are half-open bar
// indices into the series.
type Period[P any] struct {
	Index    int
	InStart  int
	InEnd    int
	OutStart int
	OutEnd   int

	Params   P
	InScore  float64
	OutScore float64
	Passed   bool
}

type WalkForwardResult[P any] struct {
	Periods    []Period[P]
	Passed     int
	InTotal    float64 // over passing periods
	OutTotal   float64
	Efficiency float64
	Status     Status
}

func (w WalkForwardResult[P]) PassRate() float64 {
	if len(w.Periods) == 0 {
		return 0
	}
	return float64(w.Passed) / float64(len(w.Periods))
}

func (w WalkForwardResult[P]) Result() Result {
	return Result{
		Method:    "walk_forward",
		Statistic: w.Efficiency,
		PValue:    1 - w.PassRate(),
		Lower:     0,
		Upper:     w.PassRate(),
		Passed:    w.Status == StatusOK && w.Passed > 0 && w.Efficiency > 0,
		Status:    w.Status,
	}
}

// WalkForward slides an inBars/outBars window over series, stepping by
// outBars. optimize fits parameters on the in-sample window and reports
// their in-sample score; evaluate scores them out of sample. A period passes when its out-of-sample score is positive and at
// least MinOutSampleRatio of its in-sample score. Efficiency is the ratio of
// out- to in-sample totals over passing periods; it is 0 when nothing
// passes or the in-sample total is zero. Periods run concurrently and are
// reported in window order.
func WalkForward[T, P any](ctx context.Context, v *Validator, series []T, inBars, outBars int, optimize func(context.Context, []T) (P, float64, error), evaluate func(context.Context, P, []T) (float64, error)) (WalkForwardResult[P], error) {
	var res WalkForwardResult[P]
	if optimize == nil || evaluate == nil {
		return res, fmt.Errorf("validate: walk-forward needs an optimizer and an evaluator")
	}
	if inBars < 1 || outBars < 1 || len(series) < inBars+outBars {
		res.Status = StatusInsufficientSample
		return res, nil
	}

	n := (len(series) - inBars) / outBars
	res.Periods = make([]Period[P], n)
	err := v.parallel(ctx, n, func(i int) error {
		p := &res.Periods[i]
		p.Index = i
		p.InStart = i * outBars
		p.InEnd = p.InStart + inBars
		p.OutStart = p.InEnd
		p.OutEnd = p.OutStart + outBars

		params, in, err := optimize(ctx, series[p.InStart:p.InEnd])
		if err != nil {
			return fmt.Errorf("validate: period %d optimize: %w", i, err)
		}
		out, err := evaluate(ctx, params, series[p.OutStart:p.OutEnd])
		if err != nil {
			return fmt.Errorf("validate: period %d evaluate: %w", i, err)
		}
		p.Params, p.InScore, p.OutScore = params, in, out
		p.Passed = out > 0 && out >= v.cfg.MinOutSampleRatio*in
		return nil
	})
	if err != nil {
		return res, err
	}

	for _, p := range res.Periods {
		if !p.Passed {
			continue
		}
		res.Passed++
		res.InTotal += p.InScore
		res.OutTotal += p.OutScore
	}
	res.Status = StatusOK
	if res.Passed > 0 && math.Abs(res.InTotal) >= eps {
		res.Efficiency = res.OutTotal / res.InTotal
	}

	v.log.WithFields(logrus.Fields{
		"periods":    n,
		"passed":     res.Passed,
		"efficiency": res.Efficiency,
	}).Debug("walk-forward done")
	return res, nil
}
