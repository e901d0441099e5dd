package validate

import (
	"context"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
)

// StatFunc reduces a sample to one statistic.
type StatFunc func(xs []float64) float64

// MeanStat is the arithmetic mean, 0 for an empty sample.
func MeanStat(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

// SharpeStat is mean over sample standard deviation, 0 when undefined.
func SharpeStat(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(xs)
	if err != nil || sd < eps {
		return 0
	}
	return MeanStat(xs) / sd
}

// BootstrapResult is a percentile confidence interval.
type BootstrapResult struct {
	Estimate   float64 // statistic of the original series
	Lower      float64
	Upper      float64
	Mean       float64 // of the resampled statistics
	Std        float64
	// PValue is the share of resampled statistics at or below zero.
	PValue     float64
	Samples    int
	Confidence float64
	Status     Status
}

// Significant reports whether the interval excludes zero.
func (b BootstrapResult) Significant() bool {
	return b.Status == StatusOK && (b.Lower > 0 || b.Upper < 0)
}

func (b BootstrapResult) Result() Result {
	return Result{
		Method:    "bootstrap",
		Statistic: b.Estimate,
		PValue:    b.PValue,
		Lower:     b.Lower,
		Upper:     b.Upper,
		Passed:    b.Significant() && b.Lower > 0,
		Status:    b.Status,
	}
}

// BootstrapCI resamples series with replacement samples times and returns
// the confidence interval of statFn. samples <= 0 and confidence outside
// (0, 1) fall back to the configured defaults. Series shorter than two
// values give a zero-width interval at statFn(series).
func (v *Validator) BootstrapCI(series []float64, statFn StatFunc, samples int, confidence float64) BootstrapResult {
	if statFn == nil {
		statFn = MeanStat
	}
	if samples <= 0 {
		samples = v.cfg.BootstrapSamples
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = v.Confidence()
	}

	n := len(series)
	if n < 2 {
		var est float64
		if n == 1 {
			est = statFn(series)
		}
		return BootstrapResult{Estimate: est, Lower: est, Upper: est, Mean: est, Confidence: confidence, Status: StatusInsufficientSample}
	}

	out := make([]float64, samples)
	_ = v.parallel(context.Background(), samples, func(i int) error {
		r := v.stream(streamBootstrap, i)
		buf := make([]float64, n)
		for j := range buf {
			buf[j] = series[r.IntN(n)]
		}
		out[i] = statFn(buf)
		return nil
	})

	res := BootstrapResult{Estimate: statFn(series), Samples: samples, Confidence: confidence, Status: StatusOK}
	for _, x := range out {
		if !finite(x) {
			res.Status = StatusUndefined
			return res
		}
	}
	sort.Float64s(out)

	alpha := 1 - confidence
	res.Lower = quantile(out, alpha/2)
	res.Upper = quantile(out, 1-alpha/2)
	res.Mean = MeanStat(out)
	res.PValue = float64(sort.SearchFloat64s(out, math.Nextafter(0, 1))) / float64(samples)
	if sd, err := stats.StandardDeviationSample(out); err == nil {
		res.Std = sd
	}

	v.log.WithFields(logrus.Fields{
		"samples": samples,
		"lower":   res.Lower,
		"upper":   res.Upper,
	}).Debug("bootstrap done")
	return res
}
