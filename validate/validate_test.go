package validate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
)

func newValidator(workers int) *Validator {
	return New(Config{Seed: 7, Workers: workers, BootstrapSamples: 500, MonteCarloIterations: 300}, nil)
}

func TestNewFillsDefaults(t *testing.T) {
	t.Parallel()

	v := New(Config{}, nil)
	cfg := v.Config()
	assert.Equal(t, 1000, cfg.BootstrapSamples)
	assert.Equal(t, 1000, cfg.MonteCarloIterations)
	assert.Equal(t, 10000, cfg.VaRDraws)
	assert.Equal(t, 0.05, cfg.SignificanceLevel)
	assert.Equal(t, 0.30, cfg.MinOutSampleRatio)
	assert.Positive(t, cfg.Workers)
	assert.InDelta(t, 0.95, v.Confidence(), 1e-12)
}

func TestMethodsDrawFromSeparateStreams(t *testing.T) {
	t.Parallel()

	v := newValidator(1)
	for i := 0; i < 4; i++ {
		boot := v.stream(streamBootstrap, i).Uint64()
		mc := v.stream(streamMonteCarlo, i).Uint64()
		assert.NotEqual(t, boot, mc, "stream %d", i)
		assert.NotEqual(t, boot, v.stream(streamVaR, i).Uint64(), "stream %d", i)
		assert.NotEqual(t, mc, v.stream(streamVaR, i).Uint64(), "stream %d", i)
		assert.Equal(t, boot, v.stream(streamBootstrap, i).Uint64(), "stream %d", i)
	}
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	xs := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, quantile(xs, 0))
	assert.Equal(t, 5.0, quantile(xs, 1))
	assert.Equal(t, 3.0, quantile(xs, 0.5))
	assert.InDelta(t, 1.1, quantile(xs, 0.025), 1e-12)
	assert.Zero(t, quantile(nil, 0.5))
	assert.Equal(t, 9.0, quantile([]float64{9}, 0.3))
}

func TestBootstrapConstantSeries(t *testing.T) {
	t.Parallel()

	v := newValidator(4)
	series := []float64{2.5, 2.5, 2.5, 2.5, 2.5, 2.5}
	res := v.BootstrapCI(series, MeanStat, 0, 0.95)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 2.5, res.Lower)
	assert.Equal(t, 2.5, res.Upper)
	assert.Equal(t, 2.5, res.Estimate)
	assert.Zero(t, res.Std)
	assert.True(t, res.Significant())
	assert.Zero(t, res.PValue)
}

func TestBootstrapInsufficientSample(t *testing.T) {
	t.Parallel()

	v := newValidator(1)

	res := v.BootstrapCI([]float64{3}, MeanStat, 100, 0.9)
	assert.Equal(t, StatusInsufficientSample, res.Status)
	assert.Equal(t, 3.0, res.Lower)
	assert.Equal(t, 3.0, res.Upper)
	assert.False(t, res.Significant())

	res = v.BootstrapCI(nil, MeanStat, 100, 0.9)
	assert.Equal(t, StatusInsufficientSample, res.Status)
	assert.Zero(t, res.Lower)
	assert.Zero(t, res.Upper)
}

func TestBootstrapIndependentOfWorkers(t *testing.T) {
	t.Parallel()

	r := rng.New(1)
	series := make([]float64, 60)
	for i := range series {
		series[i] = r.NormFloat64() + 0.3
	}

	a := newValidator(1).BootstrapCI(series, MeanStat, 0, 0)
	b := newValidator(8).BootstrapCI(series, MeanStat, 0, 0)
	assert.Equal(t, a, b)

	assert.LessOrEqual(t, a.Lower, a.Estimate)
	assert.GreaterOrEqual(t, a.Upper, a.Estimate)
	assert.Less(t, a.Lower, a.Upper)
	assert.Equal(t, 500, a.Samples)
}

func TestBootstrapDetectsEdge(t *testing.T) {
	t.Parallel()

	v := newValidator(0)
	pos := []float64{1, 2, 1.5, 2.2, 0.8, 1.9, 1.1, 2.4}
	res := v.BootstrapCI(pos, MeanStat, 0, 0)
	assert.True(t, res.Significant())
	assert.True(t, res.Result().Passed)

	mixed := []float64{-3, 2, -1, 4, -2, 1, -4, 3}
	res = v.BootstrapCI(mixed, MeanStat, 0, 0)
	assert.False(t, res.Significant())
	assert.Greater(t, res.PValue, 0.1)
}

func TestMonteCarloPreservesTrades(t *testing.T) {
	t.Parallel()

	pnls := []float64{120, -80, 45, -30, 200, -150, 60, 10, -5, 90}
	var sum float64
	for _, p := range pnls {
		sum += p
	}

	v := newValidator(4)
	res := v.MonteCarloShuffle(pnls, 1000, 200, Criteria{})
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, res.Replays, 200)

	for _, rp := range res.Replays {
		assert.InDelta(t, sum, rp.Total, 1e-9)
		assert.InDelta(t, 1000+sum, rp.Final, 1e-9)
	}
	assert.InDelta(t, 1000+sum, res.MedianFinal, 1e-9)
	assert.InDelta(t, -sum, res.VaR, 1e-9)
	assert.Greater(t, res.Drawdowns[len(res.Drawdowns)-1], res.Drawdowns[0], "paths differ")
	assert.InDelta(t, 1, res.PassRate, 1e-12)
	assert.True(t, res.Passed)

	again := newValidator(1).MonteCarloShuffle(pnls, 1000, 200, Criteria{})
	assert.Equal(t, res.Replays, again.Replays)
}

func TestMonteCarloCriteria(t *testing.T) {
	t.Parallel()

	pnls := []float64{-400, 300, -300, 450}
	v := newValidator(2)

	res := v.MonteCarloShuffle(pnls, 1000, 100, Criteria{RequireProfit: true, MaxDrawdown: 0.75, MinPassRate: 0.5})
	assert.InDelta(t, 1, res.PassRate, 1e-12)

	// drawdown always exceeds 5%
	res = v.MonteCarloShuffle(pnls, 1000, 100, Criteria{MaxDrawdown: 0.05, MinPassRate: 0.5})
	assert.Zero(t, res.PassRate)
	assert.False(t, res.Passed)

	res = v.MonteCarloShuffle([]float64{1}, 1000, 100, Criteria{})
	assert.Equal(t, StatusInsufficientSample, res.Status)
}

func TestWalkForwardWindows(t *testing.T) {
	t.Parallel()

	series := make([]int, 100)
	for i := range series {
		series[i] = i
	}
	v := newValidator(3)

	optimize := func(_ context.Context, in []int) (int, float64, error) {
		return in[0], 10, nil
	}
	evaluate := func(_ context.Context, p int, out []int) (float64, error) {
		if p%40 == 0 {
			return -1, nil
		}
		return 5, nil
	}

	res, err := WalkForward(context.Background(), v, series, 40, 20, optimize, evaluate)
	require.NoError(t, err)
	require.Len(t, res.Periods, 3)

	for i, p := range res.Periods {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, i*20, p.InStart)
		assert.Equal(t, i*20+40, p.InEnd)
		assert.Equal(t, p.InEnd, p.OutStart)
		assert.Equal(t, p.OutStart+20, p.OutEnd)
		assert.Equal(t, i*20, p.Params)
	}
	assert.False(t, res.Periods[0].Passed)
	assert.True(t, res.Periods[1].Passed)
	assert.False(t, res.Periods[2].Passed)
	assert.Equal(t, 1, res.Passed)
	assert.InDelta(t, 0.5, res.Efficiency, 1e-12)
}

func TestWalkForwardEfficiencyEdgeCases(t *testing.T) {
	t.Parallel()

	v := newValidator(2)
	series := make([]float64, 50)

	// nothing passes
	res, err := WalkForward(context.Background(), v, series, 10, 10,
		func(context.Context, []float64) (string, float64, error) { return "p", 1, nil },
		func(context.Context, string, []float64) (float64, error) { return 0, nil })
	require.NoError(t, err)
	assert.Zero(t, res.Passed)
	assert.Zero(t, res.Efficiency)
	assert.False(t, res.Result().Passed)

	// everything passes but in-sample sums to zero
	res, err = WalkForward(context.Background(), v, series, 10, 10,
		func(context.Context, []float64) (string, float64, error) { return "p", 0, nil },
		func(context.Context, string, []float64) (float64, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 4, res.Passed)
	assert.Zero(t, res.Efficiency)
	assert.False(t, math.IsNaN(res.Efficiency))

	// too short
	res, err = WalkForward(context.Background(), v, series[:5], 10, 10,
		func(context.Context, []float64) (string, float64, error) { return "p", 0, nil },
		func(context.Context, string, []float64) (float64, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientSample, res.Status)
}

func TestWalkForwardPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := WalkForward(context.Background(), newValidator(2), make([]float64, 40), 10, 10,
		func(context.Context, []float64) (int, float64, error) { return 0, 0, boom },
		func(context.Context, int, []float64) (float64, error) { return 0, nil })
	assert.ErrorIs(t, err, boom)

	_, err = WalkForward[float64, int](context.Background(), newValidator(2), nil, 1, 1, nil, nil)
	assert.Error(t, err)
}
