package sim

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
)

func TestSlippageTerms(t *testing.T) {
	t.Parallel()

	m := SlippageModel{Multiplier: 0.5, ImpactCoefficient: 0.1, ImpactThreshold: 5, LiquidityFactor: 1, EnableMarketImpact: true}
	spread := 0.0002

	// base only
	assert.InDelta(t, 0.0001, m.Estimate(1, spread, 1, 1), 1e-15)
	// base + volume impact
	assert.InDelta(t, 0.0001+3*0.1*spread, m.Estimate(4, spread, 1, 1), 1e-15)
	// above the threshold market impact joins in
	want := 0.0001 + 8*0.1*spread + 0.1*3*spread
	assert.InDelta(t, want, m.Estimate(9, spread, 1, 1), 1e-15)
	// volatility scales the total
	assert.InDelta(t, 2*m.Estimate(9, spread, 1, 1), m.Estimate(9, spread, 2, 1), 1e-15)
	// lower liquidity raises impact
	assert.Greater(t, m.Estimate(9, spread, 1, 0.5), m.Estimate(9, spread, 1, 1))

	m.EnableMarketImpact = false
	assert.InDelta(t, 0.0001+8*0.1*spread, m.Estimate(9, spread, 1, 1), 1e-15)

	assert.Zero(t, m.Estimate(0, spread, 1, 1))
}

func TestSlippageMonotoneInVolume(t *testing.T) {
	t.Parallel()

	r := rng.New(2024)
	models := []SlippageModel{
		{Multiplier: 0.1, ImpactCoefficient: 0.1, ImpactThreshold: 5, LiquidityFactor: 1, EnableMarketImpact: true},
		{Multiplier: 0, ImpactCoefficient: 0.5, ImpactThreshold: 0, LiquidityFactor: 0.3, EnableMarketImpact: true},
		{Multiplier: 1, LiquidityFactor: 1},
	}

	for _, m := range models {
		for trial := 0; trial < 50; trial++ {
			spread := rng.Uniform(r, 0.00005, 0.005)
			vol := rng.Uniform(r, 1, 3)

			volumes := make([]float64, 40)
			for i := range volumes {
				volumes[i] = rng.Uniform(r, 0.01, 50)
			}
			sort.Float64s(volumes)

			prev := 0.0
			for _, v := range volumes {
				s := m.Estimate(v, spread, vol, 1)
				assert.GreaterOrEqual(t, s, prev, "volume %v", v)
				prev = s
			}
		}
	}
}

func TestJitterBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Jitter(nil))
	r := rng.New(9)
	for i := 0; i < 500; i++ {
		j := Jitter(r)
		assert.GreaterOrEqual(t, j, JitterMin)
		assert.Less(t, j, JitterMax)
	}
}
