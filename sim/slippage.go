package sim

import (
	"math"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
)

// Jitter bounds applied to every slippage estimate.
const (
	JitterMin = 0.75
	JitterMax = 1.25
)

// SlippageModel estimates execution slippage in price units.
type SlippageModel struct {
	Multiplier         float64 // share of the spread paid on every order
	ImpactCoefficient  float64
	ImpactThreshold    float64 // lots; impact applies strictly above it
	LiquidityFactor    float64
	EnableMarketImpact bool
}

// Estimate is deterministic: the same inputs give the same slippage, and it
// never decreases as volume grows. liquidity scales LiquidityFactor (1 at
// baseline). volatility is a multiplier, 1 in calm markets.
func (m SlippageModel) Estimate(volume, spread, volatility, liquidity float64) float64 {
	if volume <= 0 || spread <= 0 {
		return 0
	}
	base := spread * m.Multiplier
	volumeImpact := math.Max(0, volume-1) * 0.1 * spread

	var marketImpact float64
	if m.EnableMarketImpact && volume > m.ImpactThreshold {
		lf := m.LiquidityFactor * liquidity
		if lf < 1e-9 {
			lf = 1e-9
		}
		marketImpact = m.ImpactCoefficient * math.Sqrt(volume/lf) * spread
	}

	if volatility < 1 {
		volatility = 1
	}
	return (base + volumeImpact + marketImpact) * volatility
}

// Jitter draws the random factor in [JitterMin, JitterMax).
func Jitter(r rng.Rand) float64 {
	if r == nil {
		return 1
	}
	return rng.Uniform(r, JitterMin, JitterMax)
}
