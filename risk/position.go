package risk

import (
	"math"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// EUR_USD in a USD account → QuoteToAccount = 1.0
// USD_JPY in a USD account → QuoteToAccount = 1 / USDJPY mid

type Inputs struct {
	Equity         float64
	RiskPct        float64 // 0.005
	EntryPrice     float64
	StopPrice      float64
	Instrument     market.Instrument
	QuoteToAccount float64
}

type Result struct {
	Lots       float64
	StopPips   float64
	RiskAmount float64
}

// Calculate sizes a position so that hitting the stop loses RiskPct of
// equity. Lots are floored to the instrument's minimum volume step; a stop
// too tight to size yields zero lots.
func Calculate(in Inputs) Result {
	pip := in.Instrument.PipSize()
	stopDist := math.Abs(in.EntryPrice - in.StopPrice)
	res := Result{
		StopPips:   stopDist / pip,
		RiskAmount: in.Equity * in.RiskPct,
	}

	lossPerLot := PlannedRisk(1, in.EntryPrice, in.StopPrice, in.Instrument.ContractSize, in.QuoteToAccount)
	if lossPerLot <= 0 || res.RiskAmount <= 0 {
		return res
	}

	lots := res.RiskAmount / lossPerLot
	if step := in.Instrument.MinVolume; step > 0 {
		lots = math.Floor(lots/step+1e-9) * step
	}
	res.Lots = lots
	return res
}
