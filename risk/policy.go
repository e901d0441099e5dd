// Package risk sizes positions from a stop distance and vets new trades
// against a risk policy.
package risk

import "time"

type Policy struct {
	// Risk limits
	DefaultRiskPct float64 // 0.005
	MaxRiskPct     float64 // 0.01

	// Circuit breaker
	MaxDailyLossPct float64 // 0.015

	// Exposure limit
	MaxOpenPositions int // 3

	// Trade constraint
	MinRR float64 // 1.5
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultRiskPct:   0.005,
		MaxRiskPct:       0.01,
		MaxDailyLossPct:  0.015,
		MaxOpenPositions: 3,
		MinRR:            1.5,
	}
}

type TradeIntent struct {
	Now        time.Time
	Lots       float64
	Entry      float64
	Stop       float64
	TakeProfit float64
}

type AccountSnapshot struct {
	Balance       float64
	Equity        float64
	OpenPositions int
}

type PnLSnapshot struct {
	DayRealized float64 // realized P/L since the start of the UTC day
}
