package risk

import "math"

// PlannedRisk is the account-currency loss of lots if the stop is hit.
func PlannedRisk(lots, entry, stop, contractSize, quoteToAccount float64) float64 {
	// price move in quote currency per unit of base, times units held
	return math.Abs(entry-stop) * lots * contractSize * quoteToAccount
}

func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}
