package sim

import "github.com/vsarmando/Ryze-Agents-sub002/market"

// pendingTag identifies the four pending order variants.
type pendingTag struct {
	Kind Kind
	Side Side
}

// A buy compares against the ask, a sell against the bid. Limits trigger
// when price moves through the level in the trader's favour, stops when it
// moves against.
var triggerRules = map[pendingTag]func(level float64, q market.Quote) bool{
	{Limit, Buy}:  func(level float64, q market.Quote) bool { return q.Ask <= level },
	{Limit, Sell}: func(level float64, q market.Quote) bool { return q.Bid >= level },
	{Stop, Buy}:   func(level float64, q market.Quote) bool { return q.Ask >= level },
	{Stop, Sell}:  func(level float64, q market.Quote) bool { return q.Bid <= level },
}

// triggered reports whether a pending request fires at quote q.
func triggered(req OrderRequest, q market.Quote) bool {
	rule, ok := triggerRules[pendingTag{req.Kind, req.Side}]
	if !ok {
		return false
	}
	return rule(req.Price, q)
}
