package market

import "time"

// Quote is a two-sided price at a point in time.
type Quote struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

func (q Quote) Mid() float64 {
	if q.Bid == 0 && q.Ask == 0 {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// QuoteFromBar derives a zero-spread quote at the bar close. The order book
// model widens it into a tradable quote.
func QuoteFromBar(b Bar) Quote {
	return Quote{Time: b.Time, Bid: b.Close, Ask: b.Close}
}
