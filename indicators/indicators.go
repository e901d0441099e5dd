// Package indicators provides streaming technical indicators over bars.
package indicators

import "github.com/vsarmando/Ryze-Agents-sub002/market"

// Indicator computes a single streaming value from bars.
// It is deterministic, so a backtest replays it exactly.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, or 0 before Ready.
	Value() float64
}

var (
	_ Indicator = (*ExponentialMA)(nil)
	_ Indicator = (*ATR)(nil)
	_ Indicator = (*ADX)(nil)
)
