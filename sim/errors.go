package sim

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOrder = errors.New("unknown order")
	ErrNotPending   = errors.New("order is not pending")
)

// RejectReason classifies a rejection.
type RejectReason string

const (
	ReasonInvalidVolume     RejectReason = "invalid_volume"
	ReasonInvalidRequest    RejectReason = "invalid_request"
	ReasonMarketClosed      RejectReason = "market_closed"
	ReasonNoLiquidity       RejectReason = "no_liquidity"
	ReasonInsufficientDepth RejectReason = "insufficient_depth"
	ReasonExcessiveSlippage RejectReason = "excessive_slippage"
)

// RejectedOrder is returned when an order cannot be executed. The order is
// recorded with StatusRejected and is not retried.
type RejectedOrder struct {
	OrderID int
	Reason  RejectReason
	Detail  string
}

func (e *RejectedOrder) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("order %d rejected: %s", e.OrderID, e.Reason)
	}
	return fmt.Sprintf("order %d rejected: %s: %s", e.OrderID, e.Reason, e.Detail)
}

// AsRejected unwraps a *RejectedOrder from err.
func AsRejected(err error) (*RejectedOrder, bool) {
	var rej *RejectedOrder
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
