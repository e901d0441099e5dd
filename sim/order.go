package sim

import (
	"fmt"
	"time"
)

// Side of an order or fill.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

// Sign is +1 for buys and -1 for sells.
func (s Side) Sign() float64 { return float64(s) }

func (s Side) Opposite() Side { return -s }

func (s Side) Valid() bool { return s == Buy || s == Sell }

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", int8(s))
	}
}

// Kind of order.
type Kind int8

const (
	Market Kind = iota
	Limit
	Stop
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

// OrderRequest is what a strategy asks for. Volume is in lots. Price is the
// limit or stop level for pending orders; for market orders a non-zero Price
// is the reference slippage is measured from (the mid otherwise).
// StopLoss/TakeProfit of 0 mean none; a zero Expiration never expires.
type OrderRequest struct {
	Side       Side
	Kind       Kind
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Expiration time.Time

	// ClosePosition, when non-zero, makes a market order reduce or close that
	// ledger position instead of opening a new one.
	ClosePosition int
	Tag           string
}

// OrderStatus is the lifecycle state of an order. Every status but Pending
// is terminal.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusFilled          OrderStatus = "filled"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusRejected        OrderStatus = "rejected"
	StatusExpired         OrderStatus = "expired"
	StatusCancelled       OrderStatus = "cancelled"
)

func (s OrderStatus) Terminal() bool { return s != StatusPending }

func (s OrderStatus) IsFilled() bool {
	return s == StatusFilled || s == StatusPartiallyFilled
}

// Order is the engine's record of a request. Records live in a flat arena
// indexed by ID-1 and are never removed.
type Order struct {
	ID      int
	Request OrderRequest
	Status  OrderStatus
	Reason  RejectReason
	Created time.Time
	Updated time.Time
	Fills   []int
}

// Fill is an execution. Fills are immutable once created.
//
// Slippage is the adverse distance, in price units, between the executed
// price and the order's reference price; a negative value is price
// improvement. Commission is in account currency.
type Fill struct {
	ID         int
	OrderID    int
	Side       Side
	Volume     float64
	Price      float64
	Slippage   float64
	Commission float64
	Time       time.Time
	Partial    bool

	// Closes is the ledger position this fill reduces; 0 for opening fills.
	Closes int
	Reason string
}

// Execution is the outcome of one order event.
type Execution struct {
	OrderID int
	Status  OrderStatus
	Fills   []Fill
}
