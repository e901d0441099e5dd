package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/vsarmando/Ryze-Agents-sub002/ledger"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

// EquityPoint is one bar of the equity curve.
type EquityPoint struct {
	Time     time.Time
	Balance  float64
	Equity   float64
	Drawdown float64 // fraction below the running peak
}

// Trade is one closed position in the trade log.
type Trade struct {
	PositionID int
	Side       sim.Side
	Volume     float64 // largest volume held
	OpenPrice  float64
	ClosePrice float64
	OpenTime   time.Time
	CloseTime  time.Time
	PnL        float64 // account currency, net of commission and swap
	Reason     string
	Fills      []int
}

func tradeOf(p ledger.Position) Trade {
	fills := make([]int, len(p.Legs))
	for i, l := range p.Legs {
		fills[i] = l.FillID
	}
	return Trade{
		PositionID: p.ID,
		Side:       p.Side,
		Volume:     p.MaxVolume(),
		OpenPrice:  p.OpenPrice,
		ClosePrice: p.ClosePrice,
		OpenTime:   p.OpenTime,
		CloseTime:  p.CloseTime,
		PnL:        p.Realized,
		Reason:     p.CloseReason,
		Fills:      fills,
	}
}

// Result summarises a run. The fill log, trade log and equity curve are
// frozen once the run ends and are only reachable as copies.
type Result struct {
	RunID      string
	Strategy   string
	Instrument string
	State      State
	Seed       uint64

	Bars  int
	Start time.Time
	End   time.Time

	InitialBalance float64
	Balance        float64
	Equity         float64

	Trades       int
	Wins         int
	Losses       int
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	MaxDrawdown  float64
	Sharpe       float64 // per bar, not annualised

	Orders     int
	Rejected   int
	Commission float64
	Slippage   float64 // account currency cost measured from the reference price
	Swap       float64

	fills  []sim.Fill
	orders []sim.Order
	trades []Trade
	equity []EquityPoint
}

func (r *Result) Fills() []sim.Fill { return append([]sim.Fill(nil), r.fills...) }

func (r *Result) OrderLog() []sim.Order { return append([]sim.Order(nil), r.orders...) }

// TradeLog returns the closed trades in close order.
func (r *Result) TradeLog() []Trade {
	out := make([]Trade, len(r.trades))
	for i, t := range r.trades {
		t.Fills = append([]int(nil), t.Fills...)
		out[i] = t
	}
	return out
}

func (r *Result) EquityCurve() []EquityPoint { return append([]EquityPoint(nil), r.equity...) }

// PnLs lists the net P&L of every closed trade.
func (r *Result) PnLs() []float64 {
	out := make([]float64, len(r.trades))
	for i, t := range r.trades {
		out[i] = t.PnL
	}
	return out
}

// Returns are the simple per-bar equity returns; len is Bars-1.
func (r *Result) Returns() []float64 {
	return EquityReturns(r.equity)
}

func (r *Result) NetPnL() float64 { return r.Equity - r.InitialBalance }

func (r *Result) WinRate() float64 {
	if r.Trades == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trades)
}

// EquityReturns converts an equity curve into simple returns. A bar whose
// previous equity is not positive yields 0.
func EquityReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev > 0 {
			out[i-1] = (curve[i].Equity - prev) / prev
		}
	}
	return out
}

// summarize fills in the derived statistics.
func (r *Result) summarize() {
	r.Trades = len(r.trades)
	r.Wins, r.Losses = 0, 0
	r.GrossProfit, r.GrossLoss = 0, 0
	for _, t := range r.trades {
		switch {
		case t.PnL > 0:
			r.Wins++
			r.GrossProfit += t.PnL
		case t.PnL < 0:
			r.Losses++
			r.GrossLoss += -t.PnL
		}
	}
	switch {
	case r.GrossLoss > 0:
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	case r.GrossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	default:
		r.ProfitFactor = 0
	}

	r.MaxDrawdown = 0
	for _, p := range r.equity {
		r.MaxDrawdown = math.Max(r.MaxDrawdown, p.Drawdown)
	}

	r.Sharpe = sharpe(r.Returns())
}

func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || sd < 1e-12 {
		return 0
	}
	return mean / sd
}

// Print writes a human readable summary.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Instrument:    %s\n", r.Instrument)
	fmt.Fprintf(w, "State:         %s\n", r.State)
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)
	if r.Bars > 0 {
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Orders:        %d (%d rejected)\n", r.Orders, r.Rejected)
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate()*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.Balance)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.Equity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPnL())
	fmt.Fprintf(w, "Commission:    %.2f\n", r.Commission)
	fmt.Fprintf(w, "Slippage:      %.2f\n", r.Slippage)
	fmt.Fprintf(w, "Swap:          %.2f\n", r.Swap)
	if r.ProfitFactor > 0 && !math.IsInf(r.ProfitFactor, 0) {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(w, "Sharpe (bar):  %.4f\n", r.Sharpe)
}
