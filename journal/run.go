package journal

import (
	"time"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/validate"
)

// RunOf converts a result's summary.
func RunOf(res *backtest.Result) RunRecord {
	return RunRecord{
		RunID:          res.RunID,
		Created:        time.Now().UTC(),
		Strategy:       res.Strategy,
		Instrument:     res.Instrument,
		State:          res.State.String(),
		Seed:           res.Seed,
		Bars:           res.Bars,
		Start:          res.Start,
		End:            res.End,
		InitialBalance: res.InitialBalance,
		Balance:        res.Balance,
		Equity:         res.Equity,
		Trades:         res.Trades,
		Wins:           res.Wins,
		Losses:         res.Losses,
		ProfitFactor:   res.ProfitFactor,
		MaxDrawdown:    res.MaxDrawdown,
		Sharpe:         res.Sharpe,
		Orders:         res.Orders,
		Rejected:       res.Rejected,
		Commission:     res.Commission,
		Slippage:       res.Slippage,
		Swap:           res.Swap,
	}
}

// WriteRun persists a finished run and the validation results computed from
// it. Journals implementing Batcher write everything in one transaction.
func WriteRun(j Journal, res *backtest.Result, checks []validate.Result) error {
	write := func() error {
		if p, ok := j.(Purger); ok {
			if err := p.DeleteRun(res.RunID); err != nil {
				return err
			}
		}
		if err := j.RecordRun(RunOf(res)); err != nil {
			return err
		}
		for _, f := range res.Fills() {
			err := j.RecordFill(FillRecord{
				RunID:      res.RunID,
				FillID:     f.ID,
				OrderID:    f.OrderID,
				Side:       f.Side.String(),
				Volume:     f.Volume,
				Price:      f.Price,
				Slippage:   f.Slippage,
				Commission: f.Commission,
				Time:       f.Time,
				Partial:    f.Partial,
				Closes:     f.Closes,
				Reason:     f.Reason,
			})
			if err != nil {
				return err
			}
		}
		for _, t := range res.TradeLog() {
			err := j.RecordTrade(TradeRecord{
				RunID:      res.RunID,
				TradeID:    t.PositionID,
				Instrument: res.Instrument,
				Side:       t.Side.String(),
				Volume:     t.Volume,
				EntryPrice: t.OpenPrice,
				ExitPrice:  t.ClosePrice,
				OpenTime:   t.OpenTime,
				CloseTime:  t.CloseTime,
				RealizedPL: t.PnL,
				Reason:     t.Reason,
			})
			if err != nil {
				return err
			}
		}
		for _, p := range res.EquityCurve() {
			err := j.RecordEquity(EquitySnapshot{
				RunID:    res.RunID,
				Time:     p.Time,
				Balance:  p.Balance,
				Equity:   p.Equity,
				Drawdown: p.Drawdown,
			})
			if err != nil {
				return err
			}
		}
		for _, c := range checks {
			err := j.RecordValidation(ValidationRecord{
				RunID:     res.RunID,
				Method:    c.Method,
				Statistic: c.Statistic,
				PValue:    c.PValue,
				Lower:     c.Lower,
				Upper:     c.Upper,
				Passed:    c.Passed,
				Status:    string(c.Status),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	if b, ok := j.(Batcher); ok {
		return b.Batch(write)
	}
	return write()
}
