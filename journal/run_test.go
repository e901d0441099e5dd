package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
	"github.com/vsarmando/Ryze-Agents-sub002/validate"
)

// runBacktest buys on bar 1, sells the position on bar 4 and leaves a second
// long open for the end-of-data close.
func runBacktest(t *testing.T) *backtest.Result {
	t.Helper()
	return runBacktestSeed(t, 9)
}

func runBacktestSeed(t *testing.T, seed uint64) *backtest.Result {
	t.Helper()

	start := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 8)
	for i := range bars {
		c := 1.10 + 0.001*float64(i)
		bars[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	series := market.NewSeries("EUR_USD", time.Hour, bars)

	cfg := backtest.DefaultConfig()
	cfg.Session = market.AlwaysOpen{}
	cfg.Seed = seed
	cfg.CloseOnEnd = true

	strat := backtest.StrategyFunc(func(ctx *backtest.Context, _ market.Bar) []sim.OrderRequest {
		switch ctx.Index {
		case 1:
			return []sim.OrderRequest{{Side: sim.Buy, Kind: sim.Market, Volume: 1}}
		case 4:
			return []sim.OrderRequest{
				{Side: sim.Sell, Kind: sim.Market, Volume: 1, ClosePosition: ctx.Positions[0].ID},
				{Side: sim.Buy, Kind: sim.Market, Volume: 0.5},
			}
		}
		return nil
	})

	r, err := backtest.NewRunner(cfg, series, strat, nil)
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Trades)
	return res
}

func TestWriteRunSQLite(t *testing.T) {
	t.Parallel()

	res := runBacktest(t)
	checks := validate.New(validate.Config{Seed: 1, Workers: 2}, nil).Suite(validate.SuiteInput{
		PnLs:           res.PnLs(),
		Returns:        res.Returns(),
		InitialBalance: res.InitialBalance,
		PeriodsPerYear: 252 * 24,
	})

	j, _ := newTestSQLite(t)
	defer j.Close()
	require.NoError(t, WriteRun(j, res, checks))

	run, err := j.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "completed", run.State)
	assert.Equal(t, uint64(9), run.Seed)
	assert.Equal(t, 8, run.Bars)
	assert.InDelta(t, res.Equity, run.Equity, 1e-9)

	fills, err := j.ListFills(res.RunID)
	require.NoError(t, err)
	assert.Len(t, fills, len(res.Fills()))

	trades, err := j.ListTrades(res.RunID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	var sum float64
	for i, tr := range trades {
		assert.Equal(t, res.TradeLog()[i].PositionID, tr.TradeID)
		sum += tr.RealizedPL
	}
	assert.InDelta(t, res.Balance-res.InitialBalance, sum, 1e-6)
	assert.Equal(t, backtest.EndOfData, trades[1].Reason)

	equity, err := j.ListEquity(res.RunID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, equity, 8)

	vals, err := j.ListValidations(res.RunID)
	require.NoError(t, err)
	assert.Len(t, vals, len(checks))
}

func TestWriteRunSameSeedKeepsBothRuns(t *testing.T) {
	t.Parallel()

	a := runBacktestSeed(t, 7)
	b := runBacktestSeed(t, 7)
	require.NotEqual(t, a.RunID, b.RunID)

	j, _ := newTestSQLite(t)
	defer j.Close()
	require.NoError(t, WriteRun(j, a, nil))
	require.NoError(t, WriteRun(j, b, nil))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	for _, res := range []*backtest.Result{a, b} {
		fills, err := j.ListFills(res.RunID)
		require.NoError(t, err)
		assert.Len(t, fills, len(res.Fills()))
	}
}

func TestWriteRunTwiceReplaces(t *testing.T) {
	t.Parallel()

	res := runBacktest(t)
	j, _ := newTestSQLite(t)
	defer j.Close()
	require.NoError(t, WriteRun(j, res, nil))
	require.NoError(t, WriteRun(j, res, nil))

	runs, err := j.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	fills, err := j.ListFills(res.RunID)
	require.NoError(t, err)
	assert.Len(t, fills, len(res.Fills()))
	equity, err := j.ListEquity(res.RunID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, equity, len(res.EquityCurve()))
}

func TestWriteRunCSV(t *testing.T) {
	t.Parallel()

	res := runBacktest(t)
	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)
	require.NoError(t, WriteRun(j, res, nil))
	require.NoError(t, j.Close())

	f, err := os.Open(filepath.Join(dir, FillsFile))
	require.NoError(t, err)
	defer f.Close()
	var fills []FillRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &fills))
	require.Len(t, fills, len(res.Fills()))
	for i, fr := range fills {
		assert.Equal(t, res.RunID, fr.RunID)
		assert.Equal(t, res.Fills()[i].ID, fr.FillID)
	}
}
