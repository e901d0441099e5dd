package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
)

var tue = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DisableSwap = true
	l, err := New(cfg, nil)
	require.NoError(t, err)
	return l
}

func fill(id int, side sim.Side, vol, price, comm float64) sim.Fill {
	return sim.Fill{ID: id, Side: side, Volume: vol, Price: price, Commission: comm, Time: tue}
}

func TestOpenAndCloseLong(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 1, 1.1000, 7), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	q := market.Quote{Bid: 1.1010, Ask: 1.1012}
	assert.InDelta(t, 100-7, l.Unrealized(q), 1e-6)
	assert.InDelta(t, 10_000+93, l.Equity(q), 1e-6)

	pnl, err := l.Close(id, fill(2, sim.Sell, 1, 1.1010, 7), "manual")
	require.NoError(t, err)
	assert.InDelta(t, 86, pnl, 1e-6)
	assert.InDelta(t, 86, l.Realized(), 1e-6)
	assert.InDelta(t, 10_086, l.Balance(), 1e-6)
	assert.Zero(t, l.Unrealized(q))
	assert.Empty(t, l.OpenIDs())

	p, ok := l.Position(id)
	require.True(t, ok)
	assert.True(t, p.Closed)
	assert.Equal(t, "manual", p.CloseReason)
	assert.Equal(t, 1.1010, p.ClosePrice)
	assert.Len(t, p.Legs, 2)
	assert.Zero(t, p.NetVolume())
}

func TestShortMarksAtAsk(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, err := l.Open(fill(1, sim.Sell, 1, 1.1000, 0), 0, 0)
	require.NoError(t, err)

	q := market.Quote{Bid: 1.0990, Ask: 1.0992}
	assert.InDelta(t, 80, l.Unrealized(q), 1e-6)
}

func TestPartialCloseIsProRata(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 2, 1.1000, 14), 0, 0)
	require.NoError(t, err)

	pnl, err := l.Close(id, fill(2, sim.Sell, 0.5, 1.1020, 3.5), "reduce")
	require.NoError(t, err)
	assert.InDelta(t, 100-3.5-3.5, pnl, 1e-6)

	p, _ := l.Position(id)
	assert.False(t, p.Closed)
	assert.InDelta(t, 1.5, p.Volume, 1e-12)
	assert.InDelta(t, 10.5, p.Commission, 1e-12)
	assert.InDelta(t, 2, p.MaxVolume(), 1e-12)
	assert.Equal(t, []int{1}, l.OpenIDs())
}

func TestIncreaseAveragesOpenPrice(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 1, 1.1000, 7), 0, 0)
	require.NoError(t, err)
	require.NoError(t, l.Increase(id, fill(2, sim.Buy, 3, 1.1004, 21)))

	p, _ := l.Position(id)
	assert.InDelta(t, 4, p.Volume, 1e-12)
	assert.InDelta(t, 1.1003, p.OpenPrice, 1e-12)
	assert.InDelta(t, 28, p.Commission, 1e-12)
	assert.InDelta(t, 4, p.NetVolume(), 1e-12)
}

func TestLedgerErrors(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 1, 1.1, 0), 0, 0)
	require.NoError(t, err)

	_, err = l.Open(fill(2, sim.Buy, 0, 1.1, 0), 0, 0)
	assert.Error(t, err)

	_, err = l.Close(9, fill(3, sim.Sell, 1, 1.1, 0), "")
	assert.ErrorIs(t, err, ErrUnknownPosition)
	_, err = l.Close(id, fill(3, sim.Buy, 1, 1.1, 0), "")
	assert.ErrorIs(t, err, ErrSideMismatch)
	_, err = l.Close(id, fill(3, sim.Sell, 2, 1.1, 0), "")
	assert.ErrorIs(t, err, ErrOverClose)
	assert.ErrorIs(t, l.Increase(id, fill(3, sim.Sell, 1, 1.1, 0)), ErrSideMismatch)

	_, err = l.Close(id, fill(3, sim.Sell, 1, 1.1, 0), "")
	require.NoError(t, err)
	_, err = l.Close(id, fill(4, sim.Sell, 1, 1.1, 0), "")
	assert.ErrorIs(t, err, ErrPositionClosed)
	assert.ErrorIs(t, l.Modify(id, 1, 2), ErrPositionClosed)
	assert.ErrorIs(t, l.Increase(id, fill(4, sim.Buy, 1, 1.1, 0)), ErrPositionClosed)
	assert.ErrorIs(t, l.Modify(0, 1, 2), ErrUnknownPosition)
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.AccountCurrency = "EUR"
	cfg.Instrument = market.Instruments["USD_JPY"]
	_, err := New(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Instrument.ContractSize = 0
	_, err = New(cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.RolloverHour = 24
	_, err = New(cfg, nil)
	assert.Error(t, err)
}

func TestMarkToMarketTriggers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		side   sim.Side
		sl, tp float64
		quote  market.Quote
		reason string
		level  float64
	}{
		{"long stop", sim.Buy, 1.095, 1.105, market.Quote{Bid: 1.0940, Ask: 1.0942}, ReasonStopLoss, 1.095},
		{"long target", sim.Buy, 1.095, 1.105, market.Quote{Bid: 1.1060, Ask: 1.1062}, ReasonTakeProfit, 1.105},
		{"long ask over target does not count", sim.Buy, 1.095, 1.105, market.Quote{Bid: 1.1049, Ask: 1.1051}, "", 0},
		{"short stop on ask", sim.Sell, 1.105, 1.095, market.Quote{Bid: 1.1049, Ask: 1.1051}, ReasonStopLoss, 1.105},
		{"short target on ask", sim.Sell, 1.105, 1.095, market.Quote{Bid: 1.0940, Ask: 1.0942}, ReasonTakeProfit, 1.095},
		{"both breached, stop wins", sim.Buy, 1.11, 1.10, market.Quote{Bid: 1.1050, Ask: 1.1052}, ReasonStopLoss, 1.11},
		{"no levels", sim.Buy, 0, 0, market.Quote{Bid: 0.5, Ask: 0.5}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			id, err := l.Open(fill(1, tt.side, 2, 1.1, 0), tt.sl, tt.tp)
			require.NoError(t, err)

			trs := l.MarkToMarket(tt.quote, tue)
			if tt.reason == "" {
				assert.Empty(t, trs)
				return
			}
			require.Len(t, trs, 1)
			assert.Equal(t, Trigger{Position: id, Reason: tt.reason, Level: tt.level, Side: tt.side.Opposite(), Volume: 2}, trs[0])
		})
	}
}

func TestMarkBarRange(t *testing.T) {
	t.Parallel()

	// mid closes at 1.1000 with a two pip spread
	q := market.Quote{Bid: 1.0999, Ask: 1.1001}
	later := tue.Add(time.Hour)

	tests := []struct {
		name      string
		side      sim.Side
		sl, tp    float64
		low, high float64
		reason    string
		level     float64
	}{
		{"long stop on the low", sim.Buy, 1.095, 1.105, 1.0940, 1.1010, ReasonStopLoss, 1.095},
		{"long target on the high", sim.Buy, 1.095, 1.105, 1.0990, 1.1060, ReasonTakeProfit, 1.105},
		{"long bid short of target", sim.Buy, 1.095, 1.105, 1.0990, 1.1050, "", 0},
		{"long bid under stop, mid above", sim.Buy, 1.095, 1.105, 1.09505, 1.1010, ReasonStopLoss, 1.095},
		{"long inside range", sim.Buy, 1.095, 1.105, 1.0960, 1.1040, "", 0},
		{"short stop on the ask at the high", sim.Sell, 1.105, 1.095, 1.0990, 1.10495, ReasonStopLoss, 1.105},
		{"short target on the ask at the low", sim.Sell, 1.105, 1.095, 1.0940, 1.1010, ReasonTakeProfit, 1.095},
		{"both breached, stop wins", sim.Buy, 1.095, 1.105, 1.0900, 1.1100, ReasonStopLoss, 1.095},
		{"short both breached, stop wins", sim.Sell, 1.105, 1.095, 1.0900, 1.1100, ReasonStopLoss, 1.105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			id, err := l.Open(fill(1, tt.side, 1, 1.1, 0), tt.sl, tt.tp)
			require.NoError(t, err)

			trs := l.MarkBar(q, tt.low, tt.high, later)
			if tt.reason == "" {
				assert.Empty(t, trs)
				return
			}
			require.Len(t, trs, 1)
			assert.Equal(t, Trigger{Position: id, Reason: tt.reason, Level: tt.level, Side: tt.side.Opposite(), Volume: 1}, trs[0])
		})
	}
}

func TestMarkBarSkipsRangeForNewPositions(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, err := l.Open(fill(1, sim.Buy, 1, 1.1, 0), 1.095, 0)
	require.NoError(t, err)

	q := market.Quote{Bid: 1.0999, Ask: 1.1001}
	assert.Empty(t, l.MarkBar(q, 1.09, 1.11, tue), "filled at the close, the earlier low never applied")
	assert.Len(t, l.MarkBar(q, 1.09, 1.11, tue.Add(time.Hour)), 1)
}

func TestModifyChangesTriggers(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 1, 1.1, 0), 0, 0)
	require.NoError(t, err)

	q := market.Quote{Bid: 1.09, Ask: 1.0902}
	assert.Empty(t, l.MarkToMarket(q, tue))
	require.NoError(t, l.Modify(id, 1.095, 0))
	assert.Len(t, l.MarkToMarket(q, tue), 1)
	require.NoError(t, l.Modify(id, 0, 0))
	assert.Empty(t, l.MarkToMarket(q, tue))
}

func TestSwapRollovers(t *testing.T) {
	t.Parallel()

	l, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = l.Open(sim.Fill{ID: 1, Side: sim.Buy, Volume: 2, Price: 1.1, Time: tue}, 0, 0)
	require.NoError(t, err)
	q := market.Quote{Bid: 1.1, Ask: 1.1}

	day := 24 * time.Hour
	l.MarkToMarket(q, tue)
	assert.Zero(t, l.SwapTotal())

	l.MarkToMarket(q, tue.Add(day)) // Wednesday rollover: three nights
	assert.InDelta(t, 2*-6.5*3, l.SwapTotal(), 1e-9)

	l.MarkToMarket(q, tue.Add(2*day)) // Thursday
	assert.InDelta(t, 2*-6.5*4, l.SwapTotal(), 1e-9)

	l.MarkToMarket(q, tue.Add(6*day)) // Friday and Monday; weekend skipped
	assert.InDelta(t, 2*-6.5*6, l.SwapTotal(), 1e-9)

	p, _ := l.Position(1)
	assert.InDelta(t, l.SwapTotal(), p.SwapAccrued, 1e-9)
	assert.InDelta(t, -78, l.Unrealized(q), 1e-9)

	// half the swap is realized on a half close
	pnl, err := l.Close(1, sim.Fill{ID: 2, Side: sim.Sell, Volume: 1, Price: 1.1, Time: tue.Add(6 * day)}, "manual")
	require.NoError(t, err)
	assert.InDelta(t, -39, pnl, 1e-9)
}

func TestSwapSkipsPositionsOpenedAfterRollover(t *testing.T) {
	t.Parallel()

	l, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	q := market.Quote{Bid: 1.1, Ask: 1.1}

	l.MarkToMarket(q, tue)
	_, err = l.Open(sim.Fill{ID: 1, Side: sim.Sell, Volume: 1, Price: 1.1, Time: tue.Add(13 * time.Hour)}, 0, 0)
	require.NoError(t, err)
	l.MarkToMarket(q, tue.Add(14*time.Hour)) // opened after Wednesday 00:00
	assert.Zero(t, l.SwapTotal())

	l.MarkToMarket(q, tue.Add(36*time.Hour)) // Thursday 00:00
	assert.InDelta(t, 2.1, l.SwapTotal(), 1e-9)
}

func TestCheckInvariantRebuildsEquity(t *testing.T) {
	t.Parallel()

	q := market.Quote{Bid: 1.1010, Ask: 1.1012}
	l := newLedger(t)
	id, err := l.Open(fill(1, sim.Buy, 2, 1.1000, 14), 0, 0)
	require.NoError(t, err)
	require.NoError(t, l.Increase(id, fill(2, sim.Buy, 1, 1.1006, 7)))
	_, err = l.Close(id, fill(3, sim.Sell, 1, 1.1020, 7), "test")
	require.NoError(t, err)
	short, err := l.Open(fill(4, sim.Sell, 1, 1.1030, 7), 0, 0)
	require.NoError(t, err)
	require.NoError(t, l.CheckInvariant(q, 1e-9))

	l.positions[id-1].OpenPrice -= 0.0010
	assert.ErrorContains(t, l.CheckInvariant(q, 1e-9), "rebuilt from fills")
	l.positions[id-1].OpenPrice += 0.0010
	require.NoError(t, l.CheckInvariant(q, 1e-9))

	l.positions[short-1].Commission = 0
	assert.ErrorContains(t, l.CheckInvariant(q, 1e-9), "rebuilt from fills")
}

func TestClosedPnLEqualsSumOverFills(t *testing.T) {
	t.Parallel()

	r := rng.New(77)
	l := newLedger(t)
	cs := l.Config().Instrument.ContractSize
	fid := 0
	next := func(side sim.Side, vol float64) sim.Fill {
		fid++
		return sim.Fill{ID: fid, Side: side, Volume: vol, Price: rng.Uniform(r, 1.05, 1.15), Commission: 7 * vol, Time: tue}
	}

	for i := 0; i < 30; i++ {
		side := sim.Buy
		if r.IntN(2) == 0 {
			side = sim.Sell
		}
		id, err := l.Open(next(side, float64(1+r.IntN(3))), 0, 0)
		require.NoError(t, err)
		require.NoError(t, l.Increase(id, next(side, 0.5)))

		for {
			p, _ := l.Position(id)
			if p.Closed {
				break
			}
			vol := p.Volume
			if vol > 1 {
				vol = 1
			}
			_, err := l.Close(id, next(side.Opposite(), vol), "test")
			require.NoError(t, err)
		}
		require.NoError(t, l.CheckInvariant(market.Quote{Bid: 1.1, Ask: 1.1}, 1e-9))
	}

	var total float64
	for _, p := range l.Positions() {
		var want float64
		for _, leg := range p.Legs {
			want += -leg.Volume*leg.Price*cs - leg.Commission
		}
		assert.InDelta(t, want, p.Realized, 1e-6, "position %d", p.ID)
		total += p.Realized
	}
	assert.InDelta(t, total, l.Realized(), 1e-6)
}
