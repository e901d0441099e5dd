package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 09:00 UTC is London, session factor 1.
var london = time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

func newBook(t *testing.T) *Book {
	t.Helper()
	b := New(Config{BaseSpread: 0.001, SpreadMultiplier: 1, DepthPerLevel: 10}, nil)
	b.Initialize(1.0, 0.001)
	return b
}

func TestUpdateQuoteAroundCenter(t *testing.T) {
	t.Parallel()

	b := newBook(t)
	q := b.Update(1.0, 1.0, 100, london)

	assert.InDelta(t, 0.001, b.CurrentSpread(), 1e-12)
	assert.InDelta(t, 0.9995, q.Bid, 1e-12)
	assert.InDelta(t, 1.0005, q.Ask, 1e-12)
	assert.True(t, q.Time.Equal(london))
}

func TestUpdateIgnoresVolume(t *testing.T) {
	t.Parallel()

	thin, thick := newBook(t), newBook(t)
	for i := 0; i < 5; i++ {
		at := london.Add(time.Duration(i) * time.Hour)
		assert.Equal(t, thin.Update(1.0, 1.0, 0, at), thick.Update(1.0, 1.0, 1e9, at))
	}
	assert.Equal(t, thin.Levels(Bid), thick.Levels(Bid))
	assert.Equal(t, thin.TotalDepth(Ask), thick.TotalDepth(Ask))
}

func TestSessionFactorShapesSpread(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want float64
	}{
		{hour: 3, want: 0.0015},
		{hour: 9, want: 0.001},
		{hour: 13, want: 0.0008},
		{hour: 18, want: 0.001},
		{hour: 22, want: 0.002},
	}
	for _, tt := range tests {
		b := newBook(t)
		b.Update(1, 1, 0, time.Date(2024, 1, 3, tt.hour, 0, 0, 0, time.UTC))
		assert.InDelta(t, tt.want, b.CurrentSpread(), 1e-12, "hour %d", tt.hour)
	}
}

func TestDepthLevelsDecrease(t *testing.T) {
	t.Parallel()

	b := newBook(t)
	b.Update(1, 1, 0, london)

	top := b.DepthAt(Ask, 0).Volume
	require.InDelta(t, 10, top, 1e-12)
	for i := 0; i < Depth; i++ {
		ask := b.DepthAt(Ask, i)
		bid := b.DepthAt(Bid, i)
		assert.InDelta(t, top*(1-0.2*float64(i)), ask.Volume, 1e-12)
		assert.InDelta(t, ask.Volume, bid.Volume, 1e-12)
		assert.GreaterOrEqual(t, ask.OrderCount, 1)
		if i > 0 {
			assert.Greater(t, ask.Price, b.DepthAt(Ask, i-1).Price)
			assert.Less(t, bid.Price, b.DepthAt(Bid, i-1).Price)
		}
	}
	assert.Equal(t, Level{}, b.DepthAt(Ask, Depth))
	assert.Len(t, b.Levels(Bid), Depth)
	assert.InDelta(t, 10+8+6+4+2, b.TotalDepth(Bid), 1e-9)
}

func TestDrainLiquidityRecoversLinearly(t *testing.T) {
	t.Parallel()

	b := newBook(t)
	b.Update(1, 1, 0, london)

	b.DrainLiquidity(0.8, 2)
	assert.InDelta(t, 2, b.DepthAt(Bid, 0).Volume, 1e-9)

	var liq []float64
	for i := 0; i < 5; i++ {
		b.Update(1, 1, 0, london.Add(time.Duration(i+1)*time.Hour))
		liq = append(liq, b.Liquidity())
	}
	// two bars held, two bars of linear recovery, then baseline
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.6, 1.0, 1.0}, liq, 1e-9)
	assert.InDelta(t, 10, b.DepthAt(Bid, 0).Volume, 1e-9)
}

func TestDrainRaisesSpreadUpToClamp(t *testing.T) {
	t.Parallel()

	b := newBook(t)
	b.DrainLiquidity(0.5, 3)
	b.Update(1, 1, 0, london)
	assert.InDelta(t, 0.002, b.CurrentSpread(), 1e-12)

	b.DrainLiquidity(1, 3)
	b.Update(1, 1, 0, london.Add(time.Hour))
	assert.InDelta(t, b.MaxSpread(), b.CurrentSpread(), 1e-12)
	assert.Equal(t, 0.0, b.TotalDepth(Ask))
	assert.Equal(t, 0, b.DepthAt(Ask, 0).OrderCount)
}

func TestWidenSpreadExpires(t *testing.T) {
	t.Parallel()

	b := newBook(t)
	b.WidenSpread(3, 2)

	var spreads []float64
	for i := 0; i < 3; i++ {
		b.Update(1, 1, 0, london.Add(time.Duration(i)*time.Hour))
		spreads = append(spreads, b.CurrentSpread())
	}
	assert.InDeltaSlice(t, []float64{0.003, 0.003, 0.001}, spreads, 1e-12)

	b.WidenSpread(50, 1)
	b.Update(1, 1, 0, london.Add(4*time.Hour))
	assert.InDelta(t, b.MaxSpread(), b.CurrentSpread(), 1e-12)
}

func TestSpreadMultiplierScalesBounds(t *testing.T) {
	t.Parallel()

	b := New(Config{BaseSpread: 0.0002, SpreadMultiplier: 2}, nil)
	b.Initialize(1.2, 0)
	assert.InDelta(t, 0.0002, b.MinSpread(), 1e-12)
	assert.InDelta(t, 0.004, b.MaxSpread(), 1e-12)

	b.Update(1.2, 1.2, 0, london)
	assert.InDelta(t, 0.0004, b.CurrentSpread(), 1e-12)
}
