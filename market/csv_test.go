package market

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := `time,open,high,low,close,volume
2024-01-02T09:00:00Z,1.1000,1.1010,1.0990,1.1005,120
2024-01-02 10:00:00,1.1005,1.1020,1.1000,1.1015,80
`
	s, err := ReadCSV(strings.NewReader(in), "EUR_USD", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "EUR_USD", s.Instrument)
	assert.True(t, s.Bars[1].Time.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1.1015, s.Bars[1].Close)
	assert.NoError(t, s.Validate())
}

func TestReadCSVBadTime(t *testing.T) {
	t.Parallel()

	in := "time,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"
	_, err := ReadCSV(strings.NewReader(in), "EUR_USD", time.Hour)
	var mse *MalformedSeriesError
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, 0, mse.Index)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	src := NewSeries("EUR_USD", time.Hour, []Bar{bar(t0, 1.1), bar(t0.Add(time.Hour), 1.2)})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, src))

	got, err := ReadCSV(&buf, "EUR_USD", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, src.Bars, got.Bars)
}
