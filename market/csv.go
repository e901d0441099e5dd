package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// barRow is the CSV layout: time,open,high,low,close,volume
type barRow struct {
	Time   string  `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"20060102 150405",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// ReadCSV decodes bars from r. Rows are kept in file order; ordering is
// checked by Series.Validate or by the runner, not here.
func ReadCSV(r io.Reader, instrument string, step time.Duration) (*Series, error) {
	var rows []barRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}

	bars := make([]Bar, 0, len(rows))
	for i, row := range rows {
		t, err := parseTime(row.Time)
		if err != nil {
			return nil, &MalformedSeriesError{Index: i, Problem: err.Error()}
		}
		bars = append(bars, Bar{
			Time:   t,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return NewSeries(instrument, step, bars), nil
}

// LoadCSV reads a bar file from disk.
func LoadCSV(path, instrument string, step time.Duration) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, instrument, step)
}

// WriteCSV encodes the series in the layout ReadCSV expects.
func WriteCSV(w io.Writer, s *Series) error {
	rows := make([]*barRow, len(s.Bars))
	for i, b := range s.Bars {
		rows[i] = &barRow{
			Time:   b.Time.UTC().Format(time.RFC3339),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return gocsv.Marshal(&rows, w)
}
