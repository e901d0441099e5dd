package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// File names used by NewCSV inside its directory.
const (
	RunsFile        = "runs.csv"
	FillsFile       = "fills.csv"
	TradesFile      = "trades.csv"
	EquityFile      = "equity.csv"
	ValidationsFile = "validations.csv"
)

type csvTable[T any] struct {
	f *os.File
	w *gocsv.SafeCSVWriter
}

func openTable[T any](path string) (*csvTable[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	t := &csvTable[T]{f: f, w: gocsv.NewSafeCSVWriter(csv.NewWriter(f))}
	if err := gocsv.MarshalCSV(&[]T{}, t.w); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journal: write header %s: %w", path, err)
	}
	return t, nil
}

func (t *csvTable[T]) write(rec T) error {
	if err := gocsv.MarshalCSVWithoutHeaders(&[]T{rec}, t.w); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

func (t *csvTable[T]) close() error {
	t.w.Flush()
	return errors.Join(t.w.Error(), t.f.Close())
}

// CSV writes one file per record kind into a directory, flushing after every
// row so a crashed run still leaves readable files.
type CSV struct {
	runs        *csvTable[RunRecord]
	fills       *csvTable[FillRecord]
	trades      *csvTable[TradeRecord]
	equity      *csvTable[EquitySnapshot]
	validations *csvTable[ValidationRecord]
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	j := &CSV{}
	var err error
	if j.runs, err = openTable[RunRecord](filepath.Join(dir, RunsFile)); err != nil {
		return nil, err
	}
	if j.fills, err = openTable[FillRecord](filepath.Join(dir, FillsFile)); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.trades, err = openTable[TradeRecord](filepath.Join(dir, TradesFile)); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.equity, err = openTable[EquitySnapshot](filepath.Join(dir, EquityFile)); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.validations, err = openTable[ValidationRecord](filepath.Join(dir, ValidationsFile)); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) RecordRun(r RunRecord) error { return j.runs.write(r) }

func (j *CSV) RecordFill(f FillRecord) error { return j.fills.write(f) }

func (j *CSV) RecordTrade(t TradeRecord) error { return j.trades.write(t) }

func (j *CSV) RecordEquity(e EquitySnapshot) error { return j.equity.write(e) }

func (j *CSV) RecordValidation(v ValidationRecord) error { return j.validations.write(v) }

func (j *CSV) Close() error {
	var errs []error
	if j.runs != nil {
		errs = append(errs, j.runs.close())
	}
	if j.fills != nil {
		errs = append(errs, j.fills.close())
	}
	if j.trades != nil {
		errs = append(errs, j.trades.close())
	}
	if j.equity != nil {
		errs = append(errs, j.equity.close())
	}
	if j.validations != nil {
		errs = append(errs, j.validations.close())
	}
	return errors.Join(errs...)
}
