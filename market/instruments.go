package market

import (
	"fmt"
	"math"
)

// Instrument carries the contract details the simulator needs.
//
// Swap rates are in account currency per lot per night; positive is a credit.
type Instrument struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
	ContractSize  float64
	MinVolume     float64
	SwapLong      float64
	SwapShort     float64
}

// PipSize is 10^PipLocation, e.g. 0.0001 for EUR_USD.
func (i Instrument) PipSize() float64 {
	return math.Pow10(i.PipLocation)
}

var Instruments = map[string]Instrument{
	"EUR_USD": {
		Name:          "EUR_USD",
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		ContractSize:  100_000,
		MinVolume:     0.01,
		SwapLong:      -6.5,
		SwapShort:     2.1,
	},
	"GBP_USD": {
		Name:          "GBP_USD",
		BaseCurrency:  "GBP",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		ContractSize:  100_000,
		MinVolume:     0.01,
		SwapLong:      -4.2,
		SwapShort:     0.8,
	},
	"USD_JPY": {
		Name:          "USD_JPY",
		BaseCurrency:  "USD",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		ContractSize:  100_000,
		MinVolume:     0.01,
		SwapLong:      12.4,
		SwapShort:     -20.3,
	},
}

// Lookup returns the metadata for name.
func Lookup(name string) (Instrument, error) {
	inst, ok := Instruments[name]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument %q", name)
	}
	return inst, nil
}
