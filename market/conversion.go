package market

import "fmt"

// QuoteToAccountRate converts one unit of the instrument's quote currency
// into the account currency, given the instrument's current mid price.
func QuoteToAccountRate(inst Instrument, accountCurrency string, mid float64) (float64, error) {
	// Case 1: quote currency == account currency (EUR_USD, GBP_USD, etc.)
	if inst.QuoteCurrency == accountCurrency || accountCurrency == "" {
		return 1.0, nil
	}

	// Case 2: account currency is the base (USD_JPY in a USD account)
	if inst.BaseCurrency == accountCurrency {
		if mid <= 0 {
			return 0, fmt.Errorf("no price to convert %s into %s", inst.QuoteCurrency, accountCurrency)
		}
		return 1.0 / mid, nil
	}

	return 0, fmt.Errorf(
		"cross conversion not implemented for %s → %s",
		inst.QuoteCurrency,
		accountCurrency,
	)
}
