package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteToAccountRate(t *testing.T) {
	t.Parallel()

	t.Run("quote currency equals account currency", func(t *testing.T) {
		rate, err := QuoteToAccountRate(Instruments["EUR_USD"], "USD", 1.1)
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)
	})

	t.Run("account currency is base", func(t *testing.T) {
		rate, err := QuoteToAccountRate(Instruments["USD_JPY"], "USD", 150.0)
		require.NoError(t, err)
		assert.InDelta(t, 1.0/150.0, rate, 1e-12)
	})

	t.Run("base conversion needs a price", func(t *testing.T) {
		_, err := QuoteToAccountRate(Instruments["USD_JPY"], "USD", 0)
		require.Error(t, err)
	})

	t.Run("cross is unsupported", func(t *testing.T) {
		_, err := QuoteToAccountRate(Instruments["GBP_USD"], "EUR", 1.25)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cross conversion not implemented")
	})
}

func TestPipSize(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0001, Instruments["EUR_USD"].PipSize(), 1e-15)
	assert.InDelta(t, 0.01, Instruments["USD_JPY"].PipSize(), 1e-15)

	_, err := Lookup("XAU_EUR")
	assert.Error(t, err)
}
