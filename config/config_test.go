package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 10000.0, cfg.Account.Balance)
	assert.Equal(t, "EUR_USD", cfg.Instrument.Name)
	assert.Equal(t, "wednesday", cfg.Instrument.TripleSwapDay)
	assert.Equal(t, 1000, cfg.Validation.BootstrapSamples)
	assert.Equal(t, 0.05, cfg.Validation.SignificanceLevel)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency is required"},
		{"negative balance", func(c *Config) { c.Account.Balance = -1000 }, "account.balance must be positive"},
		{"unknown instrument", func(c *Config) { c.Instrument.Name = "XAU_EUR" }, "unknown instrument"},
		{"zero spread", func(c *Config) { c.Instrument.BaseSpread = 0 }, "instrument.base_spread must be positive"},
		{"bad session", func(c *Config) { c.Instrument.Session = "lunar" }, "instrument.session"},
		{"bad rollover hour", func(c *Config) { c.Instrument.RolloverHour = 24 }, "rollover_hour"},
		{"bad swap day", func(c *Config) { c.Instrument.TripleSwapDay = "someday" }, "unknown weekday"},
		{"negative commission", func(c *Config) { c.Execution.CommissionPerLot = -1 }, "must not be negative"},
		{"zero liquidity", func(c *Config) { c.Execution.LiquidityFactor = 0 }, "liquidity_factor"},
		{"tiny volatility window", func(c *Config) { c.Backtest.VolatilityWindow = 1 }, "volatility_window"},
		{"zero bootstrap samples", func(c *Config) { c.Validation.BootstrapSamples = 0 }, "sample counts"},
		{"significance out of range", func(c *Config) { c.Validation.SignificanceLevel = 1 }, "significance_level"},
		{"zero walk-forward window", func(c *Config) { c.Validation.WalkForwardOutSampleBars = 0 }, "walk-forward"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "postgres" }, "journal.type"},
		{"csv without dir", func(c *Config) { c.Journal.Type = "csv" }, "journal dir required"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "journal db_path required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Backtest.RNGSeed = 77
			cfg.Execution.EnablePartialFills = false
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "runs.db"}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte(`
account:
  balance: 50000
execution:
  slippage_multiplier: 0.5
  enable_market_impact: false
backtest:
  rng_seed: 1234
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, cfg.Account.Balance)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 0.5, cfg.Execution.SlippageMultiplier)
	assert.False(t, cfg.Execution.EnableMarketImpact)
	assert.True(t, cfg.Execution.EnablePartialFills)
	assert.Equal(t, uint64(1234), cfg.Backtest.RNGSeed)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account: [1, 2\n"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "parse config")

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  balance: -1\n"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestComponentConfigs(t *testing.T) {
	cfg := Default()
	cfg.Instrument.Name = "USD_JPY"
	cfg.Instrument.BaseSpread = 0.01
	cfg.Instrument.Session = "always"
	cfg.Instrument.TripleSwapDay = "Fri"
	cfg.Execution.CommissionPerLot = 4
	cfg.Backtest.RNGSeed = 5
	cfg.Validation.Workers = 3
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.01, cfg.BookConfig().BaseSpread)
	assert.Equal(t, 4.0, cfg.SimConfig().CommissionPerLot)

	led, err := cfg.LedgerConfig()
	require.NoError(t, err)
	assert.Equal(t, "JPY", led.Instrument.QuoteCurrency)
	assert.Equal(t, time.Friday, led.TripleSwapDay)
	assert.Equal(t, 10000.0, led.InitialBalance)

	run, err := cfg.RunnerConfig()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), run.Seed)
	assert.Equal(t, market.AlwaysOpen{}, run.Session)
	assert.Equal(t, cfg.SimConfig(), run.Execution)
	assert.True(t, run.CloseOnEnd)

	val := cfg.ValidatorConfig()
	assert.Equal(t, uint64(5), val.Seed)
	assert.Equal(t, 3, val.Workers)

	crit := cfg.Criteria()
	assert.True(t, crit.RequireProfit)
	assert.Equal(t, 0.30, crit.MaxDrawdown)
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(first, []byte("SIMCORE_RNG_SEED=99\nSIMCORE_JOURNAL_DB=from-file.db\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("SIMCORE_RNG_SEED=1\nSIMCORE_LOG_LEVEL=warn\n"), 0o644))

	t.Setenv(EnvRNGSeed, "")
	t.Setenv(EnvJournalDB, "")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(first, second, filepath.Join(dir, "missing.env")))

	assert.Equal(t, uint64(99), cfg.Backtest.RNGSeed, "earlier file wins")
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "from-file.db", cfg.Journal.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level, "process environment wins")
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnvBadSeed(t *testing.T) {
	t.Setenv(EnvRNGSeed, "not-a-number")

	cfg := Default()
	assert.ErrorContains(t, cfg.ApplyEnv(), EnvRNGSeed)
}
