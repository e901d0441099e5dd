// Package config loads the simulator configuration: account, instrument and
// book model, execution costs, backtest loop settings, validation and
// journaling. Files are YAML (JSON is accepted as a fallback) with
// snake_case keys.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/book"
	"github.com/vsarmando/Ryze-Agents-sub002/ledger"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
	"github.com/vsarmando/Ryze-Agents-sub002/validate"
)

// Config represents the complete simulation configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Instrument InstrumentConfig `json:"instrument" yaml:"instrument"`
	Execution  ExecutionConfig  `json:"execution" yaml:"execution"`
	Backtest   BacktestConfig   `json:"backtest" yaml:"backtest"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// InstrumentConfig selects the traded instrument and shapes its book.
type InstrumentConfig struct {
	Name             string  `json:"name" yaml:"name"`
	BaseSpread       float64 `json:"base_spread" yaml:"base_spread"`
	SpreadMultiplier float64 `json:"spread_multiplier" yaml:"spread_multiplier"`
	DepthPerLevel    float64 `json:"depth_per_level" yaml:"depth_per_level"`
	Session          string  `json:"session" yaml:"session"` // "fx" or "always"
	RolloverHour     int     `json:"rollover_hour" yaml:"rollover_hour"`
	TripleSwapDay    string  `json:"triple_swap_day" yaml:"triple_swap_day"`
	DisableSwap      bool    `json:"disable_swap" yaml:"disable_swap"`
}

// ExecutionConfig contains the cost model of the execution engine
type ExecutionConfig struct {
	SlippageMultiplier float64 `json:"slippage_multiplier" yaml:"slippage_multiplier"`
	CommissionPerLot   float64 `json:"commission_per_lot" yaml:"commission_per_lot"`
	EnablePartialFills bool    `json:"enable_partial_fills" yaml:"enable_partial_fills"`
	EnableMarketImpact bool    `json:"enable_market_impact" yaml:"enable_market_impact"`
	LiquidityFactor    float64 `json:"liquidity_factor" yaml:"liquidity_factor"`
	ImpactCoefficient  float64 `json:"impact_coefficient" yaml:"impact_coefficient"`
	ImpactThreshold    float64 `json:"impact_threshold" yaml:"impact_threshold"`
	SpreadCap          float64 `json:"spread_cap,omitempty" yaml:"spread_cap,omitempty"`
}

// BacktestConfig contains the bar loop settings
type BacktestConfig struct {
	RNGSeed            uint64  `json:"rng_seed" yaml:"rng_seed"`
	VolatilityWindow   int     `json:"volatility_window" yaml:"volatility_window"`
	CloseOnEnd         bool    `json:"close_on_end" yaml:"close_on_end"`
	ResetOnGapBars     int     `json:"reset_on_gap_bars,omitempty" yaml:"reset_on_gap_bars,omitempty"`
	InvariantTolerance float64 `json:"invariant_tolerance" yaml:"invariant_tolerance"`
	Workers            int     `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// ValidationConfig contains the statistical validator parameters
type ValidationConfig struct {
	BootstrapSamples         int     `json:"bootstrap_samples" yaml:"bootstrap_samples"`
	MonteCarloIterations     int     `json:"monte_carlo_iterations" yaml:"monte_carlo_iterations"`
	VaRDraws                 int     `json:"var_draws" yaml:"var_draws"`
	SignificanceLevel        float64 `json:"significance_level" yaml:"significance_level"`
	MinOutSampleRatio        float64 `json:"min_out_sample_ratio" yaml:"min_out_sample_ratio"`
	WalkForwardInSampleBars  int     `json:"walk_forward_in_sample_bars" yaml:"walk_forward_in_sample_bars"`
	WalkForwardOutSampleBars int     `json:"walk_forward_out_sample_bars" yaml:"walk_forward_out_sample_bars"`
	MaxDrawdown              float64 `json:"max_drawdown" yaml:"max_drawdown"`
	MinPassRate              float64 `json:"min_pass_rate" yaml:"min_pass_rate"`
	Workers                  int     `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	JSON  bool   `json:"json" yaml:"json"`
}

// LoadFromFile loads configuration from a file, YAML first with a JSON
// fallback. Keys missing from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if c.Instrument.Name == "" {
		return fmt.Errorf("instrument.name is required")
	}
	if _, err := market.Lookup(c.Instrument.Name); err != nil {
		return fmt.Errorf("instrument.name: %w", err)
	}
	if c.Instrument.BaseSpread <= 0 {
		return fmt.Errorf("instrument.base_spread must be positive")
	}
	if c.Instrument.SpreadMultiplier < 0 || c.Instrument.DepthPerLevel < 0 {
		return fmt.Errorf("instrument.spread_multiplier and depth_per_level must not be negative")
	}
	switch c.Instrument.Session {
	case "", "fx", "always", "24x7":
	default:
		return fmt.Errorf("instrument.session must be 'fx' or 'always'")
	}
	if c.Instrument.RolloverHour < 0 || c.Instrument.RolloverHour > 23 {
		return fmt.Errorf("instrument.rollover_hour must be between 0 and 23")
	}
	if _, err := parseWeekday(c.Instrument.TripleSwapDay); err != nil {
		return fmt.Errorf("instrument.triple_swap_day: %w", err)
	}

	e := c.Execution
	if e.SlippageMultiplier < 0 || e.CommissionPerLot < 0 || e.ImpactCoefficient < 0 || e.ImpactThreshold < 0 || e.SpreadCap < 0 {
		return fmt.Errorf("execution costs must not be negative")
	}
	if e.LiquidityFactor <= 0 {
		return fmt.Errorf("execution.liquidity_factor must be positive")
	}

	if c.Backtest.VolatilityWindow < 2 {
		return fmt.Errorf("backtest.volatility_window must be at least 2")
	}
	if c.Backtest.ResetOnGapBars < 0 || c.Backtest.Workers < 0 {
		return fmt.Errorf("backtest.reset_on_gap_bars and workers must not be negative")
	}

	v := c.Validation
	if v.BootstrapSamples <= 0 || v.MonteCarloIterations <= 0 || v.VaRDraws <= 0 {
		return fmt.Errorf("validation sample counts must be positive")
	}
	if v.SignificanceLevel <= 0 || v.SignificanceLevel >= 1 {
		return fmt.Errorf("validation.significance_level must be between 0 and 1")
	}
	if v.MinOutSampleRatio < 0 || v.MinOutSampleRatio > 1 || v.MinPassRate < 0 || v.MinPassRate > 1 {
		return fmt.Errorf("validation ratios must be between 0 and 1")
	}
	if v.WalkForwardInSampleBars <= 0 || v.WalkForwardOutSampleBars <= 0 {
		return fmt.Errorf("validation walk-forward windows must be positive")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	bk := book.DefaultConfig()
	exec := sim.DefaultConfig()
	led := ledger.DefaultConfig()
	val := validate.DefaultConfig()
	crit := validate.DefaultCriteria()

	return &Config{
		Account: AccountConfig{
			Currency: led.AccountCurrency,
			Balance:  led.InitialBalance,
		},
		Instrument: InstrumentConfig{
			Name:             led.Instrument.Name,
			BaseSpread:       bk.BaseSpread,
			SpreadMultiplier: bk.SpreadMultiplier,
			DepthPerLevel:    bk.DepthPerLevel,
			Session:          "fx",
			RolloverHour:     led.RolloverHour,
			TripleSwapDay:    strings.ToLower(led.TripleSwapDay.String()),
		},
		Execution: ExecutionConfig{
			SlippageMultiplier: exec.SlippageMultiplier,
			CommissionPerLot:   exec.CommissionPerLot,
			EnablePartialFills: exec.EnablePartialFills,
			EnableMarketImpact: exec.EnableMarketImpact,
			LiquidityFactor:    exec.LiquidityFactor,
			ImpactCoefficient:  exec.ImpactCoefficient,
			ImpactThreshold:    exec.ImpactThreshold,
		},
		Backtest: BacktestConfig{
			VolatilityWindow:   market.DefaultVolatilityWindow,
			CloseOnEnd:         true,
			InvariantTolerance: 1e-6,
		},
		Validation: ValidationConfig{
			BootstrapSamples:         val.BootstrapSamples,
			MonteCarloIterations:     val.MonteCarloIterations,
			VaRDraws:                 val.VaRDraws,
			SignificanceLevel:        val.SignificanceLevel,
			MinOutSampleRatio:        val.MinOutSampleRatio,
			WalkForwardInSampleBars:  500,
			WalkForwardOutSampleBars: 100,
			MaxDrawdown:              crit.MaxDrawdown,
			MinPassRate:              crit.MinPassRate,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// BookConfig translates the instrument section into the book model config.
func (c *Config) BookConfig() book.Config {
	return book.Config{
		BaseSpread:       c.Instrument.BaseSpread,
		SpreadMultiplier: c.Instrument.SpreadMultiplier,
		DepthPerLevel:    c.Instrument.DepthPerLevel,
	}
}

func (c *Config) SimConfig() sim.Config {
	e := c.Execution
	return sim.Config{
		SlippageMultiplier: e.SlippageMultiplier,
		CommissionPerLot:   e.CommissionPerLot,
		EnablePartialFills: e.EnablePartialFills,
		EnableMarketImpact: e.EnableMarketImpact,
		LiquidityFactor:    e.LiquidityFactor,
		ImpactCoefficient:  e.ImpactCoefficient,
		ImpactThreshold:    e.ImpactThreshold,
		SpreadCap:          e.SpreadCap,
	}
}

// LedgerConfig resolves the instrument; call Validate first.
func (c *Config) LedgerConfig() (ledger.Config, error) {
	inst, err := market.Lookup(c.Instrument.Name)
	if err != nil {
		return ledger.Config{}, err
	}
	day, err := parseWeekday(c.Instrument.TripleSwapDay)
	if err != nil {
		return ledger.Config{}, err
	}
	return ledger.Config{
		InitialBalance:  c.Account.Balance,
		AccountCurrency: c.Account.Currency,
		Instrument:      inst,
		RolloverHour:    c.Instrument.RolloverHour,
		TripleSwapDay:   day,
		DisableSwap:     c.Instrument.DisableSwap,
	}, nil
}

// RunnerConfig assembles the full backtest configuration.
func (c *Config) RunnerConfig() (backtest.Config, error) {
	led, err := c.LedgerConfig()
	if err != nil {
		return backtest.Config{}, err
	}
	return backtest.Config{
		Book:               c.BookConfig(),
		Execution:          c.SimConfig(),
		Ledger:             led,
		Session:            market.SessionByName(c.Instrument.Session),
		VolatilityWindow:   c.Backtest.VolatilityWindow,
		Seed:               c.Backtest.RNGSeed,
		CloseOnEnd:         c.Backtest.CloseOnEnd,
		ResetOnGapBars:     c.Backtest.ResetOnGapBars,
		InvariantTolerance: c.Backtest.InvariantTolerance,
	}, nil
}

// ValidatorConfig shares the run seed so a validation is reproducible from
// the same file.
func (c *Config) ValidatorConfig() validate.Config {
	v := c.Validation
	return validate.Config{
		BootstrapSamples:     v.BootstrapSamples,
		MonteCarloIterations: v.MonteCarloIterations,
		VaRDraws:             v.VaRDraws,
		SignificanceLevel:    v.SignificanceLevel,
		MinOutSampleRatio:    v.MinOutSampleRatio,
		Seed:                 c.Backtest.RNGSeed,
		Workers:              v.Workers,
	}
}

// Criteria is the Monte Carlo pass criteria.
func (c *Config) Criteria() validate.Criteria {
	return validate.Criteria{
		RequireProfit: true,
		MaxDrawdown:   c.Validation.MaxDrawdown,
		MinPassRate:   c.Validation.MinPassRate,
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Wednesday, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
