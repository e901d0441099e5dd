package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/journal"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/risk"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
	"github.com/vsarmando/Ryze-Agents-sub002/strategies"
	"github.com/vsarmando/Ryze-Agents-sub002/validate"
)

type backtestOpts struct {
	data     string
	step     time.Duration
	strategy string
	side     string
	seed     uint64
	runs     int
	workers  int
	validate bool
	policy   bool

	journalType string
	journalDB   string
	journalDir  string

	params strategies.Params
}

func newBacktestCmd(a *app) *cobra.Command {
	o := &backtestOpts{params: strategies.DefaultParams()}

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a strategy over a bar CSV through the execution simulator",
		Example: `  simcore backtest --data eurusd_h1.csv --strategy ema_cross --fast 20 --slow 50
  simcore backtest --data eurusd_h1.csv --runs 8 --seed 7 --validate --journal sqlite --db runs.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				a.cfg.Backtest.RNGSeed = o.seed
			}
			if o.journalType != "" {
				a.cfg.Journal.Type = o.journalType
			}
			if o.journalDB != "" {
				a.cfg.Journal.DBPath = o.journalDB
			}
			if o.journalDir != "" {
				a.cfg.Journal.Dir = o.journalDir
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runBacktest(cmd, a, o)
		},
	}

	p := &o.params
	cmd.Flags().StringVar(&o.data, "data", "", "Bar CSV (time,open,high,low,close,volume)")
	cmd.Flags().DurationVar(&o.step, "step", time.Hour, "Bar period, used to detect gaps")
	cmd.Flags().StringVar(&o.strategy, "strategy", "ema_cross", "Strategy: "+strings.Join(strategies.Names(), "|"))
	cmd.Flags().StringVar(&o.side, "side", "buy", "Order side for open_once/alternating (buy|sell)")
	cmd.Flags().Float64Var(&p.Volume, "volume", p.Volume, "Lots per order when --risk is 0")
	cmd.Flags().IntVar(&p.Every, "every", p.Every, "Bars between alternating orders")
	cmd.Flags().IntVar(&p.FastPeriod, "fast", p.FastPeriod, "Fast EMA period")
	cmd.Flags().IntVar(&p.SlowPeriod, "slow", p.SlowPeriod, "Slow EMA period")
	cmd.Flags().IntVar(&p.ADXPeriod, "adx-period", p.ADXPeriod, "ADX period")
	cmd.Flags().Float64Var(&p.MinADX, "min-adx", p.MinADX, "Minimum ADX to enter (0 disables the filter)")
	cmd.Flags().Float64Var(&p.RiskPct, "risk", p.RiskPct, "Fraction of equity risked per trade (0 = fixed --volume)")
	cmd.Flags().Float64Var(&p.StopPips, "stop-pips", p.StopPips, "Stop distance in pips")
	cmd.Flags().IntVar(&p.ATRPeriod, "atr-period", p.ATRPeriod, "ATR period for --atr-stop")
	cmd.Flags().Float64Var(&p.ATRMult, "atr-stop", p.ATRMult, "Stop distance in ATRs, replacing --stop-pips (0 disables)")
	cmd.Flags().Float64Var(&p.RR, "rr", p.RR, "Take-profit multiple of the stop distance")
	cmd.Flags().BoolVar(&o.policy, "policy", false, "Apply the default risk policy to entries")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "RNG seed (overrides config)")
	cmd.Flags().IntVar(&o.runs, "runs", 1, "Independent runs, each on its own RNG stream")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "Concurrent runs (0 = config, then all)")
	cmd.Flags().BoolVar(&o.validate, "validate", false, "Run the validation suite on each result")
	cmd.Flags().StringVar(&o.journalType, "journal", "", "Journal: none|csv|sqlite (overrides config)")
	cmd.Flags().StringVar(&o.journalDB, "db", "", "SQLite journal path")
	cmd.Flags().StringVar(&o.journalDir, "journal-dir", "", "CSV journal directory")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func (o *backtestOpts) strategyParams(a *app) (strategies.Params, error) {
	p := o.params
	inst, err := market.Lookup(a.cfg.Instrument.Name)
	if err != nil {
		return p, err
	}
	p.Instrument = inst
	p.AccountCurrency = a.cfg.Account.Currency

	switch strings.ToLower(o.side) {
	case "buy", "long":
		p.Side = sim.Buy
	case "sell", "short":
		p.Side = sim.Sell
	default:
		return p, fmt.Errorf("invalid --side %q (buy|sell)", o.side)
	}
	if o.policy {
		pol := risk.DefaultPolicy()
		p.Policy = &pol
	}
	return p, nil
}

func runBacktest(cmd *cobra.Command, a *app, o *backtestOpts) error {
	if o.runs < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}
	series, err := market.LoadCSV(o.data, a.cfg.Instrument.Name, o.step)
	if err != nil {
		return err
	}
	rcfg, err := a.cfg.RunnerConfig()
	if err != nil {
		return err
	}
	params, err := o.strategyParams(a)
	if err != nil {
		return err
	}

	a.log.WithField("bars", series.Len()).
		WithField("strategy", o.strategy).
		WithField("runs", o.runs).
		Info("backtest starting")

	var results []*backtest.Result
	if o.runs == 1 {
		strat, err := strategies.ByName(o.strategy, params)
		if err != nil {
			return err
		}
		r, err := backtest.NewRunner(rcfg, series, strat, a.log)
		if err != nil {
			return err
		}
		res, err := r.Run(cmd.Context())
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		jobs := make([]backtest.Job, o.runs)
		for i := range jobs {
			strat, err := strategies.ByName(o.strategy, params)
			if err != nil {
				return err
			}
			jobs[i] = backtest.Job{Config: rcfg, Series: series, Strategy: strat}
		}
		workers := o.workers
		if workers == 0 {
			workers = a.cfg.Backtest.Workers
		}
		results, err = backtest.RunMany(cmd.Context(), jobs, workers, a.log)
		if err != nil {
			return err
		}
	}

	j, err := a.openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	out := cmd.OutOrStdout()
	v := validate.New(a.cfg.ValidatorConfig(), a.log)
	for _, res := range results {
		res.Print(out)

		var checks []validate.Result
		if o.validate {
			checks = v.Suite(validate.SuiteInput{
				PnLs:           res.PnLs(),
				Returns:        res.Returns(),
				InitialBalance: res.InitialBalance,
				PeriodsPerYear: periodsPerYear(o.step),
			})
			printResults(out, checks)
		}
		if j != nil {
			if err := journal.WriteRun(j, res, checks); err != nil {
				return fmt.Errorf("journal run %s: %w", res.RunID, err)
			}
		}
	}
	if len(results) > 1 {
		printSummary(out, results)
	}
	return nil
}

// periodsPerYear annualises per-bar returns on a 252-day, 24-hour year.
func periodsPerYear(step time.Duration) float64 {
	if step <= 0 {
		return 1
	}
	return float64(252*24*time.Hour) / float64(step)
}

func printSummary(w io.Writer, results []*backtest.Result) {
	fmt.Fprintln(w, "==== Runs ====")
	fmt.Fprintf(w, "%-28s %6s %12s %8s %8s\n", "RUN", "TRADES", "NET", "WIN%", "MAXDD%")
	var total float64
	for _, r := range results {
		total += r.NetPnL()
		fmt.Fprintf(w, "%-28s %6d %12.2f %8.2f %8.2f\n",
			r.RunID, r.Trades, r.NetPnL(), 100*r.WinRate(), 100*r.MaxDrawdown)
	}
	fmt.Fprintf(w, "mean net: %.2f over %d runs\n", total/float64(len(results)), len(results))
}

func printResults(w io.Writer, results []validate.Result) {
	fmt.Fprintln(w, "==== Validation ====")
	fmt.Fprintf(w, "%-22s %12s %10s %12s %12s %-6s %s\n", "METHOD", "STAT", "P", "LOWER", "UPPER", "PASS", "STATUS")
	for _, r := range results {
		fmt.Fprintf(w, "%-22s %12.6f %10.4f %12.6f %12.6f %-6t %s\n",
			r.Method, r.Statistic, r.PValue, r.Lower, r.Upper, r.Passed, r.Status)
	}
}
