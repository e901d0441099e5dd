package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsarmando/Ryze-Agents-sub002/backtest"
	"github.com/vsarmando/Ryze-Agents-sub002/journal"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
	"github.com/vsarmando/Ryze-Agents-sub002/sim"
	"github.com/vsarmando/Ryze-Agents-sub002/strategies"
	"github.com/vsarmando/Ryze-Agents-sub002/validate"
)

// sampleOpts is where a validate subcommand reads its numbers from: inline
// values, a file with one number per line, or a run in the SQLite journal.
type sampleOpts struct {
	values []float64
	file   string
	run    string
	db     string
}

func (s *sampleOpts) register(cmd *cobra.Command, what string) {
	cmd.Flags().Float64SliceVar(&s.values, "values", nil, what+" as a comma separated list")
	cmd.Flags().StringVar(&s.file, "file", "", what+" file, one number per line")
	cmd.Flags().StringVar(&s.run, "run", "", "Read "+what+" from this journaled run")
	cmd.Flags().StringVar(&s.db, "db", "", "SQLite journal for --run (default: config)")
}

// pnls returns trade P&Ls; a journaled run gives its trades in close order.
func (s *sampleOpts) pnls(a *app) ([]float64, error) {
	return s.load(a, func(j *journal.SQLite) ([]float64, error) {
		trades, err := j.ListTrades(s.run)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(trades))
		for i, t := range trades {
			out[i] = t.RealizedPL
		}
		return out, nil
	})
}

// returns gives per-bar returns; a journaled run gives its equity returns.
func (s *sampleOpts) returns(a *app) ([]float64, error) {
	return s.load(a, func(j *journal.SQLite) ([]float64, error) {
		snaps, err := j.ListEquity(s.run, time.Time{}, time.Time{})
		if err != nil {
			return nil, err
		}
		curve := make([]backtest.EquityPoint, len(snaps))
		for i, e := range snaps {
			curve[i] = backtest.EquityPoint{Time: e.Time, Balance: e.Balance, Equity: e.Equity, Drawdown: e.Drawdown}
		}
		return backtest.EquityReturns(curve), nil
	})
}

func (s *sampleOpts) load(a *app, fromRun func(*journal.SQLite) ([]float64, error)) ([]float64, error) {
	switch {
	case len(s.values) > 0:
		return s.values, nil
	case s.file != "":
		return readValues(s.file)
	case s.run != "":
		path := s.db
		if path == "" {
			path = a.cfg.Journal.DBPath
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		defer j.Close()
		if _, err := j.GetRun(s.run); err != nil {
			return nil, fmt.Errorf("run %s: %w", s.run, err)
		}
		return fromRun(j)
	default:
		return nil, fmt.Errorf("one of --values, --file or --run is required")
	}
}

// readValues parses one number per line, skipping blanks and '#' comments.
func readValues(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, x)
	}
	return out, sc.Err()
}

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Statistical checks on trade P&Ls, returns or bar data",
	}
	cmd.AddCommand(
		newBootstrapCmd(a),
		newMonteCarloCmd(a),
		newVaRCmd(a),
		newTTestCmd(a),
		newSharpeCmd(a),
		newWalkForwardCmd(a),
	)
	return cmd
}

func (a *app) validator() *validate.Validator {
	return validate.New(a.cfg.ValidatorConfig(), a.log)
}

func newBootstrapCmd(a *app) *cobra.Command {
	var (
		src        sampleOpts
		stat       string
		samples    int
		confidence float64
	)
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap confidence interval of the mean or Sharpe ratio",
		RunE: func(cmd *cobra.Command, args []string) error {
			var fn validate.StatFunc
			switch stat {
			case "mean":
				fn = validate.MeanStat
			case "sharpe":
				fn = validate.SharpeStat
			default:
				return fmt.Errorf("invalid --stat %q (mean|sharpe)", stat)
			}
			xs, err := src.pnls(a)
			if err != nil {
				return err
			}
			r := a.validator().BootstrapCI(xs, fn, samples, confidence)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "estimate: %.6f  ci%.0f: [%.6f, %.6f]  resampled mean: %.6f sd: %.6f\n",
				r.Estimate, 100*r.Confidence, r.Lower, r.Upper, r.Mean, r.Std)
			printResults(w, []validate.Result{r.Result()})
			return nil
		},
	}
	src.register(cmd, "trade P&Ls")
	cmd.Flags().StringVar(&stat, "stat", "mean", "Statistic: mean|sharpe")
	cmd.Flags().IntVar(&samples, "samples", 0, "Bootstrap samples (0 = config)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence level (0 = 1 - significance level)")
	return cmd
}

func newMonteCarloCmd(a *app) *cobra.Command {
	var (
		src        sampleOpts
		initial    float64
		iterations int
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Shuffle the trade order and replay it from the initial balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			xs, err := src.pnls(a)
			if err != nil {
				return err
			}
			if initial <= 0 {
				initial = a.cfg.Account.Balance
			}
			r := a.validator().MonteCarloShuffle(xs, initial, iterations, a.cfg.Criteria())
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "iterations: %d  mean final: %.2f  median final: %.2f\n", r.Iterations, r.MeanFinal, r.MedianFinal)
			fmt.Fprintf(w, "VaR: %.2f  drawdown at risk: %.2f%%  pass rate: %.2f%%\n", r.VaR, 100*r.DrawdownAtRisk, 100*r.PassRate)
			printResults(w, []validate.Result{r.Result()})
			return nil
		},
	}
	src.register(cmd, "trade P&Ls")
	cmd.Flags().Float64Var(&initial, "initial", 0, "Initial balance (0 = config account balance)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Shuffles (0 = config)")
	return cmd
}

func newVaRCmd(a *app) *cobra.Command {
	var (
		src        sampleOpts
		method     string
		confidence float64
	)
	cmd := &cobra.Command{
		Use:   "var",
		Short: "Value at risk and conditional VaR of returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := validate.VaRMethod(strings.ReplaceAll(method, "-", "_"))
			switch m {
			case validate.Historical, validate.Parametric, validate.MonteCarlo:
			default:
				return fmt.Errorf("invalid --method %q (historical|parametric|monte_carlo)", method)
			}
			xs, err := src.returns(a)
			if err != nil {
				return err
			}
			r := a.validator().ValueAtRisk(xs, confidence, m)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "VaR(%.0f%%): %.6f  CVaR: %.6f\n", 100*r.Confidence, r.VaR, r.CVaR)
			printResults(w, []validate.Result{r.Result()})
			return nil
		},
	}
	src.register(cmd, "returns")
	cmd.Flags().StringVar(&method, "method", "historical", "Method: historical|parametric|monte_carlo")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence level (0 = 1 - significance level)")
	return cmd
}

func newTTestCmd(a *app) *cobra.Command {
	var (
		src     sampleOpts
		against []float64
		mu      float64
	)
	cmd := &cobra.Command{
		Use:   "ttest",
		Short: "One-sample t-test against --mu, or Welch t-test against --against",
		RunE: func(cmd *cobra.Command, args []string) error {
			xs, err := src.pnls(a)
			if err != nil {
				return err
			}
			kind := validate.OneSample
			if len(against) > 0 {
				kind = validate.Welch
			}
			r := a.validator().TTest(xs, against, kind, mu)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: t=%.4f df=%.2f p=%.4f mean diff=%.6f reject=%t\n",
				r.Kind, r.Statistic, r.DF, r.PValue, r.MeanDiff, r.Reject)
			printResults(w, []validate.Result{r.Result()})
			return nil
		},
	}
	src.register(cmd, "sample")
	cmd.Flags().Float64SliceVar(&against, "against", nil, "Second sample for a Welch test")
	cmd.Flags().Float64Var(&mu, "mu", 0, "Hypothesised mean for the one-sample test")
	return cmd
}

func newSharpeCmd(a *app) *cobra.Command {
	var (
		src sampleOpts
		ppy float64
	)
	cmd := &cobra.Command{
		Use:   "sharpe",
		Short: "Sharpe ratio of returns and its significance",
		RunE: func(cmd *cobra.Command, args []string) error {
			xs, err := src.returns(a)
			if err != nil {
				return err
			}
			r := a.validator().SharpeTest(xs, ppy)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sharpe: %.6f  annualized: %.4f  sortino: %.6f  p=%.4f\n", r.Sharpe, r.Annualized, r.Sortino, r.PValue)
			printResults(w, []validate.Result{r.Result()})
			return nil
		},
	}
	src.register(cmd, "returns")
	cmd.Flags().Float64Var(&ppy, "periods-per-year", 252, "Periods per year used to annualise")
	return cmd
}

// emaParams is one point of the walk-forward grid.
type emaParams struct {
	Fast, Slow int
}

func newWalkForwardCmd(a *app) *cobra.Command {
	var (
		data     string
		step     time.Duration
		inBars   int
		outBars  int
		fastGrid []int
		slowGrid []int
	)
	cmd := &cobra.Command{
		Use:   "walkforward",
		Short: "Grid-search ema_cross periods in sample and score them out of sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inBars <= 0 {
				inBars = a.cfg.Validation.WalkForwardInSampleBars
			}
			if outBars <= 0 {
				outBars = a.cfg.Validation.WalkForwardOutSampleBars
			}
			series, err := market.LoadCSV(data, a.cfg.Instrument.Name, step)
			if err != nil {
				return err
			}
			wf := &walkForward{app: a, step: step, fast: fastGrid, slow: slowGrid, bars: series.Bars}
			if err := wf.init(); err != nil {
				return err
			}
			res, err := validate.WalkForward(cmd.Context(), a.validator(), series.Bars, inBars, outBars, wf.optimize, wf.evaluate)
			if err != nil {
				return err
			}
			printWalkForward(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Bar CSV")
	cmd.Flags().DurationVar(&step, "step", time.Hour, "Bar period")
	cmd.Flags().IntVar(&inBars, "in", 0, "In-sample bars (0 = config)")
	cmd.Flags().IntVar(&outBars, "out", 0, "Out-of-sample bars (0 = config)")
	cmd.Flags().IntSliceVar(&fastGrid, "fast-grid", []int{5, 10, 20}, "Fast EMA periods to try")
	cmd.Flags().IntSliceVar(&slowGrid, "slow-grid", []int{30, 50, 100}, "Slow EMA periods to try")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// walkForward scores ema_cross parameter sets by net P&L over bar windows.
// Each window is preceded by enough earlier bars to warm the indicators up;
// orders during the warm-up are dropped, so only the window's trades count.
type walkForward struct {
	app        *app
	step       time.Duration
	fast, slow []int
	bars       []market.Bar

	cfg    backtest.Config
	params strategies.Params
}

func (wf *walkForward) init() error {
	cfg, err := wf.app.cfg.RunnerConfig()
	if err != nil {
		return err
	}
	cfg.CloseOnEnd = true
	wf.cfg = cfg

	inst, err := market.Lookup(wf.app.cfg.Instrument.Name)
	if err != nil {
		return err
	}
	wf.params = strategies.DefaultParams()
	wf.params.Instrument = inst
	wf.params.AccountCurrency = wf.app.cfg.Account.Currency
	return nil
}

func (wf *walkForward) score(ctx context.Context, p emaParams, window []market.Bar) (float64, error) {
	sp := wf.params
	sp.FastPeriod, sp.SlowPeriod = p.Fast, p.Slow
	strat, err := strategies.ByName("ema_cross", sp)
	if err != nil {
		return 0, err
	}
	bars := window
	if len(window) > 0 {
		bars = wf.withWarmup(window, warmupBars(sp))
		strat = warmedUp{Strategy: strat, from: window[0].Time}
	}
	series := market.NewSeries(wf.app.cfg.Instrument.Name, wf.step, bars)
	r, err := backtest.NewRunner(wf.cfg, series, strat, nil)
	if err != nil {
		return 0, err
	}
	res, err := r.Run(ctx)
	if err != nil {
		return 0, err
	}
	return res.NetPnL(), nil
}

// withWarmup extends window back by up to n bars of the loaded series.
func (wf *walkForward) withWarmup(window []market.Bar, n int) []market.Bar {
	i, found := slices.BinarySearchFunc(wf.bars, window[0].Time, func(b market.Bar, t time.Time) int {
		return b.Time.Compare(t)
	})
	if !found {
		return window
	}
	from := max(i-n, 0)
	return wf.bars[from : i+len(window)]
}

// warmupBars is how many bars ema_cross needs before it can signal.
func warmupBars(p strategies.Params) int {
	n := p.SlowPeriod + 1
	if p.MinADX > 0 {
		n = max(n, 2*p.ADXPeriod+1)
	}
	if p.ATRMult > 0 {
		n = max(n, p.ATRPeriod+1)
	}
	return n
}

// warmedUp feeds every bar to the strategy but drops its orders before from.
type warmedUp struct {
	backtest.Strategy
	from time.Time
}

func (w warmedUp) OnBar(ctx *backtest.Context, b market.Bar) []sim.OrderRequest {
	reqs := w.Strategy.OnBar(ctx, b)
	if b.Time.Before(w.from) {
		return nil
	}
	return reqs
}

func (wf *walkForward) optimize(ctx context.Context, bars []market.Bar) (emaParams, float64, error) {
	var (
		best      emaParams
		bestScore float64
		found     bool
	)
	for _, f := range wf.fast {
		for _, s := range wf.slow {
			if f <= 0 || f >= s {
				continue
			}
			p := emaParams{Fast: f, Slow: s}
			score, err := wf.score(ctx, p, bars)
			if err != nil {
				return best, 0, err
			}
			if !found || score > bestScore {
				best, bestScore, found = p, score, true
			}
		}
	}
	if !found {
		return best, 0, fmt.Errorf("no fast < slow pair in the grid")
	}
	return best, bestScore, nil
}

func (wf *walkForward) evaluate(ctx context.Context, p emaParams, bars []market.Bar) (float64, error) {
	return wf.score(ctx, p, bars)
}

func printWalkForward(w io.Writer, res validate.WalkForwardResult[emaParams]) {
	fmt.Fprintln(w, "==== Walk-forward ====")
	fmt.Fprintf(w, "%-4s %-13s %-13s %-9s %12s %12s %s\n", "#", "IN", "OUT", "FAST/SLOW", "IN NET", "OUT NET", "PASS")
	for _, p := range res.Periods {
		fmt.Fprintf(w, "%-4d %-13s %-13s %-9s %12.2f %12.2f %t\n",
			p.Index,
			fmt.Sprintf("%d-%d", p.InStart, p.InEnd),
			fmt.Sprintf("%d-%d", p.OutStart, p.OutEnd),
			fmt.Sprintf("%d/%d", p.Params.Fast, p.Params.Slow),
			p.InScore, p.OutScore, p.Passed)
	}
	fmt.Fprintf(w, "passed %d/%d  efficiency %.4f\n", res.Passed, len(res.Periods), res.Efficiency)
	printResults(w, []validate.Result{res.Result()})
}
