// Package validate holds the statistical checks run on a strategy's trade
// log and equity curve: bootstrap confidence intervals, Monte Carlo trade
// shuffling, walk-forward analysis, t-tests, VaR/CVaR and Sharpe
// significance.
//
// Every randomised method draws unit i (a bootstrap sample, a shuffle) from
// its own stream derived from (Seed, i), so results are the same for any
// number of workers.
package validate

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/logging"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
)

const eps = 1e-12

// Status qualifies a result.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusInsufficientSample Status = "insufficient_sample"
	StatusUndefined          Status = "undefined"
)

// Result is the common summary every check reduces to.
type Result struct {
	Method    string
	Statistic float64
	PValue    float64
	Lower     float64
	Upper     float64
	Passed    bool
	Status    Status
}

type Config struct {
	BootstrapSamples     int
	MonteCarloIterations int
	VaRDraws             int
	SignificanceLevel    float64
	MinOutSampleRatio    float64
	Seed                 uint64
	Workers              int // 0 = GOMAXPROCS
}

func DefaultConfig() Config {
	return Config{
		BootstrapSamples:     1000,
		MonteCarloIterations: 1000,
		VaRDraws:             10000,
		SignificanceLevel:    0.05,
		MinOutSampleRatio:    0.30,
	}
}

// Stream labels; each method draws from its own family of streams.
const (
	streamBootstrap  = "bootstrap"
	streamMonteCarlo = "montecarlo"
	streamVaR        = "var"
)

// Validator runs the checks with one configuration. It holds no per-call
// state and may be shared.
type Validator struct {
	cfg Config
	log logrus.FieldLogger
}

// New fills zero config fields from DefaultConfig.
func New(cfg Config, log logrus.FieldLogger) *Validator {
	def := DefaultConfig()
	if cfg.BootstrapSamples <= 0 {
		cfg.BootstrapSamples = def.BootstrapSamples
	}
	if cfg.MonteCarloIterations <= 0 {
		cfg.MonteCarloIterations = def.MonteCarloIterations
	}
	if cfg.VaRDraws <= 0 {
		cfg.VaRDraws = def.VaRDraws
	}
	if cfg.SignificanceLevel <= 0 || cfg.SignificanceLevel >= 1 {
		cfg.SignificanceLevel = def.SignificanceLevel
	}
	if cfg.MinOutSampleRatio < 0 {
		cfg.MinOutSampleRatio = def.MinOutSampleRatio
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Validator{cfg: cfg, log: logging.OrDiscard(log)}
}

func (v *Validator) Config() Config { return v.cfg }

// Confidence is 1 - SignificanceLevel.
func (v *Validator) Confidence() float64 { return 1 - v.cfg.SignificanceLevel }

// stream is the generator for draw i of one method.
func (v *Validator) stream(method string, i int) *rand.Rand {
	return rng.Stream(rng.Derive(v.cfg.Seed, method), i)
}

// parallel calls fn(i) for i in [0, n) on at most Workers goroutines. fn
// must only write to slot i of its output.
func (v *Validator) parallel(ctx context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}

// quantile interpolates linearly between the order statistics of sorted.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1 || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
