package backtest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vsarmando/Ryze-Agents-sub002/internal/rng"
	"github.com/vsarmando/Ryze-Agents-sub002/market"
)

// Job is one independent run for RunMany. Strategy must not be shared with
// another job.
type Job struct {
	Config   Config
	Series   *market.Series
	Strategy Strategy
}

// RunMany runs jobs concurrently on at most workers goroutines (all at once
// when workers <= 0). Job i draws its randomness from stream i of its
// Config.Seed unless it brings its own Rand, so results do not depend on
// scheduling. Results are returned in job order; the first error cancels
// the remaining jobs.
func RunMany(ctx context.Context, jobs []Job, workers int, log logrus.FieldLogger) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, job := range jobs {
		g.Go(func() error {
			cfg := job.Config
			if cfg.Rand == nil {
				cfg.Rand = rng.Stream(cfg.Seed, i)
			}
			var l logrus.FieldLogger
			if log != nil {
				l = log.WithField("job", i)
			}
			r, err := NewRunner(cfg, job.Series, job.Strategy, l)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			res, err := r.Run(ctx)
			results[i] = res
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
