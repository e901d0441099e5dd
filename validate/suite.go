package validate

import "github.com/sirupsen/logrus"

// SuiteInput is what a finished run hands to the validator.
type SuiteInput struct {
	PnLs           []float64 // closed trade P&L, in close order
	Returns        []float64 // per-bar equity returns
	InitialBalance float64
	PeriodsPerYear float64
}

// Suite runs the standard checks: bootstrap of mean trade P&L, Monte Carlo
// shuffle, one-sample t-test of trade P&L against zero, historical VaR of
// returns and the Sharpe test.
func (v *Validator) Suite(in SuiteInput) []Result {
	out := []Result{
		v.BootstrapCI(in.PnLs, MeanStat, 0, 0).Result(),
		v.MonteCarloShuffle(in.PnLs, in.InitialBalance, 0, Criteria{}).Result(),
		v.TTest(in.PnLs, nil, OneSample, 0).Result(),
		v.ValueAtRisk(in.Returns, 0, Historical).Result(),
		v.SharpeTest(in.Returns, in.PeriodsPerYear).Result(),
	}
	passed := 0
	for _, r := range out {
		if r.Passed {
			passed++
		}
	}
	v.log.WithFields(logrus.Fields{
		"checks": len(out),
		"passed": passed,
		"trades": len(in.PnLs),
	}).Info("validation suite done")
	return out
}
