// Package cli wires the simcore cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vsarmando/Ryze-Agents-sub002/config"
	"github.com/vsarmando/Ryze-Agents-sub002/internal/logging"
	"github.com/vsarmando/Ryze-Agents-sub002/journal"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logJSON    bool

	cfg *config.Config
	log *logrus.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "simcore",
		Short: "simcore: deterministic FX execution simulator and strategy validator",
		Long: `simcore replays bar data through a synthetic order book, an execution
engine with slippage, commission and partial fills, and a hedging position
ledger, then checks the result with bootstrap, Monte Carlo, walk-forward,
t-test, VaR and Sharpe statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (YAML or JSON, optional)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with SIMCORE_* overrides")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Log as JSON")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.load()
	}

	cmd.AddCommand(
		newBacktestCmd(a),
		newValidateCmd(a),
		newJournalCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// load resolves the effective configuration: file (or defaults), then the
// environment, then flags.
func (a *app) load() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadFromFile(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(a.envFile); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logJSON {
		cfg.Log.JSON = true
	}

	a.cfg = cfg
	a.log = logging.New(cfg.Log.Level, cfg.Log.JSON)
	return nil
}

// openJournal opens the journal the config asks for; nil when journaling is
// off.
func (a *app) openJournal() (journal.Journal, error) {
	switch a.cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(a.cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(a.cfg.Journal.Dir)
	default:
		return nil, nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simcore %s\n", Version)
		},
	}
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
