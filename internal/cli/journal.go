package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsarmando/Ryze-Agents-sub002/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the SQLite run journal",
		Long: `Query runs, trades, equity and validation results recorded by
"simcore backtest --journal sqlite".

Examples:
  simcore journal runs
  simcore journal run <run-id>
  simcore journal trades <run-id>
  simcore journal trade <run-id> <trade-id>
  simcore journal equity <run-id>
  simcore journal day 2024-01-15`,
	}
	cmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "path to SQLite journal DB (default: config)")

	open := func() (*journal.SQLite, error) {
		path := dbPath
		if path == "" {
			path = a.cfg.Journal.DBPath
		}
		j, err := journal.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "runs",
			Short: "List recorded runs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				runs, err := j.ListRuns()
				if err != nil {
					return fmt.Errorf("query runs: %w", err)
				}
				printRuns(cmd.OutOrStdout(), runs)
				return nil
			},
		},
		&cobra.Command{
			Use:   "run <run-id>",
			Short: "Show one run and its validation results",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				run, err := j.GetRun(args[0])
				if err != nil {
					return fmt.Errorf("get run: %w", err)
				}
				checks, err := j.ListValidations(args[0])
				if err != nil {
					return fmt.Errorf("query validations: %w", err)
				}
				printRun(cmd.OutOrStdout(), run, checks)
				return nil
			},
		},
		&cobra.Command{
			Use:   "trades <run-id>",
			Short: "List the trades of a run in close order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				recs, err := j.ListTrades(args[0])
				if err != nil {
					return fmt.Errorf("query trades: %w", err)
				}
				printTrades(cmd.OutOrStdout(), recs)
				return nil
			},
		},
		&cobra.Command{
			Use:   "trade <run-id> <trade-id>",
			Short: "Get details of a specific trade",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("trade id: %w", err)
				}
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				rec, err := j.GetTrade(args[0], id)
				if err != nil {
					return fmt.Errorf("get trade: %w", err)
				}
				printTrades(cmd.OutOrStdout(), []journal.TradeRecord{rec})
				return nil
			},
		},
		&cobra.Command{
			Use:   "equity <run-id>",
			Short: "Print the equity curve of a run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				snaps, err := j.ListEquity(args[0], time.Time{}, time.Time{})
				if err != nil {
					return fmt.Errorf("query equity: %w", err)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%-20s %12s %12s %8s\n", "TIME", "BALANCE", "EQUITY", "DD%")
				for _, e := range snaps {
					fmt.Fprintf(w, "%-20s %12.2f %12.2f %8.2f\n",
						e.Time.UTC().Format("2006-01-02 15:04"), e.Balance, e.Equity, 100*e.Drawdown)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "day <YYYY-MM-DD>",
			Short: "List trades of every run closed on a UTC day",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				start, end, err := dayBounds(time.UTC, args[0])
				if err != nil {
					return fmt.Errorf("date: %w", err)
				}
				j, err := open()
				if err != nil {
					return err
				}
				defer j.Close()
				recs, err := j.ListTradesClosedBetween(start, end)
				if err != nil {
					return fmt.Errorf("query trades: %w", err)
				}
				printTrades(cmd.OutOrStdout(), recs)
				return nil
			},
		},
	)
	return cmd
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour), nil
}

func printRuns(w io.Writer, runs []journal.RunRecord) {
	fmt.Fprintf(w, "%-28s %-12s %-8s %-10s %6s %12s %8s\n", "RUN", "STRATEGY", "INSTR", "STATE", "TRADES", "NET", "MAXDD%")
	for _, r := range runs {
		fmt.Fprintf(w, "%-28s %-12s %-8s %-10s %6d %12.2f %8.2f\n",
			r.RunID, r.Strategy, r.Instrument, r.State, r.Trades, r.Equity-r.InitialBalance, 100*r.MaxDrawdown)
	}
}

func printRun(w io.Writer, r journal.RunRecord, checks []journal.ValidationRecord) {
	fmt.Fprintf(w, "run:        %s\n", r.RunID)
	fmt.Fprintf(w, "strategy:   %s on %s (seed %d)\n", r.Strategy, r.Instrument, r.Seed)
	fmt.Fprintf(w, "state:      %s\n", r.State)
	fmt.Fprintf(w, "bars:       %d (%s .. %s)\n", r.Bars,
		r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "balance:    %.2f -> %.2f (equity %.2f)\n", r.InitialBalance, r.Balance, r.Equity)
	fmt.Fprintf(w, "trades:     %d (%d won, %d lost) PF %.2f\n", r.Trades, r.Wins, r.Losses, r.ProfitFactor)
	fmt.Fprintf(w, "max dd:     %.2f%%  sharpe %.4f\n", 100*r.MaxDrawdown, r.Sharpe)
	fmt.Fprintf(w, "orders:     %d (%d rejected)\n", r.Orders, r.Rejected)
	fmt.Fprintf(w, "costs:      commission %.2f slippage %.2f swap %.2f\n", r.Commission, r.Slippage, r.Swap)
	if len(checks) == 0 {
		return
	}
	fmt.Fprintf(w, "%-22s %12s %10s %-6s %s\n", "METHOD", "STAT", "P", "PASS", "STATUS")
	for _, c := range checks {
		fmt.Fprintf(w, "%-22s %12.6f %10.4f %-6t %s\n", c.Method, c.Statistic, c.PValue, c.Passed, c.Status)
	}
}

func printTrades(w io.Writer, recs []journal.TradeRecord) {
	fmt.Fprintf(w, "%-28s %4s %-5s %8s %10s %10s %-16s %-16s %10s %s\n",
		"RUN", "ID", "SIDE", "LOTS", "ENTRY", "EXIT", "OPENED", "CLOSED", "P&L", "REASON")
	for _, t := range recs {
		fmt.Fprintf(w, "%-28s %4d %-5s %8.2f %10.5f %10.5f %-16s %-16s %10.2f %s\n",
			t.RunID, t.TradeID, t.Side, t.Volume, t.EntryPrice, t.ExitPrice,
			t.OpenTime.UTC().Format("2006-01-02 15:04"), t.CloseTime.UTC().Format("2006-01-02 15:04"),
			t.RealizedPL, t.Reason)
	}
}
