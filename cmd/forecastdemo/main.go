package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cashcow"
)

var (
	scenarioName       string
	startStr           string
	endStr             string
	startingCash       float64
	modeName           string
	includeProjections bool
)

func main() {
	root := &cobra.Command{
		Use:   "forecastdemo",
		Short: "Run the cash-flow engine over a small built-in entity set",
	}

	root.PersistentFlags().StringVar(&scenarioName, "scenario", "baseline", "scenario to run (baseline, optimistic, conservative, cash_preservation)")
	root.PersistentFlags().StringVar(&startStr, "start", "2026-01-01", "window start (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&endStr, "end", "2026-12-01", "window end (YYYY-MM-DD)")
	root.PersistentFlags().Float64Var(&startingCash, "starting-cash", 100_000, "starting cash balance")
	root.PersistentFlags().StringVar(&modeName, "mode", "sequential", "execution mode (sequential, cooperative, parallel)")
	root.PersistentFlags().BoolVar(&includeProjections, "include-projections", true, "fold forward-looking (not-yet-committed) milestones into the forecast")

	root.AddCommand(forecastCmd())
	root.AddCommand(compareCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func forecastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Calculate one scenario and print its KPI summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := cashcow.NewDevelopmentLogger()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer log.Sync()

			engine, start, end, err := buildEngine(log)
			if err != nil {
				return err
			}

			mode, err := parseMode(modeName)
			if err != nil {
				return err
			}

			table, err := engine.Calculate(context.Background(), start, end, scenarioName, mode, includeProjections, startingCash)
			if err != nil {
				return fmt.Errorf("calculate: %w", err)
			}

			printTable(table)
			printKPIs(cashcow.ComputeKPIs(table, startingCash))
			return nil
		},
	}
}

func compareCmd() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Calculate every built-in scenario and print a side-by-side summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := cashcow.NewDevelopmentLogger()
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer log.Sync()

			engine, start, end, err := buildEngine(log)
			if err != nil {
				return err
			}

			mode, err := parseMode(modeName)
			if err != nil {
				return err
			}

			if len(names) == 0 {
				names = []string{"baseline", "optimistic", "conservative", "cash_preservation"}
			}

			tables, err := engine.Compare(context.Background(), names, start, end, mode, includeProjections, startingCash)
			if err != nil {
				return fmt.Errorf("compare: %w", err)
			}

			for _, summary := range cashcow.SummarizeComparison(tables, names) {
				fmt.Printf("%-20s final_cash=%12.2f total_revenue=%12.2f total_expenses=%12.2f\n",
					summary.Scenario, summary.FinalCashBalance, summary.TotalRevenue, summary.TotalExpenses)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&names, "scenarios", nil, "scenarios to compare (defaults to all built-in scenarios)")
	return cmd
}

func buildEngine(log *zap.Logger) (*cashcow.Engine, time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
	}

	store := cashcow.NewMemoryEntityStore(sampleEntities(start))
	scenarios := cashcow.NewScenarioManager(store, log)
	if err := cashcow.RegisterSeedScenarios(scenarios); err != nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("failed to register seed scenarios: %w", err)
	}

	engine := cashcow.NewEngine(cashcow.DefaultRegistry, scenarios, nil, log)
	return engine, start, end, nil
}

func parseMode(name string) (cashcow.ExecutionMode, error) {
	switch name {
	case "sequential":
		return cashcow.Sequential, nil
	case "cooperative":
		return cashcow.Cooperative, nil
	case "parallel":
		return cashcow.Parallel, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", name)
	}
}

func printTable(table *cashcow.ForecastTable) {
	fmt.Println("period       revenue      expenses     net          cash_balance")
	for _, row := range table.Rows {
		fmt.Printf("%s  %11.2f  %11.2f  %11.2f  %11.2f\n",
			row.Period.Format("2006-01"),
			cashcow.RoundToCents(row.TotalRevenue),
			cashcow.RoundToCents(row.TotalExpenses),
			cashcow.RoundToCents(row.NetCashFlow),
			cashcow.RoundToCents(row.CashBalance))
	}
}

func printKPIs(result cashcow.KPIResult) {
	fmt.Println("\nKPIs:")
	for name, value := range result.Metrics {
		fmt.Printf("  %-28s %12.4f\n", name, value)
	}
	for _, alert := range result.Alerts {
		fmt.Printf("  [%s] %s — %s\n", alert.Level, alert.Message, alert.Recommendation)
	}
}
