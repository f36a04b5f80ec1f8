package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/metrics"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the latest day's metrics and alerts",
		RunE:  runSummary,
	}

	addUserFlag(cmd)
	cmd.Flags().Int("alerts", 5, "number of recent alerts to show")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := userFlag(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("alerts")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rows, err := store.GetRecentDailyMetrics(ctx, userID, 2)
	if err != nil {
		return fmt.Errorf("failed to load metrics: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No metrics yet. Run `sheetsync pull` or `sheetsync import` first."))
		return nil
	}
	fmt.Fprintln(out, cli.RenderSummary(metrics.BuildSummary(rows)))

	if limit <= 0 {
		return nil
	}
	alerts, err := store.GetAlerts(ctx, userID, limit)
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}
	fmt.Fprintln(out, cli.RenderAlerts(alerts))
	return nil
}
