package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a business report workbook",
		Long: `Write daily metrics, orders and expenses for the last N days to an
.xlsx workbook.`,
		RunE: runExport,
	}

	addUserFlag(cmd)
	cmd.Flags().Int("period", 30, "number of days to include (1-366)")
	cmd.Flags().StringP("output", "o", "", "output file (default: generated name in the current directory)")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	userID, err := userFlag(cmd)
	if err != nil {
		return err
	}
	period, _ := cmd.Flags().GetInt("period")
	if period < 1 || period > 366 {
		return common.NewUserError("--period must be between 1 and 366 days", common.ErrInvalidConfig)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	from := now.AddDate(0, 0, -period).Format("2006-01-02")

	data, err := sheets.LoadReport(ctx, store, userID, from)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = sheets.ReportFilename(period, now)
	}

	f, err := os.Create(filepath.Clean(output))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer func() { _ = f.Close() }()

	if err := sheets.WriteReport(f, *data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Exported %d days, %d orders, %d expenses to %s",
		len(data.Metrics), len(data.Orders), len(data.Expenses), output)))
	return nil
}
