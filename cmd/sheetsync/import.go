package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/sheets"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Sync a local workbook",
		Long: `Run the sync pipeline on a local .xlsx workbook instead of a Google
Sheet. Each worksheet is treated like a spreadsheet tab.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	addUserFlag(cmd)

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := userFlag(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if _, err := store.GetOrCreateUser(ctx, userID, "", ""); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	workbook := sheets.NewWorkbookReader(args[0])
	tabs, err := workbook.ReadAllTabs(ctx, "")
	if err != nil {
		return err
	}

	eng, err := newEngine(store, workbook)
	if err != nil {
		return err
	}

	report, err := eng.SyncTabs(ctx, userID, tabs)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSyncReport(report))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d records from %s", report.Stored(), args[0])))
	return nil
}
