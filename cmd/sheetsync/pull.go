package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/engine"
)

func pullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Pull connected spreadsheets and recompute metrics",
		Long: `Read every tab of a connected Google Sheet, store the canonical
records, recompute daily metrics and evaluate alerts.

Use --user to pull one user's sheet or --all to pull every active sheet,
the same way the scheduled sync does.`,
		RunE: runPull,
	}

	addUserFlag(cmd)
	cmd.Flags().Bool("all", false, "pull every active connected sheet")

	return cmd
}

func runPull(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reader, err := initReader(ctx, true)
	if err != nil {
		return err
	}

	eng, err := newEngine(store, reader)
	if err != nil {
		return err
	}

	if all {
		return pullAll(cmd, eng)
	}

	userID, err := userFlag(cmd)
	if err != nil {
		return common.NewUserError("Specify --user <id> or --all", err)
	}

	report, err := eng.PullSheet(ctx, userID)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSyncReport(report))
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Pulled sheet %s", report.SheetID)))
	return nil
}

func pullAll(cmd *cobra.Command, eng *engine.Engine) error {
	var (
		mu  sync.Mutex
		bar *progressbar.ProgressBar
	)

	summary, err := eng.SyncAllSheets(cmd.Context(), func(_, total int, result engine.UserResult) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = newSyncProgressBar(total)
		}
		if !result.Success {
			slog.Warn("Sheet sync failed", "user_id", result.UserID, "error", result.Error)
		}
		if addErr := bar.Add(1); addErr != nil {
			slog.Warn("Failed to update progress bar", "error", addErr)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduled sync failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(summary.Results) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No active sheets to sync"))
		return nil
	}

	msg := fmt.Sprintf("Synced %d of %d sheets", summary.Synced, len(summary.Results))
	if summary.Failed > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%s, %d failed", msg, summary.Failed)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatSuccess(msg))
	return nil
}

func newSyncProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Syncing sheets...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
