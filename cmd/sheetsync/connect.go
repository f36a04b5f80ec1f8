package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/sheets"
)

func connectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect <sheet-url>",
		Short: "Connect a Google Sheet for pull syncs",
		Long: `Check that the service account can read the spreadsheet and make it
the user's connected sheet. Any previously connected sheet is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: runConnect,
	}

	addUserFlag(cmd)
	cmd.Flags().String("email", "", "user email, recorded when the user is created")
	cmd.Flags().String("name", "", "user display name, recorded when the user is created")

	return cmd
}

func runConnect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	userID, err := userFlag(cmd)
	if err != nil {
		return err
	}
	sheetID, ok := sheets.ExtractSheetID(args[0])
	if !ok {
		return common.NewUserError("That does not look like a Google Sheets URL", common.ErrInvalidConfig)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reader, err := initReader(ctx, true)
	if err != nil {
		return err
	}

	info, err := reader.ValidateAccess(ctx, sheetID)
	if err != nil {
		if errors.Is(err, sheets.ErrNoAccess) {
			return err
		}
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	if _, err := store.GetOrCreateUser(ctx, userID, email, name); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	sheet := &model.UserSheet{
		UserID:   userID,
		SheetID:  sheetID,
		SheetURL: args[0],
		Title:    info.Title,
		IsActive: true,
	}
	if err := store.SaveUserSheet(ctx, sheet); err != nil {
		return fmt.Errorf("failed to save sheet: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Connected %q (%d tabs)", info.Title, len(info.Tabs))))
	return nil
}
