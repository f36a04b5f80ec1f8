package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/common"
)

func tokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage sync tokens for push syncs",
	}

	cmd.AddCommand(tokensCreateCmd())
	cmd.AddCommand(tokensListCmd())
	cmd.AddCommand(tokensRevokeCmd())

	return cmd
}

func tokensCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a sync token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetOrCreateUser(ctx, userID, "", ""); err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			token, err := store.CreateSyncToken(ctx, userID, label)
			if err != nil {
				return fmt.Errorf("failed to create token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Created sync token "+strconv.FormatInt(token.ID, 10)))
			fmt.Fprintln(cmd.OutOrStdout(), token.Token)
			return nil
		},
	}

	addUserFlag(cmd)
	cmd.Flags().String("label", "Google Sheets", "token label")

	return cmd
}

func tokensListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active sync tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			tokens, err := store.GetSyncTokens(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTokens(tokens))
			return nil
		},
	}

	addUserFlag(cmd)

	return cmd
}

func tokensRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a sync token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewUserError("Token id must be a number", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSyncToken(ctx, userID, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Revoked sync token "+args[0]))
			return nil
		},
	}

	addUserFlag(cmd)

	return cmd
}
