package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/sheetsync/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the sync, dashboard and export API.

Sheet scripts push rows to /api/sheets/sync with a sync token. A scheduler
can call /api/cron/sync to pull every connected spreadsheet.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("cron-secret", "", "bearer secret required by /api/cron/sync")

	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.cron_secret", cmd.Flags().Lookup("cron-secret"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reader, err := initReader(ctx, false)
	if err != nil {
		return err
	}

	eng, err := newEngine(store, reader)
	if err != nil {
		return err
	}

	cfg := api.DefaultConfig()
	cfg.Logger = slog.Default()
	if addr := viper.GetString("server.addr"); addr != "" {
		cfg.Addr = addr
	}
	if origins := viper.GetStringSlice("server.allowed_origins"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	cfg.CronSecret = viper.GetString("server.cron_secret")
	if cfg.CronSecret == "" {
		slog.Warn("server.cron_secret is empty; /api/cron/sync is unauthenticated")
	}

	handler := api.NewHandler(store, eng, reader, slog.Default())
	if err := api.Serve(ctx, handler, cfg); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
