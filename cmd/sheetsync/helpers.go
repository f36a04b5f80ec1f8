package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/config"
	"github.com/Veraticus/sheetsync/internal/engine"
	"github.com/Veraticus/sheetsync/internal/service"
	"github.com/Veraticus/sheetsync/internal/sheets"
	"github.com/Veraticus/sheetsync/internal/storage"
)

const defaultDBPathHelp = "$HOME/.local/share/sheetsync/sheetsync.db"

var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults() {
	viper.SetDefault("database.path", config.DefaultDatabasePath)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("engine.date_workers", 4)
	viper.SetDefault("engine.user_workers", 2)
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initReader creates a Google Sheets reader, or returns nil when no
// credentials are configured and required is false.
func initReader(ctx context.Context, required bool) (service.SheetReader, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		if required {
			return nil, common.NewUserError("Google Sheets credentials are not configured. Set sheets.service_account_path or GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH.", err)
		}
		slog.Warn("Google Sheets reader disabled", "reason", err)
		return nil, nil
	}

	reader, err := sheets.NewGoogleReader(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets reader: %w", err)
	}
	return reader, nil
}

// newEngine builds a sync engine from configuration.
func newEngine(store service.Storage, reader service.SheetReader) (*engine.Engine, error) {
	thresholds, err := config.LoadAlertThresholds()
	if err != nil {
		return nil, err
	}

	cfg := engine.DefaultConfig()
	cfg.Logger = slog.Default()
	cfg.Thresholds = thresholds
	cfg.DateWorkers = viper.GetInt("engine.date_workers")
	cfg.UserWorkers = viper.GetInt("engine.user_workers")

	return engine.New(store, reader, cfg), nil
}

func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "user id")
}

func userFlag(cmd *cobra.Command) (string, error) {
	userID, _ := cmd.Flags().GetString("user")
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", common.NewUserError("--user is required", common.ErrMissingConfig)
	}
	return userID, nil
}
