package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Users, sync tokens and connected sheets",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					email TEXT NOT NULL DEFAULT '',
					name TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS sync_tokens (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token TEXT NOT NULL UNIQUE,
					label TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					last_sync_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_sync_tokens_user ON sync_tokens(user_id)`,

				`CREATE TABLE IF NOT EXISTS user_sheets (
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					sheet_id TEXT NOT NULL,
					sheet_url TEXT NOT NULL DEFAULT '',
					title TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					last_sync_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (user_id, sheet_id)
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Canonical records and custom tab rows",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS orders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					sheet_row_id TEXT NOT NULL,
					date TEXT,
					customer_name TEXT NOT NULL DEFAULT '',
					product TEXT NOT NULL DEFAULT '',
					quantity REAL NOT NULL DEFAULT 0,
					unit_price REAL NOT NULL DEFAULT 0,
					total REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'completed',
					notes TEXT NOT NULL DEFAULT '',
					extra_data TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, sheet_row_id)
				)`,
				`CREATE INDEX idx_orders_user_date ON orders(user_id, date)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					sheet_row_id TEXT NOT NULL,
					date TEXT,
					category TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL DEFAULT 0,
					paid_by TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					extra_data TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, sheet_row_id)
				)`,
				`CREATE INDEX idx_expenses_user_date ON expenses(user_id, date)`,

				`CREATE TABLE IF NOT EXISTS inventory (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					sheet_row_id TEXT NOT NULL,
					date TEXT,
					product_name TEXT NOT NULL DEFAULT '',
					quantity_in REAL NOT NULL DEFAULT 0,
					quantity_out REAL NOT NULL DEFAULT 0,
					stock_remaining REAL NOT NULL DEFAULT 0,
					notes TEXT NOT NULL DEFAULT '',
					extra_data TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, sheet_row_id)
				)`,

				`CREATE TABLE IF NOT EXISTS employees (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					sheet_row_id TEXT NOT NULL,
					employee_name TEXT NOT NULL DEFAULT '',
					role TEXT NOT NULL DEFAULT '',
					department TEXT NOT NULL DEFAULT '',
					salary REAL NOT NULL DEFAULT 0,
					start_date TEXT,
					status TEXT NOT NULL DEFAULT 'active',
					notes TEXT NOT NULL DEFAULT '',
					extra_data TEXT,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, sheet_row_id)
				)`,

				`CREATE TABLE IF NOT EXISTS sheet_data (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					tab_name TEXT NOT NULL,
					row_index INTEGER NOT NULL,
					sheet_row_id TEXT NOT NULL,
					data TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, tab_name, sheet_row_id)
				)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Daily metrics and alerts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS daily_metrics (
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					date TEXT NOT NULL,
					revenue REAL NOT NULL DEFAULT 0,
					expenses REAL NOT NULL DEFAULT 0,
					profit REAL NOT NULL DEFAULT 0,
					profit_margin REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, date)
				)`,

				`CREATE TABLE IF NOT EXISTS alerts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					date TEXT NOT NULL,
					message TEXT NOT NULL,
					severity TEXT NOT NULL CHECK (severity IN ('high', 'medium', 'low')),
					is_read BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_alerts_user_created ON alerts(user_id, created_at)`,
			})
		},
	},
}

// Migrate runs all database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
