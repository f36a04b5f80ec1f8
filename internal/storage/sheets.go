package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// SaveUserSheet connects a spreadsheet to a user. Any other sheet the user had
// connected is deactivated so that exactly one stays active.
func (s *SQLiteStorage) SaveUserSheet(ctx context.Context, sheet *model.UserSheet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if sheet == nil {
		return fmt.Errorf("%w: sheet", ErrNilParameter)
	}
	if err := validateString(sheet.SheetID, "sheetID"); err != nil {
		return err
	}

	if sheet.CreatedAt.IsZero() {
		sheet.CreatedAt = time.Now().UTC()
	}
	sheet.IsActive = true

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, sheet.UserID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE user_sheets SET is_active = 0 WHERE user_id = ? AND sheet_id != ?
		`, sheet.UserID, sheet.SheetID); err != nil {
			return fmt.Errorf("failed to deactivate previous sheets: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_sheets (user_id, sheet_id, sheet_url, title, is_active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT(user_id, sheet_id) DO UPDATE SET
				sheet_url = excluded.sheet_url,
				title = excluded.title,
				is_active = 1
		`, sheet.UserID, sheet.SheetID, sheet.SheetURL, sheet.Title, sheet.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save user sheet: %w", err)
		}
		return nil
	})
}

const userSheetColumns = `user_id, sheet_id, sheet_url, title, is_active, last_sync_at, created_at`

func scanUserSheet(row interface{ Scan(...any) error }) (*model.UserSheet, error) {
	var (
		sheet    model.UserSheet
		lastSync sql.NullTime
	)
	if err := row.Scan(&sheet.UserID, &sheet.SheetID, &sheet.SheetURL, &sheet.Title,
		&sheet.IsActive, &lastSync, &sheet.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		sheet.LastSyncAt = &t
	}
	return &sheet, nil
}

// GetUserSheet returns the user's active sheet, or common.ErrNoSheet.
func (s *SQLiteStorage) GetUserSheet(ctx context.Context, userID string) (*model.UserSheet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sheet, err := scanUserSheet(s.db.QueryRowContext(ctx, `
		SELECT `+userSheetColumns+`
		FROM user_sheets
		WHERE user_id = ? AND is_active = 1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNoSheet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user sheet: %w", err)
	}
	return sheet, nil
}

// GetActiveSheets lists every active connection across users.
func (s *SQLiteStorage) GetActiveSheets(ctx context.Context) ([]model.UserSheet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userSheetColumns+`
		FROM user_sheets
		WHERE is_active = 1
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active sheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sheets []model.UserSheet
	for rows.Next() {
		sheet, err := scanUserSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user sheet: %w", err)
		}
		sheets = append(sheets, *sheet)
	}
	return sheets, rows.Err()
}

// DeleteUserSheet deactivates the user's sheet connections.
func (s *SQLiteStorage) DeleteUserSheet(ctx context.Context, userID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sheets SET is_active = 0 WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to disconnect sheet: %w", err)
	}
	return nil
}

// TouchUserSheet records a completed pull.
func (s *SQLiteStorage) TouchUserSheet(ctx context.Context, userID, sheetID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sheets SET last_sync_at = ? WHERE user_id = ? AND sheet_id = ?
	`, time.Now().UTC(), userID, sheetID)
	if err != nil {
		return fmt.Errorf("failed to update user sheet: %w", err)
	}
	return nil
}
