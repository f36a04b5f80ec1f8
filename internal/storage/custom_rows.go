package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
)

// UpsertCustomRows stores rows of a tab that matched no record type, keyed by
// (user, tab, row identity). The write is atomic.
func (s *SQLiteStorage) UpsertCustomRows(ctx context.Context, userID, tabName string, rows []model.CustomTabRow) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateCustomRows(tabName, rows); err != nil {
		return 0, err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO sheet_data (user_id, tab_name, row_index, sheet_row_id, data, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(user_id, tab_name, sheet_row_id) DO UPDATE SET
				row_index = excluded.row_index,
				data = excluded.data,
				updated_at = CURRENT_TIMESTAMP
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare custom row upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range rows {
			data, err := json.Marshal(row.Data)
			if err != nil {
				return fmt.Errorf("failed to encode custom row %s: %w", row.SheetRowID, err)
			}
			if _, err := stmt.ExecContext(ctx, userID, tabName, row.RowIndex, row.SheetRowID, string(data)); err != nil {
				return fmt.Errorf("failed to upsert custom row %s: %w", row.SheetRowID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert tab %q: %w", tabName, err)
	}
	return len(rows), nil
}

// GetCustomRows returns the stored rows of one custom tab in sheet order.
func (s *SQLiteStorage) GetCustomRows(ctx context.Context, userID, tabName string) ([]model.CustomTabRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, tab_name, row_index, sheet_row_id, data
		FROM sheet_data
		WHERE user_id = ? AND tab_name = ?
		ORDER BY row_index
	`, userID, tabName)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.CustomTabRow
	for rows.Next() {
		var (
			row  model.CustomTabRow
			data string
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.TabName, &row.RowIndex, &row.SheetRowID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan custom row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &row.Data); err != nil {
			return nil, fmt.Errorf("failed to decode custom row %s: %w", row.SheetRowID, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
