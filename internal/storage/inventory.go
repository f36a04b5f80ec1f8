package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
)

func upsertInventoryTx(ctx context.Context, tx *sql.Tx, userID string, entries []model.InventoryEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory (
			user_id, sheet_row_id, date, product_name,
			quantity_in, quantity_out, stock_remaining, notes, extra_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, sheet_row_id) DO UPDATE SET
			date = excluded.date,
			product_name = excluded.product_name,
			quantity_in = excluded.quantity_in,
			quantity_out = excluded.quantity_out,
			stock_remaining = excluded.stock_remaining,
			notes = excluded.notes,
			extra_data = excluded.extra_data,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare inventory upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, inv := range entries {
		extra, err := encodeExtra(inv.ExtraData)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			userID, inv.SheetRowID, nullDate(inv.Date), inv.ProductName,
			inv.QuantityIn, inv.QuantityOut, inv.StockRemaining, inv.Notes, extra,
		); err != nil {
			return fmt.Errorf("failed to upsert inventory %s: %w", inv.SheetRowID, err)
		}
	}
	return nil
}

// GetInventory returns the user's inventory entries.
func (s *SQLiteStorage) GetInventory(ctx context.Context, userID string) ([]model.InventoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sheet_row_id, date, product_name,
			quantity_in, quantity_out, stock_remaining, notes, extra_data
		FROM inventory
		WHERE user_id = ?
		ORDER BY date, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.InventoryEntry
	for rows.Next() {
		var (
			inv   model.InventoryEntry
			date  sql.NullString
			extra sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.SheetRowID, &date, &inv.ProductName,
			&inv.QuantityIn, &inv.QuantityOut, &inv.StockRemaining, &inv.Notes, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		inv.Date = date.String
		if inv.ExtraData, err = decodeExtra(extra); err != nil {
			return nil, err
		}
		entries = append(entries, inv)
	}
	return entries, rows.Err()
}
