package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

func upsertOrdersTx(ctx context.Context, tx *sql.Tx, userID string, orders []model.Order) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (
			user_id, sheet_row_id, date, customer_name, product,
			quantity, unit_price, total, status, notes, extra_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, sheet_row_id) DO UPDATE SET
			date = excluded.date,
			customer_name = excluded.customer_name,
			product = excluded.product,
			quantity = excluded.quantity,
			unit_price = excluded.unit_price,
			total = excluded.total,
			status = excluded.status,
			notes = excluded.notes,
			extra_data = excluded.extra_data,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare order upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, o := range orders {
		extra, err := encodeExtra(o.ExtraData)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			userID, o.SheetRowID, nullDate(o.Date), o.CustomerName, o.Product,
			o.Quantity, o.UnitPrice, o.Total, o.Status, o.Notes, extra,
		); err != nil {
			return fmt.Errorf("failed to upsert order %s: %w", o.SheetRowID, err)
		}
	}
	return nil
}

// GetOrders returns the user's orders within the filter, by date.
func (s *SQLiteStorage) GetOrders(ctx context.Context, userID string, filter service.DateFilter) ([]model.Order, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	clause, args := dateRange(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sheet_row_id, date, customer_name, product,
			quantity, unit_price, total, status, notes, extra_data
		FROM orders
		WHERE user_id = ?`+clause+`
		ORDER BY date, id
	`, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []model.Order
	for rows.Next() {
		var (
			o     model.Order
			date  sql.NullString
			extra sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.SheetRowID, &date, &o.CustomerName, &o.Product,
			&o.Quantity, &o.UnitPrice, &o.Total, &o.Status, &o.Notes, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Date = date.String
		if o.ExtraData, err = decodeExtra(extra); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
