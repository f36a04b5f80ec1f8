package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

func upsertExpensesTx(ctx context.Context, tx *sql.Tx, userID string, expenses []model.Expense) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (
			user_id, sheet_row_id, date, category, description,
			amount, paid_by, notes, extra_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, sheet_row_id) DO UPDATE SET
			date = excluded.date,
			category = excluded.category,
			description = excluded.description,
			amount = excluded.amount,
			paid_by = excluded.paid_by,
			notes = excluded.notes,
			extra_data = excluded.extra_data,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare expense upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range expenses {
		extra, err := encodeExtra(e.ExtraData)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			userID, e.SheetRowID, nullDate(e.Date), e.Category, e.Description,
			e.Amount, e.PaidBy, e.Notes, extra,
		); err != nil {
			return fmt.Errorf("failed to upsert expense %s: %w", e.SheetRowID, err)
		}
	}
	return nil
}

// GetExpenses returns the user's expenses within the filter, by date.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, userID string, filter service.DateFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	clause, args := dateRange(filter)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sheet_row_id, date, category, description,
			amount, paid_by, notes, extra_data
		FROM expenses
		WHERE user_id = ?`+clause+`
		ORDER BY date, id
	`, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var expenses []model.Expense
	for rows.Next() {
		var (
			e     model.Expense
			date  sql.NullString
			extra sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.SheetRowID, &date, &e.Category, &e.Description,
			&e.Amount, &e.PaidBy, &e.Notes, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Date = date.String
		if e.ExtraData, err = decodeExtra(extra); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
