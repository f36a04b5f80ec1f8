package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

// UpsertBatch merges a batch into the user's canonical records in one
// transaction. Each record replaces any stored record with the same row
// identity wholesale. On any failure nothing is committed.
func (s *SQLiteStorage) UpsertBatch(ctx context.Context, userID string, batch model.Batch) (*service.UpsertResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := ensureUser(ctx, tx, userID); err != nil {
			return err
		}

		switch batch.Type {
		case model.RecordTypeOrders:
			return upsertOrdersTx(ctx, tx, userID, batch.Orders)
		case model.RecordTypeExpenses:
			return upsertExpensesTx(ctx, tx, userID, batch.Expenses)
		case model.RecordTypeInventory:
			return upsertInventoryTx(ctx, tx, userID, batch.Inventory)
		case model.RecordTypeEmployees:
			return upsertEmployeesTx(ctx, tx, userID, batch.Employees)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", batch.Type, err)
	}

	dates := batch.Dates()
	if dates == nil {
		dates = []string{}
	}
	return &service.UpsertResult{
		Type:   batch.Type,
		Stored: batch.Len(),
		Dates:  dates,
	}, nil
}

// nullDate stores an empty date as NULL.
func nullDate(date string) sql.NullString {
	return sql.NullString{String: date, Valid: date != ""}
}

func encodeExtra(extra model.ExtraData) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode extra data: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeExtra(raw sql.NullString) (model.ExtraData, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var extra model.ExtraData
	if err := json.Unmarshal([]byte(raw.String), &extra); err != nil {
		return nil, fmt.Errorf("failed to decode extra data: %w", err)
	}
	return extra, nil
}

// dateRange builds the WHERE fragment and arguments for a DateFilter on
// the date column.
func dateRange(filter service.DateFilter) (string, []any) {
	clause := ""
	var args []any
	if filter.From != "" {
		clause += " AND date >= ?"
		args = append(args, filter.From)
	}
	if filter.To != "" {
		clause += " AND date <= ?"
		args = append(args, filter.To)
	}
	return clause, args
}
