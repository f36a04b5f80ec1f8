package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sheetsync/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid record")
	ErrInvalidDate   = errors.New("invalid date")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDate ensures s is an ISO date naming a real calendar day.
func validateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}

// validateBatch checks that the batch type is known, that only the slice for
// that type is populated, and that every record carries a row identity.
func validateBatch(batch model.Batch) error {
	if !batch.Type.IsValid() {
		return fmt.Errorf("%w: unknown record type %q", ErrInvalidRecord, batch.Type)
	}

	counts := map[model.RecordType]int{
		model.RecordTypeOrders:    len(batch.Orders),
		model.RecordTypeExpenses:  len(batch.Expenses),
		model.RecordTypeInventory: len(batch.Inventory),
		model.RecordTypeEmployees: len(batch.Employees),
	}
	for recordType, n := range counts {
		if recordType != batch.Type && n > 0 {
			return fmt.Errorf("%w: %s batch carries %d %s records", ErrInvalidRecord, batch.Type, n, recordType)
		}
	}

	for i, id := range rowIDs(batch) {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s record at index %d has no row identity", ErrInvalidRecord, batch.Type, i)
		}
	}
	return nil
}

func rowIDs(batch model.Batch) []string {
	ids := make([]string, 0, batch.Len())
	for _, o := range batch.Orders {
		ids = append(ids, o.SheetRowID)
	}
	for _, e := range batch.Expenses {
		ids = append(ids, e.SheetRowID)
	}
	for _, inv := range batch.Inventory {
		ids = append(ids, inv.SheetRowID)
	}
	for _, emp := range batch.Employees {
		ids = append(ids, emp.SheetRowID)
	}
	return ids
}

func validateCustomRows(tabName string, rows []model.CustomTabRow) error {
	if err := validateString(tabName, "tabName"); err != nil {
		return err
	}
	for i, row := range rows {
		if strings.TrimSpace(row.SheetRowID) == "" {
			return fmt.Errorf("%w: custom row at index %d has no row identity", ErrInvalidRecord, i)
		}
	}
	return nil
}

func validateMetrics(m *model.DailyMetrics) error {
	if m == nil {
		return fmt.Errorf("%w: metrics", ErrNilParameter)
	}
	if err := validateString(m.UserID, "userID"); err != nil {
		return err
	}
	return validateDate(m.Date)
}

func validateAlert(a *model.Alert) error {
	if a == nil {
		return fmt.Errorf("%w: alert", ErrNilParameter)
	}
	if err := validateString(a.UserID, "userID"); err != nil {
		return err
	}
	if err := validateString(a.Message, "message"); err != nil {
		return err
	}
	switch a.Severity {
	case model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
	default:
		return fmt.Errorf("%w: alert severity %q", ErrInvalidRecord, a.Severity)
	}
	return validateDate(a.Date)
}
