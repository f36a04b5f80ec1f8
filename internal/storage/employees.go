package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/model"
)

func upsertEmployeesTx(ctx context.Context, tx *sql.Tx, userID string, employees []model.EmployeeRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO employees (
			user_id, sheet_row_id, employee_name, role, department,
			salary, start_date, status, notes, extra_data, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, sheet_row_id) DO UPDATE SET
			employee_name = excluded.employee_name,
			role = excluded.role,
			department = excluded.department,
			salary = excluded.salary,
			start_date = excluded.start_date,
			status = excluded.status,
			notes = excluded.notes,
			extra_data = excluded.extra_data,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare employee upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, emp := range employees {
		extra, err := encodeExtra(emp.ExtraData)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			userID, emp.SheetRowID, emp.EmployeeName, emp.Role, emp.Department,
			emp.Salary, nullDate(emp.StartDate), emp.Status, emp.Notes, extra,
		); err != nil {
			return fmt.Errorf("failed to upsert employee %s: %w", emp.SheetRowID, err)
		}
	}
	return nil
}

// GetEmployees returns the user's employee records.
func (s *SQLiteStorage) GetEmployees(ctx context.Context, userID string) ([]model.EmployeeRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sheet_row_id, employee_name, role, department,
			salary, start_date, status, notes, extra_data
		FROM employees
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []model.EmployeeRecord
	for rows.Next() {
		var (
			emp   model.EmployeeRecord
			start sql.NullString
			extra sql.NullString
		)
		if err := rows.Scan(&emp.ID, &emp.UserID, &emp.SheetRowID, &emp.EmployeeName, &emp.Role,
			&emp.Department, &emp.Salary, &start, &emp.Status, &emp.Notes, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emp.StartDate = start.String
		if emp.ExtraData, err = decodeExtra(extra); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
