package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// CreateAlert stores a new alert and sets its ID.
func (s *SQLiteStorage) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAlert(alert); err != nil {
		return err
	}
	if err := ensureUser(ctx, s.db, alert.UserID); err != nil {
		return err
	}

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (user_id, date, message, severity, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, alert.UserID, alert.Date, alert.Message, string(alert.Severity), alert.IsRead, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	alert.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alert id: %w", err)
	}
	return nil
}

// GetAlerts returns the user's newest alerts.
func (s *SQLiteStorage) GetAlerts(ctx context.Context, userID string, limit int) ([]model.Alert, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, message, severity, is_read, created_at
		FROM alerts
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		var (
			a        model.Alert
			severity string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Date, &a.Message, &severity, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Severity = model.Severity(severity)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkAlertRead flags one of the user's alerts as read.
func (s *SQLiteStorage) MarkAlertRead(ctx context.Context, userID string, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %d: %w", id, common.ErrNotFound)
	}
	return nil
}
