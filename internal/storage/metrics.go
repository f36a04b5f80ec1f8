package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// SaveDailyMetrics replaces the metrics row for (user, date).
func (s *SQLiteStorage) SaveDailyMetrics(ctx context.Context, m *model.DailyMetrics) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMetrics(m); err != nil {
		return err
	}
	if err := ensureUser(ctx, s.db, m.UserID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_metrics (user_id, date, revenue, expenses, profit, profit_margin, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, date) DO UPDATE SET
			revenue = excluded.revenue,
			expenses = excluded.expenses,
			profit = excluded.profit,
			profit_margin = excluded.profit_margin,
			updated_at = CURRENT_TIMESTAMP
	`, m.UserID, m.Date, m.Revenue, m.Expenses, m.Profit, m.ProfitMargin)
	if err != nil {
		return fmt.Errorf("failed to save daily metrics: %w", err)
	}
	return nil
}

const metricsColumns = `user_id, date, revenue, expenses, profit, profit_margin`

func scanMetrics(row interface{ Scan(...any) error }) (*model.DailyMetrics, error) {
	var m model.DailyMetrics
	if err := row.Scan(&m.UserID, &m.Date, &m.Revenue, &m.Expenses, &m.Profit, &m.ProfitMargin); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetDailyMetrics returns the metrics for (user, date), or common.ErrNotFound.
func (s *SQLiteStorage) GetDailyMetrics(ctx context.Context, userID, date string) (*model.DailyMetrics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m, err := scanMetrics(s.db.QueryRowContext(ctx, `
		SELECT `+metricsColumns+` FROM daily_metrics WHERE user_id = ? AND date = ?
	`, userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metrics for %s: %w", date, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metrics: %w", err)
	}
	return m, nil
}

// GetDailyMetricsRange returns metrics on or after fromDate, oldest first.
func (s *SQLiteStorage) GetDailyMetricsRange(ctx context.Context, userID, fromDate string) ([]model.DailyMetrics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryMetrics(ctx, `
		SELECT `+metricsColumns+`
		FROM daily_metrics
		WHERE user_id = ? AND date >= ?
		ORDER BY date
	`, userID, fromDate)
}

// GetRecentDailyMetrics returns the latest limit rows, oldest first.
func (s *SQLiteStorage) GetRecentDailyMetrics(ctx context.Context, userID string, limit int) ([]model.DailyMetrics, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.queryMetrics(ctx, `
		SELECT `+metricsColumns+` FROM (
			SELECT `+metricsColumns+`
			FROM daily_metrics
			WHERE user_id = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date
	`, userID, limit)
}

func (s *SQLiteStorage) queryMetrics(ctx context.Context, query string, args ...any) ([]model.DailyMetrics, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var metrics []model.DailyMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily metrics: %w", err)
		}
		metrics = append(metrics, *m)
	}
	return metrics, rows.Err()
}
