// Package metrics derives daily financial metrics and threshold alerts from
// stored orders and expenses.
package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

// Store is the subset of storage the metrics package reads and writes.
type Store interface {
	GetOrders(ctx context.Context, userID string, filter service.DateFilter) ([]model.Order, error)
	GetExpenses(ctx context.Context, userID string, filter service.DateFilter) ([]model.Expense, error)
	SaveDailyMetrics(ctx context.Context, metrics *model.DailyMetrics) error
	GetDailyMetrics(ctx context.Context, userID, date string) (*model.DailyMetrics, error)
	CreateAlert(ctx context.Context, alert *model.Alert) error
}

var hundred = decimal.NewFromInt(100)

// Aggregator recomputes daily metrics from canonical records.
type Aggregator struct {
	store  Store
	logger *slog.Logger
}

// NewAggregator creates an aggregator. A nil logger uses slog.Default.
func NewAggregator(store Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: store, logger: logger}
}

// Recompute rebuilds the metrics row for (userID, date) from every order
// and expense currently stored for that date. Calling it again with
// unchanged records yields the same row.
func (a *Aggregator) Recompute(ctx context.Context, userID, date string) (*model.DailyMetrics, error) {
	filter := service.Day(date)

	orders, err := a.store.GetOrders(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", date, err)
	}
	expenses, err := a.store.GetExpenses(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", date, err)
	}

	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.Total))
	}
	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(decimal.NewFromFloat(e.Amount))
	}

	m := Compute(userID, date, revenue, spent)
	if err := a.store.SaveDailyMetrics(ctx, m); err != nil {
		return nil, fmt.Errorf("recompute %s: %w", date, err)
	}

	a.logger.Debug("recomputed daily metrics",
		"user_id", userID,
		"date", date,
		"orders", len(orders),
		"expenses", len(expenses),
		"revenue", m.Revenue,
		"profit_margin", m.ProfitMargin)

	return m, nil
}

// Compute derives profit and margin. Margin is profit over revenue as a
// percentage rounded to two decimals, or 0 when revenue is not positive.
func Compute(userID, date string, revenue, expenses decimal.Decimal) *model.DailyMetrics {
	profit := revenue.Sub(expenses)

	margin := decimal.Zero
	if revenue.IsPositive() {
		margin = profit.Div(revenue).Mul(hundred).Round(2)
	}

	return &model.DailyMetrics{
		UserID:       userID,
		Date:         date,
		Revenue:      revenue.InexactFloat64(),
		Expenses:     expenses.InexactFloat64(),
		Profit:       profit.InexactFloat64(),
		ProfitMargin: margin.InexactFloat64(),
	}
}
