package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/sheetsync/internal/model"
)

// BuildSummary turns metrics ordered oldest first into the dashboard
// headline. The last row is today and the one before it yesterday.
func BuildSummary(rows []model.DailyMetrics) model.Summary {
	var today, yesterday model.DailyMetrics
	if n := len(rows); n > 0 {
		today = rows[n-1]
		if n > 1 {
			yesterday = rows[n-2]
		}
	}

	return model.Summary{
		Today: today,
		Changes: model.MetricChanges{
			Revenue:  Change(today.Revenue, yesterday.Revenue),
			Expenses: Change(today.Expenses, yesterday.Expenses),
			Profit:   Change(today.Profit, yesterday.Profit),
		},
	}
}

// Change is the percentage change from previous to current rounded to two
// decimals, or 0 when previous is 0.
func Change(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	prev := decimal.NewFromFloat(previous)
	return decimal.NewFromFloat(current).Sub(prev).Div(prev).Mul(hundred).Round(2).InexactFloat64()
}
