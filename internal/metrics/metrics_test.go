package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/testutil"
)

func seedMetrics(t *testing.T, db *testutil.TestDB, date string, revenue, expenses int64) {
	t.Helper()
	m := Compute(db.UserID, date, decimal.NewFromInt(revenue), decimal.NewFromInt(expenses))
	require.NoError(t, db.Storage.SaveDailyMetrics(context.Background(), m))
}

func TestRecompute(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := db.Storage.UpsertBatch(ctx, db.UserID, model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{
		{SheetRowID: "orders_2", Date: "2024-03-05", Total: 600000},
		{SheetRowID: "orders_3", Date: "2024-03-05", Total: 400000},
		{SheetRowID: "orders_4", Date: "2024-03-06", Total: 999},
	}})
	require.NoError(t, err)
	_, err = db.Storage.UpsertBatch(ctx, db.UserID, model.Batch{Type: model.RecordTypeExpenses, Expenses: []model.Expense{
		{SheetRowID: "expenses_2", Date: "2024-03-05", Amount: 950000},
	}})
	require.NoError(t, err)

	agg := NewAggregator(db.Storage, nil)
	first, err := agg.Recompute(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)

	assert.InDelta(t, 1000000.0, first.Revenue, 0.001)
	assert.InDelta(t, 950000.0, first.Expenses, 0.001)
	assert.InDelta(t, 50000.0, first.Profit, 0.001)
	assert.InDelta(t, 5.0, first.ProfitMargin, 0.0001)

	second, err := agg.Recompute(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := db.Storage.GetDailyMetrics(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, *first, *stored)
}

func TestRecompute_ReflectsEdits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	agg := NewAggregator(db.Storage, nil)

	batch := model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{
		{SheetRowID: "orders_2", Date: "2024-03-05", Total: 100},
	}}
	_, err := db.Storage.UpsertBatch(ctx, db.UserID, batch)
	require.NoError(t, err)
	_, err = agg.Recompute(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)

	// The row moved to another date; the old date must drop to zero.
	batch.Orders[0].Date = "2024-03-06"
	_, err = db.Storage.UpsertBatch(ctx, db.UserID, batch)
	require.NoError(t, err)

	m, err := agg.Recompute(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)
	assert.Zero(t, m.Revenue)
	assert.Zero(t, m.ProfitMargin, "no revenue means no margin")
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		revenue    string
		expenses   string
		wantProfit float64
		wantMargin float64
	}{
		{name: "low margin", revenue: "1000000", expenses: "950000", wantProfit: 50000, wantMargin: 5},
		{name: "rounded", revenue: "3", expenses: "2", wantProfit: 1, wantMargin: 33.33},
		{name: "loss", revenue: "100", expenses: "150", wantProfit: -50, wantMargin: -50},
		{name: "no revenue", revenue: "0", expenses: "10", wantProfit: -10, wantMargin: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Compute("u", "2024-03-05", decimal.RequireFromString(tt.revenue), decimal.RequireFromString(tt.expenses))
			assert.InDelta(t, tt.wantProfit, m.Profit, 1e-9)
			assert.InDelta(t, tt.wantMargin, m.ProfitMargin, 1e-9)
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		yesterday    [2]int64
		today        [2]int64
		wantSeverity []model.Severity
		wantContains []string
	}{
		{
			name:         "revenue drop",
			yesterday:    [2]int64{100, 0},
			today:        [2]int64{70, 0},
			wantSeverity: []model.Severity{model.SeverityHigh},
			wantContains: []string{"Revenue dropped 30.0% compared to 2024-03-04"},
		},
		{
			name:      "small revenue drop",
			yesterday: [2]int64{100, 0},
			today:     [2]int64{90, 0},
		},
		{
			name:         "low margin",
			yesterday:    [2]int64{1000000, 950000},
			today:        [2]int64{1000000, 950000},
			wantSeverity: []model.Severity{model.SeverityHigh},
			wantContains: []string{"Profit margin is 5.00%, below 10%"},
		},
		{
			name:         "expense rise",
			yesterday:    [2]int64{1000, 100},
			today:        [2]int64{1000, 145},
			wantSeverity: []model.Severity{model.SeverityMedium},
			wantContains: []string{"Expenses rose 45.0%"},
		},
		{
			name:      "expense rise at threshold",
			yesterday: [2]int64{1000, 100},
			today:     [2]int64{1000, 130},
		},
		{
			name:         "several conditions",
			yesterday:    [2]int64{1000, 100},
			today:        [2]int64{500, 480},
			wantSeverity: []model.Severity{model.SeverityHigh, model.SeverityMedium, model.SeverityHigh},
			wantContains: []string{"Revenue dropped 50.0%", "Expenses rose 380.0%", "Profit margin is 4.00%"},
		},
		{
			name:      "no yesterday revenue",
			yesterday: [2]int64{0, 0},
			today:     [2]int64{0, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			ctx := context.Background()
			seedMetrics(t, db, "2024-03-04", tt.yesterday[0], tt.yesterday[1])
			seedMetrics(t, db, "2024-03-05", tt.today[0], tt.today[1])

			eval := NewEvaluator(db.Storage, DefaultThresholds(), nil)
			fixed := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
			eval.now = func() time.Time { return fixed }

			alerts, err := eval.Evaluate(ctx, db.UserID, "2024-03-05")
			require.NoError(t, err)
			require.Len(t, alerts, len(tt.wantSeverity))

			for i, a := range alerts {
				assert.Equal(t, tt.wantSeverity[i], a.Severity)
				assert.Contains(t, a.Message, tt.wantContains[i])
				assert.Equal(t, "2024-03-05", a.Date)
				assert.False(t, a.IsRead)
				assert.Equal(t, fixed, a.CreatedAt)
				assert.NotZero(t, a.ID)
			}

			stored, err := db.Storage.GetAlerts(ctx, db.UserID, 20)
			require.NoError(t, err)
			assert.Len(t, stored, len(tt.wantSeverity))
		})
	}
}

func TestEvaluate_MissingDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	eval := NewEvaluator(db.Storage, DefaultThresholds(), nil)

	seedMetrics(t, db, "2024-03-05", 10, 100)

	alerts, err := eval.Evaluate(ctx, db.UserID, "2024-03-05")
	require.NoError(t, err)
	assert.Empty(t, alerts, "no previous day means no comparison")

	alerts, err = eval.Evaluate(ctx, db.UserID, "2024-03-06")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	_, err = eval.Evaluate(ctx, db.UserID, "05/03/2024")
	assert.Error(t, err)
}

func TestEvaluate_RepeatsAndThresholds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	seedMetrics(t, db, "2024-03-04", 100, 0)
	seedMetrics(t, db, "2024-03-05", 90, 0)

	eval := NewEvaluator(db.Storage, Thresholds{RevenueDropPct: 5, ExpenseRisePct: 30, MinMarginPct: 10}, nil)
	for i := 0; i < 2; i++ {
		alerts, err := eval.Evaluate(ctx, db.UserID, "2024-03-05")
		require.NoError(t, err)
		require.Len(t, alerts, 1)
	}

	stored, err := db.Storage.GetAlerts(ctx, db.UserID, 20)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "alerts are not de-duplicated")
}

func TestBuildSummary(t *testing.T) {
	rows := []model.DailyMetrics{
		{Date: "2024-03-04", Revenue: 200, Expenses: 50, Profit: 150},
		{Date: "2024-03-05", Revenue: 150, Expenses: 75, Profit: 75, ProfitMargin: 50},
	}

	s := BuildSummary(rows)
	assert.Equal(t, "2024-03-05", s.Today.Date)
	assert.InDelta(t, -25.0, s.Changes.Revenue, 1e-9)
	assert.InDelta(t, 50.0, s.Changes.Expenses, 1e-9)
	assert.InDelta(t, -50.0, s.Changes.Profit, 1e-9)

	single := BuildSummary(rows[1:])
	assert.Zero(t, single.Changes.Revenue)

	empty := BuildSummary(nil)
	assert.Zero(t, empty.Today.Revenue)
}

func TestChange(t *testing.T) {
	assert.Zero(t, Change(10, 0))
	assert.InDelta(t, 33.33, Change(4, 3), 1e-9)
}
