package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

const testUser = "user-1"

// Helper function to create test storage with one seeded user.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}
	if _, err := store.GetOrCreateUser(ctx, testUser, "owner@example.com", "Owner"); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to seed user: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	for _, table := range []string{"users", "sync_tokens", "user_sheets", "orders", "expenses",
		"inventory", "employees", "sheet_data", "daily_metrics", "alerts"} {
		var n int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestGetOrCreateUser(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	user, err := store.GetOrCreateUser(ctx, testUser, "other@example.com", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email, "existing user is returned unchanged")

	_, err = store.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrUnknownUser)
}

func TestUpsertBatch_ReplacesSameRow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first := model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{{
		SheetRowID: "orders_17", Date: "2024-03-05", CustomerName: "Lan",
		Quantity: 1, UnitPrice: 100, Total: 100, Status: "completed",
		ExtraData: model.ExtraData{"Kênh": "Shopee"},
	}}}
	second := model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{{
		SheetRowID: "orders_17", Date: "2024-03-06", CustomerName: "Minh",
		Quantity: 2, UnitPrice: 150, Total: 300, Status: "pending",
	}}}

	_, err := store.UpsertBatch(ctx, testUser, first)
	require.NoError(t, err)
	result, err := store.UpsertBatch(ctx, testUser, second)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Equal(t, []string{"2024-03-06"}, result.Dates)

	orders, err := store.GetOrders(ctx, testUser, service.DateFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	got := orders[0]
	assert.Equal(t, "Minh", got.CustomerName)
	assert.Equal(t, "2024-03-06", got.Date)
	assert.InDelta(t, 300.0, got.Total, 0.001)
	assert.Equal(t, "pending", got.Status)
	assert.Nil(t, got.ExtraData, "extra data is replaced, not merged")
}

func TestUpsertBatch_AllTypes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	exp, err := store.UpsertBatch(ctx, testUser, model.Batch{Type: model.RecordTypeExpenses, Expenses: []model.Expense{
		{SheetRowID: "expenses_2", Date: "2024-03-05", Category: "Điện", Amount: 500},
		{SheetRowID: "expenses_3", Date: "2024-03-04", Category: "Nước", Amount: 200},
		{SheetRowID: "expenses_4", Category: "Khác", Amount: 50},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05"}, exp.Dates)

	inv, err := store.UpsertBatch(ctx, testUser, model.Batch{Type: model.RecordTypeInventory, Inventory: []model.InventoryEntry{
		{SheetRowID: "inventory_2", Date: "2024-03-05", ProductName: "Trà", QuantityIn: 10, StockRemaining: 10},
	}})
	require.NoError(t, err)
	assert.Empty(t, inv.Dates, "inventory never touches metric dates")

	emp, err := store.UpsertBatch(ctx, testUser, model.Batch{Type: model.RecordTypeEmployees, Employees: []model.EmployeeRecord{
		{SheetRowID: "employees_2", EmployeeName: "Hà", Salary: 1000, Status: "active"},
	}})
	require.NoError(t, err)
	assert.Empty(t, emp.Dates)

	expenses, err := store.GetExpenses(ctx, testUser, service.Day("2024-03-05"))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Điện", expenses[0].Category)

	all, err := store.GetExpenses(ctx, testUser, service.DateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inventory, err := store.GetInventory(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, inventory, 1)
	assert.InDelta(t, 10.0, inventory[0].StockRemaining, 0.001)

	employees, err := store.GetEmployees(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Empty(t, employees[0].StartDate)
}

func TestUpsertBatch_Failures(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	orders := []model.Order{{SheetRowID: "orders_2", Date: "2024-03-05", Total: 10}}

	tests := []struct {
		wantErr error
		name    string
		userID  string
		batch   model.Batch
	}{
		{
			name:    "unknown user",
			userID:  "ghost",
			batch:   model.Batch{Type: model.RecordTypeOrders, Orders: orders},
			wantErr: common.ErrUnknownUser,
		},
		{
			name:    "unknown type",
			userID:  testUser,
			batch:   model.Batch{Type: "payroll"},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "mismatched records",
			userID:  testUser,
			batch:   model.Batch{Type: model.RecordTypeExpenses, Orders: orders},
			wantErr: ErrInvalidRecord,
		},
		{
			name:   "missing row identity",
			userID: testUser,
			batch: model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{
				{SheetRowID: "orders_2", Date: "2024-03-05"},
				{SheetRowID: " ", Date: "2024-03-05"},
			}},
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.UpsertBatch(ctx, tt.userID, tt.batch)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := store.GetOrders(ctx, testUser, service.DateFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored, "no failed batch may leave rows behind")
}

func TestUpsertCustomRows(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rows := []model.CustomTabRow{
		{TabName: "Khách", SheetRowID: "Khách_2", RowIndex: 2, Data: map[string]string{"Tên": "Lan"}},
		{TabName: "Khách", SheetRowID: "Khách_3", RowIndex: 3, Data: map[string]string{"Tên": "Minh"}},
	}
	n, err := store.UpsertCustomRows(ctx, testUser, "Khách", rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows[0].Data = map[string]string{"Tên": "Lan Anh"}
	_, err = store.UpsertCustomRows(ctx, testUser, "Khách", rows[:1])
	require.NoError(t, err)

	got, err := store.GetCustomRows(ctx, testUser, "Khách")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Lan Anh", got[0].Data["Tên"])
	assert.Equal(t, 3, got[1].RowIndex)

	_, err = store.UpsertCustomRows(ctx, "ghost", "Khách", rows)
	assert.ErrorIs(t, err, common.ErrUnknownUser)
}

func TestDailyMetrics(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, m := range []model.DailyMetrics{
		{UserID: testUser, Date: "2024-03-03", Revenue: 50},
		{UserID: testUser, Date: "2024-03-04", Revenue: 100, Profit: 100, ProfitMargin: 100},
		{UserID: testUser, Date: "2024-03-05", Revenue: 70, Expenses: 10, Profit: 60, ProfitMargin: 85.71},
	} {
		m := m
		require.NoError(t, store.SaveDailyMetrics(ctx, &m))
	}

	replaced := model.DailyMetrics{UserID: testUser, Date: "2024-03-05", Revenue: 80, Profit: 80, ProfitMargin: 100}
	require.NoError(t, store.SaveDailyMetrics(ctx, &replaced))

	got, err := store.GetDailyMetrics(ctx, testUser, "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, replaced, *got)

	_, err = store.GetDailyMetrics(ctx, testUser, "2024-03-06")
	assert.ErrorIs(t, err, common.ErrNotFound)

	rng, err := store.GetDailyMetricsRange(ctx, testUser, "2024-03-04")
	require.NoError(t, err)
	require.Len(t, rng, 2)
	assert.Equal(t, "2024-03-04", rng[0].Date)

	recent, err := store.GetRecentDailyMetrics(ctx, testUser, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-04", recent[0].Date)
	assert.Equal(t, "2024-03-05", recent[1].Date)

	err = store.SaveDailyMetrics(ctx, &model.DailyMetrics{UserID: testUser, Date: "05/03/2024"})
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAlerts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		a := &model.Alert{UserID: testUser, Date: "2024-03-05", Message: msg, Severity: model.SeverityHigh}
		require.NoError(t, store.CreateAlert(ctx, a))
		assert.NotZero(t, a.ID)
	}

	alerts, err := store.GetAlerts(ctx, testUser, 2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "third", alerts[0].Message)
	assert.False(t, alerts[0].IsRead)

	require.NoError(t, store.MarkAlertRead(ctx, testUser, alerts[0].ID))
	assert.ErrorIs(t, store.MarkAlertRead(ctx, "someone-else", alerts[1].ID), common.ErrNotFound)

	alerts, err = store.GetAlerts(ctx, testUser, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 3)
	assert.True(t, alerts[0].IsRead)

	err = store.CreateAlert(ctx, &model.Alert{UserID: testUser, Date: "2024-03-05", Message: "x", Severity: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestSyncTokens(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	token, err := store.CreateSyncToken(ctx, testUser, "Apps Script")
	require.NoError(t, err)
	assert.Len(t, token.Token, 32)
	assert.NotContains(t, token.Token, "-")
	assert.True(t, token.IsActive)

	found, err := store.ValidateSyncToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, testUser, found.UserID)
	assert.Nil(t, found.LastSyncAt)

	require.NoError(t, store.TouchSyncToken(ctx, token.Token))
	tokens, err := store.GetSyncTokens(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.NotNil(t, tokens[0].LastSyncAt)

	_, err = store.ValidateSyncToken(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	_, err = store.ValidateSyncToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	require.NoError(t, store.DeleteSyncToken(ctx, testUser, token.ID))
	_, err = store.ValidateSyncToken(ctx, token.Token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.ErrorIs(t, store.DeleteSyncToken(ctx, testUser, token.ID), common.ErrNotFound)

	_, err = store.CreateSyncToken(ctx, "ghost", "")
	assert.ErrorIs(t, err, common.ErrUnknownUser)
}

func TestCreateSyncToken_Duplicate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	store.newToken = func() string { return "fixedtoken" }

	_, err := store.CreateSyncToken(ctx, testUser, "first")
	require.NoError(t, err)

	_, err = store.CreateSyncToken(ctx, testUser, "second")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	tokens, err := store.GetSyncTokens(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestUserSheets(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetUserSheet(ctx, testUser)
	assert.ErrorIs(t, err, common.ErrNoSheet)

	require.NoError(t, store.SaveUserSheet(ctx, &model.UserSheet{UserID: testUser, SheetID: "sheet-a", Title: "A"}))
	require.NoError(t, store.SaveUserSheet(ctx, &model.UserSheet{UserID: testUser, SheetID: "sheet-b", Title: "B"}))

	sheet, err := store.GetUserSheet(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "sheet-b", sheet.SheetID)

	active, err := store.GetActiveSheets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1, "connecting a new sheet deactivates the old one")

	require.NoError(t, store.TouchUserSheet(ctx, testUser, "sheet-b"))
	sheet, err = store.GetUserSheet(ctx, testUser)
	require.NoError(t, err)
	assert.NotNil(t, sheet.LastSyncAt)

	require.NoError(t, store.DeleteUserSheet(ctx, testUser))
	_, err = store.GetUserSheet(ctx, testUser)
	assert.ErrorIs(t, err, common.ErrNoSheet)
}
