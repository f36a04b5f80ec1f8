// Package service defines the interfaces shared between sheetsync components.
package service

import (
	"context"

	"github.com/Veraticus/sheetsync/internal/model"
)

// DateFilter restricts record queries to an inclusive ISO date range.
// Empty bounds are open.
type DateFilter struct {
	From string
	To   string
}

// Day returns a filter matching a single date.
func Day(date string) DateFilter {
	return DateFilter{From: date, To: date}
}

// UpsertResult reports what a batch upsert wrote.
type UpsertResult struct {
	Type   model.RecordType `json:"type"`
	Dates  []string         `json:"dates"`
	Stored int              `json:"stored"`
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	GetOrCreateUser(ctx context.Context, id, email, name string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)

	// Sync token operations
	CreateSyncToken(ctx context.Context, userID, label string) (*model.SyncToken, error)
	GetSyncTokens(ctx context.Context, userID string) ([]model.SyncToken, error)
	ValidateSyncToken(ctx context.Context, token string) (*model.SyncToken, error)
	TouchSyncToken(ctx context.Context, token string) error
	DeleteSyncToken(ctx context.Context, userID string, id int64) error

	// Connected sheet operations
	SaveUserSheet(ctx context.Context, sheet *model.UserSheet) error
	GetUserSheet(ctx context.Context, userID string) (*model.UserSheet, error)
	GetActiveSheets(ctx context.Context) ([]model.UserSheet, error)
	DeleteUserSheet(ctx context.Context, userID string) error
	TouchUserSheet(ctx context.Context, userID, sheetID string) error

	// Canonical record operations
	UpsertBatch(ctx context.Context, userID string, batch model.Batch) (*UpsertResult, error)
	UpsertCustomRows(ctx context.Context, userID, tabName string, rows []model.CustomTabRow) (int, error)
	GetOrders(ctx context.Context, userID string, filter DateFilter) ([]model.Order, error)
	GetExpenses(ctx context.Context, userID string, filter DateFilter) ([]model.Expense, error)
	GetInventory(ctx context.Context, userID string) ([]model.InventoryEntry, error)
	GetEmployees(ctx context.Context, userID string) ([]model.EmployeeRecord, error)
	GetCustomRows(ctx context.Context, userID, tabName string) ([]model.CustomTabRow, error)

	// Daily metrics operations
	SaveDailyMetrics(ctx context.Context, metrics *model.DailyMetrics) error
	GetDailyMetrics(ctx context.Context, userID, date string) (*model.DailyMetrics, error)
	GetDailyMetricsRange(ctx context.Context, userID, fromDate string) ([]model.DailyMetrics, error)
	GetRecentDailyMetrics(ctx context.Context, userID string, limit int) ([]model.DailyMetrics, error)

	// Alert operations
	CreateAlert(ctx context.Context, alert *model.Alert) error
	GetAlerts(ctx context.Context, userID string, limit int) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, userID string, id int64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// SheetInfo describes a spreadsheet the reader can access.
type SheetInfo struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tabs  []string `json:"tabs"`
}

// SheetReader fetches raw cell values from a spreadsheet. ReadAllTabs maps
// each tab name to its rows; a tab that could not be read maps to no rows.
type SheetReader interface {
	ReadAllTabs(ctx context.Context, sheetID string) (map[string][][]any, error)
	ValidateAccess(ctx context.Context, sheetID string) (*SheetInfo, error)
}
