package sheets

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/testutil"
)

func TestWriteReport(t *testing.T) {
	data := ReportData{
		Metrics: []model.DailyMetrics{
			{Date: "2024-03-05", Revenue: 1000000, Expenses: 950000, Profit: 50000, ProfitMargin: 5},
		},
		Orders: []model.Order{
			{Date: "2024-03-05", CustomerName: "An", Product: "Áo", Quantity: 2, UnitPrice: 300000, Total: 600000, Status: "completed"},
			{Date: "2024-03-05", CustomerName: "Bình", Product: "Quần", Quantity: 1, UnitPrice: 400000, Total: 400000, Status: "completed"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, data))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{OverviewSheet, OrdersSheet, ExpensesSheet}, f.GetSheetList())

	rows, err := f.GetRows(OrdersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Ngày", "Khách hàng", "Sản phẩm", "Số lượng", "Đơn giá", "Thành tiền", "Trạng thái"}, rows[0])
	assert.Equal(t, "Bình", rows[2][1])

	expenses, err := f.GetRows(ExpensesSheet)
	require.NoError(t, err)
	assert.Len(t, expenses, 1, "header only")

	width, err := f.GetColWidth(ExpensesSheet, "C")
	require.NoError(t, err)
	assert.InDelta(t, 30.0, width, 0.01)
}

func TestWriteReport_ImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, ReportData{
		Expenses: []model.Expense{{Date: "2024-03-05", Category: "Rent", Amount: 950000, PaidBy: "Chi"}},
	}))

	tabs, err := ReadWorkbook(context.Background(), &buf)
	require.NoError(t, err)
	require.Contains(t, tabs, ExpensesSheet)

	rows := tabs[ExpensesSheet]
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-05", rows[1][0])
	assert.Equal(t, "Rent", rows[1][1])
}

func TestReportFilename(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "bao-cao-kinh-doanh-30ngay-2024-03-05.xlsx", ReportFilename(30, now))
}

func TestLoadReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := db.Storage.UpsertBatch(ctx, db.UserID, model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{
		{SheetRowID: "orders_2", Date: "2024-02-01", Total: 10},
		{SheetRowID: "orders_3", Date: "2024-03-05", Total: 20},
	}})
	require.NoError(t, err)
	require.NoError(t, db.Storage.SaveDailyMetrics(ctx, &model.DailyMetrics{UserID: db.UserID, Date: "2024-03-05", Revenue: 20, Profit: 20, ProfitMargin: 100}))

	data, err := LoadReport(ctx, db.Storage, db.UserID, "2024-03-01")
	require.NoError(t, err)
	require.Len(t, data.Orders, 1)
	assert.Equal(t, "orders_3", data.Orders[0].SheetRowID)
	assert.Len(t, data.Metrics, 1)
	assert.Empty(t, data.Expenses)
}
