package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sheetsync/internal/model"
)

var orderHeader = []any{"Ngày", "Khách hàng", "Sản phẩm", "Số lượng", "Đơn giá", "Thành tiền", "Trạng thái", "Ghi chú"}

func TestParse_Empty(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
	}{
		{name: "no rows", rows: nil},
		{name: "header only", rows: [][]any{orderHeader}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("DonHang", tt.rows)
			assert.Equal(t, KindEmpty, got.Kind)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestParse_OrdersSkipsBlankRows(t *testing.T) {
	rows := [][]any{
		orderHeader,
		{"05/03/2024", "Lan", "Cà phê", "2", "50000", "", "", ""},
		{"", "", "ignored", "1"},
		{"2024-03-06", "Minh", "Trà", 3, 20000, 55000, "pending", "giao sau"},
	}

	got := Parse("DonHang", rows)
	require.Equal(t, KindKnown, got.Kind)
	assert.Equal(t, model.RecordTypeOrders, got.Type)
	require.Len(t, got.Batch.Orders, 2)

	first := got.Batch.Orders[0]
	assert.Equal(t, "orders_2", first.SheetRowID)
	assert.Equal(t, "2024-03-05", first.Date)
	assert.Equal(t, "Lan", first.CustomerName)
	assert.InDelta(t, 100000.0, first.Total, 0.001, "total falls back to quantity x price")
	assert.Equal(t, "completed", first.Status)

	second := got.Batch.Orders[1]
	assert.Equal(t, "orders_4", second.SheetRowID, "blank row still consumes a row number")
	assert.InDelta(t, 55000.0, second.Total, 0.001)
	assert.Equal(t, "pending", second.Status)
	assert.Equal(t, "giao sau", second.Notes)

	assert.Equal(t, []string{"2024-03-05", "2024-03-06"}, got.Batch.Dates())
}

func TestParse_BlankRowGuard(t *testing.T) {
	tests := []struct {
		name string
		row  []any
		kept bool
	}{
		{name: "missing cells", row: []any{}, kept: false},
		{name: "whitespace", row: []any{"  ", "\t", "x"}, kept: false},
		{name: "nil and zero", row: []any{nil, 0.0, "x"}, kept: false},
		{name: "false", row: []any{false, "", "x"}, kept: false},
		{name: "second cell only", row: []any{"", "Lan"}, kept: true},
		{name: "string zero is content", row: []any{"0", ""}, kept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("ChiPhi", [][]any{{"Ngày", "Danh mục"}, tt.row})
			if tt.kept {
				assert.Len(t, got.Batch.Expenses, 1)
			} else {
				assert.Empty(t, got.Batch.Expenses)
			}
		})
	}
}

func TestParse_ExtraColumns(t *testing.T) {
	header := []any{"Ngày", "Danh mục", "Mô tả", "Số tiền", "Người chi", "Ghi chú", "Hóa đơn", "", "Dự án"}
	rows := [][]any{
		header,
		{"2024-03-05", "Điện", "Tiền điện", "1200000", "Hà", "", "HD-01", "orphan", ""},
		{"2024-03-05", "Nước", "", "300000"},
	}

	got := Parse("Chi Phí", rows)
	require.Len(t, got.Batch.Expenses, 2)

	assert.Equal(t, model.ExtraData{"Hóa đơn": "HD-01"}, got.Batch.Expenses[0].ExtraData)
	assert.Nil(t, got.Batch.Expenses[1].ExtraData)
	assert.InDelta(t, 1200000.0, got.Batch.Expenses[0].Amount, 0.001)
}

func TestParse_InventoryAndEmployees(t *testing.T) {
	inv := Parse("KhoHang", [][]any{
		{"Ngày", "Sản phẩm", "Nhập", "Xuất", "Tồn", "Ghi chú"},
		{"01/02/2024", "Cà phê", "10", "abc", "7", ""},
	})
	require.Len(t, inv.Batch.Inventory, 1)
	assert.Equal(t, "inventory_2", inv.Batch.Inventory[0].SheetRowID)
	assert.Equal(t, "2024-02-01", inv.Batch.Inventory[0].Date)
	assert.Zero(t, inv.Batch.Inventory[0].QuantityOut)
	assert.Empty(t, inv.Batch.Dates())

	emp := Parse("Nhân Sự", [][]any{
		{"Tên", "Chức vụ", "Phòng ban", "Lương", "Ngày bắt đầu", "Trạng thái", "Ghi chú"},
		{"Hà", "Kế toán", "Tài chính", "15000000", "15/01/2023"},
	})
	require.Len(t, emp.Batch.Employees, 1)
	e := emp.Batch.Employees[0]
	assert.Equal(t, "employees_2", e.SheetRowID)
	assert.Equal(t, "2023-01-15", e.StartDate)
	assert.Equal(t, "active", e.Status)
	assert.InDelta(t, 15000000.0, e.Salary, 0.001)
}

func TestParse_CustomTab(t *testing.T) {
	rows := [][]any{
		{"Khách", "", "SĐT", "Điểm"},
		{"Lan", "hidden", "0901", 0.0},
		{"", "  ", nil},
		{nil, nil, nil, 0.0},
		{"Minh"},
	}

	got := Parse("Khách hàng", rows)
	require.Equal(t, KindCustom, got.Kind)
	assert.Equal(t, "Khách hàng", got.TabName)
	require.Len(t, got.Custom, 3)

	assert.Equal(t, map[string]string{"Khách": "Lan", "SĐT": "0901", "Điểm": "0"}, got.Custom[0].Data)
	assert.Equal(t, "Khách hàng_2", got.Custom[0].SheetRowID)
	assert.Equal(t, 2, got.Custom[0].RowIndex)

	assert.Equal(t, 4, got.Custom[1].RowIndex, "numeric zero keeps a custom row")
	assert.Equal(t, map[string]string{"Khách": "Minh", "SĐT": "", "Điểm": ""}, got.Custom[2].Data)
	assert.Equal(t, "Khách hàng_5", got.Custom[2].SheetRowID)
}

type fixedClassifier map[string]model.RecordType

func (f fixedClassifier) Classify(tab string) (model.RecordType, bool) {
	t, ok := f[tab]
	return t, ok
}

func TestParser_InjectedClassifier(t *testing.T) {
	p := New(fixedClassifier{"Ledger": model.RecordTypeExpenses})

	got := p.Parse("Ledger", [][]any{{"Date", "Category"}, {"2024-03-05", "Rent"}})
	require.Equal(t, KindKnown, got.Kind)
	assert.Equal(t, "expenses_2", got.Batch.Expenses[0].SheetRowID)

	got = p.Parse("DonHang", [][]any{{"a"}, {"b"}})
	assert.Equal(t, KindCustom, got.Kind)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "dd/mm/yyyy", in: "05/03/2024", want: "2024-03-05"},
		{name: "unpadded", in: "5/3/2024", want: "2024-03-05"},
		{name: "iso passthrough", in: "2024-03-05", want: "2024-03-05"},
		{name: "trimmed", in: " 2024-03-05 ", want: "2024-03-05"},
		{name: "rfc3339", in: "2024-03-05T10:00:00Z", want: "2024-03-05"},
		{name: "time value", in: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), want: "2024-03-05"},
		{name: "invalid calendar date", in: "31/02/2024", want: ""},
		{name: "invalid iso calendar date", in: "2024-02-30", want: ""},
		{name: "iso leap day", in: "2024-02-29", want: "2024-02-29"},
		{name: "garbage", in: "abc", want: ""},
		{name: "time of day only", in: "3:04PM", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "nil", in: nil, want: ""},
		{name: "zero serial", in: 0.0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{name: "garbage", in: "abc", want: 0},
		{name: "string", in: "12.5", want: 12.5},
		{name: "padded", in: " 3 ", want: 3},
		{name: "float", in: 7.25, want: 7.25},
		{name: "int", in: 4, want: 4},
		{name: "nil", in: nil, want: 0},
		{name: "blank", in: "   ", want: 0},
		{name: "nan", in: "NaN", want: 0},
		{name: "inf", in: "Inf", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Number(tt.in), 1e-9)
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "Lan", Text("  Lan "))
	assert.Equal(t, "3", Text(3.0))
	assert.Equal(t, "1.5", Text(1.5))
	assert.Equal(t, "42", Text(42))
	assert.Equal(t, "true", Text(true))
}
