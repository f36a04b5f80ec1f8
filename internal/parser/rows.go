package parser

import "github.com/Veraticus/sheetsync/internal/model"

const (
	defaultOrderStatus    = "completed"
	defaultEmployeeStatus = "active"
)

func orderFromRow(row []any, id string, extra model.ExtraData) model.Order {
	quantity := Number(cell(row, 3))
	unitPrice := Number(cell(row, 4))

	return model.Order{
		SheetRowID:   id,
		Date:         NormalizeDate(cell(row, 0)),
		CustomerName: Text(cell(row, 1)),
		Product:      Text(cell(row, 2)),
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        orderTotal(Number(cell(row, 5)), quantity, unitPrice),
		Status:       orDefault(Text(cell(row, 6)), defaultOrderStatus),
		Notes:        Text(cell(row, 7)),
		ExtraData:    extra,
	}
}

func expenseFromRow(row []any, id string, extra model.ExtraData) model.Expense {
	return model.Expense{
		SheetRowID:  id,
		Date:        NormalizeDate(cell(row, 0)),
		Category:    Text(cell(row, 1)),
		Description: Text(cell(row, 2)),
		Amount:      Number(cell(row, 3)),
		PaidBy:      Text(cell(row, 4)),
		Notes:       Text(cell(row, 5)),
		ExtraData:   extra,
	}
}

func inventoryFromRow(row []any, id string, extra model.ExtraData) model.InventoryEntry {
	return model.InventoryEntry{
		SheetRowID:     id,
		Date:           NormalizeDate(cell(row, 0)),
		ProductName:    Text(cell(row, 1)),
		QuantityIn:     Number(cell(row, 2)),
		QuantityOut:    Number(cell(row, 3)),
		StockRemaining: Number(cell(row, 4)),
		Notes:          Text(cell(row, 5)),
		ExtraData:      extra,
	}
}

func employeeFromRow(row []any, id string, extra model.ExtraData) model.EmployeeRecord {
	return model.EmployeeRecord{
		SheetRowID:   id,
		EmployeeName: Text(cell(row, 0)),
		Role:         Text(cell(row, 1)),
		Department:   Text(cell(row, 2)),
		Salary:       Number(cell(row, 3)),
		StartDate:    NormalizeDate(cell(row, 4)),
		Status:       orDefault(Text(cell(row, 5)), defaultEmployeeStatus),
		Notes:        Text(cell(row, 6)),
		ExtraData:    extra,
	}
}

// orderTotal falls back to quantity × unit price when no total was given.
func orderTotal(total, quantity, unitPrice float64) float64 {
	if total != 0 {
		return total
	}
	return quantity * unitPrice
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
