package parser

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// ErrMissingRowID is returned when a pushed row carries no row identity.
var ErrMissingRowID = errors.New("row has no sheetRowId")

// payloadRow reads fields from one pushed JSON object. Older push clients
// sent snake_case names; each lookup tries the camelCase name first.
type payloadRow map[string]any

func (r payloadRow) get(names ...string) any {
	for _, name := range names {
		if v, ok := r[name]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (r payloadRow) text(names ...string) string {
	return Text(r.get(names...))
}

func (r payloadRow) number(names ...string) float64 {
	return Number(r.get(names...))
}

func (r payloadRow) date(names ...string) string {
	return NormalizeDate(r.get(names...))
}

func (r payloadRow) rowID() string {
	return r.text("sheetRowId", "sheet_row_id")
}

func (r payloadRow) extra() model.ExtraData {
	raw, err := cast.ToStringMapStringE(r.get("extraData", "extra_data"))
	if err != nil || len(raw) == 0 {
		return nil
	}
	extra := make(model.ExtraData, len(raw))
	for k, v := range raw {
		if k == "" || IsEmpty(v) {
			continue
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// FromPayload builds a batch from rows pushed by a sheet client. The same
// defaults and coercions as tab parsing apply.
func FromPayload(recordType model.RecordType, rows []map[string]any) (model.Batch, error) {
	if !recordType.IsValid() {
		return model.Batch{}, fmt.Errorf("%w: %q", common.ErrUnknownTabType, recordType)
	}

	batch := model.Batch{Type: recordType}
	for i, raw := range rows {
		r := payloadRow(raw)
		id := r.rowID()
		if id == "" {
			return model.Batch{}, fmt.Errorf("row %d: %w", i, ErrMissingRowID)
		}

		switch recordType {
		case model.RecordTypeOrders:
			batch.Orders = append(batch.Orders, orderFromPayload(r, id))
		case model.RecordTypeExpenses:
			batch.Expenses = append(batch.Expenses, model.Expense{
				SheetRowID:  id,
				Date:        r.date("date"),
				Category:    r.text("category"),
				Description: r.text("description"),
				Amount:      r.number("amount"),
				PaidBy:      r.text("paidBy", "paid_by"),
				Notes:       r.text("notes"),
				ExtraData:   r.extra(),
			})
		case model.RecordTypeInventory:
			batch.Inventory = append(batch.Inventory, model.InventoryEntry{
				SheetRowID:     id,
				Date:           r.date("date"),
				ProductName:    r.text("productName", "product_name"),
				QuantityIn:     r.number("quantityIn", "quantity_in"),
				QuantityOut:    r.number("quantityOut", "quantity_out"),
				StockRemaining: r.number("stockRemaining", "stock_remaining"),
				Notes:          r.text("notes"),
				ExtraData:      r.extra(),
			})
		case model.RecordTypeEmployees:
			batch.Employees = append(batch.Employees, model.EmployeeRecord{
				SheetRowID:   id,
				EmployeeName: r.text("employeeName", "employee_name"),
				Role:         r.text("role"),
				Department:   r.text("department"),
				Salary:       r.number("salary"),
				StartDate:    r.date("startDate", "start_date"),
				Status:       orDefault(r.text("status"), defaultEmployeeStatus),
				Notes:        r.text("notes"),
				ExtraData:    r.extra(),
			})
		}
	}

	return batch, nil
}

func orderFromPayload(r payloadRow, id string) model.Order {
	quantity := r.number("quantity")
	unitPrice := r.number("unitPrice", "unit_price")

	return model.Order{
		SheetRowID:   id,
		Date:         r.date("date"),
		CustomerName: r.text("customerName", "customer_name"),
		Product:      r.text("product"),
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Total:        orderTotal(r.number("total"), quantity, unitPrice),
		Status:       orDefault(r.text("status"), defaultOrderStatus),
		Notes:        r.text("notes"),
		ExtraData:    r.extra(),
	}
}
