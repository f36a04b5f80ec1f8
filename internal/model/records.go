package model

// Dates on canonical records are ISO "YYYY-MM-DD" strings. An empty string
// means the source cell was empty or could not be parsed.

// Order is one row of an orders tab.
type Order struct {
	ExtraData    ExtraData `json:"extraData,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	SheetRowID   string    `json:"sheetRowId"`
	Date         string    `json:"date,omitempty"`
	CustomerName string    `json:"customerName"`
	Product      string    `json:"product"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	ID           int64     `json:"id,omitempty"`
	Quantity     float64   `json:"quantity"`
	UnitPrice    float64   `json:"unitPrice"`
	Total        float64   `json:"total"`
}

// Expense is one row of an expenses tab.
type Expense struct {
	ExtraData   ExtraData `json:"extraData,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	SheetRowID  string    `json:"sheetRowId"`
	Date        string    `json:"date,omitempty"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	PaidBy      string    `json:"paidBy"`
	Notes       string    `json:"notes"`
	ID          int64     `json:"id,omitempty"`
	Amount      float64   `json:"amount"`
}

// InventoryEntry is one row of an inventory tab.
type InventoryEntry struct {
	ExtraData      ExtraData `json:"extraData,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	SheetRowID     string    `json:"sheetRowId"`
	Date           string    `json:"date,omitempty"`
	ProductName    string    `json:"productName"`
	Notes          string    `json:"notes"`
	ID             int64     `json:"id,omitempty"`
	QuantityIn     float64   `json:"quantityIn"`
	QuantityOut    float64   `json:"quantityOut"`
	StockRemaining float64   `json:"stockRemaining"`
}

// EmployeeRecord is one row of an employees tab.
type EmployeeRecord struct {
	ExtraData    ExtraData `json:"extraData,omitempty"`
	UserID       string    `json:"userId,omitempty"`
	SheetRowID   string    `json:"sheetRowId"`
	EmployeeName string    `json:"employeeName"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	StartDate    string    `json:"startDate,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes"`
	ID           int64     `json:"id,omitempty"`
	Salary       float64   `json:"salary"`
}

// CustomTabRow is a row from a tab that matched no canonical type, stored as
// header → cell text.
type CustomTabRow struct {
	Data       map[string]string `json:"data"`
	UserID     string            `json:"userId,omitempty"`
	TabName    string            `json:"tabName"`
	SheetRowID string            `json:"sheetRowId"`
	ID         int64             `json:"id,omitempty"`
	RowIndex   int               `json:"rowIndex"`
}
