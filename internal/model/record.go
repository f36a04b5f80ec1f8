// Package model defines the canonical records produced by sheet ingestion.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// RecordType identifies one of the canonical record kinds a tab can map to.
type RecordType string

// Canonical record types.
const (
	RecordTypeOrders    RecordType = "orders"
	RecordTypeExpenses  RecordType = "expenses"
	RecordTypeInventory RecordType = "inventory"
	RecordTypeEmployees RecordType = "employees"
)

// AllRecordTypes returns the canonical record types in a stable order.
func AllRecordTypes() []RecordType {
	return []RecordType{
		RecordTypeOrders,
		RecordTypeExpenses,
		RecordTypeInventory,
		RecordTypeEmployees,
	}
}

// ParseRecordType converts a raw sheet type name into a RecordType.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown sheet type %q: use orders, expenses, inventory, employees", s)
	}
	return t, nil
}

// IsValid reports whether t is one of the canonical record types.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeOrders, RecordTypeExpenses, RecordTypeInventory, RecordTypeEmployees:
		return true
	}
	return false
}

// KnownColumns is the number of leading columns the type interprets.
// Columns at or beyond this index become extra data.
func (t RecordType) KnownColumns() int {
	switch t {
	case RecordTypeOrders:
		return 8 // date, customer, product, quantity, unit price, total, status, notes
	case RecordTypeExpenses:
		return 6 // date, category, description, amount, paid by, notes
	case RecordTypeInventory:
		return 6 // date, product, quantity in, quantity out, stock remaining, notes
	case RecordTypeEmployees:
		return 7 // name, role, department, salary, start date, status, notes
	}
	return 0
}

// AffectsMetrics reports whether records of this type feed daily metrics.
func (t RecordType) AffectsMetrics() bool {
	return t == RecordTypeOrders || t == RecordTypeExpenses
}

// ExtraData holds non-empty cells from columns beyond a type's known columns,
// keyed by header text.
type ExtraData map[string]string

// Batch groups parsed records of a single canonical type. Only the slice
// matching Type is populated.
type Batch struct {
	Type      RecordType       `json:"type"`
	Orders    []Order          `json:"orders,omitempty"`
	Expenses  []Expense        `json:"expenses,omitempty"`
	Inventory []InventoryEntry `json:"inventory,omitempty"`
	Employees []EmployeeRecord `json:"employees,omitempty"`
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Orders) + len(b.Expenses) + len(b.Inventory) + len(b.Employees)
}

// Append adds the records of other to b. Both batches must share a type.
func (b *Batch) Append(other Batch) error {
	if b.Type == "" {
		b.Type = other.Type
	}
	if other.Type != b.Type {
		return fmt.Errorf("cannot merge %s batch into %s batch", other.Type, b.Type)
	}
	b.Orders = append(b.Orders, other.Orders...)
	b.Expenses = append(b.Expenses, other.Expenses...)
	b.Inventory = append(b.Inventory, other.Inventory...)
	b.Employees = append(b.Employees, other.Employees...)
	return nil
}

// Dates returns the distinct, sorted, non-empty dates of the orders and
// expenses in the batch. Inventory and employee records never contribute.
func (b Batch) Dates() []string {
	seen := make(map[string]struct{})
	for _, o := range b.Orders {
		if o.Date != "" {
			seen[o.Date] = struct{}{}
		}
	}
	for _, e := range b.Expenses {
		if e.Date != "" {
			seen[e.Date] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
