// Package parser turns raw spreadsheet rows into canonical records.
package parser

import (
	"fmt"

	"github.com/Veraticus/sheetsync/internal/classification"
	"github.com/Veraticus/sheetsync/internal/model"
)

// Kind describes what a tab parsed into.
type Kind string

// Parse result kinds.
const (
	KindEmpty  Kind = "empty"
	KindKnown  Kind = "known"
	KindCustom Kind = "custom"
)

// Result is the outcome of parsing one tab. Batch is set for KindKnown and
// Custom for KindCustom.
type Result struct {
	Kind    Kind
	Type    model.RecordType
	TabName string
	Batch   model.Batch
	Custom  []model.CustomTabRow
}

// Len returns the number of parsed records.
func (r Result) Len() int {
	switch r.Kind {
	case KindKnown:
		return r.Batch.Len()
	case KindCustom:
		return len(r.Custom)
	}
	return 0
}

// TabClassifier resolves a tab name to a record type.
type TabClassifier interface {
	Classify(tabName string) (model.RecordType, bool)
}

// Parser converts tabs using a tab classifier.
type Parser struct {
	classifier TabClassifier
}

// New creates a parser backed by the given classifier.
func New(classifier TabClassifier) *Parser {
	return &Parser{classifier: classifier}
}

var defaultParser = New(classification.Default())

// Default returns the parser backed by the default alias table.
func Default() *Parser {
	return defaultParser
}

// Parse converts a tab using the default alias table.
func Parse(tabName string, rows [][]any) Result {
	return defaultParser.Parse(tabName, rows)
}

// Parse converts the rows of one tab. The first row is the header.
func (p *Parser) Parse(tabName string, rows [][]any) Result {
	if len(rows) <= 1 {
		return Result{Kind: KindEmpty, TabName: tabName}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = Text(h)
	}
	data := rows[1:]

	if recordType, ok := p.classifier.Classify(tabName); ok {
		return Result{
			Kind:    KindKnown,
			Type:    recordType,
			TabName: tabName,
			Batch:   parseKnown(recordType, headers, data),
		}
	}

	return Result{
		Kind:    KindCustom,
		TabName: tabName,
		Custom:  parseCustom(tabName, headers, data),
	}
}

// RowID builds the idempotency key for the data row at index i (0-based,
// header excluded). The offset of two matches the 1-based sheet row number.
func RowID(prefix string, i int) string {
	return fmt.Sprintf("%s_%d", prefix, i+2)
}

func parseKnown(recordType model.RecordType, headers []string, data [][]any) model.Batch {
	batch := model.Batch{Type: recordType}
	known := recordType.KnownColumns()

	for i, row := range data {
		if IsFalsy(cell(row, 0)) && IsFalsy(cell(row, 1)) {
			continue
		}

		id := RowID(string(recordType), i)
		extra := extraData(headers, row, known)

		switch recordType {
		case model.RecordTypeOrders:
			batch.Orders = append(batch.Orders, orderFromRow(row, id, extra))
		case model.RecordTypeExpenses:
			batch.Expenses = append(batch.Expenses, expenseFromRow(row, id, extra))
		case model.RecordTypeInventory:
			batch.Inventory = append(batch.Inventory, inventoryFromRow(row, id, extra))
		case model.RecordTypeEmployees:
			batch.Employees = append(batch.Employees, employeeFromRow(row, id, extra))
		}
	}

	return batch
}

// extraData collects the non-empty cells past the known columns that sit
// under a non-empty header.
func extraData(headers []string, row []any, start int) model.ExtraData {
	var extra model.ExtraData
	for i := start; i < len(headers); i++ {
		key := headers[i]
		v := cell(row, i)
		if key == "" || IsEmpty(v) {
			continue
		}
		if extra == nil {
			extra = make(model.ExtraData)
		}
		extra[key] = Text(v)
	}
	return extra
}

func parseCustom(tabName string, headers []string, data [][]any) []model.CustomTabRow {
	var rows []model.CustomTabRow

	for i, row := range data {
		if blankRow(row) {
			continue
		}

		values := make(map[string]string, len(headers))
		for j, key := range headers {
			if key == "" {
				continue
			}
			values[key] = Text(cell(row, j))
		}

		rows = append(rows, model.CustomTabRow{
			TabName:    tabName,
			RowIndex:   i + 2,
			SheetRowID: RowID(tabName, i),
			Data:       values,
		})
	}

	return rows
}

func blankRow(row []any) bool {
	for _, v := range row {
		if !IsEmpty(v) {
			return false
		}
	}
	return true
}
