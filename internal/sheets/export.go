package sheets

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/service"
)

// Report tab names.
const (
	OverviewSheet = "Tổng quan"
	OrdersSheet   = "Đơn hàng"
	ExpensesSheet = "Chi phí"
)

// ReportData is the content of an exported business report.
type ReportData struct {
	Metrics  []model.DailyMetrics
	Orders   []model.Order
	Expenses []model.Expense
}

// ReportStore is the read side of storage a report needs.
type ReportStore interface {
	GetDailyMetricsRange(ctx context.Context, userID, fromDate string) ([]model.DailyMetrics, error)
	GetOrders(ctx context.Context, userID string, filter service.DateFilter) ([]model.Order, error)
	GetExpenses(ctx context.Context, userID string, filter service.DateFilter) ([]model.Expense, error)
}

// LoadReport fetches the metrics, orders and expenses dated on or after
// fromDate.
func LoadReport(ctx context.Context, store ReportStore, userID, fromDate string) (*ReportData, error) {
	var data ReportData
	filter := service.DateFilter{From: fromDate}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Metrics, err = store.GetDailyMetricsRange(gctx, userID, fromDate)
		return err
	})
	g.Go(func() error {
		var err error
		data.Orders, err = store.GetOrders(gctx, userID, filter)
		return err
	})
	g.Go(func() error {
		var err error
		data.Expenses, err = store.GetExpenses(gctx, userID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report for user %s: %w", userID, err)
	}
	return &data, nil
}

type reportSheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// WriteReport writes data as an xlsx workbook with an overview, an orders
// and an expenses sheet.
func WriteReport(w io.Writer, data ReportData) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range reportSheets(data) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet.name, err)
		}

		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReportFilename names a report covering the last period days.
func ReportFilename(period int, now time.Time) string {
	return fmt.Sprintf("bao-cao-kinh-doanh-%dngay-%s.xlsx", period, now.UTC().Format("2006-01-02"))
}

func reportSheets(data ReportData) []reportSheet {
	overview := reportSheet{
		name:    OverviewSheet,
		headers: []string{"Ngày", "Doanh thu", "Chi phí", "Lợi nhuận", "Biên LN (%)"},
		widths:  []float64{12, 15, 15, 15, 12},
	}
	for _, m := range data.Metrics {
		overview.rows = append(overview.rows, []any{m.Date, m.Revenue, m.Expenses, m.Profit, m.ProfitMargin})
	}

	orders := reportSheet{
		name:    OrdersSheet,
		headers: []string{"Ngày", "Khách hàng", "Sản phẩm", "Số lượng", "Đơn giá", "Thành tiền", "Trạng thái"},
		widths:  []float64{12, 20, 20, 10, 12, 15, 12},
	}
	for _, o := range data.Orders {
		orders.rows = append(orders.rows, []any{o.Date, o.CustomerName, o.Product, o.Quantity, o.UnitPrice, o.Total, o.Status})
	}

	expenses := reportSheet{
		name:    ExpensesSheet,
		headers: []string{"Ngày", "Danh mục", "Mô tả", "Số tiền", "Người chi"},
		widths:  []float64{12, 15, 30, 15, 15},
	}
	for _, e := range data.Expenses {
		expenses.rows = append(expenses.rows, []any{e.Date, e.Category, e.Description, e.Amount, e.PaidBy})
	}

	return []reportSheet{overview, orders, expenses}
}

func writeSheet(f *excelize.File, sheet reportSheet, headerStyle int) error {
	header := make([]any, len(sheet.headers))
	for i, h := range sheet.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %q header: %w", sheet.name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(sheet.headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %q header: %w", sheet.name, err)
	}

	for i, row := range sheet.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %q row %d: %w", sheet.name, i+2, err)
		}
	}

	for i, width := range sheet.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.name, col, col, width); err != nil {
			return fmt.Errorf("failed to size %q column %s: %w", sheet.name, col, err)
		}
	}
	return nil
}
