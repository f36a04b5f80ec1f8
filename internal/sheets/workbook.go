package sheets

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/sheetsync/internal/service"
)

// WorkbookReader reads tabs from a local xlsx workbook. It satisfies the
// same contract as GoogleReader so exported spreadsheets can be imported
// without API access.
type WorkbookReader struct {
	path string
}

// NewWorkbookReader creates a reader for the workbook at path.
func NewWorkbookReader(path string) *WorkbookReader {
	return &WorkbookReader{path: path}
}

// ValidateAccess opens the workbook and lists its tabs. sheetID is ignored.
func (w *WorkbookReader) ValidateAccess(_ context.Context, _ string) (*service.SheetInfo, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	return &service.SheetInfo{
		ID:    w.path,
		Title: w.path,
		Tabs:  f.GetSheetList(),
	}, nil
}

// ReadAllTabs returns every tab of the workbook. sheetID is ignored.
func (w *WorkbookReader) ReadAllTabs(ctx context.Context, _ string) (map[string][][]any, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer func() { _ = f.Close() }()

	return readWorkbook(ctx, f)
}

// ReadWorkbook reads every tab of an xlsx stream.
func ReadWorkbook(ctx context.Context, r io.Reader) (map[string][][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readWorkbook(ctx, f)
}

func readWorkbook(ctx context.Context, f *excelize.File) (map[string][][]any, error) {
	tabs := make(map[string][][]any)
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		display, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read tab %q: %w", name, err)
		}
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read tab %q: %w", name, err)
		}

		values := make([][]any, len(display))
		for i, row := range display {
			values[i] = make([]any, len(row))
			for j, text := range row {
				values[i][j] = workbookCell(text, rawCell(raw, i, j))
			}
		}
		tabs[name] = values
	}
	return tabs, nil
}

// workbookCell picks the value handed to the parser. Cells whose number
// format changed their text (dates, grouped amounts, percentages) yield the
// underlying number so serial dates and amounts survive; everything else
// keeps the text the user sees.
func workbookCell(display, raw string) any {
	if raw == "" || raw == display {
		return display
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return display
}

func rawCell(rows [][]string, i, j int) string {
	if i >= len(rows) || j >= len(rows[i]) {
		return ""
	}
	return rows[i][j]
}
