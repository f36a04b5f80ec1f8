package sheets

import (
	"context"
	"sort"
	"sync"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/service"
)

// MockReader is an in-memory SheetReader for tests.
type MockReader struct {
	ReadFunc      func(ctx context.Context, sheetID string) (map[string][][]any, error)
	Sheets        map[string]map[string][][]any
	Titles        map[string]string
	ReadCalls     []string
	ReadCallCount int
	mu            sync.Mutex
}

// NewMockReader creates an empty mock reader.
func NewMockReader() *MockReader {
	return &MockReader{
		Sheets: make(map[string]map[string][][]any),
		Titles: make(map[string]string),
	}
}

// SetSheet registers the tabs returned for sheetID.
func (m *MockReader) SetSheet(sheetID, title string, tabs map[string][][]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sheets[sheetID] = tabs
	m.Titles[sheetID] = title
}

// SetReadError configures the mock to fail every ReadAllTabs call.
func (m *MockReader) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadFunc = func(_ context.Context, _ string) (map[string][][]any, error) {
		return nil, err
	}
}

// ReadAllTabs implements service.SheetReader.
func (m *MockReader) ReadAllTabs(ctx context.Context, sheetID string) (map[string][][]any, error) {
	m.mu.Lock()
	m.ReadCallCount++
	m.ReadCalls = append(m.ReadCalls, sheetID)
	readFunc := m.ReadFunc
	tabs, ok := m.Sheets[sheetID]
	m.mu.Unlock()

	if readFunc != nil {
		return readFunc(ctx, sheetID)
	}
	if !ok {
		return nil, ErrNoAccess
	}
	return tabs, nil
}

// ValidateAccess implements service.SheetReader.
func (m *MockReader) ValidateAccess(_ context.Context, sheetID string) (*service.SheetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs, ok := m.Sheets[sheetID]
	if !ok {
		return nil, common.NewUserError("Cannot access the spreadsheet.", ErrNoAccess)
	}

	names := make([]string, 0, len(tabs))
	for name := range tabs {
		names = append(names, name)
	}
	sort.Strings(names)

	return &service.SheetInfo{ID: sheetID, Title: m.Titles[sheetID], Tabs: names}, nil
}

// GetReadCalls returns a copy of the sheet ids read so far.
func (m *MockReader) GetReadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.ReadCalls))
	copy(calls, m.ReadCalls)
	return calls
}
