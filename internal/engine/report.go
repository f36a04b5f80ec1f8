package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/parser"
)

// TabReport describes how one tab was parsed.
type TabReport struct {
	Name string           `json:"name"`
	Kind parser.Kind      `json:"kind"`
	Type model.RecordType `json:"type,omitempty"`
	Rows int              `json:"rows"`
}

// TypeReport describes the upsert of one record type.
type TypeReport struct {
	Type   model.RecordType `json:"type"`
	Error  string           `json:"error,omitempty"`
	Dates  []string         `json:"dates,omitempty"`
	Stored int              `json:"stored"`
}

// CustomReport describes the upsert of one custom tab.
type CustomReport struct {
	Tab    string `json:"tab"`
	Error  string `json:"error,omitempty"`
	Stored int    `json:"stored"`
}

// DateReport describes the recompute and alert pass for one date.
type DateReport struct {
	Metrics *model.DailyMetrics `json:"metrics,omitempty"`
	Date    string              `json:"date"`
	Error   string              `json:"error,omitempty"`
	Alerts  []model.Alert       `json:"alerts,omitempty"`
}

// SyncReport is the outcome of one sync for one user.
type SyncReport struct {
	StartedAt time.Time      `json:"startedAt"`
	UserID    string         `json:"userId"`
	SheetID   string         `json:"sheetId,omitempty"`
	Tabs      []TabReport    `json:"tabs,omitempty"`
	Types     []TypeReport   `json:"types"`
	Custom    []CustomReport `json:"custom,omitempty"`
	Dates     []DateReport   `json:"dates"`
	Duration  time.Duration  `json:"duration"`
}

// Stored returns the number of records written across types and custom tabs.
func (r *SyncReport) Stored() int {
	n := 0
	for _, t := range r.Types {
		n += t.Stored
	}
	for _, c := range r.Custom {
		n += c.Stored
	}
	return n
}

// AlertCount returns the number of alerts raised.
func (r *SyncReport) AlertCount() int {
	n := 0
	for _, d := range r.Dates {
		n += len(d.Alerts)
	}
	return n
}

// DatesRecalculated lists the dates whose metrics were rebuilt.
func (r *SyncReport) DatesRecalculated() []string {
	dates := make([]string, 0, len(r.Dates))
	for _, d := range r.Dates {
		if d.Metrics != nil {
			dates = append(dates, d.Date)
		}
	}
	return dates
}

// SyncError reports the parts of a sync that failed. Everything else in
// Report was committed.
type SyncError struct {
	Report   *SyncReport
	Failures []error
}

func (e *SyncError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("sync for user %s: %d failure(s): %s",
		e.Report.UserID, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *SyncError) Unwrap() []error {
	return e.Failures
}
