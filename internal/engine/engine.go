// Package engine runs the sheet sync pipeline: parse tabs, upsert records,
// recompute daily metrics for touched dates, then evaluate alerts.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/sheetsync/internal/metrics"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/parser"
	"github.com/Veraticus/sheetsync/internal/service"
)

// Config holds configuration options for the sync engine.
type Config struct {
	Parser      *parser.Parser
	Logger      *slog.Logger
	Thresholds  metrics.Thresholds
	DateWorkers int
	UserWorkers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Thresholds:  metrics.DefaultThresholds(),
		DateWorkers: 4,
		UserWorkers: 2,
	}
}

// Engine orchestrates sheet syncs for users.
type Engine struct {
	storage     service.Storage
	reader      service.SheetReader
	parser      *parser.Parser
	aggregator  *metrics.Aggregator
	evaluator   *metrics.Evaluator
	logger      *slog.Logger
	userLocks   sync.Map
	dateWorkers int
	userWorkers int
}

// New creates a sync engine. reader may be nil when only pushed batches
// are synced.
func New(storage service.Storage, reader service.SheetReader, config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := config.Parser
	if p == nil {
		p = parser.Default()
	}
	if config.DateWorkers <= 0 {
		config.DateWorkers = 1
	}
	if config.UserWorkers <= 0 {
		config.UserWorkers = 1
	}

	return &Engine{
		storage:     storage,
		reader:      reader,
		parser:      p,
		aggregator:  metrics.NewAggregator(storage, logger),
		evaluator:   metrics.NewEvaluator(storage, config.Thresholds, logger),
		logger:      logger,
		dateWorkers: config.DateWorkers,
		userWorkers: config.UserWorkers,
	}
}

// lockUser serializes syncs for one user so two pulls never interleave
// their upserts and recomputes.
func (e *Engine) lockUser(userID string) func() {
	v, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// run accumulates the state of one sync.
type run struct {
	report   *SyncReport
	failures []error
}

func (r *run) fail(err error) {
	r.failures = append(r.failures, err)
}

func (r *run) finish() (*SyncReport, error) {
	r.report.Duration = time.Since(r.report.StartedAt)
	if len(r.failures) > 0 {
		return r.report, &SyncError{Report: r.report, Failures: r.failures}
	}
	return r.report, nil
}

func (e *Engine) start(ctx context.Context, userID string) (*run, error) {
	if _, err := e.storage.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	return &run{report: &SyncReport{
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		Types:     []TypeReport{},
		Dates:     []DateReport{},
	}}, nil
}

// SyncTabs ingests every tab of a spreadsheet for the user. Known tabs of
// the same type are merged into one batch, each type is upserted
// atomically, and the metrics of every touched date are recomputed before
// any alert is evaluated.
//
// A failed type batch, custom tab, or date does not stop the rest. When
// anything failed the returned error is a *SyncError and the report still
// describes what was committed.
func (e *Engine) SyncTabs(ctx context.Context, userID string, tabs map[string][][]any) (*SyncReport, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	r, err := e.start(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tabs))
	for name := range tabs {
		names = append(names, name)
	}
	sort.Strings(names)

	batches := make(map[model.RecordType]*model.Batch)
	var custom []parser.Result

	for _, name := range names {
		result := e.parser.Parse(name, tabs[name])
		r.report.Tabs = append(r.report.Tabs, TabReport{
			Name: name,
			Kind: result.Kind,
			Type: result.Type,
			Rows: result.Len(),
		})

		switch result.Kind {
		case parser.KindKnown:
			b, ok := batches[result.Type]
			if !ok {
				b = &model.Batch{Type: result.Type}
				batches[result.Type] = b
			}
			if err := b.Append(result.Batch); err != nil {
				r.fail(fmt.Errorf("tab %q: %w", name, err))
			}
		case parser.KindCustom:
			if len(result.Custom) > 0 {
				custom = append(custom, result)
			}
		}
	}

	var dates []string
	for _, recordType := range model.AllRecordTypes() {
		b, ok := batches[recordType]
		if !ok || b.Len() == 0 {
			continue
		}
		dates = append(dates, e.upsert(ctx, r, *b)...)
	}

	for _, result := range custom {
		e.upsertCustom(ctx, r, result)
	}

	e.processDates(ctx, r, dates)

	e.logger.Info("sheet sync finished",
		"user_id", userID,
		"tabs", len(names),
		"stored", r.report.Stored(),
		"dates", len(r.report.Dates),
		"alerts", r.report.AlertCount(),
		"failures", len(r.failures))

	return r.finish()
}

// SyncBatch ingests a single batch pushed by a sheet client.
func (e *Engine) SyncBatch(ctx context.Context, userID string, batch model.Batch) (*SyncReport, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	r, err := e.start(ctx, userID)
	if err != nil {
		return nil, err
	}

	dates := e.upsert(ctx, r, batch)
	e.processDates(ctx, r, dates)

	e.logger.Info("push sync finished",
		"user_id", userID,
		"type", batch.Type,
		"stored", r.report.Stored(),
		"dates", len(dates),
		"alerts", r.report.AlertCount(),
		"failures", len(r.failures))

	return r.finish()
}

func (e *Engine) upsert(ctx context.Context, r *run, batch model.Batch) []string {
	tr := TypeReport{Type: batch.Type}
	defer func() { r.report.Types = append(r.report.Types, tr) }()

	result, err := e.storage.UpsertBatch(ctx, r.report.UserID, batch)
	if err != nil {
		tr.Error = err.Error()
		r.fail(err)
		e.logger.Error("record upsert failed",
			"user_id", r.report.UserID,
			"type", batch.Type,
			"records", batch.Len(),
			"error", err)
		return nil
	}

	tr.Stored = result.Stored
	tr.Dates = result.Dates
	return result.Dates
}

func (e *Engine) upsertCustom(ctx context.Context, r *run, result parser.Result) {
	cr := CustomReport{Tab: result.TabName}
	n, err := e.storage.UpsertCustomRows(ctx, r.report.UserID, result.TabName, result.Custom)
	if err != nil {
		cr.Error = err.Error()
		r.fail(err)
		e.logger.Error("custom tab upsert failed",
			"user_id", r.report.UserID,
			"tab", result.TabName,
			"error", err)
	}
	cr.Stored = n
	r.report.Custom = append(r.report.Custom, cr)
}

// processDates recomputes every date, then evaluates alerts for the dates
// that recomputed cleanly. Each phase fans out across dates; the phase
// boundary guarantees that evaluating D sees the new metrics for D-1.
func (e *Engine) processDates(ctx context.Context, r *run, dates []string) {
	dates = unique(dates)
	if len(dates) == 0 {
		return
	}

	userID := r.report.UserID
	reports := make([]DateReport, len(dates))
	var mu sync.Mutex

	recordFailure := func(i int, err error) {
		mu.Lock()
		defer mu.Unlock()
		reports[i].Error = err.Error()
		r.fail(err)
	}

	var recompute errgroup.Group
	recompute.SetLimit(e.dateWorkers)
	for i, date := range dates {
		reports[i].Date = date
		recompute.Go(func() error {
			m, err := e.aggregator.Recompute(ctx, userID, date)
			if err != nil {
				e.logger.Error("metrics recompute failed", "user_id", userID, "date", date, "error", err)
				recordFailure(i, err)
				return nil
			}
			reports[i].Metrics = m
			return nil
		})
	}
	_ = recompute.Wait()

	var evaluate errgroup.Group
	evaluate.SetLimit(e.dateWorkers)
	for i, date := range dates {
		if reports[i].Metrics == nil {
			continue
		}
		evaluate.Go(func() error {
			alerts, err := e.evaluator.Evaluate(ctx, userID, date)
			reports[i].Alerts = alerts
			if err != nil {
				e.logger.Error("alert evaluation failed", "user_id", userID, "date", date, "error", err)
				recordFailure(i, err)
			}
			return nil
		})
	}
	_ = evaluate.Wait()

	r.report.Dates = append(r.report.Dates, reports...)
}

func unique(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok || d == "" {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
