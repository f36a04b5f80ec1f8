package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

// PullSheet reads the user's connected spreadsheet and syncs every tab.
// The sheet's last sync time is stamped whenever the pipeline ran, even if
// part of it failed.
func (e *Engine) PullSheet(ctx context.Context, userID string) (*SyncReport, error) {
	sheet, err := e.storage.GetUserSheet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("pull for user %s: %w", userID, err)
	}
	return e.pull(ctx, *sheet)
}

func (e *Engine) pull(ctx context.Context, sheet model.UserSheet) (*SyncReport, error) {
	if e.reader == nil {
		return nil, fmt.Errorf("pull: no spreadsheet reader configured: %w", common.ErrMissingConfig)
	}

	common.LogDebug("pulling sheet", common.Fields{
		"user_id":  sheet.UserID,
		"sheet_id": sheet.SheetID,
	})

	tabs, err := e.reader.ReadAllTabs(ctx, sheet.SheetID)
	if err != nil {
		return nil, fmt.Errorf("pull sheet %s: %w", sheet.SheetID, err)
	}

	report, err := e.SyncTabs(ctx, sheet.UserID, tabs)
	if report == nil {
		return nil, err
	}
	report.SheetID = sheet.SheetID

	if touchErr := e.storage.TouchUserSheet(ctx, sheet.UserID, sheet.SheetID); touchErr != nil {
		e.logger.Warn("failed to stamp sheet sync time",
			"user_id", sheet.UserID,
			"sheet_id", sheet.SheetID,
			"error", touchErr)
	}
	return report, err
}

// UserResult is the outcome of one user's sync in a scheduled run.
type UserResult struct {
	Report  *SyncReport `json:"report,omitempty"`
	UserID  string      `json:"userId"`
	SheetID string      `json:"sheetId"`
	Error   string      `json:"error,omitempty"`
	Success bool        `json:"success"`
}

// RunSummary is the outcome of SyncAllSheets.
type RunSummary struct {
	Timestamp time.Time    `json:"timestamp"`
	Results   []UserResult `json:"results"`
	Synced    int          `json:"synced"`
	Failed    int          `json:"failed"`
}

// ProgressFunc is called after each user's sync completes.
type ProgressFunc func(done, total int, result UserResult)

// SyncAllSheets pulls every active connected sheet. A failing user is
// recorded and never stops the others. Partial failures count as failed.
func (e *Engine) SyncAllSheets(ctx context.Context, onProgress ProgressFunc) (*RunSummary, error) {
	sheets, err := e.storage.GetActiveSheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduled sync: %w", err)
	}

	summary := &RunSummary{
		Timestamp: time.Now().UTC(),
		Results:   make([]UserResult, len(sheets)),
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(e.userWorkers)

	for i, sheet := range sheets {
		g.Go(func() error {
			result := UserResult{UserID: sheet.UserID, SheetID: sheet.SheetID}

			report, err := e.pull(ctx, sheet)
			result.Report = report
			result.Success = err == nil
			if err != nil {
				result.Error = err.Error()
				var syncErr *SyncError
				outcome := "error"
				if errors.As(err, &syncErr) {
					outcome = "partial"
				}
				common.LogError(err, "scheduled sync failed for user", common.Fields{
					"user_id":  sheet.UserID,
					"sheet_id": sheet.SheetID,
					"outcome":  outcome,
				})
			}

			mu.Lock()
			summary.Results[i] = result
			done++
			if result.Success {
				summary.Synced++
			} else {
				summary.Failed++
			}
			current := done
			mu.Unlock()

			if onProgress != nil {
				onProgress(current, len(sheets), result)
			}
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Info("scheduled sync finished",
		"users", len(sheets),
		"synced", summary.Synced,
		"failed", summary.Failed)

	return summary, ctx.Err()
}
