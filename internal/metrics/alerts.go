package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
)

const dateLayout = "2006-01-02"

// Thresholds are the percentages that trigger alerts.
type Thresholds struct {
	// RevenueDropPct fires a high alert when revenue falls by more than this.
	RevenueDropPct float64
	// ExpenseRisePct fires a medium alert when expenses grow by more than this.
	ExpenseRisePct float64
	// MinMarginPct fires a high alert when margin is below this.
	MinMarginPct float64
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RevenueDropPct: 20,
		ExpenseRisePct: 30,
		MinMarginPct:   10,
	}
}

// Evaluator compares a day's metrics with the day before and stores an
// alert for each threshold crossed.
type Evaluator struct {
	store      Store
	logger     *slog.Logger
	now        func() time.Time
	thresholds Thresholds
}

// NewEvaluator creates an evaluator. A nil logger uses slog.Default.
func NewEvaluator(store Store, thresholds Thresholds, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		store:      store,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Evaluate checks date against the previous calendar day. Nothing is
// emitted when either day has no metrics. Repeated calls emit again.
func (e *Evaluator) Evaluate(ctx context.Context, userID, date string) ([]model.Alert, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", date, err)
	}
	prevDate := day.AddDate(0, 0, -1).Format(dateLayout)

	today, err := e.store.GetDailyMetrics(ctx, userID, date)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", date, err)
	}
	yesterday, err := e.store.GetDailyMetrics(ctx, userID, prevDate)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", date, err)
	}

	candidates := e.check(*today, *yesterday)
	if len(candidates) == 0 {
		return nil, nil
	}

	now := e.now().UTC()
	alerts := make([]model.Alert, 0, len(candidates))
	for _, alert := range candidates {
		alert.UserID = userID
		alert.Date = date
		alert.CreatedAt = now
		if err := e.store.CreateAlert(ctx, &alert); err != nil {
			return alerts, fmt.Errorf("evaluate %s: %w", date, err)
		}
		e.logger.Info("alert raised",
			"user_id", userID,
			"date", date,
			"severity", alert.Severity,
			"message", alert.Message)
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (e *Evaluator) check(today, yesterday model.DailyMetrics) []model.Alert {
	var alerts []model.Alert

	if yesterday.Revenue != 0 {
		change := percentChange(today.Revenue, yesterday.Revenue)
		if change < -e.thresholds.RevenueDropPct {
			alerts = append(alerts, model.Alert{
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("Revenue dropped %.1f%% compared to %s", math.Abs(change), yesterday.Date),
			})
		}
	}

	if yesterday.Expenses != 0 {
		change := percentChange(today.Expenses, yesterday.Expenses)
		if change > e.thresholds.ExpenseRisePct {
			alerts = append(alerts, model.Alert{
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("Expenses rose %.1f%% compared to %s", change, yesterday.Date),
			})
		}
	}

	if today.Revenue > 0 && today.ProfitMargin < e.thresholds.MinMarginPct {
		alerts = append(alerts, model.Alert{
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("Profit margin is %.2f%%, below %g%%", today.ProfitMargin, e.thresholds.MinMarginPct),
		})
	}

	return alerts
}

// percentChange is computed in decimal so that a change landing exactly on
// a threshold does not cross it through float error.
func percentChange(current, previous float64) float64 {
	prev := decimal.NewFromFloat(previous)
	return decimal.NewFromFloat(current).Sub(prev).Div(prev).Mul(hundred).InexactFloat64()
}
