package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/metrics"
)

// LoadAlertThresholds reads alerts.revenue_drop_pct, alerts.expense_rise_pct
// and alerts.min_margin_pct, falling back to the built-in thresholds.
func LoadAlertThresholds() (metrics.Thresholds, error) {
	t := metrics.DefaultThresholds()

	fields := []struct {
		dst *float64
		key string
	}{
		{&t.RevenueDropPct, "alerts.revenue_drop_pct"},
		{&t.ExpenseRisePct, "alerts.expense_rise_pct"},
		{&t.MinMarginPct, "alerts.min_margin_pct"},
	}

	for _, f := range fields {
		if !viper.IsSet(f.key) {
			continue
		}
		v := viper.GetFloat64(f.key)
		if v < 0 {
			return metrics.Thresholds{}, fmt.Errorf("%w: %s cannot be negative", common.ErrInvalidConfig, f.key)
		}
		*f.dst = v
	}

	return t, nil
}
