package model

import "time"

// DailyMetrics is the derived financial summary for one user and date.
type DailyMetrics struct {
	UserID       string  `json:"userId,omitempty"`
	Date         string  `json:"date"`
	Revenue      float64 `json:"revenue"`
	Expenses     float64 `json:"expenses"`
	Profit       float64 `json:"profit"`
	ProfitMargin float64 `json:"profitMargin"`
}

// MetricChanges holds day-over-day percentage changes.
type MetricChanges struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// Summary is the dashboard headline: the latest day and its change against
// the day before it.
type Summary struct {
	Today   DailyMetrics  `json:"today"`
	Changes MetricChanges `json:"changes"`
}

// Severity ranks an alert.
type Severity string

// Alert severities.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Alert is a notification raised when a day's metrics cross a threshold.
type Alert struct {
	CreatedAt time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
	Date      string    `json:"date"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	ID        int64     `json:"id,omitempty"`
	IsRead    bool      `json:"isRead"`
}
