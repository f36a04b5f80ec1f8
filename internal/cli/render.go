package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/sheetsync/internal/engine"
	"github.com/Veraticus/sheetsync/internal/model"
)

// FormatMoney renders an amount in đồng with dot thousands separators,
// e.g. 1.250.000 ₫.
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	digits := d.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " ₫"
}

// FormatChange renders a day-over-day percentage with a direction marker.
func FormatChange(pct float64) string {
	text := fmt.Sprintf("%.2f%%", pct)
	switch {
	case pct > 0:
		return SuccessStyle.Render(UpIcon + " " + text)
	case pct < 0:
		return ErrorStyle.Render(DownIcon + " " + text)
	default:
		return SubtleStyle.Render(text)
	}
}

func line(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

// RenderSummary renders the dashboard headline in a box.
func RenderSummary(s model.Summary) string {
	if s.Today.Date == "" {
		return RenderPanel(ChartIcon+" Summary", SubtleStyle.Render("No metrics yet. Run a sync first."))
	}

	lines := []string{
		line("Revenue", FormatMoney(s.Today.Revenue)+"  "+FormatChange(s.Changes.Revenue)),
		line("Expenses", FormatMoney(s.Today.Expenses)+"  "+FormatChange(s.Changes.Expenses)),
		line("Profit", FormatMoney(s.Today.Profit)+"  "+FormatChange(s.Changes.Profit)),
		line("Margin", fmt.Sprintf("%.2f%%", s.Today.ProfitMargin)),
	}
	return RenderPanel(ChartIcon+" Summary for "+s.Today.Date, strings.Join(lines, "\n"))
}

// RenderSyncReport describes what a sync stored, recomputed and raised.
func RenderSyncReport(r *engine.SyncReport) string {
	var b strings.Builder

	for _, tab := range r.Tabs {
		kind := string(tab.Kind)
		if tab.Type != "" {
			kind = string(tab.Type)
		}
		b.WriteString(line(tab.Name, fmt.Sprintf("%s, %d rows", kind, tab.Rows)))
		b.WriteByte('\n')
	}
	for _, t := range r.Types {
		if t.Error != "" {
			b.WriteString(FormatError(fmt.Sprintf("%s: %s", t.Type, t.Error)))
		} else {
			b.WriteString(FormatSuccess(fmt.Sprintf("%s: %d stored", t.Type, t.Stored)))
		}
		b.WriteByte('\n')
	}
	for _, c := range r.Custom {
		if c.Error != "" {
			b.WriteString(FormatError(fmt.Sprintf("%s: %s", c.Tab, c.Error)))
		} else {
			b.WriteString(FormatSuccess(fmt.Sprintf("%s: %d stored", c.Tab, c.Stored)))
		}
		b.WriteByte('\n')
	}
	for _, d := range r.Dates {
		if d.Error != "" {
			b.WriteString(FormatError(fmt.Sprintf("%s: %s", d.Date, d.Error)))
			b.WriteByte('\n')
		}
		for _, a := range d.Alerts {
			b.WriteString(SeverityStyle(a.Severity).Render(fmt.Sprintf("%s %s [%s] %s", WarningIcon, d.Date, a.Severity, a.Message)))
			b.WriteByte('\n')
		}
	}

	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d records, %d dates recalculated, %d alerts in %s",
		r.Stored(), len(r.DatesRecalculated()), r.AlertCount(), r.Duration.Round(time.Millisecond))))
	return b.String()
}

// RenderAlerts lists alerts newest first.
func RenderAlerts(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return SubtleStyle.Render("No alerts.")
	}

	var b strings.Builder
	for _, a := range alerts {
		marker := UnreadIcon
		if a.IsRead {
			marker = ReadIcon
		}
		fmt.Fprintf(&b, "%s %s %s\n", marker, SeverityStyle(a.Severity).Render(fmt.Sprintf("%-6s", a.Severity)), a.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderTokens lists sync tokens.
func RenderTokens(tokens []model.SyncToken) string {
	if len(tokens) == 0 {
		return SubtleStyle.Render("No sync tokens.")
	}

	var b strings.Builder
	for _, t := range tokens {
		last := "never"
		if t.LastSyncAt != nil {
			last = t.LastSyncAt.Format(time.RFC3339)
		}
		state := SuccessStyle.Render("active")
		if !t.IsActive {
			state = SubtleStyle.Render("inactive")
		}
		fmt.Fprintf(&b, "%-4d %-20s %s  %s  last sync %s\n", t.ID, t.Label, t.Token, state, last)
	}
	return strings.TrimRight(b.String(), "\n")
}
