// Package cli renders sync reports, dashboards and alerts for the terminal.
package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/sheetsync/internal/model"
)

// Palette.
var (
	SheetGreen = lipgloss.Color("#34A853")
	GainColor  = lipgloss.Color("#4ECDC4")
	AmberColor = lipgloss.Color("#FBBC04")
	LossColor  = lipgloss.Color("#EA4335")
	NoteColor  = lipgloss.Color("#8AB4F8")
	MutedColor = lipgloss.Color("#666666")
	FrameColor = lipgloss.Color("#3C4043")
)

var (
	// HeadingStyle renders box and section headings.
	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SheetGreen)

	SuccessStyle = lipgloss.NewStyle().Foreground(GainColor)
	WarningStyle = lipgloss.NewStyle().Foreground(AmberColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(LossColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(NoteColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(MutedColor)

	// PanelStyle frames the dashboard summary.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(FrameColor).
			Padding(1, 2)

	// LabelStyle pads the left column of key/value listings.
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(14)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	ChartIcon   = "📊"
	UpIcon      = "▲"
	DownIcon    = "▼"
	UnreadIcon  = "●"
	ReadIcon    = "○"
)

// SeverityStyle picks the color for an alert severity.
func SeverityStyle(s model.Severity) lipgloss.Style {
	if s == model.SeverityHigh {
		return ErrorStyle
	}
	return WarningStyle
}

func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// RenderPanel renders content under a heading inside a rounded border.
func RenderPanel(title, content string) string {
	return PanelStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		HeadingStyle.Render(title),
		content,
	))
}
