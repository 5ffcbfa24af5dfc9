package styles

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// NewStyledTable creates a themed table model.
func NewStyledTable(theme *Theme, columns []table.Column, rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithWidth(width),
	)

	// Apply theme styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Foreground(theme.Accent).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(theme.Text).
		Background(theme.SurfaceVariant).
		Bold(true)
	s.Cell = s.Cell.
		Foreground(theme.Text)

	t.SetStyles(s)
	return t
}

// HistoryTableColumns returns columns for the playback history table.
func HistoryTableColumns() []table.Column {
	return []table.Column{
		{Title: "Title", Width: 34},
		{Title: "URI", Width: 30},
		{Title: "Plays", Width: 6},
		{Title: "Position", Width: 16},
		{Title: "Last Played", Width: 12},
	}
}

// FormatClock renders a duration in seconds as h:mm:ss or m:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return intToString(h) + ":" + pad2(m) + ":" + pad2(s)
	}
	return intToString(m) + ":" + pad2(s)
}

// FormatPosition renders a stored position against its duration,
// e.g. "12:34 / 45:06". Unknown durations collapse to the position.
func FormatPosition(position, duration float64) string {
	if position <= 0 && duration <= 0 {
		return "-"
	}
	if duration <= 0 {
		return FormatClock(position)
	}
	return FormatClock(position) + " / " + FormatClock(duration)
}

// FormatPlays formats a play counter for display.
func FormatPlays(n int) string {
	switch {
	case n >= 1000000:
		return formatFloat(float64(n)/1000000) + "M"
	case n >= 1000:
		return formatFloat(float64(n)/1000) + "K"
	default:
		return intToString(n)
	}
}

// formatFloat formats a float with one decimal.
func formatFloat(f float64) string {
	i := int(f * 10)
	whole := i / 10
	dec := i % 10
	if dec == 0 {
		return intToString(whole)
	}
	return intToString(whole) + "." + intToString(dec)
}

// pad2 renders n as two digits.
func pad2(n int) string {
	if n < 10 {
		return "0" + intToString(n)
	}
	return intToString(n)
}

// intToString converts int to string without fmt.
func intToString(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + intToString(-n)
	}

	digits := make([]byte, 0, 10)
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}

	// Reverse
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}
