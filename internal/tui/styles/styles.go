// Package styles provides shared lipgloss styles for command output.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette using ANSI colors for broad terminal compatibility.
var (
	Primary   = lipgloss.Color("4")   // Blue
	Secondary = lipgloss.Color("245") // Light gray (visible on dark backgrounds)
	Success   = lipgloss.Color("2")   // Green
	Warning   = lipgloss.Color("3")   // Yellow
	Error     = lipgloss.Color("1")   // Red
)

// Text styles.
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(Secondary)

	SuccessText = lipgloss.NewStyle().
			Foreground(Success)

	WarningText = lipgloss.NewStyle().
			Foreground(Warning)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Secondary).
			Italic(true)
)

// Status markers.
const (
	MarkOK      = "✓"
	MarkSkipped = "-"
	MarkFailed  = "✗"
)

// Row is one labelled line in a summary.
type Row struct {
	Label string
	Value string
}

// Summary renders a title followed by rows with their labels aligned.
func Summary(title string, rows []Row) string {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Label))
	}

	var b strings.Builder
	b.WriteString(Title.Render(title))
	b.WriteByte('\n')
	label := Label.Width(width + 1)
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(label.Render(r.Label + ":"))
		b.WriteByte(' ')
		b.WriteString(r.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// OK renders a success line.
func OK(msg string) string {
	return SuccessText.Render(MarkOK) + " " + msg
}

// Skipped renders a skipped line.
func Skipped(msg string) string {
	return MutedText.Render(MarkSkipped + " " + msg)
}

// Failed renders a failure line.
func Failed(msg string) string {
	return ErrorText.Render(MarkFailed) + " " + msg
}
