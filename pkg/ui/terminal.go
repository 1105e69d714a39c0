package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ruenh/tiktok-monitor/pkg/state"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#39FF14")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6700")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0B0B0"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			Underline(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	fmt.Println(successStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("✗ " + fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("⚠ " + fmt.Sprintf(format, args...)))
}

// PrintInfo prints an informational message
func PrintInfo(format string, args ...interface{}) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(format, args...)))
}

// PrintHighlight prints an emphasized message
func PrintHighlight(format string, args ...interface{}) {
	fmt.Println(highlightStyle.Render(fmt.Sprintf(format, args...)))
}

// StyleStatus renders a delivery status with its conventional color.
func StyleStatus(status state.DeliveryStatus) string {
	switch status {
	case state.StatusSent:
		return successStyle.Render(string(status))
	case state.StatusFailed:
		return errorStyle.Render(string(status))
	case state.StatusPending:
		return pendingStyle.Render(string(status))
	default:
		return string(status)
	}
}

// RenderHistory formats delivery records as an aligned table, most recent
// first as provided by the store.
func RenderHistory(records []state.DeliveryRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("no delivery records")
	}

	var b strings.Builder

	header := fmt.Sprintf("%-20s  %-16s  %-20s  %-8s  %s",
		"VIDEO ID", "AUTHOR", "PROCESSED AT", "STATUS", "ATTEMPTS")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, rec := range records {
		// Styled status is padded separately since ANSI codes break %-8s.
		statusPad := 8 - len(rec.Status)
		if statusPad < 0 {
			statusPad = 0
		}
		line := fmt.Sprintf("%-20s  %-16s  %-20s  %s%s  %d",
			truncate(rec.VideoID, 20),
			truncate(rec.Author, 16),
			rec.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
			StyleStatus(rec.Status),
			strings.Repeat(" ", statusPad),
			rec.RetryCount,
		)
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// RenderLastChecks formats per-author last-check times.
func RenderLastChecks(checks map[string]time.Time) string {
	if len(checks) == 0 {
		return dimStyle.Render("no authors checked yet")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s  %s", "AUTHOR", "LAST CHECK")))
	b.WriteString("\n")
	for author, t := range checks {
		b.WriteString(fmt.Sprintf("%-24s  %s\n", "@"+author, t.Local().Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
