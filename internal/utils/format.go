// Package utils holds small formatting helpers shared by log and Slack output.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders a processing time for logs: "45ms", "1.5s", "2m 30s", "1h 15m"
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return joinUnits(int(d.Minutes()), "m", int(d.Seconds())%60, "s")
	default:
		return joinUnits(int(d.Hours()), "h", int(d.Minutes())%60, "m")
	}
}

func joinUnits(major int, majorUnit string, minor int, minorUnit string) string {
	if minor == 0 {
		return fmt.Sprintf("%d%s", major, majorUnit)
	}
	return fmt.Sprintf("%d%s %d%s", major, majorUnit, minor, minorUnit)
}

// TruncateText flattens text onto one line and cuts it to at most maxLen
// runes, marking the cut with "...".
func TruncateText(text string, maxLen int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
