package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/dm/nzbinfo-go/internal/display"
)

// renderHeader renders the top header bar.
//
// Layout:
//
//	left:   "nzbinfo" and the selected source
//	center: "● ONLINE", "● OFFLINE" or "● CONNECTING"
//	right:  "Last: HH:MM:SS  Poll: Ns" (or "Press r to retry" when offline)
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "nzbinfo · " + display.SourceName(app.selected)

	var center, right string
	switch app.connState {
	case stateConnecting:
		center = StyleConnecting.Render("● CONNECTING")
		right = StyleDim.Render("Poll: " + formatDuration(app.pollInterval))
	case stateDisconnected:
		center = StyleOffline.Render("● OFFLINE")
		right = StyleError.Render("Press r to retry")
	default:
		center = StyleOnline.Render(fmt.Sprintf("● ONLINE %d/%d", app.onlineCount(), len(app.statuses)))
		lastStr := "--"
		if !app.lastUpdated.IsZero() {
			lastStr = app.lastUpdated.Format("15:04:05")
		}
		right = StyleDim.Render(fmt.Sprintf("Last: %s  Poll: %s", lastStr, formatDuration(app.pollInterval)))
	}

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		// Too narrow: drop the left label first, then truncate what remains.
		left, leftVW = "", 0
		spacing = innerWidth - centerVW - rightVW
	}
	leftSpacing := 0
	rightSpacing := 0
	if spacing > 0 {
		leftSpacing = spacing / 2
		rightSpacing = spacing - leftSpacing
	}

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right
	row = ansi.Truncate(row, innerWidth, "")

	return StyleHeader.Width(width).MaxHeight(1).Render(row)
}

func (app *App) onlineCount() int {
	n := 0
	for _, rec := range app.statuses {
		if rec.Online {
			n++
		}
	}
	return n
}

// formatDuration formats a poll interval as a compact string, e.g. "10s" or "2m".
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// sanitize strips terminal escape sequences and control characters from
// text reported by remote applications.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}
