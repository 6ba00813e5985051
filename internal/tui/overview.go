package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/nzbinfo-go/internal/display"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// renderNowPlaying renders the "now playing" card for the selected source:
// source name, title, primary line and secondary line.
func renderNowPlaying(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	// Border (2) + horizontal padding (4).
	inner := width - 6
	if inner < 10 {
		inner = 10
	}

	v := app.view()
	fit := func(s string) string {
		return format.SmartTruncate(sanitize(s), inner)
	}

	lines := []string{
		StyleSource.Render(fit(v.Source)),
		StyleTitle.Render(fit(v.Title)),
		StylePrimary.Render(fit(v.Primary)),
		StyleSecondary.Render(fit(v.Secondary)),
	}

	style := StyleCard
	if v.State == display.StateOff {
		style = StyleCardOff
		lines[1] = StyleError.Render(fit(v.Title))
	}
	return style.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderBackends renders one tile per enabled backend, highlighting the
// selected one. Wide terminals (>= 80 cols) use a single row; narrow ones
// stack tiles in rows of 2. Returns "" when nothing is enabled.
func renderBackends(app *App) string {
	if len(app.enabled) == 0 {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	perRow := len(app.enabled)
	if width < 80 {
		perRow = 2
	}
	tileWidth := width / perRow
	if tileWidth < 10 {
		tileWidth = 10
	}

	tiles := make([]string, 0, len(app.enabled))
	for i, id := range app.enabled {
		rec, polled := app.statuses[id]

		dot := StyleDim.Render("○")
		if polled {
			dot = StateStyle(rec.Online).Render("●")
		}

		label := format.SmartTruncate(registry.DisplayName(id), tileWidth-6)
		hint := StyleDim.Render(string(rune('1' + i)))

		style := StyleTile.Width(tileWidth)
		if id == app.selected {
			style = style.Background(colorBlue).Bold(true)
		}
		tiles = append(tiles, style.Render(hint+" "+dot+" "+label))
	}

	var rows []string
	for start := 0; start < len(tiles); start += perRow {
		end := min(start+perRow, len(tiles))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, tiles[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
