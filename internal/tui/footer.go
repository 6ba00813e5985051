package tui

import (
	"fmt"
	"slices"
)

// renderFooter renders the key binding help footer at full terminal width.
// When app.showHelp is true, shows all key bindings; otherwise a brief hint
// and the position of the selected source.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := helpText
	if !app.showHelp {
		src := app.sources()
		text = fmt.Sprintf("? for help  tab: next source  [%d/%d]", slices.Index(src, app.selected)+1, len(src))
	}
	return StyleDim.Width(width).Render(text)
}
