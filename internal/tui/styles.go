package tui

import "github.com/charmbracelet/lipgloss"

// Color constants.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorCyan   = lipgloss.Color("#06b6d4")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
	colorAlt    = lipgloss.Color("#0f172a")
)

// Connection styles, used for the header indicator and backend tiles.
var (
	StyleOnline     = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleOffline    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleConnecting = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleCard frames the "now playing" panel.
var StyleCard = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBlue).
	Padding(0, 2)

// StyleCardOff is StyleCard when the display is off.
var StyleCardOff = StyleCard.BorderForeground(colorRed)

// StyleTile renders one backend in the application strip.
var StyleTile = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// Text styles for the card.
var (
	StyleSource    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	StylePrimary   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSecondary = lipgloss.NewStyle().Foreground(colorGray)
)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// StateStyle returns the indicator style for a backend's online flag.
func StateStyle(online bool) lipgloss.Style {
	if online {
		return StyleOnline
	}
	return StyleOffline
}
