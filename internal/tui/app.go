package tui

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/nzbinfo-go/internal/display"
	"github.com/dm/nzbinfo-go/internal/model"
)

type connState int

const (
	stateConnecting connState = iota
	stateConnected
	stateDisconnected
)

// Poller is the part of the aggregator the TUI drives.
type Poller interface {
	PollAll(ctx context.Context) bool
	Statuses() map[model.BackendID]model.StatusRecord
	Enabled() []model.BackendID
}

// App is the root Bubble Tea model for nzbinfo watch. It owns the
// current-source selector.
type App struct {
	poller       Poller
	pollInterval time.Duration
	now          func() time.Time

	// Poll state
	fetching bool // true while a pollCmd goroutine is in-flight
	polled   bool
	online   bool
	statuses map[model.BackendID]model.StatusRecord
	enabled  []model.BackendID

	// Selector: model.Overview or a backend id.
	selected model.BackendID

	// Connection state
	connState        connState
	consecutiveFails int
	lastUpdated      time.Time

	// Layout
	width, height int

	// UI state
	showHelp bool
}

// NewApp creates a new App polling p every interval.
func NewApp(p Poller, interval time.Duration) *App {
	app := &App{
		poller:       p,
		pollInterval: interval,
		now:          time.Now,
		selected:     model.Overview,
		connState:    stateConnecting,
		fetching:     true, // Init() always issues an immediate pollCmd
	}
	if p != nil {
		app.enabled = p.Enabled()
	}
	return app
}

// Init implements tea.Model. Starts the first poll immediately on launch.
func (app *App) Init() tea.Cmd {
	return pollCmd(app.poller, app.pollInterval)
}

// Update implements tea.Model. It is the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case PollResultMsg:
		app.fetching = false
		app.polled = true
		app.online = msg.Online
		app.statuses = msg.Statuses
		app.enabled = msg.Enabled
		app.lastUpdated = msg.At
		if !slices.Contains(app.sources(), app.selected) {
			app.selected = model.Overview
		}
		if msg.Online {
			app.consecutiveFails = 0
			app.connState = stateConnected
			return app, tickCmd(app.pollInterval)
		}
		app.consecutiveFails++
		app.connState = stateDisconnected
		return app, tickCmd(backoffDuration(app.consecutiveFails))

	case TickMsg:
		if app.fetching {
			return app, nil
		}
		app.fetching = true
		return app, pollCmd(app.poller, app.pollInterval)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Refresh):
			if app.fetching {
				return app, nil
			}
			app.fetching = true
			return app, pollCmd(app.poller, app.pollInterval)
		case key.Matches(msg, keys.Next):
			app.step(1)
		case key.Matches(msg, keys.Prev):
			app.step(-1)
		case key.Matches(msg, keys.Overview):
			app.selected = model.Overview
		case key.Matches(msg, keys.Jump):
			app.jump(msg.String())
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		}
	}

	return app, nil
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	parts := []string{
		renderHeader(app),
		renderNowPlaying(app),
	}
	if s := renderBackends(app); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// Selected returns the current selector value.
func (app *App) Selected() model.BackendID {
	return app.selected
}

// sources lists the selectable values: the overview, then each enabled backend.
func (app *App) sources() []model.BackendID {
	out := make([]model.BackendID, 0, len(app.enabled)+1)
	out = append(out, model.Overview)
	return append(out, app.enabled...)
}

// step moves the selector by delta positions, wrapping at both ends.
func (app *App) step(delta int) {
	src := app.sources()
	i := slices.Index(src, app.selected)
	if i < 0 {
		app.selected = model.Overview
		return
	}
	n := len(src)
	app.selected = src[((i+delta)%n+n)%n]
}

// jump selects the n-th enabled backend, 1-based.
func (app *App) jump(k string) {
	n, err := strconv.Atoi(k)
	if err != nil || n < 1 || n > len(app.enabled) {
		return
	}
	app.selected = app.enabled[n-1]
}

// view derives the display for the current selector.
func (app *App) view() display.View {
	if len(app.enabled) == 0 && app.selected == model.Overview {
		return display.View{
			State:     display.StateOn,
			Source:    display.NoSourcesSource,
			Title:     "No Applications",
			Primary:   "No apps configured",
			Secondary: "Add apps in setup",
		}
	}
	if !app.polled {
		return display.View{
			State:     display.StateOn,
			Source:    display.SourceName(app.selected),
			Title:     display.SourceName(app.selected),
			Primary:   model.LineWaitingForPoll,
			Secondary: model.LineNotConnected,
		}
	}
	return display.Render(app.selected, display.Snapshot{
		Statuses: app.statuses,
		Online:   app.online,
		Now:      app.now(),
	})
}

// tickCmd schedules the next poll after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// pollCmd is a Bubble Tea command that runs one aggregator cycle and returns
// a PollResultMsg.
func pollCmd(p Poller, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		timeout := interval - 500*time.Millisecond
		if timeout < 500*time.Millisecond {
			timeout = 500 * time.Millisecond
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		online := p.PollAll(ctx)
		return PollResultMsg{
			Online:   online,
			Statuses: p.Statuses(),
			Enabled:  p.Enabled(),
			At:       time.Now(),
		}
	}
}

// backoffDuration returns min(2^fails * time.Second, 60*time.Second).
// At fails=1: 2s, fails=2: 4s, fails=3: 8s, ..., fails>=6: 60s.
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}
