package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dm/nzbinfo-go/internal/model"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// Source names offered to consumers.
const (
	OverviewSource   = "System Overview"
	NoSourcesSource  = "No Applications Configured"
	overviewTitleFmt = "NZB Info Manager (%d/%d online)"
)

// overviewPriority is the order in which backends may claim the overview's
// activity line.
var overviewPriority = []model.BackendID{
	model.SABnzbd, model.NZBGet, model.Sonarr, model.Radarr, model.Lidarr, model.Readarr,
}

// State is the power state shown by a display.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

// View is the derived three-line picture for one selector value.
type View struct {
	State     State  `json:"state"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Snapshot is the aggregator state a view is rendered from.
type Snapshot struct {
	Statuses map[model.BackendID]model.StatusRecord
	// Online is the result of the last poll.
	Online bool
	Now    time.Time
}

// Sources lists the selectable sources: the overview followed by the
// enabled backends' display names.
func Sources(enabled []model.BackendID) []string {
	if len(enabled) == 0 {
		return []string{NoSourcesSource}
	}
	out := make([]string, 0, len(enabled)+1)
	out = append(out, OverviewSource)
	for _, id := range enabled {
		out = append(out, registry.DisplayName(id))
	}
	return out
}

// ParseSource maps "overview", a backend id or a display name (any case) to
// a selector value.
func ParseSource(s string) (model.BackendID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(model.Overview)) || strings.EqualFold(s, OverviewSource) {
		return model.Overview, nil
	}
	for _, e := range registry.All() {
		if strings.EqualFold(s, e.Name) {
			return e.ID, nil
		}
	}
	return model.ParseBackendID(s)
}

// SourceName is the display name of a selector value.
func SourceName(sel model.BackendID) string {
	if sel == model.Overview {
		return OverviewSource
	}
	return registry.DisplayName(sel)
}

// Render derives the view for sel.
func Render(sel model.BackendID, snap Snapshot) View {
	v := View{State: StateOn, Source: SourceName(sel)}
	if !snap.Online {
		v.State = StateOff
		v.Title = "Connection Error"
		v.Primary = "Unable to reach applications"
		v.Secondary = "Check configuration"
		return v
	}
	if sel == model.Overview {
		return renderOverview(v, snap)
	}
	return renderBackend(v, sel, snap)
}

func renderOverview(v View, snap Snapshot) View {
	if len(snap.Statuses) == 0 {
		v.Title = "No Applications"
		v.Primary = "No apps configured"
		v.Secondary = "Add apps in setup"
		return v
	}

	online := 0
	var newest time.Time
	for _, rec := range snap.Statuses {
		if rec.Online {
			online++
		}
		if rec.UpdatedAt.After(newest) {
			newest = rec.UpdatedAt
		}
	}

	v.Title = fmt.Sprintf(overviewTitleFmt, online, len(snap.Statuses))
	v.Primary = "All applications monitored"
	for _, id := range overviewPriority {
		rec, ok := snap.Statuses[id]
		if ok && rec.Online && isActive(rec.Primary) {
			v.Primary = rec.Title + ": " + rec.Primary
			break
		}
	}
	v.Secondary = "Last updated: " + lastUpdated(newest, snap.Now)
	return v
}

// isActive reports a primary line that describes ongoing work.
func isActive(primary string) bool {
	p := strings.ToLower(primary)
	if strings.Contains(p, "downloading") {
		return true
	}
	return strings.Contains(p, "queue") && !strings.Contains(p, "idle")
}

func lastUpdated(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.Sub(at) < time.Second {
		return "just now"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

func renderBackend(v View, sel model.BackendID, snap Snapshot) View {
	if _, ok := registry.Lookup(sel); !ok {
		v.Title = string(sel)
		v.Primary = "Application not found"
		v.Secondary = "Check configuration"
		return v
	}
	v.Title = registry.DisplayName(sel)

	rec, ok := snap.Statuses[sel]
	if !ok {
		v.Primary = "Status unavailable"
		v.Secondary = "Application not configured"
		return v
	}
	if !rec.Online {
		v.Primary = model.LineConnectionError
		v.Secondary = fmt.Sprintf("Check %s configuration", rec.Title)
		return v
	}
	v.Primary = rec.Primary
	v.Secondary = rec.Secondary
	return v
}
