package tui

import (
	"time"

	"github.com/dm/nzbinfo-go/internal/model"
)

// PollResultMsg delivers the outcome of one aggregator poll to the TUI.
type PollResultMsg struct {
	Online   bool
	Statuses map[model.BackendID]model.StatusRecord
	Enabled  []model.BackendID
	At       time.Time
}

// TickMsg triggers the next scheduled poll.
type TickMsg time.Time
