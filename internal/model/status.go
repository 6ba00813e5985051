package model

import "time"

// Default display lines for a record that has not been polled yet.
const (
	LineOffline      = "Offline"
	LineNotConnected = "Not connected"
)

// Lines shown when a backend cannot report its status.
const (
	LineConnectionError = "Connection Error"
	LineAPIError        = "API Error"
	LineAuthError       = "Authentication Error"
	LineCheckAPIKey     = "Check API key configuration"
	LineNotConfigured   = "Not configured"
	LineMissingConfig   = "Missing configuration"
	LineInternalError   = "Internal Error"
)

// Lines set by a successful connectivity probe.
const (
	LineConnected      = "Connected"
	LineWaitingForPoll = "Waiting for first update"
)

// StatusRecord is the normalized two-line display result for one backend at
// one point in time. Primary and Secondary are never empty.
type StatusRecord struct {
	ID        BackendID      `json:"id"`
	Online    bool           `json:"online"`
	Title     string         `json:"title"`
	Primary   string         `json:"primary"`
	Secondary string         `json:"secondary"`
	UpdatedAt time.Time      `json:"updated_at"`
	Raw       map[string]any `json:"raw,omitempty"`
}

// NewStatusRecord returns the initial offline record for a freshly enabled backend.
func NewStatusRecord(id BackendID, title string) StatusRecord {
	return StatusRecord{
		ID:        id,
		Title:     title,
		Primary:   LineOffline,
		Secondary: LineNotConnected,
		UpdatedAt: time.Now(),
	}
}
