package model

import (
	"errors"
	"fmt"
	"strings"
)

// BackendID identifies one of the fixed set of monitored application kinds.
type BackendID string

const (
	SABnzbd   BackendID = "sabnzbd"
	NZBGet    BackendID = "nzbget"
	Sonarr    BackendID = "sonarr"
	Radarr    BackendID = "radarr"
	Lidarr    BackendID = "lidarr"
	Readarr   BackendID = "readarr"
	Bazarr    BackendID = "bazarr"
	Overseerr BackendID = "overseerr"
)

// Overview is the selector sentinel for the cross-backend summary view.
// It is never a valid BackendID.
const Overview BackendID = "overview"

// ErrUnknownBackend is returned by ParseBackendID for names outside the fixed set.
var ErrUnknownBackend = errors.New("unknown backend")

// AllBackends lists every backend kind in display order.
var AllBackends = []BackendID{
	SABnzbd,
	NZBGet,
	Sonarr,
	Radarr,
	Lidarr,
	Readarr,
	Bazarr,
	Overseerr,
}

// Valid reports whether id is one of the fixed backend kinds.
func (id BackendID) Valid() bool {
	for _, b := range AllBackends {
		if b == id {
			return true
		}
	}
	return false
}

func (id BackendID) String() string {
	return string(id)
}

// ParseBackendID parses a backend name case-insensitively.
func ParseBackendID(s string) (BackendID, error) {
	id := BackendID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
	return id, nil
}
