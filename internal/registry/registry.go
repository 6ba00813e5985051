package registry

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dm/nzbinfo-go/internal/model"
)

// AuthScheme describes how a backend expects its API key.
type AuthScheme int

const (
	AuthNone AuthScheme = iota
	AuthQueryKey
	AuthHeaderKey
)

// Entry is the static description of one backend kind.
type Entry struct {
	ID          model.BackendID
	Name        string
	DefaultPort int
	HealthPath  string
	Auth        AuthScheme
	AuthParam   string // query parameter or header name, depending on Auth
	APIVersion  string
}

var entries = []Entry{
	{ID: model.SABnzbd, Name: "SABnzbd", DefaultPort: 8080, HealthPath: "/api?mode=version", Auth: AuthQueryKey, AuthParam: "apikey"},
	{ID: model.NZBGet, Name: "NZBget", DefaultPort: 6789, HealthPath: "/jsonrpc", Auth: AuthNone},
	{ID: model.Sonarr, Name: "Sonarr", DefaultPort: 8989, HealthPath: "/api/v3/system/status", Auth: AuthHeaderKey, AuthParam: "X-Api-Key", APIVersion: "v3"},
	{ID: model.Radarr, Name: "Radarr", DefaultPort: 7878, HealthPath: "/api/v3/system/status", Auth: AuthHeaderKey, AuthParam: "X-Api-Key", APIVersion: "v3"},
	{ID: model.Lidarr, Name: "Lidarr", DefaultPort: 8686, HealthPath: "/api/v1/system/status", Auth: AuthHeaderKey, AuthParam: "X-Api-Key", APIVersion: "v1"},
	{ID: model.Readarr, Name: "Readarr", DefaultPort: 8787, HealthPath: "/api/v1/system/status", Auth: AuthHeaderKey, AuthParam: "X-Api-Key", APIVersion: "v1"},
	{ID: model.Bazarr, Name: "Bazarr", DefaultPort: 6767, HealthPath: "/api/system/status", Auth: AuthHeaderKey, AuthParam: "X-API-KEY"},
	{ID: model.Overseerr, Name: "Overseerr", DefaultPort: 5055, HealthPath: "/api/v1/status", Auth: AuthHeaderKey, AuthParam: "X-Api-Key", APIVersion: "v1"},
}

// Lookup returns the registry entry for id.
func Lookup(id model.BackendID) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns a copy of every entry in display order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// DisplayName returns the human-readable name for id, or the raw id if unknown.
func DisplayName(id model.BackendID) string {
	if e, ok := Lookup(id); ok {
		return e.Name
	}
	return string(id)
}

// HealthURL joins base and the health path, appending the API key as a query
// parameter for query-key backends.
func (e Entry) HealthURL(base, apiKey string) string {
	u := strings.TrimRight(base, "/") + e.HealthPath
	if e.Auth != AuthQueryKey || apiKey == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + e.AuthParam + "=" + url.QueryEscape(apiKey)
}

// AuthHeader returns the API-key header for header-key backends, nil otherwise.
func (e Entry) AuthHeader(apiKey string) http.Header {
	if e.Auth != AuthHeaderKey || apiKey == "" {
		return nil
	}
	h := make(http.Header)
	// Set canonicalizes the name; the wire is case-insensitive either way.
	h.Set(e.AuthParam, apiKey)
	return h
}
