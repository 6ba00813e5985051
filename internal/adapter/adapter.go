package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/model"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// Adapter polls one kind of backend and turns its API responses into a
// StatusRecord. Fetch never returns an error: every failure is folded into
// the record's lines.
type Adapter interface {
	Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord
}

// Option customizes adapters built by For.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used for calendar windows, relative dates
// and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// For returns the adapter for id.
func For(id model.BackendID, opts ...Option) (Adapter, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch id {
	case model.SABnzbd:
		return &SABnzbd{now: o.now}, nil
	case model.NZBGet:
		return &NZBGet{now: o.now}, nil
	case model.Sonarr:
		return newArr(model.Sonarr, describeEpisode, o.now), nil
	case model.Radarr:
		return newArr(model.Radarr, describeMovie, o.now), nil
	case model.Lidarr:
		return newArr(model.Lidarr, describeAlbum, o.now), nil
	case model.Readarr:
		return newArr(model.Readarr, describeBook, o.now), nil
	case model.Bazarr:
		return &Bazarr{now: o.now}, nil
	case model.Overseerr:
		return &Overseerr{now: o.now}, nil
	default:
		return nil, fmt.Errorf("adapter for %q: %w", id, model.ErrUnknownBackend)
	}
}

// Probe issues the registry health-check call for cfg. A 200 or a 401 counts
// as reachable: the service answered even if the credentials are wrong.
func Probe(ctx context.Context, s *client.Session, cfg config.BackendConfig) (bool, error) {
	entry, ok := registry.Lookup(cfg.ID)
	if !ok {
		return false, fmt.Errorf("probe %q: %w", cfg.ID, model.ErrUnknownBackend)
	}
	resp, err := s.Do(ctx, client.Request{
		URL:    entry.HealthURL(cfg.BaseURL(), cfg.APIKey),
		Header: authHeader(cfg),
	})
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		return true, nil
	default:
		return false, &client.StatusError{Code: resp.StatusCode}
	}
}

// authHeader builds the API-key header the registry prescribes for cfg,
// plus basic credentials when configured.
func authHeader(cfg config.BackendConfig) http.Header {
	var h http.Header
	if entry, ok := registry.Lookup(cfg.ID); ok {
		h = entry.AuthHeader(cfg.APIKey)
	}
	return client.BasicAuth(h, cfg.Username, cfg.Password)
}

// endpoint joins the backend base URL, path and query.
func endpoint(cfg config.BackendConfig, path string, query url.Values) string {
	u := strings.TrimRight(cfg.BaseURL(), "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRecord starts an online record for id stamped at now.
func newRecord(id model.BackendID, now time.Time) model.StatusRecord {
	return model.StatusRecord{
		ID:        id,
		Online:    true,
		Title:     registry.DisplayName(id),
		UpdatedAt: now,
		Raw:       map[string]any{},
	}
}

// degrade marks rec offline after the primary call failed: an HTTP status
// becomes "API Error / HTTP <code>", anything else "Connection Error" with
// the capped error text.
func degrade(rec model.StatusRecord, err error) model.StatusRecord {
	rec.Online = false
	if se, ok := client.IsStatus(err); ok {
		rec.Primary = model.LineAPIError
		rec.Secondary = fmt.Sprintf("HTTP %d", se.Code)
		return rec
	}
	rec.Primary = model.LineConnectionError
	rec.Secondary = format.ErrorDetail(err)
	return rec
}

// etaSuffix wraps a non-empty ETA as " (eta)".
func etaSuffix(eta string) string {
	if eta == "" {
		return ""
	}
	return " (" + eta + ")"
}

// orDefault returns the first non-blank value, or def.
func orDefault(def string, values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return def
}
