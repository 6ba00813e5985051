package adapter

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/model"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newSession(t *testing.T) *client.Session {
	t.Helper()
	s := client.NewSession(client.Options{Timeout: 2 * time.Second})
	t.Cleanup(s.Close)
	return s
}

// serve starts a fake backend and returns a config pointing at it.
func serve(t *testing.T, id model.BackendID, apiKey string, h http.Handler) config.BackendConfig {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backendAt(t, id, srv.URL, apiKey)
}

func backendAt(t *testing.T, id model.BackendID, rawURL, apiKey string) config.BackendConfig {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return config.BackendConfig{ID: id, Host: host, Port: port, APIKey: apiKey}
}

// deadBackend returns a config for a port nothing listens on.
func deadBackend(t *testing.T, id model.BackendID) config.BackendConfig {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return backendAt(t, id, "http://"+addr, "secret-key")
}

func fetch(t *testing.T, id model.BackendID, cfg config.BackendConfig) model.StatusRecord {
	t.Helper()
	a, err := For(id, WithClock(fixedClock))
	require.NoError(t, err)
	return a.Fetch(context.Background(), newSession(t), cfg)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
