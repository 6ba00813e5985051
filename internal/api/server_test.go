package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dm/nzbinfo-go/internal/display"
	"github.com/dm/nzbinfo-go/internal/log"
	"github.com/dm/nzbinfo-go/internal/model"
)

// fakeAggregator serves fixed records and counts polls.
type fakeAggregator struct {
	mu        sync.Mutex
	statuses  map[model.BackendID]model.StatusRecord
	enabled   []model.BackendID
	connected bool
	lastPoll  time.Time
	polls     int
	panicPoll bool
}

func (f *fakeAggregator) PollAll(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicPoll {
		panic("poll exploded")
	}
	f.polls++
	f.connected = true
	return true
}

func (f *fakeAggregator) Status(id model.BackendID) (model.StatusRecord, bool) {
	rec, ok := f.statuses[id]
	return rec, ok
}

func (f *fakeAggregator) Statuses() map[model.BackendID]model.StatusRecord {
	out := make(map[model.BackendID]model.StatusRecord, len(f.statuses))
	for k, v := range f.statuses {
		out[k] = v
	}
	return out
}

func (f *fakeAggregator) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeAggregator) Enabled() []model.BackendID { return f.enabled }
func (f *fakeAggregator) LastPoll() time.Time        { return f.lastPoll }

type ServerTestSuite struct {
	suite.Suite
	agg    *fakeAggregator
	server *Server
	now    time.Time
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupSuite() {
	log.Discard()
}

func (s *ServerTestSuite) SetupTest() {
	s.now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.agg = &fakeAggregator{
		enabled:   []model.BackendID{model.SABnzbd, model.Radarr},
		connected: true,
		lastPoll:  s.now.Add(-5 * time.Second),
		statuses: map[model.BackendID]model.StatusRecord{
			model.SABnzbd: {
				ID: model.SABnzbd, Online: true, Title: "SABnzbd",
				Primary: "Downloading: Show.S01E01.mkv @ 5 MB/s", Secondary: "Recent: a.mkv",
				UpdatedAt: s.now.Add(-5 * time.Second),
			},
			model.Radarr: {
				ID: model.Radarr, Online: false, Title: "Radarr",
				Primary: model.LineConnectionError, Secondary: "connection refused",
				UpdatedAt: s.now.Add(-5 * time.Second),
			},
		},
	}
	s.server = NewServer(s.agg)
	s.server.now = func() time.Time { return s.now }
}

func (s *ServerTestSuite) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/v1/health")
	s.Equal(http.StatusOK, rec.Code)

	var resp HealthResponse
	s.decode(rec, &resp)
	s.True(resp.Connected)
	s.Equal([]model.BackendID{model.SABnzbd, model.Radarr}, resp.Enabled)
	s.Equal([]string{display.OverviewSource, "SABnzbd", "Radarr"}, resp.Sources)
	s.Require().NotNil(resp.LastPoll)
	s.True(resp.LastPoll.Equal(s.now.Add(-5 * time.Second)))
}

func (s *ServerTestSuite) TestHealthNothingEnabled() {
	s.agg.enabled = nil
	s.agg.lastPoll = time.Time{}

	rec := s.do(http.MethodGet, "/api/v1/health")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"enabled":[]`)
	s.NotContains(rec.Body.String(), "last_poll")
	s.Contains(rec.Body.String(), display.NoSourcesSource)
}

func (s *ServerTestSuite) TestStatuses() {
	rec := s.do(http.MethodGet, "/api/v1/statuses")
	s.Equal(http.StatusOK, rec.Code)

	var resp map[model.BackendID]model.StatusRecord
	s.decode(rec, &resp)
	s.Len(resp, 2)
	s.True(resp[model.SABnzbd].Online)
	s.Equal(model.LineConnectionError, resp[model.Radarr].Primary)
}

func (s *ServerTestSuite) TestStatusByID() {
	rec := s.do(http.MethodGet, "/api/v1/statuses/sabnzbd")
	s.Equal(http.StatusOK, rec.Code)

	var resp model.StatusRecord
	s.decode(rec, &resp)
	s.Equal(model.SABnzbd, resp.ID)
	s.Equal("Recent: a.mkv", resp.Secondary)
}

func (s *ServerTestSuite) TestStatusByIDCaseInsensitive() {
	rec := s.do(http.MethodGet, "/api/v1/statuses/Radarr")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestStatusUnknownID() {
	rec := s.do(http.MethodGet, "/api/v1/statuses/plex")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "unknown backend")
}

func (s *ServerTestSuite) TestStatusAbsent() {
	rec := s.do(http.MethodGet, "/api/v1/statuses/lidarr")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "lidarr")
}

func (s *ServerTestSuite) TestViewOverview() {
	for _, target := range []string{"/api/v1/view", "/api/v1/view?source=overview", "/api/v1/view?source=System+Overview"} {
		rec := s.do(http.MethodGet, target)
		s.Equal(http.StatusOK, rec.Code, target)

		var v display.View
		s.decode(rec, &v)
		s.Equal(display.StateOn, v.State, target)
		s.Equal("NZB Info Manager (1/2 online)", v.Title, target)
		s.Equal("SABnzbd: Downloading: Show.S01E01.mkv @ 5 MB/s", v.Primary, target)
		s.Equal("Last updated: 5 seconds ago", v.Secondary, target)
	}
}

func (s *ServerTestSuite) TestViewSingleBackend() {
	rec := s.do(http.MethodGet, "/api/v1/view?source=radarr")
	s.Equal(http.StatusOK, rec.Code)

	var v display.View
	s.decode(rec, &v)
	s.Equal("Radarr", v.Source)
	s.Equal(model.LineConnectionError, v.Primary)
	s.Equal("Check Radarr configuration", v.Secondary)
}

func (s *ServerTestSuite) TestViewDisconnected() {
	s.agg.connected = false

	rec := s.do(http.MethodGet, "/api/v1/view?source=sabnzbd")
	s.Equal(http.StatusOK, rec.Code)

	var v display.View
	s.decode(rec, &v)
	s.Equal(display.StateOff, v.State)
	s.Equal("Unable to reach applications", v.Primary)
}

func (s *ServerTestSuite) TestViewUnknownSource() {
	rec := s.do(http.MethodGet, "/api/v1/view?source=plex")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestRefresh() {
	rec := s.do(http.MethodPost, "/api/v1/refresh")
	s.Equal(http.StatusOK, rec.Code)

	var resp RefreshResponse
	s.decode(rec, &resp)
	s.True(resp.Online)
	s.Equal(1, s.agg.polls)
}

func (s *ServerTestSuite) TestRefreshWrongMethod() {
	rec := s.do(http.MethodGet, "/api/v1/refresh")
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *ServerTestSuite) TestRecoverFromPanic() {
	s.agg.panicPoll = true
	rec := s.do(http.MethodPost, "/api/v1/refresh")
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func TestServeAndShutdown(t *testing.T) {
	log.Discard()
	agg := &fakeAggregator{connected: true}
	srv := NewServer(agg)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	url := "http://" + l.Addr().String() + "/api/v1/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, srv.Shutdown())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
