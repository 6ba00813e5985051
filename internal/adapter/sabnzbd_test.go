package adapter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dm/nzbinfo-go/internal/model"
)

func sabHandler(t *testing.T, queue, history string, historyStatus int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "sabkey", q.Get("apikey"))
		assert.Equal(t, "json", q.Get("output"))
		switch q.Get("mode") {
		case "queue":
			writeJSON(w, queue)
		case "history":
			assert.Equal(t, "2", q.Get("limit"))
			if historyStatus != http.StatusOK {
				w.WriteHeader(historyStatus)
				return
			}
			writeJSON(w, history)
		default:
			t.Errorf("unexpected mode %q", q.Get("mode"))
		}
	})
}

func TestSABnzbd_ActiveDownload(t *testing.T) {
	queue := `{"queue":{"speed":"5 MB/s","sizeleft":"300 MB","slots":[{"filename":"Show.S01E02.mkv"},{"filename":"Other.nzb"}]}}`
	history := `{"history":{"slots":[{"name":"/downloads/complete/Movie.2024.mkv"},{"name":"Album"}]}}`
	cfg := serve(t, model.SABnzbd, "sabkey", sabHandler(t, queue, history, http.StatusOK))

	rec := fetch(t, model.SABnzbd, cfg)
	assert.True(t, rec.Online)
	assert.Equal(t, "SABnzbd", rec.Title)
	assert.Equal(t, "Downloading: Show.S01E02.mkv @ 5 MB/s (1m)", rec.Primary)
	assert.Equal(t, "Recent: Movie.2024.mkv | Album", rec.Secondary)
	assert.Equal(t, 2, rec.Raw["queue_count"])
	assert.Equal(t, "5 MB/s", rec.Raw["speed"])
}

func TestSABnzbd_LongNameAndNoETA(t *testing.T) {
	queue := `{"queue":{"speed":"0 B/s","sizeleft":"1.2 GB","slots":[{"filename":"Some.Very.Long.Release.Name.2024.mkv"}]}}`
	cfg := serve(t, model.SABnzbd, "sabkey", sabHandler(t, queue, `{"history":{"slots":[]}}`, http.StatusOK))

	rec := fetch(t, model.SABnzbd, cfg)
	assert.Equal(t, "Downloading: Some.Very.Lon...mkv @ 0 B/s", rec.Primary)
	assert.Equal(t, "No recent activity", rec.Secondary)
}

func TestSABnzbd_QueueIdle(t *testing.T) {
	cfg := serve(t, model.SABnzbd, "sabkey", sabHandler(t, `{"queue":{"slots":[]}}`, `{"history":{"slots":[{"name":"x.nzb"}]}}`, http.StatusOK))

	rec := fetch(t, model.SABnzbd, cfg)
	assert.True(t, rec.Online)
	assert.Equal(t, "Queue idle", rec.Primary)
	assert.Equal(t, "Recent: x.nzb", rec.Secondary)
	assert.Equal(t, "0 B/s", rec.Raw["speed"])
}

func TestSABnzbd_HistoryFailureKeepsPrimary(t *testing.T) {
	queue := `{"queue":{"speed":"5 MB/s","sizeleft":"300 MB","slots":[{"filename":"Show.S01E02.mkv"}]}}`
	cfg := serve(t, model.SABnzbd, "sabkey", sabHandler(t, queue, "", http.StatusInternalServerError))

	rec := fetch(t, model.SABnzbd, cfg)
	assert.True(t, rec.Online)
	assert.Equal(t, "Downloading: Show.S01E02.mkv @ 5 MB/s (1m)", rec.Primary)
	assert.Equal(t, "No recent activity", rec.Secondary)
}

func TestSABnzbd_APIKeyRejected(t *testing.T) {
	cfg := serve(t, model.SABnzbd, "sabkey", sabHandler(t, `{"status":false,"error":"API Key Incorrect"}`, "", http.StatusOK))

	rec := fetch(t, model.SABnzbd, cfg)
	assert.False(t, rec.Online)
	assert.Equal(t, "API Error", rec.Primary)
	assert.Equal(t, "API Key Incorrect", rec.Secondary)
}
