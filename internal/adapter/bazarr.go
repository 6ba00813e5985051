package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/model"
)

// Bazarr probes authentication first: with a bad key Bazarr serves its web
// UI instead of JSON. Recent subtitles are pooled from episodes, then movies.
type Bazarr struct {
	now func() time.Time
}

func (a *Bazarr) Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord {
	rec := newRecord(model.Bazarr, a.now())
	header := authHeader(cfg)

	resp, err := s.Do(ctx, client.Request{Method: http.MethodGet, URL: endpoint(cfg, "/api/system/status", nil), Header: header})
	if err != nil {
		return degrade(rec, err)
	}
	if !resp.OK() {
		return degrade(rec, &client.StatusError{Code: resp.StatusCode})
	}
	if resp.ContentType() == "text/html" {
		// Reachable but unauthenticated: the record stays online.
		rec.Primary = model.LineAuthError
		rec.Secondary = model.LineCheckAPIKey
		return rec
	}

	recent := make([]string, 0, format.RecentCap)
	recent = a.collect(ctx, s, endpoint(cfg, "/api/episodes/history", url.Values{"length": {"3"}}), header, recent, func(it bazarrHistoryItem) string {
		return it.SeriesTitle
	})
	if len(recent) < format.RecentCap {
		recent = a.collect(ctx, s, endpoint(cfg, "/api/movies/history", url.Values{"length": {"3"}}), header, recent, func(it bazarrHistoryItem) string {
			return it.Title
		})
	}

	if len(recent) > 0 {
		rec.Primary = "Subtitle downloads active"
		rec.Secondary = format.FormatRecent(recent)
	} else {
		rec.Primary = "Subtitle manager idle"
		rec.Secondary = "No recent downloads"
	}
	rec.Raw["recent_count"] = len(recent)
	return rec
}

// collect appends "Title (language)" entries from one history resource until
// RecentCap entries are held. Failures leave dst unchanged.
func (a *Bazarr) collect(ctx context.Context, s *client.Session, u string, header http.Header, dst []string, title func(bazarrHistoryItem) string) []string {
	var h bazarrHistoryResponse
	if err := s.GetJSON(ctx, u, header, &h); err != nil {
		return dst
	}
	for _, it := range h.Data {
		if len(dst) >= format.RecentCap {
			break
		}
		name := orDefault(format.Unknown, title(it))
		if lang := languageName(it.Language); lang != "" {
			name = fmt.Sprintf("%s (%s)", name, lang)
		}
		dst = append(dst, name)
	}
	return dst
}
