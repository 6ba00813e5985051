package adapter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/model"
)

// Overseerr summarizes the most recently added media requests.
type Overseerr struct {
	now func() time.Time
}

func (a *Overseerr) Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord {
	rec := newRecord(model.Overseerr, a.now())

	var resp overseerrRequestsResponse
	q := url.Values{"take": {"5"}, "sort": {"added"}}
	if err := s.GetJSON(ctx, endpoint(cfg, "/api/v1/request", q), authHeader(cfg), &resp); err != nil {
		return degrade(rec, err)
	}

	pending := 0
	for _, r := range resp.Results {
		if r.Status == overseerrPending {
			pending++
		}
	}
	if pending > 0 {
		rec.Primary = fmt.Sprintf("%d pending requests", pending)
	} else {
		rec.Primary = "No pending requests"
	}

	if len(resp.Results) == 0 {
		rec.Secondary = "No recent requests"
	} else {
		names := make([]string, 0, format.RecentCap)
		for _, r := range resp.Results {
			if len(names) == format.RecentCap {
				break
			}
			names = append(names, requestTitle(r))
		}
		rec.Secondary = format.FormatRecent(names)
	}

	rec.Raw["pending_count"] = pending
	return rec
}

func requestTitle(r overseerrRequest) string {
	if r.Type != "movie" {
		return orDefault(format.Unknown, r.Media.Name)
	}
	title := orDefault(format.Unknown, r.Media.Title)
	if year := r.Media.ReleaseDate; len(year) >= 4 {
		return fmt.Sprintf("%s (%s)", title, year[:4])
	}
	return title
}
