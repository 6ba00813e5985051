package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/model"
)

const sabNameLen = 20

// SABnzbd reads the queue and history through the mode= API with the key in
// the query string.
type SABnzbd struct {
	now func() time.Time
}

func (a *SABnzbd) Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord {
	rec := newRecord(model.SABnzbd, a.now())

	var q sabQueueResponse
	if err := s.GetJSON(ctx, sabURL(cfg, "queue", nil), nil, &q); err != nil {
		return degrade(rec, err)
	}
	if q.Error != "" {
		rec.Online = false
		rec.Primary = model.LineAPIError
		rec.Secondary = format.ErrorDetail(errors.New(q.Error))
		return rec
	}

	speed := orDefault("0 B/s", q.Queue.Speed)
	sizeLeft := orDefault("0 B", q.Queue.SizeLeft)
	if len(q.Queue.Slots) > 0 {
		name := format.SmartTruncate(orDefault(format.Unknown, q.Queue.Slots[0].Filename), sabNameLen)
		eta := format.ComputeETA(sizeLeft, speed)
		rec.Primary = fmt.Sprintf("Downloading: %s @ %s%s", name, speed, etaSuffix(eta))
	} else {
		rec.Primary = "Queue idle"
	}

	rec.Secondary = format.NoRecentActivity
	var h sabHistoryResponse
	if err := s.GetJSON(ctx, sabURL(cfg, "history", url.Values{"limit": {"2"}}), nil, &h); err == nil {
		names := make([]string, 0, len(h.History.Slots))
		for _, slot := range h.History.Slots {
			names = append(names, orDefault(format.Unknown, slot.Name))
		}
		rec.Secondary = format.FormatRecent(names)
	}

	rec.Raw["queue_count"] = len(q.Queue.Slots)
	rec.Raw["speed"] = speed
	return rec
}

func sabURL(cfg config.BackendConfig, mode string, extra url.Values) string {
	q := url.Values{"mode": {mode}, "output": {"json"}}
	if cfg.APIKey != "" {
		q.Set("apikey", cfg.APIKey)
	}
	for k, v := range extra {
		q[k] = v
	}
	return endpoint(cfg, "/api", q)
}
