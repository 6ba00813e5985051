package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/model"
)

const bytesPerMB = 1024 * 1024

// NZBGet talks JSON-RPC over POST /jsonrpc, optionally with basic auth.
type NZBGet struct {
	now func() time.Time
}

func (a *NZBGet) Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord {
	rec := newRecord(model.NZBGet, a.now())
	rpcURL := endpoint(cfg, "/jsonrpc", nil)
	header := authHeader(cfg)

	var st nzbStatusResponse
	if err := s.PostJSON(ctx, rpcURL, header, rpcRequest{Method: "status", Params: []any{}, ID: 1}, &st); err != nil {
		return degrade(rec, err)
	}
	if st.Error != nil {
		rec.Online = false
		rec.Primary = model.LineAPIError
		rec.Secondary = format.ErrorDetail(st.Error)
		return rec
	}

	rate := st.Result.DownloadRate
	remaining := st.Result.RemainingSizeMB
	if rate > 0 {
		speedMB := rate / bytesPerMB
		eta := ""
		if remaining > 0 {
			eta = format.FormatETA(remaining / speedMB / 60)
		}
		rec.Primary = fmt.Sprintf("Downloading @ %.1f MB/s%s", speedMB, etaSuffix(eta))
	} else {
		rec.Primary = "Queue idle"
	}

	rec.Secondary = format.NoRecentActivity
	var h nzbHistoryResponse
	err := s.PostJSON(ctx, rpcURL, header, rpcRequest{Method: "history", Params: []any{}, ID: 2}, &h)
	if err == nil && h.Error == nil {
		names := make([]string, 0, format.RecentCap)
		for _, item := range h.Result {
			if len(names) == format.RecentCap {
				break
			}
			names = append(names, orDefault(format.Unknown, item.Name))
		}
		rec.Secondary = format.FormatRecent(names)
	}

	rec.Raw["download_rate"] = rate
	rec.Raw["remaining_mb"] = remaining
	return rec
}
