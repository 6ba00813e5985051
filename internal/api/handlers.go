package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dm/nzbinfo-go/internal/display"
	"github.com/dm/nzbinfo-go/internal/log"
	"github.com/dm/nzbinfo-go/internal/model"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Connected bool              `json:"connected"`
	Enabled   []model.BackendID `json:"enabled"`
	Sources   []string          `json:"sources"`
	LastPoll  *time.Time        `json:"last_poll,omitempty"`
}

// RefreshResponse is returned by POST /api/v1/refresh.
type RefreshResponse struct {
	Online bool `json:"online"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// getHealth handles GET /api/v1/health.
func (s *Server) getHealth(c echo.Context) error {
	enabled := s.agg.Enabled()
	if enabled == nil {
		enabled = []model.BackendID{}
	}
	resp := HealthResponse{
		Connected: s.agg.IsConnected(),
		Enabled:   enabled,
		Sources:   display.Sources(enabled),
	}
	if lp := s.agg.LastPoll(); !lp.IsZero() {
		resp.LastPoll = &lp
	}
	return c.JSON(http.StatusOK, resp)
}

// getStatuses handles GET /api/v1/statuses.
func (s *Server) getStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, s.agg.Statuses())
}

// getStatus handles GET /api/v1/statuses/:id.
func (s *Server) getStatus(c echo.Context) error {
	id, err := model.ParseBackendID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	rec, ok := s.agg.Status(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no status for " + id.String()})
	}
	return c.JSON(http.StatusOK, rec)
}

// getView handles GET /api/v1/view?source=<overview|id|name>.
func (s *Server) getView(c echo.Context) error {
	sel, err := display.ParseSource(c.QueryParam("source"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	snap := display.Snapshot{
		Statuses: s.agg.Statuses(),
		Online:   s.agg.IsConnected(),
		Now:      s.now(),
	}
	return c.JSON(http.StatusOK, display.Render(sel, snap))
}

// postRefresh handles POST /api/v1/refresh by running one poll cycle.
func (s *Server) postRefresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), refreshTimeout)
	defer cancel()

	online := s.agg.PollAll(ctx)
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		log.Warn().Msg("Refresh request cancelled by client")
	}
	return c.JSON(http.StatusOK, RefreshResponse{Online: online})
}
