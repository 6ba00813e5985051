package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dm/nzbinfo-go/internal/log"
	"github.com/dm/nzbinfo-go/internal/model"
)

const (
	shutdownTimeout = 10 * time.Second
	refreshTimeout  = 30 * time.Second
)

// Aggregator is the read side of the status aggregator plus on-demand polls.
type Aggregator interface {
	PollAll(ctx context.Context) bool
	Status(id model.BackendID) (model.StatusRecord, bool)
	Statuses() map[model.BackendID]model.StatusRecord
	IsConnected() bool
	Enabled() []model.BackendID
	LastPoll() time.Time
}

// Server exposes the aggregated status over HTTP.
type Server struct {
	echo *echo.Echo
	agg  Aggregator
	now  func() time.Time
}

// NewServer builds a server with its routes registered.
func NewServer(agg Aggregator) *Server {
	s := &Server{
		echo: echo.New(),
		agg:  agg,
		now:  time.Now,
	}
	s.setupRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and serves until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting status server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve is Start on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.echo.Listener = l
	return s.Start(l.Addr().String())
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down status server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Status server shutdown failed")
		return err
	}
	log.Info().Msg("Status server stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().
				Int("status", v.Status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	g := s.echo.Group("/api/v1")
	g.GET("/health", s.getHealth)
	g.GET("/statuses", s.getStatuses)
	g.GET("/statuses/:id", s.getStatus)
	g.GET("/view", s.getView)
	g.POST("/refresh", s.postRefresh)
}
