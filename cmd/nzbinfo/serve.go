package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dm/nzbinfo-go/internal/api"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/engine"
	"github.com/dm/nzbinfo-go/internal/log"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring loop and the JSON status endpoint",
		Long: `Probes every enabled application once, then polls them every
poll_interval and serves the aggregated status under /api/v1 until
interrupted. The config file is watched and reloads take effect on the next
cycle.`,
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	cmd.Flags().String("listen", config.DefaultListen, "address for the status endpoint")
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	if err := c.setupLogging(false); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := c.loader.Config()
	for _, ve := range cfg.Validate() {
		log.Warn().Str("field", ve.Field).Str("hint", ve.Suggestion).Msg(ve.Message)
	}

	session := newSession(cfg)
	defer session.Close()

	agg := engine.NewAggregator(c.loader, session)
	c.loader.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("Config reload failed, keeping previous config")
			return
		}
		log.Info().Strs("enabled", cfg.Enabled).Msg("Config reloaded")
	})

	if !agg.Connect(ctx) {
		log.Warn().Msg("No application reachable at startup, polling anyway")
	}

	server := api.NewServer(agg)
	monitor := engine.NewMonitor(agg, c.loader)
	monitor.OnCycle = func(online bool) {
		log.Debug().Bool("online", online).Msg("Poll cycle finished")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := monitor.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return server.Start(cfg.Listen)
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown()
	})

	err := g.Wait()
	log.Info().Msg("Shutdown complete")
	return err
}
