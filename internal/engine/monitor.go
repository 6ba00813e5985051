package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/log"
)

// Poller is the part of the Aggregator the monitoring loop drives.
type Poller interface {
	PollAll(ctx context.Context) bool
}

// Monitor runs poll cycles until its context is cancelled.
type Monitor struct {
	poller   Poller
	provider config.Provider

	// OnCycle, when set, is called after each completed cycle.
	OnCycle func(online bool)
}

// NewMonitor creates a loop polling p with intervals read from provider
// before every cycle, so config reloads take effect without a restart.
func NewMonitor(p Poller, provider config.Provider) *Monitor {
	return &Monitor{poller: p, provider: provider}
}

// Run polls, then waits poll_interval. A cycle that panics is logged and
// followed by error_backoff instead. Run returns only when ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cfg := m.provider.Config()
		wait := cfg.PollInterval
		if err := m.cycle(ctx); err != nil {
			log.Error().Err(err).Dur("backoff", cfg.ErrorBackoff).Msg("monitor cycle failed")
			wait = cfg.ErrorBackoff
		}
		if wait <= 0 {
			wait = config.DefaultPollInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (m *Monitor) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll cycle panicked: %v", r)
		}
	}()
	online := m.poller.PollAll(ctx)
	if m.OnCycle != nil {
		m.OnCycle(online)
	}
	return nil
}
