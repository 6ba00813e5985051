package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dm/nzbinfo-go/internal/adapter"
	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/format"
	"github.com/dm/nzbinfo-go/internal/log"
	"github.com/dm/nzbinfo-go/internal/model"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// Resolver returns the adapter for a backend kind.
type Resolver func(id model.BackendID) (adapter.Adapter, error)

// ProbeFunc checks whether a backend is reachable.
type ProbeFunc func(ctx context.Context, s *client.Session, cfg config.BackendConfig) (bool, error)

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithResolver replaces adapter.For.
func WithResolver(r Resolver) Option {
	return func(a *Aggregator) { a.resolve = r }
}

// WithProbe replaces adapter.Probe.
func WithProbe(p ProbeFunc) Option {
	return func(a *Aggregator) { a.probe = p }
}

// Aggregator owns the backend→record map. Polls fan out one goroutine per
// enabled backend; results are merged only after every goroutine returns.
type Aggregator struct {
	provider config.Provider
	session  *client.Session
	resolve  Resolver
	probe    ProbeFunc

	pollMu sync.Mutex // serializes PollAll and Connect

	mu        sync.RWMutex
	statuses  map[model.BackendID]model.StatusRecord
	connected bool
	lastPoll  time.Time
}

// NewAggregator creates an aggregator reading the enabled set from p and
// issuing requests over s.
func NewAggregator(p config.Provider, s *client.Session, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider: p,
		session:  s,
		resolve:  func(id model.BackendID) (adapter.Adapter, error) { return adapter.For(id) },
		probe:    adapter.Probe,
		statuses: make(map[model.BackendID]model.StatusRecord),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PollAll fetches every enabled backend concurrently and replaces the record
// map with the results. Records of backends no longer enabled are dropped.
// It returns true iff at least one backend is online.
func (a *Aggregator) PollAll(ctx context.Context) bool {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()

	cycle := uuid.NewString()
	start := time.Now()
	cfg := a.provider.Config()
	ids := cfg.EnabledBackends()

	results := make([]model.StatusRecord, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = a.fetchOne(ctx, cycle, cfg.Backend(id))
			return nil
		})
	}
	_ = g.Wait()

	online := 0
	next := make(map[model.BackendID]model.StatusRecord, len(ids))
	for _, rec := range results {
		next[rec.ID] = rec
		if rec.Online {
			online++
		}
	}

	a.mu.Lock()
	a.statuses = next
	a.connected = online > 0
	a.lastPoll = time.Now()
	a.mu.Unlock()

	log.Info().
		Str("cycle", cycle).
		Int("enabled", len(ids)).
		Int("online", online).
		Dur("took", time.Since(start)).
		Msg("poll complete")
	return online > 0
}

func (a *Aggregator) fetchOne(ctx context.Context, cycle string, b config.BackendConfig) (rec model.StatusRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("cycle", cycle).Str("backend", string(b.ID)).Interface("panic", r).Msg("adapter panicked")
			rec = offlineRecord(b.ID, model.LineInternalError, format.ErrorDetail(fmt.Errorf("%v", r)))
		}
	}()

	if !b.Configured() {
		return offlineRecord(b.ID, model.LineNotConfigured, model.LineMissingConfig)
	}
	ad, err := a.resolve(b.ID)
	if err != nil {
		return offlineRecord(b.ID, model.LineInternalError, format.ErrorDetail(err))
	}

	rec = normalize(b.ID, ad.Fetch(ctx, a.session, b))
	log.Debug().
		Str("cycle", cycle).
		Str("backend", string(b.ID)).
		Bool("online", rec.Online).
		Str("primary", rec.Primary).
		Msg("backend polled")
	return rec
}

// Connect rebuilds the record map for the enabled set and probes each
// backend's health endpoint concurrently, without fetching full status.
func (a *Aggregator) Connect(ctx context.Context) bool {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()

	cfg := a.provider.Config()
	ids := cfg.EnabledBackends()

	results := make([]model.StatusRecord, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			results[i] = a.probeOne(ctx, cfg.Backend(id))
			return nil
		})
	}
	_ = g.Wait()

	reachable := 0
	next := make(map[model.BackendID]model.StatusRecord, len(ids))
	for _, rec := range results {
		next[rec.ID] = rec
		if rec.Online {
			reachable++
		}
	}

	a.mu.Lock()
	a.statuses = next
	a.connected = reachable > 0
	a.mu.Unlock()

	log.Info().Int("enabled", len(ids)).Int("reachable", reachable).Msg("connectivity probe complete")
	return reachable > 0
}

func (a *Aggregator) probeOne(ctx context.Context, b config.BackendConfig) (rec model.StatusRecord) {
	rec = model.NewStatusRecord(b.ID, registry.DisplayName(b.ID))
	defer func() {
		if r := recover(); r != nil {
			rec = offlineRecord(b.ID, model.LineInternalError, format.ErrorDetail(fmt.Errorf("%v", r)))
		}
	}()

	if !b.Configured() {
		return offlineRecord(b.ID, model.LineNotConfigured, model.LineMissingConfig)
	}
	ok, err := a.probe(ctx, a.session, b)
	if !ok {
		if err != nil {
			log.Warn().Str("backend", string(b.ID)).Err(err).Msg("backend unreachable")
			rec.Secondary = format.ErrorDetail(err)
		}
		return rec
	}
	rec.Online = true
	rec.Primary = model.LineConnected
	rec.Secondary = model.LineWaitingForPoll
	return rec
}

// Status returns the record for id, if that backend is enabled.
func (a *Aggregator) Status(id model.BackendID) (model.StatusRecord, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	rec, ok := a.statuses[id]
	return rec, ok
}

// Statuses returns a copy of every record.
func (a *Aggregator) Statuses() map[model.BackendID]model.StatusRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[model.BackendID]model.StatusRecord, len(a.statuses))
	for id, rec := range a.statuses {
		out[id] = rec
	}
	return out
}

// IsConnected reports the outcome of the last Connect or PollAll.
func (a *Aggregator) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// LastPoll returns when PollAll last completed; zero before the first poll.
func (a *Aggregator) LastPoll() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastPoll
}

// Enabled returns the currently enabled backends in display order.
func (a *Aggregator) Enabled() []model.BackendID {
	return a.provider.Config().EnabledBackends()
}

func offlineRecord(id model.BackendID, primary, secondary string) model.StatusRecord {
	rec := model.NewStatusRecord(id, registry.DisplayName(id))
	rec.Primary = primary
	rec.Secondary = secondary
	return rec
}

// normalize enforces the record invariants regardless of what an adapter
// returned: the id matches and neither line is empty.
func normalize(id model.BackendID, rec model.StatusRecord) model.StatusRecord {
	rec.ID = id
	if rec.Title == "" {
		rec.Title = registry.DisplayName(id)
	}
	if rec.Primary == "" {
		if rec.Online {
			rec.Primary = format.Unknown
		} else {
			rec.Primary = model.LineOffline
		}
	}
	if rec.Secondary == "" {
		rec.Secondary = format.NoRecentActivity
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	return rec
}
