package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/nzbinfo-go/internal/adapter"
	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/model"
)

// fakeAdapter returns a canned record; failing ones come back offline.
type fakeAdapter struct {
	fail  bool
	panic bool
	calls *atomic.Int32
	delay time.Duration
}

func (f fakeAdapter) Fetch(ctx context.Context, _ *client.Session, cfg config.BackendConfig) model.StatusRecord {
	if f.calls != nil {
		f.calls.Add(1)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panic {
		panic("formatter bug")
	}
	if f.fail {
		return model.StatusRecord{ID: cfg.ID, Title: string(cfg.ID), Primary: model.LineConnectionError, Secondary: "connection refused", UpdatedAt: time.Now()}
	}
	return model.StatusRecord{ID: cfg.ID, Online: true, Title: string(cfg.ID), Primary: "Queue idle", Secondary: "No recent activity", UpdatedAt: time.Now()}
}

func resolverFor(adapters map[model.BackendID]adapter.Adapter) Resolver {
	return func(id model.BackendID) (adapter.Adapter, error) {
		a, ok := adapters[id]
		if !ok {
			return nil, fmt.Errorf("no fake for %s", id)
		}
		return a, nil
	}
}

func configWith(ids ...model.BackendID) *config.Config {
	cfg := config.Default()
	for _, id := range ids {
		cfg.Enabled = append(cfg.Enabled, string(id))
		cfg.Backends[string(id)] = config.BackendConfig{Host: "127.0.0.1", APIKey: "k"}
	}
	return cfg
}

func TestPollAll_OnlineIffAnySucceeds(t *testing.T) {
	ids := model.AllBackends
	n := len(ids)
	for k := 0; k <= n; k++ {
		t.Run(fmt.Sprintf("%d_of_%d_fail", k, n), func(t *testing.T) {
			adapters := make(map[model.BackendID]adapter.Adapter, n)
			for i, id := range ids {
				adapters[id] = fakeAdapter{fail: i < k}
			}
			agg := NewAggregator(config.NewStatic(configWith(ids...)), nil, WithResolver(resolverFor(adapters)))

			got := agg.PollAll(context.Background())
			assert.Equal(t, n-k > 0, got)
			assert.Equal(t, n-k > 0, agg.IsConnected())

			statuses := agg.Statuses()
			assert.Len(t, statuses, n)
			for _, id := range ids {
				rec, ok := statuses[id]
				require.True(t, ok, id)
				assert.NotEmpty(t, rec.Primary)
				assert.NotEmpty(t, rec.Secondary)
			}
		})
	}
}

func TestPollAll_RunsConcurrently(t *testing.T) {
	var calls atomic.Int32
	adapters := map[model.BackendID]adapter.Adapter{}
	for _, id := range model.AllBackends {
		adapters[id] = fakeAdapter{delay: 100 * time.Millisecond, calls: &calls}
	}
	agg := NewAggregator(config.NewStatic(configWith(model.AllBackends...)), nil, WithResolver(resolverFor(adapters)))

	start := time.Now()
	assert.True(t, agg.PollAll(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(len(model.AllBackends)), calls.Load())
	assert.False(t, agg.LastPoll().IsZero())
}

func TestPollAll_NotConfiguredShortCircuits(t *testing.T) {
	var calls atomic.Int32
	cfg := configWith(model.Sonarr, model.Radarr)
	cfg.Backends["radarr"] = config.BackendConfig{APIKey: "k"}

	adapters := map[model.BackendID]adapter.Adapter{
		model.Sonarr: fakeAdapter{calls: &calls},
		model.Radarr: fakeAdapter{calls: &calls},
	}
	agg := NewAggregator(config.NewStatic(cfg), nil, WithResolver(resolverFor(adapters)))

	assert.True(t, agg.PollAll(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	rec, ok := agg.Status(model.Radarr)
	require.True(t, ok)
	assert.False(t, rec.Online)
	assert.Equal(t, "Not configured", rec.Primary)
	assert.Equal(t, "Missing configuration", rec.Secondary)
	assert.Equal(t, "Radarr", rec.Title)
}

func TestPollAll_RecoversAdapterPanic(t *testing.T) {
	adapters := map[model.BackendID]adapter.Adapter{
		model.SABnzbd: fakeAdapter{panic: true},
		model.Sonarr:  fakeAdapter{},
	}
	agg := NewAggregator(config.NewStatic(configWith(model.SABnzbd, model.Sonarr)), nil, WithResolver(resolverFor(adapters)))

	assert.True(t, agg.PollAll(context.Background()))

	rec, ok := agg.Status(model.SABnzbd)
	require.True(t, ok)
	assert.False(t, rec.Online)
	assert.Equal(t, "Internal Error", rec.Primary)
	assert.Equal(t, "formatter bug", rec.Secondary)
}

func TestPollAll_ResolverError(t *testing.T) {
	agg := NewAggregator(config.NewStatic(configWith(model.Lidarr)), nil,
		WithResolver(func(model.BackendID) (adapter.Adapter, error) { return nil, errors.New("no adapter") }))

	assert.False(t, agg.PollAll(context.Background()))
	rec, _ := agg.Status(model.Lidarr)
	assert.Equal(t, "Internal Error", rec.Primary)
	assert.Equal(t, "no adapter", rec.Secondary)
}

func TestPollAll_PrunesDisabledBackends(t *testing.T) {
	adapters := map[model.BackendID]adapter.Adapter{
		model.Sonarr: fakeAdapter{},
		model.Radarr: fakeAdapter{},
	}
	static := config.NewStatic(configWith(model.Sonarr, model.Radarr))
	loader := &swappable{cfg: static.Config()}
	agg := NewAggregator(loader, nil, WithResolver(resolverFor(adapters)))

	agg.PollAll(context.Background())
	assert.Len(t, agg.Statuses(), 2)

	loader.set(configWith(model.Radarr))
	agg.PollAll(context.Background())

	statuses := agg.Statuses()
	assert.Len(t, statuses, 1)
	_, ok := agg.Status(model.Sonarr)
	assert.False(t, ok)
	assert.Equal(t, []model.BackendID{model.Radarr}, agg.Enabled())
}

func TestPollAll_NormalizesEmptyLines(t *testing.T) {
	blank := adapterFunc(func(context.Context, *client.Session, config.BackendConfig) model.StatusRecord {
		return model.StatusRecord{Online: true}
	})
	agg := NewAggregator(config.NewStatic(configWith(model.Bazarr)), nil,
		WithResolver(func(model.BackendID) (adapter.Adapter, error) { return blank, nil }))

	agg.PollAll(context.Background())
	rec, ok := agg.Status(model.Bazarr)
	require.True(t, ok)
	assert.Equal(t, model.Bazarr, rec.ID)
	assert.Equal(t, "Bazarr", rec.Title)
	assert.Equal(t, "Unknown", rec.Primary)
	assert.Equal(t, "No recent activity", rec.Secondary)
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestPollAll_NoneEnabled(t *testing.T) {
	agg := NewAggregator(config.NewStatic(nil), nil)
	assert.False(t, agg.PollAll(context.Background()))
	assert.Empty(t, agg.Statuses())
}

func TestStatusesIsACopy(t *testing.T) {
	agg := NewAggregator(config.NewStatic(configWith(model.Sonarr)), nil,
		WithResolver(resolverFor(map[model.BackendID]adapter.Adapter{model.Sonarr: fakeAdapter{}})))
	agg.PollAll(context.Background())

	s := agg.Statuses()
	delete(s, model.Sonarr)
	_, ok := agg.Status(model.Sonarr)
	assert.True(t, ok)
}

func TestConcurrentReadersDuringPoll(t *testing.T) {
	adapters := map[model.BackendID]adapter.Adapter{}
	for _, id := range model.AllBackends {
		adapters[id] = fakeAdapter{delay: time.Millisecond}
	}
	agg := NewAggregator(config.NewStatic(configWith(model.AllBackends...)), nil, WithResolver(resolverFor(adapters)))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			agg.PollAll(context.Background())
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = agg.Statuses()
				_, _ = agg.Status(model.Sonarr)
				_ = agg.IsConnected()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, agg.Statuses(), len(model.AllBackends))
}

func TestConnect(t *testing.T) {
	cfg := configWith(model.SABnzbd, model.Sonarr, model.Bazarr)
	cfg.Backends["bazarr"] = config.BackendConfig{}

	probe := func(_ context.Context, _ *client.Session, b config.BackendConfig) (bool, error) {
		if b.ID == model.SABnzbd {
			return true, nil
		}
		return false, &client.TransportError{Op: "GET", Err: errors.New("connection refused")}
	}
	agg := NewAggregator(config.NewStatic(cfg), nil, WithProbe(probe))

	assert.True(t, agg.Connect(context.Background()))
	assert.True(t, agg.IsConnected())

	statuses := agg.Statuses()
	require.Len(t, statuses, 3)

	sab := statuses[model.SABnzbd]
	assert.True(t, sab.Online)
	assert.Equal(t, "Connected", sab.Primary)
	assert.Equal(t, "Waiting for first update", sab.Secondary)
	assert.Equal(t, "SABnzbd", sab.Title)

	son := statuses[model.Sonarr]
	assert.False(t, son.Online)
	assert.Equal(t, "Offline", son.Primary)
	assert.Equal(t, "connection refused", son.Secondary)

	baz := statuses[model.Bazarr]
	assert.Equal(t, "Not configured", baz.Primary)
}

func TestConnect_NoneReachable(t *testing.T) {
	probe := func(context.Context, *client.Session, config.BackendConfig) (bool, error) { return false, nil }
	agg := NewAggregator(config.NewStatic(configWith(model.Radarr)), nil, WithProbe(probe))

	assert.False(t, agg.Connect(context.Background()))
	assert.False(t, agg.IsConnected())
	rec, _ := agg.Status(model.Radarr)
	assert.Equal(t, "Offline", rec.Primary)
	assert.Equal(t, "Not connected", rec.Secondary)
}

type adapterFunc func(context.Context, *client.Session, config.BackendConfig) model.StatusRecord

func (f adapterFunc) Fetch(ctx context.Context, s *client.Session, cfg config.BackendConfig) model.StatusRecord {
	return f(ctx, s, cfg)
}

// swappable is a Provider whose config can be replaced mid-test.
type swappable struct {
	mu  sync.Mutex
	cfg *config.Config
}

func (s *swappable) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *swappable) set(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}
