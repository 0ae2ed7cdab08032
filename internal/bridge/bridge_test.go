package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/host"
	"github.com/pagedeck/pdk/internal/playlist"
	"github.com/pagedeck/pdk/internal/store"
)

// fakeHost records pushed configurations and can replay one catalog change.
type fakeHost struct {
	mu       sync.Mutex
	snap     host.Snapshot
	pushed   []playlist.Config
	catalogs chan map[string]assets.Asset
}

func newFakeHost() *fakeHost {
	cfg := playlist.NewConfig()
	p := playlist.NewPage()
	p.Media = "a"
	cfg.Pages = append(cfg.Pages, p)
	return &fakeHost{
		snap: host.Snapshot{
			Assets: map[string]assets.Asset{
				"a": {ID: "a", Filetype: "image", Filename: "a.jpg"},
			},
			NodeAssets: map[string]assets.Asset{},
			Config:     cfg,
		},
		catalogs: make(chan map[string]assets.Asset, 1),
	}
}

func (f *fakeHost) Snapshot(ctx context.Context) (*host.Snapshot, error) {
	return &f.snap, nil
}

func (f *fakeHost) PushConfig(ctx context.Context, cfg playlist.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, cfg)
	return nil
}

func (f *fakeHost) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

func (f *fakeHost) Watch(ctx context.Context, interval time.Duration, fn func(map[string]assets.Asset)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case catalog := <-f.catalogs:
			fn(catalog)
		}
	}
}

func TestBootstrapInitializesStore(t *testing.T) {
	f := newFakeHost()
	st := store.New()
	b := New(f, st, nil)
	require.NoError(t, b.Bootstrap(context.Background()))

	cfg := st.Config()
	require.Len(t, cfg.Pages, 1)
	assert.Equal(t, "a", cfg.Pages[0].Media)
	assert.Equal(t, 0, f.pushCount(), "bootstrap itself must not push")
}

func TestEveryMutationPushesWholeConfig(t *testing.T) {
	f := newFakeHost()
	st := store.New()
	b := New(f, st, nil)
	require.NoError(t, b.Bootstrap(context.Background()))

	require.NoError(t, st.InsertPage(0))
	require.NoError(t, st.SetMedia(1, "b"))
	require.NoError(t, st.SetOption("language", "fr"))

	require.Equal(t, 3, f.pushCount())
	last := f.pushed[len(f.pushed)-1]
	assert.Len(t, last.Pages, 2, "push carries the entire configuration")
	assert.Equal(t, "fr", last.Language())
}

func TestFailedMutationDoesNotPush(t *testing.T) {
	f := newFakeHost()
	st := store.New()
	b := New(f, st, nil)
	require.NoError(t, b.Bootstrap(context.Background()))

	assert.Error(t, st.RemovePage(99))
	assert.Equal(t, 0, f.pushCount())
}

func TestWatchCatalogRefreshesWithoutPush(t *testing.T) {
	f := newFakeHost()
	st := store.New()
	b := New(f, st, nil)
	require.NoError(t, b.Bootstrap(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.WatchCatalog(ctx, time.Millisecond)
		close(done)
	}()

	f.catalogs <- map[string]assets.Asset{
		"fresh": {ID: "fresh", Filetype: "image", Filename: "new.jpg"},
	}

	require.Eventually(t, func() bool {
		_, ok := st.Catalog().Resolve("fresh")
		return ok
	}, time.Second, 5*time.Millisecond)

	_, stale := st.Catalog().Resolve("a")
	assert.False(t, stale, "refresh replaces the local catalog wholesale")
	assert.Equal(t, 0, f.pushCount(), "catalog refresh must not push")

	cancel()
	<-done
}

func TestWatchCatalogWithoutSupportReturns(t *testing.T) {
	// A host that is not a CatalogWatcher: WatchCatalog is a no-op.
	f := newFakeHost()
	type pushOnly struct{ host.Host }
	st := store.New()
	b := New(pushOnly{f}, st, nil)
	require.NoError(t, b.Bootstrap(context.Background()))
	assert.NoError(t, b.WatchCatalog(context.Background(), time.Millisecond))
}
