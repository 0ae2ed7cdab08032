// Package bridge wires the configuration store to the host: it seeds the
// store from the host snapshot, pushes the entire configuration after every
// committed mutation, and feeds host-initiated catalog refreshes back into
// the store.
package bridge

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pagedeck/pdk/internal/host"
	"github.com/pagedeck/pdk/internal/playlist"
	"github.com/pagedeck/pdk/internal/store"
)

// Bridge connects one store to one host.
type Bridge struct {
	host   host.Host
	pusher host.Host // host wrapped with retries
	store  *store.Store
	errw   io.Writer // push failures are reported here, never propagated
}

// New returns a bridge. Push failures are written to errw (pushes are
// fire-and-forget by contract); pass nil to discard them.
func New(h host.Host, s *store.Store, errw io.Writer) *Bridge {
	return &Bridge{
		host:   h,
		pusher: host.NewRetryHost(h, host.DefaultRetryConfig()),
		store:  s,
		errw:   errw,
	}
}

// Bootstrap subscribes the push listener, fetches the host snapshot and
// initializes the store with it. The subscription is registered before
// Init so every subsequent mutation is pushed.
func (b *Bridge) Bootstrap(ctx context.Context) error {
	b.store.Subscribe(func(cfg playlist.Config) {
		if err := b.pusher.PushConfig(ctx, cfg); err != nil && b.errw != nil {
			fmt.Fprintf(b.errw, "push configuration: %v\n", err)
		}
	})
	snap, err := b.host.Snapshot(ctx)
	if err != nil {
		return err
	}
	return b.store.Init(snap.Assets, snap.NodeAssets, snap.Config)
}

// WatchCatalog blocks, refreshing the store's local catalog whenever the
// host reports a change. Hosts without catalog change support return nil
// immediately. This path never touches the configuration and therefore
// never triggers a push.
func (b *Bridge) WatchCatalog(ctx context.Context, interval time.Duration) error {
	watcher, ok := b.host.(host.CatalogWatcher)
	if !ok {
		return nil
	}
	return watcher.Watch(ctx, interval, b.store.RefreshAssets)
}
