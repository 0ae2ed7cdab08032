// Package host defines the contract with the platform that owns
// persistence and the asset catalogs, plus the built-in backends: a local
// folder, S3-compatible object storage, and SQLite.
package host

import (
	"context"
	"errors"
	"time"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/playlist"
)

// Snapshot is the host's initial state handed to the editor once at
// startup.
type Snapshot struct {
	Assets     map[string]assets.Asset `json:"assets"`
	NodeAssets map[string]assets.Asset `json:"node_assets"`
	Config     playlist.Config         `json:"config"`
}

// Host owns persistence. PushConfig is fire-and-forget from the editor's
// point of view: it is invoked after every committed mutation with the
// entire configuration.
type Host interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	PushConfig(ctx context.Context, cfg playlist.Config) error
}

// CatalogWatcher is implemented by hosts that can report catalog changes.
// Watch blocks until ctx is done, invoking fn with the fresh local catalog
// whenever it changes.
type CatalogWatcher interface {
	Watch(ctx context.Context, interval time.Duration, fn func(map[string]assets.Asset)) error
}

// ErrNoSnapshot is returned when the backend holds no configuration yet.
var ErrNoSnapshot = errors.New("host has no snapshot")
