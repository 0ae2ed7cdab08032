package host

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/db"
)

func openSQLiteHost(t *testing.T) *SQLiteHost {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "pdk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteHost(conn, nil)
}

func TestSQLiteHost_NoSnapshot(t *testing.T) {
	h := openSQLiteHost(t)
	_, err := h.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSQLiteHost_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := openSQLiteHost(t)

	local := map[string]assets.Asset{
		"a1": {ID: "a1", Filetype: "image", Filename: "one.jpg", Thumb: "t/a1", Uploaded: 42},
	}
	node := map[string]assets.Asset{
		"n1": {ID: "n1", Filetype: "video", Filename: "clip.mp4", Thumb: "t/n1"},
	}
	require.NoError(t, h.ReplaceCatalog(ctx, "local", local))
	require.NoError(t, h.ReplaceCatalog(ctx, "node", node))
	require.NoError(t, h.PushConfig(ctx, testConfig()))

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, local, snap.Assets)
	assert.Equal(t, node, snap.NodeAssets)
	require.Len(t, snap.Config.Pages, 1)
	assert.Equal(t, "de", snap.Config.Language())
}

func TestSQLiteHost_LatestRevisionWins(t *testing.T) {
	ctx := context.Background()
	h := openSQLiteHost(t)

	cfg := testConfig()
	require.NoError(t, h.PushConfig(ctx, cfg))
	cfg.Pages[0].Media = "second"
	require.NoError(t, h.PushConfig(ctx, cfg))
	cfg.Pages[0].Media = "third"
	require.NoError(t, h.PushConfig(ctx, cfg))

	n, err := h.RevisionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "third", snap.Config.Pages[0].Media)
}

func TestSQLiteHost_ReplaceCatalogOwner(t *testing.T) {
	ctx := context.Background()
	h := openSQLiteHost(t)
	err := h.ReplaceCatalog(ctx, "other", nil)
	assert.Error(t, err)
}
