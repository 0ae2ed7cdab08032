package host

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/playlist"
)

const (
	assetsFile     = "assets.json"
	nodeAssetsFile = "node_assets.json"
	configFile     = "config.pdcfg"
)

// FolderHost is a directory-backed host. The catalogs live in plain JSON
// files (they are host-owned; the editor only reads them); the
// configuration is a codec object written atomically via tmp+rename.
type FolderHost struct {
	root string
	key  []byte
}

// NewFolderHost returns a host rooted at dir. key enables snapshot
// encryption; nil stores plaintext.
func NewFolderHost(root string, key []byte) *FolderHost {
	return &FolderHost{root: root, key: key}
}

// Snapshot loads both catalogs and the configuration. Missing catalog
// files yield empty catalogs; a missing configuration is ErrNoSnapshot.
func (f *FolderHost) Snapshot(ctx context.Context) (*Snapshot, error) {
	local, err := f.readCatalog(assetsFile)
	if err != nil {
		return nil, err
	}
	node, err := f.readCatalog(nodeAssetsFile)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(f.root, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	cfg, err := DecodeConfig(raw, f.key)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Assets: local, NodeAssets: node, Config: cfg}, nil
}

// PushConfig writes the configuration object atomically: tmp file, fsync,
// rename.
func (f *FolderHost) PushConfig(ctx context.Context, cfg playlist.Config) error {
	data, err := EncodeConfig(cfg, f.key)
	if err != nil {
		return err
	}
	return f.putAtomic(configFile, data)
}

// WriteCatalog replaces one catalog file. Used by seeding tools; the
// editor itself never writes catalogs.
func (f *FolderHost) WriteCatalog(name string, catalog map[string]assets.Asset) error {
	if name != assetsFile && name != nodeAssetsFile {
		return fmt.Errorf("unknown catalog file %q", name)
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	return f.putAtomic(name, data)
}

// Watch polls the local catalog file and invokes fn with the fresh catalog
// whenever its modification time changes. Blocks until ctx is done.
func (f *FolderHost) Watch(ctx context.Context, interval time.Duration, fn func(map[string]assets.Asset)) error {
	path := filepath.Join(f.root, assetsFile)
	var last time.Time
	if fi, err := os.Stat(path); err == nil {
		last = fi.ModTime()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fi, err := os.Stat(path)
			if err != nil {
				continue
			}
			if fi.ModTime().Equal(last) {
				continue
			}
			last = fi.ModTime()
			catalog, err := f.readCatalog(assetsFile)
			if err != nil {
				continue
			}
			fn(catalog)
		}
	}
}

func (f *FolderHost) readCatalog(name string) (map[string]assets.Asset, error) {
	b, err := os.ReadFile(filepath.Join(f.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]assets.Asset{}, nil
		}
		return nil, err
	}
	var catalog map[string]assets.Asset
	if err := json.Unmarshal(b, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if catalog == nil {
		catalog = map[string]assets.Asset{}
	}
	return catalog, nil
}

func tmpName() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b) + ".partial"
}

// putAtomic writes data to tmp/<unique>.partial, fsyncs, then renames to
// the final path.
func (f *FolderHost) putAtomic(name string, data []byte) error {
	finalPath := filepath.Join(f.root, name)
	tmpPath := filepath.Join(f.root, "tmp", tmpName())
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0755); err != nil {
		return fmt.Errorf("mkdir tmp: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return fmt.Errorf("mkdir root: %w", err)
	}

	fh, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	_, err = fh.Write(data)
	if err != nil {
		fh.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
