// pdk-seed: seeds a folder host with a demo asset catalog and an empty
// configuration, for local development of the editor.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/host"
	"github.com/pagedeck/pdk/internal/playlist"
)

func makeAssets(n int, filetype, prefix string, base time.Time) map[string]assets.Asset {
	out := make(map[string]assets.Asset, n)
	ext := ".jpg"
	if filetype == "video" {
		ext = ".mp4"
	}
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		out[id] = assets.Asset{
			ID:       id,
			Filetype: filetype,
			Filename: fmt.Sprintf("%s-%03d%s", prefix, i+1, ext),
			Thumb:    "https://cdn.example.net/thumb/" + id,
			Uploaded: base.Add(time.Duration(i) * time.Hour).Unix(),
		}
	}
	return out
}

func main() {
	dir := flag.String("dir", "", "folder host root (defaults to PDK_FOLDER_DIR)")
	images := flag.Int("images", 8, "number of seeded images")
	videos := flag.Int("videos", 2, "number of seeded videos")
	flag.Parse()

	root := *dir
	if root == "" {
		root = os.Getenv("PDK_FOLDER_DIR")
	}
	if root == "" {
		fmt.Fprintln(os.Stderr, "pdk-seed: -dir or PDK_FOLDER_DIR required")
		os.Exit(1)
	}

	ctx := context.Background()
	h := host.NewFolderHost(root, nil)

	base := time.Now().Add(-30 * 24 * time.Hour)
	local := makeAssets(*images, "image", "slide", base)
	for id, a := range makeAssets(*videos, "video", "clip", base.Add(12*time.Hour)) {
		local[id] = a
	}
	if err := h.WriteCatalog("assets.json", local); err != nil {
		fmt.Fprintf(os.Stderr, "pdk-seed: write catalog: %v\n", err)
		os.Exit(1)
	}
	node := makeAssets(2, "image", "node-logo", base.Add(-24*time.Hour))
	if err := h.WriteCatalog("node_assets.json", node); err != nil {
		fmt.Fprintf(os.Stderr, "pdk-seed: write node catalog: %v\n", err)
		os.Exit(1)
	}

	if _, err := h.Snapshot(ctx); errors.Is(err, host.ErrNoSnapshot) {
		if err := h.PushConfig(ctx, playlist.NewConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "pdk-seed: write config: %v\n", err)
			os.Exit(1)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "pdk-seed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d assets (+%d node assets) into %s\n", len(local), len(node), root)
}
