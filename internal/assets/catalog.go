// Package assets provides a read-only merged view over the host's two asset
// catalogs (locally owned and node owned). The editor never mutates asset
// metadata; it only resolves, lists and derives thumbnail URLs.
package assets

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Asset describes one catalog entry. Owned by the host.
type Asset struct {
	ID       string `json:"id"`
	Filetype string `json:"filetype"`
	Filename string `json:"filename"`
	Thumb    string `json:"thumb"`
	Uploaded int64  `json:"uploaded,omitempty"`
}

// Catalog merges the local and node catalogs. Local entries shadow node
// entries with the same id.
type Catalog struct {
	local map[string]Asset
	node  map[string]Asset
}

// NewCatalog builds a merged view. The maps are referenced, not copied;
// callers hand in snapshots they no longer mutate.
func NewCatalog(local, node map[string]Asset) Catalog {
	return Catalog{local: local, node: node}
}

// Resolve looks up an asset by id, local catalog first.
func (c Catalog) Resolve(id string) (Asset, bool) {
	if a, ok := c.local[id]; ok {
		return a, true
	}
	a, ok := c.node[id]
	return a, ok
}

// Len returns the number of distinct asset ids across both catalogs.
func (c Catalog) Len() int {
	n := len(c.local)
	for id := range c.node {
		if _, ok := c.local[id]; !ok {
			n++
		}
	}
	return n
}

// SortOrder selects the listing order.
type SortOrder string

const (
	SortFilename SortOrder = "filename" // locale-aware, case-insensitive
	SortAge      SortOrder = "age"      // upload timestamp ascending, missing = 0
)

// List returns all assets whose filetype is in the allow-list (nil or empty
// allows everything), sorted per order. Local entries shadow node entries.
func (c Catalog) List(filetypes []string, order SortOrder) []Asset {
	allowed := map[string]bool{}
	for _, ft := range filetypes {
		allowed[ft] = true
	}
	var out []Asset
	add := func(m map[string]Asset, shadowed map[string]Asset) {
		for id, a := range m {
			if shadowed != nil {
				if _, ok := shadowed[id]; ok {
					continue
				}
			}
			if len(allowed) > 0 && !allowed[a.Filetype] {
				continue
			}
			out = append(out, a)
		}
	}
	add(c.local, nil)
	add(c.node, c.local)

	switch order {
	case SortAge:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Uploaded < out[j].Uploaded
		})
	default:
		col := collate.New(language.Und, collate.Loose)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Filename, out[j].Filename) < 0
		})
	}
	return out
}

// thumbMax caps the larger requested thumbnail dimension.
const thumbMax = 512

// ThumbURL derives a thumbnail URL for the requested size. Both dimensions
// are scaled down proportionally so the larger one never exceeds 512, then
// rounded up to whole pixels. Non-positive dimensions default to 256.
func ThumbURL(a Asset, w, h int) string {
	if w <= 0 {
		w = 256
	}
	if h <= 0 {
		h = 256
	}
	max := w
	if h > max {
		max = h
	}
	scale := 1.0
	if max > thumbMax {
		scale = float64(thumbMax) / float64(max)
	}
	sw := int(math.Ceil(float64(w) * scale))
	sh := int(math.Ceil(float64(h) * scale))
	return fmt.Sprintf("%s?w=%d&h=%d&crop=none", a.Thumb, sw, sh)
}
