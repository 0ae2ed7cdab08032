// Package store is the authoritative mutation surface for the playlist
// configuration. All edits go through the declared operations; callers only
// ever see deep copies of the state. After every operation that touches the
// configuration, registered subscribers receive the committed snapshot.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/playlist"
	"github.com/pagedeck/pdk/internal/schedule"
)

var (
	// ErrNotInitialized is returned by operations before Init.
	ErrNotInitialized = errors.New("store not initialized")
	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("store already initialized")
	// ErrMalformedSnapshot is returned by Init for a snapshot without pages.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrIndexOutOfRange is returned for page indices outside [0, pageCount).
	ErrIndexOutOfRange = errors.New("page index out of range")
)

// Store holds the configuration and both asset catalogs. Editing is
// single-writer; the mutex only protects against the catalog-watch
// goroutine refreshing assets during an edit.
type Store struct {
	mu          sync.Mutex
	inited      bool
	local       map[string]assets.Asset
	node        map[string]assets.Asset
	config      playlist.Config
	subscribers []func(playlist.Config)
}

// New returns an empty, uninitialized store.
func New() *Store {
	return &Store{}
}

// Subscribe registers fn to receive a deep copy of the configuration after
// every committed mutation. Register before Init to observe every change.
func (s *Store) Subscribe(fn func(playlist.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Init installs the host snapshot. Must be called exactly once before any
// other operation. The payload is trusted except for the pages list, which
// must be present.
func (s *Store) Init(local, node map[string]assets.Asset, cfg playlist.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inited {
		return ErrAlreadyInitialized
	}
	if cfg.Pages == nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, playlist.ErrMissingPages)
	}
	s.local = copyAssets(local)
	s.node = copyAssets(node)
	s.config = cfg.Clone()
	if s.config.Options == nil {
		s.config.Options = map[string]any{}
	}
	// Normalize host payload quirks instead of rejecting them.
	for i := range s.config.Pages {
		if s.config.Pages[i].Config == nil {
			s.config.Pages[i].Config = map[string]any{}
		}
	}
	s.inited = true
	return nil
}

// Config returns a deep copy of the current configuration.
func (s *Store) Config() playlist.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// Catalog returns the merged asset catalog view.
func (s *Store) Catalog() assets.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return assets.NewCatalog(copyAssets(s.local), copyAssets(s.node))
}

// PageCount returns the number of pages.
func (s *Store) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.config.Pages)
}

// InsertPage splices a new page into the list. after == -1 inserts a
// default page at the front; otherwise the new page goes immediately after
// the addressed page and inherits its media, layout, duration and a deep
// copy of its config. The new page's schedule always starts fully visible.
func (s *Store) InsertPage(after int) error {
	return s.commit(func() error {
		page := playlist.NewPage()
		if after == -1 {
			s.config.Pages = splice(s.config.Pages, 0, page)
			return nil
		}
		if err := s.checkIndex(after); err != nil {
			return err
		}
		pred := s.config.Pages[after]
		page.Media = pred.Media
		page.Layout = pred.Layout
		page.Duration = pred.Duration
		page.Config = pred.Clone().Config
		s.config.Pages = splice(s.config.Pages, after+1, page)
		return nil
	})
}

// InsertPages splices one new page per selected asset, in selection order,
// after the addressed page (or at the front for -1). Each page inherits the
// predecessor's duration but starts fullscreen with an empty config.
func (s *Store) InsertPages(after int, mediaIDs []string) error {
	return s.commit(func() error {
		if after != -1 {
			if err := s.checkIndex(after); err != nil {
				return err
			}
		}
		duration := playlist.DurationAuto
		if after != -1 {
			duration = s.config.Pages[after].Duration
		}
		at := after + 1
		for _, id := range mediaIDs {
			page := playlist.NewPage()
			page.Media = id
			page.Duration = duration
			s.config.Pages = splice(s.config.Pages, at, page)
			at++
		}
		return nil
	})
}

// RemovePage deletes the page at index.
func (s *Store) RemovePage(index int) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		s.config.Pages = append(s.config.Pages[:index], s.config.Pages[index+1:]...)
		return nil
	})
}

// SetOption upserts a global option. Unknown keys are permitted.
func (s *Store) SetOption(key string, value any) error {
	return s.commit(func() error {
		s.config.Options[key] = value
		return nil
	})
}

// SetLayout replaces the addressed page's layout.
func (s *Store) SetLayout(index int, layout playlist.Layout) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		s.config.Pages[index].Layout = layout
		return nil
	})
}

// SetMedia replaces the addressed page's media reference.
func (s *Store) SetMedia(index int, media string) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		s.config.Pages[index].Media = media
		return nil
	})
}

// SetDuration replaces the addressed page's duration.
func (s *Store) SetDuration(index int, d playlist.Duration) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		s.config.Pages[index].Duration = d
		return nil
	})
}

// SetInteraction replaces the addressed page's interaction trigger.
// nil clears it.
func (s *Store) SetInteraction(index int, in *playlist.Interaction) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		if in == nil {
			s.config.Pages[index].Interaction = nil
			return nil
		}
		cp := *in
		s.config.Pages[index].Interaction = &cp
		return nil
	})
}

// SetPageConfig upserts one key in the addressed page's config map without
// disturbing other keys.
func (s *Store) SetPageConfig(index int, key string, value any) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		if s.config.Pages[index].Config == nil {
			s.config.Pages[index].Config = map[string]any{}
		}
		s.config.Pages[index].Config[key] = value
		return nil
	})
}

// SetScheduleHour densifies the addressed page's schedule and sets one
// hour. Hour is day*24 + hourOfDay, 0..167.
func (s *Store) SetScheduleHour(index, hour int, on bool) error {
	return s.commit(func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		return s.config.Pages[index].Schedule.SetHour(hour, on)
	})
}

// ToggleDay applies the day-toggle rule to the addressed page: fewer than
// 12 hours on turns the whole day on, otherwise off. Issues 24 individual
// hour sets, each committed like a single-hour edit.
func (s *Store) ToggleDay(index, day int) error {
	s.mu.Lock()
	if !s.inited {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if err := s.checkIndex(index); err != nil {
		s.mu.Unlock()
		return err
	}
	if day < 0 || day >= schedule.Days {
		s.mu.Unlock()
		return fmt.Errorf("day %d out of range [0,%d)", day, schedule.Days)
	}
	on := s.config.Pages[index].Schedule.DayToggleOn(day)
	s.mu.Unlock()
	for hour := 0; hour < schedule.HoursPerDay; hour++ {
		if err := s.SetScheduleHour(index, day*schedule.HoursPerDay+hour, on); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAssets wholesale-replaces the local asset catalog. The node
// catalog, page list and options are untouched and no commit is published:
// this path never changes the configuration.
func (s *Store) RefreshAssets(local map[string]assets.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.local = copyAssets(local)
}

// commit runs a mutation and, on success, hands the committed configuration
// to every subscriber.
func (s *Store) commit(mutate func() error) error {
	s.mu.Lock()
	if !s.inited {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.config.Clone()
	subs := make([]func(playlist.Config), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.config.Pages) {
		return fmt.Errorf("%w: index %d, pages %d", ErrIndexOutOfRange, index, len(s.config.Pages))
	}
	return nil
}

func splice(pages []playlist.Page, at int, page playlist.Page) []playlist.Page {
	out := make([]playlist.Page, 0, len(pages)+1)
	out = append(out, pages[:at]...)
	out = append(out, page)
	out = append(out, pages[at:]...)
	return out
}

func copyAssets(m map[string]assets.Asset) map[string]assets.Asset {
	out := make(map[string]assets.Asset, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
