// Package playlist defines the signage configuration data model: an ordered
// page list plus open global options. Pages have no identity beyond their
// position in the list.
package playlist

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/pagedeck/pdk/internal/schedule"
)

// EmptyMedia is the media sentinel for a page with no asset chosen yet.
const EmptyMedia = "empty.png"

// Layout selects a page's visual arrangement. Unknown values coming from
// the host are preserved, not rejected.
type Layout string

const (
	LayoutFullscreen Layout = "fullscreen"
	LayoutTextLeft   Layout = "text-left"
	LayoutTextRight  Layout = "text-right"
)

// LayoutOption is a selectable layout for presentation surfaces.
type LayoutOption struct {
	Value Layout
	Text  string
}

// LayoutOptions lists the layouts the editor offers.
var LayoutOptions = []LayoutOption{
	{LayoutFullscreen, "Fullscreen"},
	{LayoutTextLeft, "Text on left side"},
	{LayoutTextRight, "Text on right side"},
}

// Duration is either "auto" or display seconds as a decimal string.
type Duration string

// DurationAuto lets the player pick the display time.
const DurationAuto Duration = "auto"

// DurationPresets are the values the editor offers. Any positive integer
// is accepted.
var DurationPresets = []Duration{DurationAuto, "5", "10", "15", "20"}

// Valid reports whether d is "auto" or a positive whole number of seconds.
func (d Duration) Valid() bool {
	if d == DurationAuto {
		return true
	}
	n, err := strconv.Atoi(string(d))
	return err == nil && n > 0
}

// Interaction is an optional manual-advance trigger. Key is a single
// character or a named-key token ("" disables the trigger). Duration is
// "auto" or "forever".
type Interaction struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// Page is one slide of the playlist. Config holds layout-specific settings
// (foreground, background, title, kenburns, text for the text layouts);
// unknown keys are preserved.
type Page struct {
	Media       string            `json:"media"`
	Layout      Layout            `json:"layout"`
	Duration    Duration          `json:"duration"`
	Config      map[string]any    `json:"config"`
	Schedule    schedule.Schedule `json:"schedule"`
	Interaction *Interaction      `json:"interaction,omitempty"`
}

// NewPage returns a page with default field values: no media, fullscreen,
// automatic duration, empty config, fully visible schedule.
func NewPage() Page {
	return Page{
		Media:    EmptyMedia,
		Layout:   LayoutFullscreen,
		Duration: DurationAuto,
		Config:   map[string]any{},
		Schedule: schedule.Schedule{},
	}
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	out := p
	out.Config = make(map[string]any, len(p.Config))
	for k, v := range p.Config {
		out.Config[k] = v
	}
	out.Schedule = p.Schedule.Clone()
	if p.Interaction != nil {
		in := *p.Interaction
		out.Interaction = &in
	}
	return out
}

// ErrMissingPages marks a configuration payload without a pages field.
var ErrMissingPages = errors.New("configuration missing pages")

// Config is the whole playlist configuration: the page list plus global
// options (time_fmt, language, audio, anything else the host knows about).
// Unknown option keys round-trip untouched.
type Config struct {
	Pages   []Page
	Options map[string]any
}

// NewConfig returns an empty configuration.
func NewConfig() Config {
	return Config{Pages: []Page{}, Options: map[string]any{}}
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := Config{
		Pages:   make([]Page, len(c.Pages)),
		Options: make(map[string]any, len(c.Options)),
	}
	for i, p := range c.Pages {
		out.Pages[i] = p.Clone()
	}
	for k, v := range c.Options {
		out.Options[k] = v
	}
	return out
}

// Language returns the language option, defaulting to "en".
func (c Config) Language() string {
	if v, ok := c.Options["language"].(string); ok && v != "" {
		return v
	}
	return "en"
}

// TimeFmt returns the time format option ("" when unset).
func (c Config) TimeFmt() string {
	v, _ := c.Options["time_fmt"].(string)
	return v
}

// Audio reports whether audio playback is enabled.
func (c Config) Audio() bool {
	v, _ := c.Options["audio"].(bool)
	return v
}

// MarshalJSON flattens options next to the pages list, matching the host
// schema.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		out[k] = v
	}
	pages := c.Pages
	if pages == nil {
		pages = []Page{}
	}
	out["pages"] = pages
	return json.Marshal(out)
}

// UnmarshalJSON splits the host payload into the page list and the open
// option map. A payload without a pages key is malformed.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pagesRaw, ok := raw["pages"]
	if !ok {
		return ErrMissingPages
	}
	var pages []Page
	if err := json.Unmarshal(pagesRaw, &pages); err != nil {
		return err
	}
	if pages == nil {
		pages = []Page{}
	}
	options := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "pages" {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		options[k] = val
	}
	c.Pages = pages
	c.Options = options
	return nil
}
