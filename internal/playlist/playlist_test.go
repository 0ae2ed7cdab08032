package playlist

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewPageDefaults(t *testing.T) {
	p := NewPage()
	if p.Media != EmptyMedia {
		t.Errorf("media = %q", p.Media)
	}
	if p.Layout != LayoutFullscreen {
		t.Errorf("layout = %q", p.Layout)
	}
	if p.Duration != DurationAuto {
		t.Errorf("duration = %q", p.Duration)
	}
	if len(p.Config) != 0 || p.Config == nil {
		t.Error("config should be an empty map")
	}
	if len(p.Schedule.Hours) != 0 {
		t.Error("schedule should start sparse (fully visible)")
	}
}

func TestPageCloneIsDeep(t *testing.T) {
	p := NewPage()
	p.Config["title"] = "Hello"
	p.Interaction = &Interaction{Key: "a", Duration: "auto"}
	p.Schedule.SetHour(0, false)

	c := p.Clone()
	c.Config["title"] = "Changed"
	c.Interaction.Key = "b"
	c.Schedule.SetHour(1, false)

	if p.Config["title"] != "Hello" {
		t.Error("clone shares the config map")
	}
	if p.Interaction.Key != "a" {
		t.Error("clone shares the interaction")
	}
	if !p.Schedule.Effective(1) {
		t.Error("clone shares the schedule")
	}
}

func TestDurationValid(t *testing.T) {
	for _, d := range []Duration{"auto", "5", "10", "600", "1"} {
		if !d.Valid() {
			t.Errorf("%q should be valid", d)
		}
	}
	for _, d := range []Duration{"", "0", "-5", "forever", "5.5"} {
		if d.Valid() {
			t.Errorf("%q should be invalid", d)
		}
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	payload := []byte(`{
		"pages": [{"media": "a", "layout": "text-left", "duration": "10",
		           "config": {"kenburns": true, "custom_key": "kept"},
		           "schedule": {"hours": []}}],
		"time_fmt": "24h",
		"audio": true,
		"future_option": {"nested": 1}
	}`)
	var c Config
	if err := json.Unmarshal(payload, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(c.Pages) != 1 {
		t.Fatalf("pages = %d", len(c.Pages))
	}
	if c.Pages[0].Config["custom_key"] != "kept" {
		t.Error("unknown page config key dropped")
	}
	if c.TimeFmt() != "24h" || !c.Audio() {
		t.Error("typed option accessors wrong")
	}
	if _, ok := c.Options["future_option"]; !ok {
		t.Error("unknown global option dropped")
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var round map[string]any
	json.Unmarshal(out, &round)
	if _, ok := round["future_option"]; !ok {
		t.Error("unknown global option not re-emitted")
	}
	if _, ok := round["pages"]; !ok {
		t.Error("pages missing from output")
	}
}

func TestConfigMissingPages(t *testing.T) {
	var c Config
	err := json.Unmarshal([]byte(`{"language": "de"}`), &c)
	if !errors.Is(err, ErrMissingPages) {
		t.Errorf("err = %v, want ErrMissingPages", err)
	}
}

func TestLanguageDefault(t *testing.T) {
	c := NewConfig()
	if c.Language() != "en" {
		t.Errorf("default language = %q", c.Language())
	}
	c.Options["language"] = "de"
	if c.Language() != "de" {
		t.Errorf("language = %q", c.Language())
	}
}

func TestConfigCloneIsDeep(t *testing.T) {
	c := NewConfig()
	c.Pages = append(c.Pages, NewPage())
	c.Options["audio"] = true

	cp := c.Clone()
	cp.Pages[0].Media = "other"
	cp.Options["audio"] = false

	if c.Pages[0].Media != EmptyMedia {
		t.Error("clone shares pages")
	}
	if c.Options["audio"] != true {
		t.Error("clone shares options")
	}
}

func TestUnknownLayoutPreserved(t *testing.T) {
	var c Config
	payload := []byte(`{"pages": [{"media": "m", "layout": "side-by-side", "duration": "auto", "config": {}, "schedule": {"hours": []}}]}`)
	if err := json.Unmarshal(payload, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.Pages[0].Layout != "side-by-side" {
		t.Errorf("layout = %q, unknown layouts must round-trip", c.Pages[0].Layout)
	}
}
