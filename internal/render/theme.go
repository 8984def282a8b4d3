package render

import (
	"embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "mocha"

// Theme holds the colors of a timeline theme.
type Theme struct {
	Name    string `toml:"name"`
	Bg      string `toml:"bg"`       // Base background
	Fg      string `toml:"fg"`       // Primary foreground
	FgMuted string `toml:"fg_muted"` // Past blocks, hints
	Accent  string `toml:"accent"`   // Headers, now marker
	Task    string `toml:"task"`     // Planned work
	Done    string `toml:"done"`     // Completed work
	Event   string `toml:"event"`    // Fixed events
	Pause   string `toml:"pause"`    // Pauses
	Current string `toml:"current"`  // Running task

	// Optional overrides
	NowMarker string `toml:"now_marker"`
}

// Load loads a theme by name from the embedded files.
// Unknown names fall back to mocha.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultTheme
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		if name != DefaultTheme {
			return Load(DefaultTheme)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Theme) applyDefaults() {
	if t.Done == "" {
		t.Done = coalesce(t.FgMuted, t.Task)
	}
	if t.Current == "" {
		t.Current = t.Accent
	}
	if t.NowMarker == "" {
		t.NowMarker = coalesce(t.Current, t.Accent)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns the embedded theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	name = strings.ToLower(name)
	for _, themeName := range Available() {
		if themeName == name {
			return true
		}
	}
	return false
}
