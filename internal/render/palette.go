package render

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the colors derived from a Theme.
type Palette struct {
	Fg      lipgloss.Color
	FgMuted lipgloss.Color
	Accent  lipgloss.Color
	Now     lipgloss.Color

	Task    lipgloss.Color
	Done    lipgloss.Color
	Event   lipgloss.Color
	Pause   lipgloss.Color
	Current lipgloss.Color

	TaskBg      lipgloss.Color
	TaskPastBg  lipgloss.Color
	EventBg     lipgloss.Color
	EventPastBg lipgloss.Color
	PauseBg     lipgloss.Color

	TextOnTask  lipgloss.Color
	TextOnEvent lipgloss.Color
}

// NewPalette derives a Palette from t. A nil theme uses mocha.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultTheme)
	}

	isLight := isLightTheme(t.Bg)
	taskBg := baseBg(t.Task, t.Bg, isLight)
	eventBg := baseBg(t.Event, t.Bg, isLight)

	return &Palette{
		Fg:      lipgloss.Color(t.Fg),
		FgMuted: lipgloss.Color(t.FgMuted),
		Accent:  lipgloss.Color(t.Accent),
		Now:     lipgloss.Color(t.NowMarker),

		Task:    lipgloss.Color(t.Task),
		Done:    lipgloss.Color(t.Done),
		Event:   lipgloss.Color(t.Event),
		Pause:   lipgloss.Color(t.Pause),
		Current: lipgloss.Color(t.Current),

		TaskBg:      lipgloss.Color(taskBg),
		TaskPastBg:  lipgloss.Color(mutedBg(t.Task, t.Bg, isLight)),
		EventBg:     lipgloss.Color(eventBg),
		EventPastBg: lipgloss.Color(mutedBg(t.Event, t.Bg, isLight)),
		PauseBg:     lipgloss.Color(mutedBg(t.Pause, t.Bg, isLight)),

		TextOnTask:  lipgloss.Color(chooseTextColor(taskBg, t.Fg, t.Bg)),
		TextOnEvent: lipgloss.Color(chooseTextColor(eventBg, t.Fg, t.Bg)),
	}
}

// TagColor returns the tag color as a lipgloss color, or fallback when the
// tag has none.
func TagColor(hex string, fallback lipgloss.Color) lipgloss.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return fallback
	}
	return lipgloss.Color(hex)
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

func baseBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.75)
	}
	return scaleColor(accent, 0.50, 40)
}

func mutedBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.88)
	}
	return scaleColor(accent, 0.30, 30)
}

// scaleColor darkens hex by factor, keeping every channel at or above floor
// so blocks stay visible on dark backgrounds.
func scaleColor(hex string, factor float64, floor int) string {
	r, g, b, ok := splitHex(hex)
	if !ok {
		return hex
	}
	scale := func(c int) int { return max(floor, int(float64(c)*factor)) }
	return formatHexColor(scale(r), scale(g), scale(b))
}

func splitHex(hex string) (r, g, b int, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	parseHex(hex[1:3], &r)
	parseHex(hex[3:5], &g)
	parseHex(hex[5:7], &b)
	return r, g, b, true
}

// parseHex parses a 2-character hex string into an integer.
func parseHex(s string, v *int) {
	var val int
	for i := 0; i < len(s); i++ {
		val *= 16
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	*v = val
}

// formatHexColor formats RGB values as a hex color string.
func formatHexColor(r, g, b int) string {
	const hex = "0123456789abcdef"
	result := make([]byte, 7)
	result[0] = '#'
	result[1] = hex[r>>4]
	result[2] = hex[r&0xf]
	result[3] = hex[g>>4]
	result[4] = hex[g&0xf]
	result[5] = hex[b>>4]
	result[6] = hex[b&0xf]
	return string(result)
}

func chooseTextColor(bg, lightText, darkText string) string {
	if contrastRatio(bg, lightText) >= contrastRatio(bg, darkText) {
		return lightText
	}
	return darkText
}

func contrastRatio(a, b string) float64 {
	l1 := relativeLuminance(a)
	l2 := relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	r, g, b, ok := splitHex(hex)
	if !ok {
		return 0
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b)
}

func srgbToLinear(c int) float64 {
	v := float64(c) / 255.0
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func blendColors(a, b string, ratio float64) string {
	ar, ag, ab, okA := splitHex(a)
	br, bg, bb, okB := splitHex(b)
	if !okA || !okB {
		return a
	}
	ratio = min(1, max(0, ratio))

	mix := func(x, y int) int { return int(float64(x)*(1-ratio) + float64(y)*ratio) }
	return formatHexColor(mix(ar, br), mix(ag, bg), mix(ab, bb))
}
