// Package presentation turns aggregation results into themed KPI cards and
// Plotly figure specs that the browser renders as-is.
package presentation

import (
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

// ThemeOf maps the UI's dark toggle to a Theme.
func ThemeOf(dark bool) Theme {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}

func (t Theme) Dark() bool { return t == ThemeDark }

type Palette struct {
	Background string `json:"bg"`
	Card       string `json:"card"`
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	Accent     string `json:"accent"`
	Grid       string `json:"grid"`
	Positive   string `json:"pos"`
	Negative   string `json:"neg"`
	Warn       string `json:"warn"`
}

var (
	darkPalette = Palette{
		Background: "#111418",
		Card:       "#1B1F24",
		Text:       "#E6E6E6",
		Muted:      "#9AA0A6",
		Accent:     "#3B82F6",
		Grid:       "#2E353D",
		Positive:   "#10B981",
		Negative:   "#EF4444",
		Warn:       "#F59E0B",
	}
	lightPalette = Palette{
		Background: "#F7F9FC",
		Card:       "#FFFFFF",
		Text:       "#0A2540",
		Muted:      "#6B7280",
		Accent:     "#2563EB",
		Grid:       "#E5E7EB",
		Positive:   "#10B981",
		Negative:   "#EF4444",
		Warn:       "#F59E0B",
	}
)

func (t Theme) Palette() Palette {
	if t.Dark() {
		return darkPalette
	}
	return lightPalette
}
