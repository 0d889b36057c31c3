package render

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Markdown style names with their own config. The remaining names in
// AvailableThemes come straight from glamour.
const (
	StyleDark       = "dark"
	StyleLight      = "light"
	StyleTokyoNight = "tokyonight"
	StyleCatppuccin = "catppuccin"
)

// styleConfig resolves style names we define ourselves. Names owned
// by glamour return false and go through glamour's own lookup.
func styleConfig(name string) (ansi.StyleConfig, bool) {
	switch name {
	case StyleTokyoNight:
		return styles.TokyoNightStyleConfig, true
	case StyleCatppuccin:
		return catppuccinStyle(), true
	default:
		return ansi.StyleConfig{}, false
	}
}

// catppuccinStyle is glamour's dark style recolored with the
// Catppuccin Mocha palette, matching the TUI theme of the same name.
func catppuccinStyle() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	cfg.Document.Color = hex("#cdd6f4")
	cfg.BlockQuote.Color = hex("#6c7086")
	cfg.Heading.Color = hex("#cba6f7")
	cfg.H1.Color = hex("#1e1e2e")
	cfg.H1.BackgroundColor = hex("#89b4fa")
	cfg.Emph.Color = hex("#f9e2af")
	cfg.Strong.Color = hex("#fab387")
	cfg.HorizontalRule.Color = hex("#45475a")
	cfg.Link.Color = hex("#89dceb")
	cfg.LinkText.Color = hex("#89b4fa")
	cfg.Code.Color = hex("#a6e3a1")
	cfg.Code.BackgroundColor = hex("#313244")
	return cfg
}

func hex(s string) *string { return &s }

// IsBuiltinStyle reports whether the name needs no style file on disk.
func IsBuiltinStyle(style string) bool {
	switch style {
	case StyleDark, StyleLight, StyleTokyoNight, StyleCatppuccin:
		return true
	case "dracula", "notty", "ascii":
		return true
	default:
		return false
	}
}

// ThemeInfo describes a markdown style for listings.
type ThemeInfo struct {
	Name        string
	Description string
}

// AvailableThemes lists the selectable markdown styles.
func AvailableThemes() []ThemeInfo {
	return []ThemeInfo{
		{Name: StyleDark, Description: "Dark theme (default)"},
		{Name: StyleTokyoNight, Description: "Tokyo Night color scheme"},
		{Name: StyleCatppuccin, Description: "Catppuccin Mocha color scheme"},
		{Name: StyleLight, Description: "Light theme for bright terminals"},
		{Name: "dracula", Description: "Dracula color scheme"},
		{Name: "notty", Description: "Plain text (no styling)"},
		{Name: "ascii", Description: "ASCII-only output"},
	}
}

// ThemeNames returns just the style names, in listing order.
func ThemeNames() []string {
	themes := AvailableThemes()
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
