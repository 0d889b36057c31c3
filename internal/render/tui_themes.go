package render

import (
	"github.com/charmbracelet/lipgloss"
)

// TUITheme is a named lipgloss palette for the interactive UI. The
// styles in internal/tui are rebuilt from the active theme.
type TUITheme struct {
	Name        string
	Description string

	Background lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var (
	// TokyoNightTheme is the default.
	TokyoNightTheme = TUITheme{
		Name:        "tokyonight",
		Description: "Tokyo Night - Dark theme with blue accents",

		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#24283b"),
		Border:     lipgloss.Color("#414868"),

		Primary:   lipgloss.Color("#7aa2f7"),
		Secondary: lipgloss.Color("#9ece6a"),
		Accent:    lipgloss.Color("#bb9af7"),
		Warning:   lipgloss.Color("#e0af68"),
		Error:     lipgloss.Color("#f7768e"),

		Text:     lipgloss.Color("#c0caf5"),
		TextDim:  lipgloss.Color("#565f89"),
		TextMute: lipgloss.Color("#3b4261"),
	}

	// CatppuccinMochaTheme uses the Catppuccin Mocha palette.
	CatppuccinMochaTheme = TUITheme{
		Name:        "catppuccin",
		Description: "Catppuccin Mocha - Warm dark theme with pastel colors",

		Background: lipgloss.Color("#1e1e2e"),
		Surface:    lipgloss.Color("#313244"),
		Border:     lipgloss.Color("#45475a"),

		Primary:   lipgloss.Color("#89b4fa"),
		Secondary: lipgloss.Color("#a6e3a1"),
		Accent:    lipgloss.Color("#cba6f7"),
		Warning:   lipgloss.Color("#f9e2af"),
		Error:     lipgloss.Color("#f38ba8"),

		Text:     lipgloss.Color("#cdd6f4"),
		TextDim:  lipgloss.Color("#6c7086"),
		TextMute: lipgloss.Color("#45475a"),
	}

	// NordTheme uses the Nord palette.
	NordTheme = TUITheme{
		Name:        "nord",
		Description: "Nord - Arctic-inspired theme with cool tones",

		Background: lipgloss.Color("#2e3440"),
		Surface:    lipgloss.Color("#3b4252"),
		Border:     lipgloss.Color("#4c566a"),

		Primary:   lipgloss.Color("#88c0d0"),
		Secondary: lipgloss.Color("#a3be8c"),
		Accent:    lipgloss.Color("#b48ead"),
		Warning:   lipgloss.Color("#ebcb8b"),
		Error:     lipgloss.Color("#bf616a"),

		Text:     lipgloss.Color("#eceff4"),
		TextDim:  lipgloss.Color("#7b88a1"),
		TextMute: lipgloss.Color("#4c566a"),
	}

	// DraculaTheme uses the Dracula palette.
	DraculaTheme = TUITheme{
		Name:        "dracula",
		Description: "Dracula - Dark theme with vibrant colors",

		Background: lipgloss.Color("#282a36"),
		Surface:    lipgloss.Color("#44475a"),
		Border:     lipgloss.Color("#6272a4"),

		Primary:   lipgloss.Color("#8be9fd"),
		Secondary: lipgloss.Color("#50fa7b"),
		Accent:    lipgloss.Color("#ff79c6"),
		Warning:   lipgloss.Color("#f1fa8c"),
		Error:     lipgloss.Color("#ff5555"),

		Text:     lipgloss.Color("#f8f8f2"),
		TextDim:  lipgloss.Color("#6272a4"),
		TextMute: lipgloss.Color("#44475a"),
	}
)

// tuiThemes lists the selectable themes in display order.
var tuiThemes = []TUITheme{
	TokyoNightTheme,
	CatppuccinMochaTheme,
	NordTheme,
	DraculaTheme,
}

var currentTUITheme = TokyoNightTheme

// GetTUITheme returns the active TUI theme.
func GetTUITheme() TUITheme {
	return currentTUITheme
}

// SetTUITheme activates the named theme. Returns false and leaves the
// active theme in place when the name is unknown.
func SetTUITheme(name string) bool {
	theme, ok := GetTUIThemeByName(name)
	if !ok {
		return false
	}
	currentTUITheme = theme
	return true
}

// GetTUIThemeByName looks up a theme by name.
func GetTUIThemeByName(name string) (TUITheme, bool) {
	for _, t := range tuiThemes {
		if t.Name == name {
			return t, true
		}
	}
	return TUITheme{}, false
}

// AvailableTUIThemes lists the selectable themes.
func AvailableTUIThemes() []TUITheme {
	out := make([]TUITheme, len(tuiThemes))
	copy(out, tuiThemes)
	return out
}

// TUIThemeNames returns just the theme names, in listing order.
func TUIThemeNames() []string {
	names := make([]string, len(tuiThemes))
	for i, t := range tuiThemes {
		names[i] = t.Name
	}
	return names
}
