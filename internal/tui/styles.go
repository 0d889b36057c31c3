// Package tui provides the terminal user interface for aichat.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/render"
)

// Color variables (updated from theme)
var (
	// Base colors
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	// Accent colors
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	// Text colors
	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	// Header panel style
	headerStyle lipgloss.Style

	// Title style for header
	titleStyle lipgloss.Style

	// Subtitle/model name style
	subtitleStyle lipgloss.Style

	// Hint text style
	hintStyle lipgloss.Style

	// Messages area panel
	messagesAreaStyle lipgloss.Style

	// User message bubble
	userBubbleStyle lipgloss.Style

	// User label style
	userLabelStyle lipgloss.Style

	// Assistant message bubble
	assistantBubbleStyle lipgloss.Style

	// Assistant label style
	assistantLabelStyle lipgloss.Style

	// System notice style
	noticeStyle lipgloss.Style

	// Meta line under assistant messages
	metaLineStyle lipgloss.Style

	// Sources block style
	sourcesStyle lipgloss.Style

	// Per-model breakdown panel
	breakdownStyle lipgloss.Style

	// Input area panel
	inputPanelStyle lipgloss.Style

	// Input label style
	inputLabelStyle lipgloss.Style

	// Loading/spinner style
	loadingStyle lipgloss.Style

	// Status bar styles
	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style

	// Error style
	errorStyle lipgloss.Style

	// Welcome styles
	welcomeStyle      lipgloss.Style
	welcomeTitleStyle lipgloss.Style
	welcomeIconStyle  lipgloss.Style

	// Selector menu styles
	selectorHeaderStyle    lipgloss.Style
	selectorTitleStyle     lipgloss.Style
	selectorPanelStyle     lipgloss.Style
	selectorItemStyle      lipgloss.Style
	selectorSelectedStyle  lipgloss.Style
	selectorCursorStyle    lipgloss.Style
	selectorValueStyle     lipgloss.Style
	selectorTimeStyle      lipgloss.Style
	selectorStatusBarStyle lipgloss.Style
)

// init loads the default theme on package initialization
func init() {
	UpdateTheme()
}

// ApplyTheme activates the named color theme and rebuilds every style.
// Unknown names leave the current theme in place. Call it before
// starting a bubbletea program so the configured theme takes effect.
func ApplyTheme(name string) {
	if render.SetTUITheme(name) {
		UpdateTheme()
	}
}

// UpdateTheme refreshes all styles based on the current TUI theme
func UpdateTheme() {
	theme := render.GetTUITheme()

	// Update color variables
	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute

	// Rebuild all styles with new colors
	rebuildStyles()
}

// rebuildStyles creates all lipgloss styles with current color values
func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2).
		MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginBottom(0).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginBottom(0)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Italic(true).
		MarginLeft(2)

	metaLineStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	sourcesStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		MarginLeft(2)

	breakdownStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorTextDim).
		BorderLeft(true).
		Foreground(colorTextDim).
		PaddingLeft(1).
		MarginLeft(1).
		Italic(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		MarginTop(1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		MarginTop(1)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	welcomeStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2).
		MarginBottom(1).
		Align(lipgloss.Center)

	welcomeTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginBottom(1)

	welcomeIconStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		MarginBottom(1)

	selectorHeaderStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginBottom(1).
		Align(lipgloss.Center)

	selectorTitleStyle = lipgloss.NewStyle().
		Foreground(colorText).
		Bold(true).
		MarginBottom(1).
		PaddingLeft(1)

	selectorPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2)

	selectorItemStyle = lipgloss.NewStyle().
		Foreground(colorText).
		PaddingLeft(2)

	selectorSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	selectorCursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	selectorValueStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	selectorTimeStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	selectorStatusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		MarginTop(1).
		Align(lipgloss.Center)
}

// FormatError returns a styled error message with additional context
// from structured API errors.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", apiErr.StatusCode)))
		}
		if apiErr.Code != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Error Code: %s", apiErr.Code)))
		}
		if apiErr.Endpoint != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", apiErr.Endpoint)))
		}
	}

	if hint := apierrors.UserMessage(err); hint != "" {
		sb.WriteString(dimStyle.Render("\n  Hint: " + hint))
	}

	return sb.String()
}

// PrintError prints a styled error message.
func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Println(FormatError(err))
}
