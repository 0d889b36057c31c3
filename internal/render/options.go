package render

// Options configures markdown rendering.
type Options struct {
	// Width is the wrap width for the rendered output.
	Width int

	// Style names the color style: one of ThemeNames(), any other
	// glamour style name, or a path to a glamour style JSON file.
	Style string

	// EnableEmoji converts :emoji: shortcodes to unicode.
	EnableEmoji bool

	// PreserveNewLines keeps the original line breaks instead of
	// reflowing paragraphs.
	PreserveNewLines bool

	// TableWrap wraps long text inside table cells.
	TableWrap bool

	// InlineTableLinks prints link targets inline in tables rather
	// than as footnotes.
	InlineTableLinks bool
}

// DefaultOptions returns the rendering defaults used when no config
// is loaded.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}
