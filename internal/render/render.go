// Package render turns markdown into styled terminal output and owns
// the color themes shared by the one-shot CLI path and the TUI.
package render

// Markdown renders markdown content for terminal display. Renderers
// are pooled per option set; glamour's TermRenderer is not safe for
// concurrent Render calls, the pool hands each caller its own.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := pools.get(opts)
	if err != nil {
		return "", err
	}
	defer pools.put(opts, renderer)

	return renderer.Render(content)
}

// MarkdownWithWidth renders with the default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	opts := DefaultOptions()
	opts.Width = width
	return Markdown(content, opts)
}
