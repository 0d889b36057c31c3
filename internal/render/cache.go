package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPools keeps one sync.Pool of glamour renderers per distinct
// option set. Building a TermRenderer parses the whole style config,
// so reuse pays off when a conversation renders many messages at the
// same width.
type rendererPools struct {
	mu sync.RWMutex
	m  map[string]*sync.Pool
}

var pools = &rendererPools{m: make(map[string]*sync.Pool)}

func poolKey(opts Options) string {
	return fmt.Sprintf("%s:%d:%t:%t:%t:%t",
		opts.Style,
		opts.Width,
		opts.EnableEmoji,
		opts.PreserveNewLines,
		opts.TableWrap,
		opts.InlineTableLinks,
	)
}

func (p *rendererPools) poolFor(opts Options) *sync.Pool {
	key := poolKey(opts)

	p.mu.RLock()
	pool, ok := p.m[key]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.m[key]; ok {
		return pool
	}

	pool = &sync.Pool{
		New: func() interface{} {
			renderer, err := newRenderer(opts)
			if err != nil {
				return nil
			}
			return renderer
		},
	}
	p.m[key] = pool
	return pool
}

func (p *rendererPools) get(opts Options) (*glamour.TermRenderer, error) {
	renderer := p.poolFor(opts).Get()
	if renderer == nil {
		// The pool's New swallowed a construction error; redo it
		// directly to surface the error to the caller.
		return newRenderer(opts)
	}
	return renderer.(*glamour.TermRenderer), nil
}

func (p *rendererPools) put(opts Options, renderer *glamour.TermRenderer) {
	if renderer == nil {
		return
	}
	p.poolFor(opts).Put(renderer)
}

// newRenderer builds a TermRenderer for the option set. Styles we
// define ourselves resolve to a style config; everything else is
// handed to glamour as a style name or file path.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}

	if cfg, ok := styleConfig(opts.Style); ok {
		rendererOpts = append(rendererOpts, glamour.WithStyles(cfg))
	} else {
		rendererOpts = append(rendererOpts, glamour.WithStylePath(opts.Style))
	}

	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// resetPools drops every cached pool. Tests use it to start clean.
func resetPools() {
	pools.mu.Lock()
	pools.m = make(map[string]*sync.Pool)
	pools.mu.Unlock()
}

// poolCount reports how many distinct option sets have pools.
func poolCount() int {
	pools.mu.RLock()
	defer pools.mu.RUnlock()
	return len(pools.m)
}
