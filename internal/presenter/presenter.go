// Package presenter converts finalized messages into terminal-ready
// display blocks. It owns the meta line, source list and per-model
// breakdown formatting so the CLI and the TUI render messages the same
// way.
package presenter

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/render"
)

// BreakdownEntry is one model's contribution to an aggregated answer.
type BreakdownEntry struct {
	Model        string
	Excerpt      string
	IsAggregator bool
}

// DisplayMessage is a message prepared for terminal output.
type DisplayMessage struct {
	Role      string
	Label     string // "You", display name, or "AI"
	Body      string // rendered markdown, raw content on render failure
	MetaLine  string // "model • mode • sender", empty when nothing applies
	Sources   []string
	Breakdown []BreakdownEntry
	Images    []string
}

// Presenter formats messages at a fixed content width.
type Presenter struct {
	width int
	opts  render.Options
}

// New creates a presenter rendering markdown at the given width.
func New(width int) *Presenter {
	if width <= 0 {
		width = 80
	}
	return &Presenter{
		width: width,
		opts:  render.LoadOptionsFromConfigWithWidth(width),
	}
}

// NewWithOptions creates a presenter with explicit render options.
func NewWithOptions(width int, opts render.Options) *Presenter {
	if width <= 0 {
		width = 80
	}
	opts.Width = width
	return &Presenter{width: width, opts: opts}
}

// Format prepares one message for display.
func (p *Presenter) Format(msg models.Message) DisplayMessage {
	out := DisplayMessage{
		Role:     msg.Role,
		Label:    p.label(msg),
		Body:     p.renderBody(msg.Content),
		MetaLine: MetaLine(msg),
		Images:   msg.Images,
	}

	for _, src := range msg.Sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		out.Sources = append(out.Sources, fmt.Sprintf("%s (%s)", title, src.URL))
	}

	out.Breakdown = Breakdown(msg.Meta)

	return out
}

// RenderMarkdown renders raw markdown at the presenter's width, falling
// back to the input on failure. Usable as a stream render function.
func (p *Presenter) RenderMarkdown(content string) (string, error) {
	rendered, err := render.Markdown(content, p.opts)
	if err != nil {
		return content, err
	}
	return strings.TrimRight(rendered, "\n"), nil
}

func (p *Presenter) renderBody(content string) string {
	rendered, err := p.RenderMarkdown(content)
	if err != nil {
		return content
	}
	return rendered
}

func (p *Presenter) label(msg models.Message) string {
	switch msg.Role {
	case models.RoleAssistant:
		return "AI"
	case models.RoleSystem:
		return "System"
	default:
		if msg.User != nil {
			if name := msg.User.DisplayName(); name != "" {
				return name
			}
		}
		return "You"
	}
}

// MetaLine builds the "model • mode • sender" line for a message.
// Parts that are unknown are left out; an empty string means there is
// nothing worth showing.
func MetaLine(msg models.Message) string {
	var parts []string
	if msg.Model != "" {
		parts = append(parts, msg.Model)
	}
	if msg.Meta.Mode != "" {
		parts = append(parts, models.ModeLabel(msg.Meta.Mode))
	}
	if msg.User != nil {
		if name := msg.User.DisplayName(); name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " • ")
}

// Breakdown extracts the per-model entries of an aggregated answer,
// marking the aggregator. Returns nil when the answer came from a
// single model.
func Breakdown(meta models.Meta) []BreakdownEntry {
	if len(meta.Candidates) == 0 {
		return nil
	}
	entries := make([]BreakdownEntry, 0, len(meta.Candidates)+1)
	sawAggregator := false
	for _, cand := range meta.Candidates {
		isAgg := cand.Model != "" && cand.Model == meta.AggregatorModel
		sawAggregator = sawAggregator || isAgg
		entries = append(entries, BreakdownEntry{
			Model:        cand.Model,
			Excerpt:      cand.Excerpt,
			IsAggregator: isAgg,
		})
	}
	// The combining model does not always answer as a candidate itself;
	// it still belongs in the breakdown.
	if meta.AggregatorModel != "" && !sawAggregator {
		entries = append(entries, BreakdownEntry{
			Model:        meta.AggregatorModel,
			IsAggregator: true,
		})
	}
	return entries
}

// CopyToClipboard puts the raw message content on the system clipboard.
func CopyToClipboard(msg models.Message) error {
	return clipboard.WriteAll(msg.Content)
}
