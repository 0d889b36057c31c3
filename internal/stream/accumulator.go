package stream

import (
	"strings"
	"time"

	"github.com/bbarni2020/AI/internal/models"
)

// Cursor marks the live end of an in-progress response.
const Cursor = "▌"

// RenderFunc converts raw markdown into display text. The accumulator falls
// back to the raw text when rendering fails, so formatting problems never
// lose content.
type RenderFunc func(markdown string) (string, error)

// Sink receives display updates for the message currently streaming.
type Sink interface {
	// Update delivers a re-rendered partial view, cursor included.
	Update(rendered string)
	// Final delivers the finalized message and its last full render.
	Final(msg models.Message, rendered string)
	// Failed delivers a user-visible error in place of the partial content.
	Failed(userMessage string)
}

// Accumulator buffers the text of one streaming response and decides when a
// re-render is worth doing. Deltas are concatenated strictly in receipt
// order; chunk boundaries may split markdown syntax, so no reordering or
// trimming is allowed. Re-renders are throttled by word count: a delta that
// does not complete a new whitespace-delimited token is buffered without a
// render. The throttle only affects intermediate updates, the final content
// is always exact.
type Accumulator struct {
	buf    strings.Builder
	words  int
	render RenderFunc
	sink   Sink
	done   bool
}

// NewAccumulator creates an accumulator that renders via render and reports
// to sink.
func NewAccumulator(render RenderFunc, sink Sink) *Accumulator {
	if render == nil {
		render = func(s string) (string, error) { return s, nil }
	}
	return &Accumulator{render: render, sink: sink}
}

// Append concatenates delta into the buffer and re-renders if the word
// count grew.
func (a *Accumulator) Append(delta string) {
	if a.done || delta == "" {
		return
	}
	a.buf.WriteString(delta)

	n := len(strings.Fields(a.buf.String()))
	if n <= a.words {
		return
	}
	a.words = n
	a.sink.Update(a.renderSafe(a.buf.String()) + Cursor)
}

// Finalize performs one last full render without the cursor and converts the
// buffer into an immutable message carrying the terminal event's metadata.
func (a *Accumulator) Finalize(id string, done *models.StreamEvent) models.Message {
	content := a.buf.String()
	msg := models.Message{
		ID:        id,
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
	if done != nil {
		msg.Model = done.Model
		msg.Sources = done.Sources
		msg.Meta = done.Meta
	}

	a.reset()
	a.sink.Final(msg, a.renderSafe(content))
	return msg
}

// Fail discards the in-progress buffer entirely and surfaces the error in
// its place. The partial text is never persisted.
func (a *Accumulator) Fail(userMessage string) {
	a.reset()
	a.sink.Failed(userMessage)
}

// Content returns the raw buffered text so far.
func (a *Accumulator) Content() string {
	return a.buf.String()
}

// Discard drops any buffered text without notifying the sink, for teardown
// on conversation switch.
func (a *Accumulator) Discard() {
	a.reset()
}

func (a *Accumulator) reset() {
	a.buf.Reset()
	a.words = 0
	a.done = true
}

func (a *Accumulator) renderSafe(content string) string {
	out, err := a.render(content)
	if err != nil {
		return content
	}
	return out
}
