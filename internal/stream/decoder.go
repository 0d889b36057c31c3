// Package stream consumes a chat response stream: it decodes
// marker-prefixed JSON records into typed events and accumulates content
// deltas for incremental display.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"

	"github.com/bbarni2020/AI/internal/models"
)

// Marker prefixes every payload-carrying record on the wire.
const Marker = "data: "

// EventFunc handles one decoded event. Returning false stops processing.
type EventFunc func(e *models.StreamEvent) bool

// Decoder turns a raw byte stream into discrete typed events. The transport
// may split a record (or a multi-byte character) across reads; a record is
// only parsed once its newline terminator has arrived.
type Decoder struct {
	reader  *bufio.Reader
	dropped int
	eof     bool
	logf    func(format string, args ...any)
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader: bufio.NewReader(r),
		logf:   log.Printf,
	}
}

// SetLogf replaces the diagnostic logger. Useful to silence tests.
func (d *Decoder) SetLogf(logf func(format string, args ...any)) {
	d.logf = logf
}

// Next returns the next decoded event, or io.EOF at end of stream.
// Malformed records are logged and skipped; a single bad record never aborts
// the stream.
func (d *Decoder) Next() (*models.StreamEvent, error) {
	for {
		if d.eof {
			return nil, io.EOF
		}

		line, err := d.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			// The connection closed without a final terminator; whatever
			// arrived is complete now, so let it through once.
			d.eof = true
			if strings.TrimSpace(line) == "" {
				return nil, io.EOF
			}
		}

		event, ok := d.decodeLine(line)
		if ok {
			return event, nil
		}
	}
}

// decodeLine parses one terminator-delimited record. Blank lines, comment
// lines and non-payload fields are skipped silently; records with a payload
// that fails to parse are counted and logged.
func (d *Decoder) decodeLine(line string) (*models.StreamEvent, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, ":") {
		return nil, false
	}
	if !strings.HasPrefix(line, Marker) {
		return nil, false
	}

	payload := line[len(Marker):]
	var event models.StreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		d.dropped++
		d.logf("stream: skipping malformed record: %v", err)
		return nil, false
	}
	return &event, true
}

// Dropped returns how many malformed records were skipped.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Process reads events until the stream ends, the context is cancelled, or
// fn returns false. Keepalive events are skipped. A clean end of stream
// returns nil.
func (d *Decoder) Process(ctx context.Context, fn EventFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event, err := d.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if event.Keepalive() {
			continue
		}
		if !fn(event) {
			return nil
		}
	}
}
