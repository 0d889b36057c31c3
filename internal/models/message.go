// Package models contains data types shared by the chat client packages.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Source is a citation attached to an assistant message that was produced
// with web-search augmentation.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MetaCandidate is one model's contribution to an aggregated response.
type MetaCandidate struct {
	Model   string `json:"model"`
	Excerpt string `json:"excerpt"`
}

// Meta carries structured metadata for a message. Candidates and
// AggregatorModel are only set for aggregated (ultimate mode) responses.
// Unknown keys survive a decode/encode round trip through Extra.
type Meta struct {
	Mode            string                     `json:"mode,omitempty"`
	Candidates      []MetaCandidate            `json:"candidates,omitempty"`
	AggregatorModel string                     `json:"aggregator_model,omitempty"`
	Extra           map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps unrecognized keys in Extra.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["mode"]; ok {
		if err := json.Unmarshal(v, &m.Mode); err != nil {
			return fmt.Errorf("meta.mode: %w", err)
		}
		delete(raw, "mode")
	}
	if v, ok := raw["candidates"]; ok {
		if err := json.Unmarshal(v, &m.Candidates); err != nil {
			return fmt.Errorf("meta.candidates: %w", err)
		}
		delete(raw, "candidates")
	}
	if v, ok := raw["aggregator_model"]; ok {
		if err := json.Unmarshal(v, &m.AggregatorModel); err != nil {
			return fmt.Errorf("meta.aggregator_model: %w", err)
		}
		delete(raw, "aggregator_model")
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// MarshalJSON merges Extra back in alongside the typed fields.
func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+3)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Mode != "" {
		out["mode"] = m.Mode
	}
	if len(m.Candidates) > 0 {
		out["candidates"] = m.Candidates
	}
	if m.AggregatorModel != "" {
		out["aggregator_model"] = m.AggregatorModel
	}
	return json.Marshal(out)
}

// IsZero reports whether the meta carries no information.
func (m Meta) IsZero() bool {
	return m.Mode == "" && len(m.Candidates) == 0 && m.AggregatorModel == "" && len(m.Extra) == 0
}

// User identifies the sender of a message in a shared room.
type User struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

// DisplayName returns the best available label for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Message is one entry in a conversation. A message is immutable once it has
// been accepted into a store; the streaming in-progress buffer is a separate,
// not-yet-finalized entity.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	Sources   []Source  `json:"sources,omitempty"`
	Model     string    `json:"model,omitempty"`
	Meta      Meta      `json:"meta,omitzero"`
	User      *User     `json:"user,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// UnmarshalJSON decodes a message tolerantly: content may be a plain string
// or a structured list of parts, images may be bare URL strings or {url}
// objects, and ids may arrive as numbers.
func (msg *Message) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid message JSON")
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return fmt.Errorf("message is not an object")
	}

	msg.ID = v.Get("id").String()
	msg.Role = v.Get("role").String()
	msg.Content = NormalizeContent(v.Get("content"))
	msg.Images = parseImageList(v.Get("images"))
	msg.Model = v.Get("model").String()

	if s := v.Get("sources"); s.IsArray() {
		if err := json.Unmarshal([]byte(s.Raw), &msg.Sources); err != nil {
			return fmt.Errorf("message sources: %w", err)
		}
	}
	if meta := v.Get("meta"); meta.IsObject() {
		if err := json.Unmarshal([]byte(meta.Raw), &msg.Meta); err != nil {
			return fmt.Errorf("message meta: %w", err)
		}
	}
	if u := v.Get("user"); u.IsObject() {
		msg.User = &User{
			Name:    u.Get("name").String(),
			Email:   u.Get("email").String(),
			Picture: u.Get("picture").String(),
		}
	}
	if ts := v.Get("timestamp"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339, ts.String()); err == nil {
			msg.Timestamp = t
		}
	}
	return nil
}

// NormalizeContent flattens a content value to a display string. Structured
// part lists keep their text parts in order; attachment references are
// carried separately as images and skipped here.
func NormalizeContent(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.String()
	case v.IsArray():
		var b strings.Builder
		v.ForEach(func(_, part gjson.Result) bool {
			switch {
			case part.Type == gjson.String:
				b.WriteString(part.String())
			case part.IsObject():
				if t := part.Get("text"); t.Exists() {
					b.WriteString(t.String())
				}
			}
			return true
		})
		return b.String()
	case v.Exists():
		return v.String()
	default:
		return ""
	}
}

// parseImageList accepts both bare URL strings and {url} objects.
func parseImageList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var images []string
	v.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Type == gjson.String:
			if item.String() != "" {
				images = append(images, item.String())
			}
		case item.IsObject():
			if url := item.Get("url").String(); url != "" {
				images = append(images, url)
			}
		}
		return true
	})
	return images
}
