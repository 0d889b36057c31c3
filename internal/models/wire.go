package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// ChatRequest is the body for starting or continuing a conversation.
type ChatRequest struct {
	Message        string   `json:"message"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Model          string   `json:"model,omitempty"`
	Attachments    []string `json:"attachments,omitempty"`
	UseWebSearch   bool     `json:"use_web_search,omitempty"`
	Mode           string   `json:"mode,omitempty"`
	Stream         bool     `json:"stream,omitempty"`
}

// ChatResponse is the non-streamed reply to a ChatRequest.
type ChatResponse struct {
	Message        string
	Images         []string
	Sources        []Source
	Model          string
	Meta           Meta
	ConversationID string
	Title          string
}

// UnmarshalJSON tolerates image entries in either wire shape and numeric
// conversation ids.
func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid response JSON")
	}
	v := gjson.ParseBytes(data)
	r.Message = v.Get("message").String()
	r.Images = parseImageList(v.Get("images"))
	r.Model = v.Get("model").String()
	r.ConversationID = v.Get("conversation_id").String()
	r.Title = v.Get("title").String()
	if s := v.Get("sources"); s.IsArray() {
		if err := json.Unmarshal([]byte(s.Raw), &r.Sources); err != nil {
			return fmt.Errorf("response sources: %w", err)
		}
	}
	if meta := v.Get("meta"); meta.IsObject() {
		if err := json.Unmarshal([]byte(meta.Raw), &r.Meta); err != nil {
			return fmt.Errorf("response meta: %w", err)
		}
	}
	return nil
}

// ConversationSummary is one entry in the history list.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// UnmarshalJSON tolerates numeric ids, which the server emits for
// conversations backed by integer keys.
func (c *ConversationSummary) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid summary JSON")
	}
	v := gjson.ParseBytes(data)
	c.ID = v.Get("id").String()
	c.Title = v.Get("title").String()
	if ts := v.Get("updated_at"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339, ts.String()); err == nil {
			c.UpdatedAt = t
		}
	}
	return nil
}

// Conversation is a full conversation fetch.
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// UnmarshalJSON tolerates numeric ids.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid conversation JSON")
	}
	v := gjson.ParseBytes(data)
	c.ID = v.Get("id").String()
	c.Title = v.Get("title").String()
	if msgs := v.Get("messages"); msgs.IsArray() {
		if err := json.Unmarshal([]byte(msgs.Raw), &c.Messages); err != nil {
			return fmt.Errorf("conversation messages: %w", err)
		}
	}
	return nil
}

// Room is a shared collaboration room.
type Room struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	LastMessage  string `json:"last_message,omitempty"`
}
