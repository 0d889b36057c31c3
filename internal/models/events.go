package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventType identifies a stream event variant.
type EventType string

// Chat-stream variants. Exactly one terminal event (done or error) occurs
// per stream; start occurs at most once, only when the client had no
// conversation id yet.
const (
	EventStart   EventType = "start"
	EventContent EventType = "content"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Transport keepalives, ignored by consumers.
const (
	EventPing  EventType = "ping"
	EventReady EventType = "ready"
)

// Room broadcast variants.
const (
	EventMessage             EventType = "message"
	EventAIStart             EventType = "ai_start"
	EventAIDelta             EventType = "ai_delta"
	EventRoomDeleted         EventType = "room_deleted"
	EventSystemPromptUpdated EventType = "system_prompt_updated"
	EventChatCleared         EventType = "chat_cleared"
)

// StreamEvent is one decoded record from a chat or room stream. Type selects
// which payload fields are meaningful.
type StreamEvent struct {
	Type           EventType
	ConversationID string   // start
	Delta          string   // content, ai_delta
	Model          string   // done, ai_start
	Sources        []Source // done
	Meta           Meta     // done
	Message        *Message // message
	ErrorMessage   string   // error
	SystemPrompt   string   // system_prompt_updated
}

// Terminal reports whether the event ends a chat stream.
func (e *StreamEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// Keepalive reports whether the event carries no payload and should be
// skipped.
func (e *StreamEvent) Keepalive() bool {
	return e.Type == EventPing || e.Type == EventReady
}

// UnmarshalJSON decodes the tagged union. The wire reuses the "message" key
// for both the error text (a string) and room message broadcasts (an
// object), so decoding dispatches on the declared type.
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid event JSON")
	}
	v := gjson.ParseBytes(data)
	if !v.IsObject() {
		return fmt.Errorf("event is not an object")
	}

	e.Type = EventType(v.Get("type").String())
	if e.Type == "" {
		return fmt.Errorf("event has no type")
	}

	switch e.Type {
	case EventStart:
		e.ConversationID = v.Get("conversation_id").String()
	case EventContent:
		e.Delta = v.Get("delta").String()
	case EventDone:
		e.Model = v.Get("model").String()
		e.ConversationID = v.Get("conversation_id").String()
		if s := v.Get("sources"); s.IsArray() {
			if err := json.Unmarshal([]byte(s.Raw), &e.Sources); err != nil {
				return fmt.Errorf("done sources: %w", err)
			}
		}
		if meta := v.Get("meta"); meta.IsObject() {
			if err := json.Unmarshal([]byte(meta.Raw), &e.Meta); err != nil {
				return fmt.Errorf("done meta: %w", err)
			}
		}
	case EventError:
		e.ErrorMessage = v.Get("message").String()
	case EventMessage:
		if m := v.Get("message"); m.IsObject() {
			var msg Message
			if err := json.Unmarshal([]byte(m.Raw), &msg); err != nil {
				return fmt.Errorf("message payload: %w", err)
			}
			e.Message = &msg
		}
	case EventAIStart:
		e.Model = v.Get("model").String()
	case EventAIDelta:
		e.Delta = v.Get("content").String()
	case EventSystemPromptUpdated:
		e.SystemPrompt = v.Get("system_prompt").String()
	case EventPing, EventReady, EventRoomDeleted, EventChatCleared:
		// No payload.
	}
	return nil
}
