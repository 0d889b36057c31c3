package session

import (
	"context"
	"io"
	"sync"
	"time"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/stream"
)

// Reconnect policy for the persistent room stream. The delay matches the
// backend's expectation of a short fixed backoff; the attempt cap keeps a
// dead server from being polled forever. The counter resets whenever a
// connection produces at least one event.
const (
	ReconnectDelay       = 1500 * time.Millisecond
	MaxReconnectAttempts = 10
)

// RoomBackend is the slice of the API client the room session needs.
type RoomBackend interface {
	Room(ctx context.Context, code string) (*models.Room, []models.Message, error)
	OpenRoomStream(ctx context.Context, code string) (io.ReadCloser, error)
	SendRoomMessage(ctx context.Context, code, text string) (*models.Message, error)
}

// RoomEvents receives room lifecycle notifications. Partial updates of a
// streaming AI answer go through the stream.Sink instead.
type RoomEvents interface {
	// MessageAdded fires for each message newly accepted into the store,
	// from history, broadcasts and local echo alike.
	MessageAdded(msg models.Message)
	// RoomDeleted fires when the room is dissolved server-side.
	RoomDeleted()
	// SystemPromptUpdated fires when the shared context changes.
	SystemPromptUpdated(prompt string)
	// ChatCleared fires when the room history is wiped.
	ChatCleared()
	// Notice carries user-visible system text (stream errors, reconnect
	// exhaustion).
	Notice(text string)
}

// RoomSession follows one shared room over its persistent event stream.
// A transport error triggers a bounded fixed-delay reconnect that keeps the
// room identity and all finalized messages; only an in-progress AI answer
// buffer is lost.
type RoomSession struct {
	backend RoomBackend
	store   *store.Store
	render  stream.RenderFunc
	sink    stream.Sink
	events  RoomEvents

	mu         sync.Mutex
	room       *models.Room
	generation int
	cancel     context.CancelFunc
	body       io.Closer
	acc        *stream.Accumulator
	streaming  bool
	wg         sync.WaitGroup

	reconnectDelay time.Duration
	maxReconnects  int
}

// NewRoomSession creates a session that reports to sink and events.
func NewRoomSession(backend RoomBackend, st *store.Store, render stream.RenderFunc, sink stream.Sink, events RoomEvents) *RoomSession {
	return &RoomSession{
		backend:        backend,
		store:          st,
		render:         render,
		sink:           sink,
		events:         events,
		reconnectDelay: ReconnectDelay,
		maxReconnects:  MaxReconnectAttempts,
	}
}

// Room returns the current room, nil when none is joined.
func (r *RoomSession) Room() *models.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room
}

// Messages returns the room's messages in arrival order.
func (r *RoomSession) Messages() []models.Message {
	r.mu.Lock()
	room := r.room
	r.mu.Unlock()
	if room == nil {
		return nil
	}
	return r.store.ListForConversation(room.Code)
}

// Join selects a room: loads its history into the store and starts the
// event stream. A previously joined room is fully torn down first,
// including any still-buffering partial answer.
func (r *RoomSession) Join(ctx context.Context, code string) (*models.Room, error) {
	room, history, err := r.backend.Room(ctx, code)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.teardownLocked()
	r.room = room
	gen := r.generation
	r.mu.Unlock()

	for _, msg := range history {
		if r.store.AddIfNew(code, msg) {
			r.events.MessageAdded(msg)
		}
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		cancel()
		return nil, apierrors.ErrSessionClosed
	}
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.follow(streamCtx, code, gen)

	return room, nil
}

// Send posts the user's message to the room. The stored message comes back
// with its server id and is echoed into the store immediately; the later
// broadcast of the same id is a no-op.
func (r *RoomSession) Send(ctx context.Context, text string) (*models.Message, error) {
	r.mu.Lock()
	room := r.room
	r.mu.Unlock()
	if room == nil {
		return nil, apierrors.ErrSessionClosed
	}

	msg, err := r.backend.SendRoomMessage(ctx, room.Code, text)
	if err != nil {
		return nil, err
	}
	if msg != nil && r.store.AddIfNew(room.Code, *msg) {
		r.events.MessageAdded(*msg)
	}
	return msg, nil
}

// Leave tears the session down. Safe to call more than once; closing the
// connection handle twice is safe.
func (r *RoomSession) Leave() {
	r.mu.Lock()
	r.teardownLocked()
	r.room = nil
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *RoomSession) teardownLocked() {
	r.generation++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.body != nil {
		_ = r.body.Close()
		r.body = nil
	}
	if r.acc != nil {
		r.acc.Discard()
		r.acc = nil
	}
	r.streaming = false
}

// follow owns the stream connection for one room generation, reconnecting
// with a fixed delay after transport errors until the attempt cap.
func (r *RoomSession) follow(ctx context.Context, code string, gen int) {
	defer r.wg.Done()

	attempts := 0
	for {
		if !r.currentGeneration(gen) || ctx.Err() != nil {
			return
		}

		body, err := r.backend.OpenRoomStream(ctx, code)
		if err != nil {
			attempts++
			if attempts >= r.maxReconnects {
				r.events.Notice(apierrors.UserMessage(apierrors.NewNetworkError("room stream", code, err)))
				return
			}
			if !sleepCtx(ctx, r.reconnectDelay) {
				return
			}
			continue
		}

		r.mu.Lock()
		if gen != r.generation {
			r.mu.Unlock()
			_ = body.Close()
			return
		}
		r.body = body
		r.mu.Unlock()

		received := false
		dec := stream.NewDecoder(body)
		_ = dec.Process(ctx, func(e *models.StreamEvent) bool {
			if !r.currentGeneration(gen) {
				return false
			}
			received = true
			r.handleEvent(code, e)
			return true
		})
		_ = body.Close()

		if !r.currentGeneration(gen) || ctx.Err() != nil {
			return
		}

		// The server ended the stream or the transport dropped. An
		// in-progress answer buffer does not survive the gap.
		r.dropPartial()

		if received {
			attempts = 0
		} else {
			attempts++
			if attempts >= r.maxReconnects {
				r.events.Notice("Network error. The room stream could not be re-established.")
				return
			}
		}
		if !sleepCtx(ctx, r.reconnectDelay) {
			return
		}
	}
}

// handleEvent applies one broadcast to the room state.
func (r *RoomSession) handleEvent(code string, e *models.StreamEvent) {
	switch e.Type {
	case models.EventMessage:
		if e.Message == nil {
			return
		}
		// An assistant broadcast supersedes the partial view of the same
		// answer.
		if e.Message.Role == models.RoleAssistant {
			r.dropPartial()
		}
		if r.store.AddIfNew(code, *e.Message) {
			r.events.MessageAdded(*e.Message)
		}
	case models.EventAIStart:
		r.mu.Lock()
		r.acc = stream.NewAccumulator(r.render, r.sink)
		r.streaming = true
		r.mu.Unlock()
	case models.EventAIDelta:
		r.mu.Lock()
		acc := r.acc
		r.mu.Unlock()
		if acc != nil {
			acc.Append(e.Delta)
		}
	case models.EventRoomDeleted:
		r.mu.Lock()
		r.teardownLocked()
		r.room = nil
		r.mu.Unlock()
		r.events.RoomDeleted()
	case models.EventSystemPromptUpdated:
		r.mu.Lock()
		if r.room != nil {
			r.room.SystemPrompt = e.SystemPrompt
		}
		r.mu.Unlock()
		r.events.SystemPromptUpdated(e.SystemPrompt)
	case models.EventChatCleared:
		r.store.Clear(code)
		r.events.ChatCleared()
	case models.EventError:
		r.dropPartial()
		msg := e.ErrorMessage
		if msg == "" {
			msg = apierrors.UserMessage(apierrors.NewStreamError(""))
		}
		r.events.Notice(msg)
	}
}

// dropPartial discards any in-progress answer buffer without finalizing.
func (r *RoomSession) dropPartial() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.acc != nil {
		r.acc.Discard()
		r.acc = nil
	}
	r.streaming = false
}

func (r *RoomSession) currentGeneration(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.generation
}

// sleepCtx waits d or until ctx is cancelled. Returns false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
