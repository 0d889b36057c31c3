// Package session owns conversation identity, the stream lifecycle and the
// in-progress response buffer. One Session instance exists per open
// conversation; there is no shared global state.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/stream"
)

// State is the session's position in its lifecycle.
type State int

const (
	// StateIdle means no conversation is selected.
	StateIdle State = iota
	// StateLoading means history is being fetched.
	StateLoading
	// StateActive means history is loaded and the session can send.
	StateActive
	// StateStreaming means one assistant response is in flight.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Backend is the slice of the API client the chat session needs.
type Backend interface {
	SendMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	StreamMessage(ctx context.Context, req models.ChatRequest) (io.ReadCloser, error)
	Conversation(ctx context.Context, id string) (*models.Conversation, error)
}

// SendOptions select routing for one message.
type SendOptions struct {
	Model        string // empty means auto-selection
	Mode         string
	Attachments  []string
	UseWebSearch bool
}

// Option configures a Session.
type Option func(*Session)

// WithRenderFunc sets the markdown renderer used for partial updates.
func WithRenderFunc(f stream.RenderFunc) Option {
	return func(s *Session) {
		s.render = f
	}
}

// WithHistoryChanged registers a callback fired after a message is
// finalized, so the surrounding UI can refresh its history list.
func WithHistoryChanged(fn func()) Option {
	return func(s *Session) {
		s.onHistoryChanged = fn
	}
}

// Session drives one conversation. The message store and the in-progress
// buffer are owned exclusively by the session for its conversation id;
// switching conversations tears the previous stream down before anything
// else happens.
type Session struct {
	backend Backend
	store   *store.Store
	render  stream.RenderFunc

	onHistoryChanged func()

	mu             sync.Mutex
	state          State
	conversationID string
	generation     int
	cancel         context.CancelFunc
	body           io.Closer
	acc            *stream.Accumulator
}

// New creates an idle session.
func New(backend Backend, st *store.Store, opts ...Option) *Session {
	s := &Session{
		backend: backend,
		store:   st,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConversationID returns the current conversation id, empty until the
// server assigns one.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns the conversation's finalized messages in arrival order.
func (s *Session) Messages() []models.Message {
	return s.store.ListForConversation(s.ConversationID())
}

// Open selects a conversation and loads its history into the store. Any
// previous stream is torn down first; its partial buffer is discarded. An
// empty id starts a fresh conversation with nothing to load.
func (s *Session) Open(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.teardownLocked()
	s.conversationID = conversationID
	if conversationID == "" {
		s.state = StateActive
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	conv, err := s.backend.Conversation(ctx, conversationID)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		return err
	}

	for _, msg := range conv.Messages {
		// History messages carry no ids on the wire; give them stable
		// local ones so dedup still works.
		if msg.ID == "" {
			msg.ID = "hist-" + uuid.NewString()
		}
		s.store.AddIfNew(conversationID, msg)
	}

	s.mu.Lock()
	s.state = StateActive
	s.mu.Unlock()
	return nil
}

// Reset returns the session to idle for a fresh chat. The old stream is
// torn down; the old conversation's messages stay in the store.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.conversationID = ""
	s.state = StateIdle
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.state = StateIdle
}

// teardownLocked closes the active stream exactly once and discards any
// partial buffer. Callers hold s.mu.
func (s *Session) teardownLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	if s.acc != nil {
		s.acc.Discard()
		s.acc = nil
	}
}

// Echo inserts the user's own message locally before server confirmation.
// Returns the provisional message.
func (s *Session) Echo(text string, attachments []string) models.Message {
	msg := models.Message{
		ID:        "local-" + uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		Images:    attachments,
		Timestamp: time.Now(),
	}
	s.store.AddIfNew(s.ConversationID(), msg)
	return msg
}

// Send streams one assistant response. It blocks until the terminal event
// arrives, delivering partial updates to sink along the way, and returns
// the finalized message on success. A send while one is already streaming
// is rejected; the caller is expected to disable input while streaming.
func (s *Session) Send(ctx context.Context, text string, opts SendOptions, sink stream.Sink) (*models.Message, error) {
	s.mu.Lock()
	if s.state == StateStreaming {
		s.mu.Unlock()
		return nil, apierrors.ErrBusyStreaming
	}
	if s.state == StateLoading {
		s.mu.Unlock()
		return nil, apierrors.ErrBusyStreaming
	}

	req := models.ChatRequest{
		Message:        text,
		ConversationID: s.conversationID,
		Model:          opts.Model,
		Attachments:    opts.Attachments,
		UseWebSearch:   opts.UseWebSearch,
		Mode:           opts.Mode,
	}
	if req.Model == "" {
		req.Model = models.ModelAuto
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateStreaming
	gen := s.generation
	s.mu.Unlock()

	body, err := s.backend.StreamMessage(streamCtx, req)
	if err != nil {
		s.endStream(gen, cancel)
		return nil, err
	}

	acc := stream.NewAccumulator(s.render, sink)
	s.mu.Lock()
	if gen != s.generation {
		// Torn down while connecting; drop the late stream.
		s.mu.Unlock()
		_ = body.Close()
		return nil, apierrors.ErrSessionClosed
	}
	s.body = body
	s.acc = acc
	s.mu.Unlock()

	var final *models.Message
	var terminalErr error
	sawTerminal := false

	dec := stream.NewDecoder(body)
	procErr := dec.Process(streamCtx, func(e *models.StreamEvent) bool {
		if !s.currentGeneration(gen) {
			return false
		}
		switch e.Type {
		case models.EventStart:
			s.adoptConversationID(e.ConversationID)
		case models.EventContent:
			acc.Append(e.Delta)
		case models.EventDone:
			sawTerminal = true
			if e.ConversationID != "" {
				s.adoptConversationID(e.ConversationID)
			}
			msg := acc.Finalize(uuid.NewString(), e)
			s.store.AddIfNew(s.ConversationID(), msg)
			final = &msg
			if s.onHistoryChanged != nil {
				s.onHistoryChanged()
			}
		case models.EventError:
			sawTerminal = true
			terminalErr = apierrors.NewStreamError(e.ErrorMessage)
			acc.Fail(apierrors.UserMessage(terminalErr))
		}
		return !e.Terminal()
	})

	closedLocally := !s.currentGeneration(gen)
	s.endStream(gen, cancel)

	switch {
	case closedLocally:
		// Conversation switch or teardown mid-stream. The buffer was
		// already discarded; nothing to surface.
		return nil, apierrors.ErrSessionClosed
	case terminalErr != nil:
		return nil, terminalErr
	case procErr != nil || !sawTerminal:
		// Transport died before a terminal event: the message does not
		// exist, the user has to resend.
		netErr := apierrors.NewNetworkError("stream response", "/api/chat/message", procErr)
		acc.Fail(apierrors.UserMessage(netErr))
		return nil, netErr
	default:
		return final, nil
	}
}

func (s *Session) currentGeneration(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// adoptConversationID records the server-assigned id and migrates any
// provisionally keyed messages to it.
func (s *Session) adoptConversationID(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	old := s.conversationID
	s.conversationID = id
	s.mu.Unlock()
	if old != id {
		s.store.Adopt(old, id)
	}
}

// endStream closes the handle for the given stream generation and returns
// the session to active, unless a newer generation took over already.
func (s *Session) endStream(gen int, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	if s.cancel != nil {
		s.cancel = nil
	}
	s.acc = nil
	s.state = StateActive
}
