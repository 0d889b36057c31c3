package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/stream"
)

// fakeRoomBackend scripts one stream body per connection attempt.
type fakeRoomBackend struct {
	mu      sync.Mutex
	room    *models.Room
	history []models.Message
	streams []func() (io.ReadCloser, error)
	opened  int
	sent    []string
}

func (f *fakeRoomBackend) Room(ctx context.Context, code string) (*models.Room, []models.Message, error) {
	if f.room == nil {
		return nil, nil, errors.New("no such room")
	}
	return f.room, f.history, nil
}

func (f *fakeRoomBackend) OpenRoomStream(ctx context.Context, code string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opened >= len(f.streams) {
		// Keep the follower blocked instead of spinning through the
		// reconnect budget.
		pr, _ := io.Pipe()
		f.opened++
		return pr, nil
	}
	next := f.streams[f.opened]
	f.opened++
	return next()
}

func (f *fakeRoomBackend) SendRoomMessage(ctx context.Context, code, text string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return &models.Message{
		ID:      "srv-" + text,
		Role:    models.RoleUser,
		Content: text,
	}, nil
}

// chanEvents forwards notifications onto channels the test can wait on.
type chanEvents struct {
	added   chan models.Message
	deleted chan struct{}
	prompts chan string
	cleared chan struct{}
	notices chan string
}

func newChanEvents() *chanEvents {
	return &chanEvents{
		added:   make(chan models.Message, 32),
		deleted: make(chan struct{}, 4),
		prompts: make(chan string, 4),
		cleared: make(chan struct{}, 4),
		notices: make(chan string, 4),
	}
}

func (c *chanEvents) MessageAdded(msg models.Message)   { c.added <- msg }
func (c *chanEvents) RoomDeleted()                      { c.deleted <- struct{}{} }
func (c *chanEvents) SystemPromptUpdated(prompt string) { c.prompts <- prompt }
func (c *chanEvents) ChatCleared()                      { c.cleared <- struct{}{} }
func (c *chanEvents) Notice(text string)                { c.notices <- text }

func fixedStream(records ...string) func() (io.ReadCloser, error) {
	joined := strings.Join(records, "")
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(joined)), nil
	}
}

func failStream() (io.ReadCloser, error) {
	return nil, errors.New("connection refused")
}

func newTestRoomSession(backend *fakeRoomBackend, st *store.Store, events RoomEvents, sink stream.Sink) *RoomSession {
	r := NewRoomSession(backend, st, nil, sink, events)
	r.reconnectDelay = time.Millisecond
	return r
}

func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestRoomSession_JoinLoadsHistoryAndBroadcasts(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123", Name: "lobby"},
		history: []models.Message{
			{ID: "h1", Role: models.RoleUser, Content: "earlier"},
		},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"ping\"}\n",
			"data: {\"type\": \"message\", \"message\": {\"id\": \"b1\", \"role\": \"user\", \"content\": \"hi all\"}}\n",
		)},
	}
	st := store.New()
	events := newChanEvents()
	r := newTestRoomSession(backend, st, events, &collectSink{})
	defer r.Leave()

	room, err := r.Join(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if room.Code != "ABC123" {
		t.Errorf("Code = %q", room.Code)
	}

	if got := recv(t, events.added, "history message").ID; got != "h1" {
		t.Errorf("first added = %q, want h1", got)
	}
	if got := recv(t, events.added, "broadcast message").ID; got != "b1" {
		t.Errorf("second added = %q, want b1", got)
	}
	if st.Len("ABC123") != 2 {
		t.Errorf("store holds %d messages, want 2", st.Len("ABC123"))
	}
}

func TestRoomSession_SendEchoDeduplicatesBroadcast(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"message\", \"message\": {\"id\": \"srv-hello\", \"role\": \"user\", \"content\": \"hello\"}}\n",
		)},
	}
	st := store.New()
	events := newChanEvents()
	r := newTestRoomSession(backend, st, events, &collectSink{})
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := r.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	recv(t, events.added, "echo")
	select {
	case dup := <-events.added:
		t.Errorf("broadcast of the echoed id surfaced again: %+v", dup)
	case <-time.After(100 * time.Millisecond):
	}
	if st.Len("ABC123") != 1 {
		t.Errorf("store holds %d messages, want 1", st.Len("ABC123"))
	}
}

func TestRoomSession_AIStreamFinalizedByBroadcast(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"ai_start\"}\n",
			"data: {\"type\": \"ai_delta\", \"content\": \"thinking \"}\n",
			"data: {\"type\": \"ai_delta\", \"content\": \"hard\"}\n",
			"data: {\"type\": \"message\", \"message\": {\"id\": \"a1\", \"role\": \"assistant\", \"content\": \"thinking hard\", \"model\": \"m1\"}}\n",
		)},
	}
	st := store.New()
	events := newChanEvents()
	sink := &collectSink{}
	r := newTestRoomSession(backend, st, events, sink)
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	final := recv(t, events.added, "finalized assistant message")
	if final.Content != "thinking hard" || final.Model != "m1" {
		t.Errorf("final = %+v", final)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.updates) == 0 {
		t.Error("partial deltas should have produced sink updates")
	}
	if sink.final != nil {
		t.Error("the broadcast, not the accumulator, owns the final message")
	}
}

func TestRoomSession_ReconnectKeepsRoomAndMessages(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){
			fixedStream(
				"data: {\"type\": \"message\", \"message\": {\"id\": \"m1\", \"role\": \"user\", \"content\": \"before the drop\"}}\n",
				"data: {\"type\": \"ai_start\"}\n",
				"data: {\"type\": \"ai_delta\", \"content\": \"partial that will be lost\"}\n",
			),
			failStream,
			fixedStream(
				"data: {\"type\": \"message\", \"message\": {\"id\": \"m1\", \"role\": \"user\", \"content\": \"rebroadcast\"}}\n",
				"data: {\"type\": \"message\", \"message\": {\"id\": \"m2\", \"role\": \"user\", \"content\": \"after the drop\"}}\n",
			),
		},
	}
	st := store.New()
	events := newChanEvents()
	r := newTestRoomSession(backend, st, events, &collectSink{})
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if got := recv(t, events.added, "pre-drop message").ID; got != "m1" {
		t.Errorf("first = %q, want m1", got)
	}
	// The rebroadcast of m1 after reconnect is deduplicated; only m2
	// surfaces.
	if got := recv(t, events.added, "post-drop message").ID; got != "m2" {
		t.Errorf("after reconnect = %q, want m2", got)
	}

	if r.Room() == nil || r.Room().Code != "ABC123" {
		t.Error("room identity must survive the reconnect")
	}
	msgs := r.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "before the drop" {
		t.Errorf("first kept delivery = %q", msgs[0].Content)
	}
}

func TestRoomSession_ReconnectGivesUpAfterCap(t *testing.T) {
	backend := &fakeRoomBackend{
		room:    &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){failStream},
	}
	// Every attempt fails.
	for i := 0; i < MaxReconnectAttempts; i++ {
		backend.streams = append(backend.streams, failStream)
	}
	events := newChanEvents()
	r := newTestRoomSession(backend, store.New(), events, &collectSink{})
	r.maxReconnects = 3
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	recv(t, events.notices, "exhaustion notice")
	backend.mu.Lock()
	opened := backend.opened
	backend.mu.Unlock()
	if opened != 3 {
		t.Errorf("opened %d connections, want the cap of 3", opened)
	}
}

func TestRoomSession_RoomDeletedTearsDown(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"room_deleted\"}\n",
		)},
	}
	events := newChanEvents()
	r := newTestRoomSession(backend, store.New(), events, &collectSink{})

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	recv(t, events.deleted, "deletion event")
	r.Leave()
	if r.Room() != nil {
		t.Error("Room() must be nil after deletion")
	}
}

func TestRoomSession_SystemPromptAndClear(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		history: []models.Message{
			{ID: "h1", Role: models.RoleUser, Content: "old"},
		},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"system_prompt_updated\", \"system_prompt\": \"be brief\"}\n",
			"data: {\"type\": \"chat_cleared\"}\n",
		)},
	}
	st := store.New()
	events := newChanEvents()
	r := newTestRoomSession(backend, st, events, &collectSink{})
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if got := recv(t, events.prompts, "prompt update"); got != "be brief" {
		t.Errorf("prompt = %q, want %q", got, "be brief")
	}
	recv(t, events.cleared, "clear event")
	if st.Len("ABC123") != 0 {
		t.Errorf("store holds %d messages after clear, want 0", st.Len("ABC123"))
	}
	if r.Room() != nil && r.Room().SystemPrompt != "be brief" {
		t.Errorf("SystemPrompt = %q", r.Room().SystemPrompt)
	}
}

func TestRoomSession_ErrorEventDropsPartialOnly(t *testing.T) {
	backend := &fakeRoomBackend{
		room: &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){fixedStream(
			"data: {\"type\": \"message\", \"message\": {\"id\": \"m1\", \"role\": \"user\", \"content\": \"kept\"}}\n",
			"data: {\"type\": \"ai_start\"}\n",
			"data: {\"type\": \"ai_delta\", \"content\": \"doomed partial\"}\n",
			"data: {\"type\": \"error\", \"message\": \"model overloaded\"}\n",
		)},
	}
	st := store.New()
	events := newChanEvents()
	r := newTestRoomSession(backend, st, events, &collectSink{})
	defer r.Leave()

	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if got := recv(t, events.notices, "error notice"); got != "model overloaded" {
		t.Errorf("notice = %q", got)
	}
	if st.Len("ABC123") != 1 {
		t.Errorf("store holds %d messages, want the finalized one only", st.Len("ABC123"))
	}
}

func TestRoomSession_SendWithoutRoom(t *testing.T) {
	r := newTestRoomSession(&fakeRoomBackend{}, store.New(), newChanEvents(), &collectSink{})
	if _, err := r.Send(context.Background(), "hi"); err == nil {
		t.Error("Send without a joined room must fail")
	}
}

func TestRoomSession_LeaveIsIdempotent(t *testing.T) {
	backend := &fakeRoomBackend{
		room:    &models.Room{Code: "ABC123"},
		streams: []func() (io.ReadCloser, error){fixedStream()},
	}
	r := newTestRoomSession(backend, store.New(), newChanEvents(), &collectSink{})
	if _, err := r.Join(context.Background(), "ABC123"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	r.Leave()
	r.Leave()
	if r.Room() != nil {
		t.Error("Room() must be nil after leaving")
	}
}
