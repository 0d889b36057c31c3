package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
)

func newTestModel() Model {
	ta := textarea.New()
	ta.SetWidth(80)

	return Model{
		textarea: ta,
		viewport: viewport.New(80, 20),
		sink:     NewStreamSink(),
		width:    80,
		height:   24,
		ready:    true,
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	ta := textarea.New()
	ta.SetWidth(80)

	m := Model{textarea: ta, sink: NewStreamSink()}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	typed, ok := updated.(Model)
	if !ok {
		t.Fatal("Update should return Model type")
	}
	if typed.width != 100 || typed.height != 40 {
		t.Errorf("dimensions = %dx%d, want 100x40", typed.width, typed.height)
	}
	if !typed.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_PartialMsg(t *testing.T) {
	m := newTestModel()
	m.streaming = true

	updated, cmd := m.Update(partialMsg{rendered: "Hello wor▌"})

	typed := updated.(Model)
	if typed.partial != "Hello wor▌" {
		t.Errorf("partial = %q", typed.partial)
	}
	if cmd == nil {
		t.Error("partial delivery must re-arm the stream listener")
	}
}

func TestModel_Update_FinalMsg(t *testing.T) {
	m := newTestModel()
	m.streaming = true
	m.partial = "Hello wor▌"

	final := models.Message{ID: "m1", Role: models.RoleAssistant, Content: "Hello world."}
	updated, cmd := m.Update(finalMsg{message: final, rendered: "Hello world."})

	typed := updated.(Model)
	if typed.partial != "" {
		t.Errorf("partial = %q, want cleared after final", typed.partial)
	}
	if len(typed.messages) != 1 || typed.messages[0].ID != "m1" {
		t.Errorf("messages = %v, want the finalized answer appended", typed.messages)
	}
	if cmd == nil {
		t.Error("final delivery must re-arm the stream listener")
	}
}

func TestModel_Update_FailedMsg(t *testing.T) {
	m := newTestModel()
	m.streaming = true
	m.partial = "half an ans▌"

	updated, _ := m.Update(failedMsg{text: "The answer could not be completed. Try again."})

	typed := updated.(Model)
	if typed.partial != "" {
		t.Error("a failed stream must drop the partial view")
	}
	if typed.notice == "" {
		t.Error("a failed stream must surface a notice")
	}
	if len(typed.messages) != 0 {
		t.Error("no message may be appended on failure")
	}
}

func TestModel_Update_SendDone(t *testing.T) {
	t.Run("clears streaming", func(t *testing.T) {
		m := newTestModel()
		m.streaming = true

		updated, _ := m.Update(sendDoneMsg{})
		if updated.(Model).streaming {
			t.Error("streaming should be cleared when the send returns")
		}
	})

	t.Run("surfaces errors", func(t *testing.T) {
		m := newTestModel()
		m.streaming = true

		updated, _ := m.Update(sendDoneMsg{err: errors.New("boom")})
		if updated.(Model).err == nil {
			t.Error("unexpected send errors should be kept for the view")
		}
	})

	t.Run("ignores session closed", func(t *testing.T) {
		m := newTestModel()
		m.streaming = true

		updated, _ := m.Update(sendDoneMsg{err: apierrors.ErrSessionClosed})
		if updated.(Model).err != nil {
			t.Error("a closed session is not an error worth showing")
		}
	})

	t.Run("notice wins over error", func(t *testing.T) {
		m := newTestModel()
		m.streaming = true
		m.notice = "already told the user"

		updated, _ := m.Update(sendDoneMsg{err: errors.New("boom")})
		if updated.(Model).err != nil {
			t.Error("errors already surfaced as a notice must not double up")
		}
	})
}

func TestModel_Update_EnterIgnoredWhileStreaming(t *testing.T) {
	m := newTestModel()
	m.streaming = true
	m.textarea.SetValue("second question")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	typed := updated.(Model)
	if len(typed.messages) != 0 {
		t.Error("input must stay queued in the textarea while streaming")
	}
	if !typed.streaming {
		t.Error("streaming state must survive a rejected enter")
	}
}

func TestModel_Update_EmptyInputIgnored(t *testing.T) {
	m := newTestModel()
	m.textarea.SetValue("   ")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if updated.(Model).streaming {
		t.Error("blank input must not start a send")
	}
}

func TestStreamSink_Delivery(t *testing.T) {
	sink := NewStreamSink()

	sink.Update("partial text")
	sink.Final(models.Message{ID: "m1"}, "final text")
	sink.Failed("it broke")

	if msg, ok := (<-sink.ch).(partialMsg); !ok || msg.rendered != "partial text" {
		t.Errorf("first delivery = %v, want partialMsg", msg)
	}
	if msg, ok := (<-sink.ch).(finalMsg); !ok || msg.message.ID != "m1" {
		t.Errorf("second delivery = %v, want finalMsg", msg)
	}
	if msg, ok := (<-sink.ch).(failedMsg); !ok || msg.text != "it broke" {
		t.Errorf("third delivery = %v, want failedMsg", msg)
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := Model{}
	if view := m.View(); !strings.Contains(view, "Initializing") {
		t.Error("View should show the init placeholder before the first resize")
	}
}

func TestModel_View_WithMessages(t *testing.T) {
	m := newTestModel()
	m.messages = []models.Message{
		{Role: models.RoleUser, Content: "Hello"},
		{Role: models.RoleAssistant, Content: "Hi there!"},
	}
	m.updateViewport()

	view := m.View()
	if !strings.Contains(view, "Hello") && !strings.Contains(view, "Hi there!") {
		t.Error("View should contain some message content")
	}
}

func TestModel_View_StreamingSpinner(t *testing.T) {
	m := newTestModel()
	m.spinner = spinner.New()
	m.streaming = true

	if view := m.View(); !strings.Contains(view, "Waiting for the answer") {
		t.Error("View should show the waiting state while streaming")
	}
}

func TestRenderMessage_RoomSender(t *testing.T) {
	msg := models.Message{
		Role:    models.RoleUser,
		Content: "hi all",
		User:    &models.User{Name: "Anna"},
	}

	out := renderMessage(msg, 60)
	if !strings.Contains(out, "Anna") {
		t.Error("a room message must carry the sender's name")
	}
}

func TestRenderMessage_Breakdown(t *testing.T) {
	msg := models.Message{
		Role:    models.RoleAssistant,
		Content: "combined answer",
		Model:   "C",
		Meta: models.Meta{
			Mode:            models.ModeUltimate,
			AggregatorModel: "C",
			Candidates: []models.MetaCandidate{
				{Model: "A", Excerpt: "a says"},
				{Model: "C", Excerpt: "combined"},
			},
		},
	}

	out := renderMessage(msg, 60)
	if !strings.Contains(out, "aggregator") {
		t.Error("aggregated answers must mark the aggregator model")
	}
}
