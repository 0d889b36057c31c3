package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bbarni2020/AI/internal/models"
)

func newTestRoomModel() RoomModel {
	ta := textarea.New()
	ta.SetWidth(80)

	return RoomModel{
		events:   NewChanRoomEvents(),
		sink:     NewRoomSink(),
		textarea: ta,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
		ready:    true,
		code:     "X4TQ9",
		name:     "study group",
	}
}

func TestChanRoomEvents_Delivery(t *testing.T) {
	ev := NewChanRoomEvents()

	ev.MessageAdded(models.Message{ID: "m1"})
	ev.SystemPromptUpdated("be brief")
	ev.ChatCleared()
	ev.Notice("reconnecting")
	ev.RoomDeleted()

	if msg, ok := (<-ev.ch).(roomMessageMsg); !ok || msg.message.ID != "m1" {
		t.Errorf("first delivery = %v, want roomMessageMsg", msg)
	}
	if msg, ok := (<-ev.ch).(roomPromptMsg); !ok || msg.prompt != "be brief" {
		t.Errorf("second delivery = %v, want roomPromptMsg", msg)
	}
	if _, ok := (<-ev.ch).(roomClearedMsg); !ok {
		t.Error("third delivery should be roomClearedMsg")
	}
	if msg, ok := (<-ev.ch).(roomNoticeMsg); !ok || msg.text != "reconnecting" {
		t.Errorf("fourth delivery = %v, want roomNoticeMsg", msg)
	}
	if _, ok := (<-ev.ch).(roomDeletedMsg); !ok {
		t.Error("fifth delivery should be roomDeletedMsg")
	}
}

func TestRoomModel_Update_BroadcastClearsPartial(t *testing.T) {
	m := newTestRoomModel()
	m.partial = "streaming answ▌"

	answer := models.Message{ID: "m2", Role: models.RoleAssistant, Content: "done"}
	updated, cmd := m.Update(roomMessageMsg{message: answer})

	typed := updated.(RoomModel)
	if typed.partial != "" {
		t.Error("an assistant broadcast must replace the partial view")
	}
	if len(typed.messages) != 1 || typed.messages[0].ID != "m2" {
		t.Errorf("messages = %v, want the broadcast appended", typed.messages)
	}
	if cmd == nil {
		t.Error("broadcast delivery must re-arm the event listener")
	}
}

func TestRoomModel_Update_UserBroadcastKeepsPartial(t *testing.T) {
	m := newTestRoomModel()
	m.partial = "streaming answ▌"

	other := models.Message{ID: "m3", Role: models.RoleUser, Content: "me too",
		User: &models.User{Name: "Bea"}}
	updated, _ := m.Update(roomMessageMsg{message: other})

	typed := updated.(RoomModel)
	if typed.partial == "" {
		t.Error("another member's message must not drop the in-flight answer")
	}
	if len(typed.messages) != 1 {
		t.Errorf("got %d messages, want 1", len(typed.messages))
	}
}

func TestRoomModel_Update_Cleared(t *testing.T) {
	m := newTestRoomModel()
	m.messages = []models.Message{{ID: "m1"}, {ID: "m2"}}
	m.partial = "half▌"

	updated, _ := m.Update(roomClearedMsg{})

	typed := updated.(RoomModel)
	if len(typed.messages) != 0 || typed.partial != "" {
		t.Error("a cleared room must drop the transcript and the partial")
	}
}

func TestRoomModel_Update_Deleted(t *testing.T) {
	m := newTestRoomModel()

	updated, cmd := m.Update(roomDeletedMsg{})

	typed := updated.(RoomModel)
	if !typed.deleted {
		t.Error("deletion must mark the model")
	}
	if typed.notice == "" {
		t.Error("deletion must leave a notice for the user")
	}
	if cmd == nil {
		t.Error("deletion must quit the program")
	}
}

func TestRoomModel_Update_PromptChange(t *testing.T) {
	m := newTestRoomModel()

	updated, _ := m.Update(roomPromptMsg{prompt: "answer in haiku"})
	if updated.(RoomModel).prompt != "answer in haiku" {
		t.Error("a prompt update must replace the shared context line")
	}
}

func TestRoomModel_Update_SendDoneError(t *testing.T) {
	m := newTestRoomModel()
	m.sending = true

	updated, _ := m.Update(roomSendDoneMsg{err: errors.New("room is gone")})

	typed := updated.(RoomModel)
	if typed.sending {
		t.Error("sending state must clear when the send returns")
	}
	if typed.notice == "" {
		t.Error("send failures must surface a notice")
	}
}

func TestRoomModel_Update_StrayFinalClearsPartial(t *testing.T) {
	m := newTestRoomModel()
	m.partial = "half▌"

	updated, _ := m.Update(finalMsg{message: models.Message{ID: "m9"}})

	typed := updated.(RoomModel)
	if typed.partial != "" {
		t.Error("the accumulator final only clears the partial in rooms")
	}
	if len(typed.messages) != 0 {
		t.Error("the transcript is owned by broadcasts, not the accumulator")
	}
}

func TestRoomModel_View(t *testing.T) {
	m := newTestRoomModel()
	m.messages = []models.Message{
		{Role: models.RoleUser, Content: "hi", User: &models.User{Name: "Anna"}},
	}
	m.prompt = "be kind"
	m.updateViewport()

	view := m.View()
	if !strings.Contains(view, "study group") || !strings.Contains(view, "X4TQ9") {
		t.Error("View should show the room name and join code")
	}
	if !strings.Contains(view, "Shared context") {
		t.Error("View should show the shared context line")
	}
}

func TestRoomModel_View_NotReady(t *testing.T) {
	m := RoomModel{}
	if view := m.View(); !strings.Contains(view, "Initializing") {
		t.Error("View should show the init placeholder before the first resize")
	}
}

var _ tea.Model = RoomModel{}
