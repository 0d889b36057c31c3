package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/session"
)

// Room lifecycle messages delivered via the events channel.
type (
	roomMessageMsg struct {
		message models.Message
	}
	roomDeletedMsg struct{}
	roomPromptMsg  struct {
		prompt string
	}
	roomClearedMsg struct{}
	roomNoticeMsg  struct {
		text string
	}
	roomSendDoneMsg struct {
		err error
	}
)

// ChanRoomEvents forwards room notifications into the bubbletea event
// loop. Create one, hand it to the room session, and feed its channel to
// the room model.
type ChanRoomEvents struct {
	ch chan tea.Msg
}

// NewChanRoomEvents creates a channel-backed room event receiver.
func NewChanRoomEvents() *ChanRoomEvents {
	return &ChanRoomEvents{ch: make(chan tea.Msg, 64)}
}

func (e *ChanRoomEvents) MessageAdded(msg models.Message) { e.ch <- roomMessageMsg{message: msg} }
func (e *ChanRoomEvents) RoomDeleted()                    { e.ch <- roomDeletedMsg{} }
func (e *ChanRoomEvents) SystemPromptUpdated(p string)    { e.ch <- roomPromptMsg{prompt: p} }
func (e *ChanRoomEvents) ChatCleared()                    { e.ch <- roomClearedMsg{} }
func (e *ChanRoomEvents) Notice(text string)              { e.ch <- roomNoticeMsg{text: text} }

// RoomModel is the TUI state for a shared room.
type RoomModel struct {
	room   *session.RoomSession
	events *ChanRoomEvents
	sink   *StreamSink

	viewport viewport.Model
	textarea textarea.Model

	messages []models.Message
	partial  string
	prompt   string
	notice   string
	sending  bool
	deleted  bool
	ready    bool

	code string
	name string

	width  int
	height int
}

// NewRoomModel creates the TUI for a joined room. The events receiver
// and sink must be the ones the room session reports to.
func NewRoomModel(room *session.RoomSession, events *ChanRoomEvents, sink *StreamSink) RoomModel {
	ta := textarea.New()
	ta.Placeholder = "Message the room..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	m := RoomModel{
		room:     room,
		events:   events,
		sink:     sink,
		textarea: ta,
		messages: room.Messages(),
	}
	if info := room.Room(); info != nil {
		m.code = info.Code
		m.name = info.Name
		m.prompt = info.SystemPrompt
	}
	return m
}

// NewRoomSink creates the stream sink for a room session driving this
// model.
func NewRoomSink() *StreamSink {
	return NewStreamSink()
}

// Init initializes the model
func (m RoomModel) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.waitForEvent(),
		m.waitForRoomStream(),
	)
}

func (m RoomModel) waitForEvent() tea.Cmd {
	ch := m.events.ch
	return func() tea.Msg {
		return <-ch
	}
}

func (m RoomModel) waitForRoomStream() tea.Cmd {
	ch := m.sink.ch
	return func() tea.Msg {
		return <-ch
	}
}

func (m RoomModel) send(text string) tea.Cmd {
	room := m.room
	return func() tea.Msg {
		_, err := room.Send(context.Background(), text)
		return roomSendDoneMsg{err: err}
	}
}

// Update handles messages and updates the model
func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 13
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.room.Leave()
			return m, tea.Quit

		case "enter":
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.sending || m.deleted {
				break
			}
			if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
				m.room.Leave()
				return m, tea.Quit
			}
			m.sending = true
			m.notice = ""
			m.textarea.Reset()
			return m, m.send(input)
		}

	case roomMessageMsg:
		m.messages = append(m.messages, msg.message)
		// A finalized AI broadcast replaces the partial view
		if msg.message.Role == models.RoleAssistant {
			m.partial = ""
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForEvent())

	case roomPromptMsg:
		m.prompt = msg.prompt
		cmds = append(cmds, m.waitForEvent())

	case roomClearedMsg:
		m.messages = nil
		m.partial = ""
		m.updateViewport()
		cmds = append(cmds, m.waitForEvent())

	case roomNoticeMsg:
		m.notice = msg.text
		m.partial = ""
		m.updateViewport()
		cmds = append(cmds, m.waitForEvent())

	case roomDeletedMsg:
		m.deleted = true
		m.notice = "This room was deleted."
		return m, tea.Quit

	case roomSendDoneMsg:
		m.sending = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}

	case partialMsg:
		m.partial = msg.rendered
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForRoomStream())

	case finalMsg:
		// Rooms finalize through the broadcast, not the accumulator;
		// treat a stray final as a partial clear.
		m.partial = ""
		m.updateViewport()
		cmds = append(cmds, m.waitForRoomStream())

	case failedMsg:
		m.partial = ""
		m.notice = msg.text
		m.updateViewport()
		cmds = append(cmds, m.waitForRoomStream())
	}

	if _, ok := msg.(tea.KeyMsg); ok && !m.sending {
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m RoomModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	title := m.name
	if title == "" {
		title = "Room"
	}
	headerParts := []string{
		titleStyle.Render("⬢ " + title),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.code),
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...),
	)
	sections = append(sections, header)

	if m.prompt != "" {
		sections = append(sections, hintStyle.Render("  Shared context: "+m.prompt))
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View())
	sections = append(sections, messagesPanel)

	var inputContent string
	if m.sending {
		inputContent = loadingStyle.Render("Sending...")
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("⚠ "+m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RoomModel) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Leave"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

func (m *RoomModel) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}

	if m.partial != "" {
		if len(m.messages) > 0 {
			content.WriteString("\n")
		}
		label := assistantLabelStyle.Render("✦ AI")
		bubble := assistantBubbleStyle.Width(bubbleWidth).Render(m.partial)
		content.WriteString(label + "\n" + bubble + "\n")
	}

	m.viewport.SetContent(content.String())
}

// RunRoom joins the room's TUI loop. The room session must already be
// joined and reporting to events and sink.
func RunRoom(room *session.RoomSession, events *ChanRoomEvents, sink *StreamSink) error {
	m := NewRoomModel(room, events, sink)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("room TUI failed: %w", err)
	}
	return nil
}
