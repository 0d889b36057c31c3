package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/bbarni2020/AI/internal/errors"
	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/presenter"
	"github.com/bbarni2020/AI/internal/render"
	"github.com/bbarni2020/AI/internal/session"
)

// Messages delivered from the streaming goroutine via the sink channel.
type (
	partialMsg struct {
		rendered string
	}
	finalMsg struct {
		message  models.Message
		rendered string
	}
	failedMsg struct {
		text string
	}
	sendDoneMsg struct {
		err error
	}
)

// StreamSink forwards stream updates into the bubbletea event loop.
type StreamSink struct {
	ch chan tea.Msg
}

func NewStreamSink() *StreamSink {
	return &StreamSink{ch: make(chan tea.Msg, 64)}
}

func (s *StreamSink) Update(rendered string) {
	s.ch <- partialMsg{rendered: rendered}
}

func (s *StreamSink) Final(msg models.Message, rendered string) {
	s.ch <- finalMsg{message: msg, rendered: rendered}
}

func (s *StreamSink) Failed(userMessage string) {
	s.ch <- failedMsg{text: userMessage}
}

// Model represents the chat TUI state
type Model struct {
	session  *session.Session
	sendOpts session.SendOptions
	title    string

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	messages  []models.Message
	partial   string // rendered partial view of the in-flight answer
	streaming bool
	ready     bool
	err       error
	notice    string

	sink *StreamSink

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model.
func NewChatModel(sess *session.Session, opts session.SendOptions) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	title := opts.Model
	if title == "" || title == models.ModelAuto {
		title = "auto"
	}

	return Model{
		session:  sess,
		sendOpts: opts,
		title:    fmt.Sprintf("%s • %s", title, models.ModeLabel(opts.Mode)),
		textarea: ta,
		spinner:  s,
		messages: sess.Messages(),
		sink:     NewStreamSink(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForStream(),
	)
}

// waitForStream blocks on the sink channel and feeds the next stream
// update into the event loop. Re-armed after every delivery.
func (m Model) waitForStream() tea.Cmd {
	ch := m.sink.ch
	return func() tea.Msg {
		return <-ch
	}
}

// sendMessage runs the blocking send off the event loop. Partial updates
// arrive separately through the sink channel.
func (m Model) sendMessage(text string) tea.Cmd {
	sess := m.session
	opts := m.sendOpts
	sink := m.sink
	return func() tea.Msg {
		_, err := sess.Send(context.Background(), text, opts, sink)
		return sendDoneMsg{err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
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
		case "ctrl+c":
			m.session.Close()
			return m, tea.Quit

		case "esc":
			if !m.streaming {
				m.session.Close()
				return m, tea.Quit
			}
			// Input is locked while an answer is in flight.

		case "enter":
			if m.streaming {
				break
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				break
			}
			if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
				m.session.Close()
				return m, tea.Quit
			}

			echo := m.session.Echo(input, m.sendOpts.Attachments)
			m.messages = append(m.messages, echo)
			m.updateViewport()
			m.viewport.GotoBottom()

			m.streaming = true
			m.err = nil
			m.notice = ""
			m.partial = ""
			m.textarea.Reset()

			return m, tea.Batch(
				m.sendMessage(input),
				m.spinner.Tick,
			)
		}

	case partialMsg:
		m.partial = msg.rendered
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForStream())

	case finalMsg:
		m.partial = ""
		m.messages = append(m.messages, msg.message)
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, m.waitForStream())

	case failedMsg:
		m.partial = ""
		m.notice = msg.text
		m.updateViewport()
		cmds = append(cmds, m.waitForStream())

	case sendDoneMsg:
		m.streaming = false
		if msg.err != nil && !errors.Is(msg.err, apierrors.ErrSessionClosed) && m.notice == "" {
			m.err = msg.err
		}

	case spinner.TickMsg:
		if m.streaming {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks;
	// the textarea stays frozen while streaming.
	if !m.streaming {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerParts := []string{
		titleStyle.Render("✦ AI Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.title),
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	header := headerStyle.Width(contentWidth).Render(headerContent)
	sections = append(sections, header)

	var messagesContent string
	if len(m.messages) == 0 && m.partial == "" {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}

	messagesPanel := messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent)
	sections = append(sections, messagesPanel)

	var inputContent string
	if m.streaming {
		inputContent = m.spinner.View() + loadingStyle.Render(" Waiting for the answer...")
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}

	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)
	sections = append(sections, inputPanel)

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		sections = append(sections, noticeStyle.Render("⚠ "+m.notice))
	}
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to AI Chat")
	subtitle := welcomeStyle.Width(width).Render("Start a conversation by typing a message below")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		item := lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		)
		items = append(items, item)
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
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

	// In-flight answer, already rendered with the trailing cursor
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

// renderMessage renders one finalized message as a labelled bubble.
func renderMessage(msg models.Message, bubbleWidth int) string {
	var content strings.Builder

	if msg.Role == models.RoleUser {
		label := "⬤ You"
		if msg.User != nil {
			if name := msg.User.DisplayName(); name != "" {
				label = "⬤ " + name
			}
		}
		content.WriteString(userLabelStyle.Render(label))
		content.WriteString("\n")
		content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		return content.String()
	}

	content.WriteString(assistantLabelStyle.Render("✦ AI"))
	content.WriteString("\n")

	rendered, err := render.MarkdownWithWidth(msg.Content, bubbleWidth-4)
	if err != nil {
		rendered = msg.Content
	}
	rendered = strings.TrimRight(rendered, "\n")
	content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))

	if meta := presenter.MetaLine(msg); meta != "" {
		content.WriteString("\n")
		content.WriteString(metaLineStyle.Render("  " + meta))
	}

	if entries := presenter.Breakdown(msg.Meta); len(entries) > 0 {
		var bd strings.Builder
		for i, entry := range entries {
			if i > 0 {
				bd.WriteString("\n")
			}
			name := entry.Model
			if entry.IsAggregator {
				name += " (aggregator)"
			}
			bd.WriteString(name)
			if entry.Excerpt != "" {
				bd.WriteString(": " + entry.Excerpt)
			}
		}
		content.WriteString("\n")
		content.WriteString(breakdownStyle.Width(bubbleWidth - 4).Render(bd.String()))
	}

	if len(msg.Sources) > 0 {
		var src strings.Builder
		src.WriteString("Sources:")
		for _, s := range msg.Sources {
			title := s.Title
			if title == "" {
				title = s.URL
			}
			src.WriteString("\n• " + title + " (" + s.URL + ")")
		}
		content.WriteString("\n")
		content.WriteString(sourcesStyle.Render(src.String()))
	}

	return content.String()
}

// RunChat starts the chat TUI.
func RunChat(sess *session.Session, opts session.SendOptions) error {
	m := NewChatModel(sess, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
