package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bbarni2020/AI/internal/history"
	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/presenter"
	"github.com/bbarni2020/AI/internal/session"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"), // Red
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#ff9ff3"), // Pink
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				MarginBottom(0)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Italic(true).
			MarginLeft(1)

	breakdownStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorTextDim).
			BorderLeft(true).
			Foreground(colorTextDim).
			PaddingLeft(1).
			MarginLeft(1).
			Italic(true)
)

// spinner handles the animated loading indicator
type spinner struct {
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner
func newSpinner(message string) *spinner {
	return &spinner{
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(os.Stderr, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(os.Stderr, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	// Spinner characters
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	// Build spinner character with color
	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	// Build animated bar
	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	// Build animated dots
	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	// Message with color
	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	// Print animation (clear line first)
	fmt.Fprintf(os.Stderr, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(os.Stderr, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// discardSink drops partial updates; one-shot queries only print the
// finalized answer.
type discardSink struct{}

func (discardSink) Update(string)                {}
func (discardSink) Final(models.Message, string) {}
func (discardSink) Failed(string)                {}

// runQuery executes a single query and outputs the response.
// If rawOutput is true, only the raw answer text is printed without decoration.
func runQuery(prompt string, rawOutput bool) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	client, cfg, err := newAPIClient()
	if err != nil {
		return err
	}

	sess := session.New(client, store.New())
	defer sess.Close()

	opts := sendOptions(cfg)

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Model: %s, mode: %s\n", opts.Model, opts.Mode)
	}

	echo := sess.Echo(prompt, nil)

	var spin *spinner
	if !rawOutput {
		spin = newSpinner("Waiting for the answer")
		spin.start()
	}

	startTime := time.Now()
	answer, err := sess.Send(context.Background(), prompt, opts, discardSink{})
	requestDuration := time.Since(startTime)

	if err != nil {
		if !rawOutput {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, tui.FormatError(err))
		}
		return fmt.Errorf("query failed: %w", err)
	}
	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if cfg.Verbose && !rawOutput {
		fmt.Fprintf(os.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
		if len(answer.Meta.Candidates) > 0 {
			fmt.Fprintf(os.Stderr, "[verbose] Aggregated from %d models\n", len(answer.Meta.Candidates))
		}
	}

	// Keep the local transcript cache in step with the server
	saveToHistoryCache(sess.ConversationID(), echo, *answer)

	text := answer.Content

	// Raw output mode: output only the raw text
	if rawOutput {
		// Output to file if specified
		if outputFlag != "" {
			if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			return nil
		}
		// Output raw text to stdout
		fmt.Print(text)
		return nil
	}

	// Decorated output mode (TTY)
	// Add spacing
	fmt.Fprintln(os.Stderr)

	// Copy to clipboard if requested by flag or config
	if clipboardFlag || cfg.CopyToClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			warnMsg := lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			)
			fmt.Fprintln(os.Stderr, warnMsg)
		} else {
			clipMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard")
			fmt.Fprintln(os.Stderr, clipMsg)
		}
	}

	// Output to file if specified
	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", outputFlag),
		)
		fmt.Fprintln(os.Stderr, successMsg)
		return nil
	}

	printAnswer(*answer)
	return nil
}

// printAnswer renders the finalized answer the way the chat TUI does.
func printAnswer(answer models.Message) {
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	p := presenter.New(contentWidth)
	d := p.Format(answer)

	label := assistantLabelStyle.Render("✦ AI")
	fmt.Println(label)

	bubble := assistantBubbleStyle.Width(bubbleWidth).Render(d.Body)
	fmt.Println(bubble)

	if d.MetaLine != "" {
		fmt.Println(metaStyle.Render(d.MetaLine))
	}

	if len(d.Breakdown) > 0 {
		var lines []string
		for _, entry := range d.Breakdown {
			name := entry.Model
			if entry.IsAggregator {
				name += " (aggregator)"
			}
			if entry.Excerpt != "" {
				name = fmt.Sprintf("%s: %s", name, entry.Excerpt)
			}
			lines = append(lines, name)
		}
		fmt.Println(breakdownStyle.Width(contentWidth).Render(strings.Join(lines, "\n")))
	}

	if len(d.Sources) > 0 {
		fmt.Println(metaStyle.Render("Sources:"))
		for _, src := range d.Sources {
			fmt.Println(metaStyle.Render("  • " + src))
		}
	}
}

// saveToHistoryCache appends the exchange to the local transcript cache.
// Failures are non-fatal; the server still holds the conversation.
func saveToHistoryCache(conversationID string, msgs ...models.Message) {
	if conversationID == "" {
		return
	}
	st, err := history.DefaultStore()
	if err != nil {
		return
	}
	for _, msg := range msgs {
		if err := st.AppendMessage(conversationID, msg); err != nil {
			return
		}
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
