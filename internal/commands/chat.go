package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/history"
	"github.com/bbarni2020/AI/internal/presenter"
	"github.com/bbarni2020/AI/internal/session"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/tui"
)

var chatNewFlag bool

var chatCmd = &cobra.Command{
	Use:   "chat [conversation]",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session.

Without arguments a selector lists your saved conversations; pick one
to resume it or start fresh. A conversation reference (@last, @first,
an index, an id or a title fragment) skips the selector.

Type 'exit', 'quit', or press Ctrl+C to end the session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		return runChat(ref)
	},
}

func init() {
	chatCmd.Flags().BoolVarP(&chatNewFlag, "new", "n", false, "Start a new conversation without the selector")
}

func runChat(ref string) error {
	client, cfg, err := newAPIClient()
	if err != nil {
		return err
	}
	tui.ApplyTheme(cfg.TUITheme)

	histStore, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	p := presenter.New(getTerminalWidth() - 10)
	sess := session.New(client, store.New(), session.WithRenderFunc(p.RenderMarkdown))
	defer sess.Close()

	resumeID, proceed, err := pickConversation(histStore, ref)
	if err != nil {
		return err
	}
	if !proceed {
		// Selector dismissed without a choice
		return nil
	}

	if resumeID != "" {
		spin := newSpinner("Loading conversation")
		spin.start()
		if err := sess.Open(context.Background(), resumeID); err != nil {
			spin.stopWithError()
			fmt.Fprintln(os.Stderr, tui.FormatError(err))
			return fmt.Errorf("failed to resume conversation: %w", err)
		}
		spin.stopWithSuccess("Conversation loaded")
	}

	opts := sendOptions(cfg)
	if err := tui.RunChat(sess, opts); err != nil {
		return err
	}

	// Snapshot the transcript into the local cache on the way out
	if id := sess.ConversationID(); id != "" {
		conv := &history.Conversation{
			ID:       id,
			Model:    opts.Model,
			Mode:     opts.Mode,
			Messages: sess.Messages(),
		}
		if err := histStore.Save(conv); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not cache the transcript: %v\n", err)
		}
	}
	return nil
}

// pickConversation resolves the conversation to resume. An empty id with
// proceed true means a fresh conversation.
func pickConversation(histStore *history.Store, ref string) (id string, proceed bool, err error) {
	if chatNewFlag {
		return "", true, nil
	}

	if ref != "" {
		convID, err := history.NewResolver(histStore).Resolve(ref)
		if err != nil {
			return "", false, err
		}
		return convID, true, nil
	}

	if !isStdoutTTY() {
		return "", true, nil
	}

	result, err := tui.RunHistorySelector(histStore, getModel())
	if err != nil {
		return "", false, fmt.Errorf("conversation selector failed: %w", err)
	}
	if !result.Confirmed {
		return "", false, nil
	}
	if result.IsNew || result.Conversation == nil {
		return "", true, nil
	}
	return result.Conversation.ID, true, nil
}
