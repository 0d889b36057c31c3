package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/history"
)

var (
	exportFormatFlag  string
	searchContentFlag bool
	deleteRemoteFlag  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage conversation history",
	Long: `View and manage your conversation history.

The server keeps the conversations; a local cache under ~/.aichat makes
listing, search and export work offline. Commands accept references:
@last, @first, a 1-based index, an exact id, or a title fragment.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached conversations",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached conversations",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref>",
	Short: "Export a conversation as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryExport,
}

var historyFavoriteCmd = &cobra.Command{
	Use:     "favorite <ref>",
	Aliases: []string{"fav"},
	Short:   "Toggle a conversation's favorite mark",
	Args:    cobra.ExactArgs(1),
	RunE:    runHistoryFavorite,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached conversations",
	RunE:  runHistoryClear,
}

var historySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the server's conversations into the local cache",
	RunE:  runHistorySync,
}

func init() {
	historyExportCmd.Flags().StringVar(&exportFormatFlag, "format", "markdown", "Export format (markdown or json)")
	historySearchCmd.Flags().BoolVar(&searchContentFlag, "content", false, "Search message bodies, not just titles")
	historyDeleteCmd.Flags().BoolVar(&deleteRemoteFlag, "remote", false, "Also delete the conversation on the server")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historySyncCmd)
}

func resolveRef(store *history.Store, ref string) (string, error) {
	id, err := history.NewResolver(store).Resolve(ref)
	if err != nil {
		return "", fmt.Errorf("%w\n\n%s", err, history.ListAliases())
	}
	return id, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	conversations, err := store.ListConversations()
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Println("No conversations found. Run 'ai history sync' to pull from the server.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tTITLE\tMODEL\tMESSAGES\tUPDATED\t")
	_, _ = fmt.Fprintln(w, "-\t-----\t-----\t--------\t-------\t")

	for i, conv := range conversations {
		title := conv.Title
		if len(title) > 40 {
			title = title[:40] + "..."
		}
		star := ""
		if fav, err := store.IsFavorite(conv.ID); err == nil && fav {
			star = " ★"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s%s\t%s\t%d\t%s\t\n",
			i+1, title, star, conv.Model, len(conv.Messages),
			history.FormatRelativeTime(conv.UpdatedAt))
	}

	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	id, err := resolveRef(store, args[0])
	if err != nil {
		return err
	}

	conv, err := store.GetConversation(id)
	if err != nil {
		return fmt.Errorf("conversation not found: %w", err)
	}

	fmt.Printf("ID: %s\n", conv.ID)
	fmt.Printf("Title: %s\n", conv.Title)
	fmt.Printf("Model: %s\n", conv.Model)
	if conv.Mode != "" {
		fmt.Printf("Mode: %s\n", conv.Mode)
	}
	fmt.Printf("Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated: %s\n", conv.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Messages: %d\n", len(conv.Messages))
	fmt.Println()

	for i, msg := range conv.Messages {
		role := "You"
		if msg.Role == "assistant" {
			role = "AI"
			if msg.Model != "" {
				role = "AI (" + msg.Model + ")"
			}
		} else if msg.User != nil && msg.User.DisplayName() != "" {
			role = msg.User.DisplayName()
		}
		fmt.Printf("[%d] %s (%s):\n", i+1, role, msg.Timestamp.Format("15:04"))

		content := msg.Content
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		fmt.Printf("  %s\n\n", content)
	}

	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	results, err := store.SearchConversations(args[0], searchContentFlag)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, res := range results {
		fmt.Printf("%s  (%s)\n", res.Conversation.Title,
			history.FormatRelativeTime(res.Conversation.UpdatedAt))
		if res.MatchSnippet != "" {
			fmt.Printf("    %s\n", res.MatchSnippet)
		}
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	id, err := resolveRef(store, args[0])
	if err != nil {
		return err
	}

	switch strings.ToLower(exportFormatFlag) {
	case "markdown", "md":
		out, err := store.ExportToMarkdown(id)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Print(out)
	case "json":
		out, err := store.ExportToJSON(id)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Println(string(out))
	default:
		return fmt.Errorf("unknown format %q (markdown or json)", exportFormatFlag)
	}
	return nil
}

func runHistoryFavorite(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	id, err := resolveRef(store, args[0])
	if err != nil {
		return err
	}

	fav, err := store.ToggleFavorite(id)
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if fav {
		fmt.Printf("Marked as favorite: %s\n", id)
	} else {
		fmt.Printf("Removed favorite mark: %s\n", id)
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	id, err := resolveRef(store, args[0])
	if err != nil {
		return err
	}

	if deleteRemoteFlag {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteConversation(context.Background(), id); err != nil {
			return fmt.Errorf("failed to delete on the server: %w", err)
		}
	}

	if err := store.DeleteConversation(id); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	fmt.Printf("Deleted conversation: %s\n", id)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Println("Local history cache cleared. The server still holds your conversations.")
	return nil
}

func runHistorySync(cmd *cobra.Command, args []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	spin := newSpinner("Fetching conversations")
	spin.start()

	ctx := context.Background()
	summaries, err := client.History(ctx)
	if err != nil {
		spin.stopWithError()
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	synced := 0
	for _, summary := range summaries {
		conv, err := client.Conversation(ctx, summary.ID)
		if err != nil {
			continue
		}
		cached := &history.Conversation{
			ID:       conv.ID,
			Title:    summary.Title,
			Messages: conv.Messages,
		}
		if err := store.Save(cached); err != nil {
			continue
		}
		synced++
	}

	spin.stopWithSuccess(fmt.Sprintf("Synced %d of %d conversations", synced, len(summaries)))
	return nil
}
