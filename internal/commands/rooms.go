package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/presenter"
	"github.com/bbarni2020/AI/internal/session"
	"github.com/bbarni2020/AI/internal/store"
	"github.com/bbarni2020/AI/internal/tui"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Shared rooms where several people talk to the same AI",
	Long: `Shared rooms let several people hold one conversation with the AI.
Everyone in a room sees every message and every streamed answer live.`,
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your rooms",
	RunE:  runRoomsList,
}

var roomsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a room and print its join code",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomsCreate,
}

var roomsJoinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join a room and open the live view",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomsJoin,
}

var roomsPromptCmd = &cobra.Command{
	Use:   "prompt <code> <text>",
	Short: "Set a room's shared system prompt",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRoomsPrompt,
}

var roomsClearCmd = &cobra.Command{
	Use:   "clear <code>",
	Short: "Clear a room's chat for everyone",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomsClear,
}

func init() {
	roomsCmd.AddCommand(roomsListCmd)
	roomsCmd.AddCommand(roomsCreateCmd)
	roomsCmd.AddCommand(roomsJoinCmd)
	roomsCmd.AddCommand(roomsPromptCmd)
	roomsCmd.AddCommand(roomsClearCmd)
}

func runRoomsList(cmd *cobra.Command, args []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	rooms, err := client.Rooms(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms yet. Create one with 'ai rooms create <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CODE\tNAME\tLAST MESSAGE")
	_, _ = fmt.Fprintln(w, "----\t----\t------------")
	for _, room := range rooms {
		last := room.LastMessage
		if len(last) > 50 {
			last = last[:50] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", room.Code, room.Name, last)
	}
	return w.Flush()
}

func runRoomsCreate(cmd *cobra.Command, args []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	room, err := client.CreateRoom(context.Background(), args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to create room: %w", err)
	}

	fmt.Printf("Room %q created. Join code: %s\n", room.Name, room.Code)
	fmt.Printf("Share the code, then run: ai rooms join %s\n", room.Code)
	return nil
}

func runRoomsJoin(cmd *cobra.Command, args []string) error {
	client, cfg, err := newAPIClient()
	if err != nil {
		return err
	}
	tui.ApplyTheme(cfg.TUITheme)

	p := presenter.New(getTerminalWidth() - 10)
	events := tui.NewChanRoomEvents()
	sink := tui.NewRoomSink()

	room := session.NewRoomSession(client, store.New(), p.RenderMarkdown, sink, events)

	code := strings.ToUpper(args[0])
	ctx := context.Background()

	spin := newSpinner("Joining room")
	spin.start()

	// Register membership first; joining a room you are already in is a
	// no-op on the server.
	if _, err := client.JoinRoom(ctx, code); err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to join room: %w", err)
	}

	info, err := room.Join(ctx, code)
	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to join room: %w", err)
	}
	spin.stopWithSuccess(fmt.Sprintf("Joined %q", info.Name))

	defer room.Leave()
	return tui.RunRoom(room, events, sink)
}

func runRoomsPrompt(cmd *cobra.Command, args []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	code := strings.ToUpper(args[0])
	prompt := strings.Join(args[1:], " ")

	applied, err := client.SetSystemPrompt(context.Background(), code, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to set system prompt: %w", err)
	}

	fmt.Printf("System prompt for %s set to: %s\n", code, applied)
	return nil
}

func runRoomsClear(cmd *cobra.Command, args []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	code := strings.ToUpper(args[0])
	if err := client.ClearRoom(context.Background(), code); err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		return fmt.Errorf("failed to clear room: %w", err)
	}

	fmt.Printf("Cleared room %s for everyone.\n", code)
	return nil
}
