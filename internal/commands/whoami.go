package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/tui"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind your API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newAPIClient()
		if err != nil {
			return err
		}

		user, err := client.Me(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, tui.FormatError(err))
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		name := user.DisplayName()
		if name == "" {
			name = "(no name set)"
		}
		if user.Email != "" && user.Email != name {
			fmt.Printf("%s <%s>\n", name, user.Email)
		} else {
			fmt.Println(name)
		}
		return nil
	},
}
