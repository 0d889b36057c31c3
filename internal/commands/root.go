// Package commands provides CLI commands for aichat.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/config"
	"github.com/bbarni2020/AI/internal/models"
)

var (
	// Global flags
	modelFlag     string
	modeFlag      string
	webSearchFlag bool
	outputFlag    string
	fileFlag      string
	rawFlag       bool
	clipboardFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ai [prompt]",
	Short: "CLI for the Hack Club AI chat service",
	Long: `ai is a command-line client for the Hack Club AI chat service.
Answers stream in live, conversations are kept on the server, and
shared rooms let several people talk to the same AI.

Examples:
  ai chat                          Start interactive chat
  ai "What is Go?"                 Send a single query
  ai -f prompt.md                  Read prompt from file
  cat prompt.md | ai               Read prompt from stdin
  ai "Hello" -o response.md        Save response to file
  ai --mode ultimate "Hard one?"   Ask every model and aggregate
  ai rooms join X4TQ9              Join a shared room`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("ai %s (built %s)\n", Version, BuildTime)
			return nil
		}

		if modeFlag != "" && !models.ValidMode(modeFlag) {
			return fmt.Errorf("unknown mode %q (valid: %v)", modeFlag, models.Modes())
		}

		// Check for stdin input
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		// Check for file input
		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), rawFlag || !isStdoutTTY())
		}

		// Check for stdin
		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), rawFlag || !isStdoutTTY())
		}

		// Check for positional argument
		if len(args) > 0 {
			return runQuery(args[0], rawFlag || !isStdoutTTY())
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Model to use (empty lets the server pick)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Routing mode (general, precise, turbo, ultimate, manual)")
	rootCmd.PersistentFlags().BoolVarP(&webSearchFlag, "web-search", "w", false, "Let the AI search the web")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVarP(&rawFlag, "raw", "r", false, "Print only the raw answer text")
	rootCmd.Flags().BoolVarP(&clipboardFlag, "copy", "c", false, "Copy the answer to the clipboard")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// getModel returns the model to use (from flag or config)
func getModel() string {
	if modelFlag != "" {
		return modelFlag
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return models.ModelAuto
	}

	return cfg.DefaultModel
}

// getMode returns the routing mode to use (from flag or config)
func getMode() string {
	if modeFlag != "" {
		return modeFlag
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return models.ModeGeneral
	}

	return cfg.DefaultMode
}
