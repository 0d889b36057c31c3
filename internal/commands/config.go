package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bbarni2020/AI/internal/config"
	"github.com/bbarni2020/AI/internal/models"
	"github.com/bbarni2020/AI/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
	Long: `Show the current settings or change one.

Keys: base-url, api-key, model, mode, web-search, clipboard, verbose,
theme, markdown-style`,
	RunE: runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List color themes and markdown styles",
	RunE:  runConfigThemes,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configThemesCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key := cfg.APIKey
	if key != "" {
		key = key[:min(4, len(key))] + "..."
	} else {
		key = "(not set)"
	}

	fmt.Printf("base-url:    %s\n", cfg.BaseURL)
	fmt.Printf("api-key:     %s\n", key)
	fmt.Printf("model:       %s\n", cfg.DefaultModel)
	fmt.Printf("mode:        %s\n", cfg.DefaultMode)
	fmt.Printf("web-search:  %v\n", cfg.UseWebSearch)
	fmt.Printf("clipboard:   %v\n", cfg.CopyToClipboard)
	fmt.Printf("verbose:     %v\n", cfg.Verbose)
	fmt.Printf("theme:       %s\n", cfg.TUITheme)
	fmt.Printf("markdown-style: %s\n", cfg.Markdown.Style)
	return nil
}

func runConfigThemes(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("TUI themes (config set theme <name>):")
	for _, theme := range render.AvailableTUIThemes() {
		marker := "  "
		if theme.Name == cfg.TUITheme {
			marker = "* "
		}
		fmt.Printf("%s%-12s %s\n", marker, theme.Name, theme.Description)
	}

	fmt.Println()
	fmt.Println("Markdown styles (config set markdown-style <name>):")
	for _, theme := range render.AvailableThemes() {
		marker := "  "
		if theme.Name == cfg.Markdown.Style {
			marker = "* "
		}
		fmt.Printf("%s%-12s %s\n", marker, theme.Name, theme.Description)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	key, value := strings.ToLower(args[0]), args[1]
	switch key {
	case "base-url":
		cfg.BaseURL = value
	case "api-key":
		cfg.APIKey = value
	case "model":
		cfg.DefaultModel = value
	case "mode":
		if !models.ValidMode(value) {
			return fmt.Errorf("unknown mode %q (valid: %v)", value, models.Modes())
		}
		cfg.DefaultMode = value
	case "web-search":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("web-search wants true or false: %w", err)
		}
		cfg.UseWebSearch = b
	case "clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("clipboard wants true or false: %w", err)
		}
		cfg.CopyToClipboard = b
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose wants true or false: %w", err)
		}
		cfg.Verbose = b
	case "theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (valid: %v)", value, render.TUIThemeNames())
		}
		cfg.TUITheme = value
	case "markdown-style":
		// A custom glamour style JSON path is also accepted.
		if !render.IsBuiltinStyle(value) {
			if _, statErr := os.Stat(value); statErr != nil {
				return fmt.Errorf("unknown style %q (valid: %v, or a style JSON path)", value, render.ThemeNames())
			}
		}
		cfg.Markdown.Style = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Set %s.\n", key)
	return nil
}
