// Package config handles user configuration for aichat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bbarni2020/AI/internal/models"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// BaseURL is the chat backend endpoint. The default points at the
	// hosted service; self-hosted deployments override it.
	BaseURL string `json:"base_url"`
	// APIKey authorizes requests. Overridable per invocation via the
	// AICHAT_API_KEY environment variable.
	APIKey string `json:"api_key,omitempty"`
	// DefaultModel is used when no model flag is given. The sentinel
	// "AI" lets the backend pick.
	DefaultModel string `json:"default_model"`
	// DefaultMode selects the routing mode (general, precise, turbo,
	// ultimate, manual).
	DefaultMode string `json:"default_mode"`
	// UseWebSearch asks the backend to ground answers in live search
	// results by default.
	UseWebSearch bool `json:"use_web_search"`
	// Verbose enables detailed logging output during operations.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"` // TUI color theme
	Markdown        MarkdownConfig `json:"markdown,omitzero"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://ai.hackclub.dev",
		DefaultModel:    models.ModelAuto,
		DefaultMode:     models.ModeGeneral,
		UseWebSearch:    false,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".aichat")
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700, the directory holds the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = models.ModelAuto
	}
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = models.ModeGeneral
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0o600, the file may contain the API key
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveAPIKey returns the effective API key: the environment variable
// wins over the config file.
func ResolveAPIKey(cfg Config) string {
	if key := os.Getenv("AICHAT_API_KEY"); key != "" {
		return key
	}
	return cfg.APIKey
}

// AvailableModes returns the list of routing modes for flag completion.
func AvailableModes() []string {
	return models.Modes()
}
