package commands

import (
	"fmt"

	"github.com/bbarni2020/AI/internal/api"
	"github.com/bbarni2020/AI/internal/config"
	"github.com/bbarni2020/AI/internal/session"
)

// newAPIClient builds the API client from the saved config and the
// environment. The AICHAT_API_KEY variable overrides the config file.
func newAPIClient() (*api.Client, config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var opts []api.ClientOption
	if key := config.ResolveAPIKey(cfg); key != "" {
		opts = append(opts, api.WithAPIKey(key))
	}

	client, err := api.NewClient(cfg.BaseURL, opts...)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to create client: %w", err)
	}
	return client, cfg, nil
}

// sendOptions resolves the per-message routing from flags and config.
func sendOptions(cfg config.Config) session.SendOptions {
	return session.SendOptions{
		Model:        getModel(),
		Mode:         getMode(),
		UseWebSearch: webSearchFlag || cfg.UseWebSearch,
	}
}
