package render

import (
	"testing"

	"github.com/bbarni2020/AI/internal/config"
)

func TestLoadOptionsFromConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GLAMOUR_STYLE", "")

	opts := LoadOptionsFromConfig()
	if opts.Style != StyleDark {
		t.Errorf("Style = %q, want the dark default", opts.Style)
	}
	if !opts.EnableEmoji || !opts.PreserveNewLines || !opts.TableWrap {
		t.Errorf("boolean defaults not applied: %+v", opts)
	}
}

func TestLoadOptionsFromConfig_ReadsSavedStyle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GLAMOUR_STYLE", "")

	cfg := config.DefaultConfig()
	cfg.Markdown.Style = StyleCatppuccin
	cfg.Markdown.TableWrap = false
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	opts := LoadOptionsFromConfig()
	if opts.Style != StyleCatppuccin {
		t.Errorf("Style = %q, want the saved catppuccin", opts.Style)
	}
	if opts.TableWrap {
		t.Error("TableWrap = true, want the saved false")
	}
}

func TestLoadOptionsFromConfig_EnvWinsOverFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Markdown.Style = StyleCatppuccin
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	t.Setenv("GLAMOUR_STYLE", "notty")
	if opts := LoadOptionsFromConfig(); opts.Style != "notty" {
		t.Errorf("Style = %q, want the GLAMOUR_STYLE override", opts.Style)
	}
}

func TestLoadOptionsFromConfigWithWidth(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GLAMOUR_STYLE", "")

	if opts := LoadOptionsFromConfigWithWidth(42); opts.Width != 42 {
		t.Errorf("Width = %d, want 42", opts.Width)
	}
}
