package render

import "testing"

func TestGetTUIThemeByName(t *testing.T) {
	theme, ok := GetTUIThemeByName("nord")
	if !ok {
		t.Fatal("nord must be a known theme")
	}
	if theme.Name != "nord" {
		t.Errorf("theme.Name = %q, want nord", theme.Name)
	}

	if _, ok := GetTUIThemeByName("gruvbox"); ok {
		t.Error("gruvbox is not shipped and must not resolve")
	}
}

func TestSetTUITheme(t *testing.T) {
	t.Cleanup(func() { SetTUITheme("tokyonight") })

	if !SetTUITheme("dracula") {
		t.Fatal("SetTUITheme(dracula) = false, want true")
	}
	if got := GetTUITheme().Name; got != "dracula" {
		t.Errorf("active theme = %q, want dracula", got)
	}

	if SetTUITheme("no-such-theme") {
		t.Error("unknown theme name must be rejected")
	}
	if got := GetTUITheme().Name; got != "dracula" {
		t.Errorf("active theme = %q after a rejected switch, want dracula", got)
	}
}

func TestTUIThemeNames(t *testing.T) {
	names := TUIThemeNames()
	want := []string{"tokyonight", "catppuccin", "nord", "dracula"}
	if len(names) != len(want) {
		t.Fatalf("got %d theme names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAvailableTUIThemes_ReturnsACopy(t *testing.T) {
	themes := AvailableTUIThemes()
	if len(themes) == 0 {
		t.Fatal("no themes listed")
	}
	themes[0].Name = "mutated"
	if got := AvailableTUIThemes()[0].Name; got == "mutated" {
		t.Error("mutating the returned slice must not change the registry")
	}
}
