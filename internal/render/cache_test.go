package render

import "testing"

func TestPools_OnePerOptionSet(t *testing.T) {
	resetPools()
	t.Cleanup(resetPools)

	opts := DefaultOptions()
	for i := 0; i < 3; i++ {
		if _, err := Markdown("same options every time", opts); err != nil {
			t.Fatalf("Markdown: %v", err)
		}
	}
	if got := poolCount(); got != 1 {
		t.Errorf("poolCount = %d after repeated renders, want 1", got)
	}

	opts.Width = 40
	if _, err := Markdown("different width", opts); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if got := poolCount(); got != 2 {
		t.Errorf("poolCount = %d after a second option set, want 2", got)
	}
}

func TestPoolKey_SeparatesOptions(t *testing.T) {
	base := DefaultOptions()

	narrow := base
	narrow.Width = 40
	if poolKey(base) == poolKey(narrow) {
		t.Error("width change must produce a different pool key")
	}

	styled := base
	styled.Style = StyleCatppuccin
	if poolKey(base) == poolKey(styled) {
		t.Error("style change must produce a different pool key")
	}

	if poolKey(base) != poolKey(DefaultOptions()) {
		t.Error("equal options must share a pool key")
	}
}
