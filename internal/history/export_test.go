package history

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bbarni2020/AI/internal/models"
)

func seedConversation(t *testing.T, store *Store) {
	t.Helper()
	conv := &Conversation{
		ID:    "c1",
		Title: "Weather chat",
		Model: "gpt-5",
		Messages: []models.Message{
			userMsg("m1", "Will it rain tomorrow in Budapest?"),
			{
				ID:      "m2",
				Role:    models.RoleAssistant,
				Content: "Light rain is expected in the afternoon.",
				Model:   "gpt-5",
				Sources: []models.Source{
					{Title: "Weather service", URL: "https://example.test/forecast"},
				},
				Timestamp: time.Now(),
			},
		},
	}
	if err := store.Save(conv); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
}

func TestExportToMarkdown(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)

	md, err := store.ExportToMarkdown("c1")
	if err != nil {
		t.Fatalf("ExportToMarkdown() returned error: %v", err)
	}

	for _, want := range []string{
		"# Weather chat",
		"**Model:** gpt-5",
		"## User",
		"## Assistant (gpt-5)",
		"Light rain is expected",
		"[Weather service](https://example.test/forecast)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestExportToMarkdown_ModelBreakdown(t *testing.T) {
	store := newTestStore(t)
	conv := &Conversation{
		ID:    "c1",
		Title: "Aggregated",
		Messages: []models.Message{
			{
				ID:      "m1",
				Role:    models.RoleAssistant,
				Content: "combined answer",
				Model:   "C",
				Meta: models.Meta{
					Mode:            models.ModeUltimate,
					AggregatorModel: "C",
					Candidates: []models.MetaCandidate{
						{Model: "A", Excerpt: "view from A"},
						{Model: "B", Excerpt: "view from B"},
					},
				},
			},
		},
	}
	_ = store.Save(conv)

	md, err := store.ExportToMarkdown("c1")
	if err != nil {
		t.Fatalf("ExportToMarkdown() returned error: %v", err)
	}
	if !strings.Contains(md, "Model breakdown") {
		t.Error("markdown missing the breakdown block")
	}
	if !strings.Contains(md, "view from A") || !strings.Contains(md, "view from B") {
		t.Error("markdown missing candidate excerpts")
	}
}

func TestExportToJSON(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)

	data, err := store.ExportToJSON("c1")
	if err != nil {
		t.Fatalf("ExportToJSON() returned error: %v", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if conv.ID != "c1" || len(conv.Messages) != 2 {
		t.Errorf("exported conversation = %s with %d messages", conv.ID, len(conv.Messages))
	}
}

func TestSearchConversations(t *testing.T) {
	store := newTestStore(t)
	seedConversation(t, store)
	_ = store.Save(&Conversation{
		ID:    "c2",
		Title: "Cooking",
		Messages: []models.Message{
			userMsg("m1", "How long to boil an egg?"),
		},
	})

	// Title match
	results, err := store.SearchConversations("weather", false)
	if err != nil {
		t.Fatalf("SearchConversations() returned error: %v", err)
	}
	if len(results) != 1 || results[0].MatchField != "title" {
		t.Errorf("title search = %+v, want one title match", results)
	}

	// Content match
	results, err = store.SearchConversations("boil an egg", true)
	if err != nil {
		t.Fatalf("SearchConversations() returned error: %v", err)
	}
	if len(results) != 1 || results[0].MatchField != "content" {
		t.Fatalf("content search = %+v, want one content match", results)
	}
	if !strings.Contains(results[0].MatchSnippet, "boil an egg") {
		t.Errorf("snippet = %q, should contain the query", results[0].MatchSnippet)
	}
}

func TestExtractSnippet(t *testing.T) {
	long := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	snippet := extractSnippet(long, "needle", 100)

	if !strings.Contains(snippet, "needle") {
		t.Error("snippet should contain the match")
	}
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Errorf("snippet %q should be ellipsized on both sides", snippet)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-time.Minute), "1 min ago"},
		{now.Add(-5 * time.Minute), "5 min ago"},
		{now.Add(-time.Hour), "1h ago"},
		{now.Add(-30 * time.Hour), "yesterday"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
	}
	for _, tt := range tests {
		if got := FormatRelativeTime(tt.t); got != tt.want {
			t.Errorf("FormatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
