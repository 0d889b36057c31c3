package store

import (
	"testing"

	"github.com/bbarni2020/AI/internal/models"
)

func msg(id, content string) models.Message {
	return models.Message{ID: id, Role: models.RoleUser, Content: content}
}

func TestStore_AddIfNew_Idempotent(t *testing.T) {
	s := New()

	if !s.AddIfNew("c1", msg("m1", "hello")) {
		t.Fatal("first insert should succeed")
	}
	if s.AddIfNew("c1", msg("m1", "hello")) {
		t.Error("second insert of same id should be a no-op")
	}

	list := s.ListForConversation("c1")
	if len(list) != 1 {
		t.Fatalf("got %d messages, want 1", len(list))
	}
	if list[0].Content != "hello" {
		t.Errorf("Content = %q, want the first delivery kept", list[0].Content)
	}
}

func TestStore_AddIfNew_RejectsEmptyID(t *testing.T) {
	s := New()
	if s.AddIfNew("c1", models.Message{Role: models.RoleUser, Content: "x"}) {
		t.Error("message without id should be rejected")
	}
}

func TestStore_ArrivalOrder(t *testing.T) {
	s := New()
	s.AddIfNew("c1", msg("m1", "first"))
	s.AddIfNew("c1", msg("m2", "second"))
	s.AddIfNew("c1", msg("m3", "third"))

	list := s.ListForConversation("c1")
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if list[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, list[i].Content, w)
		}
	}
}

func TestStore_ConversationsAreIsolated(t *testing.T) {
	s := New()
	s.AddIfNew("c1", msg("m1", "one"))

	if !s.AddIfNew("c2", msg("m1", "same id, other conversation")) {
		t.Error("ids are only unique within a conversation")
	}
	if s.Len("c1") != 1 || s.Len("c2") != 1 {
		t.Errorf("Len = %d/%d, want 1/1", s.Len("c1"), s.Len("c2"))
	}
}

func TestStore_Clear_KeepsIdentityDropsHistory(t *testing.T) {
	s := New()
	s.AddIfNew("c1", msg("m1", "one"))
	s.Clear("c1")

	if s.Len("c1") != 0 {
		t.Errorf("Len = %d, want 0 after clear", s.Len("c1"))
	}
	// A rebroadcast of an old id after clear is a fresh insert.
	if !s.AddIfNew("c1", msg("m1", "again")) {
		t.Error("cleared conversation should accept previously seen ids")
	}
}

func TestStore_Adopt_MovesMessagesToNewKey(t *testing.T) {
	s := New()
	s.AddIfNew("", msg("m1", "echoed before the server named the conversation"))

	s.Adopt("", "c1")

	if s.Len("") != 0 {
		t.Errorf("old key still holds %d messages", s.Len(""))
	}
	if s.Len("c1") != 1 {
		t.Fatalf("new key holds %d messages, want 1", s.Len("c1"))
	}
	// The moved id keeps deduplicating under the new key.
	if s.AddIfNew("c1", msg("m1", "again")) {
		t.Error("adopted ids must stay deduplicated")
	}
}

func TestStore_Adopt_MergesIntoExisting(t *testing.T) {
	s := New()
	s.AddIfNew("old", msg("m1", "one"))
	s.AddIfNew("new", msg("m1", "already here"))
	s.AddIfNew("old", msg("m2", "two"))

	s.Adopt("old", "new")

	list := s.ListForConversation("new")
	if len(list) != 2 {
		t.Fatalf("got %d messages, want 2 (duplicate id skipped)", len(list))
	}
	if list[1].Content != "two" {
		t.Errorf("merged message = %q, want two", list[1].Content)
	}
}

func TestStore_RemoveConversation(t *testing.T) {
	s := New()
	s.AddIfNew("c1", msg("m1", "one"))
	s.RemoveConversation("c1")

	if got := s.ListForConversation("c1"); got != nil {
		t.Errorf("ListForConversation = %v, want nil after removal", got)
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := New()
	s.AddIfNew("c1", msg("m1", "one"))

	list := s.ListForConversation("c1")
	list[0].Content = "mutated"

	if s.ListForConversation("c1")[0].Content != "one" {
		t.Error("mutating the returned slice must not affect the store")
	}
}
