// Package store keeps the canonical in-memory message list per
// conversation and deduplicates deliveries by message id.
package store

import (
	"sync"

	"github.com/bbarni2020/AI/internal/models"
)

// Store holds messages per conversation. The same message commonly arrives
// more than once: as an optimistic local echo, again as a broadcast or
// stream confirmation. AddIfNew is the single reconciliation mechanism.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

type conversation struct {
	seen     map[string]struct{}
	messages []models.Message
}

// New creates an empty store.
func New() *Store {
	return &Store{
		conversations: make(map[string]*conversation),
	}
}

// AddIfNew inserts msg into the conversation unless its id was already
// seen there. Returns true if the message was inserted. Messages without an
// id are rejected, they cannot be reconciled.
func (s *Store) AddIfNew(conversationID string, msg models.Message) bool {
	if msg.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		conv = &conversation{seen: make(map[string]struct{})}
		s.conversations[conversationID] = conv
	}

	if _, dup := conv.seen[msg.ID]; dup {
		return false
	}
	conv.seen[msg.ID] = struct{}{}
	conv.messages = append(conv.messages, msg)
	return true
}

// ListForConversation returns the conversation's messages in arrival order.
func (s *Store) ListForConversation(conversationID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// Len returns the number of messages held for a conversation.
func (s *Store) Len(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return 0
	}
	return len(conv.messages)
}

// Clear drops a conversation's message history but keeps its identity, so
// previously seen ids stay cleared too and a rebroadcast starts fresh.
func (s *Store) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; ok {
		s.conversations[conversationID] = &conversation{seen: make(map[string]struct{})}
	}
}

// Adopt moves a conversation's messages and seen ids to a new key. Used
// when the server assigns the real conversation id to messages echoed under
// a provisional local key. A no-op when the keys match or the old key holds
// nothing.
func (s *Store) Adopt(oldID, newID string) {
	if oldID == newID {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.conversations[oldID]
	if !ok {
		return
	}
	delete(s.conversations, oldID)

	conv, ok := s.conversations[newID]
	if !ok {
		s.conversations[newID] = old
		return
	}
	for _, msg := range old.messages {
		if _, dup := conv.seen[msg.ID]; dup {
			continue
		}
		conv.seen[msg.ID] = struct{}{}
		conv.messages = append(conv.messages, msg)
	}
}

// RemoveConversation forgets a conversation entirely.
func (s *Store) RemoveConversation(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
}
