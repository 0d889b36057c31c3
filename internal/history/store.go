// Package history keeps a local on-disk cache of conversation
// transcripts, one JSON file per conversation. The server owns the
// canonical history; the cache makes listing, search and export work
// without a round trip and survives offline.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bbarni2020/AI/internal/models"
)

// Conversation is one cached transcript.
type Conversation struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Model     string           `json:"model"`
	Mode      string           `json:"mode,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []models.Message `json:"messages"`
}

// Store manages conversation transcript persistence
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates a new history store
func NewStore(baseDir string) (*Store, error) {
	historyDir := filepath.Join(baseDir, "history")
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &Store{
		baseDir: historyDir,
	}, nil
}

// Save writes a full transcript snapshot, replacing any cached copy.
// Used after fetching a conversation from the server.
func (s *Store) Save(conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == "" {
		return fmt.Errorf("conversation has no id")
	}
	now := time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	if conv.Title == "" {
		conv.Title = titleFromMessages(conv.Messages, now)
	}

	return s.saveConversation(conv)
}

// GetConversation retrieves a conversation by ID
func (s *Store) GetConversation(id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadConversation(id)
}

// ListConversations returns all conversations, sorted by most recent
func (s *Store) ListConversations() ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var conversations []*Conversation
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if entry.Name() == metaFileName {
			continue
		}

		id := entry.Name()[:len(entry.Name())-5] // Remove .json
		conv, err := s.loadConversation(id)
		if err != nil {
			continue // Skip corrupted files
		}
		conversations = append(conversations, conv)
	}

	// Sort by UpdatedAt descending
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

// AppendMessage adds one finalized message to a cached conversation,
// creating the transcript on first use. Deliveries already cached under
// the same message id are skipped.
func (s *Store) AppendMessage(id string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		conv = &Conversation{
			ID:        id,
			CreatedAt: time.Now(),
		}
	}

	if msg.ID != "" {
		for _, existing := range conv.Messages {
			if existing.ID == msg.ID {
				return nil
			}
		}
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
	if msg.Role == models.RoleAssistant && msg.Model != "" {
		conv.Model = msg.Model
	}
	if conv.Title == "" {
		conv.Title = titleFromMessages(conv.Messages, conv.CreatedAt)
	}

	return s.saveConversation(conv)
}

// DeleteConversation removes a conversation
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.conversationPath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("conversation not found: %s", id)
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	_ = s.removeFromMeta(id)
	return nil
}

// UpdateTitle updates the title of a conversation
func (s *Store) UpdateTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return err
	}

	conv.Title = title
	conv.UpdatedAt = time.Now()

	if err := s.saveConversation(conv); err != nil {
		return err
	}
	return s.updateTitleInMeta(id, title)
}

// ClearAll deletes all conversations
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to read history directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.baseDir, entry.Name())
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// Internal methods

func (s *Store) conversationPath(id string) string {
	return filepath.Join(s.baseDir, sanitizeID(id)+".json")
}

// sanitizeID keeps server-assigned ids safe as filenames.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func titleFromMessages(msgs []models.Message, fallback time.Time) string {
	for _, msg := range msgs {
		if msg.Role != models.RoleUser || msg.Content == "" {
			continue
		}
		title := msg.Content
		if len(title) > 50 {
			title = title[:50] + "..."
		}
		return title
	}
	return fmt.Sprintf("Chat %s", fallback.Format("2006-01-02 15:04"))
}

func (s *Store) loadConversation(id string) (*Conversation, error) {
	path := s.conversationPath(id)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("conversation not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) saveConversation(conv *Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := s.conversationPath(conv.ID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}

	return nil
}

// GetHistoryDir returns the default history directory path
func GetHistoryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".aichat"), nil
}

// DefaultStore creates a store using the default location
func DefaultStore() (*Store, error) {
	dir, err := GetHistoryDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir)
}
