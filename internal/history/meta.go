package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	metaFileName = "meta.json"
	metaVersion  = 1
)

// ConversationMeta stores per-conversation metadata that is not part of
// the transcript itself.
type ConversationMeta struct {
	ID         string `json:"id"`
	Title      string `json:"title"` // Cached title for quick listing
	IsFavorite bool   `json:"is_favorite"`
}

// HistoryMeta stores metadata for all cached conversations
type HistoryMeta struct {
	Version int                          `json:"version"` // For future migration
	Meta    map[string]*ConversationMeta `json:"meta"`    // Metadata per ID
}

func newHistoryMeta() *HistoryMeta {
	return &HistoryMeta{
		Version: metaVersion,
		Meta:    make(map[string]*ConversationMeta),
	}
}

func (s *Store) metaPath() string {
	return filepath.Join(s.baseDir, metaFileName)
}

// loadMeta loads the metadata from meta.json
// If the file doesn't exist, returns a new empty HistoryMeta
func (s *Store) loadMeta() (*HistoryMeta, error) {
	path := s.metaPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newHistoryMeta(), nil
		}
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}

	var meta HistoryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}

	if meta.Meta == nil {
		meta.Meta = make(map[string]*ConversationMeta)
	}

	return &meta, nil
}

func (s *Store) saveMeta(meta *HistoryMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal meta: %w", err)
	}

	path := s.metaPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}

	return nil
}

func (s *Store) removeFromMeta(id string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	delete(meta.Meta, id)

	return s.saveMeta(meta)
}

func (s *Store) updateTitleInMeta(id, title string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	if m, exists := meta.Meta[id]; exists {
		m.Title = title
		return s.saveMeta(meta)
	}

	return nil
}

// IsFavorite returns whether a conversation is marked as favorite
func (s *Store) IsFavorite(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	if m, exists := meta.Meta[id]; exists {
		return m.IsFavorite, nil
	}

	return false, nil
}

// ToggleFavorite toggles the favorite status of a conversation
// Returns the new favorite status
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return false, err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return false, err
	}

	if _, exists := meta.Meta[id]; !exists {
		meta.Meta[id] = &ConversationMeta{
			ID:    id,
			Title: conv.Title,
		}
	}

	meta.Meta[id].IsFavorite = !meta.Meta[id].IsFavorite
	newStatus := meta.Meta[id].IsFavorite

	if err := s.saveMeta(meta); err != nil {
		return false, err
	}

	return newStatus, nil
}

// SetFavorite sets the favorite status of a conversation
func (s *Store) SetFavorite(id string, isFavorite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.loadConversation(id)
	if err != nil {
		return err
	}

	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	if _, exists := meta.Meta[id]; !exists {
		meta.Meta[id] = &ConversationMeta{
			ID:    id,
			Title: conv.Title,
		}
	}

	meta.Meta[id].IsFavorite = isFavorite

	return s.saveMeta(meta)
}
