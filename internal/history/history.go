// Package history records conversation turns keyed by day, as a JSON file.
// The answer pipeline never touches it; the CLI appends turns after the
// pipeline has produced them.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"edugpt/internal/models"
)

// Store is a file-backed day-keyed turn log.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append records one turn under its date key.
func (s *Store) Append(turn models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.load()
	if err != nil {
		return err
	}
	days[turn.Date] = append(days[turn.Date], turn)
	return s.save(days)
}

// Day returns the turns recorded for a date key, oldest first.
func (s *Store) Day(date string) ([]models.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.load()
	if err != nil {
		return nil, err
	}
	return days[date], nil
}

// Clear removes all turns for a date key.
func (s *Store) Clear(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days, err := s.load()
	if err != nil {
		return err
	}
	delete(days, date)
	return s.save(days)
}

func (s *Store) load() (map[string][]models.ConversationTurn, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]models.ConversationTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	days := map[string][]models.ConversationTurn{}
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return days, nil
}

func (s *Store) save(days map[string][]models.ConversationTurn) error {
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
