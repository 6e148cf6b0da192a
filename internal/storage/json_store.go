package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/noahxzhu/interval-alert/internal/model"
)

type Store struct {
	mu       sync.RWMutex
	saveMu   sync.Mutex
	filePath string
	Data     *model.AppSchema
}

func NewStore(filePath string) *Store {
	return &Store{
		filePath: filePath,
		Data:     &model.AppSchema{},
	}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.Data = &model.AppSchema{}
			return nil
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		s.Data = &model.AppSchema{}
		return nil
	}

	schema := &model.AppSchema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	s.Data = schema

	return nil
}

func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.Data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Write through a temp file so a crash never leaves a half-written registration.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (s *Store) UpdateSettings(settings model.Settings) error {
	s.mu.Lock()
	s.Data.Settings = settings
	s.mu.Unlock()
	return s.Save()
}

func (s *Store) GetSettings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Data.Settings
}

// GetRegistration returns a copy of the stored registration.
func (s *Store) GetRegistration() (model.Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Data.Alert == nil {
		return model.Registration{}, false
	}
	return *s.Data.Alert, true
}

// PutRegistration replaces the stored registration. There is only ever one.
func (s *Store) PutRegistration(r model.Registration) error {
	s.mu.Lock()
	s.Data.Alert = &r
	s.mu.Unlock()
	return s.Save()
}

// UpdateRegistration applies fn to the stored registration and persists it.
// It reports false when nothing is stored.
func (s *Store) UpdateRegistration(fn func(r *model.Registration)) (bool, error) {
	s.mu.Lock()
	if s.Data.Alert == nil {
		s.mu.Unlock()
		return false, nil
	}
	fn(s.Data.Alert)
	s.mu.Unlock()
	return true, s.Save()
}
