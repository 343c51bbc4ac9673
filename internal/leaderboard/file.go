package leaderboard

import (
	"errors"
	"fmt"
	"os"

	"github.com/gravitybox/game/internal/settings"
	"gopkg.in/yaml.v3"
)

// FileStore is the local leaderboard snapshot, read once at startup and
// rewritten after every sync and every local update.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

// Load returns (nil, nil) when no snapshot was written yet.
func (f *FileStore) Load() (*Shots, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read leaderboard snapshot: %w", err)
	}
	s := NewShots()
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parse leaderboard snapshot %s: %w", f.path, err)
	}
	s.Normalize()
	return s, nil
}

func (f *FileStore) Save(s *Shots) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode leaderboard snapshot: %w", err)
	}
	return settings.WriteFileAtomic(f.path, raw)
}
