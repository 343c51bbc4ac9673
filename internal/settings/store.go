package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrPersist wraps failures to write settings or cached data to disk.
var ErrPersist = errors.New("persist failed")

// Store is a key-value settings store. Writes stay pending until Flush.
type Store interface {
	Int(key string, def int) int
	SetInt(key string, v int)
	Int64(key string, def int64) int64
	SetInt64(key string, v int64)
	Float(key string, def float64) float64
	SetFloat(key string, v float64)
	Bool(key string, def bool) bool
	SetBool(key string, v bool)
	String(key string, def string) string
	SetString(key string, v string)
	Dirty() bool
	Flush() error
}

// FileStore keeps settings in memory and commits them to a YAML file on Flush.
// An empty path keeps everything in memory.
type FileStore struct {
	path   string
	values map[string]any
	dirty  bool
}

// NewMemoryStore returns a store that never touches the disk.
func NewMemoryStore() *FileStore {
	return &FileStore{values: make(map[string]any)}
}

// OpenFileStore loads path if it exists. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]any)}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s, nil
}

func (s *FileStore) set(key string, v any) {
	if old, ok := s.values[key]; ok && old == v {
		return
	}
	s.values[key] = v
	s.dirty = true
}

func (s *FileStore) Int(key string, def int) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (s *FileStore) SetInt(key string, v int) { s.set(key, v) }

// Int64 is Int for values that do not fit 32 bits, such as unix millis.
func (s *FileStore) Int64(key string, def int64) int64 {
	switch v := s.values[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	}
	return def
}

func (s *FileStore) SetInt64(key string, v int64) { s.set(key, v) }

func (s *FileStore) Float(key string, def float64) float64 {
	switch v := s.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (s *FileStore) SetFloat(key string, v float64) { s.set(key, v) }

func (s *FileStore) Bool(key string, def bool) bool {
	if v, ok := s.values[key].(bool); ok {
		return v
	}
	return def
}

func (s *FileStore) SetBool(key string, v bool) { s.set(key, v) }

func (s *FileStore) String(key string, def string) string {
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return def
}

func (s *FileStore) SetString(key string, v string) { s.set(key, v) }

func (s *FileStore) Dirty() bool { return s.dirty }

// Keys returns every stored key, sorted.
func (s *FileStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes pending changes. On failure the changes stay pending and the
// next Flush retries them.
func (s *FileStore) Flush() error {
	if !s.dirty {
		return nil
	}
	if s.path == "" {
		s.dirty = false
		return nil
	}
	raw, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("%w: encode settings: %v", ErrPersist, err)
	}
	if err := WriteFileAtomic(s.path, raw); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// WriteFileAtomic replaces path with data through a temp file and rename.
// Errors wrap ErrPersist.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrPersist, dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrPersist, path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrPersist, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrPersist, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrPersist, path, err)
	}
	return nil
}
