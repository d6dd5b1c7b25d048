// Package file persists configuration as a TOML document under the
// inkwell config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore reads and writes config.toml. The document keeps its
// nested shape in memory, so a backend section like [storage.remote]
// stays a real TOML table and Set("storage.remote.endpoint", ...)
// round-trips as one instead of degrading to a quoted flat key.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	tree map[string]any
}

// NewConfigStore opens config.toml under configDir, creating the
// directory when needed. An empty configDir means ~/.inkwell.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".inkwell")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		path: filepath.Join(configDir, "config.toml"),
		tree: make(map[string]any),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get resolves a dotted key against the document: "storage.remote.endpoint"
// walks the [storage.remote] table.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := any(s.tree)
	for _, part := range strings.Split(key, ".") {
		table, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = table[part]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// GetString returns the value at key, or "" when absent or not a string.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt returns the value at key, or 0 when absent or not an integer.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	// go-toml decodes integers as int64; Set may have stored an int.
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetBool returns the value at key, or false when absent or not a bool.
func (s *ConfigStore) GetBool(key string) bool {
	val, _ := s.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice returns the value at key, or nil when absent or not an
// array of strings. Non-string elements are skipped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Set writes value at the dotted key, creating intermediate tables, and
// persists the document. Setting below a scalar is an error: once
// database.data_dir holds a path, database.data_dir.x has nowhere to go.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Split(key, ".")
	node := s.tree
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			if _, exists := node[part]; exists {
				return fmt.Errorf("config key %s: %q is not a table", key, part)
			}
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value

	return s.save()
}

// Save persists the current document to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the document to config.toml (caller holds the lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.tree)
	if err != nil {
		return err
	}
	// The file can hold backend credentials.
	return os.WriteFile(s.path, data, 0600)
}

// Load replaces the in-memory document with the file's contents. A
// missing file yields an empty document.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.tree = make(map[string]any)
			return nil
		}
		return err
	}

	tree := make(map[string]any)
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.tree = tree
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.path
}
