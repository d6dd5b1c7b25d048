package memory

import (
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a flat in-memory configuration double. Keys are the
// full dotted form ("storage.remote.endpoint"); tests seed exactly the
// keys the code under test reads.
type ConfigStore struct {
	values map[string]any
}

// NewConfigStore returns an empty store; seed it with Set.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := s.values[key].(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.values[key].(bool)
	return b
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	vals, _ := s.values[key].([]string)
	return vals
}

func (s *ConfigStore) Set(key string, value any) error {
	s.values[key] = value
	return nil
}

// Save is a no-op; nothing outlives the test.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op; the store only holds what Set put in it.
func (s *ConfigStore) Load() error { return nil }

func (s *ConfigStore) Path() string { return ":memory:" }
