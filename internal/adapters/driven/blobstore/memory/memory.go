// Package memory implements the storage port in memory, for tests.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Storage implements the interface.
var _ driven.Storage = (*Storage)(nil)

// Storage is an in-memory storage backend. Thread-safe.
type Storage struct {
	name    string
	mu      sync.RWMutex
	objects map[string][]byte
	mtimes  map[string]time.Time

	// FailReads maps paths to errors, for fault injection in tests.
	FailReads map[string]error
}

// New creates an empty in-memory backend with the given name.
func New(name string) *Storage {
	return &Storage{
		name:    name,
		objects: make(map[string][]byte),
		mtimes:  make(map[string]time.Time),
	}
}

// Backend returns the configured backend name.
func (s *Storage) Backend() string {
	return s.name
}

// List returns objects under prefix, sorted by path.
func (s *Storage) List(_ context.Context, prefix string) ([]driven.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []driven.ObjectInfo
	for p, data := range s.objects {
		if prefix != "" && !strings.HasPrefix(p, prefix) {
			continue
		}
		objects = append(objects, driven.ObjectInfo{
			Path:    p,
			Size:    int64(len(data)),
			ModTime: s.mtimes[p],
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Path < objects[j].Path })
	return objects, nil
}

// Read returns a copy of an object's content.
func (s *Storage) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.FailReads[path]; ok {
		return nil, err
	}
	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

// Write stores a copy of data.
func (s *Storage) Write(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.objects[path] = copied
	s.mtimes[path] = time.Now().UTC()
	return nil
}

// Exists reports whether an object is present.
func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[path]
	return ok, nil
}

// Hash returns the hex SHA-256 of an object.
func (s *Storage) Hash(_ context.Context, path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, ok := s.FailReads[path]; ok {
		return "", err
	}
	data, ok := s.objects[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	delete(s.mtimes, path)
	return nil
}
