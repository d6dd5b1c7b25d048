// Package local implements the storage port over a local directory.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

// Ensure Storage implements the interface.
var _ driven.Storage = (*Storage)(nil)

// Storage serves a managed file tree rooted at a local directory.
// Writes go through a temp file and rename, so readers never observe a
// half-written object.
type Storage struct {
	name string
	root string
}

// New creates a local storage backend rooted at dir. The directory is
// created if missing.
func New(name, dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Storage{name: name, root: dir}, nil
}

// Backend returns the configured backend name.
func (s *Storage) Backend() string {
	return s.name
}

// Root returns the directory the backend is rooted at.
func (s *Storage) Root() string {
	return s.root
}

// List walks the tree under prefix and returns every regular file.
func (s *Storage) List(_ context.Context, prefix string) ([]driven.ObjectInfo, error) {
	var objects []driven.ObjectInfo

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, driven.ObjectInfo{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}
	return objects, nil
}

// Read returns the full content of an object.
func (s *Storage) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(path))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Write stores an object via temp file and rename.
func (s *Storage) Write(_ context.Context, path string, data []byte) error {
	dst := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".inkwell-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}

// Exists reports whether an object is present.
func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.abs(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return true, nil
}

// Hash streams the object through SHA-256.
func (s *Storage) Hash(_ context.Context, path string) (string, error) {
	f, err := os.Open(s.abs(path))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Storage) Delete(_ context.Context, path string) error {
	err := os.Remove(s.abs(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

func (s *Storage) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}
