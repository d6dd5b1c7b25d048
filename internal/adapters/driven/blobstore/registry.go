// Package blobstore builds storage backends from configuration and
// resolves them by name.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/inkwell-dms/inkwell/internal/adapters/driven/blobstore/local"
	"github.com/inkwell-dms/inkwell/internal/adapters/driven/blobstore/minio"
	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/core/services"
)

// Backend type names accepted in configuration.
const (
	TypeLocal = "local"
	TypeMinio = "minio"
)

// Ensure Registry implements the resolver.
var _ services.StorageResolver = (*Registry)(nil)

// Registry resolves configured storage backends by name. Backends are
// declared in configuration under storage.backends and constructed
// lazily on first use, so listing plans against one backend never
// requires credentials for another.
type Registry struct {
	config driven.ConfigStore

	mu       sync.Mutex
	backends map[string]driven.Storage
}

// NewRegistry creates a registry over the given configuration.
func NewRegistry(config driven.ConfigStore) *Registry {
	return &Registry{
		config:   config,
		backends: make(map[string]driven.Storage),
	}
}

// Default returns the backend named by storage.default, falling back to
// a local backend rooted under the user's data directory when nothing
// is configured.
func (r *Registry) Default() (driven.Storage, error) {
	name := r.config.GetString("storage.default")
	if name == "" {
		name = TypeLocal
	}
	return r.Storage(name)
}

// Storage returns the backend with the given name, constructing it on
// first use.
func (r *Registry) Storage(name string) (driven.Storage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.backends[name]; ok {
		return s, nil
	}

	s, err := r.build(name)
	if err != nil {
		return nil, err
	}
	r.backends[name] = s
	return s, nil
}

// Backends lists the configured backend names, sorted.
func (r *Registry) Backends() []string {
	names := r.config.GetStringSlice("storage.backends")
	if len(names) == 0 {
		names = []string{TypeLocal}
	}
	sort.Strings(names)
	return names
}

// build constructs one backend from its configuration section.
func (r *Registry) build(name string) (driven.Storage, error) {
	if !r.configured(name) {
		if name == TypeLocal {
			// Zero-config default: a managed tree under the home directory.
			return local.New(name, defaultLocalRoot())
		}
		return nil, fmt.Errorf("storage backend %q: %w", name, domain.ErrUnknownBackend)
	}

	key := func(field string) string { return "storage." + name + "." + field }

	kind := r.config.GetString(key("type"))
	if kind == "" {
		kind = name
	}

	switch kind {
	case TypeLocal:
		root := r.config.GetString(key("path"))
		if root == "" {
			root = defaultLocalRoot()
		}
		return local.New(name, root)

	case TypeMinio:
		cfg := minio.Config{
			Endpoint:          r.config.GetString(key("endpoint")),
			AccessKey:         r.config.GetString(key("access_key")),
			SecretKey:         r.config.GetString(key("secret_key")),
			Bucket:            r.config.GetString(key("bucket")),
			Prefix:            r.config.GetString(key("prefix")),
			UseSSL:            r.config.GetBool(key("use_ssl")),
			RequestsPerSecond: float64(r.config.GetInt(key("requests_per_second"))),
		}
		if cfg.Endpoint == "" || cfg.Bucket == "" {
			return nil, fmt.Errorf("storage backend %q: endpoint and bucket are required: %w",
				name, domain.ErrInvalidInput)
		}
		return minio.New(name, cfg)

	default:
		return nil, fmt.Errorf("storage backend %q has unknown type %q: %w",
			name, kind, domain.ErrUnknownBackend)
	}
}

// configured reports whether a backend section exists in configuration.
func (r *Registry) configured(name string) bool {
	for _, n := range r.config.GetStringSlice("storage.backends") {
		if n == name {
			return true
		}
	}
	return false
}

func defaultLocalRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".inkwell", "documents")
	}
	return filepath.Join(home, ".inkwell", "documents")
}
