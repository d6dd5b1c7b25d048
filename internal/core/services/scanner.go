package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
	"github.com/inkwell-dms/inkwell/internal/logger"
	"github.com/inkwell-dms/inkwell/internal/sidecar"
)

// hashWorkers bounds concurrent hash computations during a verifying
// scan. Hashing is the dominant scan cost; everything else is a single
// listing pass.
const hashWorkers = 8

// ScanEntry describes one managed file found in storage.
type ScanEntry struct {
	// DocID is derived from the file name stem.
	DocID string

	// FilePath is the backend-qualified managed file path.
	FilePath string

	// Size is the file size in bytes.
	Size int64

	// SidecarPath is the co-located sidecar path, empty when absent.
	SidecarPath string

	// Sidecar is the decoded sidecar, nil when absent or malformed.
	Sidecar *sidecar.Sidecar

	// Hash is the freshly computed SHA-256, hex encoded. Only set when
	// the scan requested content verification and hashing succeeded.
	Hash string
}

// ScanError reports one entry-level problem. The scan continues past it.
type ScanError struct {
	// Path is the object the problem relates to.
	Path string

	// Err is the human-readable description.
	Err string
}

// ScanResult is the inventory of one storage backend.
type ScanResult struct {
	// Entries are the managed files, sorted by DocID ascending.
	Entries []ScanEntry

	// OrphanSidecars are sidecar paths with no matching managed file.
	// Reported for visibility; their absence from Entries already
	// covers them during classification.
	OrphanSidecars []string

	// Errors are the entry-level problems encountered.
	Errors []ScanError

	// Backend names the scanned backend.
	Backend string
}

// Scanner inventories the managed namespace of one storage backend.
// Read-only: a scan never mutates storage or the database.
type Scanner struct {
	storage driven.Storage
}

// NewScanner creates a scanner over a storage backend.
func NewScanner(storage driven.Storage) *Scanner {
	return &Scanner{storage: storage}
}

// Scan lists the managed namespace under prefix and pairs every managed
// file with its sidecar. When verifyContent is set, file content is
// hashed with a bounded worker pool; hash failures are reported
// per-entry and the scan continues.
func (s *Scanner) Scan(ctx context.Context, prefix string, verifyContent bool) (*ScanResult, error) {
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing storage %s: %w", s.storage.Backend(), err)
	}

	result := &ScanResult{Backend: s.storage.Backend()}

	files := make(map[string]driven.ObjectInfo)
	sidecars := make(map[string]string)

	for _, obj := range objects {
		switch {
		case sidecar.IsArtifactPath(obj.Path), isIgnoredPath(obj.Path):
			continue
		case sidecar.IsSidecarPath(obj.Path):
			sidecars[sidecar.DocIDFromPath(obj.Path)] = obj.Path
		default:
			docID := sidecar.DocIDFromPath(obj.Path)
			if prev, dup := files[docID]; dup {
				result.Errors = append(result.Errors, ScanError{
					Path: obj.Path,
					Err:  fmt.Sprintf("%v: %s and %s", domain.ErrDuplicateDocID, prev.Path, obj.Path),
				})
				continue
			}
			files[docID] = obj
		}
	}

	for docID, obj := range files {
		entry := ScanEntry{
			DocID:    docID,
			FilePath: obj.Path,
			Size:     obj.Size,
		}

		if scPath, ok := sidecars[docID]; ok {
			entry.SidecarPath = scPath
			sc, scErr := s.readSidecar(ctx, scPath)
			if scErr != nil {
				// A malformed sidecar is treated as absent so a later
				// execute can rewrite it from the database record.
				result.Errors = append(result.Errors, ScanError{Path: scPath, Err: scErr.Error()})
				entry.SidecarPath = ""
			} else if sc.DocID != docID {
				result.Errors = append(result.Errors, ScanError{
					Path: scPath,
					Err:  fmt.Sprintf("sidecar doc_id %q does not match file %s", sc.DocID, obj.Path),
				})
				entry.SidecarPath = ""
			} else {
				entry.Sidecar = sc
			}
		}

		result.Entries = append(result.Entries, entry)
	}

	for docID, scPath := range sidecars {
		if _, ok := files[docID]; !ok {
			result.OrphanSidecars = append(result.OrphanSidecars, scPath)
		}
	}

	if verifyContent {
		if err := s.hashEntries(ctx, result); err != nil {
			return nil, err
		}
	}

	// Deterministic inventory regardless of listing or hashing order.
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].DocID < result.Entries[j].DocID
	})
	sort.Strings(result.OrphanSidecars)
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})

	logger.Debug("Scanned %s: %d files, %d orphan sidecars, %d errors",
		result.Backend, len(result.Entries), len(result.OrphanSidecars), len(result.Errors))

	return result, nil
}

// hashEntries computes content hashes with a bounded worker pool.
func (s *Scanner) hashEntries(ctx context.Context, result *ScanResult) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers)

	for i := range result.Entries {
		g.Go(func() error {
			hash, err := s.storage.Hash(gctx, result.Entries[i].FilePath)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, ScanError{
					Path: result.Entries[i].FilePath,
					Err:  fmt.Sprintf("hashing content: %v", err),
				})
				mu.Unlock()
				return nil // per-entry failure, keep scanning
			}
			result.Entries[i].Hash = hash
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("hashing scan entries: %w", err)
	}
	return ctx.Err()
}

// readSidecar fetches and decodes one sidecar.
func (s *Scanner) readSidecar(ctx context.Context, path string) (*sidecar.Sidecar, error) {
	data, err := s.storage.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}
	return sidecar.Decode(data)
}

// isIgnoredPath reports whether an object is not a managed document
// file: hidden files, temp files from interrupted writes, and directory
// placeholders.
func isIgnoredPath(p string) bool {
	base := p
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		base = p[idx+1:]
	}
	if base == "" || strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".partial")
}
