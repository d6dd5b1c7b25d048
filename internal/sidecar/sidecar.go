// Package sidecar reads and writes the per-file metadata snapshot that
// lives alongside every managed document file.
//
// A sidecar is the recovery source for a document whose database record
// is missing: it mirrors the record's stable fields and is rewritten at
// ingest time and whenever sidecars are back-filled. It is never
// authoritative over the database once a record exists.
//
// The schema is versioned and backward-readable: unknown fields are
// preserved in a raw passthrough map so a read-modify-write by an older
// binary does not drop fields written by a newer one.
package sidecar

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// Suffix is the sidecar naming convention: `{doc_id}.metadata.json`.
const Suffix = ".metadata.json"

// ArtifactSuffix names the cached parser-output artifact that may sit
// alongside a managed file: `{doc_id}.pages.json`. It is consulted only
// when a restore explicitly requests reparse.
const ArtifactSuffix = ".pages.json"

// CurrentVersion is the schema version written by this binary.
const CurrentVersion = 1

// Sidecar is the JSON metadata snapshot co-located with a managed file.
type Sidecar struct {
	// Version is the schema version this sidecar was written with.
	Version int `json:"version"`

	// DocID must equal the managed file's name stem.
	DocID string `json:"doc_id"`

	// OriginalName is the file name at ingest time.
	OriginalName string `json:"original_name"`

	// Status mirrors the document record's parsing state.
	Status domain.DocumentStatus `json:"status"`

	// StorageMode mirrors the record's storage mode.
	StorageMode domain.StorageMode `json:"storage_mode"`

	// Tags mirrors the record's tags.
	Tags []string `json:"tags,omitempty"`

	// ContentHash is the SHA-256 of the file content, if known.
	ContentHash string `json:"content_hash,omitempty"`

	// CreatedAt mirrors the record's creation time.
	CreatedAt time.Time `json:"created_at"`

	// ModifiedAt is when this sidecar was last written.
	ModifiedAt time.Time `json:"modified_at"`

	// Extra preserves fields this version does not model, so newer
	// schema fields survive a read-modify-write cycle.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields are the top-level keys modelled by this schema version.
var knownFields = map[string]bool{
	"version":       true,
	"doc_id":        true,
	"original_name": true,
	"status":        true,
	"storage_mode":  true,
	"tags":          true,
	"content_hash":  true,
	"created_at":    true,
	"modified_at":   true,
}

// Decode parses sidecar JSON, tolerating unknown fields.
func Decode(data []byte) (*Sidecar, error) {
	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing sidecar: %w", err)
	}
	if s.DocID == "" {
		return nil, fmt.Errorf("parsing sidecar: missing doc_id: %w", domain.ErrInvalidInput)
	}

	// Capture unknown fields for passthrough.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing sidecar fields: %w", err)
	}
	for key := range raw {
		if knownFields[key] {
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage)
		}
		s.Extra[key] = raw[key]
	}

	return &s, nil
}

// Encode serialises the sidecar, merging passthrough fields back in.
func (s *Sidecar) Encode() ([]byte, error) {
	type alias Sidecar
	data, err := json.Marshal((*alias)(s))
	if err != nil {
		return nil, fmt.Errorf("encoding sidecar: %w", err)
	}

	if len(s.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("merging sidecar fields: %w", err)
	}
	for key, val := range s.Extra {
		if _, taken := merged[key]; !taken {
			merged[key] = val
		}
	}
	return json.Marshal(merged)
}

// FromDocument builds a sidecar snapshot from a database record.
func FromDocument(doc *domain.Document) *Sidecar {
	return &Sidecar{
		Version:      CurrentVersion,
		DocID:        doc.ID,
		OriginalName: doc.OriginalName,
		Status:       doc.Status,
		StorageMode:  doc.StorageMode,
		Tags:         doc.Tags,
		ContentHash:  doc.ContentHash,
		CreatedAt:    doc.CreatedAt,
		ModifiedAt:   time.Now().UTC(),
	}
}

// ToDocument builds the minimal database record a restore recreates.
// The caller fills backend-dependent fields (path, backend, size).
func (s *Sidecar) ToDocument() *domain.Document {
	status := s.Status
	if !status.Valid() {
		status = domain.StatusNew
	}
	mode := s.StorageMode
	if mode == "" {
		mode = domain.StorageModeManaged
	}
	return &domain.Document{
		ID:           s.DocID,
		OriginalName: s.OriginalName,
		Status:       status,
		StorageMode:  mode,
		Tags:         s.Tags,
		ContentHash:  s.ContentHash,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
}

// PathFor returns the sidecar path for a managed file path.
func PathFor(filePath string) string {
	return path.Join(path.Dir(filePath), DocIDFromPath(filePath)+Suffix)
}

// ArtifactPathFor returns the cached parser artifact path for a managed
// file path.
func ArtifactPathFor(filePath string) string {
	return path.Join(path.Dir(filePath), DocIDFromPath(filePath)+ArtifactSuffix)
}

// IsArtifactPath reports whether a path follows the artifact convention.
func IsArtifactPath(p string) bool {
	return strings.HasSuffix(p, ArtifactSuffix)
}

// IsSidecarPath reports whether a path follows the sidecar convention.
func IsSidecarPath(p string) bool {
	return strings.HasSuffix(p, Suffix)
}

// DocIDFromPath derives the document ID from a path's file name stem.
// For sidecar paths the metadata suffix is stripped first.
func DocIDFromPath(p string) string {
	name := path.Base(p)
	if strings.HasSuffix(name, Suffix) {
		return strings.TrimSuffix(name, Suffix)
	}
	if strings.HasSuffix(name, ArtifactSuffix) {
		return strings.TrimSuffix(name, ArtifactSuffix)
	}
	if ext := path.Ext(name); ext != "" {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
