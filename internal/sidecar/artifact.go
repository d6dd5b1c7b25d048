package sidecar

import (
	"encoding/json"
	"fmt"

	"github.com/inkwell-dms/inkwell/internal/core/domain"
)

// Artifact is the cached parser output stored as {doc_id}.pages.json
// beside a managed file. It lets a restore rebuild derived content
// without re-running the parser.
type Artifact struct {
	Version int           `json:"version"`
	DocID   string        `json:"doc_id"`
	Pages   []domain.Page `json:"pages"`
}

// EncodeArtifact serialises parsed pages into artifact form.
func EncodeArtifact(docID string, pages []domain.Page) ([]byte, error) {
	data, err := json.MarshalIndent(Artifact{
		Version: CurrentVersion,
		DocID:   docID,
		Pages:   pages,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding pages artifact: %w", err)
	}
	return data, nil
}

// DecodeArtifact parses a cached pages artifact. Returns
// domain.ErrInvalidInput for malformed data or a doc_id mismatch, so
// callers fall back to a real parse.
func DecodeArtifact(data []byte, docID string) ([]domain.Page, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decoding pages artifact: %w: %v", domain.ErrInvalidInput, err)
	}
	if artifact.DocID != docID {
		return nil, fmt.Errorf("pages artifact doc_id %q does not match %q: %w",
			artifact.DocID, docID, domain.ErrInvalidInput)
	}
	return artifact.Pages, nil
}
