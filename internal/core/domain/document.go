package domain

import "time"

// DocumentStatus represents the parsing lifecycle state of a document.
type DocumentStatus string

const (
	// StatusNew indicates the document was ingested but not yet parsed.
	StatusNew DocumentStatus = "new"

	// StatusParsing indicates parsing is in progress.
	StatusParsing DocumentStatus = "parsing"

	// StatusParsed indicates content extraction succeeded.
	StatusParsed DocumentStatus = "parsed"

	// StatusFailed indicates parsing failed.
	StatusFailed DocumentStatus = "failed"

	// StatusSkipped indicates the document was deliberately skipped.
	StatusSkipped DocumentStatus = "skipped"

	// StatusNotSupported indicates no parser handles the file type.
	StatusNotSupported DocumentStatus = "not_supported"
)

// Valid reports whether the status is one of the known states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusNew, StatusParsing, StatusParsed, StatusFailed, StatusSkipped, StatusNotSupported:
		return true
	}
	return false
}

// StorageMode represents where a document's file bytes live.
type StorageMode string

const (
	// StorageModeManaged means the file lives in a backend-owned namespace.
	StorageModeManaged StorageMode = "managed"

	// StorageModeExternal means the file is referenced in place and not
	// owned by the system. External documents are never reconciled.
	StorageModeExternal StorageMode = "external"
)

// Document is the canonical database record for an ingested document.
// The reconciliation engine reads and upserts these records; deletion
// is a document-service concern, not sync.
type Document struct {
	// ID is the unique document identifier (the managed file's name stem).
	ID string

	// OriginalName is the file name at ingest time.
	OriginalName string

	// Status is the parsing lifecycle state.
	Status DocumentStatus

	// StorageMode indicates managed or external storage.
	StorageMode StorageMode

	// StorageBackend names the backend holding the file bytes.
	StorageBackend string

	// FilePath is the backend-qualified path to the managed file.
	FilePath string

	// FileSize is the file size in bytes.
	FileSize int64

	// ContentHash is the SHA-256 of the file content, hex encoded.
	// Empty when never computed.
	ContentHash string

	// Tags are operator-assigned labels.
	Tags []string

	// PageCount is the number of extracted pages.
	PageCount int

	// CreatedAt is when the document was first recorded.
	CreatedAt time.Time

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// Page is a unit of extracted content within a document.
type Page struct {
	// DocumentID links to the parent document.
	DocumentID string

	// Number is the 1-based page ordinal.
	Number int

	// Content is the extracted text for this page.
	Content string
}
