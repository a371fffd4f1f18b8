package domain

import (
	"context"
	"time"
)

// RepositoryClient issues the remote listing and fetch calls. It knows
// nothing about backup decisions; callers own the incremental policy.
type RepositoryClient interface {
	// ListBooks lists every book of the configured target
	ListBooks(ctx context.Context) ([]Book, error)
	// ListDocumentMetadata lists the document metadata of one book
	ListDocumentMetadata(ctx context.Context, book Book) ([]DocumentMeta, error)
	// FetchDocument fetches the full document record
	FetchDocument(ctx context.Context, meta DocumentMeta) (*Document, error)
	// FetchResource streams a binary resource to dest, which must not exist
	FetchResource(ctx context.Context, url, dest string) error
	// Close releases transport resources
	Close() error
}

// BackupStore answers the needs-backup question and records outcomes.
// Implementations must be safe for concurrent use.
type BackupStore interface {
	// NeedsBackup reports whether the document is new or remotely newer
	NeedsBackup(meta DocumentMeta) bool
	// TrackBackup records a successful backup; only call after the
	// document file is durably written
	TrackBackup(meta DocumentMeta)
	// RegisterBooks merges book snapshots into the index
	RegisterBooks(books []Book)
}

// DocumentWriter persists one fetched document and reports the path.
type DocumentWriter interface {
	WriteDocument(doc *Document) (string, error)
}

// Hook runs after a document has been written and tracked. Hook failures
// are reported to the caller but never undo the backup.
type Hook interface {
	// Name identifies the hook in logs
	Name() string
	// AfterWrite is invoked once per successfully written document
	AfterWrite(ctx context.Context, doc *Document) error
}

// Cache defines the interface for resource caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists
	Has(ctx context.Context, key string) bool
	// Delete removes a key
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}
