package state

import (
	"time"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

// BackupRecord tracks the backup history of a single document.
type BackupRecord struct {
	// LastUpdated is the remote revision captured by the most recent backup.
	LastUpdated time.Time `json:"last_updated"`

	// Backups holds the revision of every backup ever taken, oldest first.
	Backups []time.Time `json:"backups"`
}

// Metadata is the on-disk catalog of everything backed up so far.
// Document records are keyed by document id, books by book id.
type Metadata struct {
	Items map[int64]*BackupRecord `json:"items"`
	Books map[int64]domain.Book   `json:"books"`
}

// NewMetadata creates an empty catalog.
func NewMetadata() *Metadata {
	return &Metadata{
		Items: make(map[int64]*BackupRecord),
		Books: make(map[int64]domain.Book),
	}
}

// ItemCount returns the number of tracked documents.
func (m *Metadata) ItemCount() int {
	return len(m.Items)
}

// BookCount returns the number of registered books.
func (m *Metadata) BookCount() int {
	return len(m.Books)
}
