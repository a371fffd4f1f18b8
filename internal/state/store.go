package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// MetadataFileName is the catalog file kept at the root of the backup directory.
const MetadataFileName = "metadata.json"

// Store keeps the backup catalog in memory and persists it as a single
// JSON file. Mutating calls mark the store dirty; Save writes only when
// something actually changed since the last Load or Save.
type Store struct {
	path   string
	mu     sync.RWMutex
	meta   *Metadata
	dirty  bool
	logger *utils.Logger
}

var _ domain.BackupStore = (*Store)(nil)

// NewStore creates a store rooted at dir. Nothing is read from disk
// until Load is called.
func NewStore(dir string, logger *utils.Logger) *Store {
	return &Store{
		path:   filepath.Join(dir, MetadataFileName),
		meta:   NewMetadata(),
		logger: logger,
	}
}

// Load reads the catalog from disk. A missing file returns ErrNotFound
// and unparseable content returns ErrCorrupted; in both cases the store
// stays usable with an empty catalog.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return ErrCorrupted
	}
	if meta.Items == nil {
		meta.Items = make(map[int64]*BackupRecord)
	}
	if meta.Books == nil {
		meta.Books = make(map[int64]domain.Book)
	}

	s.meta = &meta
	s.dirty = false
	return nil
}

// Save writes the catalog when it changed since the last Load or Save.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.meta, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return err
	}

	s.dirty = false
	if s.logger != nil {
		s.logger.Debug().
			Int("items", len(s.meta.Items)).
			Int("books", len(s.meta.Books)).
			Str("path", s.path).
			Msg("Metadata saved")
	}
	return nil
}

// NeedsBackup reports whether the document revision is newer than the
// last one backed up. Unknown documents always need a backup.
func (s *Store) NeedsBackup(meta domain.DocumentMeta) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.meta.Items[meta.ID]
	if !ok {
		return true
	}
	return rec.LastUpdated.Before(meta.UpdatedAt)
}

// TrackBackup records a completed backup of the given document revision.
// Call it only after the document has been written out.
func (s *Store) TrackBackup(meta domain.DocumentMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.meta.Items[meta.ID]
	if !ok {
		rec = &BackupRecord{}
		s.meta.Items[meta.ID] = rec
	}
	rec.LastUpdated = meta.UpdatedAt
	rec.Backups = append(rec.Backups, meta.UpdatedAt)
	s.dirty = true
}

// RegisterBooks records the current remote book listing, replacing any
// earlier entry with the same id.
func (s *Store) RegisterBooks(books []domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, book := range books {
		s.meta.Books[book.ID] = book
	}
	if len(books) > 0 {
		s.dirty = true
	}
}

// Record returns a copy of the backup history for a document.
func (s *Store) Record(id int64) (BackupRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.meta.Items[id]
	if !ok {
		return BackupRecord{}, false
	}
	out := BackupRecord{LastUpdated: rec.LastUpdated}
	out.Backups = append(out.Backups, rec.Backups...)
	return out, true
}

// Stats returns the number of tracked documents and registered books.
func (s *Store) Stats() (items, books int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta.ItemCount(), s.meta.BookCount()
}

// Path returns the location of the catalog file.
func (s *Store) Path() string {
	return s.path
}
