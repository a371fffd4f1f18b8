package backup

import "sync/atomic"

// Stats counts run outcomes. Safe for concurrent use.
type Stats struct {
	Books      atomic.Int64
	BookErrors atomic.Int64
	Documents  atomic.Int64
	Skipped    atomic.Int64
	Failed     atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Books      int64
	BookErrors int64
	Documents  int64
	Skipped    int64
	Failed     int64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Books:      s.Books.Load(),
		BookErrors: s.BookErrors.Load(),
		Documents:  s.Documents.Load(),
		Skipped:    s.Skipped.Load(),
		Failed:     s.Failed.Load(),
	}
}
