package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

// gcInterval is how often the value log is compacted while the cache is open.
const gcInterval = 5 * time.Minute

// BadgerCache stores downloaded resources in a local BadgerDB so
// reruns do not refetch unchanged attachments.
type BadgerCache struct {
	db     *badger.DB
	stopGC chan struct{}
	doneGC chan struct{}
	once   sync.Once
}

// Options configures NewBadgerCache.
type Options struct {
	// Directory holds the database files; defaults to ~/.yuqueback/cache.
	Directory string
	// InMemory keeps everything in RAM, used by tests.
	InMemory bool
}

// NewBadgerCache opens (or creates) the cache database.
func NewBadgerCache(opts Options) (*BadgerCache, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := opts.Directory
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(home, ".yuqueback", "cache")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(dir)
	}
	// Silence badger's own logger.
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	c := &BadgerCache{
		db:     db,
		stopGC: make(chan struct{}),
		doneGC: make(chan struct{}),
	}
	go c.runGC()
	return c, nil
}

func (c *BadgerCache) runGC() {
	defer close(c.doneGC)
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopGC:
			return
		case <-ticker.C:
			_ = c.db.RunValueLogGC(0.5)
		}
	}
}

// Get returns the cached value or domain.ErrCacheMiss.
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrCacheMiss
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key. A zero ttl means the entry never expires.
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Has reports whether key is present without reading its value.
func (c *BadgerCache) Has(ctx context.Context, key string) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

// Delete removes key from the cache.
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close stops the GC loop and closes the database.
func (c *BadgerCache) Close() error {
	c.once.Do(func() {
		close(c.stopGC)
		<-c.doneGC
	})
	return c.db.Close()
}

// Size counts the live entries.
func (c *BadgerCache) Size() int64 {
	var count int64
	_ = c.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}
