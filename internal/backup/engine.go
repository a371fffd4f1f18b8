package backup

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// DefaultChunkSize bounds how many books or documents are in flight at once.
const DefaultChunkSize = 8

// Engine walks the remote library and backs up every document whose
// revision is newer than the last recorded backup. Failures are
// contained: a broken book listing skips that book's subtree, a broken
// document skips that document, and everything else keeps going.
type Engine struct {
	client    domain.RepositoryClient
	store     domain.BackupStore
	writer    domain.DocumentWriter
	filter    *Filter
	hooks     []domain.Hook
	chunkSize int
	dryRun    bool
	progress  bool
	logger    *utils.Logger
	stats     Stats
}

// Options contains options for creating an Engine
type Options struct {
	Client    domain.RepositoryClient
	Store     domain.BackupStore
	Writer    domain.DocumentWriter
	Filter    *Filter
	Hooks     []domain.Hook
	ChunkSize int
	DryRun    bool
	Progress  bool
	Logger    *utils.Logger
}

// NewEngine creates a backup engine
func NewEngine(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("writer is required")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}

	return &Engine{
		client:    opts.Client,
		store:     opts.Store,
		writer:    opts.Writer,
		filter:    opts.Filter,
		hooks:     opts.Hooks,
		chunkSize: opts.ChunkSize,
		dryRun:    opts.DryRun,
		progress:  opts.Progress,
		logger:    opts.Logger,
	}, nil
}

// Run performs one backup pass. Only a failed book listing or a done
// context aborts the run; every narrower failure is logged, counted
// and skipped.
func (e *Engine) Run(ctx context.Context) (Snapshot, error) {
	start := time.Now()

	books, err := e.client.ListBooks(ctx)
	if err != nil {
		return e.stats.Snapshot(), fmt.Errorf("listing books: %w", err)
	}

	books = e.filter.Apply(books)
	e.store.RegisterBooks(books)

	e.logger.Info().
		Int("books", len(books)).
		Bool("dry_run", e.dryRun).
		Msg("Starting backup")

	var bar *progressbar.ProgressBar
	if e.progress {
		bar = utils.NewProgressBar(len(books), utils.DescBooks)
	}

	for chunk := range slices.Chunk(books, e.chunkSize) {
		if err := ctx.Err(); err != nil {
			return e.stats.Snapshot(), err
		}

		errs := utils.ParallelForEach(ctx, chunk, len(chunk), e.syncBook)
		for i, err := range errs {
			if err != nil && !isContextErr(err) {
				e.stats.BookErrors.Add(1)
				e.logger.Error().
					Err(err).
					Int64("book_id", chunk[i].ID).
					Str("slug", chunk[i].Slug).
					Msg("Book backup failed")
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return e.stats.Snapshot(), err
	}

	snap := e.stats.Snapshot()
	e.logger.Info().
		Int64("books", snap.Books).
		Int64("documents", snap.Documents).
		Int64("skipped", snap.Skipped).
		Int64("failed", snap.Failed).
		Int64("book_errors", snap.BookErrors).
		Dur("elapsed", time.Since(start)).
		Msg("Backup finished")

	return snap, nil
}

// syncBook lists one book's documents and backs up the stale ones.
func (e *Engine) syncBook(ctx context.Context, book domain.Book) error {
	log := e.logger.WithBook(book.ID, book.Slug)

	metas, err := e.client.ListDocumentMetadata(ctx, book)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	stale := make([]domain.DocumentMeta, 0, len(metas))
	for _, meta := range metas {
		if e.store.NeedsBackup(meta) {
			stale = append(stale, meta)
		} else {
			e.stats.Skipped.Add(1)
		}
	}

	log.Debug().
		Int("documents", len(metas)).
		Int("stale", len(stale)).
		Msg("Book listed")

	if e.dryRun {
		for _, meta := range stale {
			log.Info().
				Int64("doc_id", meta.ID).
				Str("title", meta.Title).
				Msg("Would back up")
		}
		e.stats.Books.Add(1)
		return nil
	}

	for chunk := range slices.Chunk(stale, e.chunkSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		errs := utils.ParallelForEach(ctx, chunk, len(chunk), e.backupDocument)
		for i, err := range errs {
			if err != nil && !isContextErr(err) {
				e.stats.Failed.Add(1)
				log.Error().
					Err(err).
					Int64("doc_id", chunk[i].ID).
					Str("title", chunk[i].Title).
					Msg("Document backup failed")
			}
		}
	}

	e.stats.Books.Add(1)
	return ctx.Err()
}

// backupDocument fetches one document, writes it out, and records the
// backup. Hooks run after a successful write and cannot undo it.
func (e *Engine) backupDocument(ctx context.Context, meta domain.DocumentMeta) error {
	doc, err := e.client.FetchDocument(ctx, meta)
	if err != nil {
		return fmt.Errorf("fetching document: %w", err)
	}

	path, err := e.writer.WriteDocument(doc)
	if err != nil {
		return fmt.Errorf("writing document: %w", err)
	}

	// The listing revision drives the next run's staleness decision,
	// so it is recorded only once the document is durably on disk.
	e.store.TrackBackup(meta)
	e.stats.Documents.Add(1)

	e.logger.WithDoc(meta.ID).Debug().
		Str("path", path).
		Str("title", meta.Title).
		Msg("Document backed up")

	for _, hook := range e.hooks {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := hook.AfterWrite(ctx, doc); err != nil {
			e.logger.Warn().
				Err(err).
				Str("hook", hook.Name()).
				Int64("doc_id", meta.ID).
				Msg("Hook failed")
		}
	}

	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
