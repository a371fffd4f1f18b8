package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/quantmind-br/yuqueback-go/internal/output"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// Suffix is appended to a run directory name when it is compacted.
const Suffix = ".tar.zst"

// DefaultMaxAge is how old a run directory must be before it is
// compacted.
const DefaultMaxAge = 30 * 24 * time.Hour

// Archiver compacts old run directories into zstd-compressed tarballs,
// keeping long backup histories from sprawling into thousands of files.
type Archiver struct {
	baseDir string
	maxAge  time.Duration
	dryRun  bool
	logger  *utils.Logger
}

// Options contains options for creating an Archiver
type Options struct {
	BaseDir string
	MaxAge  time.Duration
	DryRun  bool
	Logger  *utils.Logger
}

// New creates an Archiver
func New(opts Options) *Archiver {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger()
	}

	return &Archiver{
		baseDir: opts.BaseDir,
		maxAge:  opts.MaxAge,
		dryRun:  opts.DryRun,
		logger:  opts.Logger,
	}
}

// Run compacts every run directory older than the age cutoff and
// returns how many were archived. Entries that do not look like run
// directories are left alone, and one failed directory does not stop
// the others.
func (a *Archiver) Run() (int, error) {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-a.maxAge)
	archived := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		started, err := time.Parse(output.RunDirLayout, entry.Name())
		if err != nil {
			// Not a run directory
			continue
		}
		if started.After(cutoff) {
			continue
		}

		src := filepath.Join(a.baseDir, entry.Name())
		dest := src + Suffix

		if a.dryRun {
			a.logger.Info().Str("dir", entry.Name()).Msg("Would archive")
			archived++
			continue
		}

		if err := a.compactDir(src, dest); err != nil {
			a.logger.Error().Err(err).Str("dir", entry.Name()).Msg("Archive failed")
			continue
		}
		if err := os.RemoveAll(src); err != nil {
			return archived, err
		}

		a.logger.Info().Str("archive", filepath.Base(dest)).Msg("Run archived")
		archived++
	}

	return archived, nil
}

// compactDir writes src as a tar.zst archive at dest. Entries are
// stored relative to the parent of src, so extraction recreates the
// run directory itself. A partial archive is removed on failure.
func (a *Archiver) compactDir(src, dest string) (err error) {
	f, err := utils.CreateNew(dest)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(dest)
		}
	}()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return err
	}
	tw := tar.NewWriter(zw)

	parent := filepath.Dir(src)
	err = filepath.Walk(src, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tw, file)
		return err
	})
	if err != nil {
		tw.Close()
		zw.Close()
		f.Close()
		return err
	}

	if err = tw.Close(); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
