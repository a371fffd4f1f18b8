package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the field helpers the pipeline uses.
type Logger struct {
	zerolog.Logger
}

// LoggerOptions configures NewLogger. Format is "pretty" or "json";
// Verbose forces debug level regardless of Level.
type LoggerOptions struct {
	Level   string
	Format  string
	Output  io.Writer
	Verbose bool
}

// NewLogger builds a logger writing to opts.Output, stderr when unset.
// Unknown levels fall back to info.
func NewLogger(opts LoggerOptions) *Logger {
	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: logger}
}

// NewDefaultLogger returns an info-level pretty logger on stderr.
func NewDefaultLogger() *Logger {
	return NewLogger(LoggerOptions{Level: "info", Format: "pretty"})
}

// WithBook returns a logger with book identity fields
func (l *Logger) WithBook(id int64, slug string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Int64("book_id", id).Str("book", slug).Logger(),
	}
}

// WithDoc returns a logger with a document id field
func (l *Logger) WithDoc(id int64) *Logger {
	return &Logger{
		Logger: l.Logger.With().Int64("doc_id", id).Logger(),
	}
}

// WithRun returns a logger with a run id field
func (l *Logger) WithRun(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("run_id", runID).Logger(),
	}
}
