package testutil

import (
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// NewTestLogger creates a logger that discards output but carries the
// test name.
func NewTestLogger(t *testing.T) *utils.Logger {
	t.Helper()

	zlogger := zerolog.New(io.Discard).With().
		Timestamp().
		Str("test", t.Name()).
		Logger()

	return &utils.Logger{Logger: zlogger}
}
