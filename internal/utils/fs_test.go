package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "valid filename",
			input:    "image-2024.png",
			expected: "image-2024.png",
		},
		{
			name:     "invalid characters",
			input:    "chart:v2<final>?*.png",
			expected: "chart-v2-final.png",
		},
		{
			name:     "multiple spaces and dashes",
			input:    "design--notes  v3.svg",
			expected: "design-notes-v3.svg",
		},
		{
			name:     "leading and trailing dashes",
			input:    "-scan-copy-.pdf",
			expected: "scan-copy.pdf",
		},
		{
			name:     "Windows reserved name CON",
			input:    "CON.png",
			expected: "_CON.png",
		},
		{
			name:     "Windows reserved name LPT1",
			input:    "LPT1",
			expected: "_LPT1",
		},
		{
			name:     "very long filename",
			input:    strings.Repeat("a", 250) + ".png",
			expected: strings.Repeat("a", 200-4) + ".png",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "untitled",
		},
		{
			name:     "only invalid characters",
			input:    "<>:\"|?*",
			expected: "untitled",
		},
		{
			name:     "path separators",
			input:    "assets/img/logo.png",
			expected: "assets-img-logo.png",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestCreateNew(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doc1.json")

	f, err := CreateNew(path)
	require.NoError(t, err)
	_, err = f.WriteString("first")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// A second create must fail and leave the original intact
	_, err = CreateNew(path)
	require.Error(t, err)
	assert.True(t, os.IsExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriteFileNew(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doc2.json")

	require.NoError(t, WriteFileNew(path, []byte(`{"id":2}`)))

	err := WriteFileNew(path, []byte("overwrite attempt"))
	require.Error(t, err)
	assert.True(t, os.IsExist(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"id":2}`, string(data))
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "a", "b", "c.json")

	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(filepath.Join(tmpDir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "backups"), ExpandPath("~/backups"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/var/data", ExpandPath("/var/data"))
	assert.Equal(t, "relative/path", ExpandPath("relative/path"))
}
