package output

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

func strPtr(s string) *string {
	return &s
}

func testDocument() *domain.Document {
	return &domain.Document{
		ID:        101,
		Type:      "Doc",
		Slug:      "intro",
		Title:     "Intro",
		BookID:    7,
		Format:    "lake",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Body:      strPtr("# Intro"),
		BodyHTML:  strPtr("<h1>Intro</h1>"),
	}
}

func TestNewWriter(t *testing.T) {
	w := NewWriter("/backups/run1")

	assert.Equal(t, "/backups/run1", w.Dir())
	assert.Equal(t, filepath.Join("/backups/run1", FilesDirName), w.FilesDir())
	assert.Equal(t, filepath.Join("/backups/run1", "doc101.json"), w.DocumentPath(101))
}

func TestWriter_EnsureDirs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2024-03-15T10-00-00")
	w := NewWriter(dir)

	require.NoError(t, w.EnsureDirs())

	info, err := os.Stat(w.FilesDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWriter_WriteDocument(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.EnsureDirs())

	doc := testDocument()
	path, err := w.WriteDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, w.DocumentPath(101), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got domain.Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.BookID, got.BookID)
	require.NotNil(t, got.Body)
	assert.Equal(t, "# Intro", *got.Body)

	// Pretty-printed with omitted empty bodies
	text := string(data)
	assert.Contains(t, text, "\n  \"id\": 101")
	assert.NotContains(t, text, "body_sheet")
	assert.NotContains(t, text, "description")
}

func TestWriter_WriteDocument_NoOverwrite(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.EnsureDirs())

	doc := testDocument()
	path, err := w.WriteDocument(doc)
	require.NoError(t, err)

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	doc.Title = "Changed"
	_, err = w.WriteDocument(doc)
	require.Error(t, err)

	var writeErr *domain.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.True(t, errors.Is(err, os.ErrExist))

	// First write stays untouched
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)
	assert.True(t, strings.Contains(string(after), `"title": "Intro"`))
}

func TestWriter_WriteDocument_MissingRunDir(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing"))

	_, err := w.WriteDocument(testDocument())
	require.Error(t, err)

	var writeErr *domain.WriteError
	assert.ErrorAs(t, err, &writeErr)
}
