package domain

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Meta(t *testing.T) {
	updated := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	doc := &Document{
		ID:        101,
		Slug:      "intro",
		Title:     "Introduction",
		BookID:    7,
		UpdatedAt: updated,
		Format:    "lake",
	}

	meta := doc.Meta()

	assert.Equal(t, int64(101), meta.ID)
	assert.Equal(t, "intro", meta.Slug)
	assert.Equal(t, "Introduction", meta.Title)
	assert.Equal(t, int64(7), meta.BookID)
	assert.True(t, meta.UpdatedAt.Equal(updated))
}

func TestDocument_UnmarshalAPIRecord(t *testing.T) {
	payload := []byte(`{
		"id": 101,
		"type": "Doc",
		"slug": "intro",
		"title": "Introduction",
		"book_id": 7,
		"format": "lake",
		"created_at": "2024-01-15T08:30:00.000Z",
		"updated_at": "2024-03-02T09:00:00.000Z",
		"body": "# Introduction",
		"body_html": "<h1>Introduction</h1>"
	}`)

	var doc Document
	require.NoError(t, json.Unmarshal(payload, &doc))

	assert.Equal(t, int64(101), doc.ID)
	assert.Equal(t, int64(7), doc.BookID)
	assert.Equal(t, "lake", doc.Format)

	require.NotNil(t, doc.Body)
	assert.Equal(t, "# Introduction", *doc.Body)
	require.NotNil(t, doc.BodyHTML)

	// Fields the API omitted stay nil instead of becoming empty strings
	assert.Nil(t, doc.Description)
	assert.Nil(t, doc.BodyDraft)
	assert.Nil(t, doc.BodySheet)
}

func TestBook_Unmarshal(t *testing.T) {
	payload := []byte(`{
		"id": 7,
		"slug": "guides",
		"name": "Guides",
		"updated_at": "2024-03-01T12:00:00.000Z"
	}`)

	var book Book
	require.NoError(t, json.Unmarshal(payload, &book))

	assert.Equal(t, int64(7), book.ID)
	assert.Equal(t, "guides", book.Slug)
	assert.Equal(t, 2024, book.UpdatedAt.Year())
}
