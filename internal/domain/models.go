package domain

import "time"

// Book is one remote container of documents, snapshotted at listing time.
// The snapshot is persisted alongside backup records so a later run can
// resolve a document's back-reference even after the book was renamed.
type Book struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentMeta is the listing-level view of a document: just enough to
// decide whether a fresh backup is needed. BookID is bound by the client
// from the book whose listing produced the entry.
type DocumentMeta struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int64     `json:"book_id"`
}

// Document is the full record fetched for a backup. The body fields are
// format variants; which of them are populated depends on the type.
type Document struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	BookID      int64     `json:"book_id"`
	Description *string   `json:"description,omitempty"`
	Format      string    `json:"format,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Body        *string   `json:"body,omitempty"`
	BodyDraft   *string   `json:"body_draft,omitempty"`
	BodyHTML    *string   `json:"body_html,omitempty"`
	BodyLake    *string   `json:"body_lake,omitempty"`
	BodySheet   *string   `json:"body_sheet,omitempty"`
}

// Meta returns the listing-level view of a fetched document.
func (d *Document) Meta() DocumentMeta {
	return DocumentMeta{
		ID:        d.ID,
		Slug:      d.Slug,
		Title:     d.Title,
		UpdatedAt: d.UpdatedAt,
		BookID:    d.BookID,
	}
}
