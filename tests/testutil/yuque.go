package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

// Catalog holds the mutable content a fake Yuque server exposes. Tests
// change it between runs to simulate remote edits.
type Catalog struct {
	mu    sync.Mutex
	token string
	books []domain.Book
	docs  map[int64][]domain.Document
	hits  map[string]int
}

// NewCatalog creates an empty catalog guarded by the given API token.
func NewCatalog(token string) *Catalog {
	return &Catalog{
		token: token,
		docs:  make(map[int64][]domain.Document),
		hits:  make(map[string]int),
	}
}

// AddBook registers a book.
func (c *Catalog) AddBook(book domain.Book) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books = append(c.books, book)
}

// AddDocument registers a document under the given book.
func (c *Catalog) AddDocument(bookID int64, doc domain.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc.BookID = bookID
	c.docs[bookID] = append(c.docs[bookID], doc)
}

// Touch moves a document's revision forward, as a remote edit would.
func (c *Catalog) Touch(bookID, docID int64, rev time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs := c.docs[bookID]
	for i := range docs {
		if docs[i].ID == docID {
			docs[i].UpdatedAt = rev
		}
	}
}

// Books returns a copy of the registered books.
func (c *Catalog) Books() []domain.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Book, len(c.books))
	copy(out, c.books)
	return out
}

// Listing returns the metadata view of one book's documents.
func (c *Catalog) Listing(bookID int64) []domain.DocumentMeta {
	c.mu.Lock()
	defer c.mu.Unlock()
	metas := make([]domain.DocumentMeta, 0, len(c.docs[bookID]))
	for _, doc := range c.docs[bookID] {
		metas = append(metas, doc.Meta())
	}
	return metas
}

// Document returns one full document record.
func (c *Catalog) Document(bookID, docID int64) (domain.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs[bookID] {
		if doc.ID == docID {
			return doc, true
		}
	}
	return domain.Document{}, false
}

// Hits returns how often the given request path was served.
func (c *Catalog) Hits(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *Catalog) hit(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[path]++
}

func (c *Catalog) authorized(r *http.Request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return r.Header.Get("X-Auth-Token") == c.token
}

// NewYuqueServer serves the catalog over the Yuque API wire shape for
// one target. The server is closed when the test finishes.
func NewYuqueServer(t *testing.T, target, login string, cat *Catalog) *httptest.Server {
	t.Helper()

	listPath := fmt.Sprintf("/api/v2/%s/%s/repos", target, login)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cat.hit(r.URL.Path)

		if !cat.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if r.URL.Path == listPath {
			writeData(w, cat.Books())
			return
		}

		// The document detail route must be matched before the listing
		// route; its path extends the listing path.
		var bookID, docID int64
		if n, _ := fmt.Sscanf(r.URL.Path, "/api/v2/repos/%d/docs/%d", &bookID, &docID); n == 2 {
			doc, ok := cat.Document(bookID, docID)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeData(w, doc)
			return
		}
		if n, _ := fmt.Sscanf(r.URL.Path, "/api/v2/repos/%d/docs", &bookID); n == 1 {
			writeData(w, cat.Listing(bookID))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}
