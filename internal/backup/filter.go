package backup

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
)

// Filter selects books by slug glob patterns. Include patterns form a
// whitelist when present; exclude patterns always win over include.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter creates a book filter from glob pattern lists.
func NewFilter(include, exclude []string) *Filter {
	return &Filter{include: include, exclude: exclude}
}

// Apply returns the books whose slug passes the filter. A nil or empty
// filter passes everything through unchanged.
func (f *Filter) Apply(books []domain.Book) []domain.Book {
	if f == nil || (len(f.include) == 0 && len(f.exclude) == 0) {
		return books
	}

	var out []domain.Book
	for _, book := range books {
		if f.Match(book.Slug) {
			out = append(out, book)
		}
	}
	return out
}

// Match reports whether a slug passes the filter.
func (f *Filter) Match(slug string) bool {
	if f == nil {
		return true
	}
	if len(f.include) > 0 && !matchAny(f.include, slug) {
		return false
	}
	return !matchAny(f.exclude, slug)
}

func matchAny(patterns []string, slug string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, slug); err == nil && ok {
			return true
		}
	}
	return false
}
