package output

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/quantmind-br/yuqueback-go/internal/domain"
	"github.com/quantmind-br/yuqueback-go/internal/utils"
)

// FilesDirName is the subdirectory holding mirrored attachments.
const FilesDirName = "files"

// RunDirLayout is the time layout naming one backup run's directory.
// Colons are avoided so the names stay valid on Windows.
const RunDirLayout = "2006-01-02T15-04-05"

// Writer persists fetched documents into a single run directory. Files
// are only ever created, never overwritten, so two runs can share a
// directory without clobbering each other.
type Writer struct {
	dir string
}

var _ domain.DocumentWriter = (*Writer)(nil)

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the run directory.
func (w *Writer) Dir() string {
	return w.dir
}

// FilesDir returns the attachment directory inside the run directory.
func (w *Writer) FilesDir() string {
	return filepath.Join(w.dir, FilesDirName)
}

// DocumentPath returns where a document with the given id is stored.
func (w *Writer) DocumentPath(id int64) string {
	return filepath.Join(w.dir, fmt.Sprintf("doc%d.json", id))
}

// EnsureDirs creates the run directory tree.
func (w *Writer) EnsureDirs() error {
	return os.MkdirAll(w.FilesDir(), 0755)
}

// WriteDocument stores the document as pretty-printed JSON and returns
// the path written.
func (w *Writer) WriteDocument(doc *domain.Document) (string, error) {
	path := w.DocumentPath(doc.ID)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", &domain.WriteError{Path: path, Err: err}
	}

	if err := utils.WriteFileNew(path, data); err != nil {
		return "", &domain.WriteError{Path: path, Err: err}
	}

	return path, nil
}
