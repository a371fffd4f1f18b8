package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Loader reads plan files from disk.
type Loader struct{}

// NewLoader creates a plan loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, parses and validates the plan at path. The format is
// chosen by file extension.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return l.LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes parses a plan from raw bytes. Unknown keys are
// rejected so a misspelled field cannot silently drop a setting.
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".json":
		err = decodeJSON(data, &cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(cfg)
	// An empty document is an empty plan; validation reports it.
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}
