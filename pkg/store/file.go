package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/musclegraph/pkg/catalog"
	"github.com/matzehuels/musclegraph/pkg/errors"
	"github.com/matzehuels/musclegraph/pkg/graph"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// FileStore reads a catalog document from disk. The file is re-read on
// every snapshot, so edits are picked up without reopening.
type FileStore struct {
	path   string
	format string
	cfg    config
}

// NewFileStore returns a store for the document at path. The format is
// taken from the extension (.json, .yaml, .yml, .toml).
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, format: format, cfg: newConfig(opts)}, nil
}

// Path returns the document path.
func (s *FileStore) Path() string { return s.path }

// Snapshot reads and converts the document.
func (s *FileStore) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	return load(ctx, BackendFile, s.cfg, func(context.Context) (graph.Catalog, error) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return graph.Catalog{}, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "catalog file %s", s.path)
			}
			return graph.Catalog{}, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "read %s", s.path)
		}
		return Decode(data, s.format)
	})
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// FormatOf maps a file extension to a document format.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported catalog file %q (want .json, .yaml, .yml or .toml)", path)
}

// Decode parses a catalog document.
func Decode(data []byte, format string) (graph.Catalog, error) {
	var doc graph.Catalog
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	default:
		return graph.Catalog{}, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
	}
	if err != nil {
		return graph.Catalog{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s catalog", format)
	}
	return doc, nil
}

// Encode writes a catalog document as JSON or YAML.
//
// TOML is read-only: list metadata is typed loosely in the document and the
// TOML encoder cannot represent an absent value inside an array of tables.
func Encode(w io.Writer, doc graph.Catalog, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeUnsupported, "cannot export catalog as %q (want json or yaml)", format)
}
