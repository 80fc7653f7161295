package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/musclegraph/pkg/catalog"
)

// =============================================================================
// Catalog Serialization API
// =============================================================================

// MarshalCatalog converts a snapshot to JSON bytes.
// Records are sorted by ID for deterministic output.
func MarshalCatalog(c *catalog.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(FromCatalog(c), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCatalog writes a snapshot as JSON to an io.Writer.
func WriteCatalog(c *catalog.Catalog, w io.Writer) error {
	return writeJSON(FromCatalog(c), w)
}

// WriteCatalogFile writes a snapshot to a JSON file.
// The file is created with 0644 permissions.
func WriteCatalogFile(c *catalog.Catalog, path string) error {
	return writeJSONFile(FromCatalog(c), path)
}

// ReadCatalog decodes a JSON catalog document.
// Use ToCatalog to turn it into a snapshot.
func ReadCatalog(r io.Reader) (Catalog, error) {
	return readJSON[Catalog](r)
}

// ReadCatalogFile reads a JSON catalog document from a file.
func ReadCatalogFile(path string) (Catalog, error) {
	return readJSONFile[Catalog](path)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeJSONFile(v any, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(v, f)
}

func marshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func readJSON[T any](r io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}

func readJSONFile[T any](path string) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readJSON[T](f)
}
