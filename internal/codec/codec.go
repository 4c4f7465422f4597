package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"canvasgroup/internal/domain"
)

// Importer interface for reading scene descriptions from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Scene, error)
	Format() string
}

// Exporter interface for writing snapshots and scenes to various formats
type Exporter interface {
	Export(snap *domain.Snapshot, w io.Writer) error
	ExportScene(scene *domain.Scene, w io.Writer) error
	Format() string
}

// Codec both imports and exports
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name ("json", "yaml" or "yml")
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %s", path)
	}
	return ForFormat(ext)
}
