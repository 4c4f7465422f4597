package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"canvasgroup/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a scene description from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Scene, error) {
	var scene domain.Scene
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&scene); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &scene, nil
}

// Export writes a snapshot as JSON
func (c *JSONCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	return c.encode(snap, w)
}

// ExportScene writes a scene description as JSON
func (c *JSONCodec) ExportScene(scene *domain.Scene, w io.Writer) error {
	return c.encode(scene, w)
}

func (c *JSONCodec) encode(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
