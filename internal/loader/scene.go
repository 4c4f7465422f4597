// Package loader reads and writes scene files, the declarative seed
// description of a diagram's containment tree.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"canvasgroup/internal/codec"
	"canvasgroup/internal/domain"
)

// LoadScene loads a scene from a YAML or JSON file, chosen by extension
func LoadScene(path string) (*domain.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	c, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	return ParseScene(c, data)
}

// ParseScene parses scene bytes with the given codec
func ParseScene(c codec.Importer, data []byte) (*domain.Scene, error) {
	scene, err := c.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return scene, nil
}

// LoadTree loads a scene file and builds its tree
func LoadTree(path string) (*domain.Group, *domain.Index, error) {
	scene, err := LoadScene(path)
	if err != nil {
		return nil, nil, err
	}
	root, idx, err := domain.BuildScene(scene)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build %s: %w", path, err)
	}
	return root, idx, nil
}

// SaveScene writes the tree under root to path. The file is replaced
// atomically so a watcher never sees a partial write.
func SaveScene(path string, root *domain.Group) error {
	c, err := codec.ForPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.ExportScene(domain.DeriveScene(root), &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".scene-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write scene: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
