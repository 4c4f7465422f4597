package codec

import (
	"errors"
	"fmt"
	"io"

	"canvasgroup/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlSnapshot represents the YAML structure for an exported snapshot
type yamlSnapshot struct {
	Version uint64      `yaml:"version"`
	Root    string      `yaml:"root"`
	Groups  []yamlGroup `yaml:"groups"`
	Items   []yamlItem  `yaml:"items,omitempty"`
	Wires   []yamlWire  `yaml:"wires,omitempty"`
}

type yamlGroup struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title,omitempty"`
	Parent      string  `yaml:"parent,omitempty"`
	Level       int     `yaml:"level"`
	X           float64 `yaml:"x"`
	Y           float64 `yaml:"y"`
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	ZoomFactor  float64 `yaml:"zoom_factor"`
	DisplayZoom float64 `yaml:"display_zoom"`
}

type yamlItem struct {
	ID         string     `yaml:"id"`
	Kind       string     `yaml:"kind,omitempty"`
	Group      string     `yaml:"group"`
	X          float64    `yaml:"x"`
	Y          float64    `yaml:"y"`
	ZoomFactor float64    `yaml:"zoom_factor"`
	Companion  string     `yaml:"companion,omitempty"`
	Ports      []yamlPort `yaml:"ports,omitempty"`
}

type yamlPort struct {
	Input bool     `yaml:"input"`
	X     float64  `yaml:"x"`
	Y     float64  `yaml:"y"`
	Wires []string `yaml:"wires,omitempty,flow"`
}

type yamlWire struct {
	ID    string         `yaml:"id"`
	Group string         `yaml:"group"`
	From  domain.PortRef `yaml:"from,flow"`
	To    domain.PortRef `yaml:"to,flow"`
}

// Parse reads a scene description from YAML. Unknown keys are rejected.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Scene, error) {
	var scene domain.Scene
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&scene); err != nil {
		if errors.Is(err, io.EOF) {
			// empty document
			return &scene, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &scene, nil
}

// Export writes a snapshot as YAML
func (c *YAMLCodec) Export(snap *domain.Snapshot, w io.Writer) error {
	ys := yamlSnapshot{
		Version: snap.Version,
		Root:    snap.Root,
		Groups:  make([]yamlGroup, 0, len(snap.Groups)),
		Items:   make([]yamlItem, 0, len(snap.Items)),
		Wires:   make([]yamlWire, 0, len(snap.Wires)),
	}

	for _, g := range snap.Groups {
		ys.Groups = append(ys.Groups, yamlGroup{
			ID:          g.ID,
			Title:       g.Title,
			Parent:      g.ParentID,
			Level:       g.Level,
			X:           g.X,
			Y:           g.Y,
			Width:       g.Width,
			Height:      g.Height,
			ZoomFactor:  g.ZoomFactor,
			DisplayZoom: g.DisplayZoom,
		})
	}

	for _, it := range snap.Items {
		yi := yamlItem{
			ID:         it.ID,
			Kind:       it.Kind,
			Group:      it.GroupID,
			X:          it.X,
			Y:          it.Y,
			ZoomFactor: it.ZoomFactor,
			Companion:  it.CompanionID,
		}
		for _, p := range it.Ports {
			yi.Ports = append(yi.Ports, yamlPort{Input: p.Input, X: p.X, Y: p.Y, Wires: p.Wires})
		}
		ys.Items = append(ys.Items, yi)
	}

	for _, wv := range snap.Wires {
		ys.Wires = append(ys.Wires, yamlWire{
			ID:    wv.ID,
			Group: wv.GroupID,
			From:  wv.From,
			To:    wv.To,
		})
	}

	return c.encode(&ys, w)
}

// ExportScene writes a scene description as YAML
func (c *YAMLCodec) ExportScene(scene *domain.Scene, w io.Writer) error {
	return c.encode(scene, w)
}

func (c *YAMLCodec) encode(v interface{}, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
