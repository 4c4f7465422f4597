package domain

import "fmt"

// GlobalGroupID is the id given to the root of a scene-built tree
const GlobalGroupID = "global"

// Scene declaratively describes a tree. The top level is the global group.
type Scene struct {
	Groups []SceneGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Items  []SceneItem  `json:"items,omitempty" yaml:"items,omitempty"`
	Wires  []SceneWire  `json:"wires,omitempty" yaml:"wires,omitempty"`
}

// SceneGroup describes a group and its nested contents
type SceneGroup struct {
	ID     string       `json:"id" yaml:"id"`
	Title  string       `json:"title,omitempty" yaml:"title,omitempty"`
	X      float64      `json:"x" yaml:"x"`
	Y      float64      `json:"y" yaml:"y"`
	Width  float64      `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64      `json:"height,omitempty" yaml:"height,omitempty"`
	Groups []SceneGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
	Items  []SceneItem  `json:"items,omitempty" yaml:"items,omitempty"`
}

// SceneItem describes an item
type SceneItem struct {
	ID        string      `json:"id" yaml:"id"`
	Kind      string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	X         float64     `json:"x" yaml:"x"`
	Y         float64     `json:"y" yaml:"y"`
	Width     float64     `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64     `json:"height,omitempty" yaml:"height,omitempty"`
	Ports     []ScenePort `json:"ports,omitempty" yaml:"ports,omitempty"`
	Companion string      `json:"companion,omitempty" yaml:"companion,omitempty"`
}

// ScenePort describes a port relative to its item
type ScenePort struct {
	Input bool    `json:"input" yaml:"input"`
	DX    float64 `json:"dx,omitempty" yaml:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty" yaml:"dy,omitempty"`
}

// PortRef names a port by item id and port index
type PortRef struct {
	Item string `json:"item" yaml:"item"`
	Port int    `json:"port" yaml:"port"`
}

// SceneWire describes a wire between two ports
type SceneWire struct {
	ID   string  `json:"id" yaml:"id"`
	From PortRef `json:"from" yaml:"from"`
	To   PortRef `json:"to" yaml:"to"`
}

// BuildScene constructs a live tree from s using the engine operations, so
// the result satisfies the containment invariants by construction.
func BuildScene(s *Scene) (*Group, *Index, error) {
	root := NewGroup(GlobalGroupID)
	ids := map[string]struct{}{root.ID: {}}
	items := make(map[string]*Item)
	type companionLink struct {
		item *Item
		id   string
	}
	var companions []companionLink

	claim := func(id string) error {
		if id == "" {
			return fmt.Errorf("scene: empty id")
		}
		if _, dup := ids[id]; dup {
			return fmt.Errorf("scene: duplicate id %s", id)
		}
		ids[id] = struct{}{}
		return nil
	}

	addItems := func(g *Group, specs []SceneItem) error {
		for _, si := range specs {
			if err := claim(si.ID); err != nil {
				return err
			}
			it := NewItem(si.ID, si.Kind, si.X, si.Y)
			if si.Width > 0 {
				it.Width = si.Width
			}
			if si.Height > 0 {
				it.Height = si.Height
			}
			for _, sp := range si.Ports {
				it.AddPort(sp.Input, sp.DX, sp.DY)
			}
			g.AddItem(it)
			items[si.ID] = it
			if si.Companion != "" {
				companions = append(companions, companionLink{it, si.Companion})
			}
		}
		return nil
	}

	var addGroups func(parent *Group, specs []SceneGroup) error
	addGroups = func(parent *Group, specs []SceneGroup) error {
		for _, sg := range specs {
			if err := claim(sg.ID); err != nil {
				return err
			}
			g := NewGroup(sg.ID)
			g.Title = sg.Title
			g.MoveTo(sg.X, sg.Y)
			if sg.Width > 0 {
				g.Width = sg.Width
			}
			if sg.Height > 0 {
				g.Height = sg.Height
			}
			if _, err := parent.AddGroup(g); err != nil {
				return err
			}
			if err := addItems(g, sg.Items); err != nil {
				return err
			}
			if err := addGroups(g, sg.Groups); err != nil {
				return err
			}
		}
		return nil
	}

	if err := addItems(root, s.Items); err != nil {
		return nil, nil, err
	}
	if err := addGroups(root, s.Groups); err != nil {
		return nil, nil, err
	}

	// the scene states where every item lives, so companions are only linked
	for _, l := range companions {
		c, ok := items[l.id]
		if !ok {
			return nil, nil, fmt.Errorf("scene: companion %s of %s: %w", l.id, l.item.ID, ErrNotFound)
		}
		l.item.Companion = c
	}

	for _, sw := range s.Wires {
		if err := claim(sw.ID); err != nil {
			return nil, nil, err
		}
		from, err := scenePort(items, sw.From)
		if err != nil {
			return nil, nil, fmt.Errorf("scene: wire %s: %w", sw.ID, err)
		}
		to, err := scenePort(items, sw.To)
		if err != nil {
			return nil, nil, fmt.Errorf("scene: wire %s: %w", sw.ID, err)
		}
		w, err := Connect(sw.ID, from, to)
		if err != nil {
			return nil, nil, fmt.Errorf("scene: %w", err)
		}
		if _, err := RehomeWire(w); err != nil {
			return nil, nil, fmt.Errorf("scene: %w", err)
		}
	}

	if err := root.Validate(); err != nil {
		return nil, nil, fmt.Errorf("scene: %w", err)
	}
	return root, NewIndex(root), nil
}

func scenePort(items map[string]*Item, ref PortRef) (*Port, error) {
	it, ok := items[ref.Item]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", ref.Item, ErrNotFound)
	}
	if ref.Port < 0 || ref.Port >= len(it.Ports) {
		return nil, fmt.Errorf("item %s port %d: %w", ref.Item, ref.Port, ErrNotFound)
	}
	return it.Ports[ref.Port], nil
}
