package domain

// Snapshot is an immutable flattened view of a tree for readers on other
// goroutines, such as a renderer.
type Snapshot struct {
	Version uint64      `json:"version"`
	Root    string      `json:"root"`
	Groups  []GroupView `json:"groups"`
	Items   []ItemView  `json:"items"`
	Wires   []WireView  `json:"wires"`
}

// GroupView is a group in a snapshot
type GroupView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title,omitempty"`
	ParentID    string  `json:"parent_id,omitempty"`
	Level       int     `json:"level"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ZoomFactor  float64 `json:"zoom_factor"`
	DisplayZoom float64 `json:"display_zoom"`
}

// ItemView is an item in a snapshot
type ItemView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind,omitempty"`
	GroupID     string     `json:"group_id"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	ZoomFactor  float64    `json:"zoom_factor"`
	CompanionID string     `json:"companion_id,omitempty"`
	Ports       []PortView `json:"ports,omitempty"`
}

// PortView is a port in a snapshot
type PortView struct {
	Input bool     `json:"input"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Wires []string `json:"wires,omitempty"`
}

// WireView is a wire in a snapshot
type WireView struct {
	ID      string  `json:"id"`
	GroupID string  `json:"group_id"`
	From    PortRef `json:"from"`
	To      PortRef `json:"to"`
}

// DeriveSnapshot walks the tree under root and copies it into a Snapshot
func DeriveSnapshot(root *Group) *Snapshot {
	items, wires, groups := root.Counts()
	snap := &Snapshot{
		Root:   root.ID,
		Groups: make([]GroupView, 0, groups+1),
		Items:  make([]ItemView, 0, items),
		Wires:  make([]WireView, 0, wires),
	}

	base := root.Level()
	root.VisitGroups(func(g *Group) bool {
		gv := GroupView{
			ID:          g.ID,
			Title:       g.Title,
			Level:       g.Level() - base,
			X:           g.x,
			Y:           g.y,
			Width:       g.Width,
			Height:      g.Height,
			ZoomFactor:  g.ZoomFactor,
			DisplayZoom: g.DisplayZoom,
		}
		if g != root && g.parent != nil {
			gv.ParentID = g.parent.ID
		}
		snap.Groups = append(snap.Groups, gv)

		for _, it := range g.items {
			snap.Items = append(snap.Items, itemView(it))
		}
		for _, w := range g.wires {
			snap.Wires = append(snap.Wires, WireView{
				ID:      w.ID,
				GroupID: g.ID,
				From:    PortRef{Item: w.from.item.ID, Port: w.from.item.PortIndex(w.from)},
				To:      PortRef{Item: w.to.item.ID, Port: w.to.item.PortIndex(w.to)},
			})
		}
		return false
	})

	return snap
}

func itemView(it *Item) ItemView {
	iv := ItemView{
		ID:         it.ID,
		Kind:       it.Kind,
		GroupID:    groupID(it.group),
		X:          it.x,
		Y:          it.y,
		ZoomFactor: it.ZoomFactor,
	}
	if it.Companion != nil {
		iv.CompanionID = it.Companion.ID
	}
	for _, p := range it.Ports {
		pv := PortView{Input: p.Input, X: p.X(), Y: p.Y()}
		for _, w := range p.wires {
			pv.Wires = append(pv.Wires, w.ID)
		}
		iv.Ports = append(iv.Ports, pv)
	}
	return iv
}

// Group returns the view of the group with the given id
func (s *Snapshot) Group(id string) (GroupView, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return GroupView{}, false
}

// Item returns the view of the item with the given id
func (s *Snapshot) Item(id string) (ItemView, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ItemView{}, false
}

// Wire returns the view of the wire with the given id
func (s *Snapshot) Wire(id string) (WireView, bool) {
	for _, w := range s.Wires {
		if w.ID == id {
			return w, true
		}
	}
	return WireView{}, false
}

// DeriveScene describes the tree under root as a Scene that BuildScene can
// rebuild.
func DeriveScene(root *Group) *Scene {
	s := &Scene{
		Items: sceneItems(root.items),
	}
	for _, sub := range root.groups {
		s.Groups = append(s.Groups, sceneGroup(sub))
	}
	root.VisitWires(func(w *Wire) bool {
		s.Wires = append(s.Wires, SceneWire{
			ID:   w.ID,
			From: PortRef{Item: w.from.item.ID, Port: w.from.item.PortIndex(w.from)},
			To:   PortRef{Item: w.to.item.ID, Port: w.to.item.PortIndex(w.to)},
		})
		return false
	})
	return s
}

func sceneGroup(g *Group) SceneGroup {
	sg := SceneGroup{
		ID:     g.ID,
		Title:  g.Title,
		X:      g.x,
		Y:      g.y,
		Width:  g.Width,
		Height: g.Height,
		Items:  sceneItems(g.items),
	}
	for _, sub := range g.groups {
		sg.Groups = append(sg.Groups, sceneGroup(sub))
	}
	return sg
}

func sceneItems(items []*Item) []SceneItem {
	var out []SceneItem
	for _, it := range items {
		si := SceneItem{
			ID:     it.ID,
			Kind:   it.Kind,
			X:      it.x,
			Y:      it.y,
			Width:  it.Width,
			Height: it.Height,
		}
		if it.Companion != nil {
			si.Companion = it.Companion.ID
		}
		for _, p := range it.Ports {
			si.Ports = append(si.Ports, ScenePort{Input: p.Input, DX: p.DX, DY: p.DY})
		}
		out = append(out, si)
	}
	return out
}
