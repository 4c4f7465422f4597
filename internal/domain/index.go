package domain

import "fmt"

// Index resolves ids to the live elements of one tree
type Index struct {
	root   *Group
	items  map[string]*Item
	wires  map[string]*Wire
	groups map[string]*Group
}

// NewIndex builds an index over the tree rooted at root
func NewIndex(root *Group) *Index {
	idx := &Index{root: root}
	idx.Rebuild()
	return idx
}

// Root returns the indexed tree's root
func (x *Index) Root() *Group { return x.root }

// Rebuild re-walks the tree. Call after elements are created or deleted.
func (x *Index) Rebuild() {
	x.items = make(map[string]*Item)
	x.wires = make(map[string]*Wire)
	x.groups = make(map[string]*Group)
	x.root.VisitGroups(func(g *Group) bool {
		x.groups[g.ID] = g
		for _, it := range g.items {
			x.items[it.ID] = it
		}
		for _, w := range g.wires {
			x.wires[w.ID] = w
		}
		return false
	})
}

// Item looks up an item by id
func (x *Index) Item(id string) (*Item, error) {
	it, ok := x.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return it, nil
}

// Wire looks up a wire by id
func (x *Index) Wire(id string) (*Wire, error) {
	w, ok := x.wires[id]
	if !ok {
		return nil, fmt.Errorf("wire %s: %w", id, ErrNotFound)
	}
	return w, nil
}

// Group looks up a group by id
func (x *Index) Group(id string) (*Group, error) {
	g, ok := x.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// Child looks up an item or group by id. Groups win on a clash.
func (x *Index) Child(id string) (ChildRef, error) {
	if g, ok := x.groups[id]; ok {
		return GroupRef(g), nil
	}
	if it, ok := x.items[id]; ok {
		return ItemRef(it), nil
	}
	return ChildRef{}, fmt.Errorf("child %s: %w", id, ErrNotFound)
}

// Has reports whether any element uses id
func (x *Index) Has(id string) bool {
	_, a := x.items[id]
	_, b := x.wires[id]
	_, c := x.groups[id]
	return a || b || c
}
