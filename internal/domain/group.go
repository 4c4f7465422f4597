package domain

import "fmt"

// Default group extent
const (
	DefaultGroupWidth  = 100.0
	DefaultGroupHeight = 100.0
)

// Group is a container owning items, wires and sub-groups
type Group struct {
	ID          string
	Title       string
	Width       float64
	Height      float64
	ZoomFactor  float64
	DisplayZoom float64

	x, y   float64
	items  []*Item
	wires  []*Wire
	groups []*Group
	parent *Group
}

// NewGroup creates an empty, unowned group. A group without a parent is the
// global group of its own tree.
func NewGroup(id string) *Group {
	return &Group{
		ID:          id,
		Width:       DefaultGroupWidth,
		Height:      DefaultGroupHeight,
		ZoomFactor:  1,
		DisplayZoom: 1,
	}
}

// X returns the canvas x coordinate of the group's centre
func (g *Group) X() float64 { return g.x }

// Y returns the canvas y coordinate of the group's centre
func (g *Group) Y() float64 { return g.y }

// MoveTo repositions the group's frame. Contents are not moved.
func (g *Group) MoveTo(x, y float64) {
	g.x, g.y = x, y
}

// Parent returns the owning group, nil for the global group
func (g *Group) Parent() *Group { return g.parent }

// Items returns a copy of the direct child items in order
func (g *Group) Items() []*Item { return append([]*Item(nil), g.items...) }

// Wires returns a copy of the direct child wires in order
func (g *Group) Wires() []*Wire { return append([]*Wire(nil), g.wires...) }

// Groups returns a copy of the direct child groups in order
func (g *Group) Groups() []*Group { return append([]*Group(nil), g.groups...) }

// Empty reports whether the group has no direct children
func (g *Group) Empty() bool {
	return len(g.items) == 0 && len(g.wires) == 0 && len(g.groups) == 0
}

// RemoveItem detaches it from this group or the first descendant owning it.
// It returns nil when the item is not in the subtree.
func (g *Group) RemoveItem(it *Item) *Item {
	for i, x := range g.items {
		if x == it {
			g.items = append(g.items[:i], g.items[i+1:]...)
			it.group = nil
			return it
		}
	}
	for _, sub := range g.groups {
		if r := sub.RemoveItem(it); r != nil {
			return r
		}
	}
	return nil
}

// RemoveWire detaches w from this group or the first descendant owning it.
// The wire stays registered on its ports.
func (g *Group) RemoveWire(w *Wire) *Wire {
	for i, x := range g.wires {
		if x == w {
			g.wires = append(g.wires[:i], g.wires[i+1:]...)
			w.group = nil
			return w
		}
	}
	for _, sub := range g.groups {
		if r := sub.RemoveWire(w); r != nil {
			return r
		}
	}
	return nil
}

// RemoveGroup detaches child from this group or the first descendant owning
// it. The removed group becomes the global group of its own subtree.
func (g *Group) RemoveGroup(child *Group) *Group {
	for i, x := range g.groups {
		if x == child {
			g.groups = append(g.groups[:i], g.groups[i+1:]...)
			child.parent = nil
			return child
		}
	}
	for _, sub := range g.groups {
		if r := sub.RemoveGroup(child); r != nil {
			return r
		}
	}
	return nil
}

// AddChild takes ownership of an item or group, dispatching on the
// reference's kind.
func (g *Group) AddChild(c ChildRef) (ChildRef, error) {
	switch c.Kind {
	case ChildItem:
		if c.Item == nil {
			return ChildRef{}, fmt.Errorf("add child: %w", ErrNotFound)
		}
		return ItemRef(g.AddItem(c.Item)), nil
	case ChildGroup:
		if c.Group == nil {
			return ChildRef{}, fmt.Errorf("add child: %w", ErrNotFound)
		}
		added, err := g.AddGroup(c.Group)
		if err != nil {
			return ChildRef{}, err
		}
		return GroupRef(added), nil
	}
	return ChildRef{}, fmt.Errorf("add child: unknown kind %d", c.Kind)
}

// AddItem takes ownership of it, detaching it from its previous owner. The
// item's position is preserved and every incident wire is moved to the
// nearest common ancestor of its new endpoints. A companion item is moved
// along with it.
func (g *Group) AddItem(it *Item) *Item {
	orig := it.group
	if orig == g {
		return it
	}
	x, y := it.x, it.y
	if orig != nil {
		orig.RemoveItem(it)
	}

	it.group = g
	it.MoveTo(x, y)
	g.items = append(g.items, it)

	for _, p := range it.Ports {
		for _, w := range p.wires {
			// wires whose other end is detached are re-homed when it returns
			_, _ = RehomeWire(w)
		}
	}

	if c := it.Companion; c != nil && c != it && c.group != g {
		g.AddItem(c)
	}

	g.postCheck()
	return it
}

// AddGroup takes ownership of child. It fails with ErrCycle, without
// mutating anything, when child is this group or one of its ancestors.
func (g *Group) AddGroup(child *Group) (*Group, error) {
	orig := child.parent
	if orig == g {
		return child, nil
	}
	for a := g; a != nil; a = a.parent {
		if a == child {
			return nil, fmt.Errorf("add group %s to %s: %w", child.ID, g.ID, ErrCycle)
		}
	}

	if orig != nil {
		orig.RemoveGroup(child)
	}
	child.parent = g
	g.groups = append(g.groups, child)

	if !NoCycles(g) {
		breakInvariant(brokenf("acyclic", "cycle through group %s after adding %s", g.ID, child.ID))
	}

	// only wires crossing the subtree boundary can change scope
	child.VisitItems(func(it *Item) bool {
		for _, w := range it.Wires() {
			_, _ = RehomeWire(w)
		}
		return false
	})

	g.postCheck()
	return child, nil
}

// AddWire places w directly in this group, detaching it from any previous
// owner. Callers normally use RehomeWire, which picks the correct group.
func (g *Group) AddWire(w *Wire) *Wire {
	if w.group == g {
		return w
	}
	if from, to := w.endpointGroups(); from != nil && to != nil {
		if !NoCycles(from) || !NoCycles(to) {
			breakInvariant(brokenf("acyclic", "wire %s endpoint in a cyclic chain", w.ID))
		}
	}
	if w.group != nil {
		w.group.RemoveWire(w)
	}
	w.group = g
	g.wires = append(g.wires, w)
	return w
}

// MoveContents transfers every item and group of source into this group.
// Wires follow their endpoints. The move is refused with ErrCycle before any
// mutation if this group is, or lies inside, one of source's child groups.
func (g *Group) MoveContents(source *Group) error {
	if source == nil || source == g {
		return nil
	}
	for _, sub := range source.groups {
		if sub == g || sub.Higher(g) {
			return fmt.Errorf("move contents of %s into %s: %w", source.ID, g.ID, ErrCycle)
		}
	}

	for _, it := range source.Items() {
		g.AddItem(it)
	}
	for _, sub := range source.Groups() {
		if _, err := g.AddGroup(sub); err != nil {
			// prechecked above; reaching here means the tree was already corrupt
			breakInvariant(brokenf("acyclic", "move of group %s failed after precheck: %v", sub.ID, err))
			return err
		}
	}
	for _, w := range source.Wires() {
		_, _ = RehomeWire(w)
	}

	g.postCheck()
	return nil
}
