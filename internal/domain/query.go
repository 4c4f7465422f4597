package domain

// Level returns the number of parent hops from g to the global group.
func (g *Group) Level() int {
	seen := map[*Group]struct{}{g: {}}
	l := 0
	for p := g.parent; p != nil; p = p.parent {
		if _, dup := seen[p]; dup {
			breakInvariant(brokenf("acyclic", "cycle above group %s", g.ID))
			break
		}
		seen[p] = struct{}{}
		l++
	}
	return l
}

// Higher reports whether x is a direct or transitive child group of g.
func (g *Group) Higher(x *Group) bool {
	for _, sub := range g.groups {
		if sub == x {
			return true
		}
	}
	for _, sub := range g.groups {
		if sub.Higher(x) {
			return true
		}
	}
	return false
}

// GlobalGroup returns the root of the tree containing g.
func (g *Group) GlobalGroup() *Group {
	seen := map[*Group]struct{}{g: {}}
	root := g
	for root.parent != nil {
		if _, dup := seen[root.parent]; dup {
			breakInvariant(brokenf("acyclic", "cycle above group %s", g.ID))
			break
		}
		root = root.parent
		seen[root] = struct{}{}
	}
	return root
}

// IsGlobal reports whether g has no parent
func (g *Group) IsGlobal() bool { return g.parent == nil }

// Ancestors returns the parent chain of g, nearest first
func (g *Group) Ancestors() []*Group {
	n := g.Level()
	chain := make([]*Group, 0, n)
	for p := g.parent; p != nil && len(chain) < n; p = p.parent {
		chain = append(chain, p)
	}
	return chain
}

// FindItem returns it if it is owned by g or one of its descendants. The
// group the item records as its owner is checked first.
func (g *Group) FindItem(it *Item) *Item {
	if owner := it.group; owner != nil && owner != g && g.Higher(owner) {
		if owner.hasItem(it) {
			return it
		}
	}
	var found *Item
	g.VisitItems(func(x *Item) bool {
		if x == it {
			found = x
			return true
		}
		return false
	})
	return found
}

// FindWire returns w if it is owned by g or one of its descendants.
func (g *Group) FindWire(w *Wire) *Wire {
	var found *Wire
	g.VisitWires(func(x *Wire) bool {
		if x == w {
			found = x
			return true
		}
		return false
	})
	return found
}

// ContainsGroup reports whether x is g or lies below g
func (g *Group) ContainsGroup(x *Group) bool {
	return x == g || g.Higher(x)
}

func (g *Group) hasItem(it *Item) bool {
	for _, x := range g.items {
		if x == it {
			return true
		}
	}
	return false
}

// VisitItems calls fn for every item in the subtree in pre-order. It stops
// and returns true as soon as fn returns true.
func (g *Group) VisitItems(fn func(*Item) bool) bool {
	for _, it := range g.items {
		if fn(it) {
			return true
		}
	}
	for _, sub := range g.groups {
		if sub.VisitItems(fn) {
			return true
		}
	}
	return false
}

// VisitWires calls fn for every wire in the subtree in pre-order.
func (g *Group) VisitWires(fn func(*Wire) bool) bool {
	for _, w := range g.wires {
		if fn(w) {
			return true
		}
	}
	for _, sub := range g.groups {
		if sub.VisitWires(fn) {
			return true
		}
	}
	return false
}

// VisitGroups calls fn for g and every group below it in pre-order.
func (g *Group) VisitGroups(fn func(*Group) bool) bool {
	if fn(g) {
		return true
	}
	for _, sub := range g.groups {
		if sub.VisitGroups(fn) {
			return true
		}
	}
	return false
}

// Counts returns the number of items, wires and groups below g, excluding g
func (g *Group) Counts() (items, wires, groups int) {
	g.VisitGroups(func(x *Group) bool {
		items += len(x.items)
		wires += len(x.wires)
		groups += len(x.groups)
		return false
	})
	return items, wires, groups
}

// FindGroup returns x if it lies strictly below g
func (g *Group) FindGroup(x *Group) *Group {
	if x != g && g.Higher(x) {
		return x
	}
	return nil
}
