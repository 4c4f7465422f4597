package domain

// Clone returns a deep copy of the subtree rooted at g. The copy has no
// parent and shares nothing with the original; child, wire and port order
// are preserved. Companion links and port wire lists that point outside the
// subtree are dropped.
func (g *Group) Clone() *Group {
	items := make(map[*Item]*Item)
	ports := make(map[*Port]*Port)
	wires := make(map[*Wire]*Wire)

	var copyGroup func(src *Group) *Group
	copyGroup = func(src *Group) *Group {
		dst := &Group{
			ID:          src.ID,
			Title:       src.Title,
			Width:       src.Width,
			Height:      src.Height,
			ZoomFactor:  src.ZoomFactor,
			DisplayZoom: src.DisplayZoom,
			x:           src.x,
			y:           src.y,
		}
		for _, it := range src.items {
			c := &Item{
				ID:         it.ID,
				Kind:       it.Kind,
				Width:      it.Width,
				Height:     it.Height,
				ZoomFactor: it.ZoomFactor,
				x:          it.x,
				y:          it.y,
				group:      dst,
			}
			for _, p := range it.Ports {
				cp := &Port{Input: p.Input, DX: p.DX, DY: p.DY, item: c}
				c.Ports = append(c.Ports, cp)
				ports[p] = cp
			}
			items[it] = c
			dst.items = append(dst.items, c)
		}
		for _, sub := range src.groups {
			cs := copyGroup(sub)
			cs.parent = dst
			dst.groups = append(dst.groups, cs)
		}
		return dst
	}
	root := copyGroup(g)

	// wires are linked once every port in the subtree exists
	var linkWires func(src, dst *Group)
	linkWires = func(src, dst *Group) {
		for _, w := range src.wires {
			from, to := ports[w.from], ports[w.to]
			if from == nil || to == nil {
				continue
			}
			cw := &Wire{ID: w.ID, from: from, to: to, group: dst}
			wires[w] = cw
			dst.wires = append(dst.wires, cw)
		}
		for i, sub := range src.groups {
			linkWires(sub, dst.groups[i])
		}
	}
	linkWires(g, root)

	for src, dst := range items {
		if c, ok := items[src.Companion]; ok {
			dst.Companion = c
		}
		for i, p := range src.Ports {
			for _, w := range p.wires {
				if cw, ok := wires[w]; ok {
					dst.Ports[i].wires = append(dst.Ports[i].wires, cw)
				}
			}
		}
	}
	return root
}
