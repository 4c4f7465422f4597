package domain

import (
	"math"
)

// emptyContentHalfSize is half the side of the placeholder box reported for a
// group with no contents.
const emptyContentHalfSize = 10.0

// InOut selects ports by direction
type InOut int

const (
	AnyPort InOut = iota
	InPort
	OutPort
)

func (io InOut) accepts(p *Port) bool {
	switch io {
	case InPort:
		return p.Input
	case OutPort:
		return !p.Input
	}
	return true
}

// Bounds returns the group's frame scaled by its zoom factor
func (g *Group) Bounds() Rect {
	z := g.ZoomFactor
	if z <= 0 {
		z = 1
	}
	hw, hh := 0.5*g.Width*z, 0.5*g.Height*z
	return Rect{X0: g.x - hw, Y0: g.y - hh, X1: g.x + hw, Y1: g.y + hh}
}

// DisplayContents reports whether the group is zoomed in far enough for its
// contents to be shown instead of an icon.
func (g *Group) DisplayContents() bool {
	return g.ZoomFactor > g.DisplayZoom
}

// LocalZoom is the zoom factor applied to the group's children
func (g *Group) LocalZoom() float64 {
	if g.DisplayContents() && g.DisplayZoom > 0 {
		return g.ZoomFactor / g.DisplayZoom
	}
	return 1
}

// ContentBounds returns the box covering the direct items and child group
// frames, together with the zoom factor of the last item visited. A group
// with no contents reports a fixed placeholder box centred on its own
// position.
func (g *Group) ContentBounds() (Rect, float64) {
	zoom := 1.0
	r := emptyRect()
	for _, it := range g.items {
		r = r.Union(it.Bounds())
		zoom = it.ZoomFactor
	}
	for _, sub := range g.groups {
		r = r.Union(sub.Bounds())
	}

	if r.Empty() {
		return Rect{
			X0: g.x - emptyContentHalfSize,
			Y0: g.y - emptyContentHalfSize,
			X1: g.x + emptyContentHalfSize,
			Y1: g.y + emptyContentHalfSize,
		}, zoom
	}

	// allow for slightly oversized item icons
	pad := 2 * g.LocalZoom()
	r.X0 -= pad
	r.Y0 -= pad
	r.X1 += pad
	r.Y1 += pad
	return r, zoom
}

// ComputeDisplayZoom recomputes and stores the zoom at which the group's
// contents fit its frame. It is never less than 1.
func (g *Group) ComputeDisplayZoom() float64 {
	r, _ := g.ContentBounds()
	x0 := math.Min(r.X0, g.x)
	x1 := math.Max(r.X1, g.x)
	y0 := math.Min(r.Y0, g.y)
	y1 := math.Max(r.Y1, g.y)

	dz := 1.0
	if g.Width > 0 && g.Height > 0 {
		dz = 2 * math.Max(math.Max(x1-g.x, g.x-x0)/g.Width, math.Max(y1-g.y, g.y-y0)/g.Height)
	}
	g.DisplayZoom = math.Max(dz, 1)
	return g.DisplayZoom
}

// SetZoom sets the group's zoom factor and propagates the resulting local
// zoom to every item and group below it.
func (g *Group) SetZoom(factor float64) {
	g.ZoomFactor = factor
	g.ComputeDisplayZoom()
	lz := g.LocalZoom()
	for _, it := range g.items {
		it.ZoomFactor = lz
	}
	for _, sub := range g.groups {
		sub.SetZoom(lz)
	}
}

// MinimalEnclosingGroup returns the deepest group in the subtree whose frame
// contains r. The global group encloses everything.
func (g *Group) MinimalEnclosingGroup(r Rect) *Group {
	if g.parent != nil && !g.Bounds().Contains(r) {
		return nil
	}
	for _, sub := range g.groups {
		if mg := sub.MinimalEnclosingGroup(r); mg != nil {
			return mg
		}
	}
	return g
}

// ClosestPort returns the port in the subtree nearest to (x, y) among those
// accepted by io, or nil if there are none.
func (g *Group) ClosestPort(x, y float64, io InOut) *Port {
	var best *Port
	minr2 := math.MaxFloat64
	g.VisitItems(func(it *Item) bool {
		for _, p := range it.Ports {
			if !io.accepts(p) {
				continue
			}
			if r2 := p.distance2(x, y); r2 < minr2 {
				best, minr2 = p, r2
			}
		}
		return false
	})
	return best
}
