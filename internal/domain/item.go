package domain

import "math"

// Default item extent used when a collaborator does not supply one.
const (
	DefaultItemWidth  = 20.0
	DefaultItemHeight = 10.0
)

// Item is a leaf element on the canvas
type Item struct {
	ID         string
	Kind       string
	Width      float64
	Height     float64
	ZoomFactor float64
	Ports      []*Port

	// Companion is a dependent element that must live in the same group as
	// this item, e.g. the variable attached to an integral.
	Companion *Item

	x, y  float64
	group *Group
}

// NewItem creates an unowned item at the given canvas position
func NewItem(id, kind string, x, y float64) *Item {
	return &Item{
		ID:         id,
		Kind:       kind,
		Width:      DefaultItemWidth,
		Height:     DefaultItemHeight,
		ZoomFactor: 1,
		x:          x,
		y:          y,
	}
}

// X returns the canvas x coordinate
func (it *Item) X() float64 { return it.x }

// Y returns the canvas y coordinate
func (it *Item) Y() float64 { return it.y }

// MoveTo repositions the item. Ports follow.
func (it *Item) MoveTo(x, y float64) {
	it.x, it.y = x, y
}

// Group returns the owning group, or nil if the item is detached.
func (it *Item) Group() *Group { return it.group }

// AddPort attaches a new port at offset (dx, dy) from the item's position
func (it *Item) AddPort(input bool, dx, dy float64) *Port {
	p := &Port{item: it, Input: input, DX: dx, DY: dy}
	it.Ports = append(it.Ports, p)
	return p
}

// PortIndex returns the position of p in the item's port list, or -1.
func (it *Item) PortIndex(p *Port) int {
	for i, q := range it.Ports {
		if q == p {
			return i
		}
	}
	return -1
}

// Wires returns every wire incident to any of the item's ports
func (it *Item) Wires() []*Wire {
	var ws []*Wire
	for _, p := range it.Ports {
		ws = append(ws, p.wires...)
	}
	return ws
}

// Bounds returns the item's extent scaled by its zoom factor
func (it *Item) Bounds() Rect {
	z := it.ZoomFactor
	if z <= 0 {
		z = 1
	}
	hw, hh := 0.5*it.Width*z, 0.5*it.Height*z
	return Rect{X0: it.x - hw, Y0: it.y - hh, X1: it.x + hw, Y1: it.y + hh}
}

// Port is an attachment point on an Item
type Port struct {
	Input  bool
	DX, DY float64

	item  *Item
	wires []*Wire
}

// Item returns the item owning this port
func (p *Port) Item() *Item { return p.item }

// X returns the absolute canvas x coordinate of the port
func (p *Port) X() float64 { return p.item.x + p.DX }

// Y returns the absolute canvas y coordinate of the port
func (p *Port) Y() float64 { return p.item.y + p.DY }

// Wires returns a copy of the wires terminating on this port
func (p *Port) Wires() []*Wire {
	return append([]*Wire(nil), p.wires...)
}

func (p *Port) attach(w *Wire) {
	p.wires = append(p.wires, w)
}

func (p *Port) detach(w *Wire) {
	for i, x := range p.wires {
		if x == w {
			p.wires = append(p.wires[:i], p.wires[i+1:]...)
			return
		}
	}
}

func (p *Port) distance2(x, y float64) float64 {
	dx, dy := p.X()-x, p.Y()-y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned box in canvas coordinates
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Empty reports whether the rect has no area and was never extended
func (r Rect) Empty() bool {
	return r.X0 > r.X1 || r.Y0 > r.Y1
}

// Union returns the smallest rect covering both
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Contains reports whether o lies entirely inside r
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.X1 <= r.X1 && o.Y0 >= r.Y0 && o.Y1 <= r.Y1
}

// emptyRect is the identity for Union.
func emptyRect() Rect {
	return Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
}
