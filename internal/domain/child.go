package domain

// ChildKind discriminates the two kinds of placeable children
type ChildKind int

const (
	ChildItem ChildKind = iota
	ChildGroup
)

func (k ChildKind) String() string {
	switch k {
	case ChildItem:
		return "item"
	case ChildGroup:
		return "group"
	}
	return "unknown"
}

// ChildRef is either an Item or a Group. Items and groups share one
// conceptual child namespace but are stored in separate collections.
type ChildRef struct {
	Kind  ChildKind
	Item  *Item
	Group *Group
}

// ItemRef wraps an item
func ItemRef(it *Item) ChildRef { return ChildRef{Kind: ChildItem, Item: it} }

// GroupRef wraps a group
func GroupRef(g *Group) ChildRef { return ChildRef{Kind: ChildGroup, Group: g} }

// IsZero reports whether the reference points at nothing
func (c ChildRef) IsZero() bool {
	return c.Item == nil && c.Group == nil
}

// ID returns the id of the referenced child
func (c ChildRef) ID() string {
	switch c.Kind {
	case ChildItem:
		if c.Item != nil {
			return c.Item.ID
		}
	case ChildGroup:
		if c.Group != nil {
			return c.Group.ID
		}
	}
	return ""
}

// Owner returns the group currently owning the referenced child
func (c ChildRef) Owner() *Group {
	switch c.Kind {
	case ChildItem:
		if c.Item != nil {
			return c.Item.group
		}
	case ChildGroup:
		if c.Group != nil {
			return c.Group.parent
		}
	}
	return nil
}
