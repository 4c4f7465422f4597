package domain

import "fmt"

// RehomeWire moves w into the nearest common ancestor of the groups owning
// its two endpoint items. It reports whether the wire changed owner.
//
// Both endpoints must be attached to groups of the same tree; otherwise
// ErrDisconnected is returned and the wire is left where it is.
func RehomeWire(w *Wire) (bool, error) {
	scope, err := NearestCommonAncestor(w.endpointGroups())
	if err != nil {
		return false, fmt.Errorf("rehome wire %s: %w", w.ID, err)
	}
	if w.group == scope {
		return false, nil
	}
	scope.AddWire(w)
	return true, nil
}

// NearestCommonAncestor returns the deepest group containing both a and b,
// which may be a or b itself.
func NearestCommonAncestor(a, b *Group) (*Group, error) {
	if a == nil || b == nil {
		return nil, ErrDisconnected
	}
	la, lb := a.Level(), b.Level()
	for ; la > lb; la-- {
		a = a.parent
	}
	for ; lb > la; lb-- {
		b = b.parent
	}
	for a != b {
		a, b = a.parent, b.parent
		if a == nil || b == nil {
			// different roots
			return nil, ErrDisconnected
		}
	}
	return a, nil
}

// WireScope returns the group w should live in according to its current
// endpoints, without moving it.
func WireScope(w *Wire) (*Group, error) {
	return NearestCommonAncestor(w.endpointGroups())
}
