package domain

import (
	"fmt"
	"sync/atomic"
)

var debugChecks atomic.Bool

// SetDebug turns post-condition validation on or off for every mutating
// operation. With checks on, a broken invariant panics with an
// *InvariantError.
func SetDebug(on bool) { debugChecks.Store(on) }

// Debug reports whether post-condition validation is enabled
func Debug() bool { return debugChecks.Load() }

func breakInvariant(err *InvariantError) {
	if Debug() {
		panic(err)
	}
}

func (g *Group) postCheck() {
	if !Debug() {
		return
	}
	if err := g.GlobalGroup().Validate(); err != nil {
		panic(err)
	}
}

// NoCycles reports whether the parent chain starting at g terminates
func NoCycles(g *Group) bool {
	seen := map[*Group]struct{}{g: {}}
	for p := g.parent; p != nil; p = p.parent {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}
	return true
}

// UniqueItems inserts every item, wire and group of the subtree into seen and
// returns false on the first one already present.
func (g *Group) UniqueItems(seen map[any]struct{}) bool {
	insert := func(k any) bool {
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	}
	for _, it := range g.items {
		if !insert(it) {
			return false
		}
	}
	for _, w := range g.wires {
		if !insert(w) {
			return false
		}
	}
	for _, sub := range g.groups {
		if !insert(sub) || !sub.UniqueItems(seen) {
			return false
		}
	}
	return true
}

// Validate checks the containment invariants over the subtree rooted at g.
// Wires with an endpoint outside the tree are in transit and skipped by the
// wire-scope check.
func (g *Group) Validate() error {
	if !NoCycles(g) {
		return brokenf("acyclic", "parent chain of %s does not terminate", g.ID)
	}
	seen := map[any]struct{}{g: {}}
	if !g.UniqueItems(seen) {
		return brokenf("single-owner", "an element is owned twice below %s", g.ID)
	}
	if err := g.validateLinks(); err != nil {
		return err
	}
	var scopeErr error
	g.VisitWires(func(w *Wire) bool {
		scopeErr = validateScope(w)
		return scopeErr != nil
	})
	return scopeErr
}

func (g *Group) validateLinks() error {
	for _, it := range g.items {
		if it.group != g {
			return brokenf("back-reference", "item %s is in %s but records %s", it.ID, g.ID, groupID(it.group))
		}
		for _, p := range it.Ports {
			if p.item != it {
				return brokenf("back-reference", "port of item %s records another item", it.ID)
			}
		}
	}
	for _, w := range g.wires {
		if w.group != g {
			return brokenf("back-reference", "wire %s is in %s but records %s", w.ID, g.ID, groupID(w.group))
		}
	}
	for _, sub := range g.groups {
		if sub.parent != g {
			return brokenf("back-reference", "group %s is in %s but records %s", sub.ID, g.ID, groupID(sub.parent))
		}
		if err := sub.validateLinks(); err != nil {
			return err
		}
	}
	return nil
}

func validateScope(w *Wire) error {
	scope, err := WireScope(w)
	if err != nil {
		// in transit
		return nil
	}
	if scope != w.group {
		return brokenf("wire-scope", "wire %s lives in %s, nearest common ancestor is %s", w.ID, groupID(w.group), scope.ID)
	}
	return nil
}

// DanglingWires returns wires in the subtree with an endpoint that is not
// attached to the same tree.
func (g *Group) DanglingWires() []*Wire {
	var out []*Wire
	g.VisitWires(func(w *Wire) bool {
		if _, err := WireScope(w); err != nil {
			out = append(out, w)
		}
		return false
	})
	return out
}

func groupID(g *Group) string {
	if g == nil {
		return "<none>"
	}
	return g.ID
}

// MustValidate panics if Validate fails. Intended for tests and fixtures.
func (g *Group) MustValidate() {
	if err := g.Validate(); err != nil {
		panic(fmt.Sprintf("invalid tree: %v", err))
	}
}
