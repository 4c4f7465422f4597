package service

import (
	"errors"
	"fmt"

	"canvasgroup/internal/domain"
	"canvasgroup/internal/repository"
)

// ErrGlobalGroup is returned for edits that would detach or delete the
// global group
var ErrGlobalGroup = errors.New("operation not permitted on the global group")

// Session is the edit goroutine's view of the tree. It is only valid inside
// the function passed to Editor.Do.
//
// Every command resolves and checks its arguments before mutating, so a
// command that returns an error has changed nothing. If the Do fails after
// earlier commands succeeded, the editor restores the tree from a checkpoint
// taken before the first command.
type Session struct {
	e    *Editor
	root *domain.Group
	idx  *domain.Index

	current    repository.Entry
	entries    []repository.Entry
	events     []Event
	dirty      bool
	checkpoint *domain.Group
}

// Root returns the global group of the edited tree
func (s *Session) Root() *domain.Group { return s.root }

// Index returns the id index of the edited tree
func (s *Session) Index() *domain.Index { return s.idx }

// Version returns the version of the last published snapshot. Edits made in
// the current Do are not counted until it returns.
func (s *Session) Version() uint64 { return s.e.version }

func (s *Session) begin(op, subject string) {
	if s.checkpoint == nil {
		s.checkpoint = s.root.Clone()
	}
	s.current = repository.Entry{Op: op, SubjectID: subject}
}

func (s *Session) commit(from, to string, ev Event) {
	s.current.FromGroup = from
	s.current.ToGroup = to
	s.current.Outcome = repository.OutcomeApplied
	s.entries = append(s.entries, s.current)
	s.events = append(s.events, ev)
	s.current = repository.Entry{}
	if s.dirty {
		s.idx.Rebuild()
		s.dirty = false
	}
}

// MoveItem moves an item, its wires and its companion into a group
func (s *Session) MoveItem(itemID, groupID string) error {
	s.begin("move_item", itemID)
	it, err := s.idx.Item(itemID)
	if err != nil {
		return err
	}
	g, err := s.idx.Group(groupID)
	if err != nil {
		return err
	}

	from := it.Group()
	g.AddItem(it)

	s.commit(from.ID, g.ID, Event{Type: EventItemMoved, Payload: map[string]string{
		"item_id": it.ID,
		"from":    from.ID,
		"to":      g.ID,
	}})
	return nil
}

// MoveGroup makes a group a child of target
func (s *Session) MoveGroup(groupID, targetID string) error {
	s.begin("move_group", groupID)
	g, err := s.idx.Group(groupID)
	if err != nil {
		return err
	}
	target, err := s.idx.Group(targetID)
	if err != nil {
		return err
	}

	from := g.Parent()
	if _, err := target.AddGroup(g); err != nil {
		return err
	}

	fromID := ""
	if from != nil {
		fromID = from.ID
	}
	s.commit(fromID, target.ID, Event{Type: EventGroupMoved, Payload: map[string]string{
		"group_id": g.ID,
		"from":     fromID,
		"to":       target.ID,
	}})
	return nil
}

// MergeGroups moves everything in source into target and deletes the
// emptied source
func (s *Session) MergeGroups(sourceID, targetID string) error {
	s.begin("merge_groups", sourceID)
	source, err := s.idx.Group(sourceID)
	if err != nil {
		return err
	}
	target, err := s.idx.Group(targetID)
	if err != nil {
		return err
	}
	if source == target {
		return fmt.Errorf("merge %s into itself: %w", source.ID, domain.ErrCycle)
	}
	if source.IsGlobal() {
		return fmt.Errorf("merge %s: %w", source.ID, ErrGlobalGroup)
	}

	if err := target.MoveContents(source); err != nil {
		return err
	}
	source.Parent().RemoveGroup(source)
	s.dirty = true

	s.commit(source.ID, target.ID, Event{Type: EventGroupsMerged, Payload: map[string]string{
		"source_id": source.ID,
		"target_id": target.ID,
	}})
	return nil
}

// Ungroup moves a group's contents into its parent and deletes the group
func (s *Session) Ungroup(groupID string) error {
	s.begin("ungroup", groupID)
	g, err := s.idx.Group(groupID)
	if err != nil {
		return err
	}
	parent := g.Parent()
	if parent == nil {
		return fmt.Errorf("ungroup %s: %w", g.ID, ErrGlobalGroup)
	}

	if err := parent.MoveContents(g); err != nil {
		return err
	}
	parent.RemoveGroup(g)
	s.dirty = true

	s.commit(g.ID, parent.ID, Event{Type: EventUngrouped, Payload: map[string]string{
		"group_id":  g.ID,
		"parent_id": parent.ID,
	}})
	return nil
}

// GroupItems creates a group in the nearest common ancestor of the given
// items and groups and moves them into it. The new group is centred on the
// children it receives.
func (s *Session) GroupItems(title string, ids ...string) (*domain.Group, error) {
	s.begin("group_items", "")
	if len(ids) == 0 {
		return nil, fmt.Errorf("group items: nothing to group: %w", domain.ErrNotFound)
	}

	children := make([]domain.ChildRef, 0, len(ids))
	var scope *domain.Group
	var sx, sy float64
	for _, id := range ids {
		c, err := s.idx.Child(id)
		if err != nil {
			return nil, err
		}
		owner := c.Owner()
		if owner == nil {
			return nil, fmt.Errorf("group %s: %w", id, ErrGlobalGroup)
		}
		if scope == nil {
			scope = owner
		} else if scope, err = domain.NearestCommonAncestor(scope, owner); err != nil {
			return nil, err
		}
		children = append(children, c)
		x, y := childPosition(c)
		sx += x
		sy += y
	}

	g := domain.NewGroup(s.e.opts.NewID())
	g.Title = title
	g.Width = s.e.opts.GroupWidth
	g.Height = s.e.opts.GroupHeight
	n := float64(len(children))
	g.MoveTo(sx/n, sy/n)
	s.current.SubjectID = g.ID

	if _, err := scope.AddGroup(g); err != nil {
		return nil, err
	}
	for _, c := range children {
		if _, err := g.AddChild(c); err != nil {
			// a fresh group directly below the common scope is never an
			// ancestor of the children
			return nil, err
		}
	}
	g.ComputeDisplayZoom()
	s.dirty = true

	s.commit(scope.ID, g.ID, Event{Type: EventGrouped, Payload: map[string]interface{}{
		"group_id": g.ID,
		"scope_id": scope.ID,
		"children": ids,
	}})
	return g, nil
}

func childPosition(c domain.ChildRef) (float64, float64) {
	if c.Kind == domain.ChildGroup {
		return c.Group.X(), c.Group.Y()
	}
	return c.Item.X(), c.Item.Y()
}

// Connect creates a wire between two ports and places it in the nearest
// common ancestor of their items
func (s *Session) Connect(from, to domain.PortRef) (*domain.Wire, error) {
	s.begin("connect", "")
	fp, err := s.port(from)
	if err != nil {
		return nil, err
	}
	tp, err := s.port(to)
	if err != nil {
		return nil, err
	}

	w, err := domain.Connect(s.e.opts.NewID(), fp, tp)
	if err != nil {
		return nil, err
	}
	if _, err := domain.RehomeWire(w); err != nil {
		w.Disconnect()
		return nil, err
	}
	s.current.SubjectID = w.ID
	s.dirty = true

	s.commit("", w.Group().ID, Event{Type: EventWireCreated, Payload: map[string]interface{}{
		"wire_id":  w.ID,
		"group_id": w.Group().ID,
		"from":     from,
		"to":       to,
	}})
	return w, nil
}

func (s *Session) port(ref domain.PortRef) (*domain.Port, error) {
	it, err := s.idx.Item(ref.Item)
	if err != nil {
		return nil, err
	}
	if ref.Port < 0 || ref.Port >= len(it.Ports) {
		return nil, fmt.Errorf("port %d of item %s: %w", ref.Port, it.ID, domain.ErrNotFound)
	}
	return it.Ports[ref.Port], nil
}

// Disconnect removes a wire from the tree and from its ports
func (s *Session) Disconnect(wireID string) error {
	s.begin("disconnect", wireID)
	w, err := s.idx.Wire(wireID)
	if err != nil {
		return err
	}

	from := removeWire(w)
	s.dirty = true

	s.commit(from, "", Event{Type: EventWireRemoved, Payload: map[string]string{
		"wire_id":  w.ID,
		"group_id": from,
	}})
	return nil
}

// DeleteItem removes an item and every wire attached to it. Items using it
// as their companion lose the link.
func (s *Session) DeleteItem(itemID string) error {
	s.begin("delete_item", itemID)
	it, err := s.idx.Item(itemID)
	if err != nil {
		return err
	}

	removed := make([]string, 0)
	for _, w := range it.Wires() {
		// a wire between two ports of the same item is listed twice
		if w.Group() == nil {
			continue
		}
		removeWire(w)
		removed = append(removed, w.ID)
	}
	s.root.VisitItems(func(x *domain.Item) bool {
		if x.Companion == it {
			x.Companion = nil
		}
		return false
	})
	from := it.Group()
	from.RemoveItem(it)
	s.dirty = true

	s.commit(from.ID, "", Event{Type: EventItemDeleted, Payload: map[string]interface{}{
		"item_id":  it.ID,
		"group_id": from.ID,
		"wires":    removed,
	}})
	return nil
}

func removeWire(w *domain.Wire) string {
	owner := ""
	if g := w.Group(); g != nil {
		owner = g.ID
		g.RemoveWire(w)
	}
	w.Disconnect()
	return owner
}
