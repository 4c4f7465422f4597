package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"canvasgroup/internal/domain"
	"canvasgroup/internal/repository"
	"canvasgroup/internal/repository/sqlite"
)

// testScene is global{ A{ X, A1{} }, B{ Y, Z } } with wire w from X to Y
func testScene() *domain.Scene {
	return &domain.Scene{
		Groups: []domain.SceneGroup{
			{
				ID: "A", X: 0, Y: 0,
				Items: []domain.SceneItem{
					{ID: "X", Kind: "constant", X: 0, Y: 0, Ports: []domain.ScenePort{{Input: false, DX: 5}}},
				},
				Groups: []domain.SceneGroup{{ID: "A1", X: 0, Y: 50}},
			},
			{
				ID: "B", X: 200, Y: 0,
				Items: []domain.SceneItem{
					{ID: "Y", Kind: "plot", X: 200, Y: 0, Ports: []domain.ScenePort{{Input: true, DX: -5}}},
					{ID: "Z", Kind: "plot", X: 220, Y: 0, Ports: []domain.ScenePort{{Input: true, DX: -5}}},
				},
			},
		},
		Wires: []domain.SceneWire{
			{ID: "w", From: domain.PortRef{Item: "X"}, To: domain.PortRef{Item: "Y"}},
		},
	}
}

type testEditor struct {
	*Editor
	journal *sqlite.Repository
	events  chan Event
}

// newTestEditor starts an editor over testScene with an in-memory journal
func newTestEditor(t *testing.T) *testEditor {
	t.Helper()
	root, _, err := domain.BuildScene(testScene())
	if err != nil {
		t.Fatalf("failed to build scene: %v", err)
	}
	journal, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}

	bus := NewEventBus()
	events := make(chan Event, 64)
	bus.Subscribe(events)

	n := 0
	ed := NewEditor(root, Options{
		Journal: journal,
		Bus:     bus,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		ed.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
		journal.Close()
	})

	return &testEditor{Editor: ed, journal: journal, events: events}
}

// drain returns the events published so far
func (te *testEditor) drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-te.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func hasEvent(events []Event, typ EventType) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func mustDo(t *testing.T, ed *testEditor, op string, fn func(*Session) error) {
	t.Helper()
	if err := ed.Do(context.Background(), op, fn); err != nil {
		t.Fatalf("%s: unexpected error: %v", op, err)
	}
}

func wireGroup(t *testing.T, snap *domain.Snapshot, id string) string {
	t.Helper()
	w, ok := snap.Wire(id)
	if !ok {
		t.Fatalf("wire %s not in snapshot", id)
	}
	return w.GroupID
}

func itemGroup(t *testing.T, snap *domain.Snapshot, id string) string {
	t.Helper()
	it, ok := snap.Item(id)
	if !ok {
		t.Fatalf("item %s not in snapshot", id)
	}
	return it.GroupID
}

func TestEditorSnapshot(t *testing.T) {
	ed := newTestEditor(t)

	snap := ed.Snapshot()
	if snap.Version != 0 {
		t.Errorf("expected version 0, got %d", snap.Version)
	}
	if got := wireGroup(t, snap, "w"); got != domain.GlobalGroupID {
		t.Errorf("expected w in global, got %s", got)
	}
	if err := ed.Validate(context.Background()); err != nil {
		t.Errorf("expected valid tree, got %v", err)
	}
}

func TestMoveItem(t *testing.T) {
	ed := newTestEditor(t)

	mustDo(t, ed, "move_item", func(s *Session) error {
		return s.MoveItem("X", "B")
	})

	snap := ed.Snapshot()
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
	if got := itemGroup(t, snap, "X"); got != "B" {
		t.Errorf("expected X in B, got %s", got)
	}
	if got := wireGroup(t, snap, "w"); got != "B" {
		t.Errorf("expected w re-homed to B, got %s", got)
	}

	events := ed.drain()
	want := []EventType{EventItemMoved, EventWireRehomed}
	if got := eventTypes(events); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected events %v, got %v", want, got)
	}

	entries, err := ed.journal.ListBySubject(context.Background(), "X")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(entries) != 1 || entries[0].FromGroup != "A" || entries[0].ToGroup != "B" {
		t.Errorf("unexpected journal entries: %+v", entries)
	}
}

func TestMoveGroup(t *testing.T) {
	t.Run("nests group and re-homes crossing wire", func(t *testing.T) {
		ed := newTestEditor(t)
		mustDo(t, ed, "move_group", func(s *Session) error {
			return s.MoveGroup("B", "A")
		})

		snap := ed.Snapshot()
		b, _ := snap.Group("B")
		if b.ParentID != "A" {
			t.Errorf("expected B under A, got %s", b.ParentID)
		}
		if got := wireGroup(t, snap, "w"); got != "A" {
			t.Errorf("expected w in A, got %s", got)
		}
	})

	t.Run("rejects cycle without mutating", func(t *testing.T) {
		ed := newTestEditor(t)
		before := ed.Snapshot()

		err := ed.Do(context.Background(), "move_group", func(s *Session) error {
			return s.MoveGroup("A", "A1")
		})
		if !errors.Is(err, domain.ErrCycle) {
			t.Fatalf("expected ErrCycle, got %v", err)
		}

		if ed.Snapshot() != before {
			t.Error("expected snapshot to be unchanged")
		}
		if err := ed.Validate(context.Background()); err != nil {
			t.Errorf("expected valid tree, got %v", err)
		}

		events := ed.drain()
		if len(events) != 1 || events[0].Type != EventEditRejected {
			t.Errorf("expected one edit_rejected event, got %v", eventTypes(events))
		}

		entries, err := ed.journal.ListBySubject(context.Background(), "A")
		if err != nil {
			t.Fatalf("journal: %v", err)
		}
		if len(entries) != 1 || entries[0].Outcome != repository.OutcomeRejected {
			t.Errorf("expected one rejected entry, got %+v", entries)
		}
	})

	t.Run("rejects moving the global group", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "move_group", func(s *Session) error {
			return s.MoveGroup(domain.GlobalGroupID, "B")
		})
		if !errors.Is(err, domain.ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "move_group", func(s *Session) error {
			return s.MoveGroup("nope", "B")
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMergeGroups(t *testing.T) {
	t.Run("moves contents and deletes source", func(t *testing.T) {
		ed := newTestEditor(t)
		mustDo(t, ed, "merge_groups", func(s *Session) error {
			return s.MergeGroups("B", "A")
		})

		snap := ed.Snapshot()
		if _, ok := snap.Group("B"); ok {
			t.Error("expected B to be deleted")
		}
		for _, id := range []string{"Y", "Z"} {
			if got := itemGroup(t, snap, id); got != "A" {
				t.Errorf("expected %s in A, got %s", id, got)
			}
		}
		if got := wireGroup(t, snap, "w"); got != "A" {
			t.Errorf("expected w in A, got %s", got)
		}
	})

	t.Run("rejects merge into own child group", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "merge_groups", func(s *Session) error {
			return s.MergeGroups("A", "A1")
		})
		if !errors.Is(err, domain.ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
		if got := itemGroup(t, ed.Snapshot(), "X"); got != "A" {
			t.Errorf("expected X to stay in A, got %s", got)
		}
	})

	t.Run("rejects merge into itself", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "merge_groups", func(s *Session) error {
			return s.MergeGroups("A", "A")
		})
		if !errors.Is(err, domain.ErrCycle) {
			t.Errorf("expected ErrCycle, got %v", err)
		}
	})
}

func TestUngroup(t *testing.T) {
	t.Run("lifts contents into parent", func(t *testing.T) {
		ed := newTestEditor(t)
		mustDo(t, ed, "ungroup", func(s *Session) error {
			return s.Ungroup("A")
		})

		snap := ed.Snapshot()
		if _, ok := snap.Group("A"); ok {
			t.Error("expected A to be deleted")
		}
		if got := itemGroup(t, snap, "X"); got != domain.GlobalGroupID {
			t.Errorf("expected X in global, got %s", got)
		}
		a1, _ := snap.Group("A1")
		if a1.ParentID != domain.GlobalGroupID {
			t.Errorf("expected A1 under global, got %s", a1.ParentID)
		}
	})

	t.Run("refuses the global group", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "ungroup", func(s *Session) error {
			return s.Ungroup(domain.GlobalGroupID)
		})
		if !errors.Is(err, ErrGlobalGroup) {
			t.Errorf("expected ErrGlobalGroup, got %v", err)
		}
	})
}

func TestGroupItems(t *testing.T) {
	t.Run("creates group in common scope", func(t *testing.T) {
		ed := newTestEditor(t)
		var created string
		mustDo(t, ed, "group_items", func(s *Session) error {
			g, err := s.GroupItems("pair", "Y", "Z")
			if err != nil {
				return err
			}
			created = g.ID
			return nil
		})

		if created != "id-1" {
			t.Fatalf("expected generated id id-1, got %s", created)
		}
		snap := ed.Snapshot()
		g, ok := snap.Group(created)
		if !ok {
			t.Fatal("expected new group in snapshot")
		}
		if g.ParentID != "B" || g.Title != "pair" {
			t.Errorf("expected titled group under B, got %+v", g)
		}
		if g.X != 210 {
			t.Errorf("expected group centred at x=210, got %f", g.X)
		}
		if got := itemGroup(t, snap, "Y"); got != created {
			t.Errorf("expected Y in new group, got %s", got)
		}
	})

	t.Run("spans groups", func(t *testing.T) {
		ed := newTestEditor(t)
		var created string
		mustDo(t, ed, "group_items", func(s *Session) error {
			g, err := s.GroupItems("", "X", "Y")
			if err != nil {
				return err
			}
			created = g.ID
			return nil
		})

		snap := ed.Snapshot()
		g, _ := snap.Group(created)
		if g.ParentID != domain.GlobalGroupID {
			t.Errorf("expected new group under global, got %s", g.ParentID)
		}
		if got := wireGroup(t, snap, "w"); got != created {
			t.Errorf("expected w in new group, got %s", got)
		}
		if err := ed.Validate(context.Background()); err != nil {
			t.Errorf("expected valid tree, got %v", err)
		}
	})

	t.Run("rejects unknown child before creating anything", func(t *testing.T) {
		ed := newTestEditor(t)
		err := ed.Do(context.Background(), "group_items", func(s *Session) error {
			_, err := s.GroupItems("", "Y", "missing")
			return err
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if n := len(ed.Snapshot().Groups); n != 4 {
			t.Errorf("expected 4 groups, got %d", n)
		}
	})
}

func TestConnectDisconnect(t *testing.T) {
	ed := newTestEditor(t)

	var wireID string
	mustDo(t, ed, "connect", func(s *Session) error {
		w, err := s.Connect(domain.PortRef{Item: "X"}, domain.PortRef{Item: "Z"})
		if err != nil {
			return err
		}
		wireID = w.ID
		return nil
	})

	snap := ed.Snapshot()
	if got := wireGroup(t, snap, wireID); got != domain.GlobalGroupID {
		t.Errorf("expected new wire in global, got %s", got)
	}
	if !hasEvent(ed.drain(), EventWireCreated) {
		t.Error("expected wire_created event")
	}

	t.Run("wrong direction", func(t *testing.T) {
		err := ed.Do(context.Background(), "connect", func(s *Session) error {
			_, err := s.Connect(domain.PortRef{Item: "Y"}, domain.PortRef{Item: "Z"})
			return err
		})
		if !errors.Is(err, domain.ErrPortDirection) {
			t.Errorf("expected ErrPortDirection, got %v", err)
		}
	})

	t.Run("port out of range", func(t *testing.T) {
		err := ed.Do(context.Background(), "connect", func(s *Session) error {
			_, err := s.Connect(domain.PortRef{Item: "X", Port: 4}, domain.PortRef{Item: "Z"})
			return err
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("disconnect", func(t *testing.T) {
		mustDo(t, ed, "disconnect", func(s *Session) error {
			return s.Disconnect(wireID)
		})
		if _, ok := ed.Snapshot().Wire(wireID); ok {
			t.Error("expected wire to be gone")
		}
		x, _ := ed.Snapshot().Item("X")
		if len(x.Ports[0].Wires) != 1 {
			t.Errorf("expected X to keep one wire, got %v", x.Ports[0].Wires)
		}
	})

	t.Run("disconnect twice", func(t *testing.T) {
		err := ed.Do(context.Background(), "disconnect", func(s *Session) error {
			return s.Disconnect(wireID)
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteItem(t *testing.T) {
	ed := newTestEditor(t)

	mustDo(t, ed, "delete_item", func(s *Session) error {
		return s.DeleteItem("Y")
	})

	snap := ed.Snapshot()
	if _, ok := snap.Item("Y"); ok {
		t.Error("expected Y to be deleted")
	}
	if _, ok := snap.Wire("w"); ok {
		t.Error("expected w to be deleted with Y")
	}
	x, _ := snap.Item("X")
	if len(x.Ports[0].Wires) != 0 {
		t.Errorf("expected X to have no wires, got %v", x.Ports[0].Wires)
	}
	if err := ed.Validate(context.Background()); err != nil {
		t.Errorf("expected valid tree, got %v", err)
	}
}

func TestSeveralCommandsInOneEdit(t *testing.T) {
	ed := newTestEditor(t)

	mustDo(t, ed, "batch", func(s *Session) error {
		w, err := s.Connect(domain.PortRef{Item: "X"}, domain.PortRef{Item: "Z"})
		if err != nil {
			return err
		}
		if err := s.MoveItem("X", "B"); err != nil {
			return err
		}
		return s.Disconnect(w.ID)
	})

	if ed.Snapshot().Version != 1 {
		t.Errorf("expected one published version, got %d", ed.Snapshot().Version)
	}
	n, err := ed.journal.Count(context.Background())
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 journal entries, got %d", n)
	}
}

func TestFailedEditRollsBack(t *testing.T) {
	ed := newTestEditor(t)
	ed.drain()

	err := ed.Do(context.Background(), "batch", func(s *Session) error {
		if _, err := s.Connect(domain.PortRef{Item: "X"}, domain.PortRef{Item: "Z"}); err != nil {
			return err
		}
		if err := s.MoveItem("Y", "A"); err != nil {
			return err
		}
		// A1 is inside A
		return s.MoveGroup("A", "A1")
	})
	if !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	snap := ed.Snapshot()
	if snap.Version != 0 {
		t.Errorf("expected version 0, got %d", snap.Version)
	}
	if len(snap.Wires) != 1 {
		t.Errorf("expected the created wire to be gone, got %d wires", len(snap.Wires))
	}

	// the live tree must match the snapshot, not the aborted edit
	if err := ed.View(context.Background(), func(s *Session) error {
		y, err := s.Index().Item("Y")
		if err != nil {
			return err
		}
		if y.Group().ID != "B" {
			t.Errorf("expected Y back in B, got %s", y.Group().ID)
		}
		if _, err := s.Index().Wire("id-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected wire id-1 to be unknown, got %v", err)
		}
		w, err := s.Index().Wire("w")
		if err != nil {
			return err
		}
		if w.Group().ID != domain.GlobalGroupID {
			t.Errorf("expected w in global, got %s", w.Group().ID)
		}
		return s.Root().Validate()
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	entries, err := ed.journal.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(entries) != 1 || entries[0].Op != "move_group" || entries[0].Outcome != repository.OutcomeRejected {
		t.Errorf("expected only the rejected move_group, got %+v", entries)
	}
	events := ed.drain()
	if len(events) != 1 || events[0].Type != EventEditRejected {
		t.Errorf("expected only edit_rejected, got %v", eventTypes(events))
	}

	// edits keep working on the restored tree
	mustDo(t, ed, "move_item", func(s *Session) error {
		return s.MoveItem("Y", "A")
	})
	if got := itemGroup(t, ed.Snapshot(), "Y"); got != "A" {
		t.Errorf("expected Y in A, got %s", got)
	}
}

func TestApplyVersion(t *testing.T) {
	ed := newTestEditor(t)

	v, err := ed.Apply(context.Background(), "move_item", func(s *Session) error {
		if s.Version() != 0 {
			t.Errorf("expected session version 0 before publish, got %d", s.Version())
		}
		return s.MoveItem("Y", "A")
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}

	v, err = ed.Apply(context.Background(), "move_group", func(s *Session) error {
		return s.MoveGroup("A", "A1")
	})
	if !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if v != 1 {
		t.Errorf("expected rejected edit to leave version 1, got %d", v)
	}

	if err := ed.View(context.Background(), func(s *Session) error {
		if s.Version() != 1 {
			t.Errorf("expected view version 1, got %d", s.Version())
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestReplace(t *testing.T) {
	ed := newTestEditor(t)

	scene := &domain.Scene{Items: []domain.SceneItem{{ID: "solo", X: 1, Y: 2}}}
	if err := ed.Replace(context.Background(), scene); err != nil {
		t.Fatalf("replace: %v", err)
	}

	snap := ed.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "solo" {
		t.Errorf("expected only item solo, got %+v", snap.Items)
	}
	if !hasEvent(ed.drain(), EventSceneReloaded) {
		t.Error("expected scene_reloaded event")
	}

	t.Run("invalid scene leaves tree", func(t *testing.T) {
		bad := &domain.Scene{Items: []domain.SceneItem{{ID: "a"}, {ID: "a"}}}
		if err := ed.Replace(context.Background(), bad); err == nil {
			t.Fatal("expected error for duplicate ids")
		}
		if _, ok := ed.Snapshot().Item("solo"); !ok {
			t.Error("expected previous tree to remain")
		}
	})
}

func TestDoAfterStop(t *testing.T) {
	root := domain.NewGroup(domain.GlobalGroupID)
	ed := NewEditor(root, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		ed.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	err := ed.Do(context.Background(), "noop", func(s *Session) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestDoContextTimeout(t *testing.T) {
	// no Run loop: the request is never accepted
	ed := NewEditor(domain.NewGroup(domain.GlobalGroupID), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := ed.Do(ctx, "noop", func(s *Session) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
