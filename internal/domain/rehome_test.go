package domain

import (
	"errors"
	"testing"
)

func TestRehomeScenario(t *testing.T) {
	f := newFixture(t)

	if f.W.Group() != f.R {
		t.Fatalf("expected W in R initially, got %s", groupID(f.W.Group()))
	}

	// move X next to Y
	f.B.AddItem(f.X)
	if f.W.Group() != f.B {
		t.Fatalf("expected W in B after moving X, got %s", groupID(f.W.Group()))
	}
	if len(f.R.Wires()) != 0 {
		t.Errorf("expected R to own no wires, got %v", ids(f.R.Wires()))
	}

	// merge B into A
	if err := f.A.MoveContents(f.B); err != nil {
		t.Fatalf("move contents: %v", err)
	}
	if f.W.Group() != f.A {
		t.Fatalf("expected W in A after merge, got %s", groupID(f.W.Group()))
	}
	if !f.B.Empty() {
		t.Error("expected B to be empty after merge")
	}
	assertValid(t, f.R)
}

func TestRehomeNestedGroupMove(t *testing.T) {
	f := newFixture(t)
	f.B.AddItem(f.X)

	// moving the container keeps the wire with both endpoints
	mustAddGroup(t, f.A, f.B)

	if f.W.Group() != f.B {
		t.Errorf("expected W to stay in B, got %s", groupID(f.W.Group()))
	}
	assertValid(t, f.R)
}

func TestRehomeWireAcrossLevels(t *testing.T) {
	root := NewGroup("R")
	a := NewGroup("a")
	b := NewGroup("b")
	c := NewGroup("c")
	mustAddGroup(t, root, a)
	mustAddGroup(t, a, b)
	mustAddGroup(t, a, c)

	src := NewItem("src", "op", 0, 0)
	dst := NewItem("dst", "op", 0, 0)
	out := src.AddPort(false, 0, 0)
	in := dst.AddPort(true, 0, 0)
	b.AddItem(src)
	root.AddItem(dst)
	w, err := Connect("w", out, in)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := RehomeWire(w); err != nil {
		t.Fatalf("rehome: %v", err)
	}

	steps := []struct {
		name string
		move func()
		want *Group
	}{
		{"endpoint at root", func() {}, root},
		{"endpoint into sibling c", func() { c.AddItem(dst) }, a},
		{"endpoint into same group b", func() { b.AddItem(dst) }, b},
		{"source up to a", func() { a.AddItem(src) }, a},
		{"both at root", func() { root.AddItem(src); root.AddItem(dst) }, root},
	}
	for _, step := range steps {
		step.move()
		if w.Group() != step.want {
			t.Errorf("%s: expected wire in %s, got %s", step.name, step.want.ID, groupID(w.Group()))
		}
		assertValid(t, root)
	}
}

func TestNearestCommonAncestor(t *testing.T) {
	root := NewGroup("R")
	a := NewGroup("a")
	a1 := NewGroup("a1")
	a2 := NewGroup("a2")
	b := NewGroup("b")
	mustAddGroup(t, root, a)
	mustAddGroup(t, a, a1)
	mustAddGroup(t, a1, a2)
	mustAddGroup(t, root, b)

	tests := []struct {
		name string
		x, y *Group
		want *Group
	}{
		{"same group", a1, a1, a1},
		{"parent and child", a, a2, a},
		{"child and parent", a2, a, a},
		{"cousins", a2, b, root},
		{"root and leaf", root, a2, root},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NearestCommonAncestor(tt.x, tt.y)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want.ID, got.ID)
			}
		})
	}

	t.Run("nil endpoint", func(t *testing.T) {
		if _, err := NearestCommonAncestor(nil, a); !errors.Is(err, ErrDisconnected) {
			t.Errorf("expected ErrDisconnected, got %v", err)
		}
	})

	t.Run("different trees", func(t *testing.T) {
		other := NewGroup("other")
		if _, err := NearestCommonAncestor(other, a2); !errors.Is(err, ErrDisconnected) {
			t.Errorf("expected ErrDisconnected, got %v", err)
		}
	})
}

func TestRehomeDetachedEndpoint(t *testing.T) {
	f := newFixture(t)
	f.R.RemoveItem(f.Y)

	moved, err := RehomeWire(f.W)

	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
	if moved {
		t.Error("expected wire not to move")
	}
	if f.W.Group() != f.R {
		t.Errorf("expected W to stay in R, got %s", groupID(f.W.Group()))
	}
	if got := ids(f.R.DanglingWires()); !equalIDs(got, []string{"W"}) {
		t.Errorf("expected dangling [W], got %v", got)
	}

	// bringing the endpoint back re-homes the wire
	f.A.AddItem(f.Y)
	if f.W.Group() != f.A {
		t.Errorf("expected W in A, got %s", groupID(f.W.Group()))
	}
	assertValid(t, f.R)
}

func TestConnect(t *testing.T) {
	a := NewItem("a", "op", 0, 0)
	b := NewItem("b", "op", 0, 0)
	out := a.AddPort(false, 0, 0)
	in := b.AddPort(true, 0, 0)

	t.Run("registers on both ports", func(t *testing.T) {
		w, err := Connect("w", out, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Wires()) != 1 || len(in.Wires()) != 1 {
			t.Errorf("expected wire on both ports, got %d and %d", len(out.Wires()), len(in.Wires()))
		}
		w.Disconnect()
		if len(out.Wires()) != 0 || len(in.Wires()) != 0 {
			t.Error("expected wire to be unregistered")
		}
	})

	t.Run("rejects wrong direction", func(t *testing.T) {
		if _, err := Connect("w", in, out); !errors.Is(err, ErrPortDirection) {
			t.Errorf("expected ErrPortDirection, got %v", err)
		}
	})

	t.Run("rejects missing port", func(t *testing.T) {
		if _, err := Connect("w", out, nil); !errors.Is(err, ErrDisconnected) {
			t.Errorf("expected ErrDisconnected, got %v", err)
		}
	})
}
