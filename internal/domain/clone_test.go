package domain

import "testing"

func TestClone(t *testing.T) {
	f := newFixture(t)
	f.X.Companion = f.Y
	f.A.Title = "left"
	f.B.DisplayZoom = 2

	c := f.R.Clone()
	assertValid(t, c)

	t.Run("copies structure", func(t *testing.T) {
		if c == f.R || c.Parent() != nil {
			t.Fatal("expected a detached copy")
		}
		if got := ids(c.Groups()); !equalIDs(got, []string{"A", "B"}) {
			t.Errorf("expected groups [A B], got %v", got)
		}
		a, b := c.Groups()[0], c.Groups()[1]
		if a.Title != "left" || b.DisplayZoom != 2 {
			t.Errorf("expected fields copied, got title %q zoom %v", a.Title, b.DisplayZoom)
		}
		x, y := a.Items()[0], b.Items()[0]
		if x == f.X || x.X() != 10 || x.Y() != 20 {
			t.Errorf("expected a new X at (10, 20), got (%v, %v)", x.X(), x.Y())
		}
		if x.Companion != y {
			t.Error("expected companion to point into the copy")
		}
		w := c.Wires()[0]
		if w == f.W || w.From() != x.Ports[0] || w.To() != y.Ports[0] {
			t.Error("expected wire to connect the copied ports")
		}
		if len(x.Ports[0].Wires()) != 1 || x.Ports[0].Wires()[0] != w {
			t.Error("expected copied port to list the copied wire")
		}
	})

	t.Run("shares nothing with the original", func(t *testing.T) {
		cb := c.Groups()[1]
		cb.AddItem(c.Groups()[0].Items()[0])

		if f.X.Group() != f.A {
			t.Errorf("expected original X to stay in A, got %s", groupID(f.X.Group()))
		}
		if f.W.Group() != f.R {
			t.Errorf("expected original W to stay in R, got %s", groupID(f.W.Group()))
		}
		assertValid(t, f.R)
		assertValid(t, c)
	})

	t.Run("drops links leaving the subtree", func(t *testing.T) {
		sub := f.A.Clone()
		assertValid(t, sub)
		x := sub.Items()[0]
		if x.Companion != nil {
			t.Error("expected companion outside the subtree to be dropped")
		}
		if len(x.Ports[0].Wires()) != 0 {
			t.Error("expected wire outside the subtree to be dropped")
		}
	})
}
