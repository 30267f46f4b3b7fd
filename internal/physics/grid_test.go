package physics

import (
	"math/rand"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func gridBody(id BodyID, pos rl.Vector3, static bool) *Body {
	c, _ := NewBoxCollider(rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5})
	return &Body{ID: id, Position: pos, Collider: c, IsStatic: static}
}

func contains(list []*Body, b *Body) bool {
	for _, other := range list {
		if other == b {
			return true
		}
	}
	return false
}

func TestGridKeyForFloorsNegativeCoordinates(t *testing.T) {
	g := NewGrid(10, false)
	tests := []struct {
		pos  rl.Vector3
		want CellKey
	}{
		{rl.Vector3{X: 0, Z: 0}, CellKey{0, 0}},
		{rl.Vector3{X: 9.99, Z: 10}, CellKey{0, 1}},
		{rl.Vector3{X: -0.01, Z: -10}, CellKey{-1, -1}},
		{rl.Vector3{X: -10.01, Y: 500, Z: 25}, CellKey{-2, 2}},
	}
	for _, tt := range tests {
		if got := g.KeyFor(tt.pos); got != tt.want {
			t.Errorf("KeyFor(%+v): expected %+v, got %+v", tt.pos, tt.want, got)
		}
	}
}

func TestGridInsertRemove(t *testing.T) {
	g := NewGrid(10, false)
	a := gridBody(1, rl.Vector3{X: 5, Z: 5}, true)
	b := gridBody(2, rl.Vector3{X: 6, Z: 4}, false)

	g.Insert(a)
	g.Insert(b)
	if g.Len() != 2 || g.CellCount() != 1 {
		t.Fatalf("Expected 2 bodies in 1 cell, got %d in %d", g.Len(), g.CellCount())
	}
	if a.Cell != (CellKey{0, 0}) {
		t.Errorf("Expected cell (0,0), got %+v", a.Cell)
	}

	g.Remove(a)
	g.Remove(a)
	if g.Len() != 1 {
		t.Errorf("Expected removing twice to leave 1 body, got %d", g.Len())
	}
	if got := g.Query(rl.Vector3{X: 5, Z: 5}, 1); contains(got, a) {
		t.Error("Removed body still returned by Query")
	}

	g.Remove(b)
	if g.CellCount() != 0 {
		t.Errorf("Expected empty cells to be dropped, got %d", g.CellCount())
	}
}

func TestGridResyncMovesBody(t *testing.T) {
	g := NewGrid(10, false)
	b := gridBody(1, rl.Vector3{X: 1, Z: 1}, false)
	g.Insert(b)

	b.Position.X = 4
	if g.Resync(b) {
		t.Error("Expected no membership change inside the same cell")
	}

	b.Position = rl.Vector3{X: 25, Z: -3}
	if !g.Resync(b) {
		t.Fatal("Expected membership change across cells")
	}
	if b.Cell != (CellKey{2, -1}) {
		t.Errorf("Expected cell (2,-1), got %+v", b.Cell)
	}
	if g.Len() != 1 || g.CellCount() != 1 {
		t.Errorf("Expected 1 body in 1 cell after resync, got %d in %d", g.Len(), g.CellCount())
	}
	if !contains(g.Query(b.Position, 1), b) {
		t.Error("Body not found at its new position")
	}
}

func TestGridCandidatesAreUnique(t *testing.T) {
	g := NewGrid(2, true)
	c, _ := NewBoxCollider(rl.Vector3{X: 5, Y: 1, Z: 5})
	big := &Body{ID: 1, Position: rl.Vector3{}, Collider: c, IsStatic: true}
	g.Insert(big)

	got := g.Candidates(nil, rl.Vector3{}, 4)
	if len(got) != 1 {
		t.Errorf("Expected a multi-cell body once, got %d entries", len(got))
	}
	if g.CellCount() < 25 {
		t.Errorf("Expected the footprint to span many cells, got %d", g.CellCount())
	}
}

func TestGridQueryNearbyCells(t *testing.T) {
	// grid size 10: a query at (25,0,25) with radius 12 sees (20,0,20)
	// and (35,0,35) but not (100,0,100)
	g := NewGrid(10, false)
	near := gridBody(1, rl.Vector3{X: 20, Z: 20}, true)
	mid := gridBody(2, rl.Vector3{X: 35, Z: 35}, true)
	far := gridBody(3, rl.Vector3{X: 100, Z: 100}, true)
	for _, b := range []*Body{near, mid, far} {
		g.Insert(b)
	}

	got := g.Query(rl.Vector3{X: 25, Z: 25}, 12)
	if !contains(got, near) || !contains(got, mid) {
		t.Errorf("Expected both nearby bodies, got %d results", len(got))
	}
	if contains(got, far) {
		t.Error("Expected the far body to be excluded")
	}
}

func TestGridQueryCompleteAndBounded(t *testing.T) {
	for _, multi := range []bool{false, true} {
		g := NewGrid(4, multi)
		rng := rand.New(rand.NewSource(7))
		var bodies []*Body
		for i := 0; i < 400; i++ {
			pos := rl.Vector3{
				X: rng.Float32()*200 - 100,
				Y: rng.Float32() * 4,
				Z: rng.Float32()*200 - 100,
			}
			b := gridBody(BodyID(i+1), pos, i%2 == 0)
			g.Insert(b)
			bodies = append(bodies, b)
		}

		for q := 0; q < 100; q++ {
			p := rl.Vector3{X: rng.Float32()*200 - 100, Y: 2, Z: rng.Float32()*200 - 100}
			r := rng.Float32() * 20
			got := g.Query(p, r)

			for _, b := range bodies {
				if rl.Vector3Distance(b.Position, p) <= r && !contains(got, b) {
					t.Fatalf("multi=%v: body %d at distance %.2f missed for radius %.2f",
						multi, b.ID, rl.Vector3Distance(b.Position, p), r)
				}
			}
			for _, b := range got {
				if d := rl.Vector3Distance(b.Position, p); d > r+g.Size() {
					t.Fatalf("multi=%v: body %d at distance %.2f exceeds radius+size %.2f",
						multi, b.ID, d, r+g.Size())
				}
			}
		}
	}
}

func TestGridStaticsInSkipsDynamics(t *testing.T) {
	g := NewGrid(10, false)
	s := gridBody(1, rl.Vector3{X: 5, Z: 5}, true)
	d := gridBody(2, rl.Vector3{X: 5, Z: 5}, false)
	g.Insert(s)
	g.Insert(d)

	got := g.staticsIn(nil, -1000, -1000, 1000, 1000)
	if len(got) != 1 || got[0] != s {
		t.Errorf("Expected only the static body, got %d bodies", len(got))
	}
}

func BenchmarkGridQuery(b *testing.B) {
	g := NewGrid(10, false)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		pos := rl.Vector3{X: rng.Float32() * 1000, Z: rng.Float32() * 1000}
		g.Insert(gridBody(BodyID(i+1), pos, true))
	}
	p := rl.Vector3{X: 500, Z: 500}
	var dst []*Body

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = g.Candidates(dst[:0], p, 6)
	}
}
