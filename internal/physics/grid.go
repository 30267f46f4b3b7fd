package physics

import (
	"github.com/chewxy/math32"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// CellKey addresses one column of the horizontal grid.
type CellKey struct {
	X, Z int
}

// cellSpan is the inclusive rectangle of cells a body is registered in.
type cellSpan struct {
	Min, Max CellKey
}

type cell struct {
	statics  []*Body
	dynamics []*Body
}

// Grid is the broad phase: a sparse uniform grid over the XZ plane. By default
// a body lives in the single cell containing its position; with multiCell it
// is registered in every cell its collider footprint overlaps.
//
// Grid is not safe for concurrent use.
type Grid struct {
	size      float32
	multiCell bool
	cells     map[CellKey]*cell
	members   int
	stamp     uint64
}

// NewGrid creates an empty grid. size must be positive.
func NewGrid(size float32, multiCell bool) *Grid {
	return &Grid{
		size:      size,
		multiCell: multiCell,
		cells:     make(map[CellKey]*cell),
	}
}

// Size returns the cell edge length.
func (g *Grid) Size() float32 {
	return g.size
}

// KeyFor maps a world position to its cell.
func (g *Grid) KeyFor(p rl.Vector3) CellKey {
	return CellKey{
		X: int(math32.Floor(p.X / g.size)),
		Z: int(math32.Floor(p.Z / g.size)),
	}
}

func (g *Grid) spanFor(b *Body) cellSpan {
	if !g.multiCell {
		k := g.KeyFor(b.Position)
		return cellSpan{Min: k, Max: k}
	}
	bounds := b.Bounds()
	return cellSpan{Min: g.KeyFor(bounds.Min), Max: g.KeyFor(bounds.Max)}
}

// Insert registers b in the cell(s) for its current position. O(1) per cell.
func (g *Grid) Insert(b *Body) {
	if b.indexed {
		g.Remove(b)
	}
	span := g.spanFor(b)
	for x := span.Min.X; x <= span.Max.X; x++ {
		for z := span.Min.Z; z <= span.Max.Z; z++ {
			key := CellKey{X: x, Z: z}
			c := g.cells[key]
			if c == nil {
				c = &cell{}
				g.cells[key] = c
			}
			if b.IsStatic {
				c.statics = append(c.statics, b)
			} else {
				c.dynamics = append(c.dynamics, b)
			}
		}
	}
	b.Cell = g.KeyFor(b.Position)
	b.span = span
	b.indexed = true
	g.members++
}

// Remove drops b from the cells it was last registered in. Removing a body
// that is not in the grid is a no-op.
func (g *Grid) Remove(b *Body) {
	if b == nil || !b.indexed {
		return
	}
	for x := b.span.Min.X; x <= b.span.Max.X; x++ {
		for z := b.span.Min.Z; z <= b.span.Max.Z; z++ {
			key := CellKey{X: x, Z: z}
			c := g.cells[key]
			if c == nil {
				continue
			}
			if b.IsStatic {
				c.statics = removeBody(c.statics, b)
			} else {
				c.dynamics = removeBody(c.dynamics, b)
			}
			if len(c.statics) == 0 && len(c.dynamics) == 0 {
				delete(g.cells, key)
			}
		}
	}
	b.indexed = false
	g.members--
}

// removeBody swap-removes b from list.
func removeBody(list []*Body, b *Body) []*Body {
	for i, other := range list {
		if other == b {
			last := len(list) - 1
			list[i] = list[last]
			list[last] = nil
			return list[:last]
		}
	}
	return list
}

// Resync moves b when its position maps to different cells than the ones it
// is registered in. Reports whether the membership changed.
func (g *Grid) Resync(b *Body) bool {
	if !b.indexed {
		return false
	}
	if g.spanFor(b) == b.span {
		return false
	}
	g.Remove(b)
	g.Insert(b)
	return true
}

// Candidates appends to dst every body registered in a cell within Chebyshev
// distance ceil(radius/size)+1 of the cell containing p. Each body appears at
// most once. The result is a superset: callers run the narrow phase.
func (g *Grid) Candidates(dst []*Body, p rl.Vector3, radius float32) []*Body {
	center := g.KeyFor(p)
	r := int(math32.Ceil(radius/g.size)) + 1
	return g.collect(dst, center.X-r, center.Z-r, center.X+r, center.Z+r, false)
}

// Query returns the candidates around p whose position lies within
// radius+size of p. It never misses a body within radius.
func (g *Grid) Query(p rl.Vector3, radius float32) []*Body {
	candidates := g.Candidates(nil, p, radius)
	limit := radius + g.size
	out := candidates[:0]
	for _, b := range candidates {
		if rl.Vector3Distance(b.Position, p) <= limit {
			out = append(out, b)
		}
	}
	return out
}

// staticsIn appends the static bodies registered in cells overlapping the
// XZ rectangle [minX,maxX]x[minZ,maxZ].
func (g *Grid) staticsIn(dst []*Body, minX, minZ, maxX, maxZ float32) []*Body {
	lo := g.KeyFor(rl.Vector3{X: minX, Z: minZ})
	hi := g.KeyFor(rl.Vector3{X: maxX, Z: maxZ})
	return g.collect(dst, lo.X, lo.Z, hi.X, hi.Z, true)
}

func (g *Grid) collect(dst []*Body, x0, z0, x1, z1 int, staticsOnly bool) []*Body {
	g.stamp++
	stamp := g.stamp

	add := func(c *cell) {
		for _, b := range c.statics {
			if b.mark != stamp {
				b.mark = stamp
				dst = append(dst, b)
			}
		}
		if staticsOnly {
			return
		}
		for _, b := range c.dynamics {
			if b.mark != stamp {
				b.mark = stamp
				dst = append(dst, b)
			}
		}
	}

	// Long rays cover more cells than are populated; walking the map is
	// cheaper then. Raycasts sort their hits so map order does not leak.
	area := (x1 - x0 + 1) * (z1 - z0 + 1)
	if staticsOnly && area > len(g.cells) {
		for key, c := range g.cells {
			if key.X >= x0 && key.X <= x1 && key.Z >= z0 && key.Z <= z1 {
				add(c)
			}
		}
		return dst
	}

	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			if c := g.cells[CellKey{X: x, Z: z}]; c != nil {
				add(c)
			}
		}
	}
	return dst
}

// CellCount returns the number of non-empty cells.
func (g *Grid) CellCount() int {
	return len(g.cells)
}

// Len returns the number of registered bodies.
func (g *Grid) Len() int {
	return g.members
}

// Occupancy returns the number of bodies registered in each non-empty cell.
func (g *Grid) Occupancy() map[CellKey]int {
	out := make(map[CellKey]int, len(g.cells))
	for k, c := range g.cells {
		out[k] = len(c.statics) + len(c.dynamics)
	}
	return out
}
