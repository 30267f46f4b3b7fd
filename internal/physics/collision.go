package physics

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	// contactSlop pushes a corrected body slightly past the surface so the
	// recomputed overlap is not positive through rounding.
	contactSlop float32 = 1e-4
	// supportSkin is how far below a body we look for something to stand on.
	supportSkin float32 = 0.01
)

// resolve corrects the tentative position of a dynamic body against the
// deepest overlap among its broad-phase candidates, once per configured
// iteration. Only b is written; candidates are read at their committed
// positions.
func (w *World) resolve(b *Body) {
	if !finite(b.tentative) {
		return // commit restores it
	}
	for i := 0; i < w.cfg.ResolveIterations; i++ {
		radius := b.Collider.BoundingRadius() + w.cfg.SearchMargin
		w.scratch = w.grid.Candidates(w.scratch[:0], b.tentative, radius)
		w.metrics.observeCandidates(len(w.scratch))

		deepest := w.deepestOverlap(b)
		if !deepest.Hit {
			break
		}
		w.applyCorrection(b, deepest)
		w.recordCollision(b, deepest.Other)
	}

	if !b.Grounded && w.supported(b) {
		b.Grounded = true
		if b.Velocity.Y < 0 {
			b.Velocity.Y = 0
		}
	}
}

func (w *World) deepestOverlap(b *Body) CollisionResult {
	var deepest CollisionResult
	for _, other := range w.scratch {
		if other == b {
			continue
		}
		res := Overlap(b.tentative, b.Collider, other.Position, other.Collider)
		if res.Hit && res.Depth > deepest.Depth {
			deepest = res
			deepest.Other = other
		}
	}
	return deepest
}

// applyCorrection pushes b out along the contact normal and removes the
// velocity component driving it into the obstacle, keeping a restitution
// scaled bounce. Against another dynamic body b takes its mass share of the
// correction, measured against the other's integrated velocity; the other
// body corrects itself in its own pass.
func (w *World) applyCorrection(b *Body, res CollisionResult) {
	n := res.Normal
	share := float32(1)
	vel := b.Velocity
	if other := res.Other; !other.IsStatic {
		share = other.Mass / (b.Mass + other.Mass)
		vel = rl.Vector3Subtract(b.Velocity, other.integrated)
	}

	b.tentative = rl.Vector3Add(b.tentative, rl.Vector3Scale(n, res.Depth*share+contactSlop))

	if vn := rl.Vector3DotProduct(vel, n); vn < 0 {
		b.Velocity = rl.Vector3Subtract(b.Velocity, rl.Vector3Scale(n, vn*(1+b.Restitution)*share))
	}

	// Landing on a roof or prop counts as ground contact
	if n.Y > 0.5 {
		b.Grounded = true
		if b.Velocity.Y < 0 {
			b.Velocity.Y = 0
		}
	}
}

// supported reports whether a static body lies directly under b, within the
// support skin. Keeps bodies resting on roofs grounded between ticks.
func (w *World) supported(b *Body) bool {
	below := b.tentative
	below.Y -= supportSkin
	for _, other := range w.scratch {
		if other == b || !other.IsStatic {
			continue
		}
		res := Overlap(below, b.Collider, other.Position, other.Collider)
		if res.Hit && res.Normal.Y > 0.5 {
			return true
		}
	}
	return false
}
