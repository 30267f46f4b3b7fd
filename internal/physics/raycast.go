package physics

import (
	"sort"

	"github.com/chewxy/math32"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// maxRayDistance caps rays well beyond any city so cell math stays finite.
const maxRayDistance float32 = 1e6

type RaycastHit struct {
	Body     *Body
	Point    rl.Vector3
	Normal   rl.Vector3
	Distance float32
}

// Raycast returns every static body hit within maxDistance, nearest first.
// A zero-length direction or a non-positive distance yields no hits.
func (w *World) Raycast(origin, direction rl.Vector3, maxDistance float32) []RaycastHit {
	length := rl.Vector3Length(direction)
	if !(length > 0) || !(maxDistance > 0) || !finite(origin) || !finite(direction) {
		return nil
	}
	direction = rl.Vector3Scale(direction, 1/length)
	maxDistance = min(maxDistance, maxRayDistance)

	end := rl.Vector3Add(origin, rl.Vector3Scale(direction, maxDistance))
	reach := w.staticReach
	w.scratch = w.grid.staticsIn(w.scratch[:0],
		min(origin.X, end.X)-reach, min(origin.Z, end.Z)-reach,
		max(origin.X, end.X)+reach, max(origin.Z, end.Z)+reach)

	var hits []RaycastHit
	for _, b := range w.scratch {
		var hit RaycastHit
		var ok bool
		if b.Collider.Kind == ShapeSphere {
			hit, ok = raycastSphere(origin, direction, b.Position, b.Collider.Radius, maxDistance)
		} else {
			hit, ok = raycastBox(origin, direction, b.Bounds(), maxDistance)
		}
		if ok {
			hit.Body = b
			hits = append(hits, hit)
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Body.ID < hits[j].Body.ID
	})
	return hits
}

// RaycastFirst returns the nearest static hit.
func (w *World) RaycastFirst(origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	hits := w.Raycast(origin, direction, maxDistance)
	if len(hits) == 0 {
		return RaycastHit{}, false
	}
	return hits[0], true
}

// GroundHeightAt returns the highest walkable surface under (x, z): the
// ground function or the top of a static body, whichever is higher.
func (w *World) GroundHeightAt(x, z float32) float32 {
	h := w.ground(x, z)
	if len(w.statics) == 0 {
		return h
	}
	top := max(w.staticTop, h) + 1
	if hit, ok := w.RaycastFirst(rl.Vector3{X: x, Y: top, Z: z}, rl.Vector3{Y: -1}, top-h); ok {
		h = max(h, hit.Point.Y)
	}
	return h
}

// PointInsideStatic reports the static body containing p, lowest ID first.
func (w *World) PointInsideStatic(p rl.Vector3) (*Body, bool) {
	reach := w.staticReach
	w.scratch = w.grid.staticsIn(w.scratch[:0], p.X-reach, p.Z-reach, p.X+reach, p.Z+reach)

	var found *Body
	for _, b := range w.scratch {
		inside := false
		if b.Collider.Kind == ShapeSphere {
			inside = rl.Vector3Distance(p, b.Position) <= b.Collider.Radius
		} else {
			inside = b.Bounds().Contains(p)
		}
		if inside && (found == nil || b.ID < found.ID) {
			found = b
		}
	}
	return found, found != nil
}

// raycastBox is a slab test. A ray starting inside the box reports its exit.
func raycastBox(origin, direction rl.Vector3, box AABB, maxDistance float32) (RaycastHit, bool) {
	tmin, tmax := math32.Inf(-1), math32.Inf(1)
	enterAxis, exitAxis := -1, -1
	var enterSign, exitSign float32

	for i := 0; i < 3; i++ {
		o := component(origin, i)
		d := component(direction, i)
		lo := component(box.Min, i)
		hi := component(box.Max, i)

		if d == 0 {
			if o < lo || o > hi {
				return RaycastHit{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		// normal of the face entered through points against the ray
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin, enterAxis, enterSign = t1, i, sign
		}
		if t2 < tmax {
			tmax, exitAxis, exitSign = t2, i, -sign
		}
		if tmin > tmax {
			return RaycastHit{}, false
		}
	}

	if tmax < 0 || tmin > maxDistance {
		return RaycastHit{}, false
	}

	t, hitAxis, hitSign := tmin, enterAxis, enterSign
	if t < 0 {
		t, hitAxis, hitSign = tmax, exitAxis, exitSign
	}
	if t > maxDistance || hitAxis < 0 {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	return RaycastHit{Point: point, Normal: axis(hitAxis, hitSign), Distance: t}, true
}

func raycastSphere(origin, direction, center rl.Vector3, radius, maxDistance float32) (RaycastHit, bool) {
	oc := rl.Vector3Subtract(origin, center)
	b := rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	// direction is unit length, so a == 1
	discriminant := b*b - c
	if discriminant < 0 {
		return RaycastHit{}, false
	}

	root := math32.Sqrt(discriminant)
	t := -b - root
	if t < 0 {
		t = -b + root
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, center))
	if normal == (rl.Vector3{}) {
		normal = up
	}

	return RaycastHit{Point: point, Normal: normal, Distance: t}, true
}
