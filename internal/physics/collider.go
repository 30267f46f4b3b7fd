package physics

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrInvalidCollider matches every *ColliderError via errors.Is.
var ErrInvalidCollider = errors.New("physics: invalid collider")

// ShapeKind selects the collider primitive.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	}
	return fmt.Sprintf("shape(%d)", int(k))
}

// ColliderError reports a collider that cannot be built. Bodies carrying one
// are never registered.
type ColliderError struct {
	Shape  ShapeKind
	Field  string
	Value  float32
	Reason string
}

func (e *ColliderError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "must be positive"
	}
	return fmt.Sprintf("physics: invalid %s collider: %s %s, got %v", e.Shape, e.Field, reason, e.Value)
}

func (e *ColliderError) Is(target error) bool {
	return target == ErrInvalidCollider
}

// Collider is an axis-aligned shape centered on its body's position.
type Collider struct {
	Kind        ShapeKind
	HalfExtents rl.Vector3 // box
	Radius      float32    // sphere, capsule
	Height      float32    // capsule, total including both caps
}

// NewBoxCollider creates a box from half extents.
func NewBoxCollider(half rl.Vector3) (Collider, error) {
	c := Collider{Kind: ShapeBox, HalfExtents: half}
	return c, c.Validate()
}

// NewSphereCollider creates a sphere.
func NewSphereCollider(radius float32) (Collider, error) {
	c := Collider{Kind: ShapeSphere, Radius: radius}
	return c, c.Validate()
}

// NewCapsuleCollider creates an upright capsule. height spans both caps so it
// must be at least twice the radius.
func NewCapsuleCollider(radius, height float32) (Collider, error) {
	c := Collider{Kind: ShapeCapsule, Radius: radius, Height: height}
	return c, c.Validate()
}

// Validate rejects non-positive (or NaN) dimensions.
func (c Collider) Validate() error {
	positive := func(field string, v float32) error {
		if !(v > 0) || math32.IsInf(v, 0) {
			return &ColliderError{Shape: c.Kind, Field: field, Value: v}
		}
		return nil
	}

	switch c.Kind {
	case ShapeBox:
		if err := positive("half extent x", c.HalfExtents.X); err != nil {
			return err
		}
		if err := positive("half extent y", c.HalfExtents.Y); err != nil {
			return err
		}
		return positive("half extent z", c.HalfExtents.Z)
	case ShapeSphere:
		return positive("radius", c.Radius)
	case ShapeCapsule:
		if err := positive("radius", c.Radius); err != nil {
			return err
		}
		if err := positive("height", c.Height); err != nil {
			return err
		}
		if c.Height < 2*c.Radius {
			return &ColliderError{Shape: c.Kind, Field: "height", Value: c.Height, Reason: "must be at least twice the radius"}
		}
		return nil
	}
	return &ColliderError{Shape: c.Kind, Field: "kind", Value: float32(c.Kind), Reason: "must be box, sphere or capsule"}
}

// BoxHalfExtents is the box proxy used by box tests and raycasts. Capsules
// are treated as upright boxes of their radius and half height.
func (c Collider) BoxHalfExtents() rl.Vector3 {
	switch c.Kind {
	case ShapeSphere:
		return rl.Vector3{X: c.Radius, Y: c.Radius, Z: c.Radius}
	case ShapeCapsule:
		return rl.Vector3{X: c.Radius, Y: c.Height / 2, Z: c.Radius}
	}
	return c.HalfExtents
}

// HalfHeight is the distance from the center to the bottom of the shape.
func (c Collider) HalfHeight() float32 {
	return c.BoxHalfExtents().Y
}

// BoundingRadius is the radius of a sphere around the center enclosing the shape.
func (c Collider) BoundingRadius() float32 {
	switch c.Kind {
	case ShapeSphere:
		return c.Radius
	case ShapeCapsule:
		return c.Height / 2
	}
	return rl.Vector3Length(c.HalfExtents)
}

// Bounds returns the world-space box of the collider at pos.
func (c Collider) Bounds(pos rl.Vector3) AABB {
	return NewAABBFromCenter(pos, c.BoxHalfExtents())
}

// CollisionResult describes one overlap. Normal points from the obstacle toward
// the moving body; Depth is the penetration along it.
type CollisionResult struct {
	Hit    bool
	Normal rl.Vector3
	Depth  float32
	Other  *Body
}

// BoxBoxOverlap tests two axis-aligned boxes. The resolution axis is the one
// with the smallest overlap; ties prefer x, then z, then y.
func BoxBoxOverlap(posA, halfA, posB, halfB rl.Vector3) CollisionResult {
	d := rl.Vector3Subtract(posA, posB)
	ox := halfA.X + halfB.X - math32.Abs(d.X)
	oy := halfA.Y + halfB.Y - math32.Abs(d.Y)
	oz := halfA.Z + halfB.Z - math32.Abs(d.Z)
	if ox <= 0 || oy <= 0 || oz <= 0 {
		return CollisionResult{}
	}

	best, depth := 0, ox
	if oz < depth {
		best, depth = 2, oz
	}
	if oy < depth {
		best, depth = 1, oy
	}

	return CollisionResult{
		Hit:    true,
		Normal: axis(best, signOr(component(d, best), 1)),
		Depth:  depth,
	}
}

// SphereSphereOverlap tests two spheres. Coincident centers resolve along +Y.
func SphereSphereOverlap(posA rl.Vector3, radiusA float32, posB rl.Vector3, radiusB float32) CollisionResult {
	diff := rl.Vector3Subtract(posA, posB)
	dist := rl.Vector3Length(diff)
	sum := radiusA + radiusB
	if dist >= sum {
		return CollisionResult{}
	}
	if dist == 0 {
		return CollisionResult{Hit: true, Normal: up, Depth: sum}
	}
	return CollisionResult{
		Hit:    true,
		Normal: rl.Vector3Scale(diff, 1/dist),
		Depth:  sum - dist,
	}
}

// BoxSphereOverlap tests a sphere against a box. The normal points from the
// box toward the sphere. A center inside the box exits through the nearest
// face, with the same x, z, y preference as BoxBoxOverlap.
func BoxSphereOverlap(boxPos, half, spherePos rl.Vector3, radius float32) CollisionResult {
	box := NewAABBFromCenter(boxPos, half)
	closest := box.ClosestPoint(spherePos)
	diff := rl.Vector3Subtract(spherePos, closest)
	dist := rl.Vector3Length(diff)

	if dist > 0 {
		if dist >= radius {
			return CollisionResult{}
		}
		return CollisionResult{
			Hit:    true,
			Normal: rl.Vector3Scale(diff, 1/dist),
			Depth:  radius - dist,
		}
	}

	// center is inside the box
	local := rl.Vector3Subtract(spherePos, boxPos)
	fx := half.X - math32.Abs(local.X)
	fy := half.Y - math32.Abs(local.Y)
	fz := half.Z - math32.Abs(local.Z)
	best, face := 0, fx
	if fz < face {
		best, face = 2, fz
	}
	if fy < face {
		best, face = 1, fy
	}
	return CollisionResult{
		Hit:    true,
		Normal: axis(best, signOr(component(local, best), 1)),
		Depth:  face + radius,
	}
}

// CapsuleSphereOverlap tests an upright capsule against a sphere: the sphere
// meets the capsule's radius around the nearest point of its vertical axis.
// The normal points from the sphere toward the capsule.
func CapsuleSphereOverlap(capsulePos rl.Vector3, capsule Collider, spherePos rl.Vector3, radius float32) CollisionResult {
	reach := capsule.Height/2 - capsule.Radius
	core := capsulePos
	core.Y = clamp(spherePos.Y, capsulePos.Y-reach, capsulePos.Y+reach)
	return SphereSphereOverlap(core, capsule.Radius, spherePos, radius)
}

// Overlap dispatches on the collider pair. The result is oriented toward A.
// Capsules are upright boxes against boxes and rounded against spheres.
func Overlap(posA rl.Vector3, a Collider, posB rl.Vector3, b Collider) CollisionResult {
	switch {
	case a.Kind == ShapeSphere && b.Kind == ShapeSphere:
		return SphereSphereOverlap(posA, a.Radius, posB, b.Radius)
	case a.Kind == ShapeCapsule && b.Kind == ShapeSphere:
		return CapsuleSphereOverlap(posA, a, posB, b.Radius)
	case a.Kind == ShapeSphere && b.Kind == ShapeCapsule:
		res := CapsuleSphereOverlap(posB, b, posA, a.Radius)
		res.Normal = rl.Vector3Negate(res.Normal)
		return res
	case a.Kind == ShapeSphere:
		return BoxSphereOverlap(posB, b.BoxHalfExtents(), posA, a.Radius)
	case b.Kind == ShapeSphere:
		res := BoxSphereOverlap(posA, a.BoxHalfExtents(), posB, b.Radius)
		res.Normal = rl.Vector3Negate(res.Normal)
		return res
	}
	return BoxBoxOverlap(posA, a.BoxHalfExtents(), posB, b.BoxHalfExtents())
}
