package physics

import (
	"errors"
	"math"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func approxEqual(t *testing.T, got, want, tol float32, field string) {
	t.Helper()
	if math.Abs(float64(got-want)) > float64(tol) {
		t.Fatalf("%s = %.6f, want %.6f (tol=%.6f)", field, got, want, tol)
	}
}

func TestColliderConstructorsRejectBadDimensions(t *testing.T) {
	tests := []struct {
		name string
		make func() (Collider, error)
	}{
		{"zero box", func() (Collider, error) { return NewBoxCollider(rl.Vector3{X: 1, Y: 0, Z: 1}) }},
		{"negative box", func() (Collider, error) { return NewBoxCollider(rl.Vector3{X: -1, Y: 1, Z: 1}) }},
		{"nan box", func() (Collider, error) {
			return NewBoxCollider(rl.Vector3{X: float32(math.NaN()), Y: 1, Z: 1})
		}},
		{"zero sphere", func() (Collider, error) { return NewSphereCollider(0) }},
		{"negative capsule radius", func() (Collider, error) { return NewCapsuleCollider(-0.5, 2) }},
		{"short capsule", func() (Collider, error) { return NewCapsuleCollider(1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.make()
			if !errors.Is(err, ErrInvalidCollider) {
				t.Fatalf("Expected ErrInvalidCollider, got %v", err)
			}
			var ce *ColliderError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected *ColliderError, got %T", err)
			}
		})
	}
}

func TestZeroColliderIsInvalid(t *testing.T) {
	if err := (Collider{}).Validate(); err == nil {
		t.Error("Expected zero-value collider to be rejected")
	}
}

func TestColliderDimensions(t *testing.T) {
	box, _ := NewBoxCollider(rl.Vector3{X: 1, Y: 2, Z: 3})
	if box.HalfHeight() != 2 {
		t.Errorf("Expected box half height 2, got %v", box.HalfHeight())
	}
	capsule, err := NewCapsuleCollider(0.4, 1.8)
	if err != nil {
		t.Fatal(err)
	}
	approxEqual(t, capsule.HalfHeight(), 0.9, 1e-6, "capsule half height")
	approxEqual(t, capsule.BoundingRadius(), 0.9, 1e-6, "capsule bounding radius")
	if got := capsule.BoxHalfExtents(); got.X != 0.4 || got.Z != 0.4 {
		t.Errorf("Expected capsule footprint 0.4, got %+v", got)
	}
}

func TestBoxBoxOverlapPicksSmallestAxis(t *testing.T) {
	half := rl.Vector3{X: 1, Y: 1, Z: 1}
	res := BoxBoxOverlap(rl.Vector3{X: 1.5, Y: 0, Z: 0.2}, half, rl.Vector3{}, half)
	if !res.Hit {
		t.Fatal("Expected overlap")
	}
	if res.Normal != (rl.Vector3{X: 1}) {
		t.Errorf("Expected +X normal, got %+v", res.Normal)
	}
	approxEqual(t, res.Depth, 0.5, 1e-6, "depth")

	res = BoxBoxOverlap(rl.Vector3{X: 0, Y: 0, Z: -1.8}, half, rl.Vector3{}, half)
	if res.Normal != (rl.Vector3{Z: -1}) {
		t.Errorf("Expected -Z normal, got %+v", res.Normal)
	}
	approxEqual(t, res.Depth, 0.2, 1e-6, "depth")
}

func TestBoxBoxOverlapTiePriority(t *testing.T) {
	half := rl.Vector3{X: 1, Y: 1, Z: 1}

	// equal overlap on all three axes resolves along x
	res := BoxBoxOverlap(rl.Vector3{X: 1, Y: 1, Z: 1}, half, rl.Vector3{}, half)
	if res.Normal != (rl.Vector3{X: 1}) {
		t.Errorf("Expected x to win a three-way tie, got %+v", res.Normal)
	}

	// z beats y on a tie
	res = BoxBoxOverlap(rl.Vector3{X: 0, Y: 1, Z: 1}, half, rl.Vector3{}, half)
	if res.Normal != (rl.Vector3{Z: 1}) {
		t.Errorf("Expected z to beat y on a tie, got %+v", res.Normal)
	}

	// coincident centers push along +x
	res = BoxBoxOverlap(rl.Vector3{}, half, rl.Vector3{}, half)
	if res.Normal != (rl.Vector3{X: 1}) || res.Depth != 2 {
		t.Errorf("Expected +X depth 2 for coincident boxes, got %+v", res)
	}
}

func TestBoxBoxOverlapTouchingIsNotHit(t *testing.T) {
	half := rl.Vector3{X: 1, Y: 1, Z: 1}
	res := BoxBoxOverlap(rl.Vector3{X: 2}, half, rl.Vector3{}, half)
	if res.Hit {
		t.Errorf("Expected touching faces to not overlap, got %+v", res)
	}
}

func TestSphereSphereOverlap(t *testing.T) {
	res := SphereSphereOverlap(rl.Vector3{X: 1.5}, 1, rl.Vector3{}, 1)
	if !res.Hit {
		t.Fatal("Expected overlap")
	}
	approxEqual(t, res.Depth, 0.5, 1e-6, "depth")
	if res.Normal != (rl.Vector3{X: 1}) {
		t.Errorf("Expected normal from B to A, got %+v", res.Normal)
	}

	if SphereSphereOverlap(rl.Vector3{X: 2}, 1, rl.Vector3{}, 1).Hit {
		t.Error("Expected touching spheres to not overlap")
	}
}

func TestSphereSphereCoincidentCenters(t *testing.T) {
	res := SphereSphereOverlap(rl.Vector3{X: 3, Y: 3, Z: 3}, 0.5, rl.Vector3{X: 3, Y: 3, Z: 3}, 0.25)
	if !res.Hit {
		t.Fatal("Expected overlap")
	}
	if res.Normal != up {
		t.Errorf("Expected +Y fallback normal, got %+v", res.Normal)
	}
	approxEqual(t, res.Depth, 0.75, 1e-6, "depth")
}

func TestBoxSphereOverlap(t *testing.T) {
	half := rl.Vector3{X: 1, Y: 1, Z: 1}

	res := BoxSphereOverlap(rl.Vector3{}, half, rl.Vector3{X: 1.25}, 0.5)
	if !res.Hit {
		t.Fatal("Expected overlap")
	}
	if res.Normal != (rl.Vector3{X: 1}) {
		t.Errorf("Expected normal toward sphere, got %+v", res.Normal)
	}
	approxEqual(t, res.Depth, 0.25, 1e-6, "depth")

	// center inside the box exits through the nearest face
	res = BoxSphereOverlap(rl.Vector3{}, half, rl.Vector3{X: 0.2, Y: 0, Z: -0.9}, 0.5)
	if res.Normal != (rl.Vector3{Z: -1}) {
		t.Errorf("Expected -Z exit, got %+v", res.Normal)
	}
	approxEqual(t, res.Depth, 0.6, 1e-6, "depth")

	if BoxSphereOverlap(rl.Vector3{}, half, rl.Vector3{X: 2, Y: 2}, 0.5).Hit {
		t.Error("Expected corner miss")
	}
}

func TestOverlapOrientsTowardA(t *testing.T) {
	box, _ := NewBoxCollider(rl.Vector3{X: 1, Y: 1, Z: 1})
	sphere, _ := NewSphereCollider(0.5)

	res := Overlap(rl.Vector3{X: 1.25}, sphere, rl.Vector3{}, box)
	if res.Normal != (rl.Vector3{X: 1}) {
		t.Errorf("Sphere as A: expected +X, got %+v", res.Normal)
	}

	res = Overlap(rl.Vector3{}, box, rl.Vector3{X: 1.25}, sphere)
	if res.Normal != (rl.Vector3{X: -1}) {
		t.Errorf("Box as A: expected -X, got %+v", res.Normal)
	}

	capsule, _ := NewCapsuleCollider(0.5, 2)
	res = Overlap(rl.Vector3{X: -1.25}, capsule, rl.Vector3{}, box)
	if !res.Hit || res.Normal != (rl.Vector3{X: -1}) {
		t.Errorf("Capsule vs box: expected -X hit, got %+v", res)
	}
}

func TestCapsuleSphereOverlapIsRounded(t *testing.T) {
	capsule, _ := NewCapsuleCollider(0.5, 2)
	sphere, _ := NewSphereCollider(0.5)

	// beside the box corner but outside the capsule radius
	if res := Overlap(rl.Vector3{}, capsule, rl.Vector3{X: 0.75, Z: 0.75}, sphere); res.Hit {
		t.Errorf("Expected no hit past the rounded side, got %+v", res)
	}
	// beside the top corner but outside the cap
	if res := Overlap(rl.Vector3{}, capsule, rl.Vector3{X: 0.6, Y: 1.35}, sphere); res.Hit {
		t.Errorf("Expected no hit past the cap, got %+v", res)
	}

	res := Overlap(rl.Vector3{}, capsule, rl.Vector3{Y: 1.3}, sphere)
	if !res.Hit {
		t.Fatal("Expected the sphere resting on the cap to overlap")
	}
	approxEqual(t, res.Normal.Y, -1, 1e-5, "capsule as A normal.y")
	approxEqual(t, res.Depth, 0.2, 1e-5, "depth")

	res = Overlap(rl.Vector3{Y: 1.3}, sphere, rl.Vector3{}, capsule)
	if !res.Hit {
		t.Fatal("Expected overlap with the sphere as A")
	}
	approxEqual(t, res.Normal.Y, 1, 1e-5, "sphere as A normal.y")
}
