package world

import (
	"github.com/chewxy/math32"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Frustum holds the six inward-facing planes of a view volume.
type Frustum struct {
	planes [6]Plane // left, right, bottom, top, near, far
}

// Plane is n·p + d = 0.
type Plane struct {
	normal   rl.Vector3
	distance float32
}

// ExtractFrustum builds the planes of camera's view volume for a viewport of
// the given aspect ratio. The planes come straight from the camera basis so
// the result does not depend on the window or GL state.
func ExtractFrustum(camera rl.Camera3D, aspect, near, far float32) Frustum {
	eye := camera.Position
	forward := rl.Vector3Normalize(rl.Vector3Subtract(camera.Target, eye))
	right := rl.Vector3Normalize(rl.Vector3CrossProduct(forward, camera.Up))
	up := rl.Vector3CrossProduct(right, forward)

	through := func(n rl.Vector3, p rl.Vector3) Plane {
		n = rl.Vector3Normalize(n)
		return Plane{normal: n, distance: -rl.Vector3DotProduct(n, p)}
	}

	var f Frustum
	if camera.Projection == rl.CameraPerspective {
		tanV := math32.Tan(camera.Fovy * rl.Deg2rad / 2)
		tanH := tanV * aspect
		f.planes[0] = through(rl.Vector3Add(right, rl.Vector3Scale(forward, tanH)), eye)
		f.planes[1] = through(rl.Vector3Add(rl.Vector3Negate(right), rl.Vector3Scale(forward, tanH)), eye)
		f.planes[2] = through(rl.Vector3Add(up, rl.Vector3Scale(forward, tanV)), eye)
		f.planes[3] = through(rl.Vector3Add(rl.Vector3Negate(up), rl.Vector3Scale(forward, tanV)), eye)
	} else {
		// Fovy is the view height for orthographic cameras
		halfH := camera.Fovy / 2.0
		halfW := halfH * aspect
		f.planes[0] = through(right, rl.Vector3Subtract(eye, rl.Vector3Scale(right, halfW)))
		f.planes[1] = through(rl.Vector3Negate(right), rl.Vector3Add(eye, rl.Vector3Scale(right, halfW)))
		f.planes[2] = through(up, rl.Vector3Subtract(eye, rl.Vector3Scale(up, halfH)))
		f.planes[3] = through(rl.Vector3Negate(up), rl.Vector3Add(eye, rl.Vector3Scale(up, halfH)))
	}
	f.planes[4] = through(forward, rl.Vector3Add(eye, rl.Vector3Scale(forward, near)))
	f.planes[5] = through(rl.Vector3Negate(forward), rl.Vector3Add(eye, rl.Vector3Scale(forward, far)))
	return f
}

// ContainsSphere tests if a sphere is inside or intersects the frustum
// Returns true if the sphere should be rendered
func (f *Frustum) ContainsSphere(center rl.Vector3, radius float32) bool {
	for i := 0; i < 6; i++ {
		// Distance from center to plane
		dist := rl.Vector3DotProduct(f.planes[i].normal, center) + f.planes[i].distance
		// If sphere is completely behind any plane, it's outside
		if dist < -radius {
			return false
		}
	}
	return true
}

// ContainsBox tests an axis-aligned box against the frustum using its
// positive vertex per plane.
func (f *Frustum) ContainsBox(box physics.AABB) bool {
	for i := 0; i < 6; i++ {
		n := f.planes[i].normal
		p := box.Min
		if n.X >= 0 {
			p.X = box.Max.X
		}
		if n.Y >= 0 {
			p.Y = box.Max.Y
		}
		if n.Z >= 0 {
			p.Z = box.Max.Z
		}
		if rl.Vector3DotProduct(n, p)+f.planes[i].distance < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint tests if a point is inside the frustum
func (f *Frustum) ContainsPoint(point rl.Vector3) bool {
	for i := 0; i < 6; i++ {
		dist := rl.Vector3DotProduct(f.planes[i].normal, point) + f.planes[i].distance
		if dist < 0 {
			return false
		}
	}
	return true
}
