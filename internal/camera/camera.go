// Package camera turns controller state into raylib cameras.
package camera

import (
	"github.com/chewxy/math32"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FirstPerson places the camera at eye looking along dir.
func FirstPerson(eye, dir rl.Vector3, fovy float32) rl.Camera3D {
	return rl.Camera3D{
		Position:   eye,
		Target:     rl.Vector3Add(eye, dir),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       fovy,
		Projection: rl.CameraPerspective,
	}
}

// Chase follows a target from behind and above. The boom is shortened when
// a static body sits between the target and the camera.
type Chase struct {
	Distance  float32 // behind the target
	Height    float32 // above the target
	Stiffness float32 // how fast the camera catches up, per second
	Fovy      float32

	position rl.Vector3
	placed   bool
}

func NewChase() *Chase {
	return &Chase{
		Distance:  9,
		Height:    3.5,
		Stiffness: 6,
		Fovy:      60,
	}
}

// Update moves the camera toward its spot behind target (facing forward) and
// returns the camera for this frame.
func (c *Chase) Update(w *physics.World, target, forward rl.Vector3, dt float32) rl.Camera3D {
	desired, blocked := c.boom(w, target, forward)

	// snap when the boom is blocked
	if !c.placed || blocked || dt <= 0 {
		c.position = desired
		c.placed = true
	} else {
		t := 1 - math32.Exp(-c.Stiffness*dt)
		c.position = rl.Vector3Lerp(c.position, desired, t)
	}

	return rl.Camera3D{
		Position:   c.position,
		Target:     rl.Vector3{X: target.X, Y: target.Y + 1, Z: target.Z},
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       c.Fovy,
		Projection: rl.CameraPerspective,
	}
}

// Reset makes the next Update snap instead of easing.
func (c *Chase) Reset() {
	c.placed = false
}

// boom returns the camera spot, pulled in front of any static in the way.
func (c *Chase) boom(w *physics.World, target, forward rl.Vector3) (rl.Vector3, bool) {
	back := rl.Vector3{X: -forward.X, Z: -forward.Z}
	if l := math32.Hypot(back.X, back.Z); l > 0 {
		back.X /= l
		back.Z /= l
	}
	offset := rl.Vector3{X: back.X * c.Distance, Y: c.Height, Z: back.Z * c.Distance}
	length := rl.Vector3Length(offset)
	if length == 0 {
		return target, false
	}
	dir := rl.Vector3Scale(offset, 1/length)

	blocked := false
	if w != nil {
		if hit, ok := w.RaycastFirst(target, dir, length); ok {
			length = max(hit.Distance-0.5, 0.5)
			blocked = true
		}
	}
	return rl.Vector3Add(target, rl.Vector3Scale(dir, length)), blocked
}

// Overhead looks straight down on the box, for the map view.
func Overhead(extent physics.AABB) rl.Camera3D {
	center := rl.Vector3{
		X: (extent.Min.X + extent.Max.X) / 2,
		Z: (extent.Min.Z + extent.Max.Z) / 2,
	}
	span := max(extent.Max.X-extent.Min.X, extent.Max.Z-extent.Min.Z)
	return rl.Camera3D{
		Position:   rl.Vector3{X: center.X, Y: extent.Max.Y + span, Z: center.Z},
		Target:     center,
		Up:         rl.Vector3{X: 0, Y: 0, Z: -1},
		Fovy:       span,
		Projection: rl.CameraOrthographic,
	}
}
