package world

import (
	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	DefaultDrawDistance float32 = 250.0
	NearPlane           float32 = 0.1
)

// Renderer draws physics bodies as their collider primitives, skipping
// anything outside the camera frustum or past DrawDistance.
type Renderer struct {
	DrawDistance float32
	Wireframe    bool // outline bodies, useful for checking contacts
	floorSize    float32
	drawn        int
	culled       int
}

func NewRenderer(floorSize float32) *Renderer {
	return &Renderer{DrawDistance: DefaultDrawDistance, floorSize: floorSize}
}

// Visible reports whether b should be drawn for a camera at eye.
func (r *Renderer) Visible(f *Frustum, eye rl.Vector3, b *physics.Body) bool {
	radius := b.Collider.BoundingRadius()
	if rl.Vector3Distance(eye, b.Position)-radius > r.DrawDistance {
		return false
	}
	if !f.ContainsSphere(b.Position, radius) {
		return false
	}
	return f.ContainsBox(b.Bounds())
}

// Draw renders the ground and bodies. Call it between BeginDrawing and
// EndDrawing.
func (r *Renderer) Draw(camera rl.Camera3D, aspect float32, bodies []*physics.Body, colorOf func(*physics.Body) rl.Color) {
	frustum := ExtractFrustum(camera, aspect, NearPlane, r.DrawDistance)
	r.drawn, r.culled = 0, 0

	rl.BeginMode3D(camera)

	// Street level
	rl.DrawPlane(rl.Vector3{}, rl.Vector2{X: r.floorSize, Y: r.floorSize}, rl.NewColor(60, 60, 65, 255))

	for _, b := range bodies {
		if !r.Visible(&frustum, camera.Position, b) {
			r.culled++
			continue
		}
		r.drawBody(b, colorOf(b))
		r.drawn++
	}

	rl.EndMode3D()
}

func (r *Renderer) drawBody(b *physics.Body, col rl.Color) {
	c := b.Collider
	switch c.Kind {
	case physics.ShapeSphere:
		rl.DrawSphere(b.Position, c.Radius, col)
		if r.Wireframe {
			rl.DrawSphereWires(b.Position, c.Radius, 8, 8, rl.Black)
		}
	case physics.ShapeCapsule:
		offset := c.Height/2 - c.Radius
		start := rl.Vector3{X: b.Position.X, Y: b.Position.Y - offset, Z: b.Position.Z}
		end := rl.Vector3{X: b.Position.X, Y: b.Position.Y + offset, Z: b.Position.Z}
		rl.DrawCapsule(start, end, c.Radius, 8, 4, col)
		if r.Wireframe {
			rl.DrawCapsuleWires(start, end, c.Radius, 8, 4, rl.Black)
		}
	default:
		size := rl.Vector3Scale(c.HalfExtents, 2)
		rl.DrawCubeV(b.Position, size, col)
		if r.Wireframe {
			rl.DrawCubeWiresV(b.Position, size, rl.Black)
		}
	}
}

// Stats returns how many bodies the last Draw rendered and culled.
func (r *Renderer) Stats() (drawn, culled int) {
	return r.drawn, r.culled
}
