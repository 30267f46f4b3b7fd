package physics

import rl "github.com/gen2brain/raylib-go/raylib"

// BodyID identifies a registered body for its whole lifetime.
type BodyID uint64

// Sentinels for BodyDef fields whose zero value means "use the default".
const (
	NoFriction    float32 = -1
	NoRestitution float32 = -1
)

// CollisionHandler receives contact callbacks. self is always the body the
// handler was registered with.
type CollisionHandler interface {
	OnCollisionEnter(self, other *Body)
	OnCollisionExit(self, other *Body)
}

// BodyDef is the registration input for AddBody and AddStaticBody.
// Zero Mass, Friction and Restitution are filled from the world defaults.
type BodyDef struct {
	Tag            string
	Position       rl.Vector3
	Velocity       rl.Vector3
	Mass           float32
	Friction       float32
	Restitution    float32
	Collider       Collider
	DisableGravity bool
	Handler        CollisionHandler
}

// Body is a simulated object. Controllers may write Velocity and Acceleration
// between ticks and read Position and Grounded after one. Position of a
// registered body should only be changed through World.SetPosition.
type Body struct {
	ID           BodyID
	Tag          string
	Position     rl.Vector3
	Velocity     rl.Vector3
	Acceleration rl.Vector3
	Mass         float32
	Friction     float32
	Restitution  float32
	Collider     Collider
	Grounded     bool
	IsStatic     bool
	UseGravity   bool
	Cell         CellKey
	Handler      CollisionHandler

	span      cellSpan
	indexed   bool
	mark      uint64
	tentative rl.Vector3
	// velocity at the end of integration, read by the other body of a
	// dynamic pair
	integrated rl.Vector3
}

// Bounds returns the world-space box of the body's collider.
func (b *Body) Bounds() AABB {
	return b.Collider.Bounds(b.Position)
}

// Speed returns the magnitude of the velocity.
func (b *Body) Speed() float32 {
	return rl.Vector3Length(b.Velocity)
}
