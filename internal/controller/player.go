// Package controller drives bodies in a physics.World from player or AI input.
// Controllers only write velocities (and the odd teleport through
// World.SetPosition); the world owns integration and collision.
package controller

import (
	"github.com/chewxy/math32"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// stepLift keeps a stepping player just above the step, inside the support
// skin so the next tick grounds it.
const stepLift float32 = 0.005

// PlayerInput is one frame of intent. Forward and Right are axes in [-1,1].
type PlayerInput struct {
	Forward float32
	Right   float32
	LookX   float32 // mouse delta
	LookY   float32
	Jump    bool
	Sprint  bool
}

// Player is a walking character backed by an upright capsule.
type Player struct {
	Body *physics.Body

	Yaw              float32 // degrees
	Pitch            float32
	MoveSpeed        float32
	SprintMultiplier float32
	LookSpeed        float32
	JumpStrength     float32
	StepHeight       float32 // max curb height climbed without jumping
	EyeHeight        float32 // above body center
}

// NewPlayer registers the player's body at spawn.
func NewPlayer(w *physics.World, spawn rl.Vector3) (*Player, error) {
	col, err := physics.NewCapsuleCollider(0.4, 1.8)
	if err != nil {
		return nil, err
	}
	body, err := w.AddBody(physics.BodyDef{
		Tag:         "player",
		Position:    spawn,
		Mass:        80,
		Restitution: physics.NoRestitution,
		Collider:    col,
	})
	if err != nil {
		return nil, err
	}
	return &Player{
		Body:             body,
		Yaw:              0,
		Pitch:            -10,
		MoveSpeed:        6.0,
		SprintMultiplier: 1.8,
		LookSpeed:        0.1,
		JumpStrength:     8.0,
		StepHeight:       0.4,
		EyeHeight:        0.7,
	}, nil
}

// Update applies one frame of input. Call it before World.Update.
func (p *Player) Update(w *physics.World, in PlayerInput, dt float32) {
	if p.Body == nil || dt <= 0 {
		return
	}

	// Mouse look
	p.Yaw += in.LookX * p.LookSpeed
	p.Pitch = clamp(p.Pitch-in.LookY*p.LookSpeed, -89, 89)

	// Calculate movement vectors (horizontal plane only)
	forward, right := directions(p.Yaw)
	moveDir := rl.Vector3{
		X: forward.X*in.Forward - right.X*in.Right,
		Z: forward.Z*in.Forward - right.Z*in.Right,
	}

	// Normalize diagonal movement
	if l := math32.Hypot(moveDir.X, moveDir.Z); l > 1 {
		moveDir.X /= l
		moveDir.Z /= l
	}

	speed := p.MoveSpeed
	if in.Sprint {
		speed *= p.SprintMultiplier
	}

	v := p.Body.Velocity
	v.X = moveDir.X * speed
	v.Z = moveDir.Z * speed

	// Jump
	if in.Jump && p.Body.Grounded {
		v.Y = p.JumpStrength
	}
	w.SetVelocity(p.Body, v)

	if moveDir.X != 0 || moveDir.Z != 0 {
		p.tryStep(w, moveDir)
	}
}

// tryStep lifts the player onto a low static it ran into during the last
// tick, the way a character controller climbs stairs.
func (p *Player) tryStep(w *physics.World, moveDir rl.Vector3) {
	b := p.Body
	if !b.Grounded {
		return
	}
	feet := b.Position.Y - b.Collider.HalfHeight()
	reach := b.Collider.BoundingRadius() + p.StepHeight

	for _, other := range w.Query(b.Position, reach) {
		if !other.IsStatic || !w.Touching(b, other) {
			continue
		}
		bounds := other.Bounds()
		rise := bounds.Max.Y - feet
		if rise <= 0 || rise > p.StepHeight {
			continue
		}
		// only steps in the direction of travel
		toStep := rl.Vector3Subtract(bounds.ClosestPoint(b.Position), b.Position)
		if toStep.X*moveDir.X+toStep.Z*moveDir.Z <= 0 {
			continue
		}

		nudge := b.Collider.BoxHalfExtents().X * 0.5
		target := rl.Vector3{
			X: b.Position.X + moveDir.X*nudge,
			Y: bounds.Max.Y + b.Collider.HalfHeight() + stepLift,
			Z: b.Position.Z + moveDir.Z*nudge,
		}
		if blocked(w, b, target) {
			continue
		}
		w.SetPosition(b, target)
		return
	}
}

// blocked reports whether b placed at pos would overlap any static body.
func blocked(w *physics.World, b *physics.Body, pos rl.Vector3) bool {
	for _, other := range w.Query(pos, b.Collider.BoundingRadius()) {
		if other.IsStatic && physics.Overlap(pos, b.Collider, other.Position, other.Collider).Hit {
			return true
		}
	}
	return false
}

// EyePosition is where the first-person camera sits.
func (p *Player) EyePosition() rl.Vector3 {
	pos := p.Body.Position
	pos.Y += p.EyeHeight
	return pos
}

// LookDirection returns the unit view vector from yaw and pitch.
func (p *Player) LookDirection() rl.Vector3 {
	yaw := p.Yaw * rl.Deg2rad
	pitch := p.Pitch * rl.Deg2rad
	return rl.Vector3{
		X: math32.Cos(yaw) * math32.Cos(pitch),
		Y: math32.Sin(pitch),
		Z: math32.Sin(yaw) * math32.Cos(pitch),
	}
}

func directions(yawDeg float32) (forward, right rl.Vector3) {
	yaw := yawDeg * rl.Deg2rad
	forward = rl.Vector3{X: math32.Cos(yaw), Z: math32.Sin(yaw)}
	right = rl.Vector3{X: math32.Sin(yaw), Z: -math32.Cos(yaw)}
	return
}

func clamp(v, lo, hi float32) float32 {
	return max(lo, min(v, hi))
}
