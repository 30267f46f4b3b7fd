package controller

import (
	"github.com/chewxy/math32"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// VehicleInput is one frame of driver intent.
type VehicleInput struct {
	Throttle float32 // [0,1]
	Brake    float32 // [0,1], reverses once stopped
	Steer    float32 // [-1,1], positive turns left
}

// Vehicle is an arcade car: speed and heading are integrated here and
// written to the body as a velocity. Colliders do not rotate, so the body
// uses a square footprint.
type Vehicle struct {
	Body *physics.Body

	Heading float32 // radians, 0 faces +X
	Speed   float32 // signed, along the heading

	MaxSpeed   float32
	MaxReverse float32
	Accel      float32
	BrakeDecel float32
	Drag       float32 // fraction of speed lost per second
	TurnRate   float32 // radians per second at full speed
}

// NewVehicle registers a car body at spawn facing heading.
func NewVehicle(w *physics.World, tag string, spawn rl.Vector3, heading float32) (*Vehicle, error) {
	col, err := physics.NewBoxCollider(rl.Vector3{X: 1.1, Y: 0.7, Z: 1.1})
	if err != nil {
		return nil, err
	}
	body, err := w.AddBody(physics.BodyDef{
		Tag:         tag,
		Position:    spawn,
		Mass:        1200,
		Friction:    physics.NoFriction, // speed is owned by the controller
		Restitution: physics.NoRestitution,
		Collider:    col,
	})
	if err != nil {
		return nil, err
	}
	return &Vehicle{
		Body:       body,
		Heading:    heading,
		MaxSpeed:   25,
		MaxReverse: 6,
		Accel:      8,
		BrakeDecel: 16,
		Drag:       0.3,
		TurnRate:   1.2,
	}, nil
}

// Update integrates one frame of input. Call it before World.Update.
func (v *Vehicle) Update(w *physics.World, in VehicleInput, dt float32) {
	if v.Body == nil || dt <= 0 {
		return
	}
	throttle := clamp(in.Throttle, 0, 1)
	brake := clamp(in.Brake, 0, 1)
	steer := clamp(in.Steer, -1, 1)

	// A crash last tick shows up as lost velocity along the heading
	fwd := v.Forward()
	v.Speed = v.Body.Velocity.X*fwd.X + v.Body.Velocity.Z*fwd.Z

	// No traction in the air
	if v.Body.Grounded {
		switch {
		case brake > 0 && v.Speed > 0:
			v.Speed = max(0, v.Speed-brake*v.BrakeDecel*dt)
		case brake > 0:
			v.Speed -= brake * v.Accel * 0.5 * dt
		}
		v.Speed += throttle * v.Accel * dt
		v.Speed -= v.Speed * v.Drag * dt
		v.Speed = clamp(v.Speed, -v.MaxReverse, v.MaxSpeed)

		// Steering scales with speed and flips in reverse
		v.Heading += steer * v.TurnRate * dt * (v.Speed / v.MaxSpeed)
		v.Heading = wrapAngle(v.Heading)
	}

	fwd = v.Forward()
	w.SetVelocity(v.Body, rl.Vector3{
		X: fwd.X * v.Speed,
		Y: v.Body.Velocity.Y,
		Z: fwd.Z * v.Speed,
	})
}

// Forward returns the unit heading vector on the XZ plane.
func (v *Vehicle) Forward() rl.Vector3 {
	return rl.Vector3{X: math32.Cos(v.Heading), Z: -math32.Sin(v.Heading)}
}

// wrapAngle keeps a heading in [-Pi, Pi].
func wrapAngle(a float32) float32 {
	for a > math32.Pi {
		a -= 2 * math32.Pi
	}
	for a < -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}
