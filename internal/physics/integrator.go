package physics

import (
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// parallelThreshold is the dynamic body count below which the integration
// phase stays on the calling goroutine even when workers > 1.
const parallelThreshold = 256

// integrateAll computes the tentative position of every dynamic body. With
// several workers the bodies are split into contiguous chunks; integration
// touches only the body itself and the ground function.
func (w *World) integrateAll(dt float32) {
	bodies := w.dynamics
	workers := w.cfg.Workers
	if workers <= 1 || len(bodies) < parallelThreshold {
		for _, b := range bodies {
			w.integrate(b, dt)
		}
		return
	}

	chunk := (len(bodies) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(bodies); lo += chunk {
		part := bodies[lo:min(lo+chunk, len(bodies))]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, b := range part {
				w.integrate(b, dt)
			}
		}()
	}
	wg.Wait()
}

// integrate advances one dynamic body to its tentative position.
func (w *World) integrate(b *Body, dt float32) {
	// Gravity only pulls bodies that are not resting on something
	if b.UseGravity && !b.Grounded {
		b.Velocity.Y += w.cfg.Gravity * dt
	}

	// Accumulated forces since the last tick
	b.Velocity = rl.Vector3Add(b.Velocity, rl.Vector3Scale(b.Acceleration, dt))

	// Horizontal decay
	decay := w.cfg.AirResistance
	if b.Grounded {
		decay = w.groundDecay(b)
	}
	b.Velocity.X *= decay
	b.Velocity.Z *= decay

	next := rl.Vector3Add(b.Position, rl.Vector3Scale(b.Velocity, dt))
	b.integrated = b.Velocity
	if !finite(next) {
		b.tentative = next // commit restores it
		return
	}

	// Ground check
	half := b.Collider.HalfHeight()
	ground := w.ground(next.X, next.Z)
	if next.Y-half <= ground {
		next.Y = ground + half
		b.Velocity.Y = 0
		b.Grounded = true
	} else {
		b.Grounded = false
	}

	b.integrated = b.Velocity
	b.tentative = next
}

// groundDecay scales the configured ground friction by the body's friction
// relative to the default: a default body decays by exactly GroundFriction,
// a frictionless one keeps its speed.
func (w *World) groundDecay(b *Body) float32 {
	if w.cfg.DefaultFriction <= 0 || b.Friction == w.cfg.DefaultFriction {
		return w.cfg.GroundFriction
	}
	loss := (1 - w.cfg.GroundFriction) * b.Friction / w.cfg.DefaultFriction
	return clamp(1-loss, 0, 1)
}
