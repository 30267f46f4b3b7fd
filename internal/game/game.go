// Package game runs the interactive city: a walking player, drivable cars
// and thrown crates on top of the physics core.
package game

import (
	"errors"
	"fmt"
	"log"
	"time"

	"citysim/internal/camera"
	"citysim/internal/controller"
	"citysim/internal/observability"
	"citysim/internal/physics"
	"citysim/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Mode selects what the input drives.
type Mode int

const (
	ModeWalk Mode = iota
	ModeDrive
	ModeMap
)

func (m Mode) String() string {
	switch m {
	case ModeWalk:
		return "walk"
	case ModeDrive:
		return "drive"
	case ModeMap:
		return "map"
	}
	return "unknown"
}

const (
	// EnterRange is how close the player must be to a car to get in.
	EnterRange float32 = 4.0
	MaxCrates          = 200
	shotSpeed  float32 = 25
	shotRadius float32 = 0.4
	vehicleTag         = "car"
)

var ErrNoSpawnPoints = errors.New("city has no spawn points")

// Input is one frame of intent, already decoded from the keyboard and mouse.
type Input struct {
	Player  controller.PlayerInput
	Vehicle controller.VehicleInput

	Use       bool // enter or leave the nearest car
	ToggleMap bool
	Shoot     bool
}

// impacts counts crate hits; it is the handler for every thrown crate.
type impacts struct {
	count int
}

func (i *impacts) OnCollisionEnter(self, other *physics.Body) {
	if other.IsStatic || other.Tag != "crate" {
		i.count++
	}
}

func (i *impacts) OnCollisionExit(self, other *physics.Body) {}

type Game struct {
	World    *physics.World
	City     *world.City
	Player   *controller.Player
	Vehicles []*controller.Vehicle
	Mode     Mode
	driving  int // index into Vehicles while in ModeDrive

	Renderer  *world.Renderer
	Board     *observability.Board
	DebugMode bool
	TimeScale float32

	crates   []*physics.Body
	hits     impacts
	chase    *camera.Chase
	lastMode Mode

	// Debug timing (ms)
	updateMs float64
	drawMs   float64
}

// New places the player and one car per vehicle at the city's spawn points.
func New(w *physics.World, city *world.City, vehicles int) (*Game, error) {
	if len(city.SpawnPoints) == 0 {
		return nil, ErrNoSpawnPoints
	}
	g := &Game{
		World:     w,
		City:      city,
		Renderer:  world.NewRenderer(max(city.Extent.Max.X-city.Extent.Min.X, city.Extent.Max.Z-city.Extent.Min.Z)),
		Board:     &observability.Board{},
		TimeScale: 1,
		chase:     camera.NewChase(),
	}

	spawn := city.SpawnPoints[len(city.SpawnPoints)/2]
	spawn.Y = 0.9
	p, err := controller.NewPlayer(w, spawn)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	g.Player = p

	for i := 0; i < vehicles; i++ {
		at := city.SpawnPoints[(i*7+1)%len(city.SpawnPoints)]
		// park beside the intersection so cars don't spawn inside each other
		at.X += float32(i/len(city.SpawnPoints)) * 3
		at.Z += 3
		at.Y = 0.7
		v, err := controller.NewVehicle(w, vehicleTag, at, 0)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", i, err)
		}
		g.Vehicles = append(g.Vehicles, v)
	}
	return g, nil
}

// Step advances the game by dt using in. It touches no raylib state, so it
// runs headless.
func (g *Game) Step(in Input, dt float32) {
	start := time.Now()
	dt *= g.TimeScale

	if in.ToggleMap {
		if g.Mode == ModeMap {
			g.Mode = g.lastMode
		} else {
			g.lastMode = g.Mode
			g.Mode = ModeMap
		}
	}

	switch g.Mode {
	case ModeWalk:
		if in.Use {
			g.enterNearest()
		}
		if g.Mode == ModeWalk {
			g.Player.Update(g.World, in.Player, dt)
		}
		if in.Shoot {
			g.shoot()
		}
	case ModeDrive:
		if in.Use {
			g.exit()
		} else {
			g.Vehicles[g.driving].Update(g.World, in.Vehicle, dt)
		}
	}

	g.World.Update(dt)
	g.Board.Publish(g.World.Stats())
	g.updateMs = float64(time.Since(start).Microseconds()) / 1000.0
}

// enterNearest switches to driving the closest car within EnterRange.
func (g *Game) enterNearest() {
	best, bestDist := -1, EnterRange
	for i, v := range g.Vehicles {
		if d := rl.Vector3Distance(v.Body.Position, g.Player.Body.Position); d <= bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return
	}
	g.World.RemoveBody(g.Player.Body)
	g.driving = best
	g.Mode = ModeDrive
	g.chase.Reset()
	log.Printf("Game: entered car %d", g.Vehicles[best].Body.ID)
}

// exit puts the player back on foot beside the car, on the driver's side.
func (g *Game) exit() {
	v := g.Vehicles[g.driving]
	fwd := v.Forward()
	side := rl.Vector3{X: fwd.Z, Z: -fwd.X} // left of the heading
	half := v.Body.Collider.BoxHalfExtents().X

	yaw, pitch := g.Player.Yaw, g.Player.Pitch
	for _, dist := range []float32{half + 0.8, -(half + 0.8), half + 2.5} {
		at := rl.Vector3Add(v.Body.Position, rl.Vector3Scale(side, dist))
		at.Y = g.World.GroundHeightAt(at.X, at.Z) + 0.9
		if _, inside := g.World.PointInsideStatic(at); inside {
			continue
		}
		p, err := controller.NewPlayer(g.World, at)
		if err != nil {
			log.Printf("Game: could not leave car: %v", err)
			return
		}
		p.Yaw, p.Pitch = yaw, pitch
		g.Player = p
		g.Mode = ModeWalk
		return
	}
	log.Printf("Game: no room to leave car %d", v.Body.ID)
}

// shoot throws a crate along the view direction. The oldest crate goes once
// MaxCrates are in flight.
func (g *Game) shoot() {
	look := g.Player.LookDirection()
	at := rl.Vector3Add(g.Player.EyePosition(), rl.Vector3Scale(look, 1.2))

	sphere, err := physics.NewSphereCollider(shotRadius)
	if err != nil {
		return
	}
	b, err := g.World.AddBody(physics.BodyDef{
		Tag:         "crate",
		Position:    at,
		Velocity:    rl.Vector3Scale(look, shotSpeed),
		Mass:        2,
		Friction:    0.1,
		Restitution: 0.6,
		Collider:    sphere,
		Handler:     &g.hits,
	})
	if err != nil {
		log.Printf("Game: shot rejected: %v", err)
		return
	}
	g.crates = append(g.crates, b)
	if len(g.crates) > MaxCrates {
		g.World.RemoveBody(g.crates[0])
		g.crates = g.crates[1:]
	}
}

// Crates returns the thrown bodies still in the world, oldest first.
func (g *Game) Crates() []*physics.Body {
	return g.crates
}

// Impacts returns how many times a crate has hit something other than a crate.
func (g *Game) Impacts() int {
	return g.hits.count
}

// Driving returns the car under control, nil on foot.
func (g *Game) Driving() *controller.Vehicle {
	if g.Mode != ModeDrive {
		return nil
	}
	return g.Vehicles[g.driving]
}

// Camera returns the view for the current mode.
func (g *Game) Camera(dt float32) rl.Camera3D {
	switch g.Mode {
	case ModeDrive:
		v := g.Vehicles[g.driving]
		return g.chase.Update(g.World, v.Body.Position, v.Forward(), dt)
	case ModeMap:
		return camera.Overhead(g.City.Extent)
	}
	return camera.FirstPerson(g.Player.EyePosition(), g.Player.LookDirection(), 70)
}

// ColorOf picks the draw color for any body in the world.
func (g *Game) ColorOf(b *physics.Body) rl.Color {
	switch {
	case b.IsStatic:
		return g.City.ColorOf(b)
	case b.Tag == vehicleTag:
		return rl.Red
	case b.Tag == "crate":
		return rl.Orange
	}
	return rl.Blue
}
