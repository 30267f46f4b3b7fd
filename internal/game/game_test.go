package game

import (
	"io"
	"log"
	"testing"

	"citysim/internal/config"
	"citysim/internal/controller"
	"citysim/internal/physics"
	"citysim/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const tick = float32(1.0 / 60.0)

func newGame(t *testing.T, vehicles int) *Game {
	t.Helper()
	w, err := physics.NewWorld(config.DefaultPhysics(), physics.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	l := world.DefaultLayout()
	l.BlocksX, l.BlocksZ = 2, 2
	city, err := world.Populate(w, l)
	if err != nil {
		t.Fatal(err)
	}
	g, err := New(w, city, vehicles)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func TestNewPlacesPlayerAndCars(t *testing.T) {
	g := newGame(t, 2)
	if len(g.Vehicles) != 2 {
		t.Fatalf("Expected 2 cars, got %d", len(g.Vehicles))
	}
	if g.Player.Body.Position != (rl.Vector3{Y: 0.9}) {
		t.Errorf("Expected the player at the center intersection, got %+v", g.Player.Body.Position)
	}
	g.Step(Input{}, tick)
	if !g.Player.Body.Grounded {
		t.Error("Expected the player to start on the street")
	}
	for _, v := range g.Vehicles {
		if !v.Body.Grounded {
			t.Errorf("Expected car %d on the street, got %+v", v.Body.ID, v.Body.Position)
		}
	}
	if stats, _ := g.Board.Latest(); stats.Ticks != 1 {
		t.Errorf("Expected the board to see 1 tick, got %d", stats.Ticks)
	}
}

func TestNewNeedsSpawnPoints(t *testing.T) {
	w, _ := physics.NewWorld(config.DefaultPhysics(), physics.WithLogger(log.New(io.Discard, "", 0)))
	if _, err := New(w, &world.City{}, 1); err != ErrNoSpawnPoints {
		t.Errorf("Expected ErrNoSpawnPoints, got %v", err)
	}
}

func TestStepWalks(t *testing.T) {
	g := newGame(t, 0)
	for i := 0; i < 30; i++ {
		g.Step(Input{Player: controller.PlayerInput{Forward: 1}}, tick)
	}
	if g.Player.Body.Position.X < 2 {
		t.Errorf("Expected the player to walk along +X, got %+v", g.Player.Body.Position)
	}
}

func TestEnterDriveAndLeaveCar(t *testing.T) {
	g := newGame(t, 1)
	car := g.Vehicles[0]
	g.Step(Input{}, tick)

	// walk up to the car
	next := rl.Vector3Add(car.Body.Position, rl.Vector3{X: 2.5})
	next.Y = 0.9
	g.World.SetPosition(g.Player.Body, next)
	walker := g.Player.Body

	g.Step(Input{Use: true}, tick)
	if g.Mode != ModeDrive || g.Driving() != car {
		t.Fatalf("Expected to drive car %d, mode %s", car.Body.ID, g.Mode)
	}
	if _, ok := g.World.Body(walker.ID); ok {
		t.Error("Expected the walking body to leave the world while driving")
	}

	startX := car.Body.Position.X
	for i := 0; i < 60; i++ {
		g.Step(Input{Vehicle: controller.VehicleInput{Throttle: 1}}, tick)
	}
	if car.Body.Position.X <= startX+1 {
		t.Errorf("Expected the car to move, x %v -> %v", startX, car.Body.Position.X)
	}

	g.Step(Input{Use: true}, tick)
	if g.Mode != ModeWalk || g.Driving() != nil {
		t.Fatalf("Expected to be back on foot, mode %s", g.Mode)
	}
	p := g.Player.Body
	if _, ok := g.World.Body(p.ID); !ok {
		t.Fatal("Expected a new player body in the world")
	}
	if d := rl.Vector3Distance(p.Position, car.Body.Position); d > 5 {
		t.Errorf("Expected to get out beside the car, %v m away", d)
	}
	if _, inside := g.World.PointInsideStatic(p.Position); inside {
		t.Errorf("Expected to get out onto open ground, got %+v", p.Position)
	}
}

func TestUseOutOfRangeStaysOnFoot(t *testing.T) {
	g := newGame(t, 1)
	g.Step(Input{Use: true}, tick)
	if g.Mode != ModeWalk {
		t.Errorf("Expected no car within reach, mode %s", g.Mode)
	}
}

func TestShootCapsCrates(t *testing.T) {
	g := newGame(t, 0)
	g.Step(Input{Shoot: true}, tick)
	if len(g.Crates()) != 1 {
		t.Fatalf("Expected 1 crate, got %d", len(g.Crates()))
	}
	first := g.Crates()[0]
	if first.Velocity.X <= 0 {
		t.Errorf("Expected the crate thrown along the view, got %+v", first.Velocity)
	}

	for i := 0; i < MaxCrates+5; i++ {
		g.shoot()
	}
	if len(g.Crates()) != MaxCrates {
		t.Errorf("Expected %d crates, got %d", MaxCrates, len(g.Crates()))
	}
	if _, ok := g.World.Body(first.ID); ok {
		t.Error("Expected the oldest crate to be removed")
	}
}

func TestCrateHitsCount(t *testing.T) {
	g := newGame(t, 0)
	look := g.Player.LookDirection()
	target := rl.Vector3Add(g.Player.EyePosition(), rl.Vector3Scale(look, 6))
	box, _ := physics.NewBoxCollider(rl.Vector3{X: 1, Y: 1, Z: 1})
	if _, err := g.World.AddStaticBody(physics.BodyDef{Tag: "target", Position: target, Collider: box}); err != nil {
		t.Fatal(err)
	}

	g.Step(Input{Shoot: true}, tick)
	for i := 0; i < 30; i++ {
		g.Step(Input{}, tick)
	}
	if g.Impacts() < 1 {
		t.Errorf("Expected the crate to hit the target, got %d impacts", g.Impacts())
	}
}

func TestToggleMap(t *testing.T) {
	g := newGame(t, 0)
	g.Step(Input{ToggleMap: true}, tick)
	if g.Mode != ModeMap {
		t.Fatalf("Expected map mode, got %s", g.Mode)
	}
	if cam := g.Camera(tick); cam.Projection != rl.CameraOrthographic {
		t.Errorf("Expected an overhead camera, got %+v", cam)
	}
	g.Step(Input{ToggleMap: true}, tick)
	if g.Mode != ModeWalk {
		t.Errorf("Expected to return to walking, got %s", g.Mode)
	}
	if cam := g.Camera(tick); cam.Position != g.Player.EyePosition() {
		t.Errorf("Expected the first person camera, got %+v", cam)
	}
}

func TestColorOf(t *testing.T) {
	g := newGame(t, 1)
	if c := g.ColorOf(g.Vehicles[0].Body); c != rl.Red {
		t.Errorf("Expected cars in red, got %v", c)
	}
	if c := g.ColorOf(g.Player.Body); c != rl.Blue {
		t.Errorf("Expected the player in blue, got %v", c)
	}
	curb := g.City.Curbs[0]
	if c := g.ColorOf(curb); c != g.City.ColorOf(curb) {
		t.Errorf("Expected statics to use the city palette, got %v", c)
	}
}
