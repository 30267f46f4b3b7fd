package camera

import (
	"io"
	"log"
	"math"
	"testing"

	"citysim/internal/config"
	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func approxEqual(t *testing.T, got, want, tol float32, field string) {
	t.Helper()
	if math.Abs(float64(got-want)) > float64(tol) {
		t.Fatalf("%s = %.4f, want %.4f (tol=%.4f)", field, got, want, tol)
	}
}

func TestFirstPerson(t *testing.T) {
	eye := rl.Vector3{X: 1, Y: 2, Z: 3}
	cam := FirstPerson(eye, rl.Vector3{Z: 1}, 70)
	if cam.Position != eye {
		t.Errorf("Expected position %v, got %v", eye, cam.Position)
	}
	if cam.Target != (rl.Vector3{X: 1, Y: 2, Z: 4}) {
		t.Errorf("Expected target one meter ahead, got %v", cam.Target)
	}
	if cam.Fovy != 70 || cam.Projection != rl.CameraPerspective {
		t.Errorf("Unexpected projection: %+v", cam)
	}
}

func TestChaseSitsBehindTarget(t *testing.T) {
	c := NewChase()
	cam := c.Update(nil, rl.Vector3{}, rl.Vector3{X: 1}, 1.0/60.0)

	approxEqual(t, cam.Position.X, -c.Distance, 1e-4, "position.x")
	approxEqual(t, cam.Position.Y, c.Height, 1e-4, "position.y")
	approxEqual(t, cam.Position.Z, 0, 1e-4, "position.z")
	if cam.Target.Y != 1 {
		t.Errorf("Expected to aim just above the target, got %v", cam.Target)
	}
}

func TestChaseEasesTowardTarget(t *testing.T) {
	c := NewChase()
	c.Update(nil, rl.Vector3{}, rl.Vector3{X: 1}, 1.0/60.0)
	cam := c.Update(nil, rl.Vector3{X: 10}, rl.Vector3{X: 1}, 1.0/60.0)

	if cam.Position.X <= -c.Distance || cam.Position.X >= 10-c.Distance {
		t.Errorf("Expected the camera partway to its new spot, got x=%v", cam.Position.X)
	}

	c.Reset()
	cam = c.Update(nil, rl.Vector3{X: 10}, rl.Vector3{X: 1}, 1.0/60.0)
	approxEqual(t, cam.Position.X, 10-c.Distance, 1e-4, "position.x after reset")
}

func TestChaseBoomStopsAtWall(t *testing.T) {
	w, err := physics.NewWorld(config.DefaultPhysics(), physics.WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	wall, _ := physics.NewBoxCollider(rl.Vector3{X: 0.5, Y: 5, Z: 5})
	if _, err := w.AddStaticBody(physics.BodyDef{Tag: "wall", Position: rl.Vector3{X: -5, Y: 5}, Collider: wall}); err != nil {
		t.Fatal(err)
	}

	c := NewChase()
	cam := c.Update(w, rl.Vector3{}, rl.Vector3{X: 1}, 1.0/60.0)
	if cam.Position.X <= -4.5 {
		t.Errorf("Expected the camera in front of the wall at -4.5, got x=%v", cam.Position.X)
	}
	if cam.Position.X >= 0 {
		t.Errorf("Expected the camera to stay behind the target, got x=%v", cam.Position.X)
	}
}

func TestOverhead(t *testing.T) {
	cam := Overhead(physics.AABB{Min: rl.Vector3{X: -100, Z: -50}, Max: rl.Vector3{X: 100, Y: 40, Z: 50}})
	if cam.Projection != rl.CameraOrthographic || cam.Fovy != 200 {
		t.Errorf("Expected an orthographic view 200 wide, got %+v", cam)
	}
	if cam.Target != (rl.Vector3{}) || cam.Position.Y != 240 {
		t.Errorf("Expected to look down on the center, got %+v", cam)
	}
}
