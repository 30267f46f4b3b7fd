package physics

import (
	"github.com/chewxy/math32"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// up is the fallback normal for degenerate contacts.
var up = rl.Vector3{X: 0, Y: 1, Z: 0}

// clamp restricts a value to a range
func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// signOr returns the sign of v, or fallback when v is zero.
func signOr(v, fallback float32) float32 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return fallback
}

func finite(v rl.Vector3) bool {
	return !math32.IsNaN(v.X) && !math32.IsNaN(v.Y) && !math32.IsNaN(v.Z) &&
		!math32.IsInf(v.X, 0) && !math32.IsInf(v.Y, 0) && !math32.IsInf(v.Z, 0)
}

// axis returns the unit vector for axis index 0=X, 1=Y, 2=Z scaled by s.
func axis(i int, s float32) rl.Vector3 {
	switch i {
	case 0:
		return rl.Vector3{X: s}
	case 1:
		return rl.Vector3{Y: s}
	default:
		return rl.Vector3{Z: s}
	}
}

func component(v rl.Vector3, i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
