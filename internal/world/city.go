// Package world builds the static city the simulation runs in and draws it.
package world

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrInvalidLayout is wrapped by every Layout.Validate failure.
var ErrInvalidLayout = errors.New("invalid city layout")

// City is the result of Populate: every static body it registered, grouped by
// role, plus street-level spawn points.
type City struct {
	Buildings   []*physics.Body
	Curbs       []*physics.Body
	Props       []*physics.Body
	Landmarks   []*physics.Body
	SpawnPoints []rl.Vector3 // street intersections at ground level
	Extent      physics.AABB
	Colors      map[physics.BodyID]rl.Color
}

// Statics returns the number of bodies the city registered.
func (c *City) Statics() int {
	return len(c.Buildings) + len(c.Curbs) + len(c.Props) + len(c.Landmarks)
}

// ColorOf returns the draw color for a body, LightGray when unknown.
func (c *City) ColorOf(b *physics.Body) rl.Color {
	if col, ok := c.Colors[b.ID]; ok {
		return col
	}
	return rl.LightGray
}

var buildingColors = []rl.Color{
	rl.Gray, rl.DarkGray, rl.Beige, rl.Brown, rl.SkyBlue, rl.Maroon, rl.LightGray,
}

// Populate registers the city described by l as static bodies in w. The same
// layout and seed always produce the same city.
//
// On error every body registered so far is removed again.
func Populate(w *physics.World, l Layout) (city *City, err error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	rng := rand.New(rand.NewSource(l.Seed))

	pitch := l.BlockSize + l.StreetWidth
	width := float32(l.BlocksX)*pitch - l.StreetWidth
	depth := float32(l.BlocksZ)*pitch - l.StreetWidth
	originX := -width / 2
	originZ := -depth / 2

	c := &City{
		Extent: physics.AABB{
			Min: rl.Vector3{X: originX - l.StreetWidth, Z: originZ - l.StreetWidth},
			Max: rl.Vector3{X: -originX + l.StreetWidth, Y: l.MaxHeight, Z: -originZ + l.StreetWidth},
		},
		Colors: make(map[physics.BodyID]rl.Color),
	}
	defer func() {
		if err != nil {
			c.discard(w)
		}
	}()

	for bx := 0; bx < l.BlocksX; bx++ {
		for bz := 0; bz < l.BlocksZ; bz++ {
			x0 := originX + float32(bx)*pitch
			z0 := originZ + float32(bz)*pitch
			if err := c.block(w, l, rng, x0, z0); err != nil {
				return nil, err
			}
		}
	}

	// Intersections, including the ring road around the city
	for ix := 0; ix <= l.BlocksX; ix++ {
		for iz := 0; iz <= l.BlocksZ; iz++ {
			c.SpawnPoints = append(c.SpawnPoints, rl.Vector3{
				X: originX - l.StreetWidth/2 + float32(ix)*pitch,
				Z: originZ - l.StreetWidth/2 + float32(iz)*pitch,
			})
		}
	}

	for _, lm := range l.Landmarks {
		col, err := lm.collider()
		if err != nil {
			return nil, err
		}
		pos := rl.Vector3{X: lm.Position[0], Y: lm.Position[1], Z: lm.Position[2]}
		b, err := c.add(w, lm.Name, pos, col, lookupColor(lm.Color))
		if err != nil {
			return nil, fmt.Errorf("landmark %q: %w", lm.Name, err)
		}
		c.Landmarks = append(c.Landmarks, b)
	}

	log.Printf("City: %d buildings, %d curbs, %d props, %d landmarks in %v",
		len(c.Buildings), len(c.Curbs), len(c.Props), len(c.Landmarks), time.Since(start))
	return c, nil
}

// discard removes every body the city registered.
func (c *City) discard(w *physics.World) {
	for id := range c.Colors {
		if b, ok := w.Body(id); ok {
			w.RemoveBody(b)
		}
	}
}

// block lays out one city block with its corner at (x0, z0): a curb along
// each edge, a lot grid of buildings and street furniture on the sidewalk.
func (c *City) block(w *physics.World, l Layout, rng *rand.Rand, x0, z0 float32) error {
	size := l.BlockSize
	h := l.CurbHeight / 2
	cw := l.CurbWidth / 2

	curbs := []struct {
		center rl.Vector3
		half   rl.Vector3
	}{
		{rl.Vector3{X: x0 + size/2, Y: h, Z: z0 + cw}, rl.Vector3{X: size / 2, Y: h, Z: cw}},
		{rl.Vector3{X: x0 + size/2, Y: h, Z: z0 + size - cw}, rl.Vector3{X: size / 2, Y: h, Z: cw}},
		{rl.Vector3{X: x0 + cw, Y: h, Z: z0 + size/2}, rl.Vector3{X: cw, Y: h, Z: size/2 - 2*cw}},
		{rl.Vector3{X: x0 + size - cw, Y: h, Z: z0 + size/2}, rl.Vector3{X: cw, Y: h, Z: size/2 - 2*cw}},
	}
	for _, cb := range curbs {
		col, err := physics.NewBoxCollider(cb.half)
		if err != nil {
			return err
		}
		b, err := c.add(w, "curb", cb.center, col, rl.LightGray)
		if err != nil {
			return err
		}
		c.Curbs = append(c.Curbs, b)
	}

	// Lots inside the sidewalk
	inner := size - 2*l.SidewalkWidth
	lot := inner / float32(l.LotsPerSide)
	for lx := 0; lx < l.LotsPerSide; lx++ {
		for lz := 0; lz < l.LotsPerSide; lz++ {
			if rng.Float32() < l.ParkChance {
				continue
			}
			footprint := lot/2 - l.LotGap/2
			half := rl.Vector3{
				X: footprint * (0.7 + 0.3*rng.Float32()),
				Y: (l.MinHeight + rng.Float32()*(l.MaxHeight-l.MinHeight)) / 2,
				Z: footprint * (0.7 + 0.3*rng.Float32()),
			}
			center := rl.Vector3{
				X: x0 + l.SidewalkWidth + lot*(float32(lx)+0.5),
				Y: half.Y,
				Z: z0 + l.SidewalkWidth + lot*(float32(lz)+0.5),
			}
			col, err := physics.NewBoxCollider(half)
			if err != nil {
				return err
			}
			b, err := c.add(w, "building", center, col, buildingColors[rng.Intn(len(buildingColors))])
			if err != nil {
				return err
			}
			c.Buildings = append(c.Buildings, b)
		}
	}

	// Street lamps along the north and south sidewalks
	if l.LampSpacing > 0 {
		lamp, err := physics.NewBoxCollider(rl.Vector3{X: 0.15, Y: 2.5, Z: 0.15})
		if err != nil {
			return err
		}
		inset := l.CurbWidth + 0.5
		for x := x0 + l.LampSpacing/2; x < x0+size; x += l.LampSpacing {
			for _, z := range []float32{z0 + inset, z0 + size - inset} {
				b, err := c.add(w, "lamp", rl.Vector3{X: x, Y: 2.5, Z: z}, lamp, rl.DarkGray)
				if err != nil {
					return err
				}
				c.Props = append(c.Props, b)
			}
		}
	}

	// A hydrant on a random corner
	if rng.Float32() < l.HydrantChance {
		hydrant, err := physics.NewSphereCollider(0.3)
		if err != nil {
			return err
		}
		inset := l.CurbWidth + 0.8
		corner := rl.Vector3{X: x0 + inset, Y: 0.3, Z: z0 + inset}
		if rng.Intn(2) == 1 {
			corner.X = x0 + size - inset
		}
		b, err := c.add(w, "hydrant", corner, hydrant, rl.Red)
		if err != nil {
			return err
		}
		c.Props = append(c.Props, b)
	}
	return nil
}

func (c *City) add(w *physics.World, tag string, pos rl.Vector3, col physics.Collider, color rl.Color) (*physics.Body, error) {
	b, err := w.AddStaticBody(physics.BodyDef{Tag: tag, Position: pos, Collider: col})
	if err != nil {
		return nil, err
	}
	c.Colors[b.ID] = color
	return b, nil
}
