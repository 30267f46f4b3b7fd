package world

import (
	"errors"
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"citysim/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Layout describes a procedurally generated grid city. Distances are meters.
type Layout struct {
	Seed          int64      `yaml:"seed"`
	BlocksX       int        `yaml:"blocks_x"`
	BlocksZ       int        `yaml:"blocks_z"`
	BlockSize     float32    `yaml:"block_size"`
	StreetWidth   float32    `yaml:"street_width"`
	SidewalkWidth float32    `yaml:"sidewalk_width"`
	CurbHeight    float32    `yaml:"curb_height"`
	CurbWidth     float32    `yaml:"curb_width"`
	LotsPerSide   int        `yaml:"lots_per_side"`
	LotGap        float32    `yaml:"lot_gap"`
	MinHeight     float32    `yaml:"min_height"`
	MaxHeight     float32    `yaml:"max_height"`
	ParkChance    float32    `yaml:"park_chance"`    // chance a lot stays empty
	LampSpacing   float32    `yaml:"lamp_spacing"`   // 0 disables lamps
	HydrantChance float32    `yaml:"hydrant_chance"` // per block
	Landmarks     []Landmark `yaml:"landmarks,omitempty"`
}

// Landmark is a hand-placed static body.
type Landmark struct {
	Name     string     `yaml:"name"`
	Shape    string     `yaml:"shape"` // box, sphere or capsule
	Position [3]float32 `yaml:"position"`
	Size     [3]float32 `yaml:"size,omitempty"` // full box size
	Radius   float32    `yaml:"radius,omitempty"`
	Height   float32    `yaml:"height,omitempty"`
	Color    string     `yaml:"color,omitempty"`
}

func (lm Landmark) collider() (physics.Collider, error) {
	var (
		col physics.Collider
		err error
	)
	switch lm.Shape {
	case "box", "":
		col, err = physics.NewBoxCollider(rl.Vector3{X: lm.Size[0] / 2, Y: lm.Size[1] / 2, Z: lm.Size[2] / 2})
	case "sphere":
		col, err = physics.NewSphereCollider(lm.Radius)
	case "capsule":
		col, err = physics.NewCapsuleCollider(lm.Radius, lm.Height)
	default:
		err = fmt.Errorf("unknown shape %q", lm.Shape)
	}
	if err != nil {
		return physics.Collider{}, fmt.Errorf("%w: landmark %q: %w", ErrInvalidLayout, lm.Name, err)
	}
	return col, nil
}

// DefaultLayout is an 8x8 block downtown.
func DefaultLayout() Layout {
	return Layout{
		Seed:          1,
		BlocksX:       8,
		BlocksZ:       8,
		BlockSize:     40,
		StreetWidth:   12,
		SidewalkWidth: 3,
		CurbHeight:    0.15,
		CurbWidth:     0.4,
		LotsPerSide:   2,
		LotGap:        2,
		MinHeight:     6,
		MaxHeight:     40,
		ParkChance:    0.15,
		LampSpacing:   10,
		HydrantChance: 0.5,
	}
}

// Validate checks that the blocks, sidewalks and lots fit inside each other.
func (l Layout) Validate() error {
	switch {
	case l.BlocksX < 1 || l.BlocksZ < 1:
		return fmt.Errorf("%w: need at least one block, got %dx%d", ErrInvalidLayout, l.BlocksX, l.BlocksZ)
	case !(l.StreetWidth > 0):
		return fmt.Errorf("%w: street_width must be positive", ErrInvalidLayout)
	case !(l.CurbHeight > 0) || !(l.CurbWidth > 0):
		return fmt.Errorf("%w: curbs need a positive height and width", ErrInvalidLayout)
	case l.SidewalkWidth < l.CurbWidth+1:
		return fmt.Errorf("%w: sidewalk_width %.2f leaves no room past the curb", ErrInvalidLayout, l.SidewalkWidth)
	case !(l.BlockSize > 2*l.SidewalkWidth):
		return fmt.Errorf("%w: block_size %.2f is smaller than two sidewalks", ErrInvalidLayout, l.BlockSize)
	case l.LotsPerSide < 1:
		return fmt.Errorf("%w: lots_per_side must be at least 1", ErrInvalidLayout)
	case l.LotGap < 0 || l.LotGap >= (l.BlockSize-2*l.SidewalkWidth)/float32(l.LotsPerSide):
		return fmt.Errorf("%w: lot_gap %.2f does not fit a lot", ErrInvalidLayout, l.LotGap)
	case !(l.MinHeight > 0) || l.MaxHeight < l.MinHeight:
		return fmt.Errorf("%w: building heights [%.1f, %.1f]", ErrInvalidLayout, l.MinHeight, l.MaxHeight)
	case l.ParkChance < 0 || l.ParkChance > 1 || l.HydrantChance < 0 || l.HydrantChance > 1:
		return fmt.Errorf("%w: chances must be in [0,1]", ErrInvalidLayout)
	case l.LampSpacing < 0:
		return fmt.Errorf("%w: lamp_spacing must not be negative", ErrInvalidLayout)
	}
	for _, lm := range l.Landmarks {
		if _, err := lm.collider(); err != nil {
			return err
		}
		for _, v := range lm.Position {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				return fmt.Errorf("%w: landmark %q position must be finite", ErrInvalidLayout, lm.Name)
			}
		}
	}
	return nil
}

// LoadLayout reads a YAML layout on top of DefaultLayout. A missing file
// yields the default city.
func LoadLayout(path string) (Layout, error) {
	l := DefaultLayout()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return l, fmt.Errorf("read layout: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return DefaultLayout(), fmt.Errorf("parse layout: %w", err)
	}
	return l, l.Validate()
}

// SaveLayout writes l as YAML.
func SaveLayout(path string, l Layout) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

// --- Color mapping ---

var colorByName = map[string]rl.Color{
	"Red":       rl.Red,
	"Blue":      rl.Blue,
	"Green":     rl.Green,
	"Purple":    rl.Purple,
	"Orange":    rl.Orange,
	"Yellow":    rl.Yellow,
	"Pink":      rl.Pink,
	"SkyBlue":   rl.SkyBlue,
	"Lime":      rl.Lime,
	"Magenta":   rl.Magenta,
	"White":     rl.White,
	"LightGray": rl.LightGray,
	"Gray":      rl.Gray,
	"DarkGray":  rl.DarkGray,
	"Black":     rl.Black,
	"Brown":     rl.Brown,
	"Beige":     rl.Beige,
	"Maroon":    rl.Maroon,
	"Gold":      rl.Gold,
}

func lookupColor(name string) rl.Color {
	if c, ok := colorByName[name]; ok {
		return c
	}
	return rl.White
}
