package physics

import (
	"fmt"

	"github.com/chewxy/math32"
)

// GroundFunc returns the terrain height under (x, z). It is called from the
// integration phase and must be safe for concurrent use when workers > 1.
type GroundFunc func(x, z float32) float32

// FlatGround is a horizontal plane at height h.
func FlatGround(h float32) GroundFunc {
	return func(x, z float32) float32 { return h }
}

// Heightmap samples terrain heights on a regular XZ lattice anchored at
// (OriginX, OriginZ). Heights are row-major: Heights[row*Cols+col], rows
// along Z.
type Heightmap struct {
	OriginX, OriginZ float32
	Spacing          float32
	Cols, Rows       int
	Heights          []float32
}

// NewHeightmap validates the lattice dimensions.
func NewHeightmap(originX, originZ, spacing float32, cols, rows int, heights []float32) (*Heightmap, error) {
	if !(spacing > 0) {
		return nil, fmt.Errorf("physics: heightmap spacing must be positive, got %v", spacing)
	}
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("physics: heightmap needs at least 1x1 samples, got %dx%d", cols, rows)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("physics: heightmap expects %d samples, got %d", cols*rows, len(heights))
	}
	return &Heightmap{
		OriginX: originX,
		OriginZ: originZ,
		Spacing: spacing,
		Cols:    cols,
		Rows:    rows,
		Heights: heights,
	}, nil
}

// At bilinearly interpolates the height at (x, z), clamping to the edges.
// NaN coordinates read the origin sample.
func (h *Heightmap) At(x, z float32) float32 {
	fx := clamp((x-h.OriginX)/h.Spacing, 0, float32(h.Cols-1))
	fz := clamp((z-h.OriginZ)/h.Spacing, 0, float32(h.Rows-1))
	if math32.IsNaN(fx) {
		fx = 0
	}
	if math32.IsNaN(fz) {
		fz = 0
	}

	c0 := int(math32.Floor(fx))
	r0 := int(math32.Floor(fz))
	c1 := min(c0+1, h.Cols-1)
	r1 := min(r0+1, h.Rows-1)
	tx := fx - float32(c0)
	tz := fz - float32(r0)

	h00 := h.Heights[r0*h.Cols+c0]
	h10 := h.Heights[r0*h.Cols+c1]
	h01 := h.Heights[r1*h.Cols+c0]
	h11 := h.Heights[r1*h.Cols+c1]

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*tz
}

// Ground adapts the heightmap to a GroundFunc.
func (h *Heightmap) Ground() GroundFunc {
	return h.At
}
