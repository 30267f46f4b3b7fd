// Package minimap draws a top-down snapshot of a physics.World: static
// footprints, dynamic bodies and optionally broad-phase cell occupancy.
package minimap

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"citysim/internal/physics"
)

var (
	Background  = color.RGBA{24, 24, 30, 255}
	StaticColor = color.RGBA{150, 150, 150, 255}
	DynamicFill = color.RGBA{255, 149, 0, 255}
)

// Options controls a render.
type Options struct {
	Size     int          // edge length in pixels, default 512
	Extent   physics.AABB // world area shown; zero means fit every body
	ShowGrid bool         // shade grid cells by how many bodies they hold

	// Color overrides the fill of a body. nil uses StaticColor/DynamicFill.
	Color func(*physics.Body) color.Color
}

// Render draws w from above. North (-Z) is up.
func Render(w *physics.World, opts Options) image.Image {
	size := opts.Size
	if size <= 0 {
		size = 512
	}
	bodies := w.Bodies()
	extent := opts.Extent
	if extent == (physics.AABB{}) {
		extent = fit(bodies)
	}

	spanX := float64(extent.Max.X - extent.Min.X)
	spanZ := float64(extent.Max.Z - extent.Min.Z)
	scale := float64(size) / math.Max(math.Max(spanX, spanZ), 1)
	toPx := func(x, z float32) (float64, float64) {
		return float64(x-extent.Min.X) * scale, float64(z-extent.Min.Z) * scale
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(Background)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	if opts.ShowGrid {
		cell := float64(w.Grid().Size())
		for key, n := range w.Grid().Occupancy() {
			x := (float64(key.X)*cell - float64(extent.Min.X)) * scale
			y := (float64(key.Z)*cell - float64(extent.Min.Z)) * scale
			alpha := uint8(math.Min(40+float64(n)*20, 200))
			dc.SetColor(color.RGBA{40, 90, 160, alpha})
			dc.DrawRectangle(x, y, cell*scale, cell*scale)
			dc.Fill()
		}
	}

	// Statics first so dynamics stay visible on top
	for _, static := range []bool{true, false} {
		for _, b := range bodies {
			if b.IsStatic != static {
				continue
			}
			dc.SetColor(fill(opts, b))
			x, y := toPx(b.Position.X, b.Position.Z)
			if b.Collider.Kind == physics.ShapeBox {
				half := b.Collider.HalfExtents
				dc.DrawRectangle(x-float64(half.X)*scale, y-float64(half.Z)*scale,
					float64(2*half.X)*scale, float64(2*half.Z)*scale)
			} else {
				dc.DrawCircle(x, y, math.Max(float64(b.Collider.Radius)*scale, 1))
			}
			dc.Fill()
			if !static {
				dc.SetColor(color.White)
				dc.SetLineWidth(1)
				dc.DrawCircle(x, y, math.Max(float64(b.Collider.BoundingRadius())*scale, 2))
				dc.Stroke()
			}
		}
	}
	return dc.Image()
}

// SavePNG renders w and writes it to path.
func SavePNG(path string, w *physics.World, opts Options) error {
	return gg.SavePNG(path, Render(w, opts))
}

func fill(opts Options, b *physics.Body) color.Color {
	if opts.Color != nil {
		if c := opts.Color(b); c != nil {
			return c
		}
	}
	if b.IsStatic {
		return StaticColor
	}
	return DynamicFill
}

// fit returns the XZ bounds of all bodies with a small border.
func fit(bodies []*physics.Body) physics.AABB {
	if len(bodies) == 0 {
		return physics.AABB{}.Expand(10)
	}
	box := bodies[0].Bounds()
	for _, b := range bodies[1:] {
		bb := b.Bounds()
		box.Min.X = min(box.Min.X, bb.Min.X)
		box.Min.Z = min(box.Min.Z, bb.Min.Z)
		box.Max.X = max(box.Max.X, bb.Max.X)
		box.Max.Z = max(box.Max.Z, bb.Max.Z)
	}
	return box.Expand(5)
}
