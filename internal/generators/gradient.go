package generators

import (
	"image"
	"image/color"
	"math"

	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Gradient draws a linear ramp between two points given in normalized frame
// coordinates. Speed scrolls the ramp along its axis, in ramps per second at
// 60 fps.
type Gradient struct {
	from, to   property.Vec2
	start, end property.RGB
	speed      float64
	local      int
}

func gradientSchema() schema.Schema {
	return schema.Schema{
		Name: "gradient",
		New: func() schema.Generator {
			return &Gradient{to: property.Vec2{1, 0}, start: property.RGB{0, 0, 0}, end: property.RGB{1, 1, 1}}
		},
		Groups: []schema.Group{
			{
				Name: "Shape",
				Properties: []schema.Property{
					{Name: "from", Type: property.TypeVec2},
					{Name: "to", Type: property.TypeVec2},
					{Name: "speed", Type: property.TypeFloat},
				},
			},
			{
				Name: "Colors",
				Properties: []schema.Property{
					{Name: "start", Type: property.TypeRGB},
					{Name: "end", Type: property.TypeRGB},
				},
			},
		},
	}
}

func (g *Gradient) Update(localTime int, props [][]property.Value) {
	g.local = localTime
	g.from = valueAt(props, 0, 0, g.from)
	g.to = valueAt(props, 0, 1, g.to)
	g.speed = float64(valueAt(props, 0, 2, property.Float(g.speed)))
	g.start = valueAt(props, 1, 0, g.start)
	g.end = valueAt(props, 1, 1, g.end)
}

// Tint returns the color at the middle of the ramp.
func (g *Gradient) Tint() color.RGBA {
	return mix(g.color(0), g.color(1), 0.5)
}

func (g *Gradient) color(t float64) color.RGBA {
	if t <= 0 {
		return rgba(g.start[0], g.start[1], g.start[2], 1)
	}
	if t >= 1 {
		return rgba(g.end[0], g.end[1], g.end[2], 1)
	}
	return mix(g.color(0), g.color(1), t)
}

// At returns the ramp parameter for the normalized point (u, v).
func (g *Gradient) At(u, v float64) float64 {
	dx, dy := g.to[0]-g.from[0], g.to[1]-g.from[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return 0
	}
	t := ((u-g.from[0])*dx + (v-g.from[1])*dy) / l2
	if g.speed != 0 {
		t += g.speed * float64(g.local) / 60
		t -= math.Floor(t)
	}
	return clamp(t, 0, 1)
}

func (g *Gradient) Draw(dst *image.RGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w == 0 || h == 0 {
		return
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		v := (float64(y-b.Min.Y) + 0.5) / h
		for x := b.Min.X; x < b.Max.X; x++ {
			u := (float64(x-b.Min.X) + 0.5) / w
			dst.SetRGBA(x, y, g.color(g.At(u, v)))
		}
	}
}
