// Package generators holds the built-in preview generators and the
// registry the CLI starts with.
package generators

import (
	"image"
	"image/color"
	"math"

	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Drawer is implemented by generators that rasterise into a frame.
type Drawer interface {
	Draw(dst *image.RGBA)
}

// Tinter reports a generator's dominant color.
type Tinter interface {
	Tint() color.RGBA
}

// Follower is implemented by generators that borrow state from another
// clip. Follows names that clip; Follow hands over its tint.
type Follower interface {
	Follows() property.ClipRef
	Follow(tint color.RGBA)
}

// Schemas returns the built-in schemas in registry order.
func Schemas() []schema.Schema {
	return []schema.Schema{backdropSchema(), gradientSchema(), tilesSchema()}
}

// Registry builds the default registry.
func Registry() (*schema.Registry, error) {
	return schema.NewRegistry(Schemas()...)
}

// valueAt returns props[g][p] when it holds a T, otherwise def.
func valueAt[T property.Value](props [][]property.Value, g, p int, def T) T {
	if g < 0 || g >= len(props) || p < 0 || p >= len(props[g]) {
		return def
	}
	if v, ok := props[g][p].(T); ok {
		return v
	}
	return def
}

func toByte(x float64) uint8 {
	return uint8(math.Round(clamp(x, 0, 1) * 255))
}

func rgba(r, g, b, a float64) color.RGBA {
	// color.RGBA is alpha-premultiplied.
	a = clamp(a, 0, 1)
	return color.RGBA{R: toByte(r * a), G: toByte(g * a), B: toByte(b * a), A: toByte(a)}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	l := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-t) + float64(y)*t))
	}
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}
