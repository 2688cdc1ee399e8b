package generators

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Backdrop fills the frame with a single color.
type Backdrop struct {
	color property.RGBA
	fade  float64
}

func backdropSchema() schema.Schema {
	return schema.Schema{
		Name: "backdrop",
		New:  func() schema.Generator { return &Backdrop{color: property.RGBA{0, 0, 0, 1}} },
		Groups: []schema.Group{{
			Name: "Surface",
			Properties: []schema.Property{
				{Name: "color", Type: property.TypeRGBA},
				{Name: "fade", Type: property.TypeFloat},
			},
		}},
	}
}

func (b *Backdrop) Update(_ int, props [][]property.Value) {
	b.color = valueAt(props, 0, 0, b.color)
	b.fade = float64(valueAt(props, 0, 1, property.Float(b.fade)))
}

// Tint returns the fill color with fade applied.
func (b *Backdrop) Tint() color.RGBA {
	k := 1 - clamp(b.fade, 0, 1)
	return rgba(b.color[0]*k, b.color[1]*k, b.color[2]*k, b.color[3])
}

func (b *Backdrop) Draw(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(b.Tint()), image.Point{}, draw.Over)
}
