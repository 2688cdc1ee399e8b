package generators

import (
	"image"
	"image/color"
	"math"

	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Tiles draws a rotated checkerboard inside a normalized rectangle. When it
// follows another clip it paints with that clip's tint.
type Tiles struct {
	grid   property.Vec3 // columns, rows, gap fraction
	bounds property.Vec4 // x, y, w, h; zero size means the whole frame
	angle  property.Rotation
	follow property.ClipRef
	color  property.RGB

	tint     color.RGBA
	followed bool
}

func tilesSchema() schema.Schema {
	return schema.Schema{
		Name: "tiles",
		New: func() schema.Generator {
			return &Tiles{
				grid:  property.Vec3{8, 8, 0},
				angle: property.Rotation(property.IdentityQuat()),
				color: property.RGB{1, 1, 1},
			}
		},
		Groups: []schema.Group{
			{
				Name: "Layout",
				Properties: []schema.Property{
					{Name: "grid", Type: property.TypeVec3},
					{Name: "bounds", Type: property.TypeVec4},
					{Name: "angle", Type: property.TypeRotation},
				},
			},
			{
				Name: "Paint",
				Properties: []schema.Property{
					{Name: "follow", Type: property.TypeClipReference},
					{Name: "color", Type: property.TypeRGB},
				},
			},
		},
	}
}

func (t *Tiles) Update(_ int, props [][]property.Value) {
	t.grid = valueAt(props, 0, 0, t.grid)
	t.bounds = valueAt(props, 0, 1, t.bounds)
	t.angle = valueAt(props, 0, 2, t.angle)
	t.follow = valueAt(props, 1, 0, property.Reference(t.follow)).Ref()
	t.color = valueAt(props, 1, 1, t.color)
	t.followed = false
}

func (t *Tiles) Follows() property.ClipRef {
	return t.follow
}

func (t *Tiles) Follow(tint color.RGBA) {
	t.tint = tint
	t.followed = true
}

// Tint returns the paint color.
func (t *Tiles) Tint() color.RGBA {
	if t.followed {
		return t.tint
	}
	return rgba(t.color[0], t.color[1], t.color[2], 1)
}

// Cell reports whether the normalized point (u, v) lies on a painted tile.
func (t *Tiles) Cell(u, v float64) bool {
	bx, by, bw, bh := t.bounds[0], t.bounds[1], t.bounds[2], t.bounds[3]
	if bw <= 0 || bh <= 0 {
		bx, by, bw, bh = 0, 0, 1, 1
	}
	if u < bx || u >= bx+bw || v < by || v >= by+bh {
		return false
	}

	_, _, rz := property.Quat(t.angle).Euler()
	sin, cos := math.Sincos(rz * math.Pi / 180)
	cx, cy := bx+bw/2, by+bh/2
	lu := ((u-cx)*cos+(v-cy)*sin)/bw + 0.5
	lv := (-(u-cx)*sin+(v-cy)*cos)/bh + 0.5

	cols := math.Max(1, math.Round(t.grid[0]))
	rows := math.Max(1, math.Round(t.grid[1]))
	gap := clamp(t.grid[2], 0, 0.49)

	fx, fy := lu*cols, lv*rows
	ix, iy := math.Floor(fx), math.Floor(fy)
	if fx-ix < gap || fy-iy < gap {
		return false
	}
	return int(ix+iy)%2 == 0
}

func (t *Tiles) Draw(dst *image.RGBA) {
	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w == 0 || h == 0 {
		return
	}
	c := t.Tint()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		v := (float64(y-b.Min.Y) + 0.5) / h
		for x := b.Min.X; x < b.Max.X; x++ {
			if t.Cell((float64(x-b.Min.X)+0.5)/w, v) {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}
