package generators

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoseq/internal/property"
)

func TestRegistry_CoversEveryType(t *testing.T) {
	reg, err := Registry()
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	seen := make(map[property.Type]bool)
	for _, s := range reg.All() {
		for _, g := range s.Groups {
			for _, p := range g.Properties {
				seen[p.Type] = true
			}
		}
		assert.NotNil(t, s.New(), s.Name)
	}
	for typ := property.TypeFloat; typ <= property.TypeClipReference; typ++ {
		assert.True(t, seen[typ], "no built-in property of type %s", typ)
	}

	s, ok := reg.ByName("Tiles")
	require.True(t, ok)
	assert.Equal(t, 2, s.Index())
}

func TestBackdrop(t *testing.T) {
	b := backdropSchema().New().(*Backdrop)
	b.Update(0, [][]property.Value{{property.RGBA{1, 0, 0, 1}, property.Float(0.5)}})

	assert.Equal(t, color.RGBA{R: 128, A: 255}, b.Tint())

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b.Draw(dst)
	assert.Equal(t, color.RGBA{R: 128, A: 255}, dst.RGBAAt(3, 3))
}

func TestBackdrop_IgnoresMistypedValues(t *testing.T) {
	b := backdropSchema().New().(*Backdrop)
	b.Update(0, [][]property.Value{{property.Float(1)}})
	assert.Equal(t, color.RGBA{A: 255}, b.Tint())
	b.Update(0, nil)
	assert.Equal(t, color.RGBA{A: 255}, b.Tint())
}

func TestGradient(t *testing.T) {
	g := gradientSchema().New().(*Gradient)
	g.Update(0, [][]property.Value{
		{property.Vec2{0, 0}, property.Vec2{1, 0}, property.Float(0)},
		{property.RGB{0, 0, 0}, property.RGB{1, 1, 1}},
	})

	assert.InDelta(t, 0.0, g.At(0, 0.3), 1e-9)
	assert.InDelta(t, 0.5, g.At(0.5, 0.9), 1e-9)
	assert.InDelta(t, 1.0, g.At(2, 0), 1e-9)

	dst := image.NewRGBA(image.Rect(0, 0, 10, 1))
	g.Draw(dst)
	assert.Less(t, dst.RGBAAt(0, 0).R, dst.RGBAAt(9, 0).R)
}

func TestGradient_Scrolls(t *testing.T) {
	g := gradientSchema().New().(*Gradient)
	props := [][]property.Value{{property.Vec2{0, 0}, property.Vec2{1, 0}, property.Float(1)}}

	g.Update(0, props)
	assert.InDelta(t, 0.25, g.At(0.25, 0), 1e-9)
	g.Update(30, props)
	assert.InDelta(t, 0.75, g.At(0.25, 0), 1e-9)
	g.Update(45, props)
	assert.InDelta(t, 0.0, g.At(0.25, 0), 1e-9)
}

func TestTiles_Cells(t *testing.T) {
	tl := tilesSchema().New().(*Tiles)
	tl.Update(0, [][]property.Value{
		{property.Vec3{2, 2, 0}, property.Vec4{}, property.Rotation(property.IdentityQuat())},
		{property.Reference(property.NoRef()), property.RGB{0, 1, 0}},
	})

	assert.True(t, tl.Cell(0.25, 0.25))
	assert.False(t, tl.Cell(0.75, 0.25))
	assert.False(t, tl.Cell(0.25, 0.75))
	assert.True(t, tl.Cell(0.75, 0.75))
}

func TestTiles_BoundsAndGap(t *testing.T) {
	tl := tilesSchema().New().(*Tiles)
	tl.Update(0, [][]property.Value{
		{property.Vec3{1, 1, 0.25}, property.Vec4{0.5, 0.5, 0.5, 0.5}},
	})

	assert.False(t, tl.Cell(0.25, 0.25), "outside bounds")
	assert.False(t, tl.Cell(0.52, 0.52), "in the gap")
	assert.True(t, tl.Cell(0.8, 0.8))
}

func TestTiles_Follow(t *testing.T) {
	tl := tilesSchema().New().(*Tiles)
	tl.Update(0, [][]property.Value{
		{},
		{property.Reference(property.Ref(7)), property.RGB{0, 0, 1}},
	})

	id, ok := tl.Follows().Get()
	require.True(t, ok)
	assert.Equal(t, property.ClipID(7), id)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, tl.Tint())

	tl.Follow(color.RGBA{R: 10, A: 255})
	assert.Equal(t, color.RGBA{R: 10, A: 255}, tl.Tint())

	tl.Update(1, nil)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, tl.Tint(), "follow lasts one frame")
}

func TestTiles_Draw(t *testing.T) {
	tl := tilesSchema().New().(*Tiles)
	tl.Update(0, [][]property.Value{{property.Vec3{2, 1, 0}}})

	dst := image.NewRGBA(image.Rect(0, 0, 4, 2))
	tl.Draw(dst)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, dst.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(3, 0))
}
