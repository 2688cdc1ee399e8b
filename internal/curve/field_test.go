package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoseq/internal/property"
)

func TestFieldValueAtLinear(t *testing.T) {
	f := Field{
		LocalOffset: 10,
		Start:       property.Float(0),
		Segments: []Segment{
			{Duration: 20, End: property.Float(10), Interp: Linear{}},
		},
	}

	tests := []struct {
		frame float64
		want  property.Value
	}{
		{0, property.Float(0)},
		{10, property.Float(0)},
		{20, property.Float(5)},
		{30, property.Float(10)},
		{35, property.Float(10)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, f.ValueAt(tt.frame), "frame %.0f", tt.frame)
	}
}

func TestFieldNoSegmentsHoldsStart(t *testing.T) {
	f := Field{LocalOffset: -5, Start: property.Vec2{1, 2}}
	assert.Equal(t, property.Vec2{1, 2}, f.ValueAt(100))
	assert.Equal(t, property.Vec2{1, 2}, f.EndValue())
	assert.Equal(t, -5, f.Span())
}

func TestFieldZeroDurationSegmentJumps(t *testing.T) {
	f := Field{
		Start: property.Float(1),
		Segments: []Segment{
			{Duration: 0, End: property.Float(7), Interp: Linear{}},
			{Duration: 10, End: property.Float(17), Interp: Linear{}},
		},
	}
	assert.InDelta(t, 7.5, float64(f.ValueAt(0.5).(property.Float)), 1e-12)
	assert.Equal(t, property.Float(12), f.ValueAt(5))
}

func TestFieldContinuityAtBoundaries(t *testing.T) {
	interps := map[string]Interpolation{
		"linear":    Linear{},
		"bezier":    EaseInOut,
		"overshoot": CubicBezier{P1: Point{X: 0.3, Y: -0.6}, P2: Point{X: 0.7, Y: 1.6}},
	}

	for name, interp := range interps {
		t.Run(name, func(t *testing.T) {
			f := Field{
				LocalOffset: 4,
				Start:       property.Vec3{0.1, 0.2, 0.3},
				Segments: []Segment{
					{Duration: 7, End: property.Vec3{1.7, -2.3, 0.9}, Interp: interp},
					{Duration: 13, End: property.Vec3{-0.4, 5.5, 3.3}, Interp: interp},
					{Duration: 3, End: property.Vec3{2, 2, 2}, Interp: interp},
				},
			}

			from := f.Start
			boundary := float64(f.LocalOffset)
			for i := 0; i < len(f.Segments)-1; i++ {
				boundary += float64(f.Segments[i].Duration)
				left := SegmentValue(from, f.Segments[i], 1)
				right := SegmentValue(f.Segments[i].End, f.Segments[i+1], 0)

				assert.Equal(t, left, right, "boundary %d", i)
				assert.Equal(t, left, f.ValueAt(boundary), "boundary %d", i)
				from = f.Segments[i].End
			}
		})
	}
}

func TestFieldBezierEasing(t *testing.T) {
	f := Field{
		Start: property.Float(0),
		Segments: []Segment{
			{Duration: 100, End: property.Float(1), Interp: EaseInOut},
		},
	}

	mid := float64(f.ValueAt(50).(property.Float))
	assert.InDelta(t, 0.5, mid, 1e-6)

	early := float64(f.ValueAt(10).(property.Float))
	assert.Less(t, early, 0.1, "ease-in starts slower than linear")

	prev := -1.0
	for frame := 0; frame <= 100; frame++ {
		v := float64(f.ValueAt(float64(frame)).(property.Float))
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestCubicBezierLinearControlPoints(t *testing.T) {
	c := CubicBezier{P1: Point{X: 1.0 / 3, Y: 1.0 / 3}, P2: Point{X: 2.0 / 3, Y: 2.0 / 3}}
	for _, x := range []float64{0.05, 0.25, 0.5, 0.8, 0.99} {
		assert.InDelta(t, x, c.Blend(x), 1e-6)
	}
	assert.Equal(t, 0.0, c.Blend(0))
	assert.Equal(t, 1.0, c.Blend(1))
}

func TestCubicBezierFlatControlPoints(t *testing.T) {
	// Zero slope at both ends stresses the Newton step.
	c := CubicBezier{P1: Point{X: 0, Y: 0}, P2: Point{X: 1, Y: 1}}
	for _, x := range []float64{0.001, 0.5, 0.999} {
		u := c.solveX(x)
		assert.InDelta(t, x, bezier1D(0, 1, u), 1e-6)
	}
}

func TestFieldShiftAndSpan(t *testing.T) {
	f := Field{
		LocalOffset: 10,
		Start:       property.Float(0),
		Segments:    []Segment{{Duration: 5, End: property.Float(1)}, {Duration: 5, End: property.Float(2)}},
	}
	assert.Equal(t, 20, f.Span())

	f.Shift(-4)
	assert.Equal(t, 6, f.LocalOffset)
	assert.Equal(t, 16, f.Span())
	assert.Equal(t, property.Float(0), f.ValueAt(6))
	assert.Equal(t, property.Float(1), f.ValueAt(11))
}

func TestFieldValidate(t *testing.T) {
	good := Field{Start: property.Float(0), Segments: []Segment{{Duration: 3, End: property.Float(1), Interp: Linear{}}}}
	require.NoError(t, good.Validate())

	bad := []Field{
		{},
		{Start: property.Float(0), Segments: []Segment{{Duration: -1, End: property.Float(1)}}},
		{Start: property.Float(0), Segments: []Segment{{Duration: 1, End: property.Vec2{}}}},
		{Start: property.Float(0), Segments: []Segment{{Duration: 1, End: property.Float(1), Interp: CubicBezier{P1: Point{X: 2}}}}},
	}
	for i, f := range bad {
		assert.Error(t, f.Validate(), "case %d", i)
	}
}

func TestFieldCloneDoesNotAlias(t *testing.T) {
	f := Field{Start: property.Float(0), Segments: []Segment{{Duration: 3, End: property.Float(1)}}}
	c := f.Clone()
	c.Segments[0].Duration = 99
	assert.Equal(t, 3, f.Segments[0].Duration)
}
