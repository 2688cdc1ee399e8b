package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

type nopGenerator struct{}

func (nopGenerator) Update(int, [][]property.Value) {}

func flashSchema(t *testing.T) *schema.Schema {
	t.Helper()
	reg, err := schema.NewRegistry(schema.Schema{
		Name: "flash",
		New:  func() schema.Generator { return nopGenerator{} },
		Groups: []schema.Group{
			{Name: "main", Properties: []schema.Property{
				{Name: "intensity", Type: property.TypeFloat},
				{Name: "color", Type: property.TypeRGB},
			}},
			{Name: "link", Properties: []schema.Property{
				{Name: "follow", Type: property.TypeClipReference},
			}},
		},
	})
	require.NoError(t, err)
	s, _ := reg.ByIndex(0)
	return s
}

func ramp(from, to float64, duration int) curve.Field {
	return curve.Field{
		Start:    property.Float(from),
		Segments: []curve.Segment{{Duration: duration, End: property.Float(to), Interp: curve.Linear{}}},
	}
}

type fixture struct {
	tl  *timeline.Timeline
	gen property.ClipID
}

// newFixture places a 100-frame flash clip at frame 10 on track 0.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	tl := timeline.New(1000)
	c := tl.NewGeneratorClip("flash", flashSchema(t), 100)
	g, _ := c.Generator()
	require.NoError(t, g.Set(0, 0, property.Float(0.25), false))
	_, err := tl.AddClip(0, c, 10)
	require.NoError(t, err)
	return &fixture{tl: tl, gen: c.ID}
}

func (f *fixture) animate(t *testing.T, track, start, duration int, target property.ClipRef, props ...timeline.AnimatedProperty) property.ClipID {
	t.Helper()
	c := f.tl.NewAnimationClip("anim", target, duration)
	a, _ := c.Animation()
	a.Properties = props
	_, err := f.tl.AddClip(track, c, start)
	require.NoError(t, err)
	return c.ID
}

func intensity(field curve.Field) timeline.AnimatedProperty {
	return timeline.AnimatedProperty{Group: 0, Property: 0, Target: &timeline.Joined{Field: field}}
}

func TestResolveSeedsDefaults(t *testing.T) {
	f := newFixture(t)

	m := Resolve(f.tl, 30)
	require.Equal(t, 1, m.Len())
	a, ok := m.Get(f.gen)
	require.True(t, ok)

	assert.Equal(t, 20, a.LocalTime)
	assert.Equal(t, property.Float(0.25), a.Groups[0][0].Value)
	assert.Equal(t, property.RGB{1, 1, 1}, a.Groups[0][1].Value)
	assert.Equal(t, property.Reference{}, a.Groups[1][0].Value)
	assert.False(t, a.Groups[0][0].Overridden)
	assert.False(t, a.Groups[0][0].TargetedBy.IsSet())

	assert.Equal(t, [][]property.Value{
		{property.Float(0.25), property.RGB{1, 1, 1}},
		{property.Reference{}},
	}, a.Values())
}

func TestResolveOutsideClip(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, 0, Resolve(f.tl, 9).Len())
	assert.Equal(t, 1, Resolve(f.tl, 10).Len())
	assert.Equal(t, 1, Resolve(f.tl, 109).Len())
	assert.Equal(t, 0, Resolve(f.tl, 110).Len())
}

func TestResolveAppliesAnimation(t *testing.T) {
	f := newFixture(t)
	anim := f.animate(t, 1, 20, 40, property.Ref(f.gen), intensity(ramp(0, 1, 20)))

	tests := []struct {
		frame int
		want  property.Value
	}{
		{20, property.Float(0)},
		{30, property.Float(0.5)},
		{40, property.Float(1)},
		{59, property.Float(1)},
		{60, property.Float(0.25)},
	}
	for _, tt := range tests {
		a, ok := Resolve(f.tl, tt.frame).Get(f.gen)
		require.True(t, ok)
		cv := a.Groups[0][0]
		assert.Equal(t, tt.want, cv.Value, "frame %d", tt.frame)
		if tt.frame < 60 {
			id, set := cv.TargetedBy.Get()
			assert.True(t, set)
			assert.Equal(t, anim, id)
		} else {
			assert.False(t, cv.TargetedBy.IsSet())
		}
	}
}

func TestResolveHonorsOverride(t *testing.T) {
	f := newFixture(t)
	p, _ := f.tl.Find(f.gen)
	g, _ := p.Clip.Generator()
	require.NoError(t, g.Set(0, 0, property.Float(0.9), true))

	f.animate(t, 1, 10, 50, property.Ref(f.gen), intensity(ramp(0, 1, 10)))

	a, _ := Resolve(f.tl, 30).Get(f.gen)
	cv := a.Groups[0][0]
	assert.Equal(t, property.Float(0.9), cv.Value)
	assert.True(t, cv.Overridden)
	assert.False(t, cv.TargetedBy.IsSet())

	other := a.Groups[0][1]
	assert.False(t, other.Overridden)
}

func TestResolveInertAnimations(t *testing.T) {
	tests := map[string]struct {
		target property.ClipRef
		prop   timeline.AnimatedProperty
	}{
		"no target": {
			target: property.NoRef(),
			prop:   intensity(ramp(0, 1, 10)),
		},
		"dangling target": {
			target: property.Ref(999),
			prop:   intensity(ramp(0, 1, 10)),
		},
		"group out of range": {
			prop: timeline.AnimatedProperty{Group: 7, Property: 0, Target: &timeline.Joined{Field: ramp(0, 1, 10)}},
		},
		"property out of range": {
			prop: timeline.AnimatedProperty{Group: 0, Property: 9, Target: &timeline.Joined{Field: ramp(0, 1, 10)}},
		},
		"type mismatch": {
			prop: timeline.AnimatedProperty{Group: 0, Property: 1, Target: &timeline.Joined{Field: ramp(0, 1, 10)}},
		},
		"separate arity shortfall": {
			prop: timeline.AnimatedProperty{Group: 0, Property: 1, Target: &timeline.Separate{Fields: []curve.Field{ramp(0, 1, 10)}}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			target := tt.target
			if name != "no target" && name != "dangling target" {
				target = property.Ref(f.gen)
			}
			f.animate(t, 1, 10, 50, target, tt.prop)

			a, ok := Resolve(f.tl, 20).Get(f.gen)
			require.True(t, ok)
			for _, group := range a.Groups {
				for _, cv := range group {
					assert.False(t, cv.TargetedBy.IsSet())
				}
			}
			assert.Equal(t, property.Float(0.25), a.Groups[0][0].Value)
			assert.Equal(t, property.RGB{1, 1, 1}, a.Groups[0][1].Value)
		})
	}
}

func TestResolveTargetNotActive(t *testing.T) {
	f := newFixture(t)
	f.animate(t, 1, 200, 50, property.Ref(f.gen), intensity(ramp(0, 1, 10)))

	m := Resolve(f.tl, 210)
	assert.Equal(t, 0, m.Len())
}

func TestResolveSeparateFields(t *testing.T) {
	f := newFixture(t)
	color := timeline.AnimatedProperty{
		Group:    0,
		Property: 1,
		Target: &timeline.Separate{Fields: []curve.Field{
			ramp(0, 1, 10),
			{Start: property.Float(0.5)},
			ramp(1, 0, 10),
		}},
	}
	f.animate(t, 1, 10, 50, property.Ref(f.gen), color)

	a, _ := Resolve(f.tl, 15).Get(f.gen)
	assert.Equal(t, property.RGB{0.5, 0.5, 0.5}, a.Groups[0][1].Value)
}

func TestResolveLastAnimationWins(t *testing.T) {
	f := newFixture(t)
	first := f.animate(t, 1, 10, 50, property.Ref(f.gen), intensity(curve.Field{Start: property.Float(0.1)}))
	second := f.animate(t, 2, 10, 50, property.Ref(f.gen), intensity(curve.Field{Start: property.Float(0.7)}))

	a, _ := Resolve(f.tl, 20).Get(f.gen)
	cv := a.Groups[0][0]
	assert.Equal(t, property.Float(0.7), cv.Value)
	id, _ := cv.TargetedBy.Get()
	assert.Equal(t, second, id)

	// Swap track order: the first animation now comes last.
	f.tl.Tracks[1], f.tl.Tracks[2] = f.tl.Tracks[2], f.tl.Tracks[1]
	a, _ = Resolve(f.tl, 20).Get(f.gen)
	cv = a.Groups[0][0]
	assert.Equal(t, property.Float(0.1), cv.Value)
	id, _ = cv.TargetedBy.Get()
	assert.Equal(t, first, id)
}

func TestResolveAnimationAboveTarget(t *testing.T) {
	tl := timeline.New(1000)
	anim := tl.NewAnimationClip("anim", property.NoRef(), 50)
	_, err := tl.AddClip(0, anim, 0)
	require.NoError(t, err)

	gen := tl.NewGeneratorClip("flash", flashSchema(t), 50)
	_, err = tl.AddClip(1, gen, 0)
	require.NoError(t, err)

	p, _ := tl.Find(anim.ID)
	a, _ := p.Clip.Animation()
	a.Target = property.Ref(gen.ID)
	a.Properties = []timeline.AnimatedProperty{intensity(curve.Field{Start: property.Float(0.3)})}

	active, ok := Resolve(tl, 5).Get(gen.ID)
	require.True(t, ok)
	assert.Equal(t, property.Float(0.3), active.Groups[0][0].Value)
}

func TestResolveDoesNotMutateTimeline(t *testing.T) {
	f := newFixture(t)
	f.animate(t, 1, 10, 50, property.Ref(f.gen), intensity(ramp(0, 1, 10)))

	Resolve(f.tl, 15)
	p, _ := f.tl.Find(f.gen)
	g, _ := p.Clip.Generator()
	d, _ := g.Default(0, 0)
	assert.Equal(t, property.Float(0.25), d.Value)
}
