package export

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/resolve"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

type nopGenerator struct{}

func (nopGenerator) Update(int, [][]property.Value) {}

func newNop() schema.Generator { return nopGenerator{} }

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.NewRegistry(
		schema.Schema{Name: "dot", New: newNop, Groups: []schema.Group{
			{Name: "main", Properties: []schema.Property{{Name: "size", Type: property.TypeFloat}}},
		}},
		schema.Schema{Name: "flash", New: newNop, Groups: []schema.Group{
			{Name: "main", Properties: []schema.Property{
				{Name: "intensity", Type: property.TypeFloat},
				{Name: "color", Type: property.TypeRGB},
			}},
			{Name: "link", Properties: []schema.Property{{Name: "follow", Type: property.TypeClipReference}}},
		}},
		schema.Schema{Name: "orbit", New: newNop, Groups: []schema.Group{
			{Name: "motion", Properties: []schema.Property{
				{Name: "center", Type: property.TypeVec2},
				{Name: "spin", Type: property.TypeRotation},
				{Name: "tint", Type: property.TypeRGBA},
			}},
		}},
	)
	require.NoError(t, err)
	return reg
}

func mustSchema(t *testing.T, reg *schema.Registry, name string) *schema.Schema {
	t.Helper()
	s, ok := reg.ByName(name)
	require.True(t, ok)
	return s
}

type sample struct {
	tl                 *timeline.Timeline
	flash, orbit, anim property.ClipID
	follower           property.ClipID
}

func buildSample(t *testing.T, reg *schema.Registry) sample {
	t.Helper()
	tl := timeline.New(400)
	s := sample{tl: tl}

	flash := tl.NewGeneratorClip("flash", mustSchema(t, reg, "flash"), 100)
	g, _ := flash.Generator()
	require.NoError(t, g.Set(0, 0, property.Float(0.25), false))
	require.NoError(t, g.Set(0, 1, property.RGB{0.5, 0.25, 1}, false))
	_, err := tl.AddClip(0, flash, 0)
	require.NoError(t, err)
	s.flash = flash.ID

	orbit := tl.NewGeneratorClip("orbit", mustSchema(t, reg, "orbit"), 60)
	g, _ = orbit.Generator()
	require.NoError(t, g.Set(0, 0, property.Vec2{-3, 4.5}, false))
	require.NoError(t, g.Set(0, 1, property.Rotation(property.EulerToQuat(30, 45, 10)), false))
	_, err = tl.AddClip(0, orbit, 100)
	require.NoError(t, err)
	s.orbit = orbit.ID

	anim := tl.NewAnimationClip("pulse", property.Ref(flash.ID), 60)
	a, _ := anim.Animation()
	a.Properties = []timeline.AnimatedProperty{
		{Group: 0, Property: 0, Target: &timeline.Joined{Field: curve.Field{
			LocalOffset: 10,
			Start:       property.Float(0),
			Segments: []curve.Segment{
				{Duration: 20, End: property.Float(1), Interp: curve.EaseInOut},
				{Duration: 10, End: property.Float(0.5), Interp: curve.Linear{}},
			},
		}}},
		{Group: 0, Property: 1, Target: &timeline.Separate{Fields: []curve.Field{
			{Start: property.Float(0), Segments: []curve.Segment{{Duration: 40, End: property.Float(1), Interp: curve.Linear{}}}},
			{Start: property.Float(0.5)},
			{LocalOffset: -4, Start: property.Float(1), Segments: []curve.Segment{{Duration: 8, End: property.Float(0), Interp: curve.Linear{}}}},
		}}},
	}
	_, err = tl.AddClip(1, anim, 20)
	require.NoError(t, err)
	s.anim = anim.ID

	follower := tl.NewGeneratorClip("follower", mustSchema(t, reg, "flash"), 40)
	g, _ = follower.Generator()
	require.NoError(t, g.Set(1, 0, property.Reference(property.Ref(flash.ID)), false))
	_, err = tl.AddClip(2, follower, 10)
	require.NoError(t, err)
	s.follower = follower.ID

	return s
}

func TestRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	s := buildSample(t, reg)

	data, err := Encode(s.tl)
	require.NoError(t, err)

	got, err := Decode(data, reg)
	require.NoError(t, err)
	require.NoError(t, got.Check())

	assert.Equal(t, 400, got.Duration)
	require.Len(t, got.Tracks, 3)
	assert.Equal(t, []int{0, 100}, got.Tracks[0].Starts())
	assert.Equal(t, []int{20}, got.Tracks[1].Starts())
	assert.Equal(t, []int{10}, got.Tracks[2].Starts())

	// Clip ids are list positions, track-major.
	ids := map[property.ClipID]property.ClipID{s.flash: 0, s.orbit: 1, s.anim: 2, s.follower: 3}

	follower, ok := got.Find(3)
	require.True(t, ok)
	g, _ := follower.Clip.Generator()
	d, _ := g.Default(1, 0)
	assert.Equal(t, property.Reference(property.Ref(0)), d.Value)

	orbit, _ := got.Find(1)
	g, _ = orbit.Clip.Generator()
	d, _ = g.Default(0, 1)
	want := property.EulerToQuat(30, 45, 10)
	assert.True(t, d.Value.(property.Rotation).Quat().SameRotation(want, 1e-4))

	anim, _ := got.Find(2)
	a, ok := anim.Clip.Animation()
	require.True(t, ok)
	assert.Equal(t, property.Ref(0), a.Target)
	require.Len(t, a.Properties, 2)
	joined := a.Properties[0].Target.(*timeline.Joined)
	assert.Equal(t, float64(float32(curve.EaseInOut.P1.X)), joined.Field.Segments[0].Interp.(curve.CubicBezier).P1.X)
	assert.Equal(t, -4, a.Properties[1].Target.(*timeline.Separate).Fields[2].LocalOffset)

	// Every even frame resolves to the same values.
	for frame := 0; frame < 200; frame += 2 {
		want := resolve.Resolve(s.tl, frame)
		have := resolve.Resolve(got, frame)
		require.Equal(t, want.Len(), have.Len(), "frame %d", frame)

		for _, w := range want.All() {
			h, ok := have.Get(ids[w.ID])
			require.True(t, ok, "frame %d clip %d", frame, w.ID)
			assert.Equal(t, w.LocalTime, h.LocalTime)
			for gi := range w.Groups {
				for pi := range w.Groups[gi] {
					assertValueNear(t, w.Groups[gi][pi].Value, h.Groups[gi][pi].Value, ids, "frame %d clip %d %d.%d", frame, w.ID, gi, pi)
					assert.Equal(t, w.Groups[gi][pi].TargetedBy.IsSet(), h.Groups[gi][pi].TargetedBy.IsSet())
				}
			}
		}
	}
}

func assertValueNear(t *testing.T, want, have property.Value, ids map[property.ClipID]property.ClipID, msg string, args ...any) {
	t.Helper()
	require.Equal(t, want.Type(), have.Type())
	switch w := want.(type) {
	case property.Reference:
		id, ok := w.Ref().Get()
		if ok {
			assert.Equal(t, property.Reference(property.Ref(ids[id])), have, append([]any{msg}, args...)...)
		} else {
			assert.Equal(t, w, have)
		}
	case property.Rotation:
		assert.True(t, w.Quat().SameRotation(have.(property.Rotation).Quat(), 1e-4), append([]any{msg}, args...)...)
	default:
		wf, hf := want.Fields(), have.Fields()
		for i := range wf {
			assert.InDelta(t, wf[i], hf[i], 1e-6, append([]any{msg}, args...)...)
		}
	}
}

func TestWriteRead(t *testing.T) {
	reg := testRegistry(t)
	s := buildSample(t, reg)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s.tl))
	got, err := Read(&buf, reg)
	require.NoError(t, err)
	assert.Len(t, got.Placements(), 4)
}

func TestEncodeDropsInertAnimations(t *testing.T) {
	reg := testRegistry(t)
	s := buildSample(t, reg)

	orphan := s.tl.NewAnimationClip("orphan", property.NoRef(), 10)
	_, err := s.tl.AddClip(3, orphan, 0)
	require.NoError(t, err)

	// Pin the animated intensity: only the color property survives.
	p, _ := s.tl.Find(s.flash)
	g, _ := p.Clip.Generator()
	require.NoError(t, g.Set(0, 0, property.Float(0.25), true))

	data, err := Encode(s.tl)
	require.NoError(t, err)
	got, err := Decode(data, reg)
	require.NoError(t, err)

	var anims []*timeline.AnimationSource
	for _, pl := range got.Placements() {
		if a, ok := pl.Clip.Animation(); ok {
			anims = append(anims, a)
		}
	}
	require.Len(t, anims, 1)
	require.Len(t, anims[0].Properties, 1)
	assert.Equal(t, 1, anims[0].Properties[0].Property)
}

func TestEncodeHalvesFrames(t *testing.T) {
	reg := testRegistry(t)
	tl := timeline.New(101)
	c := tl.NewGeneratorClip("dot", mustSchema(t, reg, "dot"), 5)
	_, err := tl.AddClip(0, c, 3)
	require.NoError(t, err)

	data, err := Encode(tl)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, byte(1), data[4])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[5:]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[9:]))
	assert.Equal(t, byte(0), data[13])

	got, err := Decode(data, reg)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Duration)
	assert.Equal(t, []int{2}, got.Tracks[0].Starts())
	assert.Equal(t, 6, got.Tracks[0].Clips[0].Duration)
}

// activeAt counts the generator clips playing at frame.
func activeAt(tl *timeline.Timeline, frame int) int {
	n := 0
	for _, p := range tl.Placements() {
		if _, ok := p.Clip.Generator(); ok && p.Start <= frame && frame < p.End() {
			n++
		}
	}
	return n
}

func TestEncodeKeepsShortClipsApart(t *testing.T) {
	type span struct{ track, start, duration int }
	tests := []struct {
		name  string
		clips []span
	}{
		{"one frame then odd start", []span{{0, 0, 1}, {0, 1, 2}}},
		{"overlapping tracks", []span{{0, 0, 10}, {1, 4, 4}}},
		{"adjacent even clips", []span{{0, 0, 4}, {0, 4, 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := testRegistry(t)
			dot := mustSchema(t, reg, "dot")
			tl := timeline.New(40)
			for _, c := range tt.clips {
				_, err := tl.AddClip(c.track, tl.NewGeneratorClip("dot", dot, c.duration), c.start)
				require.NoError(t, err)
			}

			data, err := Encode(tl)
			require.NoError(t, err)
			got, err := Decode(data, reg)
			require.NoError(t, err)

			assert.Len(t, got.Tracks, len(tl.Tracks))
			require.NoError(t, got.Check())
			for frame := 0; frame < tl.Duration; frame += frameScale {
				assert.Equal(t, activeAt(tl, frame), activeAt(got, frame), "frame %d", frame)
			}
		})
	}
}

func TestEncodeShiftsRunOfOneFrameClips(t *testing.T) {
	reg := testRegistry(t)
	dot := mustSchema(t, reg, "dot")
	tl := timeline.New(20)
	for start := 0; start < 3; start++ {
		_, err := tl.AddClip(0, tl.NewGeneratorClip("dot", dot, 1), start)
		require.NoError(t, err)
	}

	data, err := Encode(tl)
	require.NoError(t, err)
	got, err := Decode(data, reg)
	require.NoError(t, err)

	require.Len(t, got.Tracks, 1)
	assert.Equal(t, []int{0, 2, 4}, got.Tracks[0].Starts())
	for frame := 0; frame < got.Duration; frame++ {
		assert.LessOrEqual(t, activeAt(got, frame), 1, "frame %d", frame)
	}
}

func TestEncodeSeparateScalarsUseX(t *testing.T) {
	reg := testRegistry(t)
	tl := timeline.New(100)
	orbit := tl.NewGeneratorClip("orbit", mustSchema(t, reg, "orbit"), 50)
	_, err := tl.AddClip(0, orbit, 0)
	require.NoError(t, err)

	anim := tl.NewAnimationClip("center", orbit.Ref(), 50)
	a, _ := anim.Animation()
	a.Properties = []timeline.AnimatedProperty{
		{Group: 0, Property: 0, Target: &timeline.Separate{Fields: []curve.Field{
			{Start: property.Float(2)},
			{Start: property.Float(3)},
		}}},
	}
	_, err = tl.AddClip(1, anim, 0)
	require.NoError(t, err)

	data, err := Encode(tl)
	require.NoError(t, err)
	d := &decoder{r: reader{data: data, name: "header"}, reg: reg}
	require.NoError(t, d.decode())

	// orbit defaults: vec2 + euler + rgba, then both center fields in x.
	var lens []int
	for i := range d.streams {
		lens = append(lens, len(d.streams[i].data))
	}
	assert.Equal(t, []int{5 * 4, 3 * 4, 2 * 4, 1 * 4}, lens)

	got, err := d.build()
	require.NoError(t, err)
	p, ok := got.Find(1)
	require.True(t, ok)
	ga, _ := p.Clip.Animation()
	sep := ga.Properties[0].Target.(*timeline.Separate)
	assert.Equal(t, property.Float(2), sep.Fields[0].Start)
	assert.Equal(t, property.Float(3), sep.Fields[1].Start)
}

func TestEncodeTooLarge(t *testing.T) {
	reg := testRegistry(t)
	dot := mustSchema(t, reg, "dot")
	tl := timeline.New(1000)
	for i := 0; i < 256; i++ {
		_, err := tl.AddClip(0, tl.NewGeneratorClip("dot", dot, 2), i*2)
		require.NoError(t, err)
	}

	_, err := Encode(tl)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, ok := tl.Tracks[0].Remove(0)
	require.True(t, ok)
	_, err = Encode(tl)
	assert.NoError(t, err)
}

func TestDecodeTruncated(t *testing.T) {
	reg := testRegistry(t)
	data, err := Encode(buildSample(t, reg).tl)
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		_, err := Decode(data[:n], reg)
		require.ErrorIs(t, err, ErrMalformedStream, "prefix %d", n)
	}
}

func le32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func f32(b []byte, v float32) []byte {
	return le32(b, math.Float32bits(v))
}

// rawDot encodes a single clip of the given type with x as its only stream.
func rawDot(typ byte, x []byte) []byte {
	var b []byte
	b = le32(b, 50)
	b = append(b, 1)
	b = le32(b, 0)
	b = le32(b, 10)
	b = append(b, typ)
	b = append(b, 0, 0, 0, 0)
	b = le32(b, uint32(len(x)))
	b = append(b, x...)
	for i := 0; i < 3; i++ {
		b = le32(b, 0)
	}
	return b
}

func TestDecodeHandBuilt(t *testing.T) {
	reg := testRegistry(t)

	got, err := Decode(rawDot(0, f32(nil, 0.5)), reg)
	require.NoError(t, err)
	p, ok := got.Find(0)
	require.True(t, ok)
	assert.Equal(t, 20, p.Clip.Duration)
	g, _ := p.Clip.Generator()
	d, _ := g.Default(0, 0)
	assert.Equal(t, property.Float(0.5), d.Value)

	bad := map[string][]byte{
		"unknown schema":         rawDot(9, f32(nil, 0.5)),
		"missing value":          rawDot(0, nil),
		"unread stream bytes":    rawDot(0, f32(f32(nil, 0.5), 1)),
		"animation without data": rawDot(typeAnimation, nil),
		"empty":                  nil,
	}
	for name, data := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data, reg)
			assert.ErrorIs(t, err, ErrMalformedStream)
		})
	}
}

// rawFlash encodes a single flash clip whose follow reference is ref.
func rawFlash(ref byte) []byte {
	var x []byte
	x = f32(x, 0.1)    // intensity
	x = f32(x, 1)      // color r
	x = append(x, ref) // follow
	one := f32(nil, 1)

	var b []byte
	b = le32(b, 50)
	b = append(b, 1)
	b = le32(b, 0)
	b = le32(b, 10)
	b = append(b, 1)
	b = append(b, 0, 0, 0, 0)
	for _, stream := range [][]byte{x, one, one, nil} {
		b = le32(b, uint32(len(stream)))
		b = append(b, stream...)
	}
	return b
}

func TestDecodeBadReference(t *testing.T) {
	reg := testRegistry(t)

	_, err := Decode(rawFlash(7), reg)
	assert.ErrorIs(t, err, ErrMalformedStream)

	got, err := Decode(rawFlash(0), reg)
	require.NoError(t, err)
	p, _ := got.Find(0)
	g, _ := p.Clip.Generator()
	d, _ := g.Default(1, 0)
	assert.Equal(t, property.Reference(property.Ref(0)), d.Value)

	got, err = Decode(rawFlash(noClip), reg)
	require.NoError(t, err)
	p, _ = got.Find(0)
	g, _ = p.Clip.Generator()
	d, _ = g.Default(1, 0)
	assert.Equal(t, property.Reference(property.NoRef()), d.Value)
}
