package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

// Read decodes a timeline from r.
func Read(r io.Reader, reg *schema.Registry) (*timeline.Timeline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("export: read: %w", err)
	}
	return Decode(data, reg)
}

// Decode rebuilds a timeline from its binary form. Clip ids are the clip
// list positions. Clips are laid out on tracks in list order, opening a new
// track whenever a clip starts before the previous one has ended.
func Decode(data []byte, reg *schema.Registry) (*timeline.Timeline, error) {
	d := &decoder{r: reader{data: data, name: "header"}, reg: reg}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.build()
}

// reader is a bounds-checked cursor. The first failure sticks and every
// later read returns zero.
type reader struct {
	data []byte
	off  int
	name string
	err  error
}

func (r *reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: %s: truncated reading %s at offset %d", ErrMalformedStream, r.name, what, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8(what string) int {
	b := r.take(1, what)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (r *reader) u32(what string) uint32 {
	b := r.take(4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32(what string) int32 {
	return int32(r.u32(what))
}

func (r *reader) f32(what string) float64 {
	return float64(math.Float32frombits(r.u32(what)))
}

func (r *reader) u8s(n int, what string) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = r.u8(what)
	}
	return out
}

func (r *reader) u32s(n int, what string) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(r.u32(what))
	}
	return out
}

type decoder struct {
	r   reader
	reg *schema.Registry

	duration int

	clipStarts, clipDurations, clipTypes []int

	animTargets, animSchemas, animProps []int

	propGroups, propIndices, propFields []int

	fieldOffsets, fieldSegments []int

	segDurations []int
	segInterps   []curve.Interpolation

	streams [numStreams]reader
}

func (d *decoder) decode() error {
	r := &d.r
	d.duration = int(r.u32("duration")) * frameScale

	n := r.u8("clip count")
	d.clipStarts = r.u32s(n, "clip start")
	d.clipDurations = r.u32s(n, "clip duration")
	d.clipTypes = r.u8s(n, "clip type")

	na := r.u8("animation count")
	d.animTargets = r.u8s(na, "animation target")
	d.animSchemas = r.u8s(na, "animation schema")
	d.animProps = r.u8s(na, "animation property count")

	np := r.u8("property count")
	d.propGroups = r.u8s(np, "property group")
	d.propIndices = r.u8s(np, "property index")
	d.propFields = r.u8s(np, "property field count")

	nf := r.u8("field count")
	d.fieldOffsets = make([]int, nf)
	for i := range d.fieldOffsets {
		d.fieldOffsets[i] = int(r.i32("field offset")) * frameScale
	}
	d.fieldSegments = r.u8s(nf, "field segment count")

	ns := r.u8("segment count")
	d.segDurations = r.u32s(ns, "segment duration")
	d.segInterps = make([]curve.Interpolation, ns)
	for i := range d.segInterps {
		switch tag := r.u8("interpolation"); tag {
		case interpLinear:
			d.segInterps[i] = curve.Linear{}
		case interpBezier:
			d.segInterps[i] = curve.CubicBezier{
				P1: curve.Point{X: r.f32("bezier"), Y: r.f32("bezier")},
				P2: curve.Point{X: r.f32("bezier"), Y: r.f32("bezier")},
			}
		default:
			if r.err == nil {
				r.err = fmt.Errorf("%w: unknown interpolation tag %d", ErrMalformedStream, tag)
			}
		}
	}

	for i, name := range []string{"x", "y", "z", "w"} {
		size := int(r.u32(name + " stream length"))
		d.streams[i] = reader{data: r.take(size, name+" stream"), name: name + " stream"}
	}
	if r.err != nil {
		return r.err
	}
	return d.checkCounts()
}

func (d *decoder) checkCounts() error {
	anims := 0
	for _, t := range d.clipTypes {
		if t == typeAnimation {
			anims++
		}
	}
	if anims != len(d.animTargets) {
		return fmt.Errorf("%w: %d animation clips but %d animation records", ErrMalformedStream, anims, len(d.animTargets))
	}
	if sum(d.animProps) != len(d.propGroups) {
		return fmt.Errorf("%w: animations declare %d properties, found %d", ErrMalformedStream, sum(d.animProps), len(d.propGroups))
	}
	fields := 0
	for _, n := range d.propFields {
		fields += max(n, 1)
	}
	if fields != len(d.fieldOffsets) {
		return fmt.Errorf("%w: properties declare %d fields, found %d", ErrMalformedStream, fields, len(d.fieldOffsets))
	}
	if sum(d.fieldSegments) != len(d.segDurations) {
		return fmt.Errorf("%w: fields declare %d segments, found %d", ErrMalformedStream, sum(d.fieldSegments), len(d.segDurations))
	}
	return nil
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func (d *decoder) build() (*timeline.Timeline, error) {
	n := len(d.clipTypes)
	clips := make([]timeline.Clip, n)

	for i, typ := range d.clipTypes {
		clips[i] = timeline.Clip{ID: property.ClipID(i), Duration: d.clipDurations[i] * frameScale}
		if clips[i].Duration <= 0 {
			return nil, fmt.Errorf("%w: clip %d has zero duration", ErrMalformedStream, i)
		}
		if typ == typeAnimation {
			continue
		}
		s, ok := d.reg.ByIndex(typ)
		if !ok {
			return nil, fmt.Errorf("%w: clip %d uses unknown schema %d", ErrMalformedStream, i, typ)
		}
		clips[i].Schema = s
		clips[i].Name = fmt.Sprintf("%s %d", s.Name, i)
	}

	for i := range clips {
		if clips[i].Schema == nil {
			continue
		}
		gen := timeline.NewGeneratorSource(clips[i].Schema)
		for g := range gen.Groups {
			for p := range gen.Groups[g].Properties {
				prop, _ := clips[i].Schema.Property(g, p)
				v, err := d.value(prop.Type, n)
				if err != nil {
					return nil, fmt.Errorf("clip %d default %s.%s: %w", i, clips[i].Schema.Groups[g].Name, prop.Name, err)
				}
				gen.Groups[g].Properties[p].Value = v
			}
		}
		clips[i].Source = gen
	}

	if err := d.buildAnimations(clips); err != nil {
		return nil, err
	}
	for i := range d.streams {
		if s := &d.streams[i]; s.off != len(s.data) {
			return nil, fmt.Errorf("%w: %s has %d unread bytes", ErrMalformedStream, s.name, len(s.data)-s.off)
		}
	}

	tl := timeline.New(d.duration)
	track, trackEnd := -1, 0
	for i := range clips {
		start := d.clipStarts[i] * frameScale
		if track < 0 || start < trackEnd {
			track = len(tl.Tracks)
		}
		if _, err := tl.AddClip(track, clips[i], start); err != nil {
			return nil, fmt.Errorf("%w: clip %d: %v", ErrMalformedStream, i, err)
		}
		trackEnd = start + clips[i].Duration
	}
	return tl, nil
}

func (d *decoder) buildAnimations(clips []timeline.Clip) error {
	anim, prop, field, seg := 0, 0, 0, 0
	for i := range clips {
		if d.clipTypes[i] != typeAnimation {
			continue
		}
		target := d.animTargets[anim]
		if target >= len(clips) || clips[target].Schema == nil {
			return fmt.Errorf("%w: animation %d targets clip %d which is not a generator", ErrMalformedStream, anim, target)
		}
		s := clips[target].Schema
		if d.animSchemas[anim] != s.Index() {
			return fmt.Errorf("%w: animation %d schema %d does not match target schema %d", ErrMalformedStream, anim, d.animSchemas[anim], s.Index())
		}

		src := &timeline.AnimationSource{Target: property.Ref(property.ClipID(target))}
		for k := 0; k < d.animProps[anim]; k++ {
			group, index, numFields := d.propGroups[prop], d.propIndices[prop], d.propFields[prop]
			prop++

			p, ok := s.Property(group, index)
			if !ok {
				return fmt.Errorf("%w: animation %d addresses missing property %d.%d of %s", ErrMalformedStream, anim, group, index, s.Name)
			}
			ap := timeline.AnimatedProperty{Group: group, Property: index}
			switch {
			case numFields == 0:
				f, err := d.field(field, &seg, p.Type, len(clips))
				if err != nil {
					return err
				}
				field++
				ap.Target = &timeline.Joined{Field: f}
			case numFields == property.NumFields(p.Type) && p.Type != property.TypeClipReference:
				sep := &timeline.Separate{Fields: make([]curve.Field, numFields)}
				for c := range sep.Fields {
					f, err := d.field(field, &seg, property.TypeFloat, len(clips))
					if err != nil {
						return err
					}
					field++
					sep.Fields[c] = f
				}
				ap.Target = sep
			default:
				return fmt.Errorf("%w: %s property %s has %d separate fields", ErrMalformedStream, p.Type, p.Name, numFields)
			}
			src.Properties = append(src.Properties, ap)
		}

		clips[i].Name = fmt.Sprintf("animation %d", i)
		clips[i].Source = src
		anim++
	}
	return nil
}

// field decodes field index fi, whose values have type t.
func (d *decoder) field(fi int, seg *int, t property.Type, numClips int) (curve.Field, error) {
	read := func() (property.Value, error) {
		return d.value(t, numClips)
	}

	f := curve.Field{LocalOffset: d.fieldOffsets[fi]}
	start, err := read()
	if err != nil {
		return f, fmt.Errorf("field %d start: %w", fi, err)
	}
	f.Start = start

	f.Segments = make([]curve.Segment, d.fieldSegments[fi])
	for k := range f.Segments {
		end, err := read()
		if err != nil {
			return f, fmt.Errorf("field %d segment %d: %w", fi, k, err)
		}
		f.Segments[k] = curve.Segment{
			Duration: d.segDurations[*seg] * frameScale,
			End:      end,
			Interp:   d.segInterps[*seg],
		}
		*seg++
	}
	return f, nil
}

// value reads one value of type t from the component streams.
func (d *decoder) value(t property.Type, numClips int) (property.Value, error) {
	if t == property.TypeClipReference {
		x := &d.streams[0]
		idx := x.u8("clip reference")
		if x.err != nil {
			return nil, x.err
		}
		if idx == noClip {
			return property.Reference(property.NoRef()), nil
		}
		if idx >= numClips {
			return nil, fmt.Errorf("%w: reference to clip %d of %d", ErrMalformedStream, idx, numClips)
		}
		return property.Reference(property.Ref(property.ClipID(idx))), nil
	}

	n := property.NumFields(t)
	if n == 0 || n > numStreams {
		return nil, fmt.Errorf("%w: no field layout for %s", ErrMalformedStream, t)
	}
	fields := make([]float64, n)
	for i := range fields {
		s := &d.streams[i]
		fields[i] = s.f32(t.String())
		if s.err != nil {
			return nil, s.err
		}
	}
	v, _, err := property.FromFields(t, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	return v, nil
}
