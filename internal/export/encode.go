package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/timeline"
)

// Write encodes tl and writes it to w.
func Write(w io.Writer, tl *timeline.Timeline) error {
	data, err := Encode(tl)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// Encode serializes tl. Animations whose target is not an exported
// generator clip are left out, as are animated properties the target pins
// with IsOverride or that do not match the target schema: none of them can
// affect playback.
func Encode(tl *timeline.Timeline) ([]byte, error) {
	e := &encoder{index: make(map[property.ClipID]int)}
	e.collect(tl)
	if err := e.checkCounts(); err != nil {
		return nil, err
	}
	return e.encode(tl.Duration), nil
}

type exportedClip struct {
	clip *timeline.Clip

	// stored frames, disjoint per track
	storedStart, storedSpan int

	// animations only
	target *timeline.Clip
	props  []*timeline.AnimatedProperty
}

type encoder struct {
	clips []exportedClip
	index map[property.ClipID]int

	numAnims, numProps, numFields, numSegments int

	buf     []byte
	streams [numStreams][]byte
}

func (e *encoder) collect(tl *timeline.Timeline) {
	log := logging.Logger()
	placements := tl.Placements()

	track, trackEnd := -1, 0

	generators := make(map[property.ClipID]*timeline.Clip)
	for _, p := range placements {
		if _, ok := p.Clip.Generator(); ok && p.Clip.Schema != nil {
			generators[p.Clip.ID] = p.Clip
		}
	}

	for _, p := range placements {
		ec := exportedClip{clip: p.Clip}
		switch src := p.Clip.Source.(type) {
		case *timeline.GeneratorSource:
			if p.Clip.Schema == nil {
				log.Warn("export: generator clip has no schema", "clip", p.Clip.ID, "name", p.Clip.Name)
				continue
			}
		case *timeline.AnimationSource:
			id, ok := src.Target.Get()
			target := generators[id]
			if !ok || target == nil {
				log.Debug("export: dropping animation without target", "clip", p.Clip.ID, "target", src.Target)
				continue
			}
			ec.target = target
			for i := range src.Properties {
				ap := &src.Properties[i]
				if !exportable(ap, target) {
					log.Debug("export: dropping animated property", "clip", p.Clip.ID, "group", ap.Group, "property", ap.Property)
					continue
				}
				ec.props = append(ec.props, ap)
				e.numFields += len(fieldsOf(ap))
				for _, f := range fieldsOf(ap) {
					e.numSegments += len(f.Segments)
				}
			}
			e.numAnims++
			e.numProps += len(ec.props)
		default:
			continue
		}
		if p.Track != track {
			track, trackEnd = p.Track, 0
		}
		ec.storedStart, ec.storedSpan = storedSpan(p.Start, p.Clip.Duration, trackEnd)
		trackEnd = ec.storedStart + ec.storedSpan
		e.index[p.Clip.ID] = len(e.clips)
		e.clips = append(e.clips, ec)
	}
}

// exportable reports whether ap can change its target at playback time.
func exportable(ap *timeline.AnimatedProperty, target *timeline.Clip) bool {
	prop, ok := target.Schema.Property(ap.Group, ap.Property)
	if !ok || ap.Group > maxCount || ap.Property > maxCount {
		return false
	}
	if gen, ok := target.Generator(); ok {
		if d, ok := gen.Default(ap.Group, ap.Property); ok && d.IsOverride {
			return false
		}
	}

	switch tgt := ap.Target.(type) {
	case *timeline.Joined:
		return fieldProduces(&tgt.Field, prop.Type)
	case *timeline.Separate:
		if len(tgt.Fields) != property.NumFields(prop.Type) || prop.Type == property.TypeClipReference {
			return false
		}
		for i := range tgt.Fields {
			if !fieldProduces(&tgt.Fields[i], property.TypeFloat) {
				return false
			}
		}
		return true
	}
	return false
}

func fieldProduces(f *curve.Field, t property.Type) bool {
	return f.Validate() == nil && f.Type() == t
}

func fieldsOf(ap *timeline.AnimatedProperty) []curve.Field {
	switch tgt := ap.Target.(type) {
	case *timeline.Joined:
		return []curve.Field{tgt.Field}
	case *timeline.Separate:
		return tgt.Fields
	}
	return nil
}

func (e *encoder) checkCounts() error {
	counts := []struct {
		name string
		n    int
	}{
		{"clips", len(e.clips)},
		{"animations", e.numAnims},
		{"animated properties", e.numProps},
		{"fields", e.numFields},
		{"segments", e.numSegments},
	}
	for _, c := range counts {
		if c.n > maxCount {
			return fmt.Errorf("%w: %d %s (max %d)", ErrTooLarge, c.n, c.name, maxCount)
		}
	}
	return nil
}

func (e *encoder) encode(duration int) []byte {
	e.u32(uint32(halve(duration)))

	e.u8(len(e.clips))
	for _, c := range e.clips {
		e.u32(uint32(c.storedStart))
	}
	for _, c := range e.clips {
		e.u32(uint32(c.storedSpan))
	}
	for _, c := range e.clips {
		if c.target != nil {
			e.u8(typeAnimation)
		} else {
			e.u8(c.clip.Schema.Index())
		}
	}

	anims := e.animations()
	e.u8(len(anims))
	for _, a := range anims {
		e.u8(e.index[a.target.ID])
	}
	for _, a := range anims {
		e.u8(a.target.Schema.Index())
	}
	for _, a := range anims {
		e.u8(len(a.props))
	}

	var props []*timeline.AnimatedProperty
	for _, a := range anims {
		props = append(props, a.props...)
	}
	e.u8(len(props))
	for _, p := range props {
		e.u8(p.Group)
	}
	for _, p := range props {
		e.u8(p.Property)
	}
	for _, p := range props {
		if s, ok := p.Target.(*timeline.Separate); ok {
			e.u8(len(s.Fields))
		} else {
			e.u8(0)
		}
	}

	var fields []curve.Field
	for _, p := range props {
		fields = append(fields, fieldsOf(p)...)
	}
	e.u8(len(fields))
	for _, f := range fields {
		e.i32(int32(halve(f.LocalOffset)))
	}
	for _, f := range fields {
		e.u8(len(f.Segments))
	}

	var segments []curve.Segment
	for _, f := range fields {
		segments = append(segments, f.Segments...)
	}
	e.u8(len(segments))
	for _, f := range fields {
		pos := f.LocalOffset
		for _, s := range f.Segments {
			e.u32(uint32(halve(pos+s.Duration) - halve(pos)))
			pos += s.Duration
		}
	}
	for _, s := range segments {
		e.interpolation(s.Interp)
	}

	e.values(anims)
	for i := range e.streams {
		e.u32(uint32(len(e.streams[i])))
		e.buf = append(e.buf, e.streams[i]...)
	}
	return e.buf
}

func (e *encoder) animations() []exportedClip {
	var out []exportedClip
	for _, c := range e.clips {
		if c.target != nil {
			out = append(out, c)
		}
	}
	return out
}

func (e *encoder) values(anims []exportedClip) {
	for _, c := range e.clips {
		gen, ok := c.clip.Generator()
		if !ok || c.target != nil {
			continue
		}
		for g, group := range c.clip.Schema.Groups {
			for p, prop := range group.Properties {
				v := property.Default(prop.Type)
				if d, ok := gen.Default(g, p); ok && d.Value != nil && d.Value.Type() == prop.Type {
					v = d.Value
				}
				e.value(v)
			}
		}
	}

	for _, a := range anims {
		for _, p := range a.props {
			switch tgt := p.Target.(type) {
			case *timeline.Joined:
				e.value(tgt.Field.Start)
				for _, s := range tgt.Field.Segments {
					e.value(s.End)
				}
			case *timeline.Separate:
				for _, f := range tgt.Fields {
					e.value(f.Start)
					for _, s := range f.Segments {
						e.value(s.End)
					}
				}
			}
		}
	}
}

func (e *encoder) value(v property.Value) {
	if ref, ok := v.(property.Reference); ok {
		idx := noClip
		if id, ok := ref.Ref().Get(); ok {
			if i, ok := e.index[id]; ok {
				idx = i
			}
		}
		e.streams[0] = append(e.streams[0], byte(idx))
		return
	}
	for i, f := range v.Fields() {
		e.streams[i] = binary.LittleEndian.AppendUint32(e.streams[i], math.Float32bits(float32(f)))
	}
}

func (e *encoder) interpolation(i curve.Interpolation) {
	bz, ok := i.(curve.CubicBezier)
	if !ok {
		e.u8(interpLinear)
		return
	}
	e.u8(interpBezier)
	for _, f := range []float64{bz.P1.X, bz.P1.Y, bz.P2.X, bz.P2.Y} {
		e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(float32(f)))
	}
}

func (e *encoder) u8(v int) {
	e.buf = append(e.buf, byte(v))
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) i32(v int32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v))
}

// halve converts a working frame to a stored frame, rounding down.
func halve(frame int) int {
	if frame < 0 {
		return -((-frame + frameScale - 1) / frameScale)
	}
	return frame / frameScale
}

// storedSpan halves both ends of a clip so adjacent clips stay adjacent.
// A clip never shrinks to nothing: when it would, it keeps one stored frame
// and starts no earlier than trackEnd, the stored end of the previous clip on
// its track, so stored clips on one track never overlap.
func storedSpan(start, duration, trackEnd int) (int, int) {
	from := max(halve(start), trackEnd)
	to := max(halve(start+duration), from+1)
	return from, to - from
}
