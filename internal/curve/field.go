package curve

import (
	"fmt"

	"github.com/ivlev/demoseq/internal/property"
)

// Segment moves the field from the previous keyframe value to End over
// Duration frames.
type Segment struct {
	Duration int
	End      property.Value
	Interp   Interpolation
}

// Field is a piecewise keyframe curve over a single property. The first
// keyframe sits at LocalOffset (relative to the owning animation clip) and
// holds Start; each segment adds one keyframe after it.
type Field struct {
	LocalOffset int
	Start       property.Value
	Segments    []Segment
}

// Type returns the property type the field produces.
func (f *Field) Type() property.Type {
	return f.Start.Type()
}

// Span returns the local frame of the last keyframe.
func (f *Field) Span() int {
	end := f.LocalOffset
	for _, s := range f.Segments {
		end += s.Duration
	}
	return end
}

// EndValue returns the value held after the last keyframe.
func (f *Field) EndValue() property.Value {
	if len(f.Segments) == 0 {
		return f.Start
	}
	return f.Segments[len(f.Segments)-1].End
}

// Shift moves every keyframe by delta frames.
func (f *Field) Shift(delta int) {
	f.LocalOffset += delta
}

// ValueAt evaluates the field at a frame on its own clock. Frames at or
// before the first keyframe return Start; frames after the last return the
// final keyframe value.
func (f *Field) ValueAt(frame float64) property.Value {
	if frame <= float64(f.LocalOffset) {
		return f.Start
	}

	from := f.Start
	cursor := float64(f.LocalOffset)
	for _, seg := range f.Segments {
		end := cursor + float64(seg.Duration)
		if frame < end {
			return SegmentValue(from, seg, (frame-cursor)/float64(seg.Duration))
		}
		from = seg.End
		cursor = end
	}
	return from
}

// SegmentValue evaluates seg at normalized time t, starting from the value
// the curve holds when the segment begins.
func SegmentValue(from property.Value, seg Segment, t float64) property.Value {
	if seg.Duration == 0 {
		return seg.End
	}
	interp := seg.Interp
	if interp == nil {
		interp = Linear{}
	}
	return property.Lerp(from, seg.End, interp.Blend(t))
}

// Validate checks the field is well formed: a start value, matching segment
// value types and non-negative durations.
func (f *Field) Validate() error {
	if f.Start == nil {
		return fmt.Errorf("field has no start value")
	}
	typ := f.Start.Type()
	for i, s := range f.Segments {
		if s.Duration < 0 {
			return fmt.Errorf("segment %d has negative duration %d", i, s.Duration)
		}
		if s.End == nil || s.End.Type() != typ {
			return fmt.Errorf("segment %d value does not match field type %s", i, typ)
		}
		if b, ok := s.Interp.(CubicBezier); ok {
			if b.P1.X < 0 || b.P1.X > 1 || b.P2.X < 0 || b.P2.X > 1 {
				return fmt.Errorf("segment %d bezier control x outside [0,1]", i)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the segment list so edits do not alias.
func (f Field) Clone() Field {
	f.Segments = append([]Segment(nil), f.Segments...)
	return f
}
