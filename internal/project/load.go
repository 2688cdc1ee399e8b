package project

import (
	"fmt"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

type loader struct {
	reg   *schema.Registry
	tl    *timeline.Timeline
	diags []error

	pending []pendingAnimation
}

// pendingAnimation is filled in once every clip is placed, since its target
// may appear later in the file.
type pendingAnimation struct {
	clip string
	src  *timeline.AnimationSource
	file *AnimationFile
}

func (l *loader) report(err error, format string, args ...any) {
	l.diags = append(l.diags, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err))
}

func (l *loader) load(f *File) {
	l.tl.Tracks = make([]timeline.Track, len(f.Tracks))

	for ti, tf := range f.Tracks {
		// Absolute positions follow the file even when a clip is dropped.
		cursor := 0
		for ci := range tf.Clips {
			cf := &tf.Clips[ci]
			start := cursor + cf.Offset
			cursor = start + cf.Duration

			c, ok := l.clip(cf)
			if !ok {
				continue
			}
			if _, err := l.tl.AddClip(ti, c, start); err != nil {
				l.report(ErrInvalidClip, "track %d clip %q: %v", ti, cf.Name, err)
				continue
			}
		}
	}

	for _, p := range l.pending {
		l.animation(p)
	}
}

func (l *loader) clip(cf *ClipFile) (timeline.Clip, bool) {
	c := timeline.Clip{
		ID:       property.ClipID(cf.ID),
		Name:     cf.Name,
		Selected: cf.Selected,
		Duration: cf.Duration,
	}

	if cf.Animation != nil {
		src := &timeline.AnimationSource{}
		c.Source = src
		l.pending = append(l.pending, pendingAnimation{clip: cf.Name, src: src, file: cf.Animation})
		return c, true
	}

	s, ok := l.reg.ByName(cf.Schema)
	if !ok {
		l.report(ErrSchemaMismatch, "clip %q: unknown schema %q", cf.Name, cf.Schema)
		return c, false
	}
	c.Schema = s
	gen := timeline.NewGeneratorSource(s)
	c.Source = gen

	for _, gf := range cf.Groups {
		g, ok := s.GroupIndex(gf.Name)
		if !ok {
			l.report(ErrSchemaMismatch, "clip %q: schema %s has no group %q", cf.Name, s.Name, gf.Name)
			continue
		}
		for _, df := range gf.Properties {
			p, ok := s.PropertyIndex(g, df.Name)
			if !ok {
				l.report(ErrSchemaMismatch, "clip %q: group %s has no property %q", cf.Name, gf.Name, df.Name)
				continue
			}
			prop, _ := s.Property(g, p)
			v, err := decodeValue(prop.Type, df.Value)
			if err != nil {
				l.report(ErrInvalidValue, "clip %q %s.%s", cf.Name, gf.Name, df.Name)
				v = property.Default(prop.Type)
			}
			d, _ := gen.Default(g, p)
			d.Value = v
			d.IsOverride = df.Override
		}
	}
	return c, true
}

func (l *loader) animation(p pendingAnimation) {
	af := p.file
	if af.Target == nil {
		if len(af.Properties) > 0 {
			l.report(ErrSchemaMismatch, "animation %q: properties without a target", p.clip)
		}
		return
	}

	target := property.Ref(property.ClipID(*af.Target))
	placement, ok := l.tl.Resolve(target)
	if !ok || placement.Clip.Schema == nil {
		l.report(ErrSchemaMismatch, "animation %q: target %d is not a generator clip", p.clip, *af.Target)
		return
	}
	p.src.Target = target
	s := placement.Clip.Schema

	for _, pf := range af.Properties {
		g, ok := s.GroupIndex(pf.Group)
		if !ok {
			l.report(ErrSchemaMismatch, "animation %q: schema %s has no group %q", p.clip, s.Name, pf.Group)
			continue
		}
		pi, ok := s.PropertyIndex(g, pf.Property)
		if !ok {
			l.report(ErrSchemaMismatch, "animation %q: group %s has no property %q", p.clip, pf.Group, pf.Property)
			continue
		}
		prop, _ := s.Property(g, pi)
		ap := timeline.AnimatedProperty{Group: g, Property: pi, Collapsed: pf.Collapsed}
		where := fmt.Sprintf("animation %q %s.%s", p.clip, pf.Group, pf.Property)

		switch {
		case pf.Joined != nil:
			ap.Target = &timeline.Joined{Field: l.field(pf.Joined, prop.Type, where)}
		case len(pf.Separate) > 0:
			if len(pf.Separate) != property.NumFields(prop.Type) || prop.Type == property.TypeClipReference {
				l.report(ErrInvalidValue, "%s: %d separate fields for %s", where, len(pf.Separate), prop.Type)
				continue
			}
			sep := &timeline.Separate{Fields: make([]curve.Field, len(pf.Separate))}
			for i := range pf.Separate {
				sep.Fields[i] = l.field(&pf.Separate[i], property.TypeFloat, where)
			}
			ap.Target = sep
		default:
			l.report(ErrInvalidValue, "%s: no keyframes", where)
			continue
		}
		p.src.Properties = append(p.src.Properties, ap)
	}
}

func (l *loader) field(ff *FieldFile, t property.Type, where string) curve.Field {
	value := func(fields []float64) property.Value {
		v, err := decodeValue(t, fields)
		if err != nil {
			l.report(ErrInvalidValue, "%s", where)
			return property.Default(t)
		}
		return v
	}

	f := curve.Field{LocalOffset: ff.Offset, Start: value(ff.Start)}
	for _, sf := range ff.Segments {
		seg := curve.Segment{Duration: sf.Duration, End: value(sf.End), Interp: curve.Linear{}}
		if seg.Duration < 0 {
			l.report(ErrInvalidValue, "%s: negative segment duration %d", where, sf.Duration)
			seg.Duration = 0
		}
		switch sf.Interpolation {
		case "", interpLinear:
		case interpBezier:
			if len(sf.Control) == 4 && inUnit(sf.Control[0]) && inUnit(sf.Control[2]) {
				seg.Interp = curve.CubicBezier{
					P1: curve.Point{X: sf.Control[0], Y: sf.Control[1]},
					P2: curve.Point{X: sf.Control[2], Y: sf.Control[3]},
				}
			} else {
				l.report(ErrInvalidValue, "%s: bezier needs four control values with x in [0,1]", where)
			}
		default:
			l.report(ErrInvalidValue, "%s: unknown interpolation %q", where, sf.Interpolation)
		}
		f.Segments = append(f.Segments, seg)
	}
	return f
}

func inUnit(x float64) bool {
	return x >= 0 && x <= 1
}

// decodeValue builds a value from exactly NumFields(t) scalars and clamps it
// to the type's range.
func decodeValue(t property.Type, fields []float64) (property.Value, error) {
	if len(fields) != property.NumFields(t) {
		return nil, fmt.Errorf("%w: %s takes %d fields, got %d", ErrInvalidValue, t, property.NumFields(t), len(fields))
	}
	v, _, err := property.FromFields(t, fields)
	if err != nil {
		return nil, err
	}
	return property.Clamp(v), nil
}
