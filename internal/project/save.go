package project

import (
	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/timeline"
)

func toFile(p *Project) *File {
	tl := p.Timeline
	f := &File{
		Version:  FormatVersion,
		ID:       p.ID.String(),
		Name:     p.Name,
		Duration: tl.Duration,
		Tracks:   make([]TrackFile, len(tl.Tracks)),
	}

	for ti := range tl.Tracks {
		t := &tl.Tracks[ti]
		clips := make([]ClipFile, 0, len(t.Clips))
		for ci := range t.Clips {
			clips = append(clips, clipFile(tl, &t.Clips[ci]))
		}
		f.Tracks[ti] = TrackFile{Clips: clips}
	}
	return f
}

func clipFile(tl *timeline.Timeline, c *timeline.Clip) ClipFile {
	cf := ClipFile{
		ID:       uint32(c.ID),
		Name:     c.Name,
		Offset:   c.Offset,
		Duration: c.Duration,
		Selected: c.Selected,
	}

	switch src := c.Source.(type) {
	case *timeline.GeneratorSource:
		if c.Schema == nil {
			break
		}
		cf.Schema = c.Schema.Name
		for g, group := range c.Schema.Groups {
			gf := GroupFile{Name: group.Name}
			for p, prop := range group.Properties {
				d, ok := src.Default(g, p)
				if !ok || d.Value == nil {
					continue
				}
				gf.Properties = append(gf.Properties, DefaultFile{
					Name:     prop.Name,
					Value:    d.Value.Fields(),
					Override: d.IsOverride,
				})
			}
			cf.Groups = append(cf.Groups, gf)
		}

	case *timeline.AnimationSource:
		af := &AnimationFile{}
		cf.Animation = af
		target, ok := tl.Resolve(src.Target)
		if !ok || target.Clip.Schema == nil {
			break
		}
		id := uint32(target.Clip.ID)
		af.Target = &id
		for i := range src.Properties {
			if pf, ok := animatedFile(target.Clip, &src.Properties[i]); ok {
				af.Properties = append(af.Properties, pf)
			}
		}
	}
	return cf
}

func animatedFile(target *timeline.Clip, ap *timeline.AnimatedProperty) (AnimatedFile, bool) {
	if _, ok := target.Schema.Property(ap.Group, ap.Property); !ok {
		return AnimatedFile{}, false
	}
	group := target.Schema.Groups[ap.Group]
	pf := AnimatedFile{
		Group:     group.Name,
		Property:  group.Properties[ap.Property].Name,
		Collapsed: ap.Collapsed,
	}

	switch tgt := ap.Target.(type) {
	case *timeline.Joined:
		ff := fieldFile(&tgt.Field)
		pf.Joined = &ff
	case *timeline.Separate:
		for i := range tgt.Fields {
			pf.Separate = append(pf.Separate, fieldFile(&tgt.Fields[i]))
		}
	default:
		return AnimatedFile{}, false
	}
	return pf, true
}

func fieldFile(f *curve.Field) FieldFile {
	ff := FieldFile{Offset: f.LocalOffset, Start: fields(f.Start)}
	for _, s := range f.Segments {
		sf := SegmentFile{Duration: s.Duration, End: fields(s.End), Interpolation: interpLinear}
		if b, ok := s.Interp.(curve.CubicBezier); ok {
			sf.Interpolation = interpBezier
			sf.Control = []float64{b.P1.X, b.P1.Y, b.P2.X, b.P2.Y}
		}
		ff.Segments = append(ff.Segments, sf)
	}
	return ff
}

func fields(v property.Value) []float64 {
	if v == nil {
		return nil
	}
	return v.Fields()
}
