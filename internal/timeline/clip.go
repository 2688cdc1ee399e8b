package timeline

import (
	"fmt"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Clip is one entry on a track. Offset is the gap in frames since the end of
// the previous clip on the same track; the absolute start is the running sum
// of every earlier Offset+Duration.
type Clip struct {
	ID       property.ClipID
	Name     string
	Schema   *schema.Schema
	Selected bool

	Offset   int
	Duration int

	Source Source
}

// Ref returns a reference to the clip.
func (c *Clip) Ref() property.ClipRef {
	return property.Ref(c.ID)
}

// Span returns Offset+Duration, the frames the clip consumes on its track.
func (c *Clip) Span() int {
	return c.Offset + c.Duration
}

// Generator returns the generator source, if the clip is one.
func (c *Clip) Generator() (*GeneratorSource, bool) {
	g, ok := c.Source.(*GeneratorSource)
	return g, ok
}

// Animation returns the animation source, if the clip is one.
func (c *Clip) Animation() (*AnimationSource, bool) {
	a, ok := c.Source.(*AnimationSource)
	return a, ok
}

// Source is what a clip does while active: *GeneratorSource or *AnimationSource.
type Source interface {
	isSource()
}

// PropertyDefault is a generator parameter's base value. IsOverride pins
// the value so animations targeting it have no effect.
type PropertyDefault struct {
	Value      property.Value
	IsOverride bool
}

// PropertyGroup holds the defaults of one schema group, in schema order.
type PropertyGroup struct {
	Properties []PropertyDefault
}

// GeneratorSource drives a generator with per-group default values.
type GeneratorSource struct {
	Groups []PropertyGroup
}

func (*GeneratorSource) isSource() {}

// NewGeneratorSource fills every schema property with its type default.
func NewGeneratorSource(s *schema.Schema) *GeneratorSource {
	src := &GeneratorSource{Groups: make([]PropertyGroup, len(s.Groups))}
	for i, g := range s.Groups {
		props := make([]PropertyDefault, len(g.Properties))
		for j, p := range g.Properties {
			props[j] = PropertyDefault{Value: property.Default(p.Type)}
		}
		src.Groups[i] = PropertyGroup{Properties: props}
	}
	return src
}

// Default returns the default at (group, prop).
func (g *GeneratorSource) Default(group, prop int) (*PropertyDefault, bool) {
	if group < 0 || group >= len(g.Groups) {
		return nil, false
	}
	props := g.Groups[group].Properties
	if prop < 0 || prop >= len(props) {
		return nil, false
	}
	return &props[prop], true
}

// Set replaces the default at (group, prop).
func (g *GeneratorSource) Set(group, prop int, v property.Value, override bool) error {
	d, ok := g.Default(group, prop)
	if !ok {
		return fmt.Errorf("no property at group %d index %d", group, prop)
	}
	if d.Value != nil && v.Type() != d.Value.Type() {
		return fmt.Errorf("property type %s does not accept %s", d.Value.Type(), v.Type())
	}
	d.Value = v
	d.IsOverride = override
	return nil
}

// AnimationSource keyframes properties of another clip.
type AnimationSource struct {
	Target     property.ClipRef
	Properties []AnimatedProperty
}

func (*AnimationSource) isSource() {}

// Shift moves every keyframe of every animated property by delta frames.
func (a *AnimationSource) Shift(delta int) {
	if delta == 0 {
		return
	}
	for i := range a.Properties {
		switch tgt := a.Properties[i].Target.(type) {
		case *Joined:
			tgt.Field.Shift(delta)
		case *Separate:
			for j := range tgt.Fields {
				tgt.Fields[j].Shift(delta)
			}
		}
	}
}

// AnimatedProperty addresses one property of the target clip's schema.
type AnimatedProperty struct {
	Group     int
	Property  int
	Collapsed bool
	Target    FieldTarget
}

// FieldTarget is *Joined (one curve for the whole value) or *Separate (one
// scalar curve per field).
type FieldTarget interface {
	isFieldTarget()
}

// Joined animates the whole value with a single curve.
type Joined struct {
	Field curve.Field
}

// Separate animates each scalar field independently. Fields[i] produces
// property.Float values for field i.
type Separate struct {
	Fields []curve.Field
}

func (*Joined) isFieldTarget()   {}
func (*Separate) isFieldTarget() {}

// Evaluate samples the property's curves at a frame on the animation's
// clock and assembles a value of type typ.
func (p *AnimatedProperty) Evaluate(frame float64, typ property.Type) (property.Value, error) {
	switch tgt := p.Target.(type) {
	case *Joined:
		v := tgt.Field.ValueAt(frame)
		if v == nil || v.Type() != typ {
			return nil, fmt.Errorf("joined field does not produce %s", typ)
		}
		return v, nil
	case *Separate:
		if len(tgt.Fields) != property.NumFields(typ) {
			return nil, fmt.Errorf("%w: %s has %d separate fields", property.ErrMalformedFields, typ, len(tgt.Fields))
		}
		scalars := make([]float64, len(tgt.Fields))
		for i := range tgt.Fields {
			f, ok := tgt.Fields[i].ValueAt(frame).(property.Float)
			if !ok {
				return nil, fmt.Errorf("separate field %d is not scalar", i)
			}
			scalars[i] = float64(f)
		}
		v, _, err := property.FromFields(typ, scalars)
		return v, err
	}
	return nil, fmt.Errorf("animated property has no target fields")
}

// NewJoined creates a joined target holding start until keyframes are added.
func NewJoined(start property.Value) *Joined {
	return &Joined{Field: curve.Field{Start: start}}
}

// NewSeparate splits start into one scalar curve per field.
func NewSeparate(start property.Value) *Separate {
	fields := start.Fields()
	s := &Separate{Fields: make([]curve.Field, len(fields))}
	for i, f := range fields {
		s.Fields[i] = curve.Field{Start: property.Float(f)}
	}
	return s
}
