// Package resolve computes, for one frame, which generator clips are active
// and the final value of each of their properties once every active
// animation has been layered on top of the clip defaults.
package resolve

import (
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

// ClipValue is the resolved value of one generator property.
type ClipValue struct {
	Value property.Value

	// Overridden is set when an animation targeted the property but the
	// clip pins it with IsOverride, so the animation had no effect.
	Overridden bool

	// TargetedBy is the animation clip that wrote Value, if any.
	TargetedBy property.ClipRef
}

// ActiveClip is a generator clip running at the resolved frame.
type ActiveClip struct {
	ID        property.ClipID
	Name      string
	Schema    *schema.Schema
	Track     int
	LocalTime int
	Groups    [][]ClipValue

	source *timeline.GeneratorSource
}

// Values returns the property values in the shape Generator.Update takes.
func (a *ActiveClip) Values() [][]property.Value {
	out := make([][]property.Value, len(a.Groups))
	for g, group := range a.Groups {
		out[g] = make([]property.Value, len(group))
		for p := range group {
			out[g][p] = group[p].Value
		}
	}
	return out
}

// ActiveClipMap holds the active generator clips of one frame, keyed by id
// and kept in timeline iteration order.
type ActiveClipMap struct {
	entries map[property.ClipID]*ActiveClip
	order   []property.ClipID
}

// Get returns the active entry for id.
func (m *ActiveClipMap) Get(id property.ClipID) (*ActiveClip, bool) {
	a, ok := m.entries[id]
	return a, ok
}

// Len returns the number of active generator clips.
func (m *ActiveClipMap) Len() int {
	return len(m.order)
}

// All returns the active clips in track order.
func (m *ActiveClipMap) All() []*ActiveClip {
	out := make([]*ActiveClip, len(m.order))
	for i, id := range m.order {
		out[i] = m.entries[id]
	}
	return out
}

type activeAnimation struct {
	clip  *timeline.Clip
	src   *timeline.AnimationSource
	start int
}

// Resolve returns the active clip map for frame. It reads tl without
// modifying it and keeps no state between calls.
//
// Animations apply in timeline iteration order (track index, then clip
// order), so when two of them write the same property the later one wins.
// Field time is measured from the start of the animation clip.
func Resolve(tl *timeline.Timeline, frame int) *ActiveClipMap {
	m := &ActiveClipMap{entries: make(map[property.ClipID]*ActiveClip)}

	var anims []activeAnimation
	for ti := range tl.Tracks {
		t := &tl.Tracks[ti]
		idx, start, ok := t.ClipAt(frame)
		if !ok {
			continue
		}
		c := &t.Clips[idx]
		switch src := c.Source.(type) {
		case *timeline.GeneratorSource:
			if c.Schema == nil {
				continue
			}
			m.entries[c.ID] = seed(c, src, ti, frame-start)
			m.order = append(m.order, c.ID)
		case *timeline.AnimationSource:
			anims = append(anims, activeAnimation{clip: c, src: src, start: start})
		}
	}

	for _, a := range anims {
		m.apply(a, frame)
	}
	return m
}

func seed(c *timeline.Clip, src *timeline.GeneratorSource, track, local int) *ActiveClip {
	a := &ActiveClip{
		ID:        c.ID,
		Name:      c.Name,
		Schema:    c.Schema,
		Track:     track,
		LocalTime: local,
		Groups:    make([][]ClipValue, len(c.Schema.Groups)),
		source:    src,
	}
	for g, group := range c.Schema.Groups {
		a.Groups[g] = make([]ClipValue, len(group.Properties))
		for p, prop := range group.Properties {
			v := property.Default(prop.Type)
			if d, ok := src.Default(g, p); ok && d.Value != nil && d.Value.Type() == prop.Type {
				v = d.Value
			}
			a.Groups[g][p] = ClipValue{Value: v}
		}
	}
	return a
}

// apply layers one animation onto its target. Anything that does not line
// up (inactive target, unknown property, wrong type) is skipped.
func (m *ActiveClipMap) apply(a activeAnimation, frame int) {
	id, ok := a.src.Target.Get()
	if !ok {
		return
	}
	target, ok := m.entries[id]
	if !ok {
		return
	}

	local := float64(frame - a.start)
	for i := range a.src.Properties {
		ap := &a.src.Properties[i]
		prop, ok := target.Schema.Property(ap.Group, ap.Property)
		if !ok {
			continue
		}
		cv := &target.Groups[ap.Group][ap.Property]

		if d, ok := target.source.Default(ap.Group, ap.Property); ok && d.IsOverride {
			cv.Overridden = true
			continue
		}

		v, err := ap.Evaluate(local, prop.Type)
		if err != nil {
			continue
		}
		cv.Value = v
		cv.TargetedBy = a.clip.Ref()
	}
}
