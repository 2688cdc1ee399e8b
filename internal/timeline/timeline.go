package timeline

import (
	"fmt"

	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
)

// Timeline is the full set of tracks of a production. Track order is
// significant: it is the iteration order used when coalescing animations.
type Timeline struct {
	Tracks   []Track
	Duration int

	nextID property.ClipID
}

// New returns an empty timeline of the given length in frames.
func New(duration int) *Timeline {
	return &Timeline{Duration: duration}
}

// NewClipID reserves a fresh clip id.
func (tl *Timeline) NewClipID() property.ClipID {
	id := tl.nextID
	tl.nextID++
	return id
}

// NewGeneratorClip builds an unplaced generator clip with schema defaults.
func (tl *Timeline) NewGeneratorClip(name string, s *schema.Schema, duration int) Clip {
	return Clip{
		ID:       tl.NewClipID(),
		Name:     name,
		Schema:   s,
		Duration: duration,
		Source:   NewGeneratorSource(s),
	}
}

// NewAnimationClip builds an unplaced animation clip targeting target.
func (tl *Timeline) NewAnimationClip(name string, target property.ClipRef, duration int) Clip {
	return Clip{
		ID:       tl.NewClipID(),
		Name:     name,
		Duration: duration,
		Source:   &AnimationSource{Target: target},
	}
}

// AddClip inserts c on track at absolute frame start. Passing
// track == len(Tracks) appends a new track.
func (tl *Timeline) AddClip(track int, c Clip, start int) (int, error) {
	if track < 0 || track > len(tl.Tracks) {
		return 0, fmt.Errorf("track %d out of range", track)
	}
	if _, ok := tl.Find(c.ID); ok {
		return 0, fmt.Errorf("%w: duplicate clip id %d", ErrInvalidClip, c.ID)
	}

	if track == len(tl.Tracks) {
		var t Track
		idx, err := t.Insert(c, start)
		if err != nil {
			return 0, err
		}
		tl.Tracks = append(tl.Tracks, t)
		tl.reserve(c.ID)
		return idx, nil
	}

	idx, err := tl.Tracks[track].Insert(c, start)
	if err != nil {
		return 0, err
	}
	tl.reserve(c.ID)
	return idx, nil
}

func (tl *Timeline) reserve(id property.ClipID) {
	if id >= tl.nextID {
		tl.nextID = id + 1
	}
}

// Placement locates a clip on the timeline. Clip points into the track's
// storage and is invalidated by the next structural edit.
type Placement struct {
	Track int
	Index int
	Start int
	Clip  *Clip
}

// End returns the frame after the clip.
func (p Placement) End() int {
	return p.Start + p.Clip.Duration
}

// Placements lists every clip in iteration order: track index, then clip
// order within the track.
func (tl *Timeline) Placements() []Placement {
	var out []Placement
	for ti := range tl.Tracks {
		t := &tl.Tracks[ti]
		cursor := 0
		for ci := range t.Clips {
			c := &t.Clips[ci]
			start := cursor + c.Offset
			out = append(out, Placement{Track: ti, Index: ci, Start: start, Clip: c})
			cursor = start + c.Duration
		}
	}
	return out
}

// Find looks a clip up by id.
func (tl *Timeline) Find(id property.ClipID) (Placement, bool) {
	for _, p := range tl.Placements() {
		if p.Clip.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// Resolve follows a reference to its clip. Unset or dangling references
// report false.
func (tl *Timeline) Resolve(ref property.ClipRef) (Placement, bool) {
	id, ok := ref.Get()
	if !ok {
		return Placement{}, false
	}
	return tl.Find(id)
}

// End returns the frame after the last clip on any track.
func (tl *Timeline) End() int {
	end := 0
	for i := range tl.Tracks {
		end = max(end, tl.Tracks[i].End())
	}
	return end
}

// SelectOnly selects the given clips and deselects every other one.
func (tl *Timeline) SelectOnly(ids ...property.ClipID) {
	want := make(map[property.ClipID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, p := range tl.Placements() {
		p.Clip.Selected = want[p.Clip.ID]
	}
}

// ClearSelection deselects every clip.
func (tl *Timeline) ClearSelection() {
	tl.SelectOnly()
}

// Selected lists the selected clips in iteration order.
func (tl *Timeline) Selected() []Placement {
	var out []Placement
	for _, p := range tl.Placements() {
		if p.Clip.Selected {
			out = append(out, p)
		}
	}
	return out
}

// Check verifies every track invariant and that clip ids are unique.
func (tl *Timeline) Check() error {
	for i := range tl.Tracks {
		if err := tl.Tracks[i].Check(); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	seen := make(map[property.ClipID]bool)
	for _, p := range tl.Placements() {
		if seen[p.Clip.ID] {
			return fmt.Errorf("duplicate clip id %d", p.Clip.ID)
		}
		seen[p.Clip.ID] = true
	}
	return nil
}
