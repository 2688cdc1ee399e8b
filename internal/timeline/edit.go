package timeline

import (
	"fmt"
	"math"
	"slices"
)

// MoveSelected shifts every selected clip by delta frames on its own track.
// Either every selected clip moves or, when any of them would overlap a
// non-selected clip or leave the origin, nothing does.
func (tl *Timeline) MoveSelected(delta int) error {
	if delta == 0 {
		return nil
	}

	for ti := range tl.Tracks {
		if err := validateMove(&tl.Tracks[ti], delta); err != nil {
			return fmt.Errorf("track %d: %w", ti, err)
		}
	}

	next := make([]Track, len(tl.Tracks))
	for ti := range tl.Tracks {
		t, err := moveSelected(&tl.Tracks[ti], delta)
		if err != nil {
			return fmt.Errorf("track %d: %w", ti, err)
		}
		next[ti] = t
	}
	tl.Tracks = next
	return nil
}

func validateMove(t *Track, delta int) error {
	starts := t.Starts()
	for i := range t.Clips {
		c := &t.Clips[i]
		if !c.Selected {
			continue
		}
		from, to := starts[i]+delta, starts[i]+delta+c.Duration
		if from < 0 {
			return fmt.Errorf("%w: %q would start at %d", ErrInsufficientSpace, c.Name, from)
		}
		for j := range t.Clips {
			o := &t.Clips[j]
			if o.Selected {
				continue
			}
			if from < starts[j]+o.Duration && starts[j] < to {
				return fmt.Errorf("%w: %q would overlap %q", ErrInsufficientSpace, c.Name, o.Name)
			}
		}
	}
	return nil
}

// moveSelected pulls the selected clips out of a copy of t and reinserts
// them at their shifted starts.
func moveSelected(t *Track, delta int) (Track, error) {
	scratch := t.clone()
	starts := scratch.Starts()

	type pending struct {
		clip  Clip
		start int
	}
	var moved []pending
	for i := len(scratch.Clips) - 1; i >= 0; i-- {
		if scratch.Clips[i].Selected {
			c, _ := scratch.Remove(i)
			moved = append(moved, pending{clip: c, start: starts[i] + delta})
		}
	}
	for i := len(moved) - 1; i >= 0; i-- {
		if _, err := scratch.Insert(moved[i].clip, moved[i].start); err != nil {
			return Track{}, err
		}
	}
	return scratch, nil
}

// ResizeSelectedLeft moves the start edge of every selected clip by delta.
// The request is clamped to what every selected clip can take, so all of
// them change by the same amount; the applied delta is returned.
func (tl *Timeline) ResizeSelectedLeft(delta, minDuration int) int {
	return tl.resizeSelected(delta, minDuration, (*Track).leftRange, (*Track).ResizeLeft)
}

// ResizeSelectedRight moves the end edge of every selected clip by delta.
func (tl *Timeline) ResizeSelectedRight(delta, minDuration int) int {
	return tl.resizeSelected(delta, minDuration, (*Track).rightRange, (*Track).ResizeRight)
}

func (tl *Timeline) resizeSelected(
	delta, minDuration int,
	bounds func(*Track, int, int) deltaRange,
	apply func(*Track, int, int, int) int,
) int {
	selected := tl.Selected()
	if len(selected) == 0 || delta == 0 {
		return 0
	}

	r := deltaRange{lo: math.MinInt, unbounded: true}
	for _, p := range selected {
		b := bounds(&tl.Tracks[p.Track], p.Index, minDuration)
		r.lo = max(r.lo, b.lo)
		if b.unbounded {
			continue
		}
		if r.unbounded {
			r.hi, r.unbounded = b.hi, false
		} else {
			r.hi = min(r.hi, b.hi)
		}
	}
	delta = clampInt(delta, r)
	if delta == 0 {
		return 0
	}
	for _, p := range selected {
		apply(&tl.Tracks[p.Track], p.Index, delta, minDuration)
	}
	return delta
}

// ChangeSelectedClipTracks moves every selected clip delta tracks up or
// down, keeping its absolute start. New tracks are created at either end as
// needed and empty tracks left at either end are dropped afterwards. When
// any clip does not fit on its destination the timeline is left untouched.
func (tl *Timeline) ChangeSelectedClipTracks(delta int) error {
	if delta == 0 {
		return nil
	}
	selected := tl.Selected()
	if len(selected) == 0 {
		return nil
	}

	lowest, highest := selected[0].Track, selected[0].Track
	for _, p := range selected[1:] {
		lowest = min(lowest, p.Track)
		highest = max(highest, p.Track)
	}
	before := max(0, -(lowest + delta))
	after := max(0, highest+delta-(len(tl.Tracks)-1))

	scratch := make([]Track, before, before+len(tl.Tracks)+after)
	for i := range tl.Tracks {
		scratch = append(scratch, tl.Tracks[i].clone())
	}
	scratch = append(scratch, make([]Track, after)...)

	type pending struct {
		clip  Clip
		track int
		start int
	}
	var moved []pending
	for ti := range scratch {
		t := &scratch[ti]
		starts := t.Starts()
		for i := len(t.Clips) - 1; i >= 0; i-- {
			if t.Clips[i].Selected {
				c, _ := t.Remove(i)
				moved = append(moved, pending{clip: c, track: ti + delta, start: starts[i]})
			}
		}
	}
	slices.SortStableFunc(moved, func(a, b pending) int { return a.start - b.start })
	for _, m := range moved {
		if _, err := scratch[m.track].Insert(m.clip, m.start); err != nil {
			return fmt.Errorf("track %d: %w", m.track-before, err)
		}
	}

	first, last := 0, len(scratch)
	for first < last && len(scratch[first].Clips) == 0 {
		first++
	}
	for last > first && len(scratch[last-1].Clips) == 0 {
		last--
	}
	tl.Tracks = scratch[first:last]
	return nil
}
