package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientSpace is returned when an edit would make clips overlap.
	// The edit is not applied.
	ErrInsufficientSpace = errors.New("insufficient space")

	// ErrInvalidClip is returned for clips that can never be placed.
	ErrInvalidClip = errors.New("invalid clip")
)

// Track is an ordered run of non-overlapping clips stored as gap/duration
// pairs.
type Track struct {
	Clips []Clip
}

// Start returns the absolute start frame of clip i.
func (t *Track) Start(i int) int {
	cursor := 0
	for j := 0; j < i; j++ {
		cursor += t.Clips[j].Span()
	}
	return cursor + t.Clips[i].Offset
}

// End returns the frame after the last clip.
func (t *Track) End() int {
	end := 0
	for i := range t.Clips {
		end += t.Clips[i].Span()
	}
	return end
}

// Starts returns the absolute start of every clip.
func (t *Track) Starts() []int {
	starts := make([]int, len(t.Clips))
	cursor := 0
	for i := range t.Clips {
		starts[i] = cursor + t.Clips[i].Offset
		cursor = starts[i] + t.Clips[i].Duration
	}
	return starts
}

// ClipAt returns the index of the clip whose [start, start+duration)
// contains frame. At most one clip can match.
func (t *Track) ClipAt(frame int) (index, start int, ok bool) {
	cursor := 0
	for i := range t.Clips {
		s := cursor + t.Clips[i].Offset
		if frame < s {
			break
		}
		end := s + t.Clips[i].Duration
		if frame < end {
			return i, s, true
		}
		cursor = end
	}
	return 0, 0, false
}

// Insert places c at absolute frame start. It fails with
// ErrInsufficientSpace, leaving the track untouched, when c would overlap
// its predecessor or successor. On success it returns c's index.
func (t *Track) Insert(c Clip, start int) (int, error) {
	if c.Duration <= 0 {
		return 0, fmt.Errorf("%w: duration %d", ErrInvalidClip, c.Duration)
	}
	if start < 0 {
		return 0, fmt.Errorf("%w: start %d is before the origin", ErrInsufficientSpace, start)
	}

	idx, prevEnd, cursor := 0, 0, 0
	for idx < len(t.Clips) {
		s := cursor + t.Clips[idx].Offset
		if s > start {
			break
		}
		cursor = s + t.Clips[idx].Duration
		prevEnd = cursor
		idx++
	}
	if prevEnd > start {
		return 0, fmt.Errorf("%w: %q overlaps the clip ending at %d", ErrInsufficientSpace, c.Name, prevEnd)
	}

	c.Offset = start - prevEnd
	if idx < len(t.Clips) {
		next := &t.Clips[idx]
		if next.Offset < c.Span() {
			return 0, fmt.Errorf("%w: %q runs into the clip starting at %d", ErrInsufficientSpace, c.Name, prevEnd+next.Offset)
		}
		next.Offset -= c.Span()
	}

	t.Clips = append(t.Clips, Clip{})
	copy(t.Clips[idx+1:], t.Clips[idx:])
	t.Clips[idx] = c
	return idx, nil
}

// Remove deletes clip i and credits its span to the following clip so every
// later clip keeps its absolute start. It reports false, leaving the track
// alone, when i is out of range.
func (t *Track) Remove(i int) (Clip, bool) {
	if !t.valid(i) {
		return Clip{}, false
	}
	c := t.Clips[i]
	if i+1 < len(t.Clips) {
		t.Clips[i+1].Offset += c.Span()
	}
	t.Clips = append(t.Clips[:i], t.Clips[i+1:]...)
	return c, true
}

func (t *Track) valid(i int) bool {
	return i >= 0 && i < len(t.Clips)
}

// ResizeLeft moves the start of clip i by delta frames while keeping its end
// fixed: positive delta shrinks, negative grows into the gap before it. The
// request is clamped so the clip stays at least minDuration long and does not
// reach its predecessor; the applied delta is returned. Animation keyframes
// are re-based so they keep their absolute time. An out-of-range i applies
// nothing.
func (t *Track) ResizeLeft(i, delta, minDuration int) int {
	if !t.valid(i) {
		return 0
	}
	c := &t.Clips[i]
	delta = clampInt(delta, t.leftRange(i, minDuration))
	if delta == 0 {
		return 0
	}

	c.Offset += delta
	c.Duration -= delta
	if a, ok := c.Animation(); ok {
		a.Shift(-delta)
	}
	return delta
}

// ResizeRight moves the end of clip i by delta frames. The following gap
// shrinks or grows to match; keyframe timing is untouched.
func (t *Track) ResizeRight(i, delta, minDuration int) int {
	if !t.valid(i) {
		return 0
	}
	delta = clampInt(delta, t.rightRange(i, minDuration))
	if delta == 0 {
		return 0
	}

	t.Clips[i].Duration += delta
	if i+1 < len(t.Clips) {
		t.Clips[i+1].Offset -= delta
	}
	return delta
}

type deltaRange struct {
	lo, hi    int
	unbounded bool // hi is unbounded
}

func (t *Track) leftRange(i, minDuration int) deltaRange {
	c := &t.Clips[i]
	return deltaRange{lo: -c.Offset, hi: max(c.Duration-max(minDuration, 1), 0)}
}

func (t *Track) rightRange(i, minDuration int) deltaRange {
	c := &t.Clips[i]
	r := deltaRange{lo: min(max(minDuration, 1)-c.Duration, 0), unbounded: true}
	if i+1 < len(t.Clips) {
		r.hi = t.Clips[i+1].Offset
		r.unbounded = false
	}
	return r
}

func clampInt(v int, r deltaRange) int {
	if v < r.lo {
		return r.lo
	}
	if !r.unbounded && v > r.hi {
		return r.hi
	}
	return v
}

// Check verifies the track invariants: positive durations and non-negative
// gaps.
func (t *Track) Check() error {
	for i := range t.Clips {
		c := &t.Clips[i]
		if c.Duration <= 0 {
			return fmt.Errorf("clip %d (%q) has duration %d", i, c.Name, c.Duration)
		}
		if c.Offset < 0 {
			return fmt.Errorf("clip %d (%q) overlaps its predecessor by %d", i, c.Name, -c.Offset)
		}
	}
	return nil
}

func (t *Track) clone() Track {
	return Track{Clips: append([]Clip(nil), t.Clips...)}
}
