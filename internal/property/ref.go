package property

import "fmt"

// ClipID identifies a clip within a timeline.
type ClipID uint32

// ClipRef is either a clip id or the explicit "no reference" state.
// The zero value is NoRef.
type ClipRef struct {
	id  ClipID
	set bool
}

// Ref returns a reference to id.
func Ref(id ClipID) ClipRef {
	return ClipRef{id: id, set: true}
}

// NoRef returns the empty reference.
func NoRef() ClipRef {
	return ClipRef{}
}

// Get returns the referenced id and whether the reference is set.
func (r ClipRef) Get() (ClipID, bool) {
	return r.id, r.set
}

// IsSet reports whether r points at a clip.
func (r ClipRef) IsSet() bool {
	return r.set
}

func (r ClipRef) String() string {
	if !r.set {
		return "none"
	}
	return fmt.Sprintf("#%d", r.id)
}
