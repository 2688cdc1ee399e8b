package project

// FormatVersion is the project file layout written by Save.
const FormatVersion = 1

// File is the on-disk project layout. Schemas, groups and properties are
// addressed by name so files survive generator reordering.
type File struct {
	Version  int         `yaml:"version"`
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Duration int         `yaml:"duration"`
	Tracks   []TrackFile `yaml:"tracks"`
}

// TrackFile lists clips in order.
type TrackFile struct {
	Clips []ClipFile `yaml:"clips"`
}

// ClipFile is one clip. Offset is the gap since the previous clip on the
// same track. A clip with an Animation block is an animation clip; any other
// clip is a generator of Schema.
type ClipFile struct {
	ID        uint32         `yaml:"id"`
	Name      string         `yaml:"name"`
	Schema    string         `yaml:"schema,omitempty"`
	Offset    int            `yaml:"offset"`
	Duration  int            `yaml:"duration"`
	Selected  bool           `yaml:"selected,omitempty"`
	Groups    []GroupFile    `yaml:"groups,omitempty"`
	Animation *AnimationFile `yaml:"animation,omitempty"`
}

// GroupFile holds generator defaults for one schema group.
type GroupFile struct {
	Name       string        `yaml:"name"`
	Properties []DefaultFile `yaml:"properties"`
}

// DefaultFile is one generator default. Value lists the scalar fields;
// rotations are Euler degrees and a clip reference is the clip id or -1.
type DefaultFile struct {
	Name     string    `yaml:"name"`
	Value    []float64 `yaml:"value,flow"`
	Override bool      `yaml:"override,omitempty"`
}

// AnimationFile keyframes properties of the Target clip.
type AnimationFile struct {
	Target     *uint32        `yaml:"target,omitempty"`
	Properties []AnimatedFile `yaml:"properties,omitempty"`
}

// AnimatedFile animates one property either with a single Joined curve or
// with one Separate curve per scalar field.
type AnimatedFile struct {
	Group     string      `yaml:"group"`
	Property  string      `yaml:"property"`
	Collapsed bool        `yaml:"collapsed,omitempty"`
	Joined    *FieldFile  `yaml:"joined,omitempty"`
	Separate  []FieldFile `yaml:"separate,omitempty"`
}

// FieldFile is a keyframe curve. Offset is relative to the animation clip.
type FieldFile struct {
	Offset   int           `yaml:"offset"`
	Start    []float64     `yaml:"start,flow"`
	Segments []SegmentFile `yaml:"segments,omitempty"`
}

// SegmentFile is one keyframe. Interpolation is "linear" or "bezier"; a
// bezier lists its control points as x1, y1, x2, y2.
type SegmentFile struct {
	Duration      int       `yaml:"duration"`
	End           []float64 `yaml:"end,flow"`
	Interpolation string    `yaml:"interpolation,omitempty"`
	Control       []float64 `yaml:"control,flow,omitempty"`
}

const (
	interpLinear = "linear"
	interpBezier = "bezier"
)
