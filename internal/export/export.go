// Package export reads and writes the compact binary timeline consumed by
// the player build.
//
// The layout is little-endian and columnar. Every frame count is stored at
// half the working rate. Sections, in order:
//
//	u32 duration
//	u8 clips;      u32 start[], u32 duration[], u8 type[] (schema index, 0xFF animation)
//	u8 animations; u8 target[] (clip index), u8 schema[], u8 num_props[]
//	u8 props;      u8 group[], u8 prop[], u8 num_fields[] (0 joined)
//	u8 fields;     i32 local_offset[], u8 num_segments[]
//	u8 segments;   u32 duration[], interpolation[] (u8 tag, bezier adds 4 f32)
//	x, y, z, w     u32 byte length then f32 components
//
// Component i of every value goes to stream i, in encounter order: generator
// defaults first (clip, group, property order), then for each field its start
// value followed by each segment end. Each field of a separate property holds
// Float values, so all of its scalars land in the x stream. A clip reference
// is a single byte in the x stream holding the clip index, 0xFF for none.
package export

import (
	"errors"
)

var (
	// ErrMalformedStream is returned for truncated or inconsistent input.
	ErrMalformedStream = errors.New("export: malformed stream")

	// ErrTooLarge is returned when a section count does not fit in a byte.
	ErrTooLarge = errors.New("export: timeline too large")
)

const (
	typeAnimation = 0xFF
	noClip        = 0xFF
	maxCount      = 0xFF

	interpLinear = 0
	interpBezier = 1

	// frameScale is the ratio between working frames and stored frames.
	frameScale = 2

	numStreams = 4
)
