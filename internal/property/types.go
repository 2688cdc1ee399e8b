package property

import (
	"fmt"
	"strings"
)

// Type identifies the shape of a generator parameter.
type Type uint8

const (
	TypeFloat Type = iota
	TypeVec2
	TypeVec3
	TypeVec4
	TypeRGB
	TypeRGBA
	TypeRotation
	TypeClipReference
)

var typeNames = [...]string{
	TypeFloat:         "float",
	TypeVec2:          "vec2",
	TypeVec3:          "vec3",
	TypeVec4:          "vec4",
	TypeRGB:           "rgb",
	TypeRGBA:          "rgba",
	TypeRotation:      "rotation",
	TypeClipReference: "clip_reference",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Valid reports whether t is one of the known property types.
func (t Type) Valid() bool {
	return int(t) < len(typeNames)
}

// ParseType maps a type name (as written in schema files) back to a Type.
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == key {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("unknown property type: %q", name)
}

// NumFields returns the number of scalars a value of type t decomposes into.
// Rotation decomposes into three Euler angles, not four quaternion components.
func NumFields(t Type) int {
	switch t {
	case TypeFloat, TypeClipReference:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3, TypeRGB, TypeRotation:
		return 3
	case TypeVec4, TypeRGBA:
		return 4
	}
	return 0
}

// Default returns the value a freshly created property of type t holds.
func Default(t Type) Value {
	switch t {
	case TypeFloat:
		return Float(0)
	case TypeVec2:
		return Vec2{}
	case TypeVec3:
		return Vec3{}
	case TypeVec4:
		return Vec4{}
	case TypeRGB:
		return RGB{1, 1, 1}
	case TypeRGBA:
		return RGBA{1, 1, 1, 1}
	case TypeRotation:
		return Rotation(IdentityQuat())
	case TypeClipReference:
		return Reference(NoRef())
	}
	return nil
}

// Range is an inclusive clamp range applied to every field of a value.
type Range struct {
	Min, Max float64
}

// ValueRange returns the per-field clamp range of t. Unclamped types
// report ok == false.
func ValueRange(t Type) (r Range, ok bool) {
	switch t {
	case TypeRGB, TypeRGBA:
		return Range{Min: 0, Max: 1}, true
	case TypeRotation:
		return Range{Min: -180, Max: 180}, true
	}
	return Range{}, false
}
