package property

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedFields is returned when a scalar list is too short for a type
// or holds a value the type cannot represent.
var ErrMalformedFields = errors.New("malformed fields for property type")

// Value is a property value tagged with its Type. The concrete types are
// Float, Vec2, Vec3, Vec4, RGB, RGBA, Rotation and Reference.
type Value interface {
	Type() Type
	// Fields decomposes the value into NumFields(Type()) scalars.
	Fields() []float64
	isValue()
}

type (
	Float     float64
	Vec2      [2]float64
	Vec3      [3]float64
	Vec4      [4]float64
	RGB       [3]float64
	RGBA      [4]float64
	Rotation  Quat
	Reference ClipRef
)

func (Float) Type() Type     { return TypeFloat }
func (Vec2) Type() Type      { return TypeVec2 }
func (Vec3) Type() Type      { return TypeVec3 }
func (Vec4) Type() Type      { return TypeVec4 }
func (RGB) Type() Type       { return TypeRGB }
func (RGBA) Type() Type      { return TypeRGBA }
func (Rotation) Type() Type  { return TypeRotation }
func (Reference) Type() Type { return TypeClipReference }

func (Float) isValue()     {}
func (Vec2) isValue()      {}
func (Vec3) isValue()      {}
func (Vec4) isValue()      {}
func (RGB) isValue()       {}
func (RGBA) isValue()      {}
func (Rotation) isValue()  {}
func (Reference) isValue() {}

func (v Float) Fields() []float64 { return []float64{float64(v)} }
func (v Vec2) Fields() []float64  { return []float64{v[0], v[1]} }
func (v Vec3) Fields() []float64  { return []float64{v[0], v[1], v[2]} }
func (v Vec4) Fields() []float64  { return []float64{v[0], v[1], v[2], v[3]} }
func (v RGB) Fields() []float64   { return []float64{v[0], v[1], v[2]} }
func (v RGBA) Fields() []float64  { return []float64{v[0], v[1], v[2], v[3]} }

// Fields returns Euler angles in degrees. Going through Euler space is lossy
// near gimbal lock; FromFields rebuilds an equivalent orientation.
func (v Rotation) Fields() []float64 {
	x, y, z := Quat(v).Euler()
	return []float64{x, y, z}
}

// Fields returns the clip id, or -1 when the reference is empty.
func (v Reference) Fields() []float64 {
	if id, ok := ClipRef(v).Get(); ok {
		return []float64{float64(id)}
	}
	return []float64{-1}
}

// Ref returns the wrapped clip reference.
func (v Reference) Ref() ClipRef {
	return ClipRef(v)
}

// Quat returns the wrapped quaternion.
func (v Rotation) Quat() Quat {
	return Quat(v)
}

// FromFields consumes NumFields(t) scalars from the front of fields and
// returns the reconstructed value together with the unconsumed remainder.
func FromFields(t Type, fields []float64) (Value, []float64, error) {
	n := NumFields(t)
	if n == 0 {
		return nil, fields, fmt.Errorf("%w: unknown type %s", ErrMalformedFields, t)
	}
	if len(fields) < n {
		return nil, fields, fmt.Errorf("%w: %s needs %d, have %d", ErrMalformedFields, t, n, len(fields))
	}
	f, rest := fields[:n], fields[n:]

	switch t {
	case TypeFloat:
		return Float(f[0]), rest, nil
	case TypeVec2:
		return Vec2{f[0], f[1]}, rest, nil
	case TypeVec3:
		return Vec3{f[0], f[1], f[2]}, rest, nil
	case TypeVec4:
		return Vec4{f[0], f[1], f[2], f[3]}, rest, nil
	case TypeRGB:
		return RGB{f[0], f[1], f[2]}, rest, nil
	case TypeRGBA:
		return RGBA{f[0], f[1], f[2], f[3]}, rest, nil
	case TypeRotation:
		return Rotation(EulerToQuat(f[0], f[1], f[2])), rest, nil
	case TypeClipReference:
		id := f[0]
		if id < 0 || math.IsNaN(id) {
			return Reference(NoRef()), rest, nil
		}
		if id != math.Trunc(id) || id > math.MaxUint32 {
			return nil, fields, fmt.Errorf("%w: clip id %v", ErrMalformedFields, id)
		}
		return Reference(Ref(ClipID(id))), rest, nil
	}
	return nil, fields, fmt.Errorf("%w: unknown type %s", ErrMalformedFields, t)
}

// Lerp blends a towards b by t. Numeric and color types blend per component,
// rotations use slerp, and references switch from a to b only at t == 1.
// Values of different types do not blend; a is returned.
func Lerp(a, b Value, t float64) Value {
	if a == nil || b == nil || a.Type() != b.Type() {
		return a
	}

	switch av := a.(type) {
	case Float:
		return Float(lerp(float64(av), float64(b.(Float)), t))
	case Vec2:
		bv := b.(Vec2)
		return Vec2{lerp(av[0], bv[0], t), lerp(av[1], bv[1], t)}
	case Vec3:
		bv := b.(Vec3)
		return Vec3{lerp(av[0], bv[0], t), lerp(av[1], bv[1], t), lerp(av[2], bv[2], t)}
	case Vec4:
		bv := b.(Vec4)
		return Vec4{lerp(av[0], bv[0], t), lerp(av[1], bv[1], t), lerp(av[2], bv[2], t), lerp(av[3], bv[3], t)}
	case RGB:
		bv := b.(RGB)
		return RGB{lerp(av[0], bv[0], t), lerp(av[1], bv[1], t), lerp(av[2], bv[2], t)}
	case RGBA:
		bv := b.(RGBA)
		return RGBA{lerp(av[0], bv[0], t), lerp(av[1], bv[1], t), lerp(av[2], bv[2], t), lerp(av[3], bv[3], t)}
	case Rotation:
		return Rotation(Quat(av).Slerp(Quat(b.(Rotation)), t))
	case Reference:
		if t >= 1 {
			return b
		}
		return a
	}
	return a
}

// lerp keeps the endpoints exact: equal inputs return themselves, t == 0
// returns a and t == 1 returns b.
func lerp(a, b, t float64) float64 {
	if a == b {
		return a
	}
	return a*(1-t) + b*t
}

// Clamp limits every field of v to its type's range. Rotations are already
// normalized by construction and references have no range.
func Clamp(v Value) Value {
	switch cv := v.(type) {
	case RGB:
		return RGB{clamp01(cv[0]), clamp01(cv[1]), clamp01(cv[2])}
	case RGBA:
		return RGBA{clamp01(cv[0]), clamp01(cv[1]), clamp01(cv[2]), clamp01(cv[3])}
	case Rotation:
		return Rotation(Quat(cv).Normalize())
	}
	return v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
