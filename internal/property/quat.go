package property

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quat {
	return Quat{0, 0, 0, 1}
}

// EulerToQuat converts Euler angles in degrees (roll about X, pitch about Y,
// yaw about Z, applied X then Y then Z) to a unit quaternion.
func EulerToQuat(rx, ry, rz float64) Quat {
	rx, ry, rz = deg2Rad(rx), deg2Rad(ry), deg2Rad(rz)
	cx, sx := math.Cos(rx*0.5), math.Sin(rx*0.5)
	cy, sy := math.Cos(ry*0.5), math.Sin(ry*0.5)
	cz, sz := math.Cos(rz*0.5), math.Sin(rz*0.5)

	return Quat{
		sx*cy*cz - cx*sy*sz, // x
		cx*sy*cz + sx*cy*sz, // y
		cx*cy*sz - sx*sy*cz, // z
		cx*cy*cz + sx*sy*sz, // w
	}
}

// Euler returns the rotation as Euler angles in degrees, inverse of
// EulerToQuat. Near pitch ±90° the roll/yaw split is ambiguous and the
// result only reproduces the same orientation, not the original angles.
func (q Quat) Euler() (rx, ry, rz float64) {
	x, y, z, w := q[0], q[1], q[2], q[3]

	rx = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	ry = math.Asin(sinp)

	rz = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return rad2Deg(rx), rad2Deg(ry), rad2Deg(rz)
}

// Dot returns the 4D dot product.
func (q Quat) Dot(o Quat) float64 {
	return q[0]*o[0] + q[1]*o[1] + q[2]*o[2] + q[3]*o[3]
}

// Normalize returns q scaled to unit length. A zero quaternion becomes identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.Dot(q))
	if l < 1e-12 {
		return IdentityQuat()
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Slerp interpolates along the shortest arc between q and o.
// t == 0 returns q and t == 1 returns o exactly.
func (q Quat) Slerp(o Quat, t float64) Quat {
	if t <= 0 || q == o {
		return q
	}
	if t >= 1 {
		return o
	}

	cos := q.Dot(o)
	if cos < 0 {
		o = Quat{-o[0], -o[1], -o[2], -o[3]}
		cos = -cos
	}

	// Nearly parallel: fall back to normalized linear blend.
	if cos > 0.9995 {
		return Quat{
			q[0] + (o[0]-q[0])*t,
			q[1] + (o[1]-q[1])*t,
			q[2] + (o[2]-q[2])*t,
			q[3] + (o[3]-q[3])*t,
		}.Normalize()
	}

	theta := math.Acos(cos)
	sin := math.Sin(theta)
	s0 := math.Sin((1-t)*theta) / sin
	s1 := math.Sin(t*theta) / sin
	return Quat{
		q[0]*s0 + o[0]*s1,
		q[1]*s0 + o[1]*s1,
		q[2]*s0 + o[2]*s1,
		q[3]*s0 + o[3]*s1,
	}
}

// SameRotation reports whether q and o describe the same orientation within
// tol, treating q and -q as equal.
func (q Quat) SameRotation(o Quat, tol float64) bool {
	return math.Abs(math.Abs(q.Dot(o))-1) <= tol
}

func deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

func rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}
