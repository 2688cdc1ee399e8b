package curve

import "math"

// Point is a control point in normalized (time, progress) space.
type Point struct {
	X, Y float64
}

// Interpolation shapes the blend between two keyframes. The concrete
// variants are Linear and CubicBezier.
type Interpolation interface {
	// Blend maps normalized segment time t in [0,1] to a blend amount.
	Blend(t float64) float64
	isInterpolation()
}

// Linear blends proportionally to time.
type Linear struct{}

func (Linear) Blend(t float64) float64 { return t }
func (Linear) isInterpolation()        {}

// CubicBezier is a CSS-style easing curve from (0,0) to (1,1) with two
// control points. Control X values are expected in [0,1] so x(u) stays
// monotonic; they are clamped when evaluated.
type CubicBezier struct {
	P1, P2 Point
}

// EaseInOut is the standard smooth in-out curve.
var EaseInOut = CubicBezier{P1: Point{X: 0.42, Y: 0}, P2: Point{X: 0.58, Y: 1}}

func (CubicBezier) isInterpolation() {}

const (
	solveEpsilon    = 1e-7
	newtonIters     = 8
	bisectionIters  = 64
	minSlopeForStep = 1e-6
)

// Blend solves x(u) = t and returns y(u).
func (c CubicBezier) Blend(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	u := c.solveX(t)
	return bezier1D(c.P1.Y, c.P2.Y, u)
}

func (c CubicBezier) solveX(t float64) float64 {
	x1, x2 := clampUnit(c.P1.X), clampUnit(c.P2.X)

	// Newton-Raphson from u = t; converges in a few steps for typical curves.
	u := t
	for i := 0; i < newtonIters; i++ {
		x := bezier1D(x1, x2, u) - t
		if math.Abs(x) < solveEpsilon {
			return u
		}
		d := bezierSlope(x1, x2, u)
		if math.Abs(d) < minSlopeForStep {
			break
		}
		u -= x / d
		if u < 0 || u > 1 {
			break
		}
	}

	// Bisection fallback for flat or badly conditioned curves.
	lo, hi := 0.0, 1.0
	u = t
	for i := 0; i < bisectionIters; i++ {
		x := bezier1D(x1, x2, u)
		if math.Abs(x-t) < solveEpsilon {
			return u
		}
		if x < t {
			lo = u
		} else {
			hi = u
		}
		u = (lo + hi) / 2
	}
	return u
}

// bezier1D evaluates one coordinate of a cubic with endpoints 0 and 1.
func bezier1D(p1, p2, u float64) float64 {
	mu := 1 - u
	return 3*mu*mu*u*p1 + 3*mu*u*u*p2 + u*u*u
}

func bezierSlope(p1, p2, u float64) float64 {
	mu := 1 - u
	return 3*mu*mu*p1 + 6*mu*u*(p2-p1) + 3*u*u*(1-p2)
}

func clampUnit(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
