// Package geom provides the small amount of 3-D vector and rotation math
// needed by branch and morphology transforms.
//
// Points are plain [3]float64 values. Rotations are 3x3 matrices built from
// Euler angles or an axis-angle pair and applied by multiplication. The
// package is deliberately dependency-free: morphology transforms only need
// rigid-body operations, not a general linear-algebra library.
package geom

import "math"

// Vec is a 3-D point or displacement.
type Vec [3]float64

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v[0] * s, v[1] * s, v[2] * s} }

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

// Cross returns the cross product of v and w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length.
// The zero vector is returned unchanged.
func (v Vec) Normalize() Vec {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Rotation is a proper rotation expressed as a 3x3 matrix.
// The zero value is not usable - use Identity, EulerXYZ, or AxisAngle.
type Rotation struct {
	m [3][3]float64
}

// Identity returns the identity rotation.
func Identity() Rotation {
	return Rotation{m: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// EulerXYZ builds a rotation from intrinsic x, y, z Euler angles in radians,
// applied in that order.
func EulerXYZ(x, y, z float64) Rotation {
	return aboutZ(z).Compose(aboutY(y)).Compose(aboutX(x))
}

// AxisAngle builds a rotation of angle radians about the given axis using
// Rodrigues' formula. The axis is normalized; a zero axis yields the
// identity rotation.
func AxisAngle(axis Vec, angle float64) Rotation {
	u := axis.Normalize()
	if u == (Vec{}) {
		return Identity()
	}
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	x, y, z := u[0], u[1], u[2]
	return Rotation{m: [3][3]float64{
		{c + x*x*t, x*y*t - z*s, x*z*t + y*s},
		{y*x*t + z*s, c + y*y*t, y*z*t - x*s},
		{z*x*t - y*s, z*y*t + x*s, c + z*z*t},
	}}
}

// Compose returns the rotation equivalent to applying o first, then r.
func (r Rotation) Compose(o Rotation) Rotation {
	var out Rotation
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				out.m[i][j] += r.m[i][k] * o.m[k][j]
			}
		}
	}
	return out
}

// Apply rotates v.
func (r Rotation) Apply(v Vec) Vec {
	return Vec{
		r.m[0][0]*v[0] + r.m[0][1]*v[1] + r.m[0][2]*v[2],
		r.m[1][0]*v[0] + r.m[1][1]*v[1] + r.m[1][2]*v[2],
		r.m[2][0]*v[0] + r.m[2][1]*v[1] + r.m[2][2]*v[2],
	}
}

// ApplyAbout rotates v about the given origin instead of the coordinate origin.
func (r Rotation) ApplyAbout(origin, v Vec) Vec {
	return r.Apply(v.Sub(origin)).Add(origin)
}

func aboutX(a float64) Rotation {
	c, s := math.Cos(a), math.Sin(a)
	return Rotation{m: [3][3]float64{{1, 0, 0}, {0, c, -s}, {0, s, c}}}
}

func aboutY(a float64) Rotation {
	c, s := math.Cos(a), math.Sin(a)
	return Rotation{m: [3][3]float64{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}}
}

func aboutZ(a float64) Rotation {
	c, s := math.Cos(a), math.Sin(a)
	return Rotation{m: [3][3]float64{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}}
}
