package morpho

import (
	"math"

	"github.com/matzehuels/neurite/pkg/geom"
)

// Morphometric queries. All of them fail with [ErrEmptyBranch] on a branch
// with zero points. Degenerate branches (single point, or all points
// coincident) have zero length metrics and a fractal dimension of exactly 1.

// Start returns the branch's first point.
func (b *Branch) Start() (geom.Vec, error) {
	if len(b.points) == 0 {
		return geom.Vec{}, ErrEmptyBranch
	}
	return b.points[0], nil
}

// End returns the branch's last point.
func (b *Branch) End() (geom.Vec, error) {
	if len(b.points) == 0 {
		return geom.Vec{}, ErrEmptyBranch
	}
	return b.points[len(b.points)-1], nil
}

// Vector returns the displacement from the branch's start to its end.
func (b *Branch) Vector() (geom.Vec, error) {
	if len(b.points) == 0 {
		return geom.Vec{}, ErrEmptyBranch
	}
	return b.points[len(b.points)-1].Sub(b.points[0]), nil
}

// Versor returns the unit vector from the branch's start to its end.
// For a zero-length branch the direction is undefined and the zero vector
// is returned.
func (b *Branch) Versor() (geom.Vec, error) {
	v, err := b.Vector()
	if err != nil {
		return geom.Vec{}, err
	}
	return v.Normalize(), nil
}

// EuclideanDist returns the straight-line distance between the branch's
// start and end points. Zero for single-point and degenerate branches.
func (b *Branch) EuclideanDist() (float64, error) {
	v, err := b.Vector()
	if err != nil {
		return 0, err
	}
	return v.Norm(), nil
}

// PathDist returns the summed length of the branch's consecutive point
// segments. Zero for single-point and degenerate branches.
func (b *Branch) PathDist() (float64, error) {
	if len(b.points) == 0 {
		return 0, ErrEmptyBranch
	}
	var total float64
	for i := 1; i < len(b.points); i++ {
		total += b.points[i].Sub(b.points[i-1]).Norm()
	}
	return total, nil
}

// MaxDisplacement returns the maximum perpendicular distance of any branch
// point from the straight line through the start and end points. Zero for
// degenerate branches. When start and end coincide the line direction is
// undefined and the maximum distance from the start point is returned
// instead.
func (b *Branch) MaxDisplacement() (float64, error) {
	if len(b.points) == 0 {
		return 0, ErrEmptyBranch
	}
	start := b.points[0]
	chord := b.points[len(b.points)-1].Sub(start)
	axis := chord.Normalize()

	var maxDist float64
	for _, p := range b.points {
		d := p.Sub(start)
		var dist float64
		if axis == (geom.Vec{}) {
			dist = d.Norm()
		} else {
			dist = d.Cross(axis).Norm()
		}
		maxDist = math.Max(maxDist, dist)
	}
	return maxDist, nil
}

// FractalDim returns a tortuosity estimate of the branch path: the mean
// over interior points of log(cumulative path length) over log(straight
// distance from the start). A perfectly straight branch yields exactly 1.0,
// as do single-point and degenerate branches.
func (b *Branch) FractalDim() (float64, error) {
	if len(b.points) == 0 {
		return 0, ErrEmptyBranch
	}
	var (
		cum   float64
		sum   float64
		count int
	)
	start := b.points[0]
	for i := 1; i < len(b.points); i++ {
		cum += b.points[i].Sub(b.points[i-1]).Norm()
		chord := b.points[i].Sub(start).Norm()
		if cum == 0 || chord == 0 {
			continue
		}
		if math.Abs(cum-chord) <= 1e-9*math.Max(cum, 1) {
			// Equal path and chord length means a straight run up to this
			// point; the log ratio is 1 even where both logs vanish.
			sum++
			count++
			continue
		}
		lc := math.Log(chord)
		if math.Abs(lc) < 1e-12 {
			// chord length ~1 makes the denominator vanish; skip the point.
			continue
		}
		sum += math.Log(cum) / lc
		count++
	}
	if count == 0 {
		return 1, nil
	}
	return sum / float64(count), nil
}
