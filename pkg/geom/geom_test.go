package geom

import (
	"math"
	"testing"
)

const eps = 1e-9

func close(a, b Vec) bool {
	return math.Abs(a[0]-b[0]) < eps && math.Abs(a[1]-b[1]) < eps && math.Abs(a[2]-b[2]) < eps
}

func TestVecOps(t *testing.T) {
	v := Vec{1, 2, 3}
	w := Vec{4, 5, 6}

	if got := v.Add(w); got != (Vec{5, 7, 9}) {
		t.Errorf("Add = %v", got)
	}
	if got := w.Sub(v); got != (Vec{3, 3, 3}) {
		t.Errorf("Sub = %v", got)
	}
	if got := v.Dot(w); got != 32 {
		t.Errorf("Dot = %v", got)
	}
	if got := (Vec{1, 0, 0}).Cross(Vec{0, 1, 0}); got != (Vec{0, 0, 1}) {
		t.Errorf("Cross = %v", got)
	}
	if got := (Vec{3, 4, 0}).Norm(); got != 5 {
		t.Errorf("Norm = %v", got)
	}
	if got := (Vec{0, 0, 2}).Normalize(); got != (Vec{0, 0, 1}) {
		t.Errorf("Normalize = %v", got)
	}
	if got := (Vec{}).Normalize(); got != (Vec{}) {
		t.Errorf("Normalize zero = %v", got)
	}
}

func TestRotationIdentity(t *testing.T) {
	v := Vec{1, 2, 3}
	if got := Identity().Apply(v); !close(got, v) {
		t.Errorf("identity moved point: %v", got)
	}
	if got := EulerXYZ(0, 0, 0).Apply(v); !close(got, v) {
		t.Errorf("zero Euler moved point: %v", got)
	}
}

func TestRotationAboutZ(t *testing.T) {
	r := EulerXYZ(0, 0, math.Pi/2)
	if got := r.Apply(Vec{1, 0, 0}); !close(got, Vec{0, 1, 0}) {
		t.Errorf("z quarter turn: %v", got)
	}
}

func TestAxisAngle(t *testing.T) {
	r := AxisAngle(Vec{0, 0, 1}, math.Pi/2)
	if got := r.Apply(Vec{1, 0, 0}); !close(got, Vec{0, 1, 0}) {
		t.Errorf("axis-angle quarter turn: %v", got)
	}

	// Zero axis falls back to identity.
	r = AxisAngle(Vec{}, math.Pi)
	if got := r.Apply(Vec{1, 2, 3}); !close(got, Vec{1, 2, 3}) {
		t.Errorf("zero axis should be identity: %v", got)
	}
}

func TestApplyAbout(t *testing.T) {
	r := AxisAngle(Vec{0, 0, 1}, math.Pi)
	origin := Vec{1, 0, 0}
	if got := r.ApplyAbout(origin, Vec{2, 0, 0}); !close(got, Vec{0, 0, 0}) {
		t.Errorf("half-turn about pivot: %v", got)
	}
	if got := r.ApplyAbout(origin, origin); !close(got, origin) {
		t.Errorf("pivot should be fixed: %v", got)
	}
}

func TestCompose(t *testing.T) {
	quarter := AxisAngle(Vec{0, 0, 1}, math.Pi/2)
	half := quarter.Compose(quarter)
	if got := half.Apply(Vec{1, 0, 0}); !close(got, Vec{-1, 0, 0}) {
		t.Errorf("composed half turn: %v", got)
	}
}
