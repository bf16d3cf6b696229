package morpho

import (
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/neurite/pkg/geom"
)

// onesBranch builds an n-point branch at (1,1,1) with unit radii.
func onesBranch(t *testing.T, n int) *Branch {
	t.Helper()
	points := make([]geom.Vec, n)
	radii := make([]float64, n)
	for i := range points {
		points[i] = geom.Vec{1, 1, 1}
		radii[i] = 1
	}
	b, err := NewBranch(points, radii)
	if err != nil {
		t.Fatalf("NewBranch: %v", err)
	}
	return b
}

func TestNewBranchValidation(t *testing.T) {
	if _, err := NewBranch(make([]geom.Vec, 3), make([]float64, 2)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}

	b := onesBranch(t, 3)
	if b.Len() != 3 || b.Size() != 3 {
		t.Errorf("Len = %d, want 3", b.Len())
	}
	if !slices.Equal(b.Tags(), []int{SomaTag, SomaTag, SomaTag}) {
		t.Errorf("default tags = %v", b.Tags())
	}
}

func TestAttachDetach(t *testing.T) {
	a := onesBranch(t, 5)
	b := onesBranch(t, 5)
	c := onesBranch(t, 5)
	d := onesBranch(t, 5)

	a.AttachChild(b)
	a.AttachChild(c)
	b.AttachChild(d)

	if !slices.Equal(a.Children(), []*Branch{b, c}) {
		t.Errorf("children of a = %v", a.Children())
	}
	if a.IsTerminal() || b.IsTerminal() {
		t.Error("branches with children reported terminal")
	}
	if !c.IsTerminal() || !d.IsTerminal() {
		t.Error("leaf branches not reported terminal")
	}

	if err := a.DetachChild(c); err != nil {
		t.Fatalf("DetachChild: %v", err)
	}
	if c.Parent() != nil {
		t.Error("detached child kept its parent")
	}

	// d is a grandchild, not a child of a.
	if err := a.DetachChild(d); !errors.Is(err, ErrInvalidDetach) {
		t.Errorf("err = %v, want ErrInvalidDetach", err)
	}
	if d.Parent() != b {
		t.Error("failed detach mutated the tree")
	}
}

func TestBranchLabels(t *testing.T) {
	b := onesBranch(t, 10)
	l := b.Labels()

	b.Label(nil, "ello")
	wantCodes(t, l, slices.Repeat([]int{1}, 10))

	b.Label(nil, "so long", "goodbye", "sayonara")
	wantCodes(t, l, slices.Repeat([]int{2}, 10))
	wantSet(t, l, 2, "ello", "so long", "goodbye", "sayonara")

	b.Label([]int{1, 3}, "wow")
	wantCodes(t, l, []int{2, 3, 2, 3, 2, 2, 2, 2, 2, 2})

	if !b.ContainsLabel("wow") {
		t.Error("ContainsLabel(wow) = false")
	}
	if got := b.PointsLabelled("wow"); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("PointsLabelled(wow) = %v", got)
	}
	if got := len(b.PointsLabelled("ello")); got != 10 {
		t.Errorf("PointsLabelled(ello) count = %d, want 10", got)
	}
}

func TestCopySharesNothing(t *testing.T) {
	b := onesBranch(t, 10)
	b.Label(nil, "ello")
	b.Label([]int{1, 3}, "wow")
	if err := b.SetProperties(map[string][]float64{"smth": make([]float64, 10)}); err != nil {
		t.Fatalf("SetProperties: %v", err)
	}

	c := b.Copy()

	if c.Len() != b.Len() {
		t.Errorf("copy changed point count: %d", c.Len())
	}
	if !c.Labels().Equal(b.Labels()) {
		t.Error("copy changed label content")
	}
	if c.Labels().book == b.Labels().book {
		t.Error("copy shares the codebook")
	}
	if &c.points[0] == &b.points[0] {
		t.Error("copy shares point storage")
	}
	if cp, _ := c.Property("smth"); &cp[0] == &b.props["smth"][0] {
		t.Error("copy shares property storage")
	}
	if c.Parent() != nil || len(c.Children()) != 0 {
		t.Error("copy should be detached")
	}
}

func TestSetProperties(t *testing.T) {
	b := onesBranch(t, 3)

	if err := b.SetProperties(map[string][]float64{"bad": {1, 2}}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if _, ok := b.Property("bad"); ok {
		t.Error("failed SetProperties left a property behind")
	}

	if err := b.SetProperties(map[string][]float64{"smth": {1, 2, 3}}); err != nil {
		t.Fatalf("SetProperties: %v", err)
	}
	vals, ok := b.Property("smth")
	if !ok || !slices.Equal(vals, []float64{1, 2, 3}) {
		t.Errorf("Property(smth) = %v, %v", vals, ok)
	}
	if !slices.Equal(b.PropertyNames(), []string{"smth"}) {
		t.Errorf("PropertyNames = %v", b.PropertyNames())
	}
	if _, ok := b.Property("other"); ok {
		t.Error("absent property reported present")
	}
}

func TestBranchTransforms(t *testing.T) {
	b, err := NewBranch([]geom.Vec{{1, 0, 0}, {2, 0, 0}}, []float64{1, 1})
	if err != nil {
		t.Fatalf("NewBranch: %v", err)
	}

	b.Translate(geom.Vec{0, 1, 0})
	if b.Points()[0] != (geom.Vec{1, 1, 0}) || b.Points()[1] != (geom.Vec{2, 1, 0}) {
		t.Errorf("after translate: %v", b.Points())
	}

	b.Translate(geom.Vec{0, -1, 0})
	b.Rotate(geom.AxisAngle(geom.Vec{0, 0, 1}, 3.141592653589793))
	got := b.Points()[0]
	if got[0] > -0.999 || got[0] < -1.001 {
		t.Errorf("after rotate: %v", got)
	}
}
