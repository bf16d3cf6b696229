package morpho

import (
	"maps"
	"slices"

	"github.com/matzehuels/neurite/pkg/geom"
)

// SomaTag is the default point tag assigned when a branch is created
// without explicit tags. Tag values follow the SWC type convention
// (1 = soma, 2 = axon, 3 = dendrite).
const SomaTag = 1

// Branch is a single unbranched run of points with per-point radius, tag,
// label, and property data, linked into a tree through a parent
// back-reference and an ordered, exclusively-owned child list.
//
// The parent link is non-owning: it exists for detachment and upward
// traversal only. Cycle prevention is the caller's responsibility -
// AttachChild performs no cycle check.
//
// Branch is not safe for concurrent use without external synchronization.
type Branch struct {
	points []geom.Vec
	radii  []float64
	tags   []int
	labels Labels
	props  map[string][]float64

	parent   *Branch
	children []*Branch
}

// NewBranch creates a detached branch from points and matching radii.
// Tags default to [SomaTag] and labels to none. Returns
// [ErrLengthMismatch] when the radii count differs from the point count.
func NewBranch(points []geom.Vec, radii []float64) (*Branch, error) {
	if len(points) != len(radii) {
		return nil, ErrLengthMismatch
	}
	tags := make([]int, len(points))
	for i := range tags {
		tags[i] = SomaTag
	}
	return &Branch{
		points: slices.Clone(points),
		radii:  slices.Clone(radii),
		tags:   tags,
		labels: NoLabels(len(points)),
		props:  map[string][]float64{},
	}, nil
}

// Len returns the number of points on the branch.
func (b *Branch) Len() int { return len(b.points) }

// Size is an alias for Len.
func (b *Branch) Size() int { return len(b.points) }

// IsTerminal reports whether the branch has no children.
func (b *Branch) IsTerminal() bool { return len(b.children) == 0 }

// IsRoot reports whether the branch has no parent.
func (b *Branch) IsRoot() bool { return b.parent == nil }

// Parent returns the owning parent branch, or nil for a root.
func (b *Branch) Parent() *Branch { return b.parent }

// Children returns the branch's child list. The slice is the branch's live
// child storage; use AttachChild/DetachChild to modify it.
func (b *Branch) Children() []*Branch { return b.children }

// Points returns the branch's point array. After [Morphology.Optimize] this
// is a window into the morphology-wide array; mutations are shared.
func (b *Branch) Points() []geom.Vec { return b.points }

// Radii returns the per-point radii.
func (b *Branch) Radii() []float64 { return b.radii }

// Tags returns the per-point tags.
func (b *Branch) Tags() []int { return b.tags }

// SetTags replaces the per-point tags. Returns [ErrLengthMismatch] when the
// count differs from the point count.
func (b *Branch) SetTags(tags []int) error {
	if len(tags) != len(b.points) {
		return ErrLengthMismatch
	}
	copy(b.tags, tags)
	return nil
}

// Labels returns the branch's label codec view.
func (b *Branch) Labels() *Labels { return &b.labels }

// AttachChild appends child to the branch's child list and sets its parent
// back-reference. The caller must not introduce cycles; no check is made.
func (b *Branch) AttachChild(child *Branch) {
	child.parent = b
	b.children = append(b.children, child)
}

// DetachChild removes child from the branch's child list and clears its
// parent back-reference. Returns [ErrInvalidDetach] when the argument is not
// currently a child; the tree is left unchanged in that case.
func (b *Branch) DetachChild(child *Branch) error {
	i := slices.Index(b.children, child)
	if i < 0 {
		return ErrInvalidDetach
	}
	b.children = slices.Delete(b.children, i, i+1)
	child.parent = nil
	return nil
}

// Label applies the given names to the targeted points, delegating to the
// label codec. A nil points slice targets every point.
func (b *Branch) Label(points []int, names ...string) {
	b.labels.Label(points, names...)
}

// ContainsLabel reports whether any point on the branch carries name.
func (b *Branch) ContainsLabel(name string) bool {
	return b.labels.ContainsLabel(name)
}

// PointsLabelled returns the indices of the branch points carrying name.
func (b *Branch) PointsLabelled(name string) []int {
	return b.labels.PointsLabelled(name)
}

// SetProperties attaches or overwrites named per-point value arrays.
// Every array must match the branch's point count; on mismatch the branch
// is left unchanged and [ErrLengthMismatch] is returned.
func (b *Branch) SetProperties(props map[string][]float64) error {
	for _, vals := range props {
		if len(vals) != len(b.points) {
			return ErrLengthMismatch
		}
	}
	for name, vals := range props {
		if dst, ok := b.props[name]; ok && len(dst) == len(vals) {
			copy(dst, vals)
			continue
		}
		b.props[name] = slices.Clone(vals)
	}
	return nil
}

// Property returns the named per-point array and whether it is defined on
// this branch. Absent properties are absent, not zero.
func (b *Branch) Property(name string) ([]float64, bool) {
	vals, ok := b.props[name]
	return vals, ok
}

// PropertyNames returns the names of the properties defined on this branch,
// sorted.
func (b *Branch) PropertyNames() []string {
	return slices.Sorted(maps.Keys(b.props))
}

// Copy returns a detached deep copy: points, radii, tags, properties, and
// the label codebook are all independently owned, and parent/child links
// are not carried over.
func (b *Branch) Copy() *Branch {
	props := make(map[string][]float64, len(b.props))
	for name, vals := range b.props {
		props[name] = slices.Clone(vals)
	}
	return &Branch{
		points: slices.Clone(b.points),
		radii:  slices.Clone(b.radii),
		tags:   slices.Clone(b.tags),
		labels: b.labels.clone(),
		props:  props,
	}
}

// Translate moves every point on the branch by v.
func (b *Branch) Translate(v geom.Vec) {
	for i := range b.points {
		b.points[i] = b.points[i].Add(v)
	}
}

// Rotate rotates every point on the branch about the coordinate origin.
func (b *Branch) Rotate(r geom.Rotation) {
	for i := range b.points {
		b.points[i] = r.Apply(b.points[i])
	}
}

// rotateAbout rotates every point on the branch about the given origin.
func (b *Branch) rotateAbout(origin geom.Vec, r geom.Rotation) {
	for i := range b.points {
		b.points[i] = r.ApplyAbout(origin, b.points[i])
	}
}

// rebind swaps the branch's per-point storage for windows into a
// morphology-wide flattened representation.
func (b *Branch) rebind(points []geom.Vec, radii []float64, tags []int, labels Labels, props map[string][]float64) {
	b.points = points
	b.radii = radii
	b.tags = tags
	b.labels = labels
	b.props = props
}
