package morpho

import (
	"math"
	"slices"

	"github.com/matzehuels/neurite/pkg/geom"
)

// Morphology owns a forest of root branches. A cell may have several
// disconnected trees (separate dendrite arbors), so the forest is an
// ordered list of roots rather than a single tree.
//
// The canonical point order used by every flattened array is pre-order
// depth-first per root, roots in list order, children in child-list order.
//
// Morphology is not safe for concurrent use without external
// synchronization.
type Morphology struct {
	roots     []*Branch
	shared    *sharedView
	optimized bool
}

// sharedView is the contiguous flattened representation built by Optimize.
// Branch arrays alias windows of these slices while the view is current.
type sharedView struct {
	points []geom.Vec
	radii  []float64
	tags   []int
	labels Labels
	props  map[string][]float64
}

// NewMorphology creates a morphology owning the given root branches.
func NewMorphology(roots ...*Branch) *Morphology {
	return &Morphology{roots: slices.Clone(roots)}
}

// Roots returns the root branch list. The slice is live storage; use
// AddRoot/RemoveRoot to modify the forest.
func (m *Morphology) Roots() []*Branch { return m.roots }

// AddRoot appends a root branch to the forest.
func (m *Morphology) AddRoot(b *Branch) { m.roots = append(m.roots, b) }

// RemoveRoot removes b from the root list if present. Typically paired with
// attaching the branch under another parent. No error is returned if b is
// not a root.
func (m *Morphology) RemoveRoot(b *Branch) {
	m.roots = slices.DeleteFunc(m.roots, func(r *Branch) bool { return r == b })
}

// Branches returns every branch reachable from the roots in canonical
// depth-first pre-order.
func (m *Morphology) Branches() []*Branch {
	var out []*Branch
	var walk func(b *Branch)
	walk = func(b *Branch) {
		out = append(out, b)
		for _, c := range b.children {
			walk(c)
		}
	}
	for _, r := range m.roots {
		walk(r)
	}
	return out
}

// BranchAdjacency maps each branch's position in [Morphology.Branches] to
// the positions of its children in the same indexing.
func (m *Morphology) BranchAdjacency() map[int][]int {
	branches := m.Branches()
	pos := make(map[*Branch]int, len(branches))
	for i, b := range branches {
		pos[b] = i
	}
	adj := make(map[int][]int, len(branches))
	for i, b := range branches {
		children := make([]int, 0, len(b.children))
		for _, c := range b.children {
			children = append(children, pos[c])
		}
		adj[i] = children
	}
	return adj
}

// Len returns the total number of points across the forest.
func (m *Morphology) Len() int {
	total := 0
	for _, b := range m.Branches() {
		total += b.Len()
	}
	return total
}

// IsOptimized reports whether a current flattened representation exists.
func (m *Morphology) IsOptimized() bool { return m.optimized }

// Optimize flattens the forest into one contiguous array per attribute in
// canonical order and rebinds every branch's local arrays as windows into
// the shared storage. While the representation is current, mutating a point
// or label through a branch is visible through the morphology and vice
// versa.
//
// A second call is a no-op unless force is true. After any structural
// mutation (attach, detach, added root) the stored representation is stale;
// Optimize with force recomputes it from the current tree shape.
func (m *Morphology) Optimize(force bool) {
	if m.optimized && !force {
		return
	}

	branches := m.Branches()
	total := 0
	for _, b := range branches {
		total += b.Len()
	}

	shared := &sharedView{
		points: make([]geom.Vec, total),
		radii:  make([]float64, total),
		tags:   make([]int, total),
		props:  map[string][]float64{},
	}

	off := 0
	labels := NoLabels(0)
	for _, b := range branches {
		copy(shared.points[off:], b.points)
		copy(shared.radii[off:], b.radii)
		copy(shared.tags[off:], b.tags)
		labels = Concatenate(&labels, &b.labels)
		off += b.Len()
	}
	shared.labels = labels

	for _, name := range m.propertyNames(branches) {
		vals := make([]float64, total)
		off = 0
		for _, b := range branches {
			if bv, ok := b.props[name]; ok {
				copy(vals[off:], bv)
			} else {
				for i := off; i < off+b.Len(); i++ {
					vals[i] = math.NaN()
				}
			}
			off += b.Len()
		}
		shared.props[name] = vals
	}

	off = 0
	for _, b := range branches {
		n := b.Len()
		props := make(map[string][]float64, len(shared.props))
		for name, vals := range shared.props {
			props[name] = vals[off : off+n : off+n]
		}
		b.rebind(
			shared.points[off:off+n:off+n],
			shared.radii[off:off+n:off+n],
			shared.tags[off:off+n:off+n],
			shared.labels.window(off, n),
			props,
		)
		off += n
	}

	m.shared = shared
	m.optimized = true
}

// FlattenLabels computes the morphology-wide label codec that Optimize
// would store, without mutating any state. Useful to verify that a stored
// flattened representation agrees with a cold flatten.
func (m *Morphology) FlattenLabels() Labels {
	labels := NoLabels(0)
	for _, b := range m.Branches() {
		labels = Concatenate(&labels, &b.labels)
	}
	return labels
}

// FlattenProperties computes the concatenated property arrays that Optimize
// would store, without mutating any state. Properties absent on a branch
// are filled with NaN for that branch's point range.
func (m *Morphology) FlattenProperties() map[string][]float64 {
	branches := m.Branches()
	total := 0
	for _, b := range branches {
		total += b.Len()
	}
	out := map[string][]float64{}
	for _, name := range m.propertyNames(branches) {
		vals := make([]float64, total)
		off := 0
		for _, b := range branches {
			if bv, ok := b.props[name]; ok {
				copy(vals[off:], bv)
			} else {
				for i := off; i < off+b.Len(); i++ {
					vals[i] = math.NaN()
				}
			}
			off += b.Len()
		}
		out[name] = vals
	}
	return out
}

func (m *Morphology) propertyNames(branches []*Branch) []string {
	seen := map[string]bool{}
	var names []string
	for _, b := range branches {
		for name := range b.props {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// Points returns the flattened point array in canonical order, optimizing
// first if no current representation exists.
func (m *Morphology) Points() []geom.Vec {
	m.Optimize(false)
	return m.shared.points
}

// Radii returns the flattened radius array in canonical order.
func (m *Morphology) Radii() []float64 {
	m.Optimize(false)
	return m.shared.radii
}

// Tags returns the flattened tag array in canonical order.
func (m *Morphology) Tags() []int {
	m.Optimize(false)
	return m.shared.tags
}

// Labels returns the morphology-wide label codec.
func (m *Morphology) Labels() *Labels {
	m.Optimize(false)
	return &m.shared.labels
}

// Property returns the named flattened property array and whether any
// branch defines it.
func (m *Morphology) Property(name string) ([]float64, bool) {
	m.Optimize(false)
	vals, ok := m.shared.props[name]
	return vals, ok
}

// ContainsLabel reports whether any point in the morphology carries the
// named label. It does not trigger optimization.
func (m *Morphology) ContainsLabel(name string) bool {
	for _, b := range m.Branches() {
		if b.ContainsLabel(name) {
			return true
		}
	}
	return false
}

// PointsLabelled returns the indices into the flattened point array whose
// label set includes the named label.
func (m *Morphology) PointsLabelled(name string) []int {
	m.Optimize(false)
	return m.shared.labels.PointsLabelled(name)
}

// Rotate rotates every point of every branch about the coordinate origin
// and returns the receiver for chaining.
func (m *Morphology) Rotate(r geom.Rotation) *Morphology {
	for _, b := range m.Branches() {
		b.Rotate(r)
	}
	return m
}

// RootRotate rotates each root's subtree about that root's first point.
// Descendant coordinates are absolute, so rotating the subtree's stored
// points once moves the whole arbor rigidly. Returns the receiver.
func (m *Morphology) RootRotate(r geom.Rotation) *Morphology {
	for _, root := range m.roots {
		if root.Len() == 0 {
			continue
		}
		origin := root.points[0]
		var walk func(b *Branch)
		walk = func(b *Branch) {
			b.rotateAbout(origin, r)
			for _, c := range b.children {
				walk(c)
			}
		}
		walk(root)
	}
	return m
}

// Translate moves every point of every branch by v and returns the
// receiver.
func (m *Morphology) Translate(v geom.Vec) *Morphology {
	for _, b := range m.Branches() {
		b.Translate(v)
	}
	return m
}

// Collapse forces each non-root branch's first point to coincide exactly
// with its parent's last point, removing any numerical gap at the junction.
// Only the first point moves; the rest of the branch keeps its coordinates.
// Returns the receiver.
func (m *Morphology) Collapse() *Morphology {
	for _, b := range m.Branches() {
		if b.parent == nil || b.Len() == 0 || b.parent.Len() == 0 {
			continue
		}
		b.points[0] = b.parent.points[b.parent.Len()-1]
	}
	return m
}

// CloseGaps rigidly translates each branch so its first point coincides
// with its parent's last point, preserving every branch's shape. Branches
// are visited in pre-order, so corrections cascade down the tree. Returns
// the receiver.
func (m *Morphology) CloseGaps() *Morphology {
	for _, b := range m.Branches() {
		if b.parent == nil || b.Len() == 0 || b.parent.Len() == 0 {
			continue
		}
		gap := b.parent.points[b.parent.Len()-1].Sub(b.points[0])
		if gap != (geom.Vec{}) {
			b.Translate(gap)
		}
	}
	return m
}

// Subtree returns the reduced view containing exactly the branches that
// carry at least one of the given labels on any point, plus all their
// transitive descendants. Unlabelled branches on the path to a labelled
// branch are not included.
func (m *Morphology) Subtree(names ...string) *Subtree {
	var out []*Branch
	var walk func(b *Branch, inherited bool)
	walk = func(b *Branch, inherited bool) {
		include := inherited
		if !include {
			for _, name := range names {
				if b.ContainsLabel(name) {
					include = true
					break
				}
			}
		}
		if include {
			out = append(out, b)
		}
		for _, c := range b.children {
			walk(c, include)
		}
	}
	for _, r := range m.roots {
		walk(r, false)
	}
	return &Subtree{branches: out}
}

// Equal reports whether two morphologies hold identical branch structure
// and data: same branch sizes and adjacency in canonical order, equal
// points, radii, and tags, content-equal labels, and equal properties
// (NaN placeholders compare equal to each other).
func (m *Morphology) Equal(o *Morphology) bool {
	mb, ob := m.Branches(), o.Branches()
	if len(mb) != len(ob) {
		return false
	}
	for i := range mb {
		if mb[i].Len() != ob[i].Len() {
			return false
		}
		if !slices.Equal(mb[i].points, ob[i].points) {
			return false
		}
		if !slices.Equal(mb[i].radii, ob[i].radii) {
			return false
		}
		if !slices.Equal(mb[i].tags, ob[i].tags) {
			return false
		}
	}
	adjA, adjB := m.BranchAdjacency(), o.BranchAdjacency()
	for i := range adjA {
		if !slices.Equal(adjA[i], adjB[i]) {
			return false
		}
	}
	la, lb := m.FlattenLabels(), o.FlattenLabels()
	if !la.Equal(&lb) {
		return false
	}
	return propsEqual(m.FlattenProperties(), o.FlattenProperties())
}

func propsEqual(a, b map[string][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for name, av := range a {
		bv, ok := b[name]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] && !(math.IsNaN(av[i]) && math.IsNaN(bv[i])) {
				return false
			}
		}
	}
	return true
}

// Subtree is a reduced view over a subset of a morphology's branches. The
// branches are shared with the owning morphology, not copied.
type Subtree struct {
	branches []*Branch
}

// Branches returns the branches in the view, in canonical traversal order
// of the owning morphology.
func (s *Subtree) Branches() []*Branch { return s.branches }

// Len returns the total number of points across the view.
func (s *Subtree) Len() int {
	total := 0
	for _, b := range s.branches {
		total += b.Len()
	}
	return total
}
