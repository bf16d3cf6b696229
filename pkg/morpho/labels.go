package morpho

import (
	"slices"
	"strings"
)

// LabelSet is a set of label names, stored sorted and without duplicates.
// The empty set means "no labels".
type LabelSet []string

// NewLabelSet builds a set from the given names, sorting and deduplicating.
func NewLabelSet(names ...string) LabelSet {
	s := slices.Clone(names)
	slices.Sort(s)
	return slices.Compact(s)
}

// Contains reports whether the set includes name.
func (s LabelSet) Contains(name string) bool {
	_, ok := slices.BinarySearch(s, name)
	return ok
}

// Union returns a new set containing s plus the given names.
func (s LabelSet) Union(names ...string) LabelSet {
	return NewLabelSet(append(slices.Clone([]string(s)), names...)...)
}

// Equal reports whether two sets have identical content.
func (s LabelSet) Equal(o LabelSet) bool { return slices.Equal(s, o) }

// key returns a canonical content key for codebook lookup.
// Label names never contain NUL, so joining on it is collision-free.
func (s LabelSet) key() string { return strings.Join(s, "\x00") }

// codebook maps integer codes to label sets. Code 0 is always the empty set.
// A codebook is shared by every Labels view flattened into one morphology.
type codebook struct {
	sets  map[int]LabelSet
	index map[string]int // content key -> code
	next  int
}

func newCodebook() *codebook {
	cb := &codebook{
		sets:  map[int]LabelSet{0: {}},
		index: map[string]int{"": 0},
		next:  1,
	}
	return cb
}

// intern returns the code for the given set, allocating the next free code
// if no existing code denotes equal content.
func (cb *codebook) intern(s LabelSet) int {
	if code, ok := cb.index[s.key()]; ok {
		return code
	}
	code := cb.next
	cb.next++
	cb.sets[code] = s
	cb.index[s.key()] = code
	return code
}

func (cb *codebook) clone() *codebook {
	out := &codebook{
		sets:  make(map[int]LabelSet, len(cb.sets)),
		index: make(map[string]int, len(cb.index)),
		next:  cb.next,
	}
	for code, s := range cb.sets {
		out.sets[code] = slices.Clone(s)
		out.index[s.key()] = code
	}
	return out
}

// Labels is the per-point label codec: one integer code per point plus a
// codebook resolving codes to label sets. Multiple Labels values may share
// one codebook and one backing code array; after [Morphology.Optimize] each
// branch's Labels is a window into the morphology-wide codec.
type Labels struct {
	book  *codebook
	codes []int
}

// NoLabels builds a codec for n points with no labels anywhere.
func NoLabels(n int) Labels {
	return Labels{book: newCodebook(), codes: make([]int, n)}
}

// Len returns the number of points covered by the codec.
func (l *Labels) Len() int { return len(l.codes) }

// Codes returns the per-point code array. The slice is the codec's live
// backing storage; treat it as read-only.
func (l *Labels) Codes() []int { return l.codes }

// Sets returns the codebook as a code -> label set mapping. The map is the
// codec's live codebook (shared after flattening); treat it as read-only.
func (l *Labels) Sets() map[int]LabelSet { return l.book.sets }

// Set returns the label set denoted by code.
func (l *Labels) Set(code int) LabelSet { return l.book.sets[code] }

// At returns the label set applying to point i.
func (l *Labels) At(i int) LabelSet { return l.book.sets[l.codes[i]] }

// Label applies the given names to the targeted points. For every target,
// the point's new set is its current set unioned with the names; an existing
// code with equal content is reused, otherwise the next free code is
// allocated. A nil or empty points slice targets all points.
func (l *Labels) Label(points []int, names ...string) {
	if len(points) == 0 {
		points = make([]int, len(l.codes))
		for i := range points {
			points[i] = i
		}
	}
	for _, p := range points {
		next := l.book.sets[l.codes[p]].Union(names...)
		l.codes[p] = l.book.intern(next)
	}
}

// ContainsLabel reports whether any point carries the given name.
func (l *Labels) ContainsLabel(name string) bool {
	for _, c := range l.codes {
		if l.book.sets[c].Contains(name) {
			return true
		}
	}
	return false
}

// PointsLabelled returns the indices of all points whose set contains name.
func (l *Labels) PointsLabelled(name string) []int {
	var out []int
	for i, c := range l.codes {
		if l.book.sets[c].Contains(name) {
			out = append(out, i)
		}
	}
	return out
}

// Equal reports whether two codecs assign identical label sets to identical
// point positions. Code numbering may differ; comparison is by set content.
func (l *Labels) Equal(o *Labels) bool {
	if len(l.codes) != len(o.codes) {
		return false
	}
	for i := range l.codes {
		if !l.At(i).Equal(o.At(i)) {
			return false
		}
	}
	return true
}

// Concatenate merges two codecs into one covering len(a)+len(b) points,
// a's points first. The unified codebook is reconciled by set content:
// codes denoting equal sets collapse onto one code even when the sources
// numbered them differently, and codes denoting distinct sets stay distinct
// even when numerically equal in the sources. Unified codes are assigned in
// lexicographic order of set content so the result is independent of source
// numbering; the empty set keeps code 0.
func Concatenate(a, b *Labels) Labels {
	distinct := make(map[string]LabelSet)
	for _, s := range a.book.sets {
		distinct[s.key()] = s
	}
	for _, s := range b.book.sets {
		distinct[s.key()] = s
	}

	ordered := make([]LabelSet, 0, len(distinct))
	for _, s := range distinct {
		ordered = append(ordered, s)
	}
	slices.SortFunc(ordered, func(x, y LabelSet) int { return slices.Compare(x, y) })

	out := Labels{book: newCodebook(), codes: make([]int, 0, len(a.codes)+len(b.codes))}
	for _, s := range ordered {
		out.book.intern(slices.Clone(s))
	}
	for _, c := range a.codes {
		out.codes = append(out.codes, out.book.index[a.book.sets[c].key()])
	}
	for _, c := range b.codes {
		out.codes = append(out.codes, out.book.index[b.book.sets[c].key()])
	}
	return out
}

// window returns a view over points [off, off+n) sharing the receiver's
// codebook and backing code array. Mutations through the window are visible
// to every other view of the same codec.
func (l *Labels) window(off, n int) Labels {
	return Labels{book: l.book, codes: l.codes[off : off+n : off+n]}
}

// clone returns a deep copy sharing nothing with the receiver.
func (l *Labels) clone() Labels {
	return Labels{book: l.book.clone(), codes: slices.Clone(l.codes)}
}
