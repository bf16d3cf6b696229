package morpho

import (
	"fmt"
	"iter"
)

// Loader is a deferred supplier of one named morphology asset. Load may be
// expensive (disk, parse); the core treats it as an opaque callable and
// assumes nothing about its own caching or I/O behavior.
type Loader interface {
	// Name returns the asset's identifier.
	Name() string
	// Load produces a freshly constructed morphology.
	Load() (*Morphology, error)
	// Meta returns the asset's descriptive metadata (provenance and the
	// like). Must be cheap: callers use it to avoid paying load cost.
	Meta() map[string]any
}

// StoredMorphology is the standard Loader implementation: a name, a
// zero-argument load function, and a metadata map.
type StoredMorphology struct {
	name string
	load func() (*Morphology, error)
	meta map[string]any
}

// NewStoredMorphology wraps a deferred load function as a [Loader].
// A nil meta map is replaced by an empty one.
func NewStoredMorphology(name string, load func() (*Morphology, error), meta map[string]any) *StoredMorphology {
	if meta == nil {
		meta = map[string]any{}
	}
	return &StoredMorphology{name: name, load: load, meta: meta}
}

// Name returns the asset identifier.
func (s *StoredMorphology) Name() string { return s.name }

// Load invokes the deferred load function.
func (s *StoredMorphology) Load() (*Morphology, error) { return s.load() }

// Meta returns the asset metadata map.
func (s *StoredMorphology) Meta() map[string]any { return s.meta }

// Set maps many placed cells onto few distinct morphology assets: an
// ordered list of loaders plus one loader index per cell. Loading is lazy;
// iteration policy decides how much instance sharing repeated indices get.
type Set struct {
	loaders []Loader
	indices []int
}

// NewSet validates that every index selects an existing loader and returns
// the set. An index outside [0, len(loaders)) fails immediately with
// [ErrIndexOutOfBounds] rather than lazily at iteration time.
func NewSet(loaders []Loader, indices []int) (*Set, error) {
	for pos, idx := range indices {
		if idx < 0 || idx >= len(loaders) {
			return nil, fmt.Errorf("%w: index %d at position %d, have %d loaders",
				ErrIndexOutOfBounds, idx, pos, len(loaders))
		}
	}
	return &Set{loaders: loaders, indices: indices}, nil
}

// IterOpts selects the iteration policy for [Set.Morphologies] and
// [Set.Meta].
type IterOpts struct {
	// HardCache invokes each distinct loader at most once per iteration:
	// repeated indices yield the exact same morphology instance, so
	// mutations are visible through every alias. The cache is scoped to one
	// iteration call. Without it (the soft-cache default) every position
	// triggers an independent load and yields an independently mutable
	// instance.
	HardCache bool

	// Unique yields one element per distinct loader referenced by at least
	// one index, in order of first occurrence, instead of one element per
	// index.
	Unique bool
}

// Len returns the number of placed cells (indices).
func (s *Set) Len() int { return len(s.indices) }

// Count returns the number of distinct loaders.
func (s *Set) Count() int { return len(s.loaders) }

// Indices returns the per-cell loader index array. Treat it as read-only.
func (s *Set) Indices() []int { return s.indices }

// Names returns the loader names in loader order.
func (s *Set) Names() []string {
	names := make([]string, len(s.loaders))
	for i, l := range s.loaders {
		names[i] = l.Name()
	}
	return names
}

// Morphologies returns a lazy sequence of loaded morphologies under the
// given policy. The sequence is finite and not restartable; call
// Morphologies again for a fresh iteration (and, under HardCache, a fresh
// cache scope). Load failures are yielded in the error position with a nil
// morphology; the consumer decides whether to stop.
func (s *Set) Morphologies(opts IterOpts) iter.Seq2[*Morphology, error] {
	return func(yield func(*Morphology, error) bool) {
		var cache map[int]*Morphology
		if opts.HardCache {
			cache = make(map[int]*Morphology)
		}
		for idx := range s.iterIndices(opts.Unique) {
			if opts.HardCache {
				if m, ok := cache[idx]; ok {
					if !yield(m, nil) {
						return
					}
					continue
				}
			}
			m, err := s.loaders[idx].Load()
			if err == nil && opts.HardCache {
				cache[idx] = m
			}
			if !yield(m, err) {
				return
			}
		}
	}
}

// Meta returns a lazy sequence over the loaders' metadata maps using the
// same ordering and deduplication rules as [Set.Morphologies], without
// invoking any loader.
func (s *Set) Meta(opts IterOpts) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		for idx := range s.iterIndices(opts.Unique) {
			if !yield(s.loaders[idx].Meta()) {
				return
			}
		}
	}
}

// iterIndices yields loader indices in cell order, or deduplicated by
// first occurrence when unique is set.
func (s *Set) iterIndices(unique bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		if !unique {
			for _, idx := range s.indices {
				if !yield(idx) {
					return
				}
			}
			return
		}
		seen := make(map[int]bool, len(s.loaders))
		for _, idx := range s.indices {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			if !yield(idx) {
				return
			}
		}
	}
}
