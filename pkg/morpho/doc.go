// Package morpho implements the branching geometry of reconstructed cell
// morphologies: label compression, branches, morphologies, and lazily
// loaded morphology sets.
//
// # Data model
//
// A [Branch] is a single unbranched run of 3-D points with one radius, one
// integer tag, one label code, and optional named property values per point.
// Branches link into trees through parent/child references; a [Morphology]
// owns a forest of root branches and provides traversal, flattening, and
// rigid transforms over the whole structure.
//
// Per-point labels use a two-level codec ([Labels]): an integer code array
// plus a codebook mapping each code to a set of label names. Code 0 always
// means "no labels". Labelling a point unions the new names into its current
// set and reuses or allocates a code for the result, so arbitrarily many
// label combinations compress into a small integer alphabet.
//
// # Flattening
//
// [Morphology.Optimize] rewrites the forest into contiguous per-attribute
// arrays in canonical depth-first order and rebinds every branch's local
// arrays as windows into the shared storage. After optimization, mutating a
// point through a branch is visible through the morphology and vice versa;
// this aliasing is part of the contract. [Morphology.FlattenLabels] and
// [Morphology.FlattenProperties] compute the same result without touching
// stored state.
//
// # Sets
//
// A [Set] maps many placed cells onto few distinct morphology assets. Each
// asset is a deferred [Loader]; iteration policies control whether repeated
// references share one loaded instance (hard cache), load independently
// (soft cache), or are deduplicated entirely (unique).
//
// Nothing in this package is safe for concurrent mutation. A morphology and
// its branches are owned by one logical owner at a time.
package morpho
