// Package cache provides content-addressed caching for parsed morphologies
// and rendered artifacts.
//
// Two implementations are available: a file-based cache for CLI usage and a
// null cache for tests or when caching is disabled. Keys are generated
// through a [Keyer] so that callers never assemble key strings by hand.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached stage. Parsed documents change only when their
// source file changes, so they keep a long TTL; rendered artifacts depend
// additionally on style defaults and expire sooner.
const (
	TTLParse  = 30 * 24 * time.Hour
	TTLRender = 7 * 24 * time.Hour
)

// Cache is the storage interface for cached byte blobs.
type Cache interface {
	// Get retrieves a value. The second return value reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ParseKeyOpts captures the inputs that affect a parse result.
type ParseKeyOpts struct {
	TagMapHash string // hash of the tag map in effect
}

// RenderKeyOpts captures the inputs that affect a rendered artifact.
type RenderKeyOpts struct {
	Format string // output format (svg, png, dot)
	Style  string // rendering style name
}

// Keyer generates cache keys for the cacheable stages.
type Keyer interface {
	// ParseKey generates a key for a parsed morphology document.
	// sourceHash is the content hash of the SWC input.
	ParseKey(sourceHash string, opts ParseKeyOpts) string

	// RenderKey generates a key for a rendered artifact.
	// docHash is the content hash of the serialized morphology.
	RenderKey(docHash string, opts RenderKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ParseKey generates a key for a parsed morphology document.
func (k *DefaultKeyer) ParseKey(sourceHash string, opts ParseKeyOpts) string {
	return hashKey("parse", sourceHash, opts)
}

// RenderKey generates a key for a rendered artifact.
func (k *DefaultKeyer) RenderKey(docHash string, opts RenderKeyOpts) string {
	return hashKey("render", docHash, opts)
}
