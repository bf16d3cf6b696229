// Package storage persists named morphologies.
//
// A [Store] maps morphology names to serialized documents plus freeform
// metadata. Two backends are provided: a plain-file store for simple CLI
// usage and a BadgerDB store (see the badgerdb subpackage) for larger
// collections. Both persist the same JSON envelope, so collections can be
// migrated between backends by copy.
//
// Stores also act as loader factories for [morpho.Set]: see [NewLoader] and
// [OpenSet].
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/neurite/pkg/errors"
	morphio "github.com/matzehuels/neurite/pkg/io"
	"github.com/matzehuels/neurite/pkg/morpho"
)

// Meta is freeform metadata stored alongside a morphology.
type Meta map[string]any

// MetaKeyID is the metadata key holding the asset's generated identifier.
const MetaKeyID = "id"

// Info describes one stored morphology without loading its geometry.
type Info struct {
	Name string
	Meta Meta
}

// Store is the persistence interface for named morphologies.
type Store interface {
	// Save persists a morphology under name. An existing entry is
	// overwritten. If meta carries no identifier, one is generated and
	// persisted with it.
	Save(ctx context.Context, name string, m *morpho.Morphology, meta Meta) error

	// Load retrieves a morphology and its metadata by name.
	Load(ctx context.Context, name string) (*morpho.Morphology, Meta, error)

	// Stat retrieves metadata by name without decoding the geometry.
	Stat(ctx context.Context, name string) (Meta, error)

	// List returns all stored morphologies sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a stored morphology. Deleting a missing name is an
	// error with code MORPHOLOGY_NOT_FOUND.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// envelope is the persisted wire form shared by all backends.
type envelope struct {
	Name     string          `json:"name"`
	Meta     Meta            `json:"meta,omitempty"`
	Document json.RawMessage `json:"document"`
}

// EncodeEnvelope serializes a morphology with its metadata, assigning an
// identifier when meta has none. The returned Meta is the persisted copy.
// Backends share this wire form so that collections can be migrated
// between them by copy.
func EncodeEnvelope(name string, m *morpho.Morphology, meta Meta) ([]byte, Meta, error) {
	if err := errors.ValidateMorphologyName(name); err != nil {
		return nil, nil, err
	}

	stored := make(Meta, len(meta)+1)
	for k, v := range meta {
		stored[k] = v
	}
	if _, ok := stored[MetaKeyID]; !ok {
		stored[MetaKeyID] = uuid.NewString()
	}

	doc, err := morphio.MarshalJSON(m)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeCodec, err, "serialize morphology %q", name)
	}

	data, err := json.Marshal(envelope{Name: name, Meta: stored, Document: doc})
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeCodec, err, "serialize envelope %q", name)
	}
	return data, stored, nil
}

// DecodeEnvelope deserializes a stored envelope into its name, metadata and
// (when geometry is true) decoded morphology. When geometry is false the
// document payload is left untouched.
func DecodeEnvelope(data []byte, geometry bool) (*morpho.Morphology, string, Meta, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", nil, errors.Wrap(errors.ErrCodeCodec, err, "deserialize envelope")
	}
	if !geometry {
		return nil, env.Name, env.Meta, nil
	}

	m, err := morphio.UnmarshalJSON(env.Document)
	if err != nil {
		return nil, env.Name, env.Meta, errors.Wrap(errors.ErrCodeCodec, err, "deserialize morphology %q", env.Name)
	}
	return m, env.Name, env.Meta, nil
}

// NewLoader wraps one stored morphology as a lazy [morpho.Loader].
// Metadata is fetched once up front so that Meta calls stay cheap; the
// geometry itself is decoded on every Load.
func NewLoader(ctx context.Context, s Store, name string) (morpho.Loader, error) {
	meta, err := s.Stat(ctx, name)
	if err != nil {
		return nil, err
	}
	load := func() (*morpho.Morphology, error) {
		m, _, err := s.Load(ctx, name)
		return m, err
	}
	return morpho.NewStoredMorphology(name, load, meta), nil
}

// OpenSet builds a [morpho.Set] over stored morphologies. names selects the
// loaders in order; indices maps each placed cell to one of those loaders.
func OpenSet(ctx context.Context, s Store, names []string, indices []int) (*morpho.Set, error) {
	loaders := make([]morpho.Loader, len(names))
	for i, name := range names {
		l, err := NewLoader(ctx, s, name)
		if err != nil {
			return nil, fmt.Errorf("loader %q: %w", name, err)
		}
		loaders[i] = l
	}
	return morpho.NewSet(loaders, indices)
}
