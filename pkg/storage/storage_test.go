package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/neurite/pkg/errors"
	"github.com/matzehuels/neurite/pkg/geom"
	"github.com/matzehuels/neurite/pkg/morpho"
)

func testMorphology(t *testing.T) *morpho.Morphology {
	t.Helper()

	root, err := morpho.NewBranch(
		[]geom.Vec{{0, 0, 0}, {0, 1, 0}},
		[]float64{1, 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	root.Label(nil, "soma")

	child, err := morpho.NewBranch(
		[]geom.Vec{{0, 1, 0}, {0, 2, 0}, {0, 3, 0}},
		[]float64{0.5, 0.5, 0.5},
	)
	if err != nil {
		t.Fatal(err)
	}
	child.Label(nil, "dendrites")
	root.AttachChild(child)

	return morpho.NewMorphology(root)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer store.Close()

	m := testMorphology(t)
	if err := store.Save(ctx, "pyramidal", m, Meta{"species": "mouse"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, meta, err := store.Load(ctx, "pyramidal")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.Equal(m) {
		t.Error("loaded morphology differs from saved")
	}
	if meta["species"] != "mouse" {
		t.Errorf("meta[species] = %v, want mouse", meta["species"])
	}
	if meta[MetaKeyID] == nil || meta[MetaKeyID] == "" {
		t.Error("Save should assign an identifier")
	}
}

func TestFileStoreIDIsStable(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := testMorphology(t)
	if err := store.Save(ctx, "cell", m, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	meta, err := store.Stat(ctx, "cell")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	id := meta[MetaKeyID]

	// Re-saving with the existing meta keeps the identifier.
	if err := store.Save(ctx, "cell", m, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	meta2, err := store.Stat(ctx, "cell")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if meta2[MetaKeyID] != id {
		t.Errorf("identifier changed on re-save: %v != %v", meta2[MetaKeyID], id)
	}
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := testMorphology(t)
	for _, name := range []string{"b-cell", "a-cell", "cortex/c-cell"} {
		if err := store.Save(ctx, name, m, nil); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("List() = %d entries, want 3", len(infos))
	}
	want := []string{"a-cell", "b-cell", "cortex/c-cell"}
	for i, info := range infos {
		if info.Name != want[i] {
			t.Errorf("List()[%d].Name = %q, want %q", i, info.Name, want[i])
		}
	}

	if err := store.Delete(ctx, "a-cell"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := store.Load(ctx, "a-cell"); !errors.Is(err, errors.ErrCodeMorphologyNotFound) {
		t.Errorf("Load(deleted) error = %v, want MORPHOLOGY_NOT_FOUND", err)
	}
	if err := store.Delete(ctx, "a-cell"); !errors.Is(err, errors.ErrCodeMorphologyNotFound) {
		t.Errorf("Delete(missing) error = %v, want MORPHOLOGY_NOT_FOUND", err)
	}
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := testMorphology(t)
	for _, name := range []string{"", "../escape", "a\x00b"} {
		if err := store.Save(ctx, name, m, nil); err == nil {
			t.Errorf("Save(%q) error = nil, want error", name)
		}
		if _, _, err := store.Load(ctx, name); err == nil {
			t.Errorf("Load(%q) error = nil, want error", name)
		}
		if _, err := store.Stat(ctx, name); err == nil {
			t.Errorf("Stat(%q) error = nil, want error", name)
		}
		if err := store.Delete(ctx, name); err == nil {
			t.Errorf("Delete(%q) error = nil, want error", name)
		}
	}
}

func TestFileStoreDeleteStaysInDir(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	outside := filepath.Join(base, "outside.json")
	if err := os.WriteFile(outside, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewFileStore(filepath.Join(base, "store"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	err = store.Delete(ctx, "../outside")
	if err == nil {
		t.Fatal("Delete(../outside) error = nil, want error")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidName {
		t.Errorf("Delete(../outside) code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidName)
	}
	if _, statErr := os.Stat(outside); statErr != nil {
		t.Errorf("file outside the store dir was removed: %v", statErr)
	}
}

func TestOpenSet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	m := testMorphology(t)
	if err := store.Save(ctx, "a", m, Meta{"kind": "granule"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "b", m, Meta{"kind": "purkinje"}); err != nil {
		t.Fatal(err)
	}

	set, err := OpenSet(ctx, store, []string{"a", "b"}, []int{0, 1, 0})
	if err != nil {
		t.Fatalf("OpenSet() error = %v", err)
	}
	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}

	// Metadata comes through the loaders without touching geometry.
	var kinds []string
	for meta := range set.Meta(morpho.IterOpts{Unique: true}) {
		kinds = append(kinds, meta["kind"].(string))
	}
	if len(kinds) != 2 || kinds[0] != "granule" || kinds[1] != "purkinje" {
		t.Errorf("Meta kinds = %v, want [granule purkinje]", kinds)
	}

	// Hard-cached iteration shares instances for repeated indices.
	var loaded []*morpho.Morphology
	for m, err := range set.Morphologies(morpho.IterOpts{HardCache: true}) {
		if err != nil {
			t.Fatalf("Morphologies() error = %v", err)
		}
		loaded = append(loaded, m)
	}
	if len(loaded) != 3 {
		t.Fatalf("Morphologies() yielded %d, want 3", len(loaded))
	}
	if loaded[0] != loaded[2] {
		t.Error("positions 0 and 2 should share one instance under HardCache")
	}
	if loaded[0] == loaded[1] {
		t.Error("positions 0 and 1 reference different assets")
	}

	// Unknown names fail when building the set.
	if _, err := OpenSet(ctx, store, []string{"missing"}, []int{0}); err == nil {
		t.Error("OpenSet(missing) error = nil, want error")
	}
}
