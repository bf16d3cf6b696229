package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/neurite/pkg/errors"
	"github.com/matzehuels/neurite/pkg/morpho"
	"github.com/matzehuels/neurite/pkg/observability"
)

// FileStore persists morphologies as one JSON envelope file per name under
// a base directory. Names may contain forward slashes, which map onto
// subdirectories.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir.
// The directory is created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save persists a morphology under name, overwriting any existing entry.
func (s *FileStore) Save(ctx context.Context, name string, m *morpho.Morphology, meta Meta) error {
	start := time.Now()

	data, _, err := EncodeEnvelope(name, m, meta)
	if err != nil {
		observability.Storage().OnError(ctx, "save", name, err)
		return err
	}

	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		observability.Storage().OnError(ctx, "save", name, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "create directory for %q", name)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		observability.Storage().OnError(ctx, "save", name, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "write %q", name)
	}

	observability.Storage().OnSave(ctx, name, len(data), time.Since(start))
	return nil
}

// Load retrieves a morphology and its metadata by name.
func (s *FileStore) Load(ctx context.Context, name string) (*morpho.Morphology, Meta, error) {
	start := time.Now()

	data, err := s.read(name)
	if err != nil {
		observability.Storage().OnError(ctx, "load", name, err)
		return nil, nil, err
	}
	m, _, meta, err := DecodeEnvelope(data, true)
	if err != nil {
		observability.Storage().OnError(ctx, "load", name, err)
		return nil, nil, err
	}

	observability.Storage().OnLoad(ctx, name, time.Since(start))
	return m, meta, nil
}

// Stat retrieves metadata by name without decoding the geometry.
func (s *FileStore) Stat(ctx context.Context, name string) (Meta, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}
	_, _, meta, err := DecodeEnvelope(data, false)
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// List returns all stored morphologies sorted by name.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	var infos []Info

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, name, meta, err := DecodeEnvelope(data, false)
		if err != nil {
			// Foreign files in the store directory are skipped.
			return nil
		}
		infos = append(infos, Info{Name: name, Meta: meta})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list store")
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a stored morphology.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateMorphologyName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeMorphologyNotFound, "morphology %q not found", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %q", name)
	}
	return nil
}

// Close does nothing for file stores.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(name string) ([]byte, error) {
	if err := errors.ValidateMorphologyName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeMorphologyNotFound, "morphology %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %q", name)
	}
	return data, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name)+".json")
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
