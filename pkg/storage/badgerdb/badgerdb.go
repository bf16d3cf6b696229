// Package badgerdb provides a BadgerDB-backed morphology store.
//
// BadgerDB is an embedded key-value store with low-latency access, suited
// for collections too large for one-file-per-cell layouts. Entries live
// under a single key prefix, so a database can be shared with other data.
package badgerdb

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"

	"github.com/matzehuels/neurite/pkg/cache"
	"github.com/matzehuels/neurite/pkg/errors"
	"github.com/matzehuels/neurite/pkg/morpho"
	"github.com/matzehuels/neurite/pkg/observability"
	"github.com/matzehuels/neurite/pkg/storage"
)

// keyPrefix namespaces morphology entries within the database.
const keyPrefix = "morph:"

// Config holds configuration for a BadgerDB-backed store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output.
	// If nil, internal logging is disabled.
	Logger *log.Logger
}

// DefaultConfig returns a durable on-disk configuration rooted at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryConfig returns a configuration for testing: in-memory, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts a charm logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Store is a BadgerDB-backed implementation of [storage.Store].
// It is safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens a BadgerDB store with the given configuration.
// The caller must Close the store when done.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open badger database")
	}
	return &Store{db: db}, nil
}

// Save persists a morphology under name, overwriting any existing entry.
// Transaction conflicts are retried with backoff.
func (s *Store) Save(ctx context.Context, name string, m *morpho.Morphology, meta storage.Meta) error {
	start := time.Now()

	data, _, err := storage.EncodeEnvelope(name, m, meta)
	if err != nil {
		observability.Storage().OnError(ctx, "save", name, err)
		return err
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key(name), data)
		})
		if stderrors.Is(err, badger.ErrConflict) {
			return cache.Retryable(cache.ErrConflict)
		}
		return err
	})
	if err != nil {
		observability.Storage().OnError(ctx, "save", name, err)
		return errors.Wrap(errors.ErrCodeStorage, err, "write %q", name)
	}

	observability.Storage().OnSave(ctx, name, len(data), time.Since(start))
	return nil
}

// Load retrieves a morphology and its metadata by name.
func (s *Store) Load(ctx context.Context, name string) (*morpho.Morphology, storage.Meta, error) {
	start := time.Now()

	data, err := s.read(name)
	if err != nil {
		observability.Storage().OnError(ctx, "load", name, err)
		return nil, nil, err
	}
	m, _, meta, err := storage.DecodeEnvelope(data, true)
	if err != nil {
		observability.Storage().OnError(ctx, "load", name, err)
		return nil, nil, err
	}

	observability.Storage().OnLoad(ctx, name, time.Since(start))
	return m, meta, nil
}

// Stat retrieves metadata by name without decoding the geometry.
func (s *Store) Stat(ctx context.Context, name string) (storage.Meta, error) {
	data, err := s.read(name)
	if err != nil {
		return nil, err
	}
	_, _, meta, err := storage.DecodeEnvelope(data, false)
	return meta, err
}

// List returns all stored morphologies sorted by name.
func (s *Store) List(ctx context.Context) ([]storage.Info, error) {
	var infos []storage.Info

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			name := string(it.Item().Key()[len(keyPrefix):])
			err := it.Item().Value(func(val []byte) error {
				_, _, meta, err := storage.DecodeEnvelope(val, false)
				if err != nil {
					return err
				}
				infos = append(infos, storage.Info{Name: name, Meta: meta})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list store")
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a stored morphology.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		// Badger deletes are blind; probe first so missing names error.
		if _, err := txn.Get(key(name)); err != nil {
			return err
		}
		return txn.Delete(key(name))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.New(errors.ErrCodeMorphologyNotFound, "morphology %q not found", name)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete %q", name)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) read(name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.New(errors.ErrCodeMorphologyNotFound, "morphology %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %q", name)
	}
	return data, nil
}

func key(name string) []byte {
	return []byte(keyPrefix + name)
}

// Ensure Store implements storage.Store.
var _ storage.Store = (*Store)(nil)
