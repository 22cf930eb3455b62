// Package store implements flat-file collection storage. Each entity type
// lives in a single JSON file holding the full array of its records; callers
// load the whole collection, mutate it in memory, and save the whole
// collection back. There is no locking between savers: when two writers race
// on the same collection the last save wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ReadError indicates a collection file could not be read or decoded.
// Reads are fail-open: the error is logged and an empty collection is
// returned, so listing callers degrade to "no data" instead of failing.
type ReadError struct {
	Collection string
	Err        error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read collection %q: %v", e.Collection, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError indicates a collection file could not be persisted. Writes are
// fail-closed: the error propagates to the caller.
type WriteError struct {
	Collection string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write collection %q: %v", e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store locates collection files under a single data directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created lazily on the
// first save or auto-created load.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory the store reads and writes.
func (s *Store) Dir() string { return s.dir }

// Collection is a typed view over one collection file.
type Collection[T any] struct {
	store *Store
	name  string
}

// NewCollection returns a typed handle for the named collection.
func NewCollection[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) path() string {
	return filepath.Join(c.store.dir, c.name+".json")
}

// Load reads the full collection from disk. A missing file is created as an
// empty collection. A corrupt or unreadable file is logged and treated as
// empty; Load never fails from the caller's point of view.
func (c *Collection[T]) Load(ctx context.Context) []T {
	data, err := os.ReadFile(c.path())
	if err != nil {
		if os.IsNotExist(err) {
			// First access: materialize the empty collection so later
			// saves and external inspection see a well-formed file.
			if werr := c.Save(ctx, []T{}); werr != nil {
				zctx.From(ctx).Error("Create empty collection",
					zap.String("collection", c.name),
					zap.Error(werr),
				)
			}
			return []T{}
		}
		rerr := &ReadError{Collection: c.name, Err: err}
		zctx.From(ctx).Error("Load collection", zap.Error(rerr))
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		rerr := &ReadError{Collection: c.name, Err: err}
		zctx.From(ctx).Error("Decode collection", zap.Error(rerr))
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Save serializes the full collection and atomically replaces the collection
// file, creating the data directory if needed. Atomicity here means a reader
// never observes a half-written file; it does not coordinate concurrent
// savers.
func (c *Collection[T]) Save(_ context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &WriteError{Collection: c.name, Err: err}
	}

	if err := os.MkdirAll(c.store.dir, 0o755); err != nil {
		return &WriteError{Collection: c.name, Err: err}
	}

	tmp, err := os.CreateTemp(c.store.dir, c.name+"-*.tmp")
	if err != nil {
		return &WriteError{Collection: c.name, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Collection: c.name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Collection: c.name, Err: err}
	}
	if err := os.Rename(tmpName, c.path()); err != nil {
		os.Remove(tmpName)
		return &WriteError{Collection: c.name, Err: err}
	}
	return nil
}
