// Package storage provides a generic persistent collection: an
// in-memory value guarded by a read-write lock and mirrored to a JSON
// backing file with atomic-replace write semantics.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/lotmarket/internal/common"
)

// Collection wraps an in-memory state of type S with a durable JSON
// backing file. Reads take a shared lock and mutations take an
// exclusive lock, so no caller ever observes a partially-mutated state.
type Collection[S any] struct {
	path  string
	mu    sync.RWMutex
	state S
}

// Open reads the backing file at path and returns a Collection holding
// its decoded state. A missing file yields init(). A file that exists
// but cannot be read or decoded yields an error wrapping
// common.ErrCorruptStore; callers treat that as fatal at startup rather
// than risk overwriting good data with an empty collection. loaded, if
// non-nil, is applied to the decoded state to rebuild derived in-memory
// structures the file does not carry.
func Open[S any](path string, init func() S, loaded func(S) S) (*Collection[S], error) {
	c := &Collection[S]{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.state = init()
			return c, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrCorruptStore, path, err)
	}
	var s S
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", common.ErrCorruptStore, path, err)
	}
	if loaded != nil {
		s = loaded(s)
	}
	c.state = s
	return c, nil
}

// View runs fn against the current state under the shared lock. fn must
// not retain or mutate the state.
func (c *Collection[S]) View(fn func(S)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.state)
}

// Update runs fn under the exclusive lock and, on success, persists the
// state fn returned to the backing file before releasing the lock. The
// mutation and the persist form one critical section: no other writer
// can interleave between them, and readers see either the state before
// fn or the state after it. If fn returns an error nothing is persisted
// and the in-memory state is unchanged; fn must not mutate the passed
// state on its error path.
func (c *Collection[S]) Update(fn func(S) (S, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(c.state)
	if err != nil {
		return err
	}
	if err := c.persist(next); err != nil {
		return fmt.Errorf("persisting %s: %w", c.path, err)
	}
	c.state = next
	return nil
}

// persist writes the full snapshot through a temporary file in the same
// directory and renames it over the backing file, so a crash mid-write
// never leaves a truncated or half-written store.
func (c *Collection[S]) persist(s S) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}
